package repository

import (
	"errors"

	"github.com/fulfil-next/internal/models"

	"gorm.io/gorm"
)

// EmailTemplateRepository 邮件模板数据访问接口
type EmailTemplateRepository interface {
	GetByName(name string) (*models.EmailTemplate, error)
	List(filter EmailTemplateListFilter) ([]models.EmailTemplate, error)
	Save(tpl *models.EmailTemplate) error
}

// GormEmailTemplateRepository GORM 实现
type GormEmailTemplateRepository struct {
	db *gorm.DB
}

// NewEmailTemplateRepository 创建模板仓库
func NewEmailTemplateRepository(db *gorm.DB) *GormEmailTemplateRepository {
	return &GormEmailTemplateRepository{db: db}
}

// GetByName 按名称获取模板（不区分启用状态）
func (r *GormEmailTemplateRepository) GetByName(name string) (*models.EmailTemplate, error) {
	var tpl models.EmailTemplate
	if err := r.db.Where("name = ?", name).First(&tpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tpl, nil
}

// List 模板列表，默认只返回启用模板
func (r *GormEmailTemplateRepository) List(filter EmailTemplateListFilter) ([]models.EmailTemplate, error) {
	query := r.db.Model(&models.EmailTemplate{})
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	var templates []models.EmailTemplate
	if err := query.Order("name asc").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// Save 新建或更新模板
func (r *GormEmailTemplateRepository) Save(tpl *models.EmailTemplate) error {
	return r.db.Save(tpl).Error
}
