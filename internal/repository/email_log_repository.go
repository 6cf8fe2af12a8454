package repository

import (
	"strings"

	"github.com/fulfil-next/internal/constants"
	"github.com/fulfil-next/internal/models"

	"gorm.io/gorm"
)

// EmailLogRepository 邮件日志数据访问接口（只追加，不提供更新与删除）
type EmailLogRepository interface {
	Create(entry *models.EmailLog) error
	List(filter EmailLogListFilter) ([]models.EmailLog, int64, error)
	Stats() (EmailLogStats, error)
}

// GormEmailLogRepository GORM 实现
type GormEmailLogRepository struct {
	db *gorm.DB
}

// NewEmailLogRepository 创建邮件日志仓库
func NewEmailLogRepository(db *gorm.DB) *GormEmailLogRepository {
	return &GormEmailLogRepository{db: db}
}

// Create 追加日志
func (r *GormEmailLogRepository) Create(entry *models.EmailLog) error {
	return r.db.Create(entry).Error
}

// List 分页查询日志
func (r *GormEmailLogRepository) List(filter EmailLogListFilter) ([]models.EmailLog, int64, error) {
	query := r.db.Model(&models.EmailLog{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if name := strings.TrimSpace(filter.TemplateName); name != "" {
		query = query.Where("template_name = ?", name)
	}
	if to := strings.TrimSpace(filter.To); to != "" {
		query = query.Where("to_address = ?", to)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var logs []models.EmailLog
	if err := query.Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

type emailLogStatusCount struct {
	Status string
	Count  int64
}

// Stats 按状态统计
func (r *GormEmailLogRepository) Stats() (EmailLogStats, error) {
	var rows []emailLogStatusCount
	if err := r.db.Model(&models.EmailLog{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return EmailLogStats{}, err
	}
	var stats EmailLogStats
	for _, row := range rows {
		switch row.Status {
		case constants.EmailLogStatusSent:
			stats.Sent += row.Count
		case constants.EmailLogStatusFailed:
			stats.Failed += row.Count
		}
	}
	stats.Total = stats.Sent + stats.Failed
	return stats, nil
}
