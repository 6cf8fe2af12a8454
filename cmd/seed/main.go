package main

import (
	"flag"
	"time"

	"github.com/fulfil-next/internal/authz"
	"github.com/fulfil-next/internal/config"
	"github.com/fulfil-next/internal/constants"
	"github.com/fulfil-next/internal/logger"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/service"
)

func main() {
	var operator, role string
	flag.StringVar(&operator, "operator", "owner@localhost", "签发令牌的运营账号")
	flag.StringVar(&role, "role", constants.OperatorRoleOwner, "运营角色: viewer/fulfillment/marketing/owner")
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Database.SQLLogLevel); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 内置邮件模板
	if err := models.InitDefaultEmailTemplates(); err != nil {
		stdLog.Fatalf("Failed to seed email templates: %v", err)
	}

	// 示例优惠码
	flashUses := 100
	flashExpires := time.Now().AddDate(0, 1, 0)
	promoCodes := []models.PromoCode{
		{
			Code:         "FLASH10",
			DiscountType: constants.DiscountTypePercentage,
			Value:        models.MustMoney("10"),
			MinPurchase:  models.MustMoney("0"),
			MaxUses:      &flashUses,
			Active:       true,
			ExpiresAt:    &flashExpires,
		},
		{
			Code:         "SCONTO5",
			DiscountType: constants.DiscountTypeFixed,
			Value:        models.MustMoney("5"),
			MinPurchase:  models.MustMoney("30"),
			Active:       true,
		},
	}
	for _, promo := range promoCodes {
		var existing models.PromoCode
		if err := models.DB.Where("code = ?", promo.Code).First(&existing).Error; err == nil {
			stdLog.Printf("Promo code already exists: %s", promo.Code)
			continue
		}
		record := promo
		if err := models.DB.Create(&record).Error; err != nil {
			stdLog.Printf("Failed to create promo code %s: %v", promo.Code, err)
			continue
		}
		stdLog.Printf("Created promo code: %s", record.Code)
	}

	// 内置角色策略
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to init authz: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Fatalf("Failed to bootstrap roles: %v", err)
	}

	// 运营令牌
	token, expiresAt, err := service.IssueOperatorToken(cfg.JWT, operator, role)
	if err != nil {
		stdLog.Fatalf("Failed to issue operator token: %v", err)
	}
	stdLog.Printf("Operator token for %s (%s), expires %s:", operator, role, expiresAt.Format(time.RFC3339))
	stdLog.Printf("%s", token)
	stdLog.Println("Seed data created successfully!")
}
