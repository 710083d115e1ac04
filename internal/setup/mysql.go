package setup

import (
	"fmt"

	"github.com/3Eeeecho/go-modelhub/internal/config"
	"github.com/3Eeeecho/go-modelhub/internal/models"
	"github.com/3Eeeecho/go-modelhub/internal/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// InitMySQL 初始化 MySQL 数据库连接
func InitMySQL(cfg *config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get generic database object: %w", err)
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(10)  // 最大空闲连接数
	sqlDB.SetMaxOpenConns(100) // 最大打开连接数

	logger.Info("成功连接MySQL数据库!")

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Tag{},
		&models.Model{},
		&models.ShareLink{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto migrate database tables: %w", err)
	}
	logger.Info("Database tables migrated successfully!")
	return nil
}

// CloseMySQLDB 关闭数据库连接
func CloseMySQLDB(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Error getting generic database object to close", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Error closing MySQL database connection", zap.Error(err))
	} else {
		logger.Info("MySQL database connection closed.")
	}
}
