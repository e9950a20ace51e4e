package database

import (
	"fmt"
	"time"

	"story4u-backend/config"
	"story4u-backend/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 按配置打开数据库连接并迁移模型
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if !cfg.IsProduction() {
		level = logger.Info
	}
	// 配置GORM
	newLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second, // 慢SQL阈值
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true, // 忽略ErrRecordNotFound错误
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		log.Info("使用SQLite数据库", zap.String("path", cfg.SQLitePath))
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		log.Info("使用MySQL数据库", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
		dialector = mysql.Open(cfg.MySQLDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("数据库连接和迁移成功")
	return db, nil
}

// Migrate 自动迁移模型
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Gif{},
		&models.Post{},
		&models.Survey{},
		&models.SurveyChoice{},
	); err != nil {
		return fmt.Errorf("迁移模型失败: %w", err)
	}
	return nil
}

// Ping 检查数据库连接
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close 关闭数据库连接
func Close(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("获取数据库连接失败", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Error("关闭数据库连接失败", zap.Error(err))
		return
	}

	log.Info("数据库连接已关闭")
}
