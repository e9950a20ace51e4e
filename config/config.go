// Package config 负责从 .env 文件和环境变量加载服务配置。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config 是在启动时显式构造并注入各组件的配置
type Config struct {
	ServerPort  string
	Environment string

	JWTSecret string

	DBDriver   string // mysql 或 sqlite
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	SQLitePath string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RateLimitStore string // memory 或 redis

	EnableGlobalLimit bool
	GlobalRate        int
	GlobalBurst       int

	UploadDir      string
	MaxUploadBytes int64
	BaseURL        string

	CORSOrigins []string

	LogLevel  string
	LogFormat string
}

const devJWTSecret = "story4u-dev-secret-change-me"

// Load 读取 .env（不存在时忽略）与环境变量
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBUser:     getEnv("DB_USER", "story4u"),
		DBPassword: getEnv("DB_PASSWORD", "story4u"),
		DBHost:     getEnv("DB_HOST", "mysql"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBName:     getEnv("DB_NAME", "story4u"),
		SQLitePath: getEnv("SQLITE_PATH", "story4u.db"),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RateLimitStore: strings.ToLower(getEnv("RATE_LIMIT_STORE", "memory")),

		EnableGlobalLimit: getEnv("ENABLE_RATE_LIMIT", "false") == "true",
		GlobalRate:        getEnvInt("GLOBAL_RATE_LIMIT", 100),

		UploadDir:      getEnv("UPLOAD_DIR", "resources/static/assets/uploads"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 12*1024*1024)),
		BaseURL:        strings.TrimRight(getEnv("BASE_URL", "http://localhost:8090"), "/"),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
	cfg.GlobalBurst = getEnvInt("GLOBAL_RATE_BURST", cfg.GlobalRate*2)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置的一致性并补全开发环境默认值
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("生产环境必须设置 JWT_SECRET")
		}
		c.JWTSecret = devJWTSecret
	}
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.DBDriver)
	}
	switch c.RateLimitStore {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("RATE_LIMIT_STORE=redis 需要设置 REDIS_ADDR")
		}
	default:
		return fmt.Errorf("不支持的限流存储: %s", c.RateLimitStore)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES 必须为正数")
	}
	return nil
}

// IsProduction 是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MySQLDSN 构建MySQL连接串
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// getEnv 获取环境变量值或使用默认值
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
