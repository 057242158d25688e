package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 生成 PostgreSQL 连接串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Config procureflow-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Database DatabaseConfig
	Redis    struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	JWT struct {
		Secret   string
		Validity time.Duration
	}
	Blob BlobConfig
	Log  struct {
		Level  string
		Format string
	}
	Pagination struct {
		DefaultSize int
	}
}

// BlobConfig 图片存储配置
// Endpoint 为空时回退到本地磁盘存储（开发环境）
type BlobConfig struct {
	Endpoint  string // 远端 blob 服务地址
	PublicURL string // 返回给客户端的 URL 前缀
	LocalDir  string // 本地回退目录
}

// Load 从环境变量加载配置
func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "procureflow")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	// Redis 仅用于 checklist 历史版本缓存，默认关闭时服务直接读库
	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.JWT.Secret = getEnv("JWT_SECRET", "dev-secret-change-me")
	cfg.JWT.Validity = time.Duration(parseInt(getEnv("JWT_VALIDITY_HOURS", "24"), 24)) * time.Hour

	cfg.Blob.Endpoint = getEnv("BLOB_ENDPOINT", "")
	cfg.Blob.PublicURL = getEnv("BLOB_PUBLIC_URL", "http://localhost:8080/uploads/checklist-images")
	cfg.Blob.LocalDir = getEnv("BLOB_LOCAL_DIR", "./uploads/checklist-images")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Pagination.DefaultSize = parseInt(getEnv("PAGE_SIZE_DEFAULT", "20"), 20)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
