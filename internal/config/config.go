package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// PlaceholderCaptchaSecret 脚手架生成的占位密钥，视同未配置。
const PlaceholderCaptchaSecret = "your-recaptcha-secret-key"

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 彩色控制台输出
}

// DatabaseConfig 定义数据库连接配置（支持 MySQL 和 PostgreSQL）
type DatabaseConfig struct {
	Type            string        // 数据库类型: "mysql" 或 "postgres"，留空使用内存存储
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
	QueryTimeout    time.Duration // 单次查询超时上限，默认 10 秒
}

// CaptchaConfig 定义人机验证（reCAPTCHA v3）配置
//
// SecretKey 为空或等于占位值时验证被整体禁用：任何 token 都直接通过。
// 这是刻意保留的开发模式旁路，服务启动时会打出显眼的警告日志；
// 生产部署必须配置真实密钥。
type CaptchaConfig struct {
	SecretKey      string        // 验证服务密钥，留空禁用验证
	VerifyURL      string        // 验证服务地址，默认 Google siteverify
	ScoreThreshold float64       // 通过所需的最低置信分，默认 0.5
	Timeout        time.Duration // 外部验证调用超时，默认 5 秒
}

// NotifyConfig 定义联系留言的通知渠道配置
//
// To 为空时降级为仅记录日志的通知模式（不是错误）。
type NotifyConfig struct {
	To           string // 接收通知的邮箱地址，留空降级为日志模式
	From         string // 通知发件人地址
	SMTPAddr     string // SMTP 提交地址，格式 "host:port"
	SMTPUsername string // SMTP 认证用户名，留空表示不认证
	SMTPPassword string // SMTP 认证密码
}

// RateLimitConfig 定义入站接口的按 IP 限流配置
type RateLimitConfig struct {
	RequestsPerMinute int // 每分钟允许的请求数，0 表示禁用限流
	Burst             int // 突发容量
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server    ServerConfig    // HTTP 服务器配置
	CORS      CORSConfig      // 跨域配置
	Log       LogConfig       // 日志配置
	Database  DatabaseConfig  // 数据库配置
	Captcha   CaptchaConfig   // 人机验证配置
	Notify    NotifyConfig    // 通知渠道配置
	RateLimit RateLimitConfig // 限流配置
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量（最高优先级）
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: PORTFOLIO_
// 例如: PORTFOLIO_SERVER_PORT, PORTFOLIO_CAPTCHA_SECRET_KEY
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，.env 是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("portfolio")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("database.type", "") // 默认为空，使用内存存储
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("database.query_timeout", "10s")
	viper.SetDefault("captcha.secret_key", "")
	viper.SetDefault("captcha.verify_url", "https://www.google.com/recaptcha/api/siteverify")
	viper.SetDefault("captcha.score_threshold", 0.5)
	viper.SetDefault("captcha.timeout", "5s")
	viper.SetDefault("notify.to", "")
	viper.SetDefault("notify.from", "noreply@portfolio.local")
	viper.SetDefault("notify.smtp_addr", "localhost:587")
	viper.SetDefault("notify.smtp_username", "")
	viper.SetDefault("notify.smtp_password", "")
	viper.SetDefault("ratelimit.requests_per_minute", 60)
	viper.SetDefault("ratelimit.burst", 10)

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("database.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	queryTimeout, err := time.ParseDuration(viper.GetString("database.query_timeout"))
	if err != nil {
		queryTimeout = 10 * time.Second
	}

	captchaTimeout, err := time.ParseDuration(viper.GetString("captcha.timeout"))
	if err != nil {
		captchaTimeout = 5 * time.Second
	}

	scoreThreshold := viper.GetFloat64("captcha.score_threshold")
	if scoreThreshold <= 0 || scoreThreshold > 1 {
		return nil, fmt.Errorf("captcha.score_threshold must be in (0, 1], got %v", scoreThreshold)
	}

	dbType := viper.GetString("database.type")
	if dbType != "" && dbType != "mysql" && dbType != "postgres" {
		return nil, fmt.Errorf("unsupported database.type: %s (supported: mysql, postgres)", dbType)
	}
	if dbType != "" && viper.GetString("database.dsn") == "" {
		return nil, fmt.Errorf("database.dsn is required when database.type is set")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
		},
		Database: DatabaseConfig{
			Type:            dbType,
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
			QueryTimeout:    queryTimeout,
		},
		Captcha: CaptchaConfig{
			SecretKey:      viper.GetString("captcha.secret_key"),
			VerifyURL:      viper.GetString("captcha.verify_url"),
			ScoreThreshold: scoreThreshold,
			Timeout:        captchaTimeout,
		},
		Notify: NotifyConfig{
			To:           viper.GetString("notify.to"),
			From:         viper.GetString("notify.from"),
			SMTPAddr:     viper.GetString("notify.smtp_addr"),
			SMTPUsername: viper.GetString("notify.smtp_username"),
			SMTPPassword: viper.GetString("notify.smtp_password"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: viper.GetInt("ratelimit.requests_per_minute"),
			Burst:             viper.GetInt("ratelimit.burst"),
		},
	}

	return cfg, nil
}

// CaptchaEnabled 报告人机验证是否配置了可用的密钥。
func (c *Config) CaptchaEnabled() bool {
	return c.Captcha.SecretKey != "" && c.Captcha.SecretKey != PlaceholderCaptchaSecret
}

// parseList 将逗号分隔的字符串解析为字符串切片
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 先尝试当前目录，再尝试父目录（从 backend/ 子目录运行时）。
// 已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
