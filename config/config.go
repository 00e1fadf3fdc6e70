package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Mail       MailConfig       `mapstructure:"mail"`
	Log        LogConfig        `mapstructure:"log"`
	Compliance ComplianceConfig `mapstructure:"compliance"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 服务令牌认证配置
// 本服务不签发登录 Token：调用方（网关/定时调度器）持有预授权的服务令牌
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	ServiceTokenTTL time.Duration `mapstructure:"service_token_ttl"`
}

// MailConfig SMTP 邮件配置
type MailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ComplianceConfig 合规评估与通知调度配置
type ComplianceConfig struct {
	QuietStartHour      int    `mapstructure:"quiet_start_hour"`      // 静默时段起始（UTC 小时）
	QuietEndHour        int    `mapstructure:"quiet_end_hour"`        // 静默时段结束（UTC 小时）
	DispatchBatchSize   int    `mapstructure:"dispatch_batch_size"`   // 单次派发处理上限
	CriticalSLAHours    int    `mapstructure:"critical_sla_hours"`    // critical 事件 SLA 时长
	WeeklyRestWeekday   int    `mapstructure:"weekly_rest_weekday"`   // 周度休息检查日（0=周日）
	MaxSendAttempts     int    `mapstructure:"max_send_attempts"`     // 通知发送最大尝试次数
	RetryBackoffMinutes int    `mapstructure:"retry_backoff_minutes"` // 发送重试退避基数（分钟）
	KioskTimezone       string `mapstructure:"kiosk_timezone"`        // 打卡墙钟时间所用时区
	HolidayCalendarURL  string `mapstructure:"holiday_calendar_url"`  // 节假日 ICS 日历地址（为空则用近似工作日算法）
	JobsEnabled         bool   `mapstructure:"jobs_enabled"`          // 是否启用进程内定时任务
	EvaluateCron        string `mapstructure:"evaluate_cron"`         // 每日合规评估任务表达式
	DispatchCron        string `mapstructure:"dispatch_cron"`         // 通知派发/升级任务表达式
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "time_control_hub")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.service_token_ttl", "24h")

	v.SetDefault("mail.smtp_host", "localhost")
	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.from", "compliance@localhost")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("compliance.quiet_start_hour", 22)
	v.SetDefault("compliance.quiet_end_hour", 8)
	v.SetDefault("compliance.dispatch_batch_size", 50)
	v.SetDefault("compliance.critical_sla_hours", 4)
	v.SetDefault("compliance.weekly_rest_weekday", 0) // 周日
	v.SetDefault("compliance.max_send_attempts", 3)
	v.SetDefault("compliance.retry_backoff_minutes", 15)
	v.SetDefault("compliance.kiosk_timezone", "Europe/Madrid")
	v.SetDefault("compliance.holiday_calendar_url", "")
	v.SetDefault("compliance.jobs_enabled", true)
	v.SetDefault("compliance.evaluate_cron", "0 3 * * *")
	v.SetDefault("compliance.dispatch_cron", "*/5 * * * *")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("TCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Compliance.QuietStartHour < 0 || c.Compliance.QuietStartHour > 23 ||
		c.Compliance.QuietEndHour < 0 || c.Compliance.QuietEndHour > 23 {
		return fmt.Errorf("配置校验失败: compliance 静默时段小时必须在 0-23 之间")
	}
	if c.Compliance.DispatchBatchSize <= 0 {
		return fmt.Errorf("配置校验失败: compliance.dispatch_batch_size 必须大于 0")
	}
	if c.Compliance.WeeklyRestWeekday < 0 || c.Compliance.WeeklyRestWeekday > 6 {
		return fmt.Errorf("配置校验失败: compliance.weekly_rest_weekday 必须在 0-6 之间")
	}
	if c.Compliance.MaxSendAttempts <= 0 {
		return fmt.Errorf("配置校验失败: compliance.max_send_attempts 必须大于 0")
	}
	return nil
}
