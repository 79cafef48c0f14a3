package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Logs      LogStoreConfig  `mapstructure:"logs"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Mode         string `mapstructure:"mode"` // debug, release, test
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, sqlite
	Path            string `mapstructure:"path"`   // sqlite 文件路径
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
	LogLevel        string `mapstructure:"log_level"` // silent, error, warn, info
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
	Seed            bool   `mapstructure:"seed"` // 首次启动写入示例数据
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr 返回 host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, /path/to/log
}

// LogStoreConfig 日志文件目录配置
type LogStoreConfig struct {
	BaseDir string `mapstructure:"base_dir"` // 默认 logs，归档目录为 {base_dir}/archived
}

// AuditConfig 调用审计配置
type AuditConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	Groups         map[string]string `mapstructure:"groups"` // Owner 或 Owner.method -> 查询类型
	WriteTimeout   time.Duration     `mapstructure:"write_timeout"`
	TrackToLogFile bool              `mapstructure:"track_to_log_file"` // 记录成功后是否追加一行到 application.log
}

// AnalyticsConfig 统计配置
type AnalyticsConfig struct {
	Timezone string        `mapstructure:"timezone"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // 0 表示不缓存
}

// AuthConfig JWT 配置
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// WorkerConfig 后台任务配置
type WorkerConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	RotateCron string `mapstructure:"rotate_cron"`
}

// CORSConfig 跨域配置，环境变量用逗号分隔：APP_CORS_ALLOW_ORIGINS
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"` // 为空时允许任意来源
	AllowHeaders []string `mapstructure:"allow_headers"`
	AllowMethods []string `mapstructure:"allow_methods"`
}

var globalConfig *Config

// Load 加载配置
// env: 环境名称（dev, prod, test）
// configPath: 配置文件路径（可选）
func Load(env string, configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		v.SetConfigName(env)
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
		v.AddConfigPath("../../config")
	} else {
		v.SetConfigFile(configPath)
	}

	v.SetConfigType("yaml")

	// 环境变量优先级高于配置文件：APP_DATABASE_HOST
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/ordermgmt.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_level", "info")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_path", "stdout")

	v.SetDefault("logs.base_dir", "logs")

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.write_timeout", 2*time.Second)
	v.SetDefault("audit.track_to_log_file", true)

	v.SetDefault("analytics.timezone", "UTC")

	v.SetDefault("auth.issuer", "ordermgmt")

	v.SetDefault("worker.rotate_cron", "5 0 * * *")

	// 注册键名，AutomaticEnv 才能覆盖
	v.SetDefault("cors.allow_origins", []string{})
	v.SetDefault("cors.allow_headers", []string{})
	v.SetDefault("cors.allow_methods", []string{})
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("配置未初始化，请先调用 Load()")
	}
	return globalConfig
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
