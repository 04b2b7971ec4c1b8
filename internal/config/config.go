package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Session       SessionConfig       `mapstructure:"session"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Seed          SeedConfig          `mapstructure:"seed"`
	Log           LogConfig           `mapstructure:"log"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Mode    string `mapstructure:"mode"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Addr 返回监听地址
func (a *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
}

// DSN 返回PostgreSQL连接字符串
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr 返回Redis地址
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SessionConfig 会话配置
type SessionConfig struct {
	Secret     string `mapstructure:"secret"`
	CookieName string `mapstructure:"cookie_name"`
	TTLHours   int    `mapstructure:"ttl_hours"`
	Secure     bool   `mapstructure:"secure"`
}

// TTL 返回会话有效期
func (s *SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Brokers []string          `mapstructure:"brokers"`
	Topics  map[string]string `mapstructure:"topics"`
}

// ElasticsearchConfig Elasticsearch配置
type ElasticsearchConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Hosts   []string          `mapstructure:"hosts"`
	Index   map[string]string `mapstructure:"index"`
}

// PostsIndex 返回帖子索引名
func (e *ElasticsearchConfig) PostsIndex() string {
	if name := e.Index["posts"]; name != "" {
		return name
	}
	return "posts"
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	AvatarBucket string `mapstructure:"avatar_bucket"`
}

// SeedConfig 启动时写入的初始数据
type SeedConfig struct {
	Admin SeedAdminConfig `mapstructure:"admin"`
}

// SeedAdminConfig 初始管理员账号，Username 为空时不创建
type SeedAdminConfig struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// DefaultPath 返回配置文件路径，可通过 CHIRP_CONFIG 覆盖
func DefaultPath() string {
	if p := os.Getenv("CHIRP_CONFIG"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "chirp-go")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.mode", "debug")
	v.SetDefault("app.host", "127.0.0.1")
	v.SetDefault("app.port", 8000)

	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)

	// 敏感字段没有默认值，声明出来以便环境变量覆盖
	v.SetDefault("database.password", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("session.secret", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")

	v.SetDefault("session.cookie_name", "chirp_session")
	v.SetDefault("session.ttl_hours", 24*14)

	v.SetDefault("kafka.topics.post_created", "chirp.post.created")
	v.SetDefault("elasticsearch.index.posts", "posts")
	v.SetDefault("minio.avatar_bucket", "avatars")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	// .env 不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖，例如 CHIRP_DATABASE_PASSWORD
	v.SetEnvPrefix("CHIRP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Session.Secret == "" {
		return nil, errors.New("session.secret must be set")
	}

	return &cfg, nil
}
