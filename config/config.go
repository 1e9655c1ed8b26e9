// Ininicializing common application configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Events   EventsConfig   `mapstructure:"events"`
	Stores   StoresConfig   `mapstructure:"stores"`
	Filters  FiltersConfig  `mapstructure:"filters"`
}

type ServerConfig struct {
	AppVersion    string `mapstructure:"app_version"`
	Host          string `mapstructure:"host"`
	Port          string `mapstructure:"port"`
	Timeout       time.Duration
	Idle_timeout  time.Duration
	Env           string `mapstructure:"environment"`
	Mode          string `mapstructure:"mode"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`
}

// StorageConfig selects the backend of every store: memory, file, redis or
// postgres. An empty backend leaves the stores unconfigured.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// EventsConfig selects the event bus: kafka, rabbitmq, or empty for none.
type EventsConfig struct {
	Driver   string         `mapstructure:"driver"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
}

type RabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"`
}

type StoresConfig struct {
	VersionCapacity int `mapstructure:"version_capacity"`
	VersionSlack    int `mapstructure:"version_slack"`
	HistoryCapacity int `mapstructure:"history_capacity"`
	HistorySlack    int `mapstructure:"history_slack"`
	PresetCapacity  int `mapstructure:"preset_capacity"`
}

type FiltersConfig struct {
	Rendering     bool   `mapstructure:"rendering"`
	OutputFormat  string `mapstructure:"output_format"`
	JPEGQuality   int    `mapstructure:"jpeg_quality"`
	MaxDimension  int    `mapstructure:"max_dimension"`
	ThumbnailSize int    `mapstructure:"thumbnail_size"`
}

// LoadConfig reads config.yaml from path (./config when empty). A missing
// file is not an error: defaults and SNAPMOD_* environment variables apply.
func LoadConfig(path string) (*viper.Viper, error) {

	viperInstance := viper.New()

	if path == "" {
		path = "./config"
	}
	viperInstance.AddConfigPath(path)
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	setDefaults(viperInstance)
	viperInstance.SetEnvPrefix("snapmod")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	err := viperInstance.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &c, nil
}

// Load is LoadConfig followed by ParseConfig.
func Load(path string) (*Config, error) {
	v, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.max_upload_size", 20<<20)

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "./storage")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "snapmod:")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "snapmod")
	v.SetDefault("database.dbname", "snapmod")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("events.driver", "")
	v.SetDefault("events.kafka.group_id", "snapmod-render")
	v.SetDefault("events.rabbitmq.exchange", "snapmod")
	v.SetDefault("events.rabbitmq.queue", "snapmod.render")

	v.SetDefault("stores.version_capacity", 50)
	v.SetDefault("stores.version_slack", 10)
	v.SetDefault("stores.history_capacity", 100)
	v.SetDefault("stores.history_slack", 10)
	v.SetDefault("stores.preset_capacity", 50)

	v.SetDefault("filters.rendering", true)
	v.SetDefault("filters.output_format", "jpeg")
	v.SetDefault("filters.jpeg_quality", 92)
	v.SetDefault("filters.max_dimension", 4096)
	v.SetDefault("filters.thumbnail_size", 160)
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
