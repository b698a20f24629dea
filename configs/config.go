package configs

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database 数据库配置
type Database struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// Config 应用配置
type Config struct {
	Server struct {
		Port         string   `mapstructure:"port"`
		Mode         string   `mapstructure:"mode"`
		UploadDir    string   `mapstructure:"upload_dir"`
		MaxUploadMB  int64    `mapstructure:"max_upload_mb"`
		AllowOrigins []string `mapstructure:"allow_origins"`
	} `mapstructure:"server"`

	Database Database `mapstructure:"database"`

	JWT struct {
		Secret    string `mapstructure:"secret"`
		ExpiresIn int    `mapstructure:"expires_in"` // 过期时间（小时）
	} `mapstructure:"jwt"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // json 或 console
	} `mapstructure:"log"`

	Matching struct {
		Strategy      string `mapstructure:"strategy"`
		Limit         int    `mapstructure:"limit"`
		CandidatePool int    `mapstructure:"candidate_pool"`
	} `mapstructure:"matching"`

	Cache struct {
		Driver     string        `mapstructure:"driver"` // memory 或 redis
		TTL        time.Duration `mapstructure:"ttl"`
		MaxEntries int           `mapstructure:"max_entries"`
		RedisURL   string        `mapstructure:"redis_url"`
		// 内存缓存统计日志间隔，0 表示关闭
		MonitorInterval time.Duration `mapstructure:"monitor_interval"`
	} `mapstructure:"cache"`

	Chat struct {
		SensitiveWords []string `mapstructure:"sensitive_words"`
		Patterns       []string `mapstructure:"patterns"`
	} `mapstructure:"chat"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.max_upload_mb", 5)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")

	v.SetDefault("jwt.expires_in", 24*30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("matching.strategy", "overlap")
	v.SetDefault("matching.limit", 10)
	v.SetDefault("matching.candidate_pool", 500)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl", time.Minute)
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.monitor_interval", 5*time.Minute)
}

// Load 加载配置：.env -> config.yaml -> SKILLSYNC_ 环境变量
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./configs", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("SKILLSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("jwt.secret is required")
	}

	return &config, nil
}
