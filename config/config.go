package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string
	}
	Log struct {
		Level string
	}
	Database struct {
		DSN string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	JWT struct {
		Secret string
	}
	Matchmaker struct {
		Pool      string
		PlayerTTL int `mapstructure:"player_ttl_seconds"`
		RoomTTL   int `mapstructure:"room_ttl_seconds"`
	}
	Game struct {
		TurnTimeoutSeconds int `mapstructure:"turn_timeout_seconds"`
		Seed               int64
	}
}

func (c Config) TurnTimeout() time.Duration {
	return time.Duration(c.Game.TurnTimeoutSeconds) * time.Second
}

var C Config

const DefaultPath = "config/config.yaml"

// Load 读取默认配置文件到全局 C
func Load() error {
	cfg, err := LoadFrom(DefaultPath)
	if err != nil {
		return err
	}
	C = cfg
	return nil
}

// LoadFrom 先加载 .env（可选），再读 yaml；BIGTWO_* 环境变量覆盖同名键，如 BIGTWO_REDIS_ADDR
func LoadFrom(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("BIGTWO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.JWT.Secret == "" {
		return cfg, fmt.Errorf("jwt.secret must be set")
	}
	return cfg, nil
}

// 所有键都要有默认值，AutomaticEnv 才能在 Unmarshal 时覆盖
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("matchmaker.pool", "default")
	v.SetDefault("matchmaker.player_ttl_seconds", 300)
	v.SetDefault("matchmaker.room_ttl_seconds", 6*3600)
	v.SetDefault("game.turn_timeout_seconds", 0)
	v.SetDefault("game.seed", 0)
}
