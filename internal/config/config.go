package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type SessionConfig struct {
	Store       string        `mapstructure:"store"`
	CookieName  string        `mapstructure:"cookieName"`
	IdleTimeout time.Duration `mapstructure:"idleTimeout"`
	MaxAge      time.Duration `mapstructure:"maxAge"`
}

type PatientsConfig struct {
	PageSize      int `mapstructure:"pageSize"`
	MaxPageSize   int `mapstructure:"maxPageSize"`
	ScoreMin      int `mapstructure:"scoreMin"`
	ScoreMax      int `mapstructure:"scoreMax"`
	NameMaxLength int `mapstructure:"nameMaxLength"`
}

type SeedConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	UserPassword  string `mapstructure:"userPassword"`
	AdminPassword string `mapstructure:"adminPassword"`
}

type Config struct {
	Server struct {
		Host      string `mapstructure:"host"`
		Port      int    `mapstructure:"port"`
		Subpath   string `mapstructure:"subpath"`
		JWTSecret string `mapstructure:"jwtSecret"`
	} `mapstructure:"server"`
	Database struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Patients PatientsConfig `mapstructure:"patients"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Log      struct {
		Level  string `mapstructure:"level"`
		Pretty bool   `mapstructure:"pretty"`
	} `mapstructure:"log"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.subpath", "")
	v.SetDefault("server.jwtSecret", "")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("session.store", "redis")
	v.SetDefault("session.cookieName", "HOSPITAL_SESSION")
	v.SetDefault("session.idleTimeout", 30*time.Minute)
	v.SetDefault("session.maxAge", 12*time.Hour)
	v.SetDefault("patients.pageSize", 4)
	v.SetDefault("patients.maxPageSize", 100)
	v.SetDefault("patients.scoreMin", 0)
	v.SetDefault("patients.scoreMax", 10000)
	v.SetDefault("patients.nameMaxLength", 40)
	v.SetDefault("seed.enabled", true)
	v.SetDefault("seed.userPassword", "1234")
	v.SetDefault("seed.adminPassword", "admin")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// LoadConfig reads config.json from disk (singleton). Environment variables
// prefixed with HOSPITAL_ override file values, e.g. HOSPITAL_SERVER_PORT.
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigFile(path)
		v.SetConfigType("json")
		v.SetEnvPrefix("HOSPITAL")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		if err := v.ReadInConfig(); err != nil {
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		var c Config
		if err := v.Unmarshal(&c); err != nil {
			cfgErr = fmt.Errorf("invalid config format: %w", err)
			return
		}
		if err := c.Validate(); err != nil {
			cfgErr = err
			return
		}
		cfg = &c
	})
	return cfg, cfgErr
}

// Default returns a config populated only from defaults. Tests and the
// in-memory dev mode start from here.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return &c
}

func (c *Config) Validate() error {
	if c.Server.JWTSecret == "" {
		return errors.New("jwtSecret must be set in config")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Session.Store {
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported session store %q", c.Session.Store)
	}
	if c.Patients.PageSize <= 0 {
		return errors.New("patients.pageSize must be positive")
	}
	if c.Patients.MaxPageSize < c.Patients.PageSize {
		return fmt.Errorf("patients.maxPageSize (%d) is below patients.pageSize (%d)", c.Patients.MaxPageSize, c.Patients.PageSize)
	}
	if c.Patients.ScoreMin > c.Patients.ScoreMax {
		return fmt.Errorf("patients.scoreMin (%d) exceeds patients.scoreMax (%d)", c.Patients.ScoreMin, c.Patients.ScoreMax)
	}
	return nil
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
