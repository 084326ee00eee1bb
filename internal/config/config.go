package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type AppCfg struct{ Env, Port, LogLevel, BasePath string }

type StoreCfg struct {
	Driver        string // memory | redis | postgres
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

type SortCfg struct {
	Field string `yaml:"field"`
	Order string `yaml:"order"`
}

// ResourceCfg holds the list defaults of one resource
type ResourceCfg struct {
	Sort                SortCfg        `yaml:"sort"`
	PerPage             int            `yaml:"perPage"`
	FilterDefaultValues map[string]any `yaml:"filterDefaultValues"`
}

type ListsCfg struct {
	Debounce   time.Duration
	IdleTTL    time.Duration
	SweepEvery time.Duration
	Resources  map[string]ResourceCfg
}

type AMQPCfg struct{ URL, Exchange string }

type SecurityCfg struct {
	AdminToken string // guards the /admin routes
}

type Cfg struct {
	App   AppCfg
	Store StoreCfg
	Lists ListsCfg
	AMQP  AMQPCfg
	Sec   SecurityCfg
}

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// resourcesFile is the layout of CONFIG_FILE. It is read with yaml directly
// because viper folds map keys to lower case, which would rename filters.
type resourcesFile struct {
	Resources map[string]ResourceCfg `yaml:"resources"`
}

// Load reads configuration and exits the process when it is unusable.
func Load() Cfg {
	cfg, err := load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	return cfg
}

func load(dotenv string) (Cfg, error) {
	// 1) .env into process env, if present; real env vars win
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("file", dotenv).Msg("could not read dotenv file")
	}

	// 2) Read from env via viper
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BASE_PATH", "/api/v1/lists")
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PARAMS_TTL", "720h")
	v.SetDefault("FILTER_DEBOUNCE", "500ms")
	v.SetDefault("SESSION_IDLE_TTL", "30m")
	v.SetDefault("SWEEP_EVERY", "1m")
	v.SetDefault("AMQP_EXCHANGE", "listkeeper")
	v.SetDefault("CONFIG_FILE", "listkeeper.yaml")
	v.SetDefault("ADMIN_TOKEN", "")

	cfg := Cfg{
		App: AppCfg{
			Env:      v.GetString("APP_ENV"),
			Port:     v.GetString("APP_PORT"),
			LogLevel: v.GetString("LOG_LEVEL"),
			BasePath: v.GetString("BASE_PATH"),
		},
		Store: StoreCfg{
			Driver:        strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
			DSN:           v.GetString("DB_DSN"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTL:           v.GetDuration("PARAMS_TTL"),
		},
		Lists: ListsCfg{
			Debounce:   v.GetDuration("FILTER_DEBOUNCE"),
			IdleTTL:    v.GetDuration("SESSION_IDLE_TTL"),
			SweepEvery: v.GetDuration("SWEEP_EVERY"),
		},
		AMQP: AMQPCfg{
			URL:      v.GetString("AMQP_URL"),
			Exchange: v.GetString("AMQP_EXCHANGE"),
		},
		Sec: SecurityCfg{
			AdminToken: strings.TrimSpace(v.GetString("ADMIN_TOKEN")),
		},
	}

	resources, err := loadResources(v.GetString("CONFIG_FILE"))
	if err != nil {
		return Cfg{}, err
	}
	cfg.Lists.Resources = resources

	// 3) Fail fast on required settings
	switch cfg.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if cfg.Store.RedisAddr == "" {
			return Cfg{}, errors.New("REDIS_ADDR is required for the redis store")
		}
	case DriverPostgres:
		if cfg.Store.DSN == "" {
			return Cfg{}, errors.New("DB_DSN is required for the postgres store")
		}
	default:
		return Cfg{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
	if cfg.Lists.Debounce <= 0 {
		return Cfg{}, errors.New("FILTER_DEBOUNCE must be positive")
	}
	if cfg.Lists.IdleTTL <= 0 {
		return Cfg{}, errors.New("SESSION_IDLE_TTL must be positive")
	}
	if cfg.Lists.SweepEvery <= 0 {
		return Cfg{}, errors.New("SWEEP_EVERY must be positive")
	}
	return cfg, nil
}

// loadResources reads resource defaults. A missing file means no resources.
func loadResources(path string) (map[string]ResourceCfg, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("file", path).Msg("no resource file, no lists will be served")
		return map[string]ResourceCfg{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var f resourcesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if f.Resources == nil {
		f.Resources = map[string]ResourceCfg{}
	}
	for name, rc := range f.Resources {
		if rc.PerPage < 0 {
			return nil, fmt.Errorf("resource %q: perPage must not be negative", name)
		}
	}
	return f.Resources, nil
}

// SetupLogging configures the global zerolog logger
func SetupLogging(app AppCfg) {
	level, err := zerolog.ParseLevel(strings.ToLower(app.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if app.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
