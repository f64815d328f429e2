package config

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	BotConversa BotConversaConfig `yaml:"botconversa" mapstructure:"botconversa"`
	Bulk        BulkConfig        `yaml:"bulk" mapstructure:"bulk"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// BotConversaConfig configures the upstream API client.
type BotConversaConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RealMode     bool    `yaml:"real_mode" mapstructure:"real_mode"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts  int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"` // 0 disables
}

// Validate implements validation.Validatable.
func (c BotConversaConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.TimeoutSecs, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.RateLimitRPS, validation.Min(0.0)),
	)
}

// BulkConfig configures bulk attach runs.
type BulkConfig struct {
	DelayMS int `yaml:"delay_ms" mapstructure:"delay_ms"`
}

// Validate implements validation.Validatable.
func (c BulkConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DelayMS, validation.Min(0)),
	)
}

// ServerConfig configures the HTTP proxy.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// Validate implements validation.Validatable.
func (c ServerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate implements validation.Validatable.
func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.By(func(v any) error {
			_, err := zapcore.ParseLevel(v.(string))
			return err
		})),
		validation.Field(&c.Format, validation.In("json", "console")),
	)
}

// Validate checks every section and reports all violations at once.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.BotConversa),
		validation.Field(&c.Bulk),
		validation.Field(&c.Server),
		validation.Field(&c.Log),
	)
	if err != nil {
		return eris.Wrap(err, "config: invalid")
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BCPROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names kept for existing deployments; the prefixed name wins.
	if err := v.BindEnv("botconversa.real_mode", "BCPROXY_BOTCONVERSA_REAL_MODE", "REAL_MODE"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}
	if err := v.BindEnv("bulk.delay_ms", "BCPROXY_BULK_DELAY_MS", "BATCH_DELAY_MS"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}

	// Defaults
	v.SetDefault("botconversa.base_url", "https://backend.botconversa.com.br/api/v1/webhook")
	v.SetDefault("botconversa.real_mode", false)
	v.SetDefault("botconversa.timeout_secs", 30)
	v.SetDefault("botconversa.max_attempts", 6)
	v.SetDefault("botconversa.rate_limit_rps", 0)
	v.SetDefault("bulk.delay_ms", 250)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// serviceName is attached to every log line.
const serviceName = "bcproxy"

// InitLogger builds the logger described by cfg and installs it as the
// global zap logger.
func InitLogger(cfg LogConfig) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func newLogger(cfg LogConfig, opts ...zap.Option) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		// Bulk runs log one line per failed phone; none may be sampled away.
		zapCfg.Sampling = nil
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build(append(opts, zap.Fields(zap.String("service", serviceName)))...)
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	return logger, nil
}
