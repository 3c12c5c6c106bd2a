package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode        string        `mapstructure:"mode" validate:"oneof=debug release test"`
	Port        int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadLimit   int64         `mapstructure:"read_limit" validate:"gt=0"`
	PingPeriod  time.Duration `mapstructure:"ping_period" validate:"gt=0"`
	Secret      string        `mapstructure:"secret" validate:"required"`
	SendBuffer  int           `mapstructure:"send_buffer" validate:"gt=0"`
	CORSOrigins []string      `mapstructure:"cors_origins"`

	Peer       PeerConfig       `mapstructure:"peer"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Activation ActivationConfig `mapstructure:"activation"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
}

type PeerConfig struct {
	URL               string        `mapstructure:"url" validate:"required,url"`
	HandshakeTimeout  time.Duration `mapstructure:"handshake_timeout" validate:"gt=0"`
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval" validate:"gt=0"`
}

type NotifyConfig struct {
	AppName      string        `mapstructure:"app_name" validate:"required"`
	Delay        time.Duration `mapstructure:"delay" validate:"gt=0"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout" validate:"gte=0"`
	// Backend is "auto", "dbus" or "log".
	Backend string `mapstructure:"backend" validate:"oneof=auto dbus log"`
}

type ActivationConfig struct {
	Limit    int           `mapstructure:"limit" validate:"gt=0"`
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

type DispatcherConfig struct {
	StrictArguments bool `mapstructure:"strict_arguments"`
	// Backpressure is "kick" or "drop".
	Backpressure string `mapstructure:"backpressure" validate:"oneof=kick drop"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, falling back to defaults.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("peer", cfg.Peer.URL).Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "change-me")
	v.SetDefault("send_buffer", 1024)
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("peer.url", "ws://127.0.0.1:9000/peer")
	v.SetDefault("peer.handshake_timeout", "5s")
	v.SetDefault("peer.reconnect_interval", "2s")

	v.SetDefault("notify.app_name", "Friend")
	v.SetDefault("notify.delay", "1s")
	v.SetDefault("notify.drain_timeout", "3s")
	v.SetDefault("notify.backend", "auto")

	v.SetDefault("activation.limit", 5)
	v.SetDefault("activation.interval", "1m")

	v.SetDefault("dispatcher.strict_arguments", false)
	v.SetDefault("dispatcher.backpressure", "kick")
}
