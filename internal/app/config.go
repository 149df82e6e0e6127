package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	iauth "github.com/vwency/auth-gateway/internal/auth"
	"github.com/vwency/auth-gateway/internal/kratos"
)

// Config represents the runtime configuration for the gateway.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Kratos KratosConfig `mapstructure:"kratos"`
	Auth   AuthConfig   `mapstructure:"auth"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int        `mapstructure:"port"`
	LogLevel string     `mapstructure:"log_level"`
	CORS     CORSConfig `mapstructure:"cors"`
}

// CORSConfig restricts cross-origin access; empty means any origin.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// KratosConfig describes how to reach the identity provider.
type KratosConfig struct {
	PublicURL           string        `mapstructure:"public_url"`
	AdminURL            string        `mapstructure:"admin_url"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	ConnectTimeout      time.Duration `mapstructure:"connect_timeout"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
}

// ClientConfig converts the section into the flow client's configuration.
func (k KratosConfig) ClientConfig() kratos.Config {
	return kratos.Config{
		PublicURL:           k.PublicURL,
		AdminURL:            k.AdminURL,
		RequestTimeout:      k.RequestTimeout,
		ConnectTimeout:      k.ConnectTimeout,
		IdleConnTimeout:     k.IdleConnTimeout,
		MaxIdleConnsPerHost: k.MaxIdleConnsPerHost,
	}
}

// AuthConfig captures authentication-related settings.
type AuthConfig struct {
	JWT JWTSettings `mapstructure:"jwt"`
}

// JWTSettings configures the gateway's own tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"token_ttl"`
}

// JWTServiceConfig converts the section into the JWT service configuration.
func (a AuthConfig) JWTServiceConfig() iauth.JWTConfig {
	return iauth.JWTConfig{
		Secret:   a.JWT.Secret,
		Issuer:   a.JWT.Issuer,
		TokenTTL: a.JWT.TTL,
	}
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("AUTHGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("kratos.public_url", "http://localhost:4433")
	v.SetDefault("kratos.admin_url", "http://localhost:4434")
	v.SetDefault("kratos.request_timeout", "30s")
	v.SetDefault("kratos.connect_timeout", "10s")
	v.SetDefault("kratos.idle_conn_timeout", "90s")
	v.SetDefault("kratos.max_idle_conns_per_host", 10)

	v.SetDefault("auth.jwt.issuer", "auth-gateway")
	v.SetDefault("auth.jwt.token_ttl", "24h")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
