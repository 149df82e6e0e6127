package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Empty(t, cfg.Server.CORS.AllowedOrigins)

	require.Equal(t, "http://localhost:4433", cfg.Kratos.PublicURL)
	require.Equal(t, "http://localhost:4434", cfg.Kratos.AdminURL)
	require.Equal(t, 30*time.Second, cfg.Kratos.RequestTimeout)
	require.Equal(t, 10*time.Second, cfg.Kratos.ConnectTimeout)
	require.Equal(t, 90*time.Second, cfg.Kratos.IdleConnTimeout)
	require.Equal(t, 10, cfg.Kratos.MaxIdleConnsPerHost)

	require.Equal(t, "auth-gateway", cfg.Auth.JWT.Issuer)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.TTL)
	require.Empty(t, cfg.Auth.JWT.Secret)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("AUTHGW_SERVER_PORT", "9090")
	t.Setenv("AUTHGW_KRATOS_PUBLIC_URL", "http://kratos:4433")
	t.Setenv("AUTHGW_AUTH_JWT_SECRET", "env-secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "http://kratos:4433", cfg.Kratos.PublicURL)
	require.Equal(t, "env-secret", cfg.Auth.JWT.Secret)
}

func TestClientConfigConversion(t *testing.T) {
	k := KratosConfig{
		PublicURL:           "http://kratos:4433",
		AdminURL:            "http://kratos:4434",
		RequestTimeout:      5 * time.Second,
		MaxIdleConnsPerHost: 4,
	}

	cc := k.ClientConfig()
	require.Equal(t, "http://kratos:4433", cc.PublicURL)
	require.Equal(t, "http://kratos:4434", cc.AdminURL)
	require.Equal(t, 5*time.Second, cc.RequestTimeout)
	require.Equal(t, 4, cc.MaxIdleConnsPerHost)
}

func TestJWTServiceConfigConversion(t *testing.T) {
	a := AuthConfig{JWT: JWTSettings{Secret: "s", Issuer: "auth-gateway", TTL: time.Hour}}

	jc := a.JWTServiceConfig()
	require.Equal(t, "s", jc.Secret)
	require.Equal(t, "auth-gateway", jc.Issuer)
	require.Equal(t, time.Hour, jc.TokenTTL)
}
