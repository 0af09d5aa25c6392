package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_SECRET", "s3cret")
	t.Setenv("TOKEN_DURATION", "2h")
	t.Setenv("DB_DRIVER", "mongo")
	t.Setenv("DB_HOST", "")
	t.Setenv("GRPC_PORT", "6000")
	t.Setenv("STORAGE_USE_SSL", "true")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.HTTP.Env)
	assert.Equal(t, 2*time.Hour, cfg.Token.TTL())
	assert.Equal(t, "mongo", cfg.DB.Driver)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 6000, cfg.GRPC.PortInt())
	assert.True(t, cfg.Storage.SSL())
}

func TestNewRequiresTokenSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_SECRET", "")

	_, err := New()
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, 24*time.Hour, (&Token{Duration: "soon"}).TTL())
	assert.Equal(t, 50052, (&GRPC{Port: ""}).PortInt())
	assert.False(t, (&Storage{UseSSL: "nope"}).SSL())
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=webike sslmode=disable",
		(&DB{Host: "db", Port: "5432", User: "u", Password: "p", Name: "webike", SSLMode: "disable"}).DSN())
}
