package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/config"
)

type testConfig struct {
	Host    string `env:"TEST_CFG_HOST" envDefault:"localhost"`
	Port    int    `env:"TEST_CFG_PORT" envDefault:"5432"`
	Secret  string `env:"TEST_CFG_SECRET,required"`
	Verbose bool   `env:"TEST_CFG_VERBOSE"`
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults and env values", func(t *testing.T) {
		t.Setenv("TEST_CFG_SECRET", "s3cret")
		t.Setenv("TEST_CFG_PORT", "6543")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 6543, cfg.Port)
		assert.Equal(t, "s3cret", cfg.Secret)
		assert.False(t, cfg.Verbose)
	})

	t.Run("missing required variable fails", func(t *testing.T) {
		var cfg testConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil target fails", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})
}
