package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(viper.New())

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 50, cfg.TrendLimit)
	assert.Equal(t, TrendStrategyTruncate, cfg.TrendStrategy)
	assert.Equal(t, InsertPolicyAppend, cfg.InsertPolicy)
	assert.Equal(t, time.Duration(0), cfg.SearchDebounce)
	assert.Equal(t, 5*time.Minute, cfg.SourceCacheTTL)
	assert.Equal(t, "netflix", cfg.DefaultDataset)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestFromViper_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("INSERT_POLICY", "reapply")
	t.Setenv("SEARCH_DEBOUNCE_MS", "150")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("ENV", "production")

	cfg, err := FromViper(viper.New())

	require.NoError(t, err)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, InsertPolicyReapply, cfg.InsertPolicy)
	assert.Equal(t, 150*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, "localhost:6380", cfg.GetRedisURL())
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "zero page size", env: map[string]string{"PAGE_SIZE": "0"}, wantErr: "PAGE_SIZE"},
		{name: "negative trend limit", env: map[string]string{"TREND_LIMIT": "-1"}, wantErr: "TREND_LIMIT"},
		{name: "unknown insert policy", env: map[string]string{"INSERT_POLICY": "prepend"}, wantErr: "INSERT_POLICY"},
		{name: "unknown trend strategy", env: map[string]string{"TREND_STRATEGY": "random"}, wantErr: "TREND_STRATEGY"},
		{name: "journal without user", env: map[string]string{"DB_ENABLED": "true"}, wantErr: "DB_USER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := FromViper(viper.New())

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDatabaseURL(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     5432,
		DBUser:     "dash",
		DBPassword: "secret",
		DBName:     "dashboard",
		DBSSLMode:  "disable",
	}

	assert.Equal(t, "host=db port=5432 user=dash password=secret dbname=dashboard sslmode=disable", cfg.GetDatabaseURL())
}
