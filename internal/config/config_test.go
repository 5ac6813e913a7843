package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("TX_MAX_RETRIES", "")
	t.Setenv("REDIS_ADDR", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 5, cfg.TxMaxRetries)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, 5*time.Minute, cfg.SettingsTTL)
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TX_MAX_RETRIES", "9")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SETTINGS_CACHE_TTL", "30s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, ,https://admin.example.com")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 9, cfg.TxMaxRetries)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 30*time.Second, cfg.SettingsTTL)
	assert.True(t, cfg.RedisEnabled())
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("TX_MAX_RETRIES", "many")
	t.Setenv("SETTINGS_CACHE_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 5, cfg.TxMaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.SettingsTTL)
}

func TestGetDBConnectionString(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "ledger",
		DBPassword: "secret",
		DBName:     "ledger",
		DBSSLMode:  "disable",
	}

	assert.Equal(t, "host=db port=5433 user=ledger password=secret dbname=ledger sslmode=disable",
		cfg.GetDBConnectionString())
}

func TestLoadPlansDefaults(t *testing.T) {
	table, err := LoadPlans("")
	require.NoError(t, err)

	plans := table.All()
	require.Len(t, plans, 3)
	assert.Equal(t, "starter", plans[0].ID)

	premium, ok := table.Get("premium")
	require.True(t, ok)
	assert.True(t, premium.MinAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, premium.MaxAmount.Equal(decimal.NewFromInt(4999)))
}

func TestLoadPlansFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	content := `
plans:
  - id: gold
    name: Gold Plan
    min_amount: "100.50"
    max_amount: "2000"
    roi: 3% Daily
    duration: 10 Days
    features: [Support]
    popular: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table, err := LoadPlans(path)
	require.NoError(t, err)

	gold, ok := table.Get("gold")
	require.True(t, ok)
	assert.Equal(t, "Gold Plan", gold.Name)
	assert.True(t, gold.MinAmount.Equal(decimal.RequireFromString("100.50")))
	assert.True(t, gold.Popular)
	assert.Equal(t, []string{"Support"}, gold.Features)
}

func TestParsePlansRejectsInvalidTables(t *testing.T) {
	cases := map[string]string{
		"empty":        "plans: []",
		"missing id":   "plans:\n  - name: x\n    min_amount: '1'\n    max_amount: '2'",
		"bad bounds":   "plans:\n  - id: x\n    min_amount: '10'\n    max_amount: '2'",
		"bad decimal":  "plans:\n  - id: x\n    min_amount: ten\n    max_amount: '20'",
		"duplicate id": "plans:\n  - id: x\n    min_amount: '1'\n    max_amount: '2'\n  - id: x\n    min_amount: '1'\n    max_amount: '2'",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlans([]byte(content))
			assert.Error(t, err)
		})
	}
}

func TestLoadPlansMissingFile(t *testing.T) {
	_, err := LoadPlans(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
