package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, CatalogSourceSeed, cfg.Catalog.Source)
	assert.Equal(t, 0.0, cfg.Catalog.PriceMinDefault)
	assert.Equal(t, 100.0, cfg.Catalog.PriceMaxDefault)
	assert.Equal(t, 10*time.Minute, cfg.Cache.FacetsTTL)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "Postgres")
	t.Setenv("PRICE_MIN_DEFAULT", "50")
	t.Setenv("PRICE_MAX_DEFAULT", "20")
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("FACETS_CACHE_TTL", "30s")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173, ,https://findmyteacher.app")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, CatalogSourcePostgres, cfg.Catalog.Source)
	assert.Equal(t, 50.0, cfg.Catalog.PriceMinDefault)
	assert.Equal(t, 50.0, cfg.Catalog.PriceMaxDefault, "max never falls below min")
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 30*time.Second, cfg.Cache.FacetsTTL)
	assert.Equal(t, []string{"http://localhost:5173", "https://findmyteacher.app"}, cfg.CORS.AllowedOrigins)
}

func TestLoadUnknownCatalogSourceFallsBackToSeed(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "mongo")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, CatalogSourceSeed, cfg.Catalog.Source)
}

func TestLoadProductionRequiresSessionSecret(t *testing.T) {
	t.Setenv("ENV", EnvProduction)
	_, err := Load()
	require.Error(t, err)

	t.Setenv("SESSION_SECRET", "a-real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "a-real-secret", cfg.Session.Secret)
}
