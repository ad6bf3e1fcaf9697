package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("DAO_BOOTSTRAP_FILE", "")
	os.Unsetenv("STORAGE_DRIVER")
	os.Unsetenv("DAO_BOOTSTRAP_FILE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, uuid.MustParse(devTreasuryAccount), cfg.TreasuryAccount)
	assert.Equal(t, int64(500), cfg.Fees.StandardBps)
	assert.Equal(t, 2, cfg.DisputeQuorum)
	assert.Equal(t, "200000000", cfg.DisputeMinStake.String())
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.freelancedao.io")
	t.Setenv("OWNER_ACCOUNT", "")
	os.Unsetenv("OWNER_ACCOUNT")
	_, err = Load()
	assert.ErrorContains(t, err, "OWNER_ACCOUNT")
}

func TestLoad_RejectsUnknownStorage(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "redis")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_AppliesBootstrapFile(t *testing.T) {
	treasury := uuid.New()
	member := uuid.New()
	path := filepath.Join(t.TempDir(), "dao.yaml")
	content := "treasury: " + treasury.String() + "\n" +
		"quorum: 3\n" +
		"min_stake: \"500\"\n" +
		"fees:\n  standard_bps: 400\n  late_bps: 600\n  early_bps: 900\n" +
		"members:\n  - " + member.String() + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("DAO_BOOTSTRAP_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, treasury, cfg.TreasuryAccount)
	assert.Equal(t, 3, cfg.DisputeQuorum)
	assert.Equal(t, "500", cfg.DisputeMinStake.String())
	assert.Equal(t, int64(600), cfg.Fees.LateBps)
	require.NotNil(t, cfg.Bootstrap)
	assert.Equal(t, []uuid.UUID{member}, cfg.Bootstrap.Members)
}

func TestParseBootstrap_Validation(t *testing.T) {
	member := uuid.New().String()

	_, err := ParseBootstrap([]byte("members:\n  - " + member + "\n  - " + member + "\n"))
	assert.ErrorContains(t, err, "дважды")

	_, err = ParseBootstrap([]byte("fees:\n  standard_bps: 20000\n"))
	assert.Error(t, err)

	_, err = ParseBootstrap([]byte("min_stake: \"-1\"\n"))
	assert.Error(t, err)

	b, err := ParseBootstrap([]byte("quorum: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, b.Quorum)
	assert.Nil(t, b.Fees)
}
