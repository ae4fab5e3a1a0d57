package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoundViper(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	v := NewViper()
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	require.NoError(t, BindPostgresFlags(cmd, v))
	require.NoError(t, BindMongoFlags(cmd, v))
	require.NoError(t, BindCommonFlags(cmd, v))
	require.NoError(t, cmd.PersistentFlags().Parse(args))
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newBoundViper(t), "")
	require.NoError(t, err)

	assert.Equal(t, Postgres{
		Host:          DefaultHost,
		Port:          DefaultPort,
		User:          DefaultUser,
		AdminDatabase: DefaultAdminDatabase,
		Database:      DefaultDatabase,
		SSLMode:       DefaultSSLMode,
	}, cfg.Postgres)
	assert.Equal(t, Mongo{URI: DefaultMongoURI, Database: DefaultMongoDatabase, Collection: DefaultCollection}, cfg.Mongo)
	assert.Equal(t, DefaultRecords, cfg.Records)
	assert.Zero(t, cfg.Seed)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFlagsAndEnv(t *testing.T) {
	t.Setenv("ECOMDB_PASSWORD", "from-env")
	t.Setenv("ECOMDB_ADMIN_DB", "template1")
	t.Setenv("ECOMDB_RECORDS", "50")

	v := newBoundViper(t, "--records", "7", "--db", "shop", "--seed", "42")
	cfg, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Postgres.Password)
	assert.Equal(t, "template1", cfg.Postgres.AdminDatabase)
	assert.Equal(t, "shop", cfg.Postgres.Database)
	assert.Equal(t, 7, cfg.Records, "an explicit flag wins over the environment")
	assert.Equal(t, uint64(42), cfg.Seed)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecomdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: db.internal\nport: 6543\nrecords: 12\nmongo-db: Shop\n"), 0o600))

	cfg, err := Load(newBoundViper(t), path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 6543, cfg.Postgres.Port)
	assert.Equal(t, 12, cfg.Records)
	assert.Equal(t, "Shop", cfg.Mongo.Database)

	_, err = Load(newBoundViper(t), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Config{Postgres: Postgres{Port: 5432}}.Validate())

	err := Config{Records: -1, Postgres: Postgres{Port: 70000}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "records must not be negative")
	assert.Contains(t, err.Error(), "port out of range")
}
