package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(10*1024*1024), cfg.Server.MaxFileSize)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "it", cfg.Locale)
	assert.Equal(t, 20, cfg.OCR.MinTextLength)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("PAYSLIP_SERVER_PORT", "9090")
	t.Setenv("PAYSLIP_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PAYSLIP_LOCALE", "en")

	cfg, err := LoadConfig(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "en", cfg.Locale)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "database:\n  driver: mysql\n  host: db\n  user: ledger\n  password: secret\n  name: payroll\nstorage:\n  dir: /data/slips\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "/data/slips", cfg.Storage.Dir)

	dsn := cfg.GetDSN()
	assert.Contains(t, dsn, "ledger:secret@tcp(db:3306)/payroll")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "multiStatements=true")
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	t.Setenv("PAYSLIP_DATABASE_DRIVER", "oracle")

	_, err := LoadConfig(viper.New(), "")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSQLiteDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: DriverSQLite, Path: "/tmp/x.db"}}
	assert.Equal(t, "/tmp/x.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", cfg.GetDSN())
}
