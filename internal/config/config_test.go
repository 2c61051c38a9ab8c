package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReconcilerConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *ReconcilerConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
database:
  host: localhost
  port: 5433
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
  max_open_conns: 20
nats:
  url: "nats://localhost:4222"
  stream_name: "PRODUCTS"
  subject_prefix: "catalog"
  reconnect_wait: "5s"
reconcile:
  batch_size: 250
  worker_pool_size: 4
  units_per_second: 50
  interval: "30s"
  lock_timeout: "5s"
  empty_title_policy: skip
  title_sentinel: "(no title)"
`,
			validate: func(t *testing.T, cfg *ReconcilerConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.Equal(t, "testuser", cfg.Database.User)
				assert.Equal(t, "testpass", cfg.Database.Password)
				assert.Equal(t, "testdb", cfg.Database.DBName)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, 20, cfg.Database.MaxOpenConns)
				assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
				assert.Equal(t, "PRODUCTS", cfg.NATS.StreamName)
				assert.Equal(t, "catalog", cfg.NATS.SubjectPrefix)
				assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait)
				assert.Equal(t, 250, cfg.Reconcile.BatchSize)
				assert.Equal(t, 4, cfg.Reconcile.WorkerPoolSize)
				assert.Equal(t, 50.0, cfg.Reconcile.UnitsPerSecond)
				assert.Equal(t, 30*time.Second, cfg.Reconcile.Interval)
				assert.Equal(t, 5*time.Second, cfg.Reconcile.LockTimeout)
				assert.Equal(t, "skip", cfg.Reconcile.EmptyTitlePolicy)
				assert.Equal(t, "(no title)", cfg.Reconcile.TitleSentinel)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
`,
			validate: func(t *testing.T, cfg *ReconcilerConfig) {
				assert.False(t, cfg.Debug)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, 10, cfg.Database.MaxOpenConns)
				assert.Equal(t, 5, cfg.Database.MaxIdleConns)
				assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
				assert.Equal(t, 10*time.Minute, cfg.Database.ConnMaxIdleTime)
				assert.Empty(t, cfg.NATS.URL)
				assert.Equal(t, "RECONCILER", cfg.NATS.StreamName)
				assert.Equal(t, "reconciler", cfg.NATS.SubjectPrefix)
				assert.Equal(t, 1000, cfg.Reconcile.BatchSize)
				assert.Equal(t, 1, cfg.Reconcile.WorkerPoolSize)
				assert.Zero(t, cfg.Reconcile.UnitsPerSecond)
				assert.Equal(t, time.Minute, cfg.Reconcile.Interval)
				assert.Equal(t, 30*time.Second, cfg.Reconcile.LockTimeout)
				assert.Equal(t, "sentinel", cfg.Reconcile.EmptyTitlePolicy)
				assert.Equal(t, "Untitled", cfg.Reconcile.TitleSentinel)
			},
		},
		{
			name: "missing database host",
			configFile: `
database:
  dbname: testdb
`,
			expectError: true,
		},
		{
			name: "missing database name",
			configFile: `
database:
  host: localhost
`,
			expectError: true,
		},
		{
			name: "non-positive batch size",
			configFile: `
database:
  host: localhost
  dbname: testdb
reconcile:
  batch_size: 0
`,
			expectError: true,
		},
		{
			name: "unknown empty title policy",
			configFile: `
database:
  host: localhost
  dbname: testdb
reconcile:
  empty_title_policy: drop
`,
			expectError: true,
		},
		{
			name: "negative rate",
			configFile: `
database:
  host: localhost
  dbname: testdb
reconcile:
  units_per_second: -1
`,
			expectError: true,
		},
		{
			name: "invalid yaml",
			configFile: `
				database:
				  host: localhost
				  port: invalid
			`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configFile := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configFile, []byte(tt.configFile), 0600)
			require.NoError(t, err)

			cfg, err := LoadReconcilerConfig(configFile, tmpDir)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "complete config",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "testpass",
				DBName:   "testdb",
				SSLMode:  "require",
			},
			expected: "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require",
		},
		{
			name: "with special characters in password",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "p@ssw0rd!",
				DBName:   "testdb",
				SSLMode:  "disable",
			},
			expected: "host=localhost port=5432 user=testuser password=p@ssw0rd! dbname=testdb sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()

	envDir := filepath.Join(tmpDir, "env")
	err := os.MkdirAll(envDir, 0750)
	require.NoError(t, err)

	// godotenv.Overload sets process env vars; drop them after the test
	envVars := map[string]string{
		"RECONCILER_DEBUG":                      "true",
		"RECONCILER_DATABASE_HOST":              "env-host",
		"RECONCILER_DATABASE_PORT":              "6543",
		"RECONCILER_DATABASE_DBNAME":            "env-db",
		"RECONCILER_RECONCILE_BATCH_SIZE":       "42",
		"RECONCILER_RECONCILE_WORKER_POOL_SIZE": "3",
	}
	envContent := ""
	for k, v := range envVars {
		envContent += k + "=" + v + "\n"
		key := k
		t.Cleanup(func() { _ = os.Unsetenv(key) })
	}
	err = os.WriteFile(filepath.Join(envDir, ".env"), []byte(envContent), 0600)
	require.NoError(t, err)

	// Service-local file overrides the shared one
	err = os.WriteFile(filepath.Join(envDir, ".env.reconciler.local"), []byte("RECONCILER_DATABASE_DBNAME=local-db\n"), 0600)
	require.NoError(t, err)

	configPath := filepath.Join(tmpDir, "config.yaml")
	configFile := `
debug: false
database:
  host: file-host
  port: 5432
  dbname: file-db
reconcile:
  batch_size: 10
`
	err = os.WriteFile(configPath, []byte(configFile), 0600)
	require.NoError(t, err)

	cfg, err := LoadReconcilerConfig(configPath, envDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "local-db", cfg.Database.DBName)
	assert.Equal(t, 42, cfg.Reconcile.BatchSize)
	assert.Equal(t, 3, cfg.Reconcile.WorkerPoolSize)
}

func TestLoadReconcilerConfig_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("RECONCILER_DATABASE_HOST", "db.internal")
	t.Setenv("RECONCILER_DATABASE_DBNAME", "products")

	cfg, err := LoadReconcilerConfig(filepath.Join(tmpDir, "missing.yaml"), tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "products", cfg.Database.DBName)
	assert.Equal(t, 1000, cfg.Reconcile.BatchSize)
}
