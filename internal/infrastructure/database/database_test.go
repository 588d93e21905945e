package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func TestNormalizeDSN(t *testing.T) {
	tests := map[string]string{
		"":                                    "",
		"  postgres://u:p@h:5432/db  ":        "postgres://u:p@h:5432/db",
		"postgresql+asyncpg://u:p@h/db":       "postgresql://u:p@h/db",
		"postgres+asyncpg://u:p@h/db":         "postgres://u:p@h/db",
		"postgresql+pgx://u:p@h/db":           "postgresql://u:p@h/db",
		"postgres://u:p@h/db?sslmode=disable": "postgres://u:p@h/db?sslmode=disable",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeDSN(in), in)
	}
}

func TestMigrationURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db?sslmode=disable", MigrationURL("postgres://u:p@h:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://u:p@h/db", MigrationURL("postgresql+asyncpg://u:p@h/db"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_chat.up.sql")
	assert.Contains(t, names, "000001_chat.down.sql")
}

func TestOpenBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chat.db")
	db, err := OpenBolt(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, EnsureBuckets(db, []byte("a"), []byte("b")))
	require.NoError(t, EnsureBuckets(db, []byte("a")))

	err = db.View(func(tx *bolt.Tx) error {
		assert.NotNil(t, tx.Bucket([]byte("a")))
		assert.NotNil(t, tx.Bucket([]byte("b")))
		return nil
	})
	require.NoError(t, err)
}
