// Package databasetest provides migrated in-memory SQLite databases for tests.
package databasetest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"tienda/internal/config"
	"tienda/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Open returns a fresh, migrated in-memory database that is closed when t ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	path := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	db, err := database.Open(config.DBConfig{Driver: "sqlite", SQLitePath: path, MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
