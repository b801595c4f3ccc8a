package database

import (
	"path/filepath"
	"testing"
	"time"

	"bugzero-api/internal/config"
	"bugzero-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitDB_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bugzero.db")

	db, err := InitDB(config.DatabaseConfig{Driver: "sqlite", Path: path, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	defer Close(db)

	assert.Same(t, db, DB)
	for _, m := range Models {
		assert.True(t, db.Migrator().HasTable(m), "%T not migrated", m)
	}

	user := &model.User{Email: "db@example.com", Name: "DB", AuthProvider: model.ProviderLocal, Plan: model.PlanFree, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	assert.Equal(t, time.UTC, user.CreatedAt.Location())
}

func TestCloseNil(t *testing.T) {
	assert.NotPanics(t, func() { Close(nil) })
}
