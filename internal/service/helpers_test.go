package service

import (
	"testing"
	"time"

	"bugzero-api/internal/database"
	"bugzero-api/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := database.InitTestDB()
	t.Cleanup(func() { database.Close(db) })
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string, plan model.Plan) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		Name:         "Test User",
		AuthProvider: model.ProviderLocal,
		Plan:         plan,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
