package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bugzero-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type chanSyncer struct {
	items chan *model.WishlistItem
	err   error
}

func (s *chanSyncer) SyncWishlistItem(ctx context.Context, item *model.WishlistItem) error {
	s.items <- item
	return s.err
}

func TestWishlistService_CreateWithoutMetadata(t *testing.T) {
	db := setupDB(t)
	svc := NewWishlistService(db, nil, zap.NewNop())

	item, err := svc.Create(context.Background(), model.WishlistCreate{
		Email:   "not-an-email",
		Name:    "Visitor",
		Website: "example",
		Action:  "load testing",
	})
	require.NoError(t, err)
	assert.False(t, item.IsDeleted)

	var nullCount int64
	require.NoError(t, db.Model(&model.WishlistItem{}).
		Where("id = ? AND metadata IS NULL AND is_deleted = ?", item.ID, false).
		Count(&nullCount).Error)
	assert.Equal(t, int64(1), nullCount)

	var stored model.WishlistItem
	require.NoError(t, db.First(&stored, "id = ?", item.ID).Error)
	assert.Equal(t, "not-an-email", stored.Email)
	assert.Equal(t, "example", stored.Website)
}

func TestWishlistService_CreateWithMetadata(t *testing.T) {
	db := setupDB(t)
	svc := NewWishlistService(db, nil, zap.NewNop())

	item, err := svc.Create(context.Background(), model.WishlistCreate{
		Email:    "v@example.com",
		Name:     "Visitor",
		Website:  "https://example.com",
		Action:   "visual regression",
		Metadata: map[string]any{"source": "landing"},
	})
	require.NoError(t, err)

	var stored model.WishlistItem
	require.NoError(t, db.First(&stored, "id = ?", item.ID).Error)
	assert.Equal(t, "landing", stored.Metadata["source"])
}

func TestWishlistService_SyncFailureDoesNotFailCreate(t *testing.T) {
	db := setupDB(t)
	syncer := &chanSyncer{items: make(chan *model.WishlistItem, 1), err: errors.New("sheets down")}
	svc := NewWishlistService(db, syncer, zap.NewNop())

	item, err := svc.Create(context.Background(), model.WishlistCreate{
		Email:   "v@example.com",
		Name:    "Visitor",
		Website: "https://example.com",
		Action:  "accessibility audit",
	})
	require.NoError(t, err)

	select {
	case synced := <-syncer.items:
		assert.Equal(t, item.ID, synced.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("wishlist item was not handed to the syncer")
	}
}

func TestSheetSyncService_NilIsNoop(t *testing.T) {
	var s *SheetSyncService
	assert.NoError(t, s.SyncWishlistItem(context.Background(), &model.WishlistItem{}))
}
