package service

import (
	"context"
	"fmt"
	"time"

	"bugzero-api/internal/model"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const wishlistSyncTimeout = 30 * time.Second

// WishlistSyncer mirrors a stored wishlist entry somewhere outside the database.
type WishlistSyncer interface {
	SyncWishlistItem(ctx context.Context, item *model.WishlistItem) error
}

type WishlistService struct {
	db   *gorm.DB
	sync WishlistSyncer
	log  *zap.Logger
}

// NewWishlistService accepts a nil syncer.
func NewWishlistService(db *gorm.DB, sync WishlistSyncer, log *zap.Logger) *WishlistService {
	return &WishlistService{db: db, sync: sync, log: log.Named("wishlist")}
}

// Create stores a capture-form entry as given. Absent metadata is stored as NULL.
// Mirroring runs in the background and never fails the request.
func (s *WishlistService) Create(ctx context.Context, in model.WishlistCreate) (*model.WishlistItem, error) {
	item := &model.WishlistItem{
		Email:   in.Email,
		Name:    in.Name,
		Website: in.Website,
		Action:  in.Action,
	}
	if in.Metadata != nil {
		item.Metadata = datatypes.JSONMap(in.Metadata)
	}

	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("create wishlist item: %w", err)
	}

	if s.sync != nil {
		snapshot := *item
		go s.mirror(&snapshot)
	}
	return item, nil
}

func (s *WishlistService) mirror(item *model.WishlistItem) {
	ctx, cancel := context.WithTimeout(context.Background(), wishlistSyncTimeout)
	defer cancel()

	if err := s.sync.SyncWishlistItem(ctx, item); err != nil {
		s.log.Warn("wishlist sync failed",
			zap.String("id", item.ID.String()),
			zap.Error(err))
	}
}
