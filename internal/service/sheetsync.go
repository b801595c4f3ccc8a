package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"bugzero-api/internal/config"
	"bugzero-api/internal/model"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetSyncService mirrors wishlist entries into a Google Sheet, one row per
// entry keyed by the entry id in column A.
type SheetSyncService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *zap.Logger
}

// NewSheetSyncService returns nil, nil when syncing is disabled. A nil
// *SheetSyncService is a valid no-op syncer.
func NewSheetSyncService(ctx context.Context, cfg config.SheetsConfig, log *zap.Logger) (*SheetSyncService, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	b, err := os.ReadFile(cfg.CredentialPath)
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("load sheets credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	return &SheetSyncService{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		log:           log.Named("sheets"),
	}, nil
}

// SyncWishlistItem updates the entry's row if its id is already in the sheet,
// otherwise appends a new row.
func (s *SheetSyncService) SyncWishlistItem(ctx context.Context, item *model.WishlistItem) error {
	if s == nil {
		return nil
	}

	idResp, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, fmt.Sprintf("'%s'!A2:A", s.sheetName)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("read sheet ids: %w", err)
	}

	id := item.ID.String()
	rowIndex := 0
	for i, row := range idResp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == id {
			rowIndex = i + 2 // data starts at row 2
			break
		}
	}

	vr := &sheets.ValueRange{Values: [][]any{wishlistRow(item)}}
	if rowIndex > 0 {
		_, err = s.service.Spreadsheets.Values.
			Update(s.spreadsheetID, fmt.Sprintf("'%s'!A%d:H%d", s.sheetName, rowIndex, rowIndex), vr).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
	} else {
		_, err = s.service.Spreadsheets.Values.
			Append(s.spreadsheetID, fmt.Sprintf("'%s'!A2:H", s.sheetName), vr).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
	}
	if err != nil {
		return fmt.Errorf("write wishlist row: %w", err)
	}

	s.log.Debug("wishlist entry synced",
		zap.String("id", id),
		zap.Bool("updated", rowIndex > 0))
	return nil
}

func wishlistRow(item *model.WishlistItem) []any {
	metadata := ""
	if item.Metadata != nil {
		if b, err := json.Marshal(item.Metadata); err == nil {
			metadata = string(b)
		}
	}
	return []any{
		item.ID.String(),
		item.Email,
		item.Name,
		item.Website,
		item.Action,
		metadata,
		item.CreatedAt.UTC().Format(time.RFC3339),
		item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
