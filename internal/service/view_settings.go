package service

import (
	"context"
	"fmt"
	"strconv"

	"boardx/internal/domain"
	"boardx/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// View Offset Persistence
// ─────────────────────────────────────────────────────────────
//
// Saves and restores the board's scroll offset between sessions.
// Stored in SQLite as key/value rows in app_settings.

// DefaultOffset is where a fresh board opens.
var DefaultOffset = domain.Point{X: 0, Y: 0}

const (
	settingOffsetX = "view_offset_x"
	settingOffsetY = "view_offset_y"
)

// ViewSettingsService persists the view offset between sessions.
type ViewSettingsService struct {
	settings *storage.SettingsStore
}

func NewViewSettingsService(settings *storage.SettingsStore) *ViewSettingsService {
	return &ViewSettingsService{settings: settings}
}

// LoadOffset returns the saved offset, or DefaultOffset when nothing usable is stored.
func (s *ViewSettingsService) LoadOffset(ctx context.Context) domain.Point {
	if s.settings == nil {
		return DefaultOffset
	}
	x, okX := s.loadFloat(ctx, settingOffsetX)
	y, okY := s.loadFloat(ctx, settingOffsetY)
	if !okX || !okY {
		return DefaultOffset
	}
	return domain.Point{X: x, Y: y}
}

// SaveOffset persists the current offset.
func (s *ViewSettingsService) SaveOffset(ctx context.Context, p domain.Point) error {
	if s.settings == nil {
		return fmt.Errorf("view settings: no store")
	}
	if err := s.settings.Set(ctx, settingOffsetX, strconv.FormatFloat(p.X, 'f', -1, 64)); err != nil {
		return err
	}
	return s.settings.Set(ctx, settingOffsetY, strconv.FormatFloat(p.Y, 'f', -1, 64))
}

func (s *ViewSettingsService) loadFloat(ctx context.Context, key string) (float64, bool) {
	raw, ok, err := s.settings.Get(ctx, key)
	if err != nil || !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
