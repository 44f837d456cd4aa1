package service

import (
	"context"
	"fmt"
	"strconv"

	"boardx/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Window Size Persistence
// ─────────────────────────────────────────────────────────────
//
// Saves and restores the main Wails window size between sessions.
// Stored next to the view offset in app_settings.

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowSettingsService persists window size between sessions.
type WindowSettingsService struct {
	settings *storage.SettingsStore
}

// NewWindowSettingsService creates a WindowSettingsService.
func NewWindowSettingsService(settings *storage.SettingsStore) *WindowSettingsService {
	return &WindowSettingsService{settings: settings}
}

const (
	settingWindowWidth  = "window_width"
	settingWindowHeight = "window_height"
	DefaultWindowWidth  = 1920
	DefaultWindowHeight = 1080
	minWindowWidth      = 800
	minWindowHeight     = 600
)

// LoadWindowSize returns the saved window dimensions, or the defaults when
// nothing usable is stored.
func (s *WindowSettingsService) LoadWindowSize(ctx context.Context) WindowSize {
	size := WindowSize{Width: DefaultWindowWidth, Height: DefaultWindowHeight}
	if s.settings == nil {
		return size
	}
	if w, ok := s.loadInt(ctx, settingWindowWidth); ok && w >= minWindowWidth {
		size.Width = w
	}
	if h, ok := s.loadInt(ctx, settingWindowHeight); ok && h >= minWindowHeight {
		size.Height = h
	}
	return size
}

// SaveWindowSize persists the current window dimensions.
func (s *WindowSettingsService) SaveWindowSize(ctx context.Context, width, height int) error {
	if s.settings == nil {
		return fmt.Errorf("window settings: no store")
	}
	if err := s.settings.Set(ctx, settingWindowWidth, strconv.Itoa(width)); err != nil {
		return err
	}
	return s.settings.Set(ctx, settingWindowHeight, strconv.Itoa(height))
}

func (s *WindowSettingsService) loadInt(ctx context.Context, key string) (int, bool) {
	raw, ok, err := s.settings.Get(ctx, key)
	if err != nil || !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
