// Package store persists user preferences.
package store

import "context"

// Setting keys.
const (
	KeyLanguage = "language"
	KeyPacing   = "pacing"
)

// SettingsStore handles persisted user preferences.
type SettingsStore interface {
	// GetSetting returns the stored value for key, or "" when unset.
	GetSetting(ctx context.Context, key string) (string, error)
	// SetSetting stores or replaces the value for key.
	SetSetting(ctx context.Context, key, value string) error
}
