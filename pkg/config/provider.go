package config

import (
	"context"

	"awarego/pkg/model"
	"awarego/pkg/pacing"
	"awarego/pkg/store"
)

// Provider exposes the effective playback preferences: the persisted user
// settings when present, the static config defaults otherwise. It satisfies
// engine.Settings.
type Provider struct {
	base  *Config
	store store.SettingsStore
}

// NewProvider creates a Provider bridging the static config and the
// persistent settings store. The store may be nil; defaults then apply.
func NewProvider(base *Config, st store.SettingsStore) *Provider {
	return &Provider{base: base, store: st}
}

// AppConfig returns the underlying static configuration.
func (p *Provider) AppConfig() *Config { return p.base }

// Language returns the effective language preference.
func (p *Provider) Language(ctx context.Context) model.Language {
	if v := p.get(ctx, store.KeyLanguage); v != "" {
		return model.ParseLanguage(v)
	}
	return model.ParseLanguage(p.base.Playback.Language)
}

// Pacing returns the effective pacing preference.
func (p *Provider) Pacing(ctx context.Context) pacing.Mode {
	if v := p.get(ctx, store.KeyPacing); v != "" {
		return pacing.Parse(v)
	}
	return pacing.Parse(p.base.Playback.Pacing)
}

// SetLanguage persists the language preference.
func (p *Provider) SetLanguage(ctx context.Context, lang model.Language) error {
	if p.store == nil {
		return nil
	}
	return p.store.SetSetting(ctx, store.KeyLanguage, string(lang))
}

// SetPacing persists the pacing preference.
func (p *Provider) SetPacing(ctx context.Context, mode pacing.Mode) error {
	if p.store == nil {
		return nil
	}
	return p.store.SetSetting(ctx, store.KeyPacing, string(mode))
}

func (p *Provider) get(ctx context.Context, key string) string {
	if p.store == nil {
		return ""
	}
	v, err := p.store.GetSetting(ctx, key)
	if err != nil {
		return ""
	}
	return v
}
