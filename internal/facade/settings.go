package facade

import (
	"context"
	"errors"

	"github.com/docvault/docvault/internal/model"
	"github.com/docvault/docvault/internal/storage"
)

// GetSettings returns the settings record. A fresh store has none until the
// first UpdateSettings.
func (f *Facade) GetSettings(ctx context.Context) Envelope[model.Settings] {
	return run(f, "get_settings", "Failed to fetch settings", func() (model.Settings, error) {
		s, ok, err := f.loadSettings(ctx)
		if err != nil {
			return model.Settings{}, err
		}
		if !ok {
			return model.Settings{}, notFound("Settings")
		}
		return s, nil
	})
}

// UpdateSettings merges patch onto the stored settings, or onto the defaults
// when none are stored yet.
func (f *Facade) UpdateSettings(ctx context.Context, patch model.SettingsPatch) Envelope[model.Settings] {
	return run(f, "update_settings", "Failed to update settings", func() (model.Settings, error) {
		if err := validateSettingsPatch(patch); err != nil {
			return model.Settings{}, invalid("settings", err)
		}
		s, _, err := f.loadSettings(ctx)
		if err != nil {
			return model.Settings{}, err
		}
		patch.Apply(&s)

		if err := f.store.Put(ctx, storage.Settings, storage.SettingsKey, s); err != nil {
			return model.Settings{}, err
		}
		return s, nil
	})
}

// loadSettings returns the stored settings, or the defaults and false when
// there is no settings record.
func (f *Facade) loadSettings(ctx context.Context) (model.Settings, bool, error) {
	var s model.Settings
	err := f.store.Get(ctx, storage.Settings, storage.SettingsKey, &s)
	if errors.Is(err, storage.ErrNotFound) {
		return model.DefaultSettings(), false, nil
	}
	if err != nil {
		return model.Settings{}, false, err
	}
	s.Normalize()
	return s, true, nil
}
