package driving

import (
	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

// SettingsService manages persistent application settings.
type SettingsService interface {
	// Get returns the effective settings: stored values merged over
	// defaults, with API keys falling back to environment variables.
	Get() (*domain.Settings, error)

	// Save persists settings to the config store.
	Save(settings *domain.Settings) error
}
