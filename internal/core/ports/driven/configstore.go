package driven

// ConfigStore provides persistent application configuration.
// Backed by a TOML file in the inquest config directory.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	GetInt(key string) int

	// GetBool retrieves a boolean configuration value.
	GetBool(key string) bool

	// GetStringSlice retrieves a string slice configuration value.
	GetStringSlice(key string) []string

	// Set stores a configuration value and persists immediately.
	Set(key string, value any) error

	// Load re-reads configuration from the backing store.
	Load() error
}
