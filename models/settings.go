package models

// Settings are the user's toggles. All default to on.
type Settings struct {
	Music     bool `json:"music"`
	Sounds    bool `json:"sounds"`
	Vibration bool `json:"vibration"`
}

// DefaultSettings is what a fresh install (or a reset) starts with.
func DefaultSettings() Settings {
	return Settings{Music: true, Sounds: true, Vibration: true}
}
