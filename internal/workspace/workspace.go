// Package workspace manages the on-disk home of the detector: settings,
// per-document reports and the audit store.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"doc_detector/internal/aidetect"
)

const BaseDirName = "AIDocDetector"

type Settings struct {
	DefaultPreset  string  `json:"default_preset"`
	DefaultModel   string  `json:"default_model"`
	Threshold      float64 `json:"threshold"`
	HybridProvider string  `json:"hybrid_provider"`
}

func DefaultSettings() Settings {
	return Settings{
		DefaultPreset:  aidetect.PresetBalanced,
		DefaultModel:   "llama3.2",
		Threshold:      aidetect.DefaultThreshold,
		HybridProvider: "ollama",
	}
}

func EnsureDefault() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return EnsureAt(filepath.Join(home, BaseDirName))
}

func EnsureAt(base string) (string, error) {
	paths := []string{
		filepath.Join(base, "configs"),
		filepath.Join(base, "reports"),
		filepath.Join(base, "store"),
	}

	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", p, err)
		}
	}

	settingsPath := SettingsPath(base)
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		raw, marshalErr := json.MarshalIndent(DefaultSettings(), "", "  ")
		if marshalErr != nil {
			return "", fmt.Errorf("marshal settings: %w", marshalErr)
		}
		if writeErr := os.WriteFile(settingsPath, raw, 0o644); writeErr != nil {
			return "", fmt.Errorf("write settings: %w", writeErr)
		}
	}

	return base, nil
}

func SettingsPath(base string) string {
	return filepath.Join(base, "configs", "settings.json")
}

func StorePath(base string) string {
	return filepath.Join(base, "store", "analyses.db")
}

// LoadSettings reads settings.json; fields absent from the file keep their
// defaults.
func LoadSettings(base string) (Settings, error) {
	s := DefaultSettings()
	raw, err := os.ReadFile(SettingsPath(base))
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}
