// Package config loads the persisted application settings file: which
// workflow file is active, where the backend lives, and any per-category
// model directory overrides.
package config

import (
	"encoding/json"
	"os"

	"dario.cat/mergo"
)

// Settings is the on-disk JSON schema. Unset fields fall back to defaults.
type Settings struct {
	WorkflowFile  string              `json:"workflow_file"`
	ServerAddress string              `json:"server_address"`
	ServerPort    int                 `json:"server_port"`
	BridgeAddress string              `json:"bridge_address"`
	ModelDirs     map[string][]string `json:"model_dirs"`
}

// Default returns the settings used when no file exists or fields are unset.
func Default() Settings {
	return Settings{
		ServerAddress: "127.0.0.1",
		ServerPort:    8188,
		BridgeAddress: "127.0.0.1:2900",
		ModelDirs:     map[string][]string{},
	}
}

// Load reads the settings file and merges defaults over any unset fields.
// A missing file yields the defaults without error; malformed JSON is an
// error because silently discarding a user's settings would be worse.
func Load(path string) (Settings, error) {
	s := Settings{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), err
	}
	if err := mergo.Merge(&s, Default()); err != nil {
		return Default(), err
	}
	return s, nil
}

// Save writes the settings back to disk.
func (s Settings) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
