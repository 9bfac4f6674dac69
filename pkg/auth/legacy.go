package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// legacyConfig matches the JSON credential files used by earlier
// versions of the tool.
type legacyConfig struct {
	APILogin    string `json:"api_login"`
	APIPassword string `json:"api_password"`
}

// ImportLegacyFile reads an old-style JSON credentials file and returns
// it as an Account under the given name. The file is left in place.
func ImportLegacyFile(path, name string) (*Account, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var cfg legacyConfig
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	if cfg.APILogin == "" || cfg.APIPassword == "" {
		return nil, fmt.Errorf("%s is missing api_login or api_password", path)
	}

	if name == "" {
		name = "default"
	}

	return &Account{
		Name:         name,
		Login:        cfg.APILogin,
		Password:     cfg.APIPassword,
		LastModified: time.Now(),
	}, nil
}
