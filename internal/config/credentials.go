package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Credential is one provider entry in credentials.json.
type Credential struct {
	APIKey      string `json:"api_key,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	ExpiresAt   string `json:"expires_at,omitempty"` // RFC 3339
	SavedAt     string `json:"saved_at,omitempty"`
}

// Key returns whichever secret the credential carries.
func (c Credential) Key() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return c.AccessToken
}

// Expired reports whether the credential has an expiry in the past,
// with a 5 minute safety buffer. Credentials without expiry never expire.
func (c Credential) Expired() bool {
	if c.ExpiresAt == "" {
		return false
	}
	t, err := time.Parse(time.RFC3339, c.ExpiresAt)
	if err != nil {
		return false
	}
	return time.Now().After(t.Add(-5 * time.Minute))
}

func credentialsPath() string {
	return filepath.Join(DataRoot(), "credentials.json")
}

// LoadCredentials reads the credential store. A missing or unreadable file
// is an empty store, not an error.
func LoadCredentials() map[string]Credential {
	data, err := os.ReadFile(credentialsPath())
	if err != nil {
		return map[string]Credential{}
	}
	var creds map[string]Credential
	if err := json.Unmarshal(data, &creds); err != nil {
		slog.Warn("credentials file is unreadable, ignoring", "error", err)
		return map[string]Credential{}
	}
	return creds
}

// SaveCredential stores one provider credential. The file is created with
// owner-only permissions from the start, never chmod-ed after the fact.
func SaveCredential(provider string, cred Credential) error {
	creds := LoadCredentials()
	cred.SavedAt = time.Now().Format(time.RFC3339)
	creds[provider] = cred

	if err := os.MkdirAll(DataRoot(), 0o755); err != nil {
		return fmt.Errorf("creating data root: %w", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	path := credentialsPath()
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing credentials: %w", err)
	}
	return nil
}

// DeleteCredential removes one provider credential. Returns whether an
// entry existed.
func DeleteCredential(provider string) (bool, error) {
	creds := LoadCredentials()
	if _, ok := creds[provider]; !ok {
		return false, nil
	}
	delete(creds, provider)
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(credentialsPath(), data, 0o600); err != nil {
		return false, fmt.Errorf("updating credentials: %w", err)
	}
	return true, nil
}

// ResolveAPIKey resolves a provider credential with fixed priority:
// explicit argument, then environment variable, then the secure store,
// then the config file's translation.api_key.
func ResolveAPIKey(provider, explicit string, cfg Config) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	envVar := strings.ToUpper(provider) + "_API_KEY"
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	if cred, ok := LoadCredentials()[provider]; ok {
		if cred.Expired() {
			slog.Warn("stored credential is expired", "provider", provider)
		} else if cred.Key() != "" {
			return cred.Key(), nil
		}
	}
	if cfg.Translation.APIKey != "" {
		return cfg.Translation.APIKey, nil
	}
	return "", fmt.Errorf(
		"no API key for %s (set %s, run 'subgen auth login %s', or add translation.api_key to config.yaml): %w",
		provider, envVar, provider, ErrCredential)
}
