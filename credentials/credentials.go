// Package credentials loads provider API keys from standard locations.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrInsecurePermissions is returned when the credentials file is
// readable by group or others.
var ErrInsecurePermissions = fmt.Errorf("credentials file has insecure permissions")

// Credentials holds API keys loaded from credentials.toml.
type Credentials struct {
	// LLM is the generic fallback key used when no provider-specific
	// section matches.
	LLM *ProviderCreds `toml:"llm"`

	providers map[string]*ProviderCreds
}

// ProviderCreds holds credentials for a single provider section.
type ProviderCreds struct {
	APIKey string `toml:"api_key"`
}

// StandardPaths returns the credential file locations in priority order.
func StandardPaths() []string {
	paths := []string{"credentials.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "gptswarm", "credentials.toml"),
			filepath.Join(home, ".gptswarm", "credentials.toml"))
	}
	return paths
}

// Load loads credentials from the first available standard location.
// A missing file is not an error; env vars still serve as fallback.
func Load() (*Credentials, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			creds, err := LoadFile(path)
			if err != nil {
				return nil, path, err
			}
			return creds, path, nil
		}
	}
	return nil, "", nil
}

// LoadFile loads credentials from a specific file.
// Returns ErrInsecurePermissions unless the file is owner read-only.
func LoadFile(path string) (*Credentials, error) {
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		mode := info.Mode().Perm()
		if mode != 0400 {
			return nil, fmt.Errorf("%w: %s has mode %04o (must be 0400)",
				ErrInsecurePermissions, path, mode)
		}
	}

	var rawData map[string]interface{}
	if _, err := toml.DecodeFile(path, &rawData); err != nil {
		return nil, err
	}

	creds := &Credentials{providers: make(map[string]*ProviderCreds)}
	for key, value := range rawData {
		section, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		apiKey, _ := section["api_key"].(string)
		if apiKey == "" {
			continue
		}
		pc := &ProviderCreds{APIKey: apiKey}
		if key == "llm" {
			creds.LLM = pc
		} else {
			creds.providers[key] = pc
		}
	}
	return creds, nil
}

// GetAPIKey returns the API key for a provider.
// Priority: [provider] section > [llm] section > environment variable.
func (c *Credentials) GetAPIKey(provider string) string {
	if c != nil {
		normalized := strings.ToLower(strings.ReplaceAll(provider, "-", ""))
		if pc, ok := c.providers[provider]; ok && pc.APIKey != "" {
			return pc.APIKey
		}
		if pc, ok := c.providers[normalized]; ok && pc.APIKey != "" {
			return pc.APIKey
		}
		if c.LLM != nil && c.LLM.APIKey != "" {
			return c.LLM.APIKey
		}
	}
	return os.Getenv(envVarForProvider(provider))
}

// envVarForProvider returns the environment variable name for a provider.
func envVarForProvider(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google", "gemini":
		return "GEMINI_API_KEY"
	default:
		return strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_API_KEY"
	}
}
