package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestStandardPaths(t *testing.T) {
	paths := StandardPaths()
	if len(paths) < 2 {
		t.Errorf("expected at least 2 standard paths, got %d", len(paths))
	}
	if paths[0] != "credentials.toml" {
		t.Errorf("first path should be credentials.toml, got %s", paths[0])
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	credPath := filepath.Join(tmpDir, "credentials.toml")

	content := `
[anthropic]
api_key = "sk-ant-test123"

[openai]
api_key = "sk-openai-test456"
`
	os.WriteFile(credPath, []byte(content), 0400)

	creds, err := LoadFile(credPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := creds.GetAPIKey("anthropic"); got != "sk-ant-test123" {
		t.Errorf("anthropic key = %q, want %q", got, "sk-ant-test123")
	}
	if got := creds.GetAPIKey("openai"); got != "sk-openai-test456" {
		t.Errorf("openai key = %q, want %q", got, "sk-openai-test456")
	}
}

func TestLoadFile_GenericLLMSection(t *testing.T) {
	tmpDir := t.TempDir()
	credPath := filepath.Join(tmpDir, "credentials.toml")

	content := `
[llm]
api_key = "generic-llm-key"
`
	os.WriteFile(credPath, []byte(content), 0400)

	creds, err := LoadFile(credPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Any provider should get the generic key
	if got := creds.GetAPIKey("anthropic"); got != "generic-llm-key" {
		t.Errorf("anthropic key = %q, want %q (from [llm])", got, "generic-llm-key")
	}
	if got := creds.GetAPIKey("google"); got != "generic-llm-key" {
		t.Errorf("google key = %q, want %q (from [llm])", got, "generic-llm-key")
	}
}

func TestLoadFile_ProviderOverridesLLM(t *testing.T) {
	tmpDir := t.TempDir()
	credPath := filepath.Join(tmpDir, "credentials.toml")

	content := `
[llm]
api_key = "generic-key"

[openai]
api_key = "openai-specific-key"
`
	os.WriteFile(credPath, []byte(content), 0400)

	creds, err := LoadFile(credPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := creds.GetAPIKey("openai"); got != "openai-specific-key" {
		t.Errorf("openai key = %q, want %q", got, "openai-specific-key")
	}
	if got := creds.GetAPIKey("anthropic"); got != "generic-key" {
		t.Errorf("anthropic key = %q, want %q (from [llm])", got, "generic-key")
	}
}

func TestLoadFile_InsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission check not applicable on Windows")
	}

	tmpDir := t.TempDir()
	credPath := filepath.Join(tmpDir, "credentials.toml")

	content := `
[llm]
api_key = "secret-key"
`
	os.WriteFile(credPath, []byte(content), 0644)

	_, err := LoadFile(credPath)
	if err == nil {
		t.Fatal("expected error for insecure permissions")
	}
	if !errors.Is(err, ErrInsecurePermissions) {
		t.Errorf("expected ErrInsecurePermissions, got %v", err)
	}
}

func TestLoadFile_RejectWritablePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission check not applicable on Windows")
	}

	tmpDir := t.TempDir()
	credPath := filepath.Join(tmpDir, "credentials.toml")

	content := `
[llm]
api_key = "secret-key"
`
	os.WriteFile(credPath, []byte(content), 0600)

	_, err := LoadFile(credPath)
	if err == nil {
		t.Fatal("expected error for 0600 permissions (writable)")
	}
	if !errors.Is(err, ErrInsecurePermissions) {
		t.Errorf("expected ErrInsecurePermissions, got %v", err)
	}
}

func TestGetAPIKey_FallbackToEnv(t *testing.T) {
	os.Setenv("GEMINI_API_KEY", "env-gemini")
	defer os.Unsetenv("GEMINI_API_KEY")

	creds := &Credentials{providers: make(map[string]*ProviderCreds)}

	if got := creds.GetAPIKey("google"); got != "env-gemini" {
		t.Errorf("GetAPIKey(google) = %q, want %q (from env)", got, "env-gemini")
	}
}

func TestGetAPIKey_CredentialsTakesPriority(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "env-value")
	defer os.Unsetenv("OPENAI_API_KEY")

	creds := &Credentials{
		providers: map[string]*ProviderCreds{
			"openai": {APIKey: "creds-value"},
		},
	}

	if got := creds.GetAPIKey("openai"); got != "creds-value" {
		t.Errorf("GetAPIKey(openai) = %q, want %q (creds should take priority)", got, "creds-value")
	}
}

func TestGetAPIKey_NilCredentials(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "env-openai")
	defer os.Unsetenv("OPENAI_API_KEY")

	var creds *Credentials
	if got := creds.GetAPIKey("openai"); got != "env-openai" {
		t.Errorf("GetAPIKey on nil credentials = %q, want %q (from env)", got, "env-openai")
	}
}
