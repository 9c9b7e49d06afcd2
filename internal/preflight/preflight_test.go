package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"contentengine/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckGoogleCredentials(t *testing.T) {
	if r := CheckGoogleCredentials(config.Google{}); r.Passed {
		t.Fatal("expected failure without credentials")
	}
	if r := CheckGoogleCredentials(config.Google{CredentialsJSON: `{"type":"service_account"}`}); !r.Passed {
		t.Fatalf("expected service account to pass, got %s", r.Detail)
	}
	oauth := config.Google{
		CredentialsJSON: `{"installed":{"client_id":"x"}}`,
		TokenFile:       filepath.Join(t.TempDir(), "token.json"),
	}
	r := CheckGoogleCredentials(oauth)
	if r.Passed || !strings.Contains(r.Detail, "contentengine auth") {
		t.Fatalf("expected missing token failure, got %+v", r)
	}
	if err := os.WriteFile(oauth.TokenFile, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if r := CheckGoogleCredentials(oauth); !r.Passed {
		t.Fatalf("expected cached token to pass, got %s", r.Detail)
	}
}

func TestCheckLLM_MissingKey(t *testing.T) {
	if r := CheckLLM(context.Background(), "llm", config.LLM{}); r.Passed {
		t.Fatal("expected failure without key")
	}
}

func TestCheckLLM_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	r := CheckLLM(context.Background(), "llm", config.LLM{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	if !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestRunAll_LocalChecks(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = base
	cfg.Paths.StateDir = base
	cfg.Paths.LogDir = filepath.Join(base, "missing")
	cfg.Google.CredentialsJSON = `{"type":"service_account"}`
	cfg.Transcription.APIKey = "t"
	cfg.LLM.APIKey = "l"

	results := RunAll(context.Background(), &cfg, Options{})
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Log directory" {
		t.Fatalf("expected only the log directory to fail, got %+v", failed)
	}
}
