// Package googleauth builds the authenticated HTTP client shared by the Drive
// and Sheets services.
//
// Credentials come from inline JSON or a file. Service-account keys are used
// directly. OAuth client secrets ("installed" or "web") need a cached user
// token, which Authorize obtains once through the console consent flow.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"

	"contentengine/internal/config"
	"contentengine/internal/services"
)

// Scopes lists every permission the pipeline needs.
var Scopes = []string{drive.DriveScope, sheets.SpreadsheetsScope}

// ErrTokenMissing reports an OAuth client secret with no cached user token.
var ErrTokenMissing = errors.New("oauth token missing")

// Kind identifies the credential flavour.
type Kind string

const (
	KindServiceAccount Kind = "service_account"
	KindOAuthClient    Kind = "oauth_client"
)

// LoadCredentials returns the raw credential JSON, preferring the inline value.
func LoadCredentials(cfg config.Google) ([]byte, error) {
	if inline := strings.TrimSpace(cfg.CredentialsJSON); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "load credentials", "no Google credentials configured", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "load credentials", "read credentials file", err)
	}
	return data, nil
}

// Detect reports which flavour of credential JSON was supplied.
func Detect(data []byte) (Kind, error) {
	var probe struct {
		Type      string          `json:"type"`
		Installed json.RawMessage `json:"installed"`
		Web       json.RawMessage `json:"web"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", fmt.Errorf("parse credentials: %w", err)
	}
	switch {
	case probe.Type == "service_account":
		return KindServiceAccount, nil
	case len(probe.Installed) > 0 || len(probe.Web) > 0:
		return KindOAuthClient, nil
	default:
		return "", fmt.Errorf("unsupported credential type %q", probe.Type)
	}
}

// HTTPClient returns an authorized client for the configured credentials.
func HTTPClient(ctx context.Context, cfg config.Google) (*http.Client, error) {
	data, err := LoadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	kind, err := Detect(data)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "detect credentials", "credentials are not usable", err)
	}
	switch kind {
	case KindServiceAccount:
		jwt, err := google.JWTConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "auth", "service account", "parse service account key", err)
		}
		return jwt.Client(ctx), nil
	default:
		oauthCfg, err := google.ConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "auth", "oauth client", "parse client secret", err)
		}
		tok, err := tokenFromFile(cfg.TokenFile)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "auth", "oauth token", "run 'contentengine auth' to create "+cfg.TokenFile, errors.Join(ErrTokenMissing, err))
		}
		return oauthCfg.Client(ctx, tok), nil
	}
}

// Authorize runs the console consent flow for an OAuth client secret and
// caches the resulting token at cfg.TokenFile.
func Authorize(ctx context.Context, cfg config.Google, in io.Reader, out io.Writer) error {
	data, err := LoadCredentials(cfg)
	if err != nil {
		return err
	}
	kind, err := Detect(data)
	if err != nil {
		return err
	}
	if kind == KindServiceAccount {
		fmt.Fprintln(out, "Service account credentials need no interactive authorization.")
		return nil
	}
	if strings.TrimSpace(cfg.TokenFile) == "" {
		return errors.New("google.token_file must be set to cache the oauth token")
	}
	oauthCfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return fmt.Errorf("parse client secret: %w", err)
	}
	authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser:\n%s\n", authURL)
	fmt.Fprint(out, "Enter authorization code: ")

	var code string
	if _, err := fmt.Fscan(in, &code); err != nil {
		return fmt.Errorf("read authorization code: %w", err)
	}
	tok, err := oauthCfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	return saveToken(cfg.TokenFile, tok)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("google.token_file is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("cache oauth token: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("encode oauth token: %w", err)
	}
	return nil
}
