package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	SHEETS = "https://www.googleapis.com/auth/spreadsheets.readonly"
	DRIVE  = "https://www.googleapis.com/auth/drive.readonly"
)

// authorize returns an HTTP client for the scope, using the tokens saved by the 'authorise'
// command. Refreshed tokens are written back to the tokens file.
func authorize(credentials, scope, tokens string) (*http.Client, error) {
	config, err := oauthConfig(credentials, scope)
	if err != nil {
		return nil, err
	}

	file := tokenFile(credentials, scope, tokens)
	token, err := tokenFromFile(file)
	if err != nil {
		return nil, fmt.Errorf("no valid authorisation tokens in %v - run '%s authorise' (%v)", file, APP, err)
	}

	source := config.TokenSource(context.Background(), token)
	refreshed, err := source.Token()
	if err != nil {
		return nil, err
	}

	if refreshed.AccessToken != token.AccessToken {
		if err := saveToken(file, refreshed); err != nil {
			warnf("unable to save refreshed token (%v)", err)
		}
	}

	return oauth2.NewClient(context.Background(), oauth2.ReuseTokenSource(refreshed, source)), nil
}

func oauthConfig(credentials, scope string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, err
	}

	return google.ConfigFromJSON(b, scope)
}

// tokenFile returns the tokens file for a credentials file and scope,
// e.g. <tokens>/credentials.sheets
func tokenFile(credentials, scope, tokens string) string {
	_, file := filepath.Split(credentials)
	name := strings.TrimSuffix(file, filepath.Ext(file))

	switch {
	case strings.HasPrefix(scope, SHEETS):
		return filepath.Join(tokens, fmt.Sprintf("%s.sheets", name))

	case strings.HasPrefix(scope, DRIVE):
		return filepath.Join(tokens, fmt.Sprintf("%s.drive", name))

	default:
		return filepath.Join(tokens, fmt.Sprintf("%s.tokens", name))
	}
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	token := oauth2.Token{}
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

func saveToken(file string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(file), ".token-*")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := json.NewEncoder(tmp).Encode(token); err != nil {
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), file)
}
