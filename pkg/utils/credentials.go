package utils

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuth scopes for Google APIs
const (
	ScopeSheetsReadonly = "https://www.googleapis.com/auth/spreadsheets.readonly"
)

// ServiceAccountTokenSource returns a token source for the service account key
// in credentialsFile. With no file it falls back to Application Default Credentials.
func ServiceAccountTokenSource(ctx context.Context, credentialsFile string, scopes ...string) (oauth2.TokenSource, error) {
	if len(scopes) == 0 {
		scopes = []string{ScopeSheetsReadonly}
	}

	if credentialsFile == "" {
		ts, err := google.DefaultTokenSource(ctx, scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to find default credentials: %w", err)
		}
		return ts, nil
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	return TokenSourceFromJSON(ctx, data, scopes...)
}

// TokenSourceFromJSON builds a cached token source from a service account key
func TokenSourceFromJSON(ctx context.Context, data []byte, scopes ...string) (oauth2.TokenSource, error) {
	jwtCfg, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	return oauth2.ReuseTokenSource(nil, jwtCfg.TokenSource(ctx)), nil
}
