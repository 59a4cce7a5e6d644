// Package googleauth turns a pre-generated authorized-user token (base64
// env value or token file) into a client option for the Google API
// services. Token acquisition and refresh belong to the OAuth library; this
// package only plumbs credentials, and any failure here is fatal to the
// run.
package googleauth

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes covers every collaborator the pipeline talks to.
var Scopes = []string{
	gmail.GmailReadonlyScope,
	calendar.CalendarScope,
	sheets.SpreadsheetsScope,
}

// ClientOption builds the shared credential option. tokenBase64 takes
// precedence over tokenFile.
func ClientOption(ctx context.Context, tokenBase64, tokenFile string) (option.ClientOption, error) {
	data, err := tokenJSON(tokenBase64, tokenFile)
	if err != nil {
		return nil, err
	}

	creds, err := google.CredentialsFromJSON(ctx, data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorized user token: %w", err)
	}
	return option.WithTokenSource(creds.TokenSource), nil
}

func tokenJSON(tokenBase64, tokenFile string) ([]byte, error) {
	if tokenBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(tokenBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 token: %w", err)
		}
		return data, nil
	}
	if tokenFile != "" {
		data, err := os.ReadFile(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read token file %s: %w", tokenFile, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("no valid authentication method found: set GMAIL_API_TOKEN_BASE64 or provide a token file")
}
