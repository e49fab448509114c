package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"moneta/internal/mail"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	ggmail "google.golang.org/api/gmail/v1"
	goption "google.golang.org/api/option"
)

type Client struct {
	svc    *ggmail.Service
	sender string
}

var _ mail.Sender = (*Client)(nil)

// NewFromEnv creates a Gmail client using environment variables.
// Required: GMAIL_SENDER.
// Credentials, in order of preference: an OAuth client plus the token saved
// by cmd/oauth-init (GOOGLE_OAUTH_CLIENT_JSON/FILE with
// GOOGLE_OAUTH_TOKEN_JSON/FILE), or a service account
// (GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS).
func NewFromEnv(ctx context.Context) (*Client, error) {
	sender := strings.TrimSpace(os.Getenv("GMAIL_SENDER"))
	if sender == "" {
		return nil, errors.New("missing GMAIL_SENDER")
	}

	svc, err := newGmailService(ctx)
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}

	return &Client{svc: svc, sender: sender}, nil
}

func newGmailService(ctx context.Context) (*ggmail.Service, error) {
	if clientJSON, ok := readEnvJSON("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE"); ok {
		return newOAuthService(ctx, clientJSON)
	}

	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing credentials (set GOOGLE_OAUTH_CLIENT_JSON/FILE with a token, or GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := ggmail.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(ggmail.GmailSendScope))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return service, nil
}

// newOAuthService builds the service from an OAuth client plus the user token
// saved by cmd/oauth-init.
func newOAuthService(ctx context.Context, clientJSON []byte) (*ggmail.Service, error) {
	cfg, err := google.ConfigFromJSON(clientJSON, ggmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	tokenJSON, ok := readEnvJSON("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if !ok {
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}

	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	service, err := ggmail.NewService(ctx,
		goption.WithTokenSource(cfg.TokenSource(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return service, nil
}

// readEnvJSON returns inline JSON from jsonVar, or the contents of the file
// named by fileVar. The second return is false when neither is set or the
// file cannot be read.
func readEnvJSON(jsonVar, fileVar string) ([]byte, bool) {
	if v := strings.TrimSpace(os.Getenv(jsonVar)); v != "" {
		return []byte(v), true
	}
	if path := strings.TrimSpace(os.Getenv(fileVar)); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("Failed to read credentials file", "var", fileVar, "error", err)
			return nil, false
		}
		return b, true
	}
	return nil, false
}

// Send delivers a plain-text message through the Gmail API
func (c *Client) Send(ctx context.Context, msg mail.Message) error {
	if c.svc == nil {
		return errors.New("gmail service not initialized")
	}
	if msg.To == "" {
		return errors.New("missing recipient")
	}

	raw := buildRawMessage(c.sender, msg)

	_, err := c.svc.Users.Messages.Send("me", &ggmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	slog.InfoContext(ctx, "Email sent",
		"to", msg.To,
		"subject", msg.Subject)

	return nil
}

// buildRawMessage assembles an RFC 2822 message and encodes it the way the
// Gmail API expects, base64url without padding.
func buildRawMessage(from string, msg mail.Message) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return base64.RawURLEncoding.EncodeToString([]byte(b.String()))
}
