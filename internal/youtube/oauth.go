package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// uploadScope is the only scope the service requests.
const uploadScope = "https://www.googleapis.com/auth/youtube.upload"

// googleEndpoint is Google's OAuth2 endpoint pair.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// Static errors for OAuth operations.
var (
	// ErrClientNotConfigured is returned when client ID or secret is missing.
	ErrClientNotConfigured = errors.New("youtube: OAuth client credentials are not configured")
	// ErrTokenExchange is returned when the code exchange fails.
	ErrTokenExchange = errors.New("youtube: token exchange failed")
	// ErrTokenRefresh is returned when the refresh exchange fails.
	ErrTokenRefresh = errors.New("youtube: token refresh failed")
)

// OAuthConfig holds the Google OAuth client settings.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Client handles the OAuth token lifecycle and video publishing for YouTube.
type Client struct {
	oauth      oauth2.Config
	store      *Store
	httpClient *http.Client
	uploadURL  string
	logger     *slog.Logger
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithUploadURL overrides the resumable-upload endpoint. Used in tests.
func WithUploadURL(u string) ClientOption {
	return func(cl *Client) {
		cl.uploadURL = u
	}
}

// WithTokenURL overrides the OAuth token endpoint. Used in tests.
func WithTokenURL(u string) ClientOption {
	return func(cl *Client) {
		cl.oauth.Endpoint.TokenURL = u
	}
}

// NewClient creates a new YouTube client. The client ID and secret must be
// set; the store holds per-user credential records.
func NewClient(cfg OAuthConfig, store *Store, logger *slog.Logger, opts ...ClientOption) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrClientNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{uploadScope},
			Endpoint:     googleEndpoint,
		},
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		uploadURL:  "https://www.googleapis.com/upload/youtube/v3/videos",
		logger:     logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Store returns the credential store backing this client.
func (c *Client) Store() *Store {
	return c.store
}

// AuthURL builds the authorization URL for a user. The user identifier is
// carried as the OAuth state token so the callback can attribute the grant.
func (c *Client) AuthURL(userID string) string {
	return c.oauth.AuthCodeURL(userID, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode trades an authorization code for tokens and persists the
// resulting credential record for the user.
func (c *Client) ExchangeCode(ctx context.Context, code, userID string) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}

	rec := CredentialRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
		CreatedAt:    time.Now().Unix(),
	}
	if rec.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		rec.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		rec.Scope = scope
	}

	if err := c.store.Save(userID, rec); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	c.logger.Info("youtube credentials saved",
		slog.String("user_id", userID),
	)
	return nil
}

// tokenResponse mirrors the token endpoint's refresh response.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Refresh exchanges the record's refresh token for a new access token,
// persists the updated record for the user, and returns it. The stored
// refresh token is preserved unless the endpoint explicitly returns a new
// one. On any failure the stored record is left untouched.
func (c *Client) Refresh(ctx context.Context, userID string, rec CredentialRecord) (CredentialRecord, error) {
	if rec.RefreshToken == "" {
		return CredentialRecord{}, ErrNoRefreshToken
	}

	form := url.Values{
		"refresh_token": {rec.RefreshToken},
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauth.Endpoint.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return CredentialRecord{}, fmt.Errorf("%w: create request: %w", ErrTokenRefresh, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CredentialRecord{}, fmt.Errorf("%w: %w", ErrTokenRefresh, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CredentialRecord{}, fmt.Errorf("%w: read response: %w", ErrTokenRefresh, err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return CredentialRecord{}, fmt.Errorf("%w: parse response: %w", ErrTokenRefresh, err)
	}
	if tok.Error != "" {
		detail := tok.ErrorDescription
		if detail == "" {
			detail = tok.Error
		}
		return CredentialRecord{}, fmt.Errorf("%w: %s", ErrTokenRefresh, detail)
	}
	if resp.StatusCode != http.StatusOK || tok.AccessToken == "" {
		return CredentialRecord{}, fmt.Errorf("%w: status %d: %s", ErrTokenRefresh, resp.StatusCode, string(body))
	}

	rec.AccessToken = tok.AccessToken
	rec.CreatedAt = time.Now().Unix()
	if tok.ExpiresIn > 0 {
		rec.ExpiresIn = tok.ExpiresIn
	}
	if tok.RefreshToken != "" {
		rec.RefreshToken = tok.RefreshToken
	}

	if err := c.store.Save(userID, rec); err != nil {
		return CredentialRecord{}, fmt.Errorf("save refreshed credentials: %w", err)
	}

	c.logger.Info("youtube access token refreshed",
		slog.String("user_id", userID),
	)
	return rec, nil
}
