package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	authEndpoint  = "https://accounts.google.com/o/oauth2/auth"
	tokenEndpoint = "https://oauth2.googleapis.com/token"
)

// Scopes requested during the OAuth consent flow.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/tasks",
}

// Credentials is the opaque per-user credential handle passed through the
// router to the calendar and task layers. Access-token refresh happens
// inside the client and is invisible to callers.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// AuthURL builds the OAuth consent URL. The Telegram user ID travels in the
// state parameter so the callback can attribute the tokens.
func (c *Client) AuthURL(userID string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(Scopes, " "))
	q.Set("access_type", "offline")
	q.Set("include_granted_scopes", "true")
	q.Set("prompt", "consent")
	q.Set("state", userID)
	return authEndpoint + "?" + q.Encode()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// Exchange trades an authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*Credentials, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"redirect_uri":  {c.redirectURI},
		"grant_type":    {"authorization_code"},
	}
	return c.postToken(ctx, form)
}

// refresh renews the access token in place using the refresh token.
func (c *Client) refresh(ctx context.Context, creds *Credentials) error {
	if creds.RefreshToken == "" {
		return fmt.Errorf("no refresh token available")
	}
	form := url.Values{
		"refresh_token": {creds.RefreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"refresh_token"},
	}
	renewed, err := c.postToken(ctx, form)
	if err != nil {
		return err
	}
	creds.AccessToken = renewed.AccessToken
	creds.Expiry = renewed.Expiry
	return nil
}

func (c *Client) postToken(ctx context.Context, form url.Values) (*Credentials, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tok.Error != "" {
		return nil, fmt.Errorf("token endpoint error: %s (%s)", tok.Error, tok.ErrorDesc)
	}

	creds := &Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if tok.ExpiresIn > 0 {
		creds.Expiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return creds, nil
}
