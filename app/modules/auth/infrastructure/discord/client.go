// Package discord implements the Discord OAuth2 login used by the auth module.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	userservice "github.com/Black-And-White-Club/opsboard/app/modules/user/application"
	"golang.org/x/oauth2"
)

const defaultAPIBaseURL = "https://discord.com/api/v10"

// Endpoint is Discord's OAuth2 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Config holds the application credentials registered with Discord.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint and APIBaseURL default to Discord's when empty.
	Endpoint   oauth2.Endpoint
	APIBaseURL string
}

// Client exchanges authorization codes and fetches the member's profile.
type Client struct {
	oauth   *oauth2.Config
	apiBase string
}

// NewClient creates a Client requesting the identify scope.
func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = Endpoint
	}
	apiBase := cfg.APIBaseURL
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"identify"},
		},
		apiBase: strings.TrimRight(apiBase, "/"),
	}
}

// AuthCodeURL returns the consent page URL.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// FetchProfile exchanges code for a token and reads /users/@me with it.
func (c *Client) FetchProfile(ctx context.Context, code string) (*userservice.DiscordProfile, error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/users/@me", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discord profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("discord profile request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var profile userservice.DiscordProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode discord profile: %w", err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("discord profile has no id")
	}
	return &profile, nil
}
