package slackapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/slack-go/slack"
)

// botScopes are the workspace permissions requested at install time: read
// direct messages and resolve sender profiles.
const botScopes = "im:history,users:read"

// Service is the Slack provider adapter plumbing. Like the Gmail adapter it
// holds only the application OAuth pair; a Web API client is built per call
// from the tenant's stored bot token.
type Service struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
}

// Workspace describes the installed workspace after an OAuth exchange.
type Workspace struct {
	TeamID   string
	TeamName string
	BotToken string
}

func NewService(clientID, clientSecret, redirectURI string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   http.DefaultClient,
	}
}

// AuthorizeURL builds the Slack OAuth v2 consent URL.
func (s *Service) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", s.clientID)
	q.Set("scope", botScopes)
	q.Set("redirect_uri", s.redirectURI)
	q.Set("state", state)
	return "https://slack.com/oauth/v2/authorize?" + q.Encode()
}

// Exchange resolves the one-time authorization code into a workspace
// installation: team identity plus the bot token.
func (s *Service) Exchange(ctx context.Context, code string) (*Workspace, error) {
	resp, err := slack.GetOAuthV2ResponseContext(ctx, s.httpClient, s.clientID, s.clientSecret, code, s.redirectURI)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange authorization code: %v", err)
	}
	if resp.Team.ID == "" {
		return nil, errors.New("oauth response carried no team id")
	}
	if resp.AccessToken == "" {
		return nil, errors.New("oauth response carried no bot token")
	}
	return &Workspace{
		TeamID:   resp.Team.ID,
		TeamName: resp.Team.Name,
		BotToken: resp.AccessToken,
	}, nil
}

// UserDisplayName resolves a Slack user id to a human-readable name using
// the tenant's bot token. Lookup failure returns an error; callers fall back
// to the raw id.
func (s *Service) UserDisplayName(ctx context.Context, botToken, userID string) (string, error) {
	api := slack.New(botToken, slack.OptionHTTPClient(s.httpClient))
	user, err := api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("unable to look up user %s: %v", userID, err)
	}
	if user.Profile.DisplayName != "" {
		return user.Profile.DisplayName, nil
	}
	if user.RealName != "" {
		return user.RealName, nil
	}
	return user.Name, nil
}
