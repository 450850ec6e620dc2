package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUserInfoURL returns the signed-in user's id, name and email.
const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Profile is the identity an OAuth provider vouches for.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Google runs the authorization-code flow against Google.
type Google struct {
	Config      *oauth2.Config
	UserInfoURL string
}

func NewGoogle(clientID, clientSecret string) *Google {
	return &Google{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"profile", "email"},
		},
		UserInfoURL: GoogleUserInfoURL,
	}
}

// AuthCodeURL builds the consent redirect. redirectURL must be absolute.
func (g *Google) AuthCodeURL(state, redirectURL string) string {
	return g.Config.AuthCodeURL(state, oauth2.SetAuthURLParam("redirect_uri", redirectURL))
}

// Exchange trades the code for a token and fetches the profile with it.
func (g *Google) Exchange(ctx context.Context, code, redirectURL string) (*Profile, error) {
	tok, err := g.Config.Exchange(ctx, code, oauth2.SetAuthURLParam("redirect_uri", redirectURL))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.Config.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}
	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("userinfo without id")
	}
	return &p, nil
}
