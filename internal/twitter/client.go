// Package twitter wraps the three-legged OAuth1.0a handshake against
// Twitter behind a small interface the reconciliation service depends on.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dghubble/oauth1"
	twitterOAuth1 "github.com/dghubble/oauth1/twitter"
)

// Profile is the subset of account/verify_credentials the service needs.
// Email is only present when the Twitter app is allowed to request it.
type Profile struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	ScreenName      string `json:"screen_name"`
	ProfileImageURL string `json:"profile_image_url_https"`
}

// RequestToken is the short-lived token pair from handshake step one.
type RequestToken struct {
	Token  string
	Secret string
}

// AccessToken is the long-lived credential pair from handshake step two.
type AccessToken struct {
	Token  string
	Secret string
}

// Client performs the provider side of the handshake.
type Client interface {
	RequestToken(ctx context.Context, callbackURL string) (*RequestToken, error)
	AuthorizeURL(requestToken string) string
	AccessToken(ctx context.Context, requestToken, requestSecret, verifier string) (*AccessToken, error)
	VerifyCredentials(ctx context.Context, token *AccessToken) (*Profile, error)
}

const verifyCredentialsURL = "https://api.twitter.com/1.1/account/verify_credentials.json"

// OAuthClient implements Client with dghubble/oauth1 request signing.
type OAuthClient struct {
	consumerKey    string
	consumerSecret string
	timeout        time.Duration
}

// NewClient creates a Twitter OAuth1.0a client. Each outbound call is
// bounded by timeout in addition to any deadline on the caller's context.
func NewClient(consumerKey, consumerSecret string, timeout time.Duration) *OAuthClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OAuthClient{consumerKey: consumerKey, consumerSecret: consumerSecret, timeout: timeout}
}

func (c *OAuthClient) config(callbackURL string) *oauth1.Config {
	return &oauth1.Config{
		ConsumerKey:    c.consumerKey,
		ConsumerSecret: c.consumerSecret,
		CallbackURL:    callbackURL,
		Endpoint:       twitterOAuth1.AuthenticateEndpoint,
	}
}

// bounded runs fn with the client timeout applied on top of ctx. The oauth1
// token-dance helpers do not accept a context, so the call is supervised
// from outside.
func (c *OAuthClient) bounded(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *OAuthClient) RequestToken(ctx context.Context, callbackURL string) (*RequestToken, error) {
	cfg := c.config(callbackURL)
	var rt RequestToken
	err := c.bounded(ctx, func() error {
		token, secret, err := cfg.RequestToken()
		if err != nil {
			return err
		}
		rt = RequestToken{Token: token, Secret: secret}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("twitter request token: %w", err)
	}
	return &rt, nil
}

func (c *OAuthClient) AuthorizeURL(requestToken string) string {
	u, err := c.config("").AuthorizationURL(requestToken)
	if err != nil {
		// AuthorizationURL only fails on an unparsable endpoint constant
		return twitterOAuth1.AuthenticateEndpoint.AuthorizeURL + "?oauth_token=" + url.QueryEscape(requestToken)
	}
	return u.String()
}

func (c *OAuthClient) AccessToken(ctx context.Context, requestToken, requestSecret, verifier string) (*AccessToken, error) {
	cfg := c.config("")
	var at AccessToken
	err := c.bounded(ctx, func() error {
		token, secret, err := cfg.AccessToken(requestToken, requestSecret, verifier)
		if err != nil {
			return err
		}
		at = AccessToken{Token: token, Secret: secret}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("twitter access token: %w", err)
	}
	return &at, nil
}

// VerifyCredentials fetches the authenticated profile, including the
// verified email address, with a request signed by the user's access token.
func (c *OAuthClient) VerifyCredentials(ctx context.Context, token *AccessToken) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpClient := c.config("").Client(ctx, oauth1.NewToken(token.Token, token.Secret))
	q := url.Values{}
	q.Set("include_email", "true")
	q.Set("skip_status", "true")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, verifyCredentialsURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitter verify credentials: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("twitter verify credentials returned %d: %s", resp.StatusCode, string(b))
	}
	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("twitter verify credentials decode: %w", err)
	}
	return &p, nil
}
