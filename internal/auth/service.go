// Package auth orchestrates the Twitter login flow: the OAuth1.0a
// handshake, reconciliation of the external profile against local
// identities, and credential issuance.
package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/twitteroauth/auth-service/internal/api"
	"github.com/twitteroauth/auth-service/internal/config"
	"github.com/twitteroauth/auth-service/internal/handshake"
	"github.com/twitteroauth/auth-service/internal/models"
	"github.com/twitteroauth/auth-service/internal/tokens"
	"github.com/twitteroauth/auth-service/internal/twitter"
	"github.com/twitteroauth/auth-service/internal/users"
	"github.com/twitteroauth/auth-service/pkg/logger"
	"github.com/twitteroauth/auth-service/pkg/metrics"
)

// backgroundTimeout bounds post-login background work (avatar mirroring).
const backgroundTimeout = 30 * time.Second

// Notifier schedules transactional email; implementations must not block.
type Notifier interface {
	SendWelcome(u *models.User, activationURL string)
}

// AvatarMirror copies a provider profile image into local object storage.
type AvatarMirror interface {
	Mirror(ctx context.Context, userID, imageURL string) (string, error)
}

// Service is the identity reconciliation service. Email is the sole
// reconciliation key: an external id alone never merges accounts.
type Service struct {
	cfg        *config.Config
	users      *users.Service
	twitter    twitter.Client
	handshakes handshake.Store
	notifier   Notifier
	avatars    AvatarMirror
}

// NewService wires the reconciliation service. notifier and avatars may be
// nil; the corresponding post-login work is then skipped.
func NewService(cfg *config.Config, u *users.Service, tc twitter.Client, hs handshake.Store, n Notifier, av AvatarMirror) *Service {
	return &Service{cfg: cfg, users: u, twitter: tc, handshakes: hs, notifier: n, avatars: av}
}

// LoginResult is the terminal state of a successful callback.
type LoginResult struct {
	User        *models.PublicUser `json:"user"`
	AccessToken string             `json:"accessToken,omitempty"`
	Created     bool               `json:"-"`
}

// AuthorizeURL runs handshake step one: obtain a request token for the
// configured callback and return the URL the end user must be redirected
// to. The request-token secret is retained in the handshake store, keyed by
// the request token, until the callback arrives.
func (s *Service) AuthorizeURL(ctx context.Context) (string, error) {
	rt, err := s.twitter.RequestToken(ctx, s.cfg.Twitter.CallbackURL)
	if err != nil {
		return "", api.Internal("error getting OAuth request token", err.Error())
	}
	if err := s.handshakes.Put(ctx, rt.Token, rt.Secret); err != nil {
		return "", api.Internal("failed to retain handshake state", err.Error())
	}
	return s.twitter.AuthorizeURL(rt.Token), nil
}

// HandleCallback runs handshake steps two and three for one provider
// callback: exchange the request token for an access token, fetch the
// verified profile, and reconcile it against local identities by email.
// Any step's failure aborts the whole flow with a single taxonomy error;
// no partial handshake state is ever persisted.
func (s *Service) HandleCallback(ctx context.Context, oauthToken, oauthVerifier string) (*LoginResult, error) {
	if oauthToken == "" || oauthVerifier == "" {
		return nil, api.BadRequest("oauth_token and oauth_verifier are required")
	}

	secret, err := s.handshakes.Take(ctx, oauthToken)
	if err != nil {
		return nil, api.Internal("failed to load handshake state", err.Error())
	}
	if secret == "" {
		// unknown, replayed, or expired handshake
		return nil, api.Unauthorized("login attempt expired, please try again")
	}

	at, err := s.twitter.AccessToken(ctx, oauthToken, secret, oauthVerifier)
	if err != nil {
		return nil, api.Internal("error getting OAuth access token", err.Error())
	}

	profile, err := s.twitter.VerifyCredentials(ctx, at)
	if err != nil {
		return nil, api.Internal("error getting user credentials from twitter", err.Error())
	}
	if profile.Email == "" {
		return nil, api.BadRequest("twitter profile has no verified email")
	}

	tt := &models.TwitterTokens{AccessToken: at.Token, AccessTokenSecret: at.Secret}

	existing, err := s.users.FindByEmail(ctx, profile.Email)
	if err != nil {
		return nil, api.Internal("failed to look up user", err.Error())
	}
	if existing != nil {
		return s.relink(ctx, existing, tt)
	}

	return s.create(ctx, profile, tt)
}

// relink updates an existing identity on a repeat login: the stored
// provider tokens are overwritten with the fresh bundle.
func (s *Service) relink(ctx context.Context, u *models.User, tt *models.TwitterTokens) (*LoginResult, error) {
	updated, err := s.users.UpdateTwitterTokens(ctx, u.ID, tt)
	if err != nil {
		return nil, err
	}
	metrics.Logins.WithLabelValues("linked").Inc()
	return &LoginResult{User: updated.Public()}, nil
}

// create builds a new identity from the external profile. A lost
// create race (two concurrent callbacks for the same new email) falls back
// to the relink path via the store's unique-email constraint.
func (s *Service) create(ctx context.Context, profile *twitter.Profile, tt *models.TwitterTokens) (*LoginResult, error) {
	u := &models.User{
		FirstName:     strings.ToLower(profile.Name),
		LastName:      strings.ToLower(profile.ScreenName),
		Email:         profile.Email,
		Twitter:       strconv.FormatInt(profile.ID, 10),
		TwitterTokens: tt,
		ProfileImage:  profile.ProfileImageURL,
	}
	created, err := s.users.Register(ctx, u, "")
	if err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			// another request created this identity first; retry as lookup
			existing, lerr := s.users.FindByEmail(ctx, profile.Email)
			if lerr != nil || existing == nil {
				return nil, api.Internal("failed to reconcile user after create race")
			}
			return s.relink(ctx, existing, tt)
		}
		return nil, err
	}

	token, err := tokens.Issue(s.cfg, created)
	if err != nil {
		return nil, err
	}

	s.afterCreate(created, token)
	metrics.Logins.WithLabelValues("created").Inc()
	return &LoginResult{User: created.Public(), AccessToken: token, Created: true}, nil
}

// afterCreate schedules the fire-and-forget post-signup work. Failures are
// logged, never surfaced to the login request.
func (s *Service) afterCreate(u *models.User, token string) {
	if s.notifier != nil {
		s.notifier.SendWelcome(u, s.cfg.Server.BaseURL+"/activate/"+token)
	}
	if s.avatars != nil && u.ProfileImage != "" && u.ProfileImage != models.DefaultProfileImage {
		user := *u
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
			defer cancel()
			key, err := s.avatars.Mirror(ctx, user.ID, user.ProfileImage)
			if err != nil {
				logger.Warnf("avatar mirror failed for user %s: %v", user.ID, err)
				return
			}
			if err := s.users.SetProfileImage(ctx, user.ID, key); err != nil {
				logger.Warnf("avatar reference update failed for user %s: %v", user.ID, err)
			}
		}()
	}
}

// Refresh exchanges a refresh token for a fresh access token and a rotated
// refresh token. The old refresh token stops resolving the moment the new
// hash is persisted.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, err error) {
	u, err := s.users.ResolveRefreshToken(ctx, refreshToken)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return "", "", api.Internal("failed to resolve refresh token", err.Error())
	}
	if u == nil {
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return "", "", api.Unauthorized("Invalid refresh token")
	}
	accessToken, err = tokens.Issue(s.cfg, u)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return "", "", err
	}
	newRefreshToken, err = s.users.IssueRefreshToken(ctx, u)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return "", "", err
	}
	metrics.TokenRefreshes.WithLabelValues("ok").Inc()
	return accessToken, newRefreshToken, nil
}

// Logout revokes the outstanding refresh token for its owning identity.
// An unknown token is treated as already logged out.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	u, err := s.users.ResolveRefreshToken(ctx, refreshToken)
	if err != nil {
		return api.Internal("failed to resolve refresh token", err.Error())
	}
	if u == nil {
		return nil
	}
	return s.users.ClearRefreshToken(ctx, u.ID)
}
