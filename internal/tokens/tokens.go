// Package tokens issues and verifies the short-lived signed bearer tokens
// that prove identity on subsequent requests.
package tokens

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/twitteroauth/auth-service/internal/api"
	"github.com/twitteroauth/auth-service/internal/config"
	"github.com/twitteroauth/auth-service/internal/models"
)

const (
	// Issuer is the fixed iss claim on every token this service signs.
	Issuer = "twitteroAuth"
	// AudienceUser tags tokens issued to end users.
	AudienceUser = "user"
)

// Claims is the full claim set carried by an access token: the reserved
// claims plus the application claims (display name and email).
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issue signs a new HS256 access token for the user. The subject is the
// user's id and the expiry is now plus the configured TTL.
func Issue(cfg *config.Config, u *models.User) (string, error) {
	if cfg.JWT.Secret == "" {
		return "", api.Internal("token signing secret is not configured")
	}
	if u.ID == "" {
		return "", api.Internal("cannot issue token for user without an id")
	}
	now := time.Now().UTC()
	claims := Claims{
		Name:  u.DisplayName(),
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{AudienceUser},
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.JWT.AccessTokenTTL)),
		},
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := jt.SignedString([]byte(cfg.JWT.Secret))
	if err != nil {
		return "", api.Internal("failed to sign access token", err.Error())
	}
	return signed, nil
}

// Verify validates signature, algorithm, issuer, audience and expiry, and
// returns the decoded claims. Failures map to the taxonomy: expiry to
// token-expired, structural damage to bad-token, anything else to
// access-token.
func Verify(cfg *config.Config, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) { return []byte(cfg.JWT.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(AudienceUser),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, api.TokenExpired("Token is expired")
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, api.BadToken("Token is not valid")
		default:
			return nil, api.AccessToken("Invalid access token", err.Error())
		}
	}
	return claims, nil
}

// FromRequest extracts the raw bearer token from the Authorization header,
// falling back to a `token` route parameter. Absence returns "" and is not
// an error by itself; the caller decides whether it is fatal.
func FromRequest(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return c.Param("token")
}
