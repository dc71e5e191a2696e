package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitteroauth/auth-service/internal/api"
	"github.com/twitteroauth/auth-service/internal/config"
	"github.com/twitteroauth/auth-service/internal/models"
	"github.com/twitteroauth/auth-service/internal/tokens"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "development"},
		JWT:    config.JWTConfig{Secret: "middleware-test-secret", AccessTokenTTL: 15 * time.Minute},
	}
}

func authRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	protected := func(c *gin.Context) {
		claims := Claims(c)
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject})
	}
	r.GET("/me", Auth(cfg), protected)
	r.GET("/me/:token", Auth(cfg), protected)
	return r
}

func issueToken(t *testing.T, cfg *config.Config) (string, string) {
	t.Helper()
	u := &models.User{ID: "user_1", FirstName: "jo", LastName: "jo123", Email: "x@y.com"}
	token, err := tokens.Issue(cfg, u)
	require.NoError(t, err)
	return token, u.ID
}

func TestAuth_ValidBearerToken(t *testing.T) {
	cfg := authTestConfig()
	token, sub := issueToken(t, cfg)

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	authRouter(cfg).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, sub, body["sub"])
}

func TestAuth_TokenAsRouteParam(t *testing.T) {
	cfg := authTestConfig()
	token, sub := issueToken(t, cfg)

	r := httptest.NewRequest(http.MethodGet, "/me/"+token, nil)
	w := httptest.NewRecorder()
	authRouter(cfg).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, sub, body["sub"])
}

func TestAuth_MissingToken(t *testing.T) {
	cfg := authTestConfig()

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	authRouter(cfg).ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var env api.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, api.StatusFailure, env.StatusCode)
}

func TestAuth_GarbageToken(t *testing.T) {
	cfg := authTestConfig()

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer not.a.jwt")
	w := httptest.NewRecorder()
	authRouter(cfg).ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var env api.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, api.StatusInvalidAccessToken, env.StatusCode)
}

func TestAuth_ExpiredToken(t *testing.T) {
	cfg := authTestConfig()
	cfg.JWT.AccessTokenTTL = -time.Minute
	token, _ := issueToken(t, cfg)
	cfg.JWT.AccessTokenTTL = 15 * time.Minute

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	authRouter(cfg).ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var env api.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, api.StatusExpiredAccessToken, env.StatusCode)
	assert.Equal(t, "Refresh Token", w.Header().Get("Instruction"))
}

func TestAuth_WrongSecret(t *testing.T) {
	issuerCfg := authTestConfig()
	token, _ := issueToken(t, issuerCfg)

	verifierCfg := authTestConfig()
	verifierCfg.JWT.Secret = "a completely different secret"

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	authRouter(verifierCfg).ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var env api.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, api.StatusInvalidAccessToken, env.StatusCode)
}
