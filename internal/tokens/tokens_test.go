package tokens

import (
	"encoding/base64"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/twitteroauth/auth-service/internal/api"
	"github.com/twitteroauth/auth-service/internal/config"
	"github.com/twitteroauth/auth-service/internal/models"
)

func testConfig(ttl time.Duration) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-32-bytes-should-be-long-enough"
	cfg.JWT.AccessTokenTTL = ttl
	return cfg
}

func testUser() *models.User {
	return &models.User{ID: "user-123", FirstName: "jo", LastName: "jo123", Email: "x@y.com"}
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	cfg := testConfig(2 * time.Minute)
	u := testUser()

	tokenStr, err := Issue(cfg, u)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := Verify(cfg, tokenStr)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Subject != u.ID {
		t.Fatalf("unexpected sub claim: got=%v want=%v", claims.Subject, u.ID)
	}
	if claims.Email != u.Email {
		t.Fatalf("unexpected email claim: got=%v want=%v", claims.Email, u.Email)
	}
	if claims.Name != "jo jo123" {
		t.Fatalf("unexpected name claim: %v", claims.Name)
	}
	if claims.Issuer != Issuer {
		t.Fatalf("unexpected issuer: %v", claims.Issuer)
	}
}

func TestVerify_Expired(t *testing.T) {
	// negative TTL puts the expiry in the past
	cfg := testConfig(-1 * time.Minute)
	tokenStr, err := Issue(cfg, testUser())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	_, err = Verify(cfg, tokenStr)
	e := api.AsError(err)
	if e == nil || e.Kind != api.KindTokenExpired {
		t.Fatalf("expected token-expired error, got: %v", err)
	}
}

func TestVerify_WrongSecretFails(t *testing.T) {
	cfg := testConfig(2 * time.Minute)
	tokenStr, err := Issue(cfg, testUser())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	other := testConfig(2 * time.Minute)
	other.JWT.Secret = "different-secret-xxxxxxxxxxxxxxxxxxxxx"
	_, err = Verify(other, tokenStr)
	e := api.AsError(err)
	if e == nil || e.Kind != api.KindAccessToken {
		t.Fatalf("expected access-token error for wrong secret, got: %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	cfg := testConfig(2 * time.Minute)
	_, err := Verify(cfg, "not.a.jwt")
	e := api.AsError(err)
	if e == nil || e.Kind != api.KindBadToken {
		t.Fatalf("expected bad-token error for malformed token, got: %v", err)
	}
}

func TestVerify_WrongAudienceRejected(t *testing.T) {
	cfg := testConfig(2 * time.Minute)
	now := time.Now().UTC()
	claims := Claims{
		Name:  "x",
		Email: "x@y.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{"admin"},
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	_, err = Verify(cfg, signed)
	e := api.AsError(err)
	if e == nil || e.Kind != api.KindAccessToken {
		t.Fatalf("expected access-token error for wrong audience, got: %v", err)
	}
}

// Tampering with the payload must fail signature verification
func TestVerify_TamperedPayload(t *testing.T) {
	cfg := testConfig(5 * time.Minute)
	tokenStr, err := Issue(cfg, testUser())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, _ := base64.RawURLEncoding.DecodeString(parts[1])
	payloadStr := strings.Replace(string(payloadBytes), "user-123", "attacker", 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(payloadStr))
	_, err = Verify(cfg, strings.Join(parts, "."))
	if err == nil {
		t.Fatalf("expected verification to fail for tampered token")
	}
}

func TestIssue_RequiresSecretAndID(t *testing.T) {
	cfg := testConfig(time.Minute)
	cfg.JWT.Secret = ""
	if _, err := Issue(cfg, testUser()); api.AsError(err) == nil {
		t.Fatalf("expected internal error without secret, got: %v", err)
	}
	cfg = testConfig(time.Minute)
	u := testUser()
	u.ID = ""
	if _, err := Issue(cfg, u); api.AsError(err) == nil {
		t.Fatalf("expected internal error without id, got: %v", err)
	}
}

func TestFromRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/x", nil)
	c.Request.Header.Set("Authorization", "Bearer abc123")
	if got := FromRequest(c); got != "abc123" {
		t.Fatalf("expected header token, got %q", got)
	}

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest("GET", "/x", nil)
	c2.Params = gin.Params{{Key: "token", Value: "param-token"}}
	if got := FromRequest(c2); got != "param-token" {
		t.Fatalf("expected route param token, got %q", got)
	}

	c3, _ := gin.CreateTestContext(httptest.NewRecorder())
	c3.Request = httptest.NewRequest("GET", "/x", nil)
	if got := FromRequest(c3); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}
