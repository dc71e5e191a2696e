package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/test?x=1", nil)
	handler(c)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestSuccessEnvelope(t *testing.T) {
	w, env := perform(t, func(c *gin.Context) {
		Success(c, "operation successful", gin.H{"id": "u1"})
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusSuccess, env.StatusCode)
	assert.Equal(t, "operation successful", env.Message)
	assert.Equal(t, "http://example.com/auth/test?x=1", env.URL)
	assert.Equal(t, "twitteroAuth", w.Header().Get("X-Powered-By"))
	assert.NotNil(t, env.Data)
}

func TestCreatedEnvelope(t *testing.T) {
	w, env := perform(t, func(c *gin.Context) {
		Created(c, "User created successfully", nil)
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, StatusSuccess, env.StatusCode)
}

func TestHandle_KindToStatus(t *testing.T) {
	cases := []struct {
		err        error
		httpStatus int
		statusCode string
	}{
		{BadToken("Token is not valid"), http.StatusUnauthorized, StatusInvalidAccessToken},
		{AccessToken("Invalid access token"), http.StatusUnauthorized, StatusInvalidAccessToken},
		{TokenExpired("Token is expired"), http.StatusUnauthorized, StatusExpiredAccessToken},
		{Unauthorized("Invalid Credentials"), http.StatusUnauthorized, StatusFailure},
		{NotFound("no such route"), http.StatusNotFound, StatusFailure},
		{NoEntry("user not found"), http.StatusNotFound, StatusFailure},
		{NoData("nothing stored"), http.StatusNotFound, StatusFailure},
		{BadRequest("missing field"), http.StatusBadRequest, StatusFailure},
		{Forbidden("not yours"), http.StatusForbidden, StatusFailure},
		{Internal("boom"), http.StatusInternalServerError, StatusFailure},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			w, env := perform(t, func(c *gin.Context) {
				Handle(c, tc.err, "development")
			})
			assert.Equal(t, tc.httpStatus, w.Code)
			assert.Equal(t, tc.statusCode, env.StatusCode)
		})
	}
}

func TestHandle_ExpiredSetsInstructionHeader(t *testing.T) {
	w, env := perform(t, func(c *gin.Context) {
		Handle(c, TokenExpired("Token is expired"), "development")
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, StatusExpiredAccessToken, env.StatusCode)
	assert.Equal(t, "Refresh Token", w.Header().Get("Instruction"))
}

func TestHandle_ProductionRedactsInternal(t *testing.T) {
	_, env := perform(t, func(c *gin.Context) {
		Handle(c, Internal("mongo: connection reset", "dial tcp refused"), "production")
	})
	assert.Equal(t, "Something wrong happened.", env.Message)
	assert.Empty(t, env.Details)

	_, env = perform(t, func(c *gin.Context) {
		Handle(c, Internal("mongo: connection reset"), "development")
	})
	assert.Equal(t, "mongo: connection reset", env.Message)
}

func TestHandle_UntypedErrorBecomesInternal(t *testing.T) {
	w, env := perform(t, func(c *gin.Context) {
		Handle(c, errors.New("raw driver error"), "production")
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, StatusFailure, env.StatusCode)
	assert.Equal(t, "Something wrong happened.", env.Message)
}

func TestHandle_NonInternalMessageNotRedacted(t *testing.T) {
	_, env := perform(t, func(c *gin.Context) {
		Handle(c, Unauthorized("Invalid refresh token"), "production")
	})
	assert.Equal(t, "Invalid refresh token", env.Message)
}

func TestAsError(t *testing.T) {
	e := BadRequest("missing field", "oauth_token")
	assert.Equal(t, KindBadRequest, AsError(e).Kind)
	assert.Equal(t, "oauth_token", AsError(e).Details)
	assert.Nil(t, AsError(errors.New("plain")))
	assert.Equal(t, "BadRequestError: missing field: oauth_token", e.Error())
}
