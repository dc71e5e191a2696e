package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/twitteroauth/auth-service/internal/api"
	"github.com/twitteroauth/auth-service/internal/auth"
	"github.com/twitteroauth/auth-service/internal/config"
	"github.com/twitteroauth/auth-service/internal/users"
	"github.com/twitteroauth/auth-service/pkg/logger"
	"github.com/twitteroauth/auth-service/pkg/middleware"
)

// RefreshRequest carries the client-held refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg      *config.Config
	authSvc  *auth.Service
	usersSvc *users.Service
}

func NewAuthHandler(cfg *config.Config, a *auth.Service, u *users.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, authSvc: a, usersSvc: u}
}

// Register mounts the login flow and token routes.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/twitter", h.TwitterLogin)
	rg.GET("/twittercallback", h.TwitterCallback)
	a := rg.Group("/auth")
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
	rg.GET("/error", h.ErrorPage)
}

// RegisterProtected mounts routes requiring a valid bearer token.
func (h *AuthHandler) RegisterProtected(rg *gin.RouterGroup) {
	rg.GET("/me", middleware.Auth(h.cfg), h.Me)
}

// TwitterLogin starts the handshake and redirects the browser to Twitter's
// authorization page.
func (h *AuthHandler) TwitterLogin(c *gin.Context) {
	url, err := h.authSvc.AuthorizeURL(c.Request.Context())
	if err != nil {
		logger.Errorf("twitter login init failed: %v", err)
		c.Redirect(http.StatusFound, "/error")
		return
	}
	c.Redirect(http.StatusFound, url)
}

// TwitterCallback completes the handshake. Browser flows land here from
// Twitter; the uniform envelope carries the reconciled identity.
func (h *AuthHandler) TwitterCallback(c *gin.Context) {
	if c.Query("error") != "" || c.Query("denied") != "" {
		// the user rejected the authorization prompt
		c.Redirect(http.StatusFound, "/error")
		return
	}
	result, err := h.authSvc.HandleCallback(c.Request.Context(), c.Query("oauth_token"), c.Query("oauth_verifier"))
	if err != nil {
		logger.Errorf("twitter callback failed: %v", err)
		api.Handle(c, err, h.cfg.Server.Environment)
		return
	}
	if result.Created {
		api.Created(c, "User created successfully", result)
		return
	}
	api.Success(c, "operation successful", result)
}

// Refresh exchanges a refresh token for a fresh access token and a rotated
// refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Handle(c, api.BadRequest("refreshToken is required", err.Error()), h.cfg.Server.Environment)
		return
	}
	access, refresh, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		api.Handle(c, err, h.cfg.Server.Environment)
		return
	}
	api.Success(c, "token refreshed", gin.H{"accessToken": access, "refreshToken": refresh})
}

// Logout revokes the outstanding refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Handle(c, api.BadRequest("refreshToken is required", err.Error()), h.cfg.Server.Environment)
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		api.Handle(c, err, h.cfg.Server.Environment)
		return
	}
	api.Success(c, "logged out", nil)
}

// Me returns the authenticated user's trimmed profile.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		api.Handle(c, api.Unauthorized("Authorization not provided"), h.cfg.Server.Environment)
		return
	}
	u, err := h.usersSvc.FindByID(c.Request.Context(), claims.Subject)
	if err != nil {
		api.Handle(c, api.Internal("failed to load user", err.Error()), h.cfg.Server.Environment)
		return
	}
	if u == nil {
		api.Handle(c, api.NoEntry("user not found"), h.cfg.Server.Environment)
		return
	}
	api.Success(c, "operation successful", u.Public())
}

// ErrorPage is the generic landing route for failed browser flows.
func (h *AuthHandler) ErrorPage(c *gin.Context) {
	api.Handle(c, api.Unauthorized("Authentication Failure"), h.cfg.Server.Environment)
}
