package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"adminapi/internal/model"
	"adminapi/internal/service"
	"adminapi/pkg/apperror"
	"adminapi/pkg/logger"
	"adminapi/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	ctxUserID         = "userID"
	accessTokenCookie = "access_token"
)

// TokenParser turns a bearer token into the user id it was issued for.
type TokenParser interface {
	ParseToken(token string) (uint, error)
}

// GrantResolver returns the resolved permissions of a user.
type GrantResolver interface {
	Grant(ctx context.Context, userID uint) (*service.Grant, error)
}

// Auth builds the authentication and permission guards. With enabled set to
// false every guard lets the request through; a token, when present, is still
// honoured so the audit log keeps its actor.
type Auth struct {
	enabled bool
	tokens  TokenParser
	grants  GrantResolver
}

func NewAuth(enabled bool, tokens TokenParser, grants GrantResolver) *Auth {
	return &Auth{enabled: enabled, tokens: tokens, grants: grants}
}

// SetTokenCookie stores the access token as an HttpOnly cookie.
func SetTokenCookie(c *gin.Context, token string, ttl time.Duration) {
	secure := gin.Mode() == gin.ReleaseMode
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearTokenCookie removes the access token cookie.
func ClearTokenCookie(c *gin.Context) {
	c.SetCookie(accessTokenCookie, "", -1, "/", "", gin.Mode() == gin.ReleaseMode, true)
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// Authenticate requires a valid token.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.identify(c); !ok {
			return
		}
		c.Next()
	}
}

// RequirePermission requires a valid token whose user is active and holds
// every key.
func (a *Auth) RequirePermission(keys ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := a.identify(c)
		if !ok {
			return
		}
		if !a.enabled {
			c.Next()
			return
		}

		grant, err := a.grants.Grant(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				abort(c, apperror.Unauthorized("user no longer exists"))
				return
			}
			logger.FromContext(c.Request.Context()).WithError(err).Error("failed to resolve permissions")
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}
		if !grant.Active {
			abort(c, apperror.Forbidden("account is disabled"))
			return
		}

		for _, key := range keys {
			if !grant.Has(key) {
				logger.FromContext(c.Request.Context()).WithFields(logrus.Fields{
					"user_id":    userID,
					"permission": key,
				}).Warn("access denied")
				abort(c, apperror.Forbidden("Access denied: missing permission '"+key+"'"))
				return
			}
		}

		c.Next()
	}
}

// identify reads the token and stores the user id on the request. It aborts
// and returns false when a token is required and missing or invalid.
func (a *Auth) identify(c *gin.Context) (uint, bool) {
	token, missing := tokenFromRequest(c)
	if missing != nil {
		if !a.enabled {
			return 0, true
		}
		abort(c, missing)
		return 0, false
	}

	userID, err := a.tokens.ParseToken(token)
	if err != nil {
		if !a.enabled {
			return 0, true
		}
		var appErr *apperror.Error
		if !errors.As(err, &appErr) {
			appErr = apperror.Unauthorized("invalid token")
		}
		abort(c, appErr)
		return 0, false
	}

	c.Set(ctxUserID, userID)
	ctx := model.WithActor(c.Request.Context(), userID)
	ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithField("user_id", userID))
	c.Request = c.Request.WithContext(ctx)
	return userID, true
}

// tokenFromRequest prefers the Authorization header and falls back to the cookie.
func tokenFromRequest(c *gin.Context) (string, *apperror.Error) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", apperror.Unauthorized("Invalid authorization format. Expected 'Bearer <token>'")
		}
		return strings.TrimSpace(parts[1]), nil
	}

	if token, err := c.Cookie(accessTokenCookie); err == nil && token != "" {
		return token, nil
	}
	return "", apperror.Unauthorized("Authorization is missing")
}

func abort(c *gin.Context, err *apperror.Error) {
	status, body := response.Failure(err)
	c.AbortWithStatusJSON(status, body)
}
