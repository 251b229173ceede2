// Package middleware holds the gin middleware that sits in front of the API
// handlers: caller identity, rate limiting and error rendering.
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/justsurfingit/jobboard/internal/apperr"
	"github.com/justsurfingit/jobboard/internal/auth"
	"github.com/justsurfingit/jobboard/internal/authz"
	"github.com/justsurfingit/jobboard/internal/models"
)

const (
	principalKey = "principal"
	// UserIDKey holds the authenticated user's id for the request logger.
	UserIDKey = "user_id"
)

type Authenticator struct {
	Tokens *auth.Tokens
	DB     *gorm.DB
	Log    logrus.FieldLogger
}

func NewAuthenticator(tokens *auth.Tokens, db *gorm.DB, log logrus.FieldLogger) *Authenticator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Authenticator{Tokens: tokens, DB: db, Log: log}
}

// Handler resolves the caller. Requests without an Authorization header
// continue as anonymous; a header that does not yield a known user is
// rejected outright.
func (a *Authenticator) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(principalKey, authz.Anonymous())
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			WriteError(c, apperr.Unauthenticated("invalid authorization header"))
			return
		}
		claims, err := a.Tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			a.Log.WithError(err).WithField("path", c.Request.URL.Path).Warn("token validation failed")
			WriteError(c, apperr.Unauthenticated("invalid or expired token"))
			return
		}
		userID, _ := claims.UserID()

		var user models.User
		err = a.DB.WithContext(c.Request.Context()).First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteError(c, apperr.Unauthenticated("unknown user"))
			return
		}
		if err != nil {
			WriteError(c, apperr.Internal("failed to load user", err))
			return
		}

		c.Set(principalKey, PrincipalFor(&user))
		c.Set(UserIDKey, user.ID)
		c.Next()
	}
}

// PrincipalFor maps a user row onto a principal: platform admins are Admin,
// every other account is Candidate.
func PrincipalFor(user *models.User) authz.Principal {
	if user.IsPlatformAdmin() {
		return authz.Admin(user.ID)
	}
	return authz.Candidate(user.ID)
}

// PrincipalFrom returns the caller resolved by Authenticator, or Anonymous.
func PrincipalFrom(c *gin.Context) authz.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(authz.Principal); ok {
			return p
		}
	}
	return authz.Anonymous()
}
