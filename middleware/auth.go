package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"research-review-portal/helper"
	"research-review-portal/models"
)

const actorKey = "actor"

// Claims are issued by the identity provider. Either user_id or sub names the user.
type Claims struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// RoleResolver looks up the stored role of an authenticated user.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) (models.UserRole, error)
}

type Authenticator struct {
	secret []byte
	roles  RoleResolver
	helper *helper.HTTPHelper
}

func NewAuthenticator(secret string, roles RoleResolver, h *helper.HTTPHelper) *Authenticator {
	return &Authenticator{secret: []byte(secret), roles: roles, helper: h}
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			a.helper.SendUnauthorizedError(c, "Authorization header required", a.helper.EmptyJsonMap())
			c.Abort()
			return
		}
		if !a.authenticate(c, authHeader) {
			return
		}
		c.Next()
	}
}

// Optional authenticates the caller when a token is present and lets
// anonymous requests through.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			if !a.authenticate(c, authHeader) {
				return
			}
		}
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context, authHeader string) bool {
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		a.helper.SendUnauthorizedError(c, "Bearer token required", a.helper.EmptyJsonMap())
		c.Abort()
		return false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		a.helper.SendUnauthorizedError(c, "Token is not valid", a.helper.EmptyJsonMap())
		c.Abort()
		return false
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		a.helper.SendUnauthorizedError(c, "Token carries no user", a.helper.EmptyJsonMap())
		c.Abort()
		return false
	}

	role, err := a.roles.ResolveRole(c.Request.Context(), userID)
	if err != nil {
		a.helper.SendError(c, err)
		c.Abort()
		return false
	}

	c.Set(actorKey, models.Actor{
		ID:            userID,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Role:          role,
	})
	return true
}

// ActorFrom returns the authenticated caller, or the zero Actor for anonymous requests.
func ActorFrom(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}

// SignToken issues an HS256 token for the dev and test tooling.
func SignToken(secret string, claims Claims) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
