// Package auth verifies bearer tokens and decides which roles may use the
// unscoped operation variants. Token verification yields a model.User; the
// role gate is a pure predicate on that user's role.
package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gitlab.com/artem.naboka/contacts-directory/internal/model"
)

// userKey is the gin context key under which RequireAuth stores the caller.
const userKey = "currentUser"

// CanAccessAll reports whether a role may invoke the unscoped list and delete
// operations. Ordinary users are restricted to their own contacts.
func CanAccessAll(role model.Role) bool {
	return role == model.RoleModerator || role == model.RoleAdmin
}

// Claims is the JWT payload of an access token: the registered claims with
// the user id in the subject, plus the user's role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Sign issues an HS256 access token for the given user, valid for ttl.
func Sign(secret string, user model.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.Id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse verifies an access token and returns the user it identifies.
func Parse(secret string, tokenString string) (model.User, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return model.User{}, fmt.Errorf("parse access token: %w", err)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id < 1 {
		return model.User{}, fmt.Errorf("invalid subject %q in access token", claims.Subject)
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return model.User{}, fmt.Errorf("invalid access token: %w", err)
	}
	return model.User{Id: id, Role: role}, nil
}

// RequireAuth returns a middleware that rejects requests without a valid
// bearer token and stores the authenticated user in the gin context.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid token"})
			return
		}
		user, err := Parse(secret, header[7:])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid token"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireUnscoped returns a middleware that only lets through callers whose
// role passes CanAccessAll. It must run after RequireAuth.
func RequireUnscoped() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CanAccessAll(CurrentUser(c).Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller stored by RequireAuth. It
// panics when called on a route that is not behind RequireAuth, which is a
// wiring bug rather than a runtime condition.
func CurrentUser(c *gin.Context) model.User {
	return c.MustGet(userKey).(model.User)
}
