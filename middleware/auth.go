package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	UserContextKey  = "userID"
	EmailContextKey = "email"
	RoleContextKey  = "role"
)

// AuthMiddleware verifies the bearer token and stores the caller's identity
// claims on the request context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := parseToken(tokenStr, key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		uid, _ := claims["uid"].(string)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}
		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)

		c.Set(UserContextKey, uid)
		c.Set(EmailContextKey, email)
		c.Set(RoleContextKey, role)
		c.Next()
	}
}

// AdminOnly requires an authenticated caller with the admin role. Must be
// mounted after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

func parseToken(tokenStr string, key []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func GetUserID(c *gin.Context) string {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

func GetEmail(c *gin.Context) string {
	if val, ok := c.Get(EmailContextKey); ok {
		if email, ok := val.(string); ok {
			return email
		}
	}
	return ""
}

func GetRole(c *gin.Context) string {
	if val, ok := c.Get(RoleContextKey); ok {
		if role, ok := val.(string); ok {
			return role
		}
	}
	return ""
}
