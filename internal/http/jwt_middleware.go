package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"support-bot/internal/service"
)

const authClaimsKey = "auth_claims"

// JWTAuthMiddleware exige un access token valido y guarda claims en el
// contexto. Se usa en la superficie administrativa.
func JWTAuthMiddleware(jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
			c.Abort()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// JWTAuthOptional adjunta claims cuando hay un bearer token valido, pero
// nunca rechaza el request. Tokens invalidos se ignoran: el chat funciona
// igual para usuarios anonimos.
func JWTAuthOptional(jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil {
			c.Next()
			return
		}
		if token, ok := bearerToken(c); ok {
			if claims, err := jwtSvc.ParseAccessToken(token); err == nil {
				c.Set(authClaimsKey, claims)
			}
		}
		c.Next()
	}
}

// GetAuthClaims obtiene claims de JWT desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", false
	}
	return strings.TrimSpace(header[len("Bearer "):]), true
}
