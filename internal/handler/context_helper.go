package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dedekind-labs/sua-api/internal/middleware"
	"github.com/dedekind-labs/sua-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext resolves the acting identity once per request.
func actorFromContext(c *gin.Context) models.ActorView {
	return models.ActorFromClaims(claimsFromContext(c))
}
