package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sistema-ministerial-api/internal/middleware"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	appErrors "github.com/noah-isme/sistema-ministerial-api/pkg/errors"
	"github.com/noah-isme/sistema-ministerial-api/pkg/response"
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

// congregationFromContext returns the caller's congregation. Every data route is
// scoped to it, so a token without one is rejected.
func congregationFromContext(c *gin.Context) (*models.JWTClaims, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.CongregationID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token has no congregation")
	}
	return claims, nil
}

func weekParam(c *gin.Context) (models.Week, error) {
	week, err := models.ParseWeek(c.Param("week"))
	if err != nil {
		return models.Week{}, appErrors.Clone(appErrors.ErrValidation, "week must be a date in YYYY-MM-DD format")
	}
	return week, nil
}

// weekScope resolves the caller and the :week path param, writing the error
// response itself when either is missing.
func weekScope(c *gin.Context) (*models.JWTClaims, models.Week, bool) {
	claims, err := congregationFromContext(c)
	if err != nil {
		response.Error(c, err)
		return nil, models.Week{}, false
	}
	week, err := weekParam(c)
	if err != nil {
		response.Error(c, err)
		return nil, models.Week{}, false
	}
	return claims, week, true
}
