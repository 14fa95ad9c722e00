package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/middleware"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

func principalFromContext(c *gin.Context) (models.Principal, error) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return models.Principal{}, appErrors.ErrUnauthorized
	}
	return claims.Principal(), nil
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter; absent yields 0.
func queryID(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

func requiredQueryID(c *gin.Context, name string) (int64, error) {
	id, err := queryID(c, name)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" is required")
	}
	return id, nil
}
