package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mkitchen-fabworks/production_backend/config"
	"github.com/mkitchen-fabworks/production_backend/models"
	"github.com/mkitchen-fabworks/production_backend/utils"
)

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var cascadeErr *models.CascadeError

	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, utils.ErrorInvalidRecipeKind):
		status = http.StatusBadRequest
	case errors.Is(err, utils.ErrorEntityInUse):
		status = http.StatusConflict
	case errors.Is(err, utils.ErrorInsufficientStock):
		status = http.StatusConflict
	case errors.As(err, &cascadeErr):
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		logger := config.GetLogger()
		config.LogError(logger, "handlers", "respondError", c.FullPath(), nil, err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func respondBadRequest(c *gin.Context, err error) {
	if fields := utils.ProcessValidationErrors(err); len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
