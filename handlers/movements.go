package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mkitchen-fabworks/production_backend/models"
)

func RegisterMovementRoutes(r gin.IRouter) {
	r.POST("/movements", recordMovement)
}

// recordMovement is the single write entry point for the ledger. The
// response carries the written row plus any shortfall warnings; a warning
// does not fail the request.
func recordMovement(c *gin.Context) {
	var input models.NewMovement
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	if _, err := models.ParseTargetKind(string(input.TargetKind)); err != nil {
		respondBadRequest(c, err)
		return
	}
	if _, err := models.ParseMovementType(string(input.MovementType)); err != nil {
		respondBadRequest(c, err)
		return
	}

	movement, warnings, err := models.RecordMovement(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"movement": movement,
		"warnings": warnings,
	})
}
