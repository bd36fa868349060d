package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mkitchen-fabworks/production_backend/models"
	"github.com/mkitchen-fabworks/production_backend/reports"
	"github.com/shopspring/decimal"
)

func RegisterCostRoutes(r gin.IRouter) {
	r.POST("/recompute/:kind/:id", recomputeCost)
	r.POST("/reconcile", reconcileCosts)
	r.GET("/reconcile/stale", staleCount)
	r.GET("/settings/labour-rate", getLabourRate)
	r.PUT("/settings/labour-rate", setLabourRate)
	r.GET("/low-stock", lowStock)
	r.GET("/low-stock/export", exportLowStock)
}

func recomputeCost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	entity, err := models.RecomputeEntityCost(c.Request.Context(), c.Param("kind"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func reconcileCosts(c *gin.Context) {
	if err := models.ReconcileCosts(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reconciled"})
}

func staleCount(c *gin.Context) {
	count, err := models.StaleCostCount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stale": count})
}

func getLabourRate(c *gin.Context) {
	rate, err := models.GetLabourRate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"labour_rate_gbp": rate})
}

type labourRateInput struct {
	LabourRateGbp decimal.Decimal `json:"labour_rate_gbp"`
}

// setLabourRate triggers a full recompute of every component, built item,
// and product; the rate is a global multiplier.
func setLabourRate(c *gin.Context) {
	var input labourRateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := models.SetLabourRate(c.Request.Context(), input.LabourRateGbp); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"labour_rate_gbp": input.LabourRateGbp})
}

func lowStock(c *gin.Context) {
	ctx := c.Request.Context()
	kind := c.Query("kind")
	if kind == "" {
		entries, err := models.GetAllLowStock(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
		return
	}

	parsed, err := models.ParseTargetKind(kind)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	entries, err := models.GetLowStock(ctx, parsed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func exportLowStock(c *gin.Context) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=low-stock.xlsx")
	if err := reports.WriteLowStockExcel(c.Request.Context(), c.Writer); err != nil {
		respondError(c, err)
	}
}
