package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mkitchen-fabworks/production_backend/models"
)

func RegisterStockItemRoutes(r gin.IRouter) {
	items := r.Group("/stock-items")
	items.GET("", listStockItems)
	items.POST("", createStockItem)
	items.GET("/:id", getStockItem)
	items.PUT("/:id", updateStockItem)
	items.DELETE("/:id", deleteStockItem)
	items.GET("/:id/movements", stockItemMovements)
}

func listStockItems(c *gin.Context) {
	items, err := models.ListStockItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func createStockItem(c *gin.Context) {
	var input models.NewStockItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	item, err := models.CreateStockItem(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func getStockItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := models.GetStockItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func updateStockItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewStockItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	item, err := models.UpdateStockItem(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func deleteStockItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := models.DeleteStockItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func stockItemMovements(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	movements, err := models.GetMovements(c.Request.Context(), models.TargetKindStockItem, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}
