package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mkitchen-fabworks/production_backend/models"
)

func RegisterBuiltItemRoutes(r gin.IRouter) {
	items := r.Group("/built-items")
	items.GET("", listBuiltItems)
	items.POST("", createBuiltItem)
	items.GET("/:id", getBuiltItem)
	items.PUT("/:id", updateBuiltItem)
	items.DELETE("/:id", deleteBuiltItem)
	items.GET("/:id/bom", getBuiltItemBOM)
	items.POST("/:id/bom", addBuiltItemBOMEdge)
	items.DELETE("/bom/:id", removeBuiltItemBOMEdge)
	items.GET("/:id/movements", builtItemMovements)
}

func listBuiltItems(c *gin.Context) {
	items, err := models.ListBuiltItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func createBuiltItem(c *gin.Context) {
	var input models.NewBuiltItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	item, err := models.CreateBuiltItem(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func getBuiltItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := models.GetBuiltItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func updateBuiltItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewBuiltItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	item, err := models.UpdateBuiltItem(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func deleteBuiltItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := models.DeleteBuiltItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func getBuiltItemBOM(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	lines, err := models.GetBOM(c.Request.Context(), "built_item", id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

func addBuiltItemBOMEdge(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewBuiltItemBOMEdge
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	edge, err := models.AddBuiltItemBOMEdge(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, edge)
}

func removeBuiltItemBOMEdge(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	edge, err := models.RemoveBuiltItemBOMEdge(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, edge)
}

func builtItemMovements(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	movements, err := models.GetMovements(c.Request.Context(), models.TargetKindBuiltItem, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}
