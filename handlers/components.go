package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mkitchen-fabworks/production_backend/models"
)

func RegisterComponentRoutes(r gin.IRouter) {
	components := r.Group("/components")
	components.GET("", listComponents)
	components.POST("", createComponent)
	components.GET("/:id", getComponent)
	components.PUT("/:id", updateComponent)
	components.DELETE("/:id", deleteComponent)
	components.GET("/:id/bom", getComponentBOM)
	components.POST("/:id/bom", addComponentBOMEdge)
	components.DELETE("/bom/:id", removeComponentBOMEdge)
	components.GET("/:id/movements", componentMovements)
}

func listComponents(c *gin.Context) {
	components, err := models.ListComponents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, components)
}

func createComponent(c *gin.Context) {
	var input models.NewComponent
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	component, err := models.CreateComponent(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, component)
}

func getComponent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	component, err := models.GetComponent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, component)
}

func updateComponent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewComponent
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	component, err := models.UpdateComponent(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, component)
}

func deleteComponent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	component, err := models.DeleteComponent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, component)
}

func getComponentBOM(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	lines, err := models.GetBOM(c.Request.Context(), "component", id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

func addComponentBOMEdge(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewComponentBOMEdge
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	edge, err := models.AddComponentBOMEdge(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, edge)
}

func removeComponentBOMEdge(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	edge, err := models.RemoveComponentBOMEdge(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, edge)
}

func componentMovements(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	movements, err := models.GetMovements(c.Request.Context(), models.TargetKindComponent, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}
