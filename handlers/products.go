package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mkitchen-fabworks/production_backend/models"
)

func RegisterProductRoutes(r gin.IRouter) {
	products := r.Group("/products")
	products.GET("", listProducts)
	products.POST("", createProduct)
	products.GET("/:id", getProduct)
	products.PUT("/:id", updateProduct)
	products.DELETE("/:id", deleteProduct)
	products.GET("/:id/bom", getProductBOM)
	products.POST("/:id/bom", addProductComponentEdge)
	products.DELETE("/bom/:id", removeProductComponentEdge)
}

func listProducts(c *gin.Context) {
	products, err := models.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func createProduct(c *gin.Context) {
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	product, err := models.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func getProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	product, err := models.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func updateProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	product, err := models.UpdateProduct(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func deleteProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	product, err := models.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func getProductBOM(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	lines, err := models.GetBOM(c.Request.Context(), "product", id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

func addProductComponentEdge(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewProductComponentEdge
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	edge, err := models.AddProductComponentEdge(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, edge)
}

func removeProductComponentEdge(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	edge, err := models.RemoveProductComponentEdge(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, edge)
}
