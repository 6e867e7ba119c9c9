package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/repository"
	"storefront-backend/internal/service"
)

type ProductHandler struct {
	catalog service.CatalogUseCase
}

func NewProductHandler(catalog service.CatalogUseCase) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// GetAll returns the catalog as a JSON array.
func (h *ProductHandler) GetAll(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.List())
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	product, err := h.catalog.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, product)
}
