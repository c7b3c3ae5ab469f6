package controllers

import (
	"errors"
	"net/http"

	"shop-service/models"
	"shop-service/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProductController serves the catalog. The catalog is a collaborator of the
// order flow, so the controller sits directly on the repository.
type ProductController struct {
	repo   repository.ProductRepository
	logger *zap.Logger
}

func NewProductController(repo repository.ProductRepository, logger *zap.Logger) *ProductController {
	return &ProductController{repo: repo, logger: logger}
}

// ListProducts returns the full catalog, newest first.
func (pc *ProductController) ListProducts(c *gin.Context) {
	products, err := pc.repo.FindAll(c.Request.Context())
	if err != nil {
		pc.logger.Error("Failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// ListActiveProducts returns only products currently on sale.
func (pc *ProductController) ListActiveProducts(c *gin.Context) {
	products, err := pc.repo.FindActive(c.Request.Context())
	if err != nil {
		pc.logger.Error("Failed to list active products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	product, err := pc.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		pc.logger.Error("Failed to fetch product", zap.String("product_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateProduct adds a catalog entry (admin only). Image files are stored
// elsewhere; the product carries their URLs.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req struct {
		Name        string   `json:"name" binding:"required"`
		Description string   `json:"description" binding:"required"`
		Price       int      `json:"price" binding:"required,min=1"`
		Homepage    string   `json:"homepage" binding:"required"`
		Gallery     []string `json:"gallery"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing product name, description, price or image"})
		return
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Homepage:    req.Homepage,
		Gallery:     req.Gallery,
		Status:      models.ProductStatusActive,
	}
	if err := pc.repo.Create(c.Request.Context(), product); err != nil {
		pc.logger.Error("Failed to create product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	pc.respondWithCatalog(c)
}

// DeleteProduct removes a catalog entry (admin only).
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if err := pc.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		pc.logger.Error("Failed to delete product", zap.String("product_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	pc.respondWithCatalog(c)
}

// UpdateProductStatus toggles a product between active and inactive (admin only).
func (pc *ProductController) UpdateProductStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil ||
		(req.Status != models.ProductStatusActive && req.Status != models.ProductStatusInactive) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be active or inactive"})
		return
	}

	if err := pc.repo.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		pc.logger.Error("Failed to update product status", zap.String("product_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product status"})
		return
	}
	pc.respondWithCatalog(c)
}

// respondWithCatalog mirrors the mutation endpoints' contract of returning
// the refreshed product list so clients re-render without a second fetch.
func (pc *ProductController) respondWithCatalog(c *gin.Context) {
	products, err := pc.repo.FindAll(c.Request.Context())
	if err != nil {
		pc.logger.Error("Failed to reload catalog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}
