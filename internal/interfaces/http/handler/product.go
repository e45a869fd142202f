package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopline/backend/internal/application/catalog"
	"github.com/shopline/backend/internal/interfaces/http/dto"
	"github.com/shopline/backend/internal/interfaces/http/middleware"
)

// ProductHandler serves the public catalog and its admin management
type ProductHandler struct {
	BaseHandler
	productService *catalog.ProductService
	imageService   *catalog.ImageService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *catalog.ProductService, imageService *catalog.ImageService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		BaseHandler:    newBaseHandler(logger),
		productService: productService,
		imageService:   imageService,
	}
}

// List godoc
// @ID           listProducts
// @Summary      List products
// @Description  Active products only. Search matches name, description and category.
// @Tags         products
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(8)
// @Param        search    query string false "Search text"
// @Param        category  query string false "Category; 'all' disables the filter"
// @Param        ordering  query string false "price, -price, created_at, -created_at, name, -name"
// @Success      200 {object} shared.Paginated[catalog.ProductResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalog.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get godoc
// @ID           getProduct
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} catalog.ProductResponse
// @Failure      404 {object} dto.ErrorResponse
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// AdminList godoc
// @ID           adminListProducts
// @Summary      List all products
// @Description  Includes deactivated products
// @Tags         admin-products
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(8)
// @Param        search    query string false "Search text"
// @Param        category  query string false "Category"
// @Param        ordering  query string false "Ordering"
// @Success      200 {object} shared.Paginated[catalog.ProductResponse]
// @Failure      403 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products [get]
func (h *ProductHandler) AdminList(c *gin.Context) {
	var filter catalog.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.productService.AdminList(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// AdminGet godoc
// @ID           adminGetProduct
// @Summary      Get any product
// @Tags         admin-products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} catalog.ProductResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products/{id} [get]
func (h *ProductHandler) AdminGet(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.AdminGet(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Create godoc
// @ID           adminCreateProduct
// @Summary      Create a product
// @Tags         admin-products
// @Accept       json
// @Produce      json
// @Param        request body catalog.CreateProductRequest true "Product"
// @Success      201 {object} catalog.ProductResponse
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalog.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// Update godoc
// @ID           adminUpdateProduct
// @Summary      Update a product
// @Description  Only the fields present in the body are changed
// @Tags         admin-products
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Product ID" format(uuid)
// @Param        request body catalog.UpdateProductRequest true "Changes"
// @Success      200 {object} catalog.ProductResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products/{id} [patch]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalog.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Delete godoc
// @ID           adminDeleteProduct
// @Summary      Deactivate a product
// @Description  Products are never removed because orders reference them
// @Tags         admin-products
// @Param        id path string true "Product ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustStock godoc
// @ID           adminAdjustStock
// @Summary      Adjust stock
// @Description  Adds a positive delta or removes a negative one; stock never goes below zero
// @Tags         admin-products
// @Accept       json
// @Produce      json
// @Param        id      path string                     true "Product ID" format(uuid)
// @Param        request body catalog.AdjustStockRequest true "Delta"
// @Success      200 {object} catalog.ProductResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products/{id}/stock [post]
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalog.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.productService.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// InitiateImageUpload godoc
// @ID           adminInitiateImageUpload
// @Summary      Request an image upload URL
// @Description  Returns a presigned PUT URL; call the confirm endpoint once the upload finished
// @Tags         admin-products
// @Accept       json
// @Produce      json
// @Param        id      path string                             true "Product ID" format(uuid)
// @Param        request body catalog.InitiateImageUploadRequest true "File"
// @Success      201 {object} catalog.InitiateImageUploadResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      503 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products/{id}/images [post]
func (h *ProductHandler) InitiateImageUpload(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalog.InitiateImageUploadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	upload, err := h.imageService.InitiateUpload(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, upload)
}

// ConfirmImageUpload godoc
// @ID           adminConfirmImageUpload
// @Summary      Attach an uploaded image
// @Tags         admin-products
// @Accept       json
// @Produce      json
// @Param        id      path string                  true "Product ID" format(uuid)
// @Param        request body catalog.ImageKeyRequest true "Storage key"
// @Success      200 {object} catalog.ProductResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products/{id}/images/confirm [post]
func (h *ProductHandler) ConfirmImageUpload(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalog.ImageKeyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.imageService.ConfirmUpload(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// RemoveImage godoc
// @ID           adminRemoveImage
// @Summary      Remove a product image
// @Tags         admin-products
// @Produce      json
// @Param        id          path  string true "Product ID" format(uuid)
// @Param        storage_key query string true "Storage key of the image"
// @Success      200 {object} catalog.ProductResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products/{id}/images [delete]
func (h *ProductHandler) RemoveImage(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	key := c.Query("storage_key")
	if key == "" {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", middleware.GetRequestID(c),
			[]dto.ValidationDetail{{Field: "storage_key", Message: "This field is required"}}))
		return
	}
	product, err := h.imageService.RemoveImage(c.Request.Context(), id, catalog.ImageKeyRequest{StorageKey: key})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
