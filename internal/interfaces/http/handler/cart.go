package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopline/backend/internal/application/cart"
	"github.com/shopline/backend/internal/application/catalog"
	"github.com/shopline/backend/internal/interfaces/http/dto"
)

// CartHandler serves the caller's cart
type CartHandler struct {
	BaseHandler
	cartService *cart.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, logger *zap.Logger) *CartHandler {
	return &CartHandler{BaseHandler: newBaseHandler(logger), cartService: cartService}
}

// List godoc
// @ID           listCart
// @Summary      Get the cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} cart.CartResponse
// @Failure      401 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /cart [get]
func (h *CartHandler) List(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	result, err := h.cartService.List(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Add godoc
// @ID           addCartItem
// @Summary      Add a product to the cart
// @Description  Adding a product already in the cart raises its quantity, up to 5
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cart.AddItemRequest true "Product and quantity"
// @Success      201 {object} cart.ItemResponse "new line"
// @Success      200 {object} cart.ItemResponse "existing line updated"
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /cart [post]
func (h *CartHandler) Add(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req cart.AddItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, created, err := h.cartService.Add(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(createdOrOK(created), item)
}

// Update godoc
// @ID           updateCartItem
// @Summary      Set a cart line's quantity
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Cart item ID" format(uuid)
// @Param        request body cart.UpdateItemRequest true "Quantity"
// @Success      200 {object} cart.ItemResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /cart/{id} [put]
func (h *CartHandler) Update(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req cart.UpdateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.cartService.UpdateQuantity(c.Request.Context(), userID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Remove godoc
// @ID           removeCartItem
// @Summary      Remove a cart line
// @Tags         cart
// @Produce      json
// @Param        id path string true "Cart item ID" format(uuid)
// @Success      200 {object} dto.MessageResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /cart/{id} [delete]
func (h *CartHandler) Remove(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.cartService.Remove(c.Request.Context(), userID, itemID); err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Item removed"})
}

// WishlistHandler serves the caller's wishlist
type WishlistHandler struct {
	BaseHandler
	wishlistService *catalog.WishlistService
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(wishlistService *catalog.WishlistService, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{BaseHandler: newBaseHandler(logger), wishlistService: wishlistService}
}

// List godoc
// @ID           listWishlist
// @Summary      Get the wishlist
// @Tags         wishlist
// @Produce      json
// @Success      200 {array} catalog.WishlistItemResponse
// @Failure      401 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /wishlist [get]
func (h *WishlistHandler) List(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	items, err := h.wishlistService.List(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Add godoc
// @ID           addWishlistItem
// @Summary      Add a product to the wishlist
// @Description  Adding a product twice returns the existing entry
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Param        request body catalog.AddWishlistRequest true "Product"
// @Success      201 {object} catalog.WishlistItemResponse
// @Success      200 {object} catalog.WishlistItemResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /wishlist [post]
func (h *WishlistHandler) Add(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req catalog.AddWishlistRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, created, err := h.wishlistService.Add(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(createdOrOK(created), item)
}

// Remove godoc
// @ID           removeWishlistItem
// @Summary      Remove a wishlist entry
// @Tags         wishlist
// @Produce      json
// @Param        id path string true "Wishlist item ID" format(uuid)
// @Success      200 {object} dto.MessageResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /wishlist/{id} [delete]
func (h *WishlistHandler) Remove(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.wishlistService.Remove(c.Request.Context(), userID, itemID); err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Item removed"})
}

func createdOrOK(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
