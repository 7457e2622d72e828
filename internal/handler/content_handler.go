package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thrivesend/thrivesend-backend/internal/common"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/internal/middleware"
	"github.com/thrivesend/thrivesend-backend/internal/service"
)

// ContentHandler handles content lifecycle requests
type ContentHandler struct {
	service *service.ContentService
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(service *service.ContentService) *ContentHandler {
	return &ContentHandler{service: service}
}

// Create handles POST /api/v1/contents
func (h *ContentHandler) Create(c *gin.Context) {
	var req domain.CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := requestValidator.Struct(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Validation failed: "+err.Error(), err)
		return
	}

	content, err := h.service.Create(c.Request.Context(), middleware.GetExternalUserID(c), &req)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	c.JSON(http.StatusCreated, content)
}

// List handles GET /api/v1/contents?status=&page=&limit=
func (h *ContentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	contents, meta, err := h.service.List(c.Request.Context(), middleware.GetExternalUserID(c), c.Query("status"), page, limit)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.PagedResponse(c, contents, meta)
}

// Get handles GET /api/v1/contents/:id
func (h *ContentHandler) Get(c *gin.Context) {
	content, err := h.service.Get(c.Request.Context(), middleware.GetExternalUserID(c), c.Param("id"))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, content)
}

// Submit handles POST /api/v1/contents/:id/submit
func (h *ContentHandler) Submit(c *gin.Context) {
	approval, err := h.service.Submit(c.Request.Context(), middleware.GetExternalUserID(c), c.Param("id"))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, approval)
}

// Publish handles POST /api/v1/contents/:id/publish
func (h *ContentHandler) Publish(c *gin.Context) {
	content, err := h.service.Publish(c.Request.Context(), middleware.GetExternalUserID(c), c.Param("id"))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, content)
}
