package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thrivesend/thrivesend-backend/internal/common"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/internal/middleware"
	"github.com/thrivesend/thrivesend-backend/internal/service"
)

// HistoryArchiver 승인 이력 보관 (service.ArchiveService)
type HistoryArchiver interface {
	ArchiveHistory(ctx context.Context, externalUserID, approvalID string) (*service.ArchiveResult, error)
}

// ApprovalHandler handles content approval requests
type ApprovalHandler struct {
	service  service.ApprovalService
	archiver HistoryArchiver
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(service service.ApprovalService, archiver HistoryArchiver) *ApprovalHandler {
	return &ApprovalHandler{service: service, archiver: archiver}
}

// List handles GET /api/v1/approvals?status=&page=&limit=
func (h *ApprovalHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	approvals, meta, err := h.service.List(c.Request.Context(), middleware.GetExternalUserID(c), c.Query("status"), page, limit)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.PagedResponse(c, approvals, meta)
}

// Approve handles POST /api/v1/approvals/:id/approve
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Reject handles POST /api/v1/approvals/:id/reject
func (h *ApprovalHandler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

// Resubmit handles POST /api/v1/approvals/:id/resubmit
func (h *ApprovalHandler) Resubmit(c *gin.Context) {
	h.transition(c, h.service.Resubmit)
}

type transitionFunc func(ctx context.Context, approvalID, externalUserID, comment string) (*domain.ApprovalResponse, error)

func (h *ApprovalHandler) transition(c *gin.Context, apply transitionFunc) {
	var req domain.TransitionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := requestValidator.Struct(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Comment is too long", err)
		return
	}

	approval, err := apply(c.Request.Context(), c.Param("id"), middleware.GetExternalUserID(c), req.Comment)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, approval)
}

// Assign handles POST /api/v1/approvals/:id/assign
func (h *ApprovalHandler) Assign(c *gin.Context) {
	var req domain.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := requestValidator.Struct(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "assigneeId is required", err)
		return
	}

	approval, err := h.service.Assign(c.Request.Context(), c.Param("id"), middleware.GetExternalUserID(c), req.AssigneeID)
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, approval)
}

// History handles GET /api/v1/approvals/:id/history
func (h *ApprovalHandler) History(c *gin.Context) {
	entries, err := h.service.History(c.Request.Context(), middleware.GetExternalUserID(c), c.Param("id"))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, entries)
}

// ArchiveHistory handles POST /api/v1/approvals/:id/history/archive
func (h *ApprovalHandler) ArchiveHistory(c *gin.Context) {
	if h.archiver == nil {
		common.ErrorFrom(c, common.ErrStorageDisabled)
		return
	}
	result, err := h.archiver.ArchiveHistory(c.Request.Context(), middleware.GetExternalUserID(c), c.Param("id"))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, result)
}

// CreateTest handles POST /api/v1/approvals/test (development only)
func (h *ApprovalHandler) CreateTest(c *gin.Context) {
	approval, err := h.service.CreateTestApproval(c.Request.Context(), middleware.GetExternalUserID(c))
	if err != nil {
		common.ErrorFrom(c, err)
		return
	}
	common.SuccessResponse(c, approval)
}
