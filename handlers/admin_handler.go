package handlers

import (
	"github.com/gin-gonic/gin"

	"research-review-portal/helper"
	"research-review-portal/middleware"
	"research-review-portal/models"
	"research-review-portal/services"
)

type AdminHandler struct {
	adminService services.AdminService
	Helper       *helper.HTTPHelper
}

func NewAdminHandler(adminService services.AdminService, h *helper.HTTPHelper) *AdminHandler {
	return &AdminHandler{adminService: adminService, Helper: h}
}

func (h *AdminHandler) Delete(c *gin.Context) {
	var req models.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	report, err := h.adminService.Delete(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		if report != nil {
			h.Helper.SendErrorWithData(c, err, report)
			return
		}
		h.Helper.SendError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Delete completed", report)
}
