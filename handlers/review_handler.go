package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"research-review-portal/helper"
	"research-review-portal/middleware"
	"research-review-portal/models"
	"research-review-portal/services"
)

type ReviewHandler struct {
	reviewService services.ReviewService
	Helper        *helper.HTTPHelper
}

func NewReviewHandler(reviewService services.ReviewService, h *helper.HTTPHelper) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, Helper: h}
}

func (h *ReviewHandler) AssignReviewer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}
	var req models.AssignReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	article, err := h.reviewService.AssignReviewer(c.Request.Context(), middleware.ActorFrom(c), id, req.ReviewerID)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Reviewer assigned", article)
}

func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	id, err := pathID(c, "articleId")
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}
	var req models.SubmitReviewRequest
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	upload, closeUpload, err := openUpload(req.File)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}
	defer closeUpload()

	submission, err := h.reviewService.SubmitReview(c.Request.Context(), middleware.ActorFrom(c), id, req, upload)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Review submitted", submission)
}

func (h *ReviewHandler) Resubmit(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}
	var req models.ResubmitRequest
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	upload, closeUpload, err := openUpload(req.File)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}
	defer closeUpload()

	article, err := h.reviewService.Resubmit(c.Request.Context(), middleware.ActorFrom(c), id, req, upload)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article resubmitted", article)
}

func (h *ReviewHandler) GetAssignments(c *gin.Context) {
	pending := c.Query("pending") == "true"
	reviews, err := h.reviewService.ListAssignments(c.Request.Context(), middleware.ActorFrom(c), pending)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Assignments loaded", reviews)
}
