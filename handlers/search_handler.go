package handlers

import (
	"github.com/gin-gonic/gin"

	"research-review-portal/helper"
	"research-review-portal/middleware"
	"research-review-portal/models"
	"research-review-portal/services"
)

type SearchHandler struct {
	searchService services.SearchService
	Helper        *helper.HTTPHelper
}

func NewSearchHandler(searchService services.SearchService, h *helper.HTTPHelper) *SearchHandler {
	return &SearchHandler{searchService: searchService, Helper: h}
}

func (h *SearchHandler) Search(c *gin.Context) {
	var params models.SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	result, err := h.searchService.Search(c.Request.Context(), middleware.ActorFrom(c), params)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Search results", gin.H{
		"results":    result.Articles,
		"pagination": h.Helper.GeneratePaging(c, result.PageSize, result.Page, int(result.Total)),
	})
}
