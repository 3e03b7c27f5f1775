package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"research-review-portal/helper"
	"research-review-portal/middleware"
	"research-review-portal/models"
	"research-review-portal/services"
)

type ArticleHandler struct {
	articleService services.ArticleService
	Helper         *helper.HTTPHelper
}

func NewArticleHandler(articleService services.ArticleService, h *helper.HTTPHelper) *ArticleHandler {
	return &ArticleHandler{articleService: articleService, Helper: h}
}

func (h *ArticleHandler) CreateArticle(c *gin.Context) {
	var req models.CreateArticleRequest
	if err := c.ShouldBindWith(&req, requestBinding(c)); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	upload, closeUpload, err := openUpload(req.File)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}
	defer closeUpload()

	article, err := h.articleService.CreateArticle(c.Request.Context(), middleware.ActorFrom(c), req, upload)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	h.Helper.SendCreated(c, "Article submitted", article)
}

func (h *ArticleHandler) GetArticles(c *gin.Context) {
	var params models.ArticleListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}
	params = params.Normalized()

	articles, total, err := h.articleService.ListArticles(c.Request.Context(), middleware.ActorFrom(c), params)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Articles loaded", gin.H{
		"articles":   articles,
		"pagination": h.Helper.GeneratePaging(c, params.Limit, params.Page, int(total)),
	})
}

func (h *ArticleHandler) GetArticle(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	article, err := h.articleService.GetArticle(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article loaded", article)
}

func (h *ArticleHandler) GetPublicArticle(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	article, err := h.articleService.GetPublicArticle(c.Request.Context(), id)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Article loaded", article)
}

func (h *ArticleHandler) GetFeatured(c *gin.Context) {
	articles, err := h.articleService.ListFeatured(c.Request.Context())
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Featured articles loaded", articles)
}

func (h *ArticleHandler) SetFeatured(c *gin.Context) {
	var req models.SetFeaturedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBindError(c, err)
		return
	}

	article, err := h.articleService.SetFeatured(c.Request.Context(), middleware.ActorFrom(c), req.ArticleID, *req.Featured)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Featured flag updated", article)
}

func (h *ArticleHandler) IncrementViews(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	article, err := h.articleService.IncrementViews(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "View recorded", article)
}

func (h *ArticleHandler) DownloadPDF(c *gin.Context) {
	r, err := h.articleService.OpenPDF(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.Helper.SendError(c, err)
		return
	}
	defer r.Close()

	c.Header("Content-Disposition", `inline; filename="`+c.Param("key")+`"`)
	c.DataFromReader(http.StatusOK, -1, "application/pdf", r, nil)
}

// requestBinding picks multipart or JSON binding from the request content type.
func requestBinding(c *gin.Context) binding.Binding {
	if strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		return binding.FormMultipart
	}
	return binding.JSON
}

// openUpload returns a nil upload when no file was sent.
func openUpload(file *multipart.FileHeader) (*models.Upload, func(), error) {
	if file == nil {
		return nil, func() {}, nil
	}
	f, err := file.Open()
	if err != nil {
		return nil, func() {}, models.NewValidationError("file", "could not be read")
	}
	upload := &models.Upload{Filename: file.Filename, Size: file.Size, Content: f}
	return upload, func() { _ = f.Close() }, nil
}

func pathID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewValidationError(name, "must be a positive integer")
	}
	return uint(id), nil
}
