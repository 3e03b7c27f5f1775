package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"research-review-portal/middleware"
)

// Handlers groups every HTTP handler the API serves.
type Handlers struct {
	Articles *ArticleHandler
	Reviews  *ReviewHandler
	Users    *UserHandler
	Search   *SearchHandler
	Admin    *AdminHandler
}

type RouterOptions struct {
	Auth        *middleware.Authenticator
	ViewLimiter *middleware.RateLimiter
	// MaxUploadBytes caps request bodies on upload routes.
	MaxUploadBytes int64
}

// RegisterRoutes mounts the API under /api/v1.
func RegisterRoutes(router *gin.Engine, h Handlers, opts RouterOptions) {
	upload := limitBody(opts.MaxUploadBytes)

	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("/public")
		{
			public.GET("/articles/featured", h.Articles.GetFeatured)
			public.GET("/articles/:id", h.Articles.GetPublicArticle)
		}
		v1.GET("/files/:key", h.Articles.DownloadPDF)

		optional := v1.Group("/")
		optional.Use(opts.Auth.Optional())
		{
			optional.GET("/search", h.Search.Search)

			views := []gin.HandlerFunc{h.Articles.IncrementViews}
			if opts.ViewLimiter != nil {
				views = append([]gin.HandlerFunc{opts.ViewLimiter.Middleware()}, views...)
			}
			optional.POST("/articles/:id/views", views...)
		}

		// Protected routes
		protected := v1.Group("/")
		protected.Use(opts.Auth.Required())
		{
			protected.POST("/users/register", h.Users.Register)
			protected.GET("/profile", h.Users.GetProfile)
			protected.GET("/users/reviewers", h.Users.GetReviewers)
			protected.PUT("/users/:id/role", h.Users.ChangeRole)

			articles := protected.Group("/articles")
			{
				articles.POST("", upload, h.Articles.CreateArticle)
				articles.GET("", h.Articles.GetArticles)
				articles.PUT("/featured", h.Articles.SetFeatured)
				articles.GET("/:id", h.Articles.GetArticle)
				articles.POST("/:id/assign", h.Reviews.AssignReviewer)
				articles.POST("/:id/resubmit", upload, h.Reviews.Resubmit)
			}

			reviews := protected.Group("/reviews")
			{
				reviews.GET("/assigned", h.Reviews.GetAssignments)
				reviews.POST("/:articleId/submit", upload, h.Reviews.SubmitReview)
			}

			protected.POST("/delete", h.Admin.Delete)
		}
	}
}

// limitBody caps the request body before any handler parses it.
func limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
