package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"research-review-portal/config"
	"research-review-portal/helper"
	"research-review-portal/middleware"
	"research-review-portal/models"
	"research-review-portal/notify"
	"research-review-portal/repositories"
	"research-review-portal/services"
	"research-review-portal/storage"
)

const testSecret = "integration-secret"

type envelope[T any] struct {
	Code        int             `json:"code"`
	CodeMessage json.RawMessage `json:"code_message"`
	CodeType    string          `json:"code_type"`
	Data        T               `json:"data"`
}

type IntegrationTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	tokens map[models.UserRole]string
}

func (suite *IntegrationTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := config.OpenDB(config.DriverSQLite, ":memory:?_pragma=foreign_keys(1)")
	suite.Require().NoError(err)
	suite.db = db

	blobs, err := storage.NewFileSystem(suite.T().TempDir(), "/api/v1/files")
	suite.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := services.Dependencies{
		Tx:                      repositories.NewTransactor(db),
		Users:                   repositories.NewUserRepository(db),
		Articles:                repositories.NewArticleRepository(db),
		Reviews:                 repositories.NewReviewRepository(db),
		Blobs:                   blobs,
		Notifier:                notify.NewLogNotifier(logger),
		Logger:                  logger,
		Async:                   func(f func()) { f() },
		AllowPlaceholderAuthors: true,
		SearchPageSize:          9,
	}

	h := helper.NewHTTPHelper()
	userService := services.NewUserService(deps)

	suite.router = gin.New()
	RegisterRoutes(suite.router, Handlers{
		Articles: NewArticleHandler(services.NewArticleService(deps), h),
		Reviews:  NewReviewHandler(services.NewReviewService(deps), h),
		Users:    NewUserHandler(userService, h),
		Search:   NewSearchHandler(services.NewSearchService(deps), h),
		Admin:    NewAdminHandler(services.NewAdminService(deps), h),
	}, RouterOptions{
		Auth:           middleware.NewAuthenticator(testSecret, userService, h),
		ViewLimiter:    middleware.NewPerMinuteLimiter(1000, h),
		MaxUploadBytes: 1 << 20,
	})

	suite.tokens = map[models.UserRole]string{}
	for _, role := range []models.UserRole{models.RoleAuthor, models.RoleEditor, models.RoleReviewer, models.RoleAdmin} {
		suite.tokens[role] = suite.registerTestUser(role)
	}
}

func (suite *IntegrationTestSuite) TearDownTest() {
	_ = config.CloseDB(suite.db)
}

func userID(role models.UserRole) string {
	return "user-" + string(role)
}

// registerTestUser registers a user through the API and promotes it to role.
func (suite *IntegrationTestSuite) registerTestUser(role models.UserRole) string {
	id := userID(role)
	token, err := middleware.SignToken(testSecret, middleware.Claims{
		UserID:        id,
		Email:         id + "@uni.edu",
		EmailVerified: true,
	})
	suite.Require().NoError(err)

	w := suite.doJSON(http.MethodPost, "/api/v1/users/register", token, models.RegisterRequest{
		FirstName: "Test",
		LastName:  string(role),
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	if role != models.RoleAuthor {
		suite.Require().NoError(suite.db.Model(&models.User{}).Where("id = ?", id).Update("role", string(role)).Error)
	}
	return token
}

func (suite *IntegrationTestSuite) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *IntegrationTestSuite) doJSON(method, path, token string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		suite.Require().NoError(err)
		body = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return suite.do(req, token)
}

func (suite *IntegrationTestSuite) doMultipart(path, token string, fields map[string]string, file []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		suite.Require().NoError(writer.WriteField(k, v))
	}
	if file != nil {
		part, err := writer.CreateFormFile("file", "paper.pdf")
		suite.Require().NoError(err)
		_, err = part.Write(file)
		suite.Require().NoError(err)
	}
	suite.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return suite.do(req, token)
}

func decode[T any](suite *IntegrationTestSuite, w *httptest.ResponseRecorder) envelope[T] {
	var resp envelope[T]
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func pdfBytes(body string) []byte {
	return []byte("%PDF-1.4\n" + body)
}

func (suite *IntegrationTestSuite) createArticle(title string) models.Article {
	w := suite.doMultipart("/api/v1/articles", suite.tokens[models.RoleAuthor], map[string]string{
		"title":    title,
		"type":     "Paper",
		"keywords": "optics, lasers",
	}, pdfBytes(title))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Article](suite, w).Data
}

func (suite *IntegrationTestSuite) TestGetProfile() {
	w := suite.doJSON(http.MethodGet, "/api/v1/profile", suite.tokens[models.RoleEditor], nil)
	suite.Equal(http.StatusOK, w.Code)

	user := decode[models.User](suite, w).Data
	suite.Equal(userID(models.RoleEditor), user.ID)
	suite.Equal(models.RoleEditor, user.Role)

	w = suite.doJSON(http.MethodGet, "/api/v1/profile", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *IntegrationTestSuite) TestReviewWorkflow() {
	author := suite.tokens[models.RoleAuthor]
	editor := suite.tokens[models.RoleEditor]
	reviewer := suite.tokens[models.RoleReviewer]

	article := suite.createArticle("Photonic Crystals")
	suite.Equal(models.StatusSent, article.Status)
	suite.Equal([]string{"optics", "lasers"}, article.KeywordList())

	// Not yet visible to the public.
	w := suite.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/public/articles/%d", article.ID), "", nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/articles/%d/assign", article.ID), author,
		models.AssignReviewerRequest{ReviewerID: userID(models.RoleReviewer)})
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal("forbidden", decode[any](suite, w).CodeType)

	w = suite.doJSON(http.MethodPost, fmt.Sprintf("/api/v1/articles/%d/assign", article.ID), editor,
		models.AssignReviewerRequest{ReviewerID: userID(models.RoleReviewer)})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.doJSON(http.MethodGet, "/api/v1/reviews/assigned", reviewer, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Len(decode[[]models.Review](suite, w).Data, 1)

	w = suite.doMultipart(fmt.Sprintf("/api/v1/reviews/%d/submit", article.ID), reviewer, map[string]string{
		"reviewerId": userID(models.RoleReviewer),
		"comments":   "Clarify the bandgap figure.",
		"status":     "Reviewed",
	}, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	submission := decode[models.ReviewSubmission](suite, w).Data
	suite.Equal(models.StatusReviewed, submission.Article.Status)

	w = suite.doMultipart(fmt.Sprintf("/api/v1/articles/%d/resubmit", article.ID), author, map[string]string{
		"status": "Under_Review",
	}, pdfBytes("revised"))
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Equal(models.StatusUnderReview, decode[models.Article](suite, w).Data.Status)

	w = suite.doMultipart(fmt.Sprintf("/api/v1/reviews/%d/submit", article.ID), reviewer, map[string]string{
		"reviewerId": userID(models.RoleReviewer),
		"status":     "Approved",
	}, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/public/articles/%d", article.ID), "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	public := decode[models.Article](suite, w).Data
	suite.Equal("Photonic Crystals", public.Title)

	w = suite.doJSON(http.MethodGet, "/api/v1/search?search=photonic", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	results := decode[struct {
		Results    []models.Article `json:"results"`
		Pagination map[string]any   `json:"pagination"`
	}](suite, w).Data
	suite.Len(results.Results, 1)
	suite.EqualValues(1, results.Pagination["total_records"])

	req := httptest.NewRequest(http.MethodGet, public.PDFURL, nil)
	w = suite.do(req, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("application/pdf", w.Header().Get("Content-Type"))
	suite.True(bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func (suite *IntegrationTestSuite) TestCreateArticleRejectsNonPDF() {
	w := suite.doMultipart("/api/v1/articles", suite.tokens[models.RoleAuthor], map[string]string{
		"title": "Plain",
		"type":  "Article",
	}, []byte("just text"))
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("validation", decode[any](suite, w).CodeType)

	w = suite.doMultipart("/api/v1/articles", suite.tokens[models.RoleAuthor], map[string]string{
		"title": "Unknown type",
		"type":  "Thesis",
	}, pdfBytes("x"))
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *IntegrationTestSuite) TestUploadSizeLimit() {
	w := suite.doMultipart("/api/v1/articles", suite.tokens[models.RoleAuthor], map[string]string{
		"title": "Huge",
		"type":  "Article",
	}, pdfBytes(string(bytes.Repeat([]byte("a"), 2<<20))))
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *IntegrationTestSuite) TestFeaturedCap() {
	editor := suite.tokens[models.RoleEditor]
	featured := true

	for i := 0; i < models.MaxFeatured; i++ {
		article := suite.createArticle(fmt.Sprintf("Featured %d", i))
		w := suite.doJSON(http.MethodPut, "/api/v1/articles/featured", editor,
			models.SetFeaturedRequest{ArticleID: article.ID, Featured: &featured})
		suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	}

	extra := suite.createArticle("One too many")
	w := suite.doJSON(http.MethodPut, "/api/v1/articles/featured", editor,
		models.SetFeaturedRequest{ArticleID: extra.ID, Featured: &featured})
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("conflict", decode[any](suite, w).CodeType)

	w = suite.doJSON(http.MethodPut, "/api/v1/articles/featured", editor, map[string]any{"articleId": extra.ID})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.doJSON(http.MethodGet, "/api/v1/public/articles/featured", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Len(decode[[]models.Article](suite, w).Data, models.MaxFeatured)
}

func (suite *IntegrationTestSuite) TestViews() {
	article := suite.createArticle("Counted")
	path := fmt.Sprintf("/api/v1/articles/%d/views", article.ID)

	w := suite.doJSON(http.MethodPost, path, "", nil)
	suite.Equal(http.StatusNotFound, w.Code)

	for i := 1; i <= 3; i++ {
		w = suite.doJSON(http.MethodPost, path, suite.tokens[models.RoleAuthor], nil)
		suite.Require().Equal(http.StatusOK, w.Code)
		suite.EqualValues(i, decode[models.Article](suite, w).Data.Views)
	}
}

func (suite *IntegrationTestSuite) TestDownloadPDF() {
	article := suite.createArticle("Streamed")
	suite.Require().Equal("/api/v1/files/"+article.PDFPath, article.PDFURL)

	w := suite.doJSON(http.MethodGet, article.PDFURL, "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("application/pdf", w.Header().Get("Content-Type"))
	suite.Equal(pdfBytes("Streamed"), w.Body.Bytes())

	w = suite.doJSON(http.MethodGet, "/api/v1/files/missing", "", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *IntegrationTestSuite) TestListArticlesClampsLimit() {
	suite.createArticle("Listed")

	w := suite.doJSON(http.MethodGet, "/api/v1/articles?limit=1000", suite.tokens[models.RoleEditor], nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	type listing struct {
		Articles   []models.Article `json:"articles"`
		Pagination struct {
			PerPage    int `json:"per_page"`
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}
	data := decode[listing](suite, w).Data
	suite.Len(data.Articles, 1)
	suite.Equal(models.MaxListLimit, data.Pagination.PerPage)
	suite.Equal(1, data.Pagination.TotalPages)
}

func (suite *IntegrationTestSuite) TestSearchValidation() {
	w := suite.doJSON(http.MethodGet, "/api/v1/search?year=24", "", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.doJSON(http.MethodGet, "/api/v1/search?status=Sent", "", nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.doJSON(http.MethodGet, "/api/v1/search?status=Sent", suite.tokens[models.RoleEditor], nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *IntegrationTestSuite) TestDelete() {
	admin := suite.tokens[models.RoleAdmin]
	article := suite.createArticle("Doomed")

	w := suite.doJSON(http.MethodPost, "/api/v1/delete", suite.tokens[models.RoleEditor],
		models.DeleteRequest{ArticleIDs: []uint{article.ID}})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.doJSON(http.MethodPost, "/api/v1/delete", admin, models.DeleteRequest{Emails: []string{"not-an-email"}})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.doJSON(http.MethodPost, "/api/v1/delete", admin,
		models.DeleteRequest{ArticleIDs: []uint{article.ID, 4242}})
	suite.Equal(http.StatusNotFound, w.Code)
	resp := decode[models.DeleteReport](suite, w)
	suite.Equal(string(models.KindNotFound), resp.CodeType)
	report := resp.Data
	suite.Equal([]uint{article.ID}, report.DeletedArticleIDs)
	suite.Len(report.Failures, 1)

	w = suite.doJSON(http.MethodPost, "/api/v1/delete", admin, models.DeleteRequest{
		Emails:             []string{userID(models.RoleAuthor) + "@uni.edu"},
		DeleteUserArticles: true,
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Equal([]string{userID(models.RoleAuthor)}, decode[models.DeleteReport](suite, w).Data.DeletedUserIDs)
}

func (suite *IntegrationTestSuite) TestChangeRole() {
	w := suite.doJSON(http.MethodPut, "/api/v1/users/"+userID(models.RoleAuthor)+"/role", suite.tokens[models.RoleEditor],
		models.ChangeRoleRequest{Role: models.RoleAdmin})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.doJSON(http.MethodPut, "/api/v1/users/"+userID(models.RoleAuthor)+"/role", suite.tokens[models.RoleAdmin],
		models.ChangeRoleRequest{Role: models.RoleReviewer})
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.doJSON(http.MethodGet, "/api/v1/users/reviewers", suite.tokens[models.RoleEditor], nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Len(decode[[]models.User](suite, w).Data, 2)
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
