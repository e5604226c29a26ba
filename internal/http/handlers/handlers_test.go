package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/repository"
	"github.com/lingora/lingora-backend/internal/service"
)

func withUser(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("role", role)
		c.Next()
	}
}

func serve(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProviderHandler_GetMy_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ProviderHandler{providers: nil}
	r.GET("/providers/my", handler.GetMy)

	w := serve(r, http.MethodGet, "/providers/my", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProviderHandler_UpdateStatus_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ProviderHandler{providers: nil}
	r.PUT("/providers/status/:id", handler.UpdateStatus)

	w := serve(r, http.MethodPut, "/providers/status/invalid-uuid", []byte(`{"status":"approved"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProviderHandler_UpdateMy_InvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withUser(uuid.New(), models.RoleProvider))
	handler := &ProviderHandler{providers: nil}
	r.PUT("/providers/my", handler.UpdateMy)

	w := serve(r, http.MethodPut, "/providers/my", []byte(`{"business_name":`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProviderHandler_Upload_MissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withUser(uuid.New(), models.RoleProvider))
	handler := NewProviderHandler(nil, 5)
	r.POST("/providers/upload", handler.Upload)

	w := serve(r, http.MethodPost, "/providers/upload", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProviderHandler_DeleteGalleryImage_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withUser(uuid.New(), models.RoleProvider))
	handler := &ProviderHandler{providers: nil}
	r.DELETE("/providers/gallery/:imageId", handler.DeleteGalleryImage)

	w := serve(r, http.MethodDelete, "/providers/gallery/nope", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOfferingHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &OfferingHandler{offerings: nil}
	r.POST("/services", handler.Create)

	w := serve(r, http.MethodPost, "/services", []byte(`{}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOfferingHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withUser(uuid.New(), models.RoleProvider))
	handler := &OfferingHandler{offerings: nil}
	r.GET("/services/:id", handler.Get)

	w := serve(r, http.MethodGet, "/services/invalid-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaffHandler_ListContactable_InvalidProviderID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &StaffHandler{staff: nil}
	r.GET("/staff/contactable/:providerId", handler.ListContactable)

	w := serve(r, http.MethodGet, "/staff/contactable/abc", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaffHandler_UpdateContactConfig_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &StaffHandler{staff: nil}
	r.PUT("/staff/contact-config/:id", handler.UpdateContactConfig)

	w := serve(r, http.MethodPut, "/staff/contact-config/"+uuid.NewString(), []byte(`{}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSearchHandler_Search_InvalidCoordinates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &SearchHandler{search: nil}
	r.GET("/search", handler.Search)

	for _, q := range []string{"radius=far", "lat=north", "lat=52.1&lng=east"} {
		w := serve(r, http.MethodGet, "/search?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"nl", "en"}, splitList(" nl, ,en ,"))
}

func TestSupportHandler_Statistics_InvalidDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withUser(uuid.New(), models.RoleAdmin))
	handler := &SupportHandler{support: nil}
	r.GET("/support/statistics", handler.Statistics)

	w := serve(r, http.MethodGet, "/support/statistics?from=yesterday", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSupportHandler_Respond_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &SupportHandler{support: nil}
	r.POST("/support/tickets/:id/responses", handler.Respond)

	w := serve(r, http.MethodPost, "/support/tickets/"+uuid.NewString()+"/responses", []byte(`{"message":"hi"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParseTimeQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/?from=2026-03-01&to=2026-03-31T12:00:00Z", nil)

	from, err := parseTimeQuery(c, "from")
	require.NoError(t, err)
	require.NotNil(t, from)
	assert.Equal(t, 2026, from.Year())

	to, err := parseTimeQuery(c, "to")
	require.NoError(t, err)
	assert.Equal(t, 12, to.Hour())

	missing, err := parseTimeQuery(c, "since")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNoteHandler_Create_InvalidContextID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withUser(uuid.New(), models.RoleAdmin))
	handler := &NoteHandler{notes: nil}
	r.POST("/admin/notes/:contextType/:contextId", handler.Create)

	w := serve(r, http.MethodPost, "/admin/notes/provider/xyz", []byte(`{"note_text":"x"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationHandler_MarkAsRead_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withUser(uuid.New(), models.RoleProvider))
	handler := &NotificationHandler{notifications: nil}
	r.PUT("/notifications/:id/read", handler.MarkAsRead)

	w := serve(r, http.MethodPut, "/notifications/invalid-uuid/read", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWSHandler_Handle_MissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewWSHandler(nil, nil, nil)
	r.GET("/ws", handler.Handle)

	w := serve(r, http.MethodGet, "/ws", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type stubCatalogRepo struct {
	categories []models.Category
}

func (s *stubCatalogRepo) ListCategories(context.Context) ([]models.Category, error) {
	return s.categories, nil
}

func (s *stubCatalogRepo) GetCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	for i := range s.categories {
		if s.categories[i].Slug == slug {
			return &s.categories[i], nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (s *stubCatalogRepo) ListLanguages(context.Context) ([]models.Language, error) {
	return []models.Language{{Code: "nl", NameEN: "Dutch", IsActive: true}}, nil
}

func newCatalogRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	repo := &stubCatalogRepo{categories: []models.Category{{ID: uuid.New(), Slug: "translation", NameEN: "Translation", IsActive: true}}}
	handler := NewCatalogHandler(service.NewCatalogService(repo))
	r := gin.New()
	r.GET("/categories", handler.ListCategories)
	r.GET("/categories/:slug", handler.GetCategory)
	r.GET("/languages", handler.ListLanguages)
	r.GET("/cities", handler.ListCities)
	return r
}

func TestCatalogHandler_GetCategory(t *testing.T) {
	r := newCatalogRouter()

	w := serve(r, http.MethodGet, "/categories/translation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"translation"`)

	w = serve(r, http.MethodGet, "/categories/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogHandler_ListCities(t *testing.T) {
	r := newCatalogRouter()

	w := serve(r, http.MethodGet, "/cities?q=amster&limit=500", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Cities []struct {
			Name string `json:"name"`
		} `json:"cities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Cities)
	assert.Equal(t, "Amsterdam", body.Cities[0].Name)
}

func TestCatalogHandler_ListLanguages(t *testing.T) {
	r := newCatalogRouter()

	w := serve(r, http.MethodGet, "/languages", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"nl"`)
}
