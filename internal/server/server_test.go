package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"realestate/internal/config"
	"realestate/internal/database"
	"realestate/internal/models"
	"realestate/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	t   *testing.T
	srv *Server
	app *fiber.App
	db  *gorm.DB
}

func testConfig() *config.Config {
	return &config.Config{
		Env:          "test",
		JWTSecret:    "test-secret-that-is-long-enough-for-hs256",
		JWTIssuer:    "realestate-api",
		JWTAudience:  "realestate-app",
		JWTTTLHours:  1,
		FeatureFlags: "inquiry_notifications=on,favorite_counts=on",
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	db, err := database.Open(sqlite.Open(dsn), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	srv, err := NewServerWithDeps(testConfig(), db, nil)
	require.NoError(t, err)

	return &testEnv{t: t, srv: srv, app: srv.NewApp(), db: db}
}

// user inserts an account directly and returns it with a bearer token.
func (e *testEnv) user(email string, role models.Role) (*models.User, string) {
	e.t.Helper()
	u := &models.User{Name: strings.Split(email, "@")[0], Email: email, Password: "x", Role: role}
	require.NoError(e.t, repository.NewUserRepository(e.db).Create(context.Background(), u))
	token, err := e.srv.sessions.Issue(u.ID, role)
	require.NoError(e.t, err)
	return u, token
}

func (e *testEnv) do(method, path, token string, body any) (*http.Response, []byte) {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, data
}

func (e *testEnv) createListing(token, title string) models.Property {
	e.t.Helper()
	resp, body := e.do(http.MethodPost, "/api/properties", token, fiber.Map{
		"title":     title,
		"price":     120000,
		"bedrooms":  2,
		"bathrooms": 1,
		"area":      64.5,
		"address":   "12 Shevchenka Ave",
		"type":      "Apartment",
		"status":    "ForSale",
		"location":  "Lviv",
		"features":  []string{"balcony"},
	})
	require.Equal(e.t, fiber.StatusCreated, resp.StatusCode, string(body))
	var p models.Property
	require.NoError(e.t, json.Unmarshal(body, &p))
	return p
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestFavoritesScenario(t *testing.T) {
	env := newTestEnv(t)
	u1, u1Token := env.user("u1@example.com", models.RoleUser)
	_, u2Token := env.user("u2@example.com", models.RoleUser)

	p1 := env.createListing(u2Token, "P1 owned by U2")
	p2 := env.createListing(u1Token, "P2 owned by U1")

	resp, body := env.do(http.MethodPost, "/api/favorites", u1Token, fiber.Map{
		"userId": u1.ID.String(), "propertyId": p1.ID.String(),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	listPath := "/api/favorites?userId=" + u1.ID.String()
	resp, body = env.do(http.MethodGet, listPath, u1Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	favorites := decode[[]models.Property](t, body)
	require.Len(t, favorites, 1)
	assert.Equal(t, p1.ID, favorites[0].ID)

	resp, body = env.do(http.MethodGet,
		fmt.Sprintf("/api/favorites/%s/%s/exists", u1.ID, p1.ID), u1Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, decode[FavoriteState](t, body).IsFavorite)

	resp, _ = env.do(http.MethodPost, "/api/favorites", u1Token, fiber.Map{
		"userId": u1.ID.String(), "propertyId": p1.ID.String(),
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode, "duplicate favorite")

	resp, _ = env.do(http.MethodDelete, fmt.Sprintf("/api/favorites/%s/%s", u1.ID, p1.ID), u1Token, nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, body = env.do(http.MethodGet, listPath, u1Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, body = env.do(http.MethodPost, "/api/favorites", u1Token, fiber.Map{
		"userId": u1.ID.String(), "propertyId": p2.ID.String(),
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, models.CodeConflict, decode[models.ErrorResponse](t, body).Code)
}

func TestFavorites_AuthorizationOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	u1, u1Token := env.user("u1@example.com", models.RoleUser)
	_, u2Token := env.user("u2@example.com", models.RoleUser)
	_, adminToken := env.user("admin@example.com", models.RoleAdmin)
	p := env.createListing(u2Token, "Listing")

	body := fiber.Map{"userId": u1.ID.String(), "propertyId": p.ID.String()}

	resp, _ := env.do(http.MethodPost, "/api/favorites", "", body)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "anonymous")

	resp, _ = env.do(http.MethodPost, "/api/favorites", u2Token, body)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "another user's favorites")

	resp, _ = env.do(http.MethodPost, "/api/favorites", adminToken, body)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode, "admin on behalf")

	resp, _ = env.do(http.MethodGet, "/api/favorites?userId="+u1.ID.String(), u2Token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(http.MethodPost, "/api/favorites", u1Token, fiber.Map{
		"propertyId": uuid.NewString(),
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "unknown property")

	resp, _ = env.do(http.MethodGet, "/api/favorites?userId=not-a-uuid", u1Token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFavoriteToggle(t *testing.T) {
	env := newTestEnv(t)
	_, u1Token := env.user("u1@example.com", models.RoleUser)
	_, u2Token := env.user("u2@example.com", models.RoleUser)
	p := env.createListing(u2Token, "Listing")

	for _, want := range []bool{true, false, true} {
		resp, body := env.do(http.MethodPost, "/api/favorites/toggle", u1Token, fiber.Map{"propertyId": p.ID.String()})
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
		assert.Equal(t, want, decode[FavoriteState](t, body).IsFavorite)
	}

	resp, body := env.do(http.MethodGet, "/api/properties/"+p.ID.String(), "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode[models.Property](t, body).FavoritesCount)
}

func TestAnonymousInquiryScenario(t *testing.T) {
	env := newTestEnv(t)
	_, u1Token := env.user("u1@example.com", models.RoleUser)
	_, u2Token := env.user("u2@example.com", models.RoleUser)
	_, adminToken := env.user("admin@example.com", models.RoleAdmin)
	p1 := env.createListing(u2Token, "P1 owned by U2")

	resp, body := env.do(http.MethodPost, "/api/inquiries", "", fiber.Map{
		"propertyId": p1.ID.String(),
		"name":       "Jane",
		"email":      "jane@x.com",
		"message":    "Hi",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	inquiry := decode[models.Inquiry](t, body)
	assert.Nil(t, inquiry.UserID)
	assert.Equal(t, "Jane", inquiry.Name)

	resp, body = env.do(http.MethodGet, "/api/inquiries", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	all := decode[[]models.Inquiry](t, body)
	require.Len(t, all, 1)
	assert.Equal(t, inquiry.ID, all[0].ID)
	assert.Equal(t, "1", resp.Header.Get("X-Total-Count"))

	resp, body = env.do(http.MethodGet, "/api/inquiries/my", u2Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	partition := decode[models.InquiryPartition](t, body)
	assert.Empty(t, partition.Sent)
	require.Len(t, partition.Received, 1)
	assert.Equal(t, inquiry.ID, partition.Received[0].ID)

	// The anonymous sender has no way back to the row.
	resp, _ = env.do(http.MethodGet, "/api/inquiries/my", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp, _ = env.do(http.MethodDelete, "/api/inquiries/"+inquiry.ID.String(), "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(http.MethodDelete, "/api/inquiries/"+inquiry.ID.String(), u1Token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "unrelated user")

	resp, _ = env.do(http.MethodDelete, "/api/inquiries/"+inquiry.ID.String(), u2Token, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode, "owner")

	resp, _ = env.do(http.MethodGet, "/api/inquiries/"+inquiry.ID.String(), adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestInquiry_ValidationAndVisibility(t *testing.T) {
	env := newTestEnv(t)
	u1, u1Token := env.user("u1@example.com", models.RoleUser)
	_, u2Token := env.user("u2@example.com", models.RoleUser)
	p := env.createListing(u2Token, "Listing")

	resp, body := env.do(http.MethodPost, "/api/inquiries", "", fiber.Map{
		"propertyId": p.ID.String(),
		"message":    "Is it available?",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	errBody := decode[models.ErrorResponse](t, body)
	assert.Contains(t, errBody.Fields, "name")
	assert.Contains(t, errBody.Fields, "email")

	resp, body = env.do(http.MethodPost, "/api/inquiries", u1Token, fiber.Map{
		"propertyId": p.ID.String(),
		"message":    "Is it available?",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	sent := decode[models.Inquiry](t, body)
	require.NotNil(t, sent.UserID)
	assert.Equal(t, u1.ID, *sent.UserID)

	resp, body = env.do(http.MethodGet, "/api/inquiries/my", u1Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	partition := decode[models.InquiryPartition](t, body)
	require.Len(t, partition.Sent, 1)
	assert.Empty(t, partition.Received)

	resp, _ = env.do(http.MethodGet, "/api/inquiries", u1Token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "listing all is admin-only")

	resp, _ = env.do(http.MethodDelete, "/api/inquiries/"+sent.ID.String(), u1Token, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode, "sender")
}

func TestAdminInquiryListing(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.user("owner@example.com", models.RoleUser)
	_, adminToken := env.user("admin@example.com", models.RoleAdmin)
	p := env.createListing(ownerToken, "Busy listing")

	const n = 25
	for i := range n {
		require.NoError(t, env.db.Create(&models.Inquiry{
			PropertyID: p.ID,
			Name:       fmt.Sprintf("Visitor %d", i),
			Email:      fmt.Sprintf("visitor%d@example.com", i),
			Message:    "Still available?",
		}).Error)
	}

	resp, body := env.do(http.MethodGet, "/api/inquiries", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	all := decode[[]models.Inquiry](t, body)
	assert.Len(t, all, n)
	assert.Equal(t, "25", resp.Header.Get("X-Total-Count"))

	resp, body = env.do(http.MethodGet, "/api/inquiries?limit=10&offset=20", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Len(t, decode[[]models.Inquiry](t, body), 5)
	assert.Equal(t, "25", resp.Header.Get("X-Total-Count"))

	resp, _ = env.do(http.MethodGet, "/api/inquiries", ownerToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAdminDuplicateFavorite(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.user("owner@example.com", models.RoleUser)
	fan, _ := env.user("fan@example.com", models.RoleUser)
	admin, adminToken := env.user("admin@example.com", models.RoleAdmin)
	p := env.createListing(ownerToken, "Loft")

	for _, userID := range []uuid.UUID{admin.ID, fan.ID} {
		req := fiber.Map{"userId": userID.String(), "propertyId": p.ID.String()}
		resp, body := env.do(http.MethodPost, "/api/favorites", adminToken, req)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

		resp, body = env.do(http.MethodPost, "/api/favorites", adminToken, req)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode, string(body))
		errResp := decode[models.ErrorResponse](t, body)
		assert.Equal(t, models.CodeConflict, errResp.Code)
	}

	var count int64
	require.NoError(t, env.db.Model(&models.Favorite{}).Where("property_id = ?", p.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name":     "Olena",
		"email":    "olena@example.com",
		"password": "Sup3r-secret!",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	registered := decode[struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}](t, body)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, models.RoleUser, registered.User.Role)
	assert.NotContains(t, string(body), "Sup3r-secret!")

	resp, _ = env.do(http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name":     "Olena",
		"email":    "olena@example.com",
		"password": "Sup3r-secret!",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = env.do(http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "olena@example.com", "password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body = env.do(http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "olena@example.com", "password": "Sup3r-secret!",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	resp, body = env.do(http.MethodGet, "/api/users/me", registered.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "olena@example.com", decode[models.User](t, body).Email)

	resp, _ = env.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(http.MethodGet, "/api/users/me", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "invalid token is not anonymous")
}

func TestPropertyOwnership(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.user("owner@example.com", models.RoleUser)
	_, otherToken := env.user("other@example.com", models.RoleUser)
	_, adminToken := env.user("admin@example.com", models.RoleAdmin)
	p := env.createListing(ownerToken, "Two rooms near the park")

	update := fiber.Map{
		"title": "Renamed", "price": 1, "address": "1 Main St",
		"type": "House", "status": "ForRent", "location": "Kyiv",
	}
	resp, _ := env.do(http.MethodPut, "/api/properties/"+p.ID.String(), otherToken, update)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body := env.do(http.MethodPut, "/api/properties/"+p.ID.String(), ownerToken, update)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "Renamed", decode[models.Property](t, body).Title)

	resp, body = env.do(http.MethodPost, "/api/properties/"+p.ID.String()+"/images", ownerToken, fiber.Map{
		"url": "https://cdn.example.com/1.jpg",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	image := decode[models.PropertyImage](t, body)

	resp, _ = env.do(http.MethodDelete,
		fmt.Sprintf("/api/properties/%s/images/%s", p.ID, image.ID), otherToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = env.do(http.MethodGet, "/api/properties?location=Kyiv&type=House", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	listing := decode[PropertyPage](t, body)
	require.EqualValues(t, 1, listing.Total)
	assert.Len(t, listing.Items[0].Images, 1)

	resp, _ = env.do(http.MethodDelete, "/api/properties/"+p.ID.String(), adminToken, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(http.MethodGet, "/api/properties/"+p.ID.String(), "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHealthAndAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.user("user@example.com", models.RoleUser)
	admin, adminToken := env.user("admin@example.com", models.RoleAdmin)

	resp, body := env.do(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"redis":"disabled"`)

	resp, _ = env.do(http.MethodGet, "/api/admin/feature-flags", userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = env.do(http.MethodGet, "/api/admin/feature-flags", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	report := decode[FeatureFlagReport](t, body)
	assert.Equal(t, "on", report.Raw["inquiry_notifications"])
	assert.True(t, report.Evaluated["favorite_counts"])
	assert.Equal(t, admin.ID, report.EvaluatedFor)

	target := uuid.New()
	resp, body = env.do(http.MethodGet, "/api/admin/feature-flags?userId="+target.String(), adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, target, decode[FeatureFlagReport](t, body).EvaluatedFor)

	resp, _ = env.do(http.MethodGet, "/api/admin/feature-flags?userId=nope", adminToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(http.MethodPost, "/api/ws/ticket", userToken, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode, "no redis")
}
