package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	authmw "github.com/Skotchmaster/sweet_shop/internal/middleware/auth"
	"github.com/Skotchmaster/sweet_shop/internal/models"
	"github.com/Skotchmaster/sweet_shop/internal/repo"
	"github.com/Skotchmaster/sweet_shop/internal/service"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Sweet{}))

	store := &repo.GormRepo{DB: db}
	secret := []byte("test-jwt-secret")

	e := echo.New()
	Register(e, &Deps{
		AuthHandler: &AuthHTTP{Svc: &service.AuthService{
			Repo:      store,
			JWTSecret: secret,
			AccessTTL: 30 * time.Minute,
		}},
		SweetsHandler: &SweetsHTTP{Svc: &service.CatalogService{Repo: store}},
		Gate:          authmw.NewGate(store, secret),
	})

	return &testEnv{T: t, E: e, DB: db}
}

func (env *testEnv) doJSON(method, path string, body any, token string) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) register(username, email, password, role string) *httptest.ResponseRecorder {
	body := map[string]string{"username": username, "email": email, "password": password}
	if role != "" {
		body["role"] = role
	}
	return env.doJSON(http.MethodPost, "/api/auth/register", body, "")
}

func (env *testEnv) login(username, password string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

// loginToken registers a fresh user with the given role and returns a bearer
// token for it. Role self-assignment at signup is observed behavior.
func (env *testEnv) loginToken(username, role string) string {
	env.T.Helper()

	rec := env.register(username, username+"@example.com", "password", role)
	require.Equal(env.T, http.StatusCreated, rec.Code)

	rec = env.login(username, "password")
	require.Equal(env.T, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(env.T, resp.AccessToken)
	return resp.AccessToken
}

func (env *testEnv) createSweet(token, name, category string, price float64, quantity int) models.Sweet {
	env.T.Helper()

	rec := env.doJSON(http.MethodPost, "/api/sweets", map[string]any{
		"name": name, "category": category, "price": price, "quantity": quantity,
	}, token)
	require.Equal(env.T, http.StatusCreated, rec.Code)

	var sweet models.Sweet
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &sweet))
	return sweet
}

func TestRegister_ReturnsUserWithoutPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.register("alice", "alice@example.com", "secret", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp["username"])
	assert.Equal(t, "user", resp["role"])
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.NotContains(t, resp, "password_hash")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated, env.register("alice", "alice@example.com", "secret", "").Code)

	rec := env.register("other", "alice@example.com", "secret", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already registered")
}

func TestRegister_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.register("alice", "not-an-email", "secret", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.register("bob", "bob@example.com", "secret", "superuser")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_ReturnsBearerTokenAndRole(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated, env.register("alice", "alice@example.com", "secret", "admin").Code)

	rec := env.login("alice", "secret")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		Role        string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "admin", resp.Role)
}

func TestLogin_IdenticalResponseForBadUserAndBadPassword(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated, env.register("alice", "alice@example.com", "secret", "").Code)

	recWrongPw := env.login("alice", "wrong")
	recNoUser := env.login("ghost", "secret")

	require.Equal(t, http.StatusUnauthorized, recWrongPw.Code)
	require.Equal(t, http.StatusUnauthorized, recNoUser.Code)
	assert.Equal(t, recWrongPw.Body.String(), recNoUser.Body.String())
	assert.Equal(t, "Bearer", recWrongPw.Header().Get(echo.HeaderWWWAuthenticate))
}

func TestSweets_RequireAuthentication(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(http.MethodGet, "/api/sweets", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))

	rec = env.doJSON(http.MethodGet, "/api/sweets", nil, "garbage-token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSweets_TokenForDeletedUserIsRejected(t *testing.T) {
	env := newTestEnv(t)

	token := env.loginToken("ghost", "")
	require.NoError(t, env.DB.Where("username = ?", "ghost").Delete(&models.User{}).Error)

	rec := env.doJSON(http.MethodGet, "/api/sweets", nil, token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSweets_AdminRoutesForbiddenForRegularUser(t *testing.T) {
	env := newTestEnv(t)
	token := env.loginToken("alice", "")

	valid := map[string]any{"name": "Ladoo", "category": "Mithai", "price": 10.0, "quantity": 5}

	cases := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/api/sweets", valid},
		{http.MethodPatch, "/api/sweets/1", map[string]any{"price": 5.0}},
		{http.MethodDelete, "/api/sweets/1", nil},
		{http.MethodPost, "/api/sweets/1/restock?amount=5", nil},
	}
	for _, tc := range cases {
		rec := env.doJSON(tc.method, tc.path, tc.body, token)
		require.Equalf(t, http.StatusForbidden, rec.Code, "%s %s", tc.method, tc.path)
		assert.Contains(t, rec.Body.String(), "Admins only")
	}
}

func TestSweets_CreateListAndDuplicate(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginToken("admin", "admin")
	user := env.loginToken("alice", "")

	sweet := env.createSweet(admin, "Ladoo", "Mithai", 10, 5)
	assert.EqualValues(t, 5, sweet.Quantity)

	rec := env.doJSON(http.MethodPost, "/api/sweets", map[string]any{
		"name": "Ladoo", "category": "Mithai", "price": 10.0, "quantity": 5,
	}, admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sweet already exists")

	rec = env.doJSON(http.MethodGet, "/api/sweets", nil, user)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.Sweet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
}

func TestSweets_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginToken("admin", "admin")

	bad := []map[string]any{
		{"name": "", "category": "Mithai", "price": 10.0, "quantity": 5},
		{"name": "Ladoo", "category": "", "price": 10.0, "quantity": 5},
		{"name": "Ladoo", "category": "Mithai", "price": 0.0, "quantity": 5},
		{"name": "Ladoo", "category": "Mithai", "price": -1.0, "quantity": 5},
		{"name": "Ladoo", "category": "Mithai", "price": 10.0, "quantity": -1},
		{"name": strings.Repeat("x", 101), "category": "Mithai", "price": 10.0, "quantity": 5},
	}
	for i, body := range bad {
		rec := env.doJSON(http.MethodPost, "/api/sweets", body, admin)
		require.Equalf(t, http.StatusBadRequest, rec.Code, "case %d", i)
	}
}

func TestSweets_PatchPartialUpdate(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginToken("admin", "admin")
	sweet := env.createSweet(admin, "Ladoo", "Mithai", 10, 5)

	rec := env.doJSON(http.MethodPatch, fmt.Sprintf("/api/sweets/%d", sweet.ID),
		map[string]any{"price": 20.0}, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Sweet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 20.0, updated.Price)
	assert.Equal(t, "Mithai", updated.Category)
	assert.EqualValues(t, 5, updated.Quantity)
}

func TestSweets_PatchAndDeleteNotFound(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginToken("admin", "admin")

	rec := env.doJSON(http.MethodPatch, "/api/sweets/9999", map[string]any{"price": 5.0}, admin)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sweet not found")

	rec = env.doJSON(http.MethodDelete, "/api/sweets/9999", nil, admin)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSweets_Delete(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginToken("admin", "admin")
	sweet := env.createSweet(admin, "Ladoo", "Mithai", 10, 5)

	rec := env.doJSON(http.MethodDelete, fmt.Sprintf("/api/sweets/%d", sweet.ID), nil, admin)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.doJSON(http.MethodDelete, fmt.Sprintf("/api/sweets/%d", sweet.ID), nil, admin)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSweets_Search(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginToken("admin", "admin")
	user := env.loginToken("alice", "")

	env.createSweet(admin, "Gulab Jamun", "Mithai", 100, 5)
	env.createSweet(admin, "Barfi", "Mithai", 50, 5)
	env.createSweet(admin, "Candy Cane", "Candy", 20, 5)

	rec := env.doJSON(http.MethodGet, "/api/sweets/search?category=Mithai&min_price=30&max_price=120", nil, user)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.Sweet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)

	rec = env.doJSON(http.MethodGet, "/api/sweets/search?name=zzz", nil, user)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestSweets_Purchase(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginToken("admin", "admin")
	user := env.loginToken("alice", "")

	sweet := env.createSweet(admin, "Ladoo", "Mithai", 10, 1)

	rec := env.doJSON(http.MethodPost, fmt.Sprintf("/api/sweets/%d/purchase", sweet.ID), nil, user)
	require.Equal(t, http.StatusOK, rec.Code)

	var bought models.Sweet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bought))
	assert.EqualValues(t, 0, bought.Quantity)

	// sold out and nonexistent answer identically
	recSoldOut := env.doJSON(http.MethodPost, fmt.Sprintf("/api/sweets/%d/purchase", sweet.ID), nil, user)
	recMissing := env.doJSON(http.MethodPost, "/api/sweets/9999/purchase", nil, user)
	require.Equal(t, http.StatusBadRequest, recSoldOut.Code)
	require.Equal(t, http.StatusBadRequest, recMissing.Code)
	assert.Equal(t, recSoldOut.Body.String(), recMissing.Body.String())
}

func TestSweets_Restock(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginToken("admin", "admin")

	sweet := env.createSweet(admin, "Ladoo", "Mithai", 10, 2)

	rec := env.doJSON(http.MethodPost, fmt.Sprintf("/api/sweets/%d/restock?amount=8", sweet.ID), nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var restocked models.Sweet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &restocked))
	assert.EqualValues(t, 10, restocked.Quantity)
}

func TestSweets_RestockValidationPrecedesExistence(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginToken("admin", "admin")

	// bad amount against a missing id is a validation error, not a 404
	for _, q := range []string{"amount=0", "amount=-5", "amount=abc", ""} {
		path := "/api/sweets/9999/restock"
		if q != "" {
			path += "?" + q
		}
		rec := env.doJSON(http.MethodPost, path, nil, admin)
		require.Equalf(t, http.StatusBadRequest, rec.Code, "query %q", q)
		assert.Contains(t, rec.Body.String(), "Restock amount must be positive")
	}

	rec := env.doJSON(http.MethodPost, "/api/sweets/9999/restock?amount=5", nil, admin)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, "/health/live", nil, "").Code)
	require.Equal(t, http.StatusOK, env.doJSON(http.MethodGet, "/health/ready", nil, "").Code)
}
