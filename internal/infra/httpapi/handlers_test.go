package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"birthday_notification_service/internal/app"
	"birthday_notification_service/internal/domain/user"
	idb "birthday_notification_service/internal/infra/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// memoryUserRepo is a minimal in-memory user.Repository for handler tests.
type memoryUserRepo struct {
	users map[string]*user.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*user.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, u *user.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, idb.ErrUserNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) Update(_ context.Context, u *user.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return idb.ErrUserNotFound
	}
	r.users[u.ID] = u
	return nil
}

func (r *memoryUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return idb.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepo) ListAll(_ context.Context) ([]*user.User, error) {
	out := make([]*user.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryUserRepo) ListWithBirthday(_ context.Context, month, day int) ([]*user.User, error) {
	out := make([]*user.User, 0)
	for _, u := range r.users {
		if u.BirthMonth == month && u.BirthDay == day {
			out = append(out, u)
		}
	}
	return out, nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(app.NewUserService(newMemoryUserRepo())).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createValidUser(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/user", gin.H{
		"firstName": "Jane",
		"lastName":  "Doe",
		"birthDate": "1990-03-03",
		"timezone":  "Europe/London",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		User userResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.User.ID)
	return resp.User.ID
}

func TestCreateUser(t *testing.T) {
	t.Parallel()

	t.Run("valid request", func(t *testing.T) {
		router := newTestRouter()
		id := createValidUser(t, router)

		w := doJSON(t, router, http.MethodGet, "/user/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got userResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Equal(t, "Jane", got.FirstName)
		require.Equal(t, "1990-03-03", got.BirthDate)
		require.Equal(t, "Europe/London", got.Timezone)
	})

	t.Run("missing required field", func(t *testing.T) {
		w := doJSON(t, newTestRouter(), http.MethodPost, "/user", gin.H{
			"firstName": "Jane",
			"birthDate": "1990-03-03",
			"timezone":  "Europe/London",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid timezone", func(t *testing.T) {
		w := doJSON(t, newTestRouter(), http.MethodPost, "/user", gin.H{
			"firstName": "Jane",
			"lastName":  "Doe",
			"birthDate": "1990-03-03",
			"timezone":  "Pluto/Somewhere",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid birth date", func(t *testing.T) {
		w := doJSON(t, newTestRouter(), http.MethodPost, "/user", gin.H{
			"firstName": "Jane",
			"lastName":  "Doe",
			"birthDate": "03/03/1990",
			"timezone":  "Europe/London",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateUser(t *testing.T) {
	t.Parallel()

	router := newTestRouter()
	id := createValidUser(t, router)

	w := doJSON(t, router, http.MethodPut, "/user/"+id, gin.H{"timezone": "Asia/Tokyo"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		User userResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Asia/Tokyo", resp.User.Timezone)
	require.Equal(t, "Jane", resp.User.FirstName)
}

func TestUpdateUnknownUser(t *testing.T) {
	t.Parallel()

	w := doJSON(t, newTestRouter(), http.MethodPut, "/user/missing", gin.H{"firstName": "Nobody"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUser(t *testing.T) {
	t.Parallel()

	router := newTestRouter()
	id := createValidUser(t, router)

	w := doJSON(t, router, http.MethodDelete, "/user/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/user/"+id, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/user/"+id, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsers(t *testing.T) {
	t.Parallel()

	router := newTestRouter()
	createValidUser(t, router)

	w := doJSON(t, router, http.MethodGet, "/user", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Users []userResponse `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 1)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	w := doJSON(t, newTestRouter(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "OK", resp["status"])
}
