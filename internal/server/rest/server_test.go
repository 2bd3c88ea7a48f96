package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymatrosov/linkstash/internal/common"
	"github.com/ymatrosov/linkstash/internal/logging"
	"github.com/ymatrosov/linkstash/internal/server/auth"
	"github.com/ymatrosov/linkstash/internal/server/models"
	"github.com/ymatrosov/linkstash/internal/server/services"
)

const testSecret = "test-secret"

type stubUsers struct {
	registerFn            func(ctx context.Context, email, password string) (*models.User, error)
	validateCredentialsFn func(ctx context.Context, email, password string) (*models.User, error)
	loginFn               func(ctx context.Context, id auth.Identity) (string, error)
	getMeFn               func(ctx context.Context, userID string) (*models.User, error)
	updateMeFn            func(ctx context.Context, userID string, input services.UpdateMeInput) (*models.User, error)
	deleteMeFn            func(ctx context.Context, userID string) error
}

func (s *stubUsers) Register(ctx context.Context, email, password string) (*models.User, error) {
	return s.registerFn(ctx, email, password)
}
func (s *stubUsers) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	return s.validateCredentialsFn(ctx, email, password)
}
func (s *stubUsers) Login(ctx context.Context, id auth.Identity) (string, error) {
	return s.loginFn(ctx, id)
}
func (s *stubUsers) GetMe(ctx context.Context, userID string) (*models.User, error) {
	return s.getMeFn(ctx, userID)
}
func (s *stubUsers) UpdateMe(ctx context.Context, userID string, input services.UpdateMeInput) (*models.User, error) {
	return s.updateMeFn(ctx, userID, input)
}
func (s *stubUsers) DeleteMe(ctx context.Context, userID string) error {
	return s.deleteMeFn(ctx, userID)
}

type stubLinks struct {
	createFn    func(ctx context.Context, ownerID string, input services.CreateLinkInput) (*models.Link, error)
	listFn      func(ctx context.Context, ownerID string, q services.ListQuery) ([]*models.Link, error)
	getFn       func(ctx context.Context, ownerID, id string) (*models.Link, error)
	updateFn    func(ctx context.Context, ownerID, id string, input services.UpdateLinkInput) (*models.Link, error)
	archiveFn   func(ctx context.Context, ownerID, id string) (*models.Link, error)
	unarchiveFn func(ctx context.Context, ownerID, id string) (*models.Link, error)
	removeFn    func(ctx context.Context, ownerID, id string) error
	getRandomFn func(ctx context.Context, ownerID string, archived bool) (*models.Link, error)
}

func (s *stubLinks) Create(ctx context.Context, ownerID string, input services.CreateLinkInput) (*models.Link, error) {
	return s.createFn(ctx, ownerID, input)
}
func (s *stubLinks) List(ctx context.Context, ownerID string, q services.ListQuery) ([]*models.Link, error) {
	return s.listFn(ctx, ownerID, q)
}
func (s *stubLinks) Get(ctx context.Context, ownerID, id string) (*models.Link, error) {
	return s.getFn(ctx, ownerID, id)
}
func (s *stubLinks) Update(ctx context.Context, ownerID, id string, input services.UpdateLinkInput) (*models.Link, error) {
	return s.updateFn(ctx, ownerID, id, input)
}
func (s *stubLinks) Archive(ctx context.Context, ownerID, id string) (*models.Link, error) {
	return s.archiveFn(ctx, ownerID, id)
}
func (s *stubLinks) Unarchive(ctx context.Context, ownerID, id string) (*models.Link, error) {
	return s.unarchiveFn(ctx, ownerID, id)
}
func (s *stubLinks) Remove(ctx context.Context, ownerID, id string) error {
	return s.removeFn(ctx, ownerID, id)
}
func (s *stubLinks) GetRandom(ctx context.Context, ownerID string, archived bool) (*models.Link, error) {
	return s.getRandomFn(ctx, ownerID, archived)
}

func newTestServer(t *testing.T, us *stubUsers, ls *stubLinks) http.Handler {
	t.Helper()
	if us == nil {
		us = &stubUsers{}
	}
	if ls == nil {
		ls = &stubLinks{}
	}
	s := NewServer(":0", logging.NewJSONLogger(), us, ls, testSecret)
	return s.routes()
}

func bearerToken(t *testing.T, userID, email string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, email, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(t *testing.T, h http.Handler, method, target, authz string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRegister_Created(t *testing.T) {
	us := &stubUsers{
		registerFn: func(ctx context.Context, email, password string) (*models.User, error) {
			assert.Equal(t, "a@b.c", email)
			assert.Equal(t, "pw123456", password)
			return &models.User{ID: "u-1", Email: email}, nil
		},
	}
	h := newTestServer(t, us, nil)

	w := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "a@b.c", "password": "pw123456",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "a@b.c", user.Email)
	assert.NotContains(t, w.Body.String(), "passwordHash")
}

func TestRegister_Duplicate(t *testing.T) {
	us := &stubUsers{
		registerFn: func(ctx context.Context, email, password string) (*models.User, error) {
			return nil, common.ErrorAlreadyExists
		},
	}
	h := newTestServer(t, us, nil)

	w := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "a@b.c", "password": "pw123456",
	})

	require.Equal(t, http.StatusConflict, w.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "duplicate", body.Error)
}

func TestRegister_MalformedBody(t *testing.T) {
	h := newTestServer(t, &stubUsers{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_ReturnsToken(t *testing.T) {
	us := &stubUsers{
		validateCredentialsFn: func(ctx context.Context, email, password string) (*models.User, error) {
			return &models.User{ID: "u-1", Email: email}, nil
		},
		loginFn: func(ctx context.Context, id auth.Identity) (string, error) {
			assert.Equal(t, "u-1", id.UserID)
			return "token-abc", nil
		},
	}
	h := newTestServer(t, us, nil)

	w := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "a@b.c", "password": "pw123456",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var body tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "token-abc", body.AccessToken)
}

func TestLogin_BadCredentials(t *testing.T) {
	us := &stubUsers{
		validateCredentialsFn: func(ctx context.Context, email, password string) (*models.User, error) {
			return nil, common.ErrorUnauthorized
		},
	}
	h := newTestServer(t, us, nil)

	w := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "a@b.c", "password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_Rejections(t *testing.T) {
	h := newTestServer(t, nil, nil)

	expired, err := auth.GenerateToken("u-1", "a@b.c", []byte(testSecret), -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.GenerateToken("u-1", "a@b.c", []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		authz string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong secret", "Bearer " + foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodGet, "/auth/me", tt.authz, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "unauthorized", body.Error)
		})
	}
}

func TestAuthMe_ReturnsTokenIdentity(t *testing.T) {
	h := newTestServer(t, nil, nil)

	w := doJSON(t, h, http.MethodGet, "/auth/me", bearerToken(t, "u-1", "a@b.c"), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var id auth.Identity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &id))
	assert.Equal(t, "u-1", id.UserID)
	assert.Equal(t, "a@b.c", id.Email)
}

func TestGetMe(t *testing.T) {
	us := &stubUsers{
		getMeFn: func(ctx context.Context, userID string) (*models.User, error) {
			assert.Equal(t, "u-1", userID)
			return &models.User{ID: userID, Email: "a@b.c"}, nil
		},
	}
	h := newTestServer(t, us, nil)

	w := doJSON(t, h, http.MethodGet, "/users/me", bearerToken(t, "u-1", "a@b.c"), nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateMe_PassesOnlyProvidedFields(t *testing.T) {
	us := &stubUsers{
		updateMeFn: func(ctx context.Context, userID string, input services.UpdateMeInput) (*models.User, error) {
			require.NotNil(t, input.Email)
			assert.Equal(t, "new@b.c", *input.Email)
			assert.Nil(t, input.Password)
			return &models.User{ID: userID, Email: *input.Email}, nil
		},
	}
	h := newTestServer(t, us, nil)

	w := doJSON(t, h, http.MethodPatch, "/users/me", bearerToken(t, "u-1", "a@b.c"), map[string]string{
		"email": "new@b.c",
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteMe(t *testing.T) {
	deleted := ""
	us := &stubUsers{
		deleteMeFn: func(ctx context.Context, userID string) error {
			deleted = userID
			return nil
		},
	}
	h := newTestServer(t, us, nil)

	w := doJSON(t, h, http.MethodDelete, "/users/me", bearerToken(t, "u-1", "a@b.c"), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", deleted)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestCreateLink(t *testing.T) {
	ls := &stubLinks{
		createFn: func(ctx context.Context, ownerID string, input services.CreateLinkInput) (*models.Link, error) {
			assert.Equal(t, "u-1", ownerID)
			assert.Equal(t, "https://go.dev", input.URL)
			assert.Nil(t, input.Title)
			return &models.Link{ID: "l-1", OwnerID: ownerID, URL: input.URL}, nil
		},
	}
	h := newTestServer(t, nil, ls)

	w := doJSON(t, h, http.MethodPost, "/links", bearerToken(t, "u-1", "a@b.c"), map[string]string{
		"url": "https://go.dev",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var link models.Link
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.Equal(t, "l-1", link.ID)
}

func TestCreateLink_InvalidURL(t *testing.T) {
	ls := &stubLinks{
		createFn: func(ctx context.Context, ownerID string, input services.CreateLinkInput) (*models.Link, error) {
			return nil, common.ErrInvalidURL
		},
	}
	h := newTestServer(t, nil, ls)

	w := doJSON(t, h, http.MethodPost, "/links", bearerToken(t, "u-1", "a@b.c"), map[string]string{
		"url": "not a url",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListLinks_QueryParams(t *testing.T) {
	var got services.ListQuery
	ls := &stubLinks{
		listFn: func(ctx context.Context, ownerID string, q services.ListQuery) ([]*models.Link, error) {
			got = q
			return []*models.Link{}, nil
		},
	}
	h := newTestServer(t, nil, ls)

	w := doJSON(t, h, http.MethodGet, "/links?search=golang&archived=false", bearerToken(t, "u-1", "a@b.c"), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "golang", got.Search)
	require.NotNil(t, got.Archived)
	assert.False(t, *got.Archived)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListLinks_NoArchivedFilter(t *testing.T) {
	var got services.ListQuery
	ls := &stubLinks{
		listFn: func(ctx context.Context, ownerID string, q services.ListQuery) ([]*models.Link, error) {
			got = q
			return []*models.Link{}, nil
		},
	}
	h := newTestServer(t, nil, ls)

	doJSON(t, h, http.MethodGet, "/links", bearerToken(t, "u-1", "a@b.c"), nil)

	assert.Nil(t, got.Archived)
}

func TestRandomLink_Empty(t *testing.T) {
	ls := &stubLinks{
		getRandomFn: func(ctx context.Context, ownerID string, archived bool) (*models.Link, error) {
			assert.False(t, archived)
			return nil, nil
		},
	}
	h := newTestServer(t, nil, ls)

	w := doJSON(t, h, http.MethodGet, "/links/random", bearerToken(t, "u-1", "a@b.c"), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"link":null}`, w.Body.String())
}

func TestRandomLink_ArchivedPool(t *testing.T) {
	ls := &stubLinks{
		getRandomFn: func(ctx context.Context, ownerID string, archived bool) (*models.Link, error) {
			assert.True(t, archived)
			return &models.Link{ID: "l-9", OwnerID: ownerID}, nil
		},
	}
	h := newTestServer(t, nil, ls)

	w := doJSON(t, h, http.MethodGet, "/links/random?archived=true", bearerToken(t, "u-1", "a@b.c"), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body randomLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Link)
	assert.Equal(t, "l-9", body.Link.ID)
}

func TestGetLink_NotFound(t *testing.T) {
	ls := &stubLinks{
		getFn: func(ctx context.Context, ownerID, id string) (*models.Link, error) {
			assert.Equal(t, "l-404", id)
			return nil, common.ErrorNotFound
		},
	}
	h := newTestServer(t, nil, ls)

	w := doJSON(t, h, http.MethodGet, "/links/l-404", bearerToken(t, "u-1", "a@b.c"), nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error)
}

func TestUpdateLink(t *testing.T) {
	ls := &stubLinks{
		updateFn: func(ctx context.Context, ownerID, id string, input services.UpdateLinkInput) (*models.Link, error) {
			assert.Equal(t, "l-1", id)
			require.NotNil(t, input.Title)
			assert.Equal(t, "renamed", *input.Title)
			assert.Nil(t, input.Notes)
			return &models.Link{ID: id, OwnerID: ownerID, Title: *input.Title}, nil
		},
	}
	h := newTestServer(t, nil, ls)

	w := doJSON(t, h, http.MethodPatch, "/links/l-1", bearerToken(t, "u-1", "a@b.c"), map[string]string{
		"title": "renamed",
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestArchiveUnarchiveRouting(t *testing.T) {
	archivedAt := time.Now()
	ls := &stubLinks{
		archiveFn: func(ctx context.Context, ownerID, id string) (*models.Link, error) {
			return &models.Link{ID: id, OwnerID: ownerID, ArchivedAt: &archivedAt}, nil
		},
		unarchiveFn: func(ctx context.Context, ownerID, id string) (*models.Link, error) {
			return &models.Link{ID: id, OwnerID: ownerID}, nil
		},
	}
	h := newTestServer(t, nil, ls)

	w := doJSON(t, h, http.MethodPost, "/links/l-1/archive", bearerToken(t, "u-1", "a@b.c"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var link models.Link
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.True(t, link.Archived())

	w = doJSON(t, h, http.MethodPost, "/links/l-1/unarchive", bearerToken(t, "u-1", "a@b.c"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	link = models.Link{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.False(t, link.Archived())
}

func TestDeleteLink(t *testing.T) {
	ls := &stubLinks{
		removeFn: func(ctx context.Context, ownerID, id string) error {
			assert.Equal(t, "u-1", ownerID)
			assert.Equal(t, "l-1", id)
			return nil
		},
	}
	h := newTestServer(t, nil, ls)

	w := doJSON(t, h, http.MethodDelete, "/links/l-1", bearerToken(t, "u-1", "a@b.c"), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestInternalErrorNotLeaked(t *testing.T) {
	ls := &stubLinks{
		listFn: func(ctx context.Context, ownerID string, q services.ListQuery) ([]*models.Link, error) {
			return nil, assert.AnError
		},
	}
	h := newTestServer(t, nil, ls)

	w := doJSON(t, h, http.MethodGet, "/links", bearerToken(t, "u-1", "a@b.c"), nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body.Error)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
