package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"conduit/internal/apperr"
	"conduit/internal/auth"
	"conduit/internal/models"
	"conduit/internal/service"
)

// ---- Service Mocks ----

type mockUsers struct {
	out *models.LoggedInUser
	err error

	lastRegistration service.Registration
	lastEmail        string
	lastPassword     string
	lastUpdate       models.UserUpdate
	lastCurrent      *models.LoggedInUser
}

func (m *mockUsers) Register(_ context.Context, in service.Registration) (*models.LoggedInUser, error) {
	m.lastRegistration = in
	return m.out, m.err
}

func (m *mockUsers) Login(_ context.Context, email, password string) (*models.LoggedInUser, error) {
	m.lastEmail, m.lastPassword = email, password
	return m.out, m.err
}

func (m *mockUsers) Update(_ context.Context, current *models.LoggedInUser, upd models.UserUpdate) (*models.LoggedInUser, error) {
	m.lastCurrent, m.lastUpdate = current, upd
	return m.out, m.err
}

type mockProfiles struct {
	out        *models.Profile
	err        error
	lastViewer *models.LoggedInUser
	lastName   string
	calls      []string
}

func (m *mockProfiles) record(call string, viewer *models.LoggedInUser, username string) (*models.Profile, error) {
	m.calls = append(m.calls, call)
	m.lastViewer, m.lastName = viewer, username
	return m.out, m.err
}

func (m *mockProfiles) Get(_ context.Context, viewer *models.LoggedInUser, username string) (*models.Profile, error) {
	return m.record("get", viewer, username)
}

func (m *mockProfiles) Follow(_ context.Context, viewer *models.LoggedInUser, username string) (*models.Profile, error) {
	return m.record("follow", viewer, username)
}

func (m *mockProfiles) Unfollow(_ context.Context, viewer *models.LoggedInUser, username string) (*models.Profile, error) {
	return m.record("unfollow", viewer, username)
}

type mockArticles struct {
	list    []models.Article
	total   int
	article *models.Article
	err     error

	lastViewer *models.LoggedInUser
	lastFilter models.ArticleFilter
	lastLimit  int
	lastOffset int
	lastSlug   string
	lastNew    service.NewArticle
	lastUpdate models.ArticleUpdate
	feedCalls  int
}

func (m *mockArticles) List(_ context.Context, viewer *models.LoggedInUser, f models.ArticleFilter) ([]models.Article, int, error) {
	m.lastViewer, m.lastFilter = viewer, f
	return m.list, m.total, m.err
}

func (m *mockArticles) Feed(_ context.Context, viewer *models.LoggedInUser, limit, offset int) ([]models.Article, int, error) {
	m.feedCalls++
	m.lastViewer, m.lastLimit, m.lastOffset = viewer, limit, offset
	return m.list, m.total, m.err
}

func (m *mockArticles) Get(_ context.Context, viewer *models.LoggedInUser, slug string) (*models.Article, error) {
	m.lastViewer, m.lastSlug = viewer, slug
	return m.article, m.err
}

func (m *mockArticles) Create(_ context.Context, author *models.LoggedInUser, in service.NewArticle) (*models.Article, error) {
	m.lastViewer, m.lastNew = author, in
	return m.article, m.err
}

func (m *mockArticles) Update(_ context.Context, author *models.LoggedInUser, slug string, upd models.ArticleUpdate) (*models.Article, error) {
	m.lastViewer, m.lastSlug, m.lastUpdate = author, slug, upd
	return m.article, m.err
}

func (m *mockArticles) Delete(_ context.Context, author *models.LoggedInUser, slug string) error {
	m.lastViewer, m.lastSlug = author, slug
	return m.err
}

func (m *mockArticles) Favorite(_ context.Context, user *models.LoggedInUser, slug string) (*models.Article, error) {
	m.lastViewer, m.lastSlug = user, slug
	return m.article, m.err
}

func (m *mockArticles) Unfavorite(_ context.Context, user *models.LoggedInUser, slug string) (*models.Article, error) {
	m.lastViewer, m.lastSlug = user, slug
	return m.article, m.err
}

type mockComments struct {
	list    []models.Comment
	comment *models.Comment
	err     error

	lastSlug    string
	lastBody    string
	lastID      uuid.UUID
	deleteCalls int
}

func (m *mockComments) List(_ context.Context, _ *models.LoggedInUser, slug string) ([]models.Comment, error) {
	m.lastSlug = slug
	return m.list, m.err
}

func (m *mockComments) Add(_ context.Context, _ *models.LoggedInUser, slug, body string) (*models.Comment, error) {
	m.lastSlug, m.lastBody = slug, body
	return m.comment, m.err
}

func (m *mockComments) Delete(_ context.Context, _ *models.LoggedInUser, slug string, id uuid.UUID) error {
	m.deleteCalls++
	m.lastSlug, m.lastID = slug, id
	return m.err
}

type mockTags struct {
	tags []string
	err  error
}

func (m *mockTags) List(context.Context) ([]string, error) { return m.tags, m.err }

// fakeIdentity accepts exactly "Token <goodToken>" as testUser.
type fakeIdentity struct{}

const goodToken = "good-token"

var testUser = &models.LoggedInUser{
	ID:       uuid.MustParse("e7d0470c-46a9-44aa-8e7e-42eef8d1222e"),
	Username: "jake",
	Email:    "jake@jake.jake",
	Token:    goodToken,
}

func (fakeIdentity) Resolve(_ context.Context, header string, required bool) (*models.LoggedInUser, error) {
	switch header {
	case "":
		if required {
			return nil, apperr.Unauthenticated(auth.ReasonMissingHeader)
		}
		return nil, nil
	case auth.TokenScheme + goodToken:
		return testUser, nil
	default:
		return nil, apperr.Unauthenticated(auth.ReasonInvalidCreds)
	}
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, fakeIdentity{}, nil)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", auth.TokenScheme+token)
	}
	return h
}

func doRequest(r http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal error body %q: %v", w.Body.String(), err)
	}
	return out.Error
}
