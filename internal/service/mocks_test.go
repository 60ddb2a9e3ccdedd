package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"conduit/internal/models"
	"conduit/internal/repository"
)

var errDuplicateForTest = fmt.Errorf("unique: %w", repository.ErrDuplicate)

// mockUsers is a lightweight in-test mock for repository.Users.
type mockUsers struct {
	FindByIDFn          func(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsernameFn    func(ctx context.Context, username string) (*models.User, error)
	FindByEmailFn       func(ctx context.Context, email string) (*models.Account, error)
	CreateFn            func(ctx context.Context, u models.User, hash string) (*models.User, error)
	UpdateCredentialsFn func(ctx context.Context, id uuid.UUID, hash string) error
	UpdateFn            func(ctx context.Context, id uuid.UUID, upd models.UserUpdate, hash *string) (*models.User, error)

	createdHashes []string
	storedHashes  []string
}

func (m *mockUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.FindByIDFn(ctx, id)
}

func (m *mockUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.FindByUsernameFn(ctx, username)
}

func (m *mockUsers) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return m.FindByEmailFn(ctx, email)
}

func (m *mockUsers) Create(ctx context.Context, u models.User, hash string) (*models.User, error) {
	m.createdHashes = append(m.createdHashes, hash)
	return m.CreateFn(ctx, u, hash)
}

func (m *mockUsers) UpdateCredentials(ctx context.Context, id uuid.UUID, hash string) error {
	m.storedHashes = append(m.storedHashes, hash)
	if m.UpdateCredentialsFn == nil {
		return nil
	}
	return m.UpdateCredentialsFn(ctx, id, hash)
}

func (m *mockUsers) Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate, hash *string) (*models.User, error) {
	return m.UpdateFn(ctx, id, upd, hash)
}

type mockFollows struct {
	following map[[2]uuid.UUID]bool
	err       error
}

func (m *mockFollows) Follow(_ context.Context, follower, followee uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.following[[2]uuid.UUID{follower, followee}] = true
	return nil
}

func (m *mockFollows) Unfollow(_ context.Context, follower, followee uuid.UUID) error {
	delete(m.following, [2]uuid.UUID{follower, followee})
	return m.err
}

func (m *mockFollows) IsFollowing(_ context.Context, follower, followee uuid.UUID) (bool, error) {
	return m.following[[2]uuid.UUID{follower, followee}], m.err
}

// mockArticles keeps articles in memory keyed by slug.
type mockArticles struct {
	bySlug map[string]models.Article

	// vanish makes Update/Delete report no matched row, as if the article was
	// removed after the ownership check.
	vanish bool

	updates  int
	deletes  int
	lastList models.ArticleFilter
}

func newMockArticles(articles ...models.Article) *mockArticles {
	m := &mockArticles{bySlug: map[string]models.Article{}}
	for _, a := range articles {
		m.bySlug[a.Slug] = a
	}
	return m
}

func (m *mockArticles) Create(_ context.Context, a models.Article) (*models.Article, error) {
	if _, ok := m.bySlug[a.Slug]; ok {
		return nil, fmt.Errorf("insert: %w", errDuplicateForTest)
	}
	a.ID = uuid.New()
	m.bySlug[a.Slug] = a
	return &a, nil
}

func (m *mockArticles) FindBySlug(_ context.Context, slug string, _ uuid.UUID) (*models.Article, error) {
	a, ok := m.bySlug[slug]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *mockArticles) List(_ context.Context, f models.ArticleFilter, _ uuid.UUID) ([]models.Article, int, error) {
	m.lastList = f
	return nil, 0, nil
}

func (m *mockArticles) Feed(_ context.Context, _ uuid.UUID, limit, offset int) ([]models.Article, int, error) {
	m.lastList = models.ArticleFilter{Limit: limit, Offset: offset}
	return nil, 0, nil
}

func (m *mockArticles) Update(_ context.Context, id, authorID uuid.UUID, upd models.ArticleUpdate, slug *string) (bool, error) {
	m.updates++
	if m.vanish {
		return false, nil
	}
	for key, a := range m.bySlug {
		if a.ID != id || a.AuthorID != authorID {
			continue
		}
		if upd.Title != nil {
			a.Title = *upd.Title
		}
		if upd.Body != nil {
			a.Body = *upd.Body
		}
		if slug != nil {
			delete(m.bySlug, key)
			a.Slug = *slug
		}
		m.bySlug[a.Slug] = a
		return true, nil
	}
	return false, nil
}

func (m *mockArticles) Delete(_ context.Context, id, authorID uuid.UUID) (bool, error) {
	m.deletes++
	if m.vanish {
		return false, nil
	}
	for key, a := range m.bySlug {
		if a.ID == id && a.AuthorID == authorID {
			delete(m.bySlug, key)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockArticles) Favorite(_ context.Context, _, articleID uuid.UUID) error {
	return m.adjustFavorites(articleID, 1, true)
}

func (m *mockArticles) Unfavorite(_ context.Context, _, articleID uuid.UUID) error {
	return m.adjustFavorites(articleID, -1, false)
}

func (m *mockArticles) adjustFavorites(articleID uuid.UUID, delta int, favorited bool) error {
	for key, a := range m.bySlug {
		if a.ID == articleID {
			a.FavoritesCount += delta
			a.Favorited = favorited
			m.bySlug[key] = a
		}
	}
	return nil
}

type mockComments struct {
	byID    map[uuid.UUID]models.Comment
	vanish  bool
	deletes int
}

func (m *mockComments) Create(_ context.Context, c models.Comment) (*models.Comment, error) {
	c.ID = uuid.New()
	m.byID[c.ID] = c
	return &c, nil
}

func (m *mockComments) FindByID(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *mockComments) ListByArticle(_ context.Context, articleID, _ uuid.UUID) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range m.byID {
		if c.ArticleID == articleID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockComments) Delete(_ context.Context, id, authorID uuid.UUID) (bool, error) {
	m.deletes++
	if m.vanish {
		return false, nil
	}
	c, ok := m.byID[id]
	if !ok || c.AuthorID != authorID {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

type fakeTokens struct {
	issued []uuid.UUID
	err    error
}

func (f *fakeTokens) IssueToken(id uuid.UUID) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.issued = append(f.issued, id)
	return "token-for-" + id.String(), nil
}
