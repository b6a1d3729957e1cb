package mocks

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/repository"
)

type txKey struct{}

// Store is an in-memory database backing every repository interface. It
// enforces the schema's unique, foreign key and cascade rules and gives
// WithinTx all-or-nothing semantics by snapshotting state.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users           map[int64]*models.User
	writers         map[int64]*models.Writer
	categories      map[int64]*models.Category
	articles        map[int64]*models.Article
	videoCategories map[int64]*models.VideoCategory
	videos          map[int64]*models.Video
	nextID          int64

	failures map[string][]error

	// TxAttempts counts transaction attempts including retries
	TxAttempts int
	// Commits counts committed transactions
	Commits int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:           make(map[int64]*models.User),
		writers:         make(map[int64]*models.Writer),
		categories:      make(map[int64]*models.Category),
		articles:        make(map[int64]*models.Article),
		videoCategories: make(map[int64]*models.VideoCategory),
		videos:          make(map[int64]*models.Video),
		failures:        make(map[string][]error),
	}
}

// Repositories returns repositories bound to the store
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:          &MockUserRepository{s: s},
		Writer:        &MockWriterRepository{s: s},
		Category:      &MockCategoryRepository{s: s},
		Article:       &MockArticleRepository{s: s},
		VideoCategory: &MockVideoCategoryRepository{s: s},
		Video:         &MockVideoRepository{s: s},
		Tx:            s,
	}
}

// FailOnce makes the next call of op (e.g. "Article.Create") return err
func (s *Store) FailOnce(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], err)
}

// fail pops a queued failure for op. Callers hold s.mu.
func (s *Store) fail(op string) error {
	queue := s.failures[op]
	if len(queue) == 0 {
		return nil
	}
	s.failures[op] = queue[1:]
	return queue[0]
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// WithinTx runs fn against a snapshot that is restored when fn fails.
// Transactions are serialized; a nested call joins the outer transaction.
// Retryable errors are retried like the PostgreSQL transactor does.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx, s.Repositories())
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = s.runOnce(ctx, fn)
		if err == nil || !repository.IsRetryable(err) {
			return err
		}
	}
	return err
}

func (s *Store) runOnce(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	s.mu.Lock()
	s.TxAttempts++
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true), s.Repositories()); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.Commits++
	s.mu.Unlock()
	return nil
}

type snapshot struct {
	users           map[int64]*models.User
	writers         map[int64]*models.Writer
	categories      map[int64]*models.Category
	articles        map[int64]*models.Article
	videoCategories map[int64]*models.VideoCategory
	videos          map[int64]*models.Video
	nextID          int64
}

// snapshot copies the tables. Rows are never mutated in place, so a shallow
// copy of each map is enough.
func (s *Store) snapshot() snapshot {
	return snapshot{
		users:           maps.Clone(s.users),
		writers:         maps.Clone(s.writers),
		categories:      maps.Clone(s.categories),
		articles:        maps.Clone(s.articles),
		videoCategories: maps.Clone(s.videoCategories),
		videos:          maps.Clone(s.videos),
		nextID:          s.nextID,
	}
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.writers = snap.writers
	s.categories = snap.categories
	s.articles = snap.articles
	s.videoCategories = snap.videoCategories
	s.videos = snap.videos
	s.nextID = snap.nextID
}

func conflict(constraint string) error {
	return fmt.Errorf("%w: %s", repository.ErrConflict, constraint)
}

func missing(constraint string) error {
	return fmt.Errorf("%w: %s", repository.ErrInvalidReference, constraint)
}

func paginate[T any](items []T, page models.Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+page.Limit, len(items))
	return items[start:end]
}

// Row copies

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyWriter(w *models.Writer) *models.Writer {
	c := *w
	c.Expertise = slices.Clone(w.Expertise)
	c.SocialLinks = maps.Clone(w.SocialLinks)
	if w.UserID != nil {
		id := *w.UserID
		c.UserID = &id
	}
	return &c
}

func copyCategory(cat *models.Category) *models.Category {
	c := *cat
	c.Subcategories = slices.Clone(cat.Subcategories)
	return &c
}

func copyArticle(a *models.Article) *models.Article {
	c := *a
	c.Tags = slices.Clone(a.Tags)
	c.Gallery = make([]map[string]any, len(a.Gallery))
	for i, g := range a.Gallery {
		c.Gallery[i] = maps.Clone(g)
	}
	c.Category, c.Author = nil, nil
	return &c
}

func copyVideo(v *models.Video) *models.Video {
	c := *v
	if v.CategoryID != nil {
		id := *v.CategoryID
		c.CategoryID = &id
	}
	if v.LiveStartTime != nil {
		t := *v.LiveStartTime
		c.LiveStartTime = &t
	}
	if v.LiveEndTime != nil {
		t := *v.LiveEndTime
		c.LiveEndTime = &t
	}
	return &c
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	s *Store
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("User.Create"); err != nil {
		return err
	}
	for _, u := range m.s.users {
		if u.Username == user.Username {
			return conflict("users_username_key")
		}
	}
	user.ID = m.s.id()
	m.s.users[user.ID] = copyUser(user)
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if u, ok := m.s.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.users), nil
}

// MockWriterRepository is a mock implementation of WriterRepository
type MockWriterRepository struct {
	s *Store
}

func (m *MockWriterRepository) check(w *models.Writer) error {
	for _, other := range m.s.writers {
		if other.ID == w.ID {
			continue
		}
		if other.Email == w.Email {
			return conflict("writers_email_key")
		}
		if w.UserID != nil && other.UserID != nil && *other.UserID == *w.UserID {
			return conflict("writers_user_id_key")
		}
	}
	if w.UserID != nil {
		if _, ok := m.s.users[*w.UserID]; !ok {
			return missing("writers_user_id_fkey")
		}
	}
	return nil
}

func (m *MockWriterRepository) Create(ctx context.Context, w *models.Writer) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Writer.Create"); err != nil {
		return err
	}
	if err := m.check(w); err != nil {
		return err
	}
	w.ID = m.s.id()
	w.ArticlesCount = 0
	m.s.writers[w.ID] = copyWriter(w)
	return nil
}

func (m *MockWriterRepository) Update(ctx context.Context, w *models.Writer) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Writer.Update"); err != nil {
		return err
	}
	existing, ok := m.s.writers[w.ID]
	if !ok {
		return nil
	}
	if err := m.check(w); err != nil {
		return err
	}
	row := copyWriter(w)
	row.ArticlesCount = existing.ArticlesCount
	m.s.writers[w.ID] = row
	return nil
}

// Delete removes the writer and cascades to their articles
func (m *MockWriterRepository) Delete(ctx context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Writer.Delete"); err != nil {
		return err
	}
	delete(m.s.writers, id)
	for aid, a := range m.s.articles {
		if a.AuthorID == id {
			delete(m.s.articles, aid)
		}
	}
	return nil
}

func (m *MockWriterRepository) GetByID(ctx context.Context, id int64) (*models.Writer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if w, ok := m.s.writers[id]; ok {
		return copyWriter(w), nil
	}
	return nil, nil
}

func (m *MockWriterRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Writer, error) {
	return m.GetByID(ctx, id)
}

func (m *MockWriterRepository) List(ctx context.Context, page models.Page) ([]*models.Writer, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	all := make([]*models.Writer, 0, len(m.s.writers))
	for _, w := range m.s.writers {
		all = append(all, copyWriter(w))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, page), len(all), nil
}

func (m *MockWriterRepository) AdjustArticlesCount(ctx context.Context, id int64, delta int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Writer.AdjustArticlesCount"); err != nil {
		return err
	}
	w, ok := m.s.writers[id]
	if !ok {
		return fmt.Errorf("writer %d: %w", id, repository.ErrInvalidReference)
	}
	if w.ArticlesCount+delta < 0 {
		return fmt.Errorf("writer %d: articles_count would be negative", id)
	}
	row := copyWriter(w)
	row.ArticlesCount += delta
	m.s.writers[id] = row
	return nil
}

func (m *MockWriterRepository) RecountArticles(ctx context.Context) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	counts := make(map[int64]int)
	for _, a := range m.s.articles {
		counts[a.AuthorID]++
	}
	var fixed int64
	for id, w := range m.s.writers {
		if w.ArticlesCount != counts[id] {
			row := copyWriter(w)
			row.ArticlesCount = counts[id]
			m.s.writers[id] = row
			fixed++
		}
	}
	return fixed, nil
}

// SetArticlesCount overwrites a writer's counter, for drift tests
func (m *MockWriterRepository) SetArticlesCount(id int64, n int) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	row := copyWriter(m.s.writers[id])
	row.ArticlesCount = n
	m.s.writers[id] = row
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	s *Store
}

func (m *MockCategoryRepository) checkOrder(c *models.Category) error {
	for _, other := range m.s.categories {
		if other.ID != c.ID && other.Order == c.Order {
			return conflict("categories_sort_order_key")
		}
	}
	return nil
}

func (m *MockCategoryRepository) Create(ctx context.Context, c *models.Category) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Category.Create"); err != nil {
		return err
	}
	c.Order = 0
	for _, other := range m.s.categories {
		c.Order = max(c.Order, other.Order)
	}
	c.Order++
	c.ID = m.s.id()
	c.ArticlesCount = 0
	m.s.categories[c.ID] = copyCategory(c)
	return nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, c *models.Category) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Category.Update"); err != nil {
		return err
	}
	existing, ok := m.s.categories[c.ID]
	if !ok {
		return nil
	}
	if err := m.checkOrder(c); err != nil {
		return err
	}
	row := copyCategory(c)
	row.ArticlesCount = existing.ArticlesCount
	m.s.categories[c.ID] = row
	return nil
}

// Delete removes the category and cascades to its articles
func (m *MockCategoryRepository) Delete(ctx context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.categories, id)
	for aid, a := range m.s.articles {
		if a.CategoryID == id {
			delete(m.s.articles, aid)
		}
	}
	return nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c, ok := m.s.categories[id]; ok {
		return copyCategory(c), nil
	}
	return nil, nil
}

func (m *MockCategoryRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Category, error) {
	return m.GetByID(ctx, id)
}

func (m *MockCategoryRepository) List(ctx context.Context, page models.Page) ([]*models.Category, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	all := make([]*models.Category, 0, len(m.s.categories))
	for _, c := range m.s.categories {
		all = append(all, copyCategory(c))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Order < all[j].Order })
	return paginate(all, page), len(all), nil
}

func (m *MockCategoryRepository) AdjustArticlesCount(ctx context.Context, id int64, delta int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Category.AdjustArticlesCount"); err != nil {
		return err
	}
	c, ok := m.s.categories[id]
	if !ok {
		return fmt.Errorf("category %d: %w", id, repository.ErrInvalidReference)
	}
	if c.ArticlesCount+delta < 0 {
		return fmt.Errorf("category %d: articles_count would be negative", id)
	}
	row := copyCategory(c)
	row.ArticlesCount += delta
	m.s.categories[id] = row
	return nil
}

func (m *MockCategoryRepository) RecountArticles(ctx context.Context) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	counts := make(map[int64]int)
	for _, a := range m.s.articles {
		counts[a.CategoryID]++
	}
	var fixed int64
	for id, c := range m.s.categories {
		if c.ArticlesCount != counts[id] {
			row := copyCategory(c)
			row.ArticlesCount = counts[id]
			m.s.categories[id] = row
			fixed++
		}
	}
	return fixed, nil
}

// SetArticlesCount overwrites a category's counter, for drift tests
func (m *MockCategoryRepository) SetArticlesCount(id int64, n int) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	row := copyCategory(m.s.categories[id])
	row.ArticlesCount = n
	m.s.categories[id] = row
}

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	s *Store
}

// view copies a row and joins its parent summaries. Callers hold s.mu.
func (m *MockArticleRepository) view(a *models.Article) *models.Article {
	c := copyArticle(a)
	if cat, ok := m.s.categories[a.CategoryID]; ok {
		c.Category = copyCategory(cat).Summary()
	}
	if w, ok := m.s.writers[a.AuthorID]; ok {
		c.Author = &models.WriterSummary{ID: w.ID, Name: w.Name}
	}
	return c
}

func (m *MockArticleRepository) checkParents(a *models.Article) error {
	if _, ok := m.s.categories[a.CategoryID]; !ok {
		return missing("articles_category_id_fkey")
	}
	if _, ok := m.s.writers[a.AuthorID]; !ok {
		return missing("articles_author_id_fkey")
	}
	return nil
}

func (m *MockArticleRepository) Create(ctx context.Context, a *models.Article) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Article.Create"); err != nil {
		return err
	}
	if err := m.checkParents(a); err != nil {
		return err
	}
	a.ID = m.s.id()
	m.s.articles[a.ID] = copyArticle(a)
	return nil
}

func (m *MockArticleRepository) Update(ctx context.Context, a *models.Article) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Article.Update"); err != nil {
		return err
	}
	existing, ok := m.s.articles[a.ID]
	if !ok {
		return nil
	}
	if err := m.checkParents(a); err != nil {
		return err
	}
	row := copyArticle(a)
	row.Views = existing.Views
	row.CreatedAt = existing.CreatedAt
	m.s.articles[a.ID] = row
	return nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Article.Delete"); err != nil {
		return err
	}
	delete(m.s.articles, id)
	return nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if a, ok := m.s.articles[id]; ok {
		return m.view(a), nil
	}
	return nil, nil
}

func (m *MockArticleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Article, error) {
	return m.GetByID(ctx, id)
}

func (m *MockArticleRepository) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var all []*models.Article
	for _, a := range m.s.articles {
		switch {
		case filter.Status != "" && a.Status != filter.Status:
			continue
		case filter.CategoryID != 0 && a.CategoryID != filter.CategoryID:
			continue
		case filter.AuthorID != 0 && a.AuthorID != filter.AuthorID:
			continue
		case filter.Featured != nil && a.IsFeatured != *filter.Featured:
			continue
		case search != "" && !strings.Contains(strings.ToLower(a.Title), search) &&
			!strings.Contains(strings.ToLower(a.Excerpt), search):
			continue
		}
		all = append(all, m.view(a))
	}
	sortNewestFirst(all, func(a *models.Article) (time.Time, int64) { return a.CreatedAt, a.ID })
	return paginate(all, filter.Page), len(all), nil
}

func (m *MockArticleRepository) LockFeatured(ctx context.Context) error {
	if ctx.Value(txKey{}) == nil {
		return fmt.Errorf("featured lock requires a transaction")
	}
	return nil
}

func (m *MockArticleRepository) ListFeatured(ctx context.Context, excludeID int64) ([]*models.Article, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Article
	for _, a := range m.s.articles {
		if a.IsFeatured && a.ID != excludeID {
			out = append(out, m.view(a))
		}
	}
	sortNewestFirst(out, func(a *models.Article) (time.Time, int64) { return a.UpdatedAt, a.ID })
	return out, nil
}

func (m *MockArticleRepository) SetFeatured(ctx context.Context, id int64, featured bool, updatedAt time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.articles[id]
	if !ok {
		return nil
	}
	row := copyArticle(a)
	row.IsFeatured = featured
	row.UpdatedAt = updatedAt
	m.s.articles[id] = row
	return nil
}

func (m *MockArticleRepository) CountByCategoryForAuthor(ctx context.Context, authorID int64) (map[int64]int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	counts := make(map[int64]int)
	for _, a := range m.s.articles {
		if a.AuthorID == authorID {
			counts[a.CategoryID]++
		}
	}
	return counts, nil
}

func (m *MockArticleRepository) SubcategoriesInUse(ctx context.Context, categoryID int64) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var used []string
	for _, a := range m.s.articles {
		if a.CategoryID == categoryID && a.Subcategory != "" && !slices.Contains(used, a.Subcategory) {
			used = append(used, a.Subcategory)
		}
	}
	sort.Strings(used)
	return used, nil
}

func (m *MockArticleRepository) CountByStatus(ctx context.Context) (*models.ArticleStats, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stats := &models.ArticleStats{Total: len(m.s.articles)}
	for _, a := range m.s.articles {
		switch a.Status {
		case models.ArticlePublished:
			stats.Published++
		case models.ArticleDraft:
			stats.Drafts++
		case models.ArticleScheduled:
			stats.Scheduled++
		}
	}
	return stats, nil
}

func (m *MockArticleRepository) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cutoff := now.Format("2006-01-02 15:04:05")
	var n int64
	for id, a := range m.s.articles {
		if a.Status != models.ArticleScheduled || a.PublishDate+" "+a.PublishTime > cutoff {
			continue
		}
		row := copyArticle(a)
		row.Status = models.ArticlePublished
		row.UpdatedAt = now
		m.s.articles[id] = row
		n++
	}
	return n, nil
}

func (m *MockArticleRepository) StreamAll(ctx context.Context, callback func(*models.Article) error) error {
	m.s.mu.Lock()
	all := make([]*models.Article, 0, len(m.s.articles))
	for _, a := range m.s.articles {
		all = append(all, m.view(a))
	}
	m.s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	for _, a := range all {
		if err := callback(a); err != nil {
			return err
		}
	}
	return nil
}

// MockVideoCategoryRepository is a mock implementation of VideoCategoryRepository
type MockVideoCategoryRepository struct {
	s *Store
}

func (m *MockVideoCategoryRepository) Create(ctx context.Context, c *models.VideoCategory) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c.ID = m.s.id()
	row := *c
	m.s.videoCategories[c.ID] = &row
	return nil
}

func (m *MockVideoCategoryRepository) GetByID(ctx context.Context, id int64) (*models.VideoCategory, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c, ok := m.s.videoCategories[id]; ok {
		row := *c
		return &row, nil
	}
	return nil, nil
}

func (m *MockVideoCategoryRepository) List(ctx context.Context, page models.Page) ([]*models.VideoCategory, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	all := make([]*models.VideoCategory, 0, len(m.s.videoCategories))
	for _, c := range m.s.videoCategories {
		row := *c
		all = append(all, &row)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, page), len(all), nil
}

// MockVideoRepository is a mock implementation of VideoRepository
type MockVideoRepository struct {
	s *Store
}

func (m *MockVideoRepository) check(v *models.Video) error {
	if v.IsLive && v.Status != models.VideoLive {
		return fmt.Errorf("videos: check constraint live_implies_status violated")
	}
	if v.CategoryID != nil {
		if _, ok := m.s.videoCategories[*v.CategoryID]; !ok {
			return missing("videos_category_id_fkey")
		}
	}
	if _, ok := m.s.users[v.UploaderID]; !ok {
		return missing("videos_uploader_id_fkey")
	}
	return nil
}

func (m *MockVideoRepository) Create(ctx context.Context, v *models.Video) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Video.Create"); err != nil {
		return err
	}
	if err := m.check(v); err != nil {
		return err
	}
	v.ID = m.s.id()
	m.s.videos[v.ID] = copyVideo(v)
	return nil
}

func (m *MockVideoRepository) Update(ctx context.Context, v *models.Video) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("Video.Update"); err != nil {
		return err
	}
	existing, ok := m.s.videos[v.ID]
	if !ok {
		return nil
	}
	if err := m.check(v); err != nil {
		return err
	}
	row := copyVideo(v)
	row.Views = existing.Views
	row.CreatedAt = existing.CreatedAt
	m.s.videos[v.ID] = row
	return nil
}

func (m *MockVideoRepository) Delete(ctx context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.videos, id)
	return nil
}

func (m *MockVideoRepository) GetByID(ctx context.Context, id int64) (*models.Video, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if v, ok := m.s.videos[id]; ok {
		return copyVideo(v), nil
	}
	return nil, nil
}

func (m *MockVideoRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Video, error) {
	return m.GetByID(ctx, id)
}

func (m *MockVideoRepository) List(ctx context.Context, filter models.VideoFilter) ([]*models.Video, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []*models.Video
	for _, v := range m.s.videos {
		switch {
		case filter.Status != "" && v.Status != filter.Status:
			continue
		case filter.CategoryID != 0 && (v.CategoryID == nil || *v.CategoryID != filter.CategoryID):
			continue
		case filter.IsLive != nil && v.IsLive != *filter.IsLive:
			continue
		}
		all = append(all, copyVideo(v))
	}
	sortNewestFirst(all, func(v *models.Video) (time.Time, int64) { return v.CreatedAt, v.ID })
	return paginate(all, filter.Page), len(all), nil
}

func (m *MockVideoRepository) ArchiveExpired(ctx context.Context, now time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, v := range m.s.videos {
		row := copyVideo(v)
		if row.ExpireIfEnded(now) {
			row.UpdatedAt = now
			m.s.videos[id] = row
			n++
		}
	}
	return n, nil
}

// SetVideo overwrites a stored video, for tests that need states the
// service would not produce
func (m *MockVideoRepository) SetVideo(v *models.Video) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.videos[v.ID] = copyVideo(v)
}

func sortNewestFirst[T any](items []T, key func(T) (time.Time, int64)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi > idj
	})
}
