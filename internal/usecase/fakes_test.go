package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
)

// memStore — общее хранилище фейковых репозиториев; fakeTx откатывает его при ошибке.
type memStore struct {
	mu         sync.Mutex
	categories []domain.Category
	products   []domain.Product
	events     []*OutboxEvent
	nextID     int64
	writes     int
}

func newMemStore() *memStore {
	return &memStore{nextID: 1}
}

func (s *memStore) snapshot() memStore {
	return memStore{
		categories: append([]domain.Category(nil), s.categories...),
		products:   append([]domain.Product(nil), s.products...),
		events:     append([]*OutboxEvent(nil), s.events...),
		nextID:     s.nextID,
		writes:     s.writes,
	}
}

func (s *memStore) restore(snap *memStore) {
	s.categories = snap.categories
	s.products = snap.products
	s.events = snap.events
	s.writes = snap.writes
	// последовательности не откатываются, как и в PostgreSQL
}

type fakeTx struct {
	store     *memStore
	calls     int
	rollbacks int
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	snap := f.store.snapshot()
	if err := fn(ctx); err != nil {
		f.rollbacks++
		f.store.restore(&snap)
		return err
	}
	return nil
}

type fakeCategoryRepo struct {
	store   *memStore
	failErr error
	locks   []int64
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *domain.Category) (*domain.Category, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	created := domain.Category{ID: r.store.nextID, Name: category.Name}
	r.store.nextID++
	r.store.categories = append(r.store.categories, created)
	return &created, nil
}

func (r *fakeCategoryRepo) List(context.Context) ([]domain.Category, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	return append(make([]domain.Category, 0, len(r.store.categories)), r.store.categories...), nil
}

func (r *fakeCategoryRepo) Exists(_ context.Context, id int64, lock bool) (bool, error) {
	if r.failErr != nil {
		return false, r.failErr
	}
	if lock {
		r.locks = append(r.locks, id)
	}
	for _, c := range r.store.categories {
		if c.ID == id {
			return true, nil
		}
	}
	return false, nil
}

type fakeProductRepo struct {
	store     *memStore
	failErr   error
	updates   []*UpdateProductReq
	forUpdate []bool
}

func (r *fakeProductRepo) Create(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	created := *product
	created.ID = r.store.nextID
	r.store.nextID++
	r.store.writes++
	r.store.products = append(r.store.products, created)
	return &created, nil
}

func (r *fakeProductRepo) List(context.Context) ([]domain.Product, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	return append(make([]domain.Product, 0, len(r.store.products)), r.store.products...), nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id int64, forUpdate bool) (*domain.Product, error) {
	r.forUpdate = append(r.forUpdate, forUpdate)
	for _, p := range r.store.products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, e.NotFound("product", id)
}

func (r *fakeProductRepo) Update(_ context.Context, id int64, req *UpdateProductReq) (*domain.Product, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	r.updates = append(r.updates, req)
	for i := range r.store.products {
		p := &r.store.products[i]
		if p.ID != id {
			continue
		}
		if req.Title.Set {
			p.Title = req.Title.Value
		}
		if req.Price.Set {
			p.Price = req.Price.Value
		}
		if req.Description.Set {
			p.Description = req.Description.Value
		}
		if req.Image.Set {
			p.Image = req.Image.Value
		}
		if req.CategoryID.Set {
			p.CategoryID = req.CategoryID.Value
		}
		if req.Rating.Set {
			p.Rating = req.Rating.Value
		}
		r.store.writes++
		updated := *p
		return &updated, nil
	}
	return nil, e.NotFound("product", id)
}

func (r *fakeProductRepo) Delete(_ context.Context, id int64) (int64, error) {
	if r.failErr != nil {
		return 0, r.failErr
	}
	for i, p := range r.store.products {
		if p.ID == id {
			r.store.products = append(r.store.products[:i], r.store.products[i+1:]...)
			r.store.writes++
			return 1, nil
		}
	}
	return 0, nil
}

type fakeOutboxRepo struct {
	store *memStore
}

func (r *fakeOutboxRepo) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	stored := *event
	stored.ID = int64(len(r.store.events) + 1)
	r.store.events = append(r.store.events, &stored)
	return &stored, nil
}

func (r *fakeOutboxRepo) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, errors.New("not used")
}

func (r *fakeOutboxRepo) MarkAsProcessed(context.Context, int64) error {
	return errors.New("not used")
}

// fakeCache повторяет поведение кэша со счётчиком версий: запись принимается только
// для текущей версии, а неудачная инвалидация ничего не меняет.
type fakeCache struct {
	products          []domain.Product
	categories        []domain.Category
	productsSet       bool
	categoriesSet     bool
	productsStamp     int64
	categoriesStamp   int64
	productsVersion   int64
	categoriesVersion int64
	productInvalids   int
	categoryInvalids  int
	failInvalidations bool
}

func (c *fakeCache) GetProducts(context.Context) ([]domain.Product, int64, bool) {
	hit := c.productsSet && c.productsStamp == c.productsVersion
	return c.products, c.productsVersion, hit
}

func (c *fakeCache) SetProducts(_ context.Context, version int64, products []domain.Product) error {
	if version != c.productsVersion {
		return nil
	}
	c.products, c.productsSet, c.productsStamp = products, true, version
	return nil
}

func (c *fakeCache) InvalidateProducts(context.Context) error {
	c.productInvalids++
	if c.failInvalidations {
		return errors.New("redis: connection refused")
	}
	c.productsVersion++
	c.products, c.productsSet = nil, false
	return nil
}

func (c *fakeCache) GetCategories(context.Context) ([]domain.Category, int64, bool) {
	hit := c.categoriesSet && c.categoriesStamp == c.categoriesVersion
	return c.categories, c.categoriesVersion, hit
}

func (c *fakeCache) SetCategories(_ context.Context, version int64, categories []domain.Category) error {
	if version != c.categoriesVersion {
		return nil
	}
	c.categories, c.categoriesSet, c.categoriesStamp = categories, true, version
	return nil
}

func (c *fakeCache) InvalidateCategories(context.Context) error {
	c.categoryInvalids++
	if c.failInvalidations {
		return errors.New("redis: connection refused")
	}
	c.categoriesVersion++
	c.categories, c.categoriesSet = nil, false
	return nil
}
