package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memoryRepo is an in-process Repository used by service and handler tests.
type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Product
	calls  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[int64]Product{}}
}

func (m *memoryRepo) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *memoryRepo) List(ctx context.Context) ([]*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := []*Product{}
	for _, p := range m.rows {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryRepo) GetByID(ctx context.Context, id int64) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	p, ok := m.rows[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (m *memoryRepo) Create(ctx context.Context, in ProductInput) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.nextID++
	p := Product{ID: m.nextID, Name: in.Name, Image: in.Image, Price: *in.Price, CreatedAt: time.Now().UTC()}
	m.rows[p.ID] = p
	return &p, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, in ProductInput) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	p, ok := m.rows[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	p.Name, p.Image, p.Price = in.Name, in.Image, *in.Price
	m.rows[id] = p
	return &p, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	p, ok := m.rows[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	delete(m.rows, id)
	return &p, nil
}
