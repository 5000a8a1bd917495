package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/sandwichshop/internal/model"
	"github.com/mmeshcher/sandwichshop/internal/repository"
)

// memRepo хранит данные в памяти с теми же контрактами ошибок, что и PostgresRepository.
type memRepo struct {
	mu sync.Mutex

	users      []model.User
	sandwiches map[uuid.UUID]model.Sandwich
	orders     []model.Order
	items      []model.OrderItem

	// err, если задан, возвращается любым методом.
	err error
}

func newMemRepo() *memRepo {
	return &memRepo{sandwiches: map[uuid.UUID]model.Sandwich{}}
}

func (m *memRepo) Close() error { return nil }

func (m *memRepo) CreateUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	return m.insertUser(u)
}

func (m *memRepo) insertUser(u *model.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: %s", repository.ErrUserExists, u.Email)
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users = append(m.users, *u)
	return nil
}

func (m *memRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return append([]model.User(nil), m.users...), nil
}

func (m *memRepo) CountUsers(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.users)), nil
}

func (m *memRepo) ListSandwiches(ctx context.Context) ([]model.Sandwich, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	res := make([]model.Sandwich, 0, len(m.sandwiches))
	for _, s := range m.sandwiches {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (m *memRepo) GetSandwich(ctx context.Context, id uuid.UUID) (*model.Sandwich, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sandwiches[id]
	if !ok {
		return nil, repository.ErrSandwichNotFound
	}
	return &s, nil
}

func (m *memRepo) CreateSandwich(ctx context.Context, s *model.Sandwich) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	for _, existing := range m.sandwiches {
		if existing.Name == s.Name {
			return fmt.Errorf("%w: %s", repository.ErrSandwichExists, s.Name)
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	m.sandwiches[s.ID] = *s
	return nil
}

func (m *memRepo) UpdateSandwich(ctx context.Context, id uuid.UUID, upd model.SandwichUpdate) (*model.Sandwich, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sandwiches[id]
	if !ok {
		return nil, repository.ErrSandwichNotFound
	}
	if upd.Name != nil {
		for otherID, other := range m.sandwiches {
			if otherID != id && other.Name == *upd.Name {
				return nil, fmt.Errorf("%w: %s", repository.ErrSandwichExists, *upd.Name)
			}
		}
		s.Name = *upd.Name
	}
	if upd.Description != nil {
		s.Description = *upd.Description
	}
	if upd.Price != nil {
		s.Price = *upd.Price
	}
	s.UpdatedAt = time.Now()
	m.sandwiches[id] = s
	return &s, nil
}

func (m *memRepo) DeleteSandwich(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if _, ok := m.sandwiches[id]; !ok {
		return repository.ErrSandwichNotFound
	}
	for _, it := range m.items {
		if it.SandwichID == id {
			return repository.ErrSandwichOrdered
		}
	}
	delete(m.sandwiches, id)
	return nil
}

func (m *memRepo) CountSandwiches(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.sandwiches)), nil
}

// CreateOrder проверяет всё до первой записи, поэтому неудача не оставляет следов.
func (m *memRepo) CreateOrder(ctx context.Context, p repository.CreateOrderParams) (*model.OrderSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	found := map[uuid.UUID]model.Sandwich{}
	for _, it := range p.Items {
		if s, ok := m.sandwiches[it.SandwichID]; ok {
			found[s.ID] = s
		}
	}
	distinct := map[uuid.UUID]struct{}{}
	for _, it := range p.Items {
		distinct[it.SandwichID] = struct{}{}
	}
	if len(found) < len(distinct) {
		return nil, repository.ErrSandwichesMissing
	}

	var user *model.User
	if p.UserID != nil {
		for _, u := range m.users {
			if u.ID == *p.UserID {
				u := u
				user = &u
			}
		}
		if user == nil {
			return nil, repository.ErrUserNotFound
		}
	} else {
		for _, u := range m.users {
			if u.Name == p.Placeholder.Name {
				u := u
				user = &u
				break
			}
		}
		if user == nil {
			created := *p.Placeholder
			if err := m.insertUser(&created); err != nil {
				return nil, err
			}
			user = &created
		}
	}

	order := model.Order{
		ID:        uuid.New(),
		UserID:    user.ID,
		Date:      p.Date,
		Status:    model.OrderStatusPending,
		CreatedAt: p.Date,
		UpdatedAt: p.Date,
	}
	m.orders = append(m.orders, order)

	items := make([]model.OrderItem, 0, len(p.Items))
	for _, in := range p.Items {
		it := model.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			SandwichID: in.SandwichID,
			Quantity:   in.Quantity,
			Price:      found[in.SandwichID].Price,
			CreatedAt:  p.Date,
		}
		items = append(items, it)
		m.items = append(m.items, it)
	}

	return &model.OrderSet{
		Orders:     []model.OrderDetails{{Order: order, User: *user, Items: items}},
		Sandwiches: found,
	}, nil
}

func (m *memRepo) ListOrders(ctx context.Context, f repository.OrderFilter) (*model.OrderSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	set := &model.OrderSet{Sandwiches: map[uuid.UUID]model.Sandwich{}}
	for _, o := range m.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.From != nil && o.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && !o.Date.Before(*f.To) {
			continue
		}

		d := model.OrderDetails{Order: o}
		for _, u := range m.users {
			if u.ID == o.UserID {
				d.User = model.User{ID: u.ID, Name: u.Name}
			}
		}
		for _, it := range m.items {
			if it.OrderID == o.ID {
				d.Items = append(d.Items, it)
				if s, ok := m.sandwiches[it.SandwichID]; ok {
					set.Sandwiches[s.ID] = s
				}
			}
		}
		set.Orders = append(set.Orders, d)
	}

	sort.SliceStable(set.Orders, func(i, j int) bool {
		if f.Descending {
			return set.Orders[i].Order.Date.After(set.Orders[j].Order.Date)
		}
		return set.Orders[i].Order.Date.Before(set.Orders[j].Order.Date)
	})
	return set, nil
}

func (m *memRepo) CountOrdersBetween(ctx context.Context, from, to time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, o := range m.orders {
		if !o.Date.Before(from) && o.Date.Before(to) {
			n++
		}
	}
	return n, nil
}

// addOrderAt записывает заказ с заданной датой в обход сервиса.
func (m *memRepo) addOrderAt(userID, sandwichID uuid.UUID, date time.Time) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	o := model.Order{ID: uuid.New(), UserID: userID, Date: date, Status: model.OrderStatusPending}
	m.orders = append(m.orders, o)
	m.items = append(m.items, model.OrderItem{
		ID:         uuid.New(),
		OrderID:    o.ID,
		SandwichID: sandwichID,
		Quantity:   1,
		Price:      m.sandwiches[sandwichID].Price,
	})
	return o
}
