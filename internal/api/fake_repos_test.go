package api

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"commerce-service/internal/models"
	"commerce-service/internal/repository"
	"commerce-service/internal/validation"
)

// memStore mimics the postgres repositories: same validation, same
// constraint and cascade behaviour.
type memStore struct {
	mu       sync.Mutex
	users    map[int]models.User
	products map[int]models.Product
	orders   map[int]models.Order
	links    map[orderLink]bool
	nextID   map[string]int
}

// orderLink is one order_product row.
type orderLink struct {
	OrderID   int
	ProductID int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int]models.User{},
		products: map[int]models.Product{},
		orders:   map[int]models.Order{},
		links:    map[orderLink]bool{},
		nextID:   map[string]int{},
	}
}

func (s *memStore) id(kind string) int {
	s.nextID[kind]++
	return s.nextID[kind]
}

func (s *memStore) repositories() Repositories {
	return Repositories{
		Users:    memUsers{s},
		Products: memProducts{s},
		Orders:   memOrders{s},
	}
}

// int4Keys fails the way pgx does when an id does not fit an INTEGER column.
func int4Keys(ids ...int) error {
	for _, id := range ids {
		if id < math.MinInt32 || id > math.MaxInt32 {
			return fmt.Errorf("failed to encode id: %d is out of range for int4", id)
		}
	}
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	if err := validation.Struct(u); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, other := range r.s.users {
		if other.Email == u.Email {
			return repository.ErrIntegrity
		}
	}
	u.ID = r.s.id("users")
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(_ context.Context, id int) (*models.User, error) {
	if err := int4Keys(id); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) GetAll(_ context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []models.User{}
	for _, id := range sortedKeys(r.s.users) {
		out = append(out, r.s.users[id])
	}
	return out, nil
}

func (r memUsers) Update(_ context.Context, id int, patch models.UserPatch) (*models.User, error) {
	if err := int4Keys(id); err != nil {
		return nil, err
	}
	if patch.Email != nil {
		if err := validation.Email(*patch.Email); err != nil {
			return nil, err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.ClearAddress {
		u.Address = nil
	} else if patch.Address != nil {
		addr := *patch.Address
		u.Address = &addr
	}
	if patch.Email != nil {
		for otherID, other := range r.s.users {
			if otherID != id && other.Email == *patch.Email {
				return nil, repository.ErrEmailInUse
			}
		}
		u.Email = *patch.Email
	}
	if err := validation.Struct(u); err != nil {
		return nil, err
	}
	r.s.users[id] = u
	return &u, nil
}

func (r memUsers) Delete(_ context.Context, id int) error {
	if err := int4Keys(id); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	for orderID, o := range r.s.orders {
		if o.UserID == id {
			r.s.deleteOrderLocked(orderID)
		}
	}
	delete(r.s.users, id)
	return nil
}

func (r memUsers) FindByEmail(_ context.Context, email string, excludeID int) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range sortedKeys(r.s.users) {
		u := r.s.users[id]
		if u.Email == email && id != excludeID {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memProducts struct{ s *memStore }

func (r memProducts) Create(_ context.Context, p *models.Product) error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p.ID = r.s.id("products")
	r.s.products[p.ID] = *p
	return nil
}

func (r memProducts) GetByID(_ context.Context, id int) (*models.Product, error) {
	if err := int4Keys(id); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r memProducts) GetAll(_ context.Context) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []models.Product{}
	for _, id := range sortedKeys(r.s.products) {
		out = append(out, r.s.products[id])
	}
	return out, nil
}

func (r memProducts) Update(_ context.Context, id int, patch models.ProductPatch) (*models.Product, error) {
	if err := int4Keys(id); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.ProductName != nil {
		p.ProductName = *patch.ProductName
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	r.s.products[id] = p
	return &p, nil
}

func (r memProducts) Delete(_ context.Context, id int) error {
	if err := int4Keys(id); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return repository.ErrNotFound
	}
	for link := range r.s.links {
		if link.ProductID == id {
			delete(r.s.links, link)
		}
	}
	delete(r.s.products, id)
	return nil
}

type memOrders struct{ s *memStore }

func (s *memStore) deleteOrderLocked(id int) {
	for link := range s.links {
		if link.OrderID == id {
			delete(s.links, link)
		}
	}
	delete(s.orders, id)
}

func (s *memStore) projectLocked(id int) *models.Order {
	o := s.orders[id]
	o.Products = []models.Product{}
	for _, pid := range sortedKeys(s.products) {
		if s.links[orderLink{OrderID: id, ProductID: pid}] {
			o.Products = append(o.Products, s.products[pid])
		}
	}
	return &o
}

func (s *memStore) checkLinkLocked(orderID, productID int) error {
	if _, ok := s.orders[orderID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.products[productID]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r memOrders) Create(_ context.Context, o *models.Order) error {
	if err := int4Keys(o.UserID); err != nil {
		return err
	}
	if err := validation.Struct(o); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[o.UserID]; !ok {
		return validation.NewError("user_id", validation.MsgUnknownUser)
	}
	o.ID = r.s.id("orders")
	o.Products = []models.Product{}
	r.s.orders[o.ID] = *o
	return nil
}

func (r memOrders) GetByID(_ context.Context, id int) (*models.Order, error) {
	if err := int4Keys(id); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[id]; !ok {
		return nil, repository.ErrNotFound
	}
	return r.s.projectLocked(id), nil
}

func (r memOrders) GetByUserID(_ context.Context, userID int) ([]models.Order, error) {
	if err := int4Keys(userID); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return nil, repository.ErrNotFound
	}
	out := []models.Order{}
	for _, id := range sortedKeys(r.s.orders) {
		if r.s.orders[id].UserID == userID {
			out = append(out, *r.s.projectLocked(id))
		}
	}
	return out, nil
}

func (r memOrders) Delete(_ context.Context, id int) error {
	if err := int4Keys(id); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[id]; !ok {
		return repository.ErrNotFound
	}
	r.s.deleteOrderLocked(id)
	return nil
}

func (r memOrders) AddProduct(_ context.Context, orderID, productID int) (*models.Order, bool, error) {
	if err := int4Keys(orderID, productID); err != nil {
		return nil, false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkLinkLocked(orderID, productID); err != nil {
		return nil, false, err
	}
	link := orderLink{OrderID: orderID, ProductID: productID}
	added := !r.s.links[link]
	r.s.links[link] = true
	return r.s.projectLocked(orderID), added, nil
}

func (r memOrders) RemoveProduct(_ context.Context, orderID, productID int) (*models.Order, error) {
	if err := int4Keys(orderID, productID); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkLinkLocked(orderID, productID); err != nil {
		return nil, err
	}
	link := orderLink{OrderID: orderID, ProductID: productID}
	if !r.s.links[link] {
		return nil, repository.ErrNotInOrder
	}
	delete(r.s.links, link)
	return r.s.projectLocked(orderID), nil
}

func (r memOrders) GetProducts(_ context.Context, orderID int) ([]models.Product, error) {
	if err := int4Keys(orderID); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[orderID]; !ok {
		return nil, repository.ErrNotFound
	}
	return r.s.projectLocked(orderID).Products, nil
}
