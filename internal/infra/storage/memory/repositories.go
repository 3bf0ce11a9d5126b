package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"luxrent/internal/app/uow"
	domainbooking "luxrent/internal/domain/booking"
	domaincars "luxrent/internal/domain/cars"
)

// ErrConcurrentUpdate is returned when a save carries a stale version.
var ErrConcurrentUpdate = fmt.Errorf("memory: %w", uow.ErrConcurrentUpdate)

// CarRepository keeps the car catalog in memory. Aggregates are copied on the
// way in and out so callers never share state.
type CarRepository struct {
	mu    sync.RWMutex
	items map[domaincars.CarID]*domaincars.Car
}

func NewCarRepository() *CarRepository {
	return &CarRepository{items: make(map[domaincars.CarID]*domaincars.Car)}
}

func (r *CarRepository) ByID(ctx context.Context, id domaincars.CarID) (*domaincars.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	car, ok := r.items[id]
	if !ok {
		return nil, domaincars.ErrCarNotFound
	}
	return car.Clone(), nil
}

// Save stores the car when its version matches the stored one.
func (r *CarRepository) Save(ctx context.Context, car *domaincars.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.items[car.ID]; ok && current.Version != car.Version {
		return ErrConcurrentUpdate
	}
	car.Version++
	r.items[car.ID] = car.Clone()
	return nil
}

func (r *CarRepository) version(id domaincars.CarID) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	car, ok := r.items[id]
	if !ok {
		return 0, false
	}
	return car.Version, true
}

// List returns all cars ordered by id.
func (r *CarRepository) List(ctx context.Context) []*domaincars.Car {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domaincars.Car, 0, len(r.items))
	for _, car := range r.items {
		out = append(out, car.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RequestRepository stores booking requests in memory.
type RequestRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.RequestID]*domainbooking.Request
}

func NewRequestRepository() *RequestRepository {
	return &RequestRepository{items: make(map[domainbooking.RequestID]*domainbooking.Request)}
}

func (r *RequestRepository) ByID(ctx context.Context, id domainbooking.RequestID) (*domainbooking.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrRequestNotFound
	}
	return req.Clone(), nil
}

func (r *RequestRepository) Save(ctx context.Context, req *domainbooking.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.items[req.ID]; ok && current.Version != req.Version {
		return ErrConcurrentUpdate
	}
	req.Version++
	r.items[req.ID] = req.Clone()
	return nil
}

func (r *RequestRepository) version(id domainbooking.RequestID) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.items[id]
	if !ok {
		return 0, false
	}
	return req.Version, true
}

// ListPending returns pending requests, oldest first.
func (r *RequestRepository) ListPending(ctx context.Context) ([]*domainbooking.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Request, 0)
	for _, req := range r.items {
		if req.Status == domainbooking.StatusPending {
			out = append(out, req.Clone())
		}
	}
	sortRequests(out)
	return out, nil
}

func sortRequests(items []*domainbooking.Request) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

var (
	_ domaincars.Repository    = (*CarRepository)(nil)
	_ domainbooking.Repository = (*RequestRepository)(nil)
)
