package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "luxrent/internal/app/outbox"
	"luxrent/internal/app/uow"
	domainbooking "luxrent/internal/domain/booking"
	domaincars "luxrent/internal/domain/cars"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

var errUnitClosed = errors.New("memory: unit of work already finished")

// Factory wires in-memory repositories into a unit-of-work boundary. Writes
// are staged on the unit and applied on Commit under a single lock.
type Factory struct {
	CarsRepo     *CarRepository
	RequestsRepo *RequestRepository
	Outbox       *Outbox

	commitMu sync.Mutex
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f == nil || f.CarsRepo == nil || f.RequestsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	u := &Unit{factory: f, readOnly: opts.ReadOnly}
	u.cars = &unitCars{unit: u, staged: map[domaincars.CarID]*domaincars.Car{}}
	u.requests = &unitRequests{unit: u, staged: map[domainbooking.RequestID]*domainbooking.Request{}}
	return u, nil
}

// Unit is a uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	factory  *Factory
	readOnly bool
	cars     *unitCars
	requests *unitRequests
	events   []appoutbox.EventRecord
	done     bool
}

func (u *Unit) Cars() domaincars.Repository {
	return u.cars
}

func (u *Unit) Requests() domainbooking.Repository {
	return u.requests
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return errUnitClosed
	}
	u.done = true
	if u.readOnly {
		return nil
	}
	f := u.factory
	f.commitMu.Lock()
	defer f.commitMu.Unlock()

	if err := u.checkVersions(); err != nil {
		return err
	}
	for _, car := range u.cars.order {
		if err := f.CarsRepo.Save(ctx, u.cars.staged[car]); err != nil {
			return err
		}
	}
	for _, id := range u.requests.order {
		if err := f.RequestsRepo.Save(ctx, u.requests.staged[id]); err != nil {
			return err
		}
	}
	if f.Outbox != nil {
		f.Outbox.append(u.events...)
	}
	return nil
}

// checkVersions fails the commit before anything is written when another unit
// already saved one of the staged aggregates.
func (u *Unit) checkVersions() error {
	for id, car := range u.cars.staged {
		if v, ok := u.factory.CarsRepo.version(id); ok && v != car.Version {
			return ErrConcurrentUpdate
		}
	}
	for id, req := range u.requests.staged {
		if v, ok := u.factory.RequestsRepo.version(id); ok && v != req.Version {
			return ErrConcurrentUpdate
		}
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.done = true
	u.events = nil
	return nil
}

func (u *Unit) stageEvent(rec appoutbox.EventRecord) {
	u.events = append(u.events, rec)
}

type unitCars struct {
	unit   *Unit
	staged map[domaincars.CarID]*domaincars.Car
	order  []domaincars.CarID
}

func (r *unitCars) ByID(ctx context.Context, id domaincars.CarID) (*domaincars.Car, error) {
	if car, ok := r.staged[id]; ok {
		return car.Clone(), nil
	}
	return r.unit.factory.CarsRepo.ByID(ctx, id)
}

func (r *unitCars) Save(ctx context.Context, car *domaincars.Car) error {
	if r.unit.readOnly {
		return errReadOnly
	}
	if _, ok := r.staged[car.ID]; !ok {
		r.order = append(r.order, car.ID)
	}
	r.staged[car.ID] = car.Clone()
	return nil
}

type unitRequests struct {
	unit   *Unit
	staged map[domainbooking.RequestID]*domainbooking.Request
	order  []domainbooking.RequestID
}

func (r *unitRequests) ByID(ctx context.Context, id domainbooking.RequestID) (*domainbooking.Request, error) {
	if req, ok := r.staged[id]; ok {
		return req.Clone(), nil
	}
	return r.unit.factory.RequestsRepo.ByID(ctx, id)
}

func (r *unitRequests) Save(ctx context.Context, req *domainbooking.Request) error {
	if r.unit.readOnly {
		return errReadOnly
	}
	if _, ok := r.staged[req.ID]; !ok {
		r.order = append(r.order, req.ID)
	}
	r.staged[req.ID] = req.Clone()
	return nil
}

func (r *unitRequests) ListPending(ctx context.Context) ([]*domainbooking.Request, error) {
	stored, err := r.unit.factory.RequestsRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Request, 0, len(stored))
	seen := make(map[domainbooking.RequestID]bool, len(stored))
	for _, req := range stored {
		seen[req.ID] = true
		if staged, ok := r.staged[req.ID]; ok {
			req = staged.Clone()
		}
		if req.Status == domainbooking.StatusPending {
			out = append(out, req)
		}
	}
	for id, staged := range r.staged {
		if !seen[id] && staged.Status == domainbooking.StatusPending {
			out = append(out, staged.Clone())
		}
	}
	sortRequests(out)
	return out, nil
}

var errReadOnly = errors.New("memory: read-only unit of work")

var _ uow.UnitOfWork = (*Unit)(nil)
