package uow

import (
	"context"

	domainbooking "luxrent/internal/domain/booking"
	domaincars "luxrent/internal/domain/cars"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Cars() domaincars.Repository
	Requests() domainbooking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}
