// Package postgres provides the GORM-based persistence layer of the order
// ledger: the unit of work coordinating ledger transactions and the ledger
// adapter the dispatch engine writes through.
//
// A unit of work binds one order record change and its milestone event into a
// single database transaction, so the durable history never shows a status
// without its event or the other way around.
//
// Basic usage:
//
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//
//	if err := uow.OrderRecordRepository().Update(ctx, a); err != nil {
//	    uow.Rollback(ctx)
//	    return err
//	}
//	if err := uow.DeliveryEventRepository().Append(ctx, event); err != nil {
//	    uow.Rollback(ctx)
//	    return err
//	}
//
//	return uow.Commit(ctx)
//
// Each business operation gets a fresh unit of work instance; instances are
// not safe for concurrent use.
package postgres

import (
	"context"

	"fueltrack/internal/adapters/out/postgres/deliveryeventrepo"
	"fueltrack/internal/adapters/out/postgres/orderrecordrepo"
	"fueltrack/internal/core/ports"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory creates UnitOfWork instances using a GORM database
// connection. The factory ensures each ledger write gets a fresh unit of work
// with proper isolation from other concurrent operations.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work
// instances. The provided database connection is shared by all instances.
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork ready for one ledger transaction.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db}
}

// GormUnitOfWork coordinates one ledger transaction using GORM's transaction
// support. Repositories obtained from it execute inside the current
// transaction when one is active, or directly against the connection
// otherwise.
type GormUnitOfWork struct {
	db *gorm.DB
	tx *gorm.DB
}

// Begin initiates a new database transaction. Repeated calls on the same
// instance are safe and do not create nested transactions.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit finalizes all changes made within the current transaction.
// Returns gorm.ErrInvalidTransaction when no transaction is active.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback discards all changes made within the current transaction.
// Returns gorm.ErrInvalidTransaction when no transaction is active.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

// OrderRecordRepository returns the order record repository bound to the
// current transaction.
func (uow *GormUnitOfWork) OrderRecordRepository() ports.OrderRecordRepository {
	return orderrecordrepo.NewGormOrderRecordRepository(uow.session())
}

// DeliveryEventRepository returns the delivery event repository bound to the
// current transaction.
func (uow *GormUnitOfWork) DeliveryEventRepository() ports.DeliveryEventRepository {
	return deliveryeventrepo.NewGormDeliveryEventRepository(uow.session())
}

func (uow *GormUnitOfWork) session() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}
