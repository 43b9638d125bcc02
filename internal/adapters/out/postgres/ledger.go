package postgres

import (
	"context"
	"fmt"
	"time"

	"fueltrack/internal/core/domain/model/assignment"
	"fueltrack/internal/core/ports"
)

// Ledger implements the order ledger on top of the unit of work: every write
// commits the order record and its milestone event atomically.
type Ledger struct {
	factory ports.UnitOfWorkFactory
}

// NewLedger creates a ledger over the given unit of work factory.
func NewLedger(factory ports.UnitOfWorkFactory) *Ledger {
	return &Ledger{factory: factory}
}

// RecordSubmitted persists a new order record together with its Pending
// milestone event.
func (l *Ledger) RecordSubmitted(ctx context.Context, a *assignment.OrderAssignment) error {
	event, err := assignment.NewDeliveryEvent(a.OrderID(), a.Status(), nil, time.Now())
	if err != nil {
		return fmt.Errorf("build submission event: %w", err)
	}

	return l.write(ctx, func(uow ports.UnitOfWork) error {
		if err := uow.OrderRecordRepository().Add(ctx, a); err != nil {
			return fmt.Errorf("add order record: %w", err)
		}
		if err := uow.DeliveryEventRepository().Append(ctx, event); err != nil {
			return fmt.Errorf("append submission event: %w", err)
		}
		return nil
	})
}

// RecordTransition persists an assignment state change and appends the
// corresponding milestone event.
func (l *Ledger) RecordTransition(ctx context.Context, a *assignment.OrderAssignment, event assignment.DeliveryEvent) error {
	return l.write(ctx, func(uow ports.UnitOfWork) error {
		if err := uow.OrderRecordRepository().Update(ctx, a); err != nil {
			return fmt.Errorf("update order record: %w", err)
		}
		if err := uow.DeliveryEventRepository().Append(ctx, event); err != nil {
			return fmt.Errorf("append milestone event: %w", err)
		}
		return nil
	})
}

func (l *Ledger) write(ctx context.Context, fn func(uow ports.UnitOfWork) error) error {
	uow := l.factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}

	if err := fn(uow); err != nil {
		_ = uow.Rollback(ctx)
		return err
	}

	return uow.Commit(ctx)
}
