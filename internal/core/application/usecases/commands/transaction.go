package commands

import (
	"context"
	"errors"
	"fmt"

	"dispatch/internal/pkg/errs"
)

// MaxConflictAttempts bounds how often a command re-reads and retries after
// losing a conditional update.
const MaxConflictAttempts = 5

// inTransaction runs fn in a fresh unit of work and commits it. Stores lock the
// orders fn reads, so concurrent commands on one order queue up. A conditional
// update can still lose to a write made outside a transaction; the attempt is
// then rolled back and fn runs again against freshly loaded state, where its
// preconditions are checked anew. A conflict never reaches the caller: once
// the attempts run out it is reported as a store failure.
func inTransaction(ctx context.Context, uowFactory UoWFactory, fn func(uow UoW) error) error {
	var err error
	for range MaxConflictAttempts {
		err = runOnce(ctx, uowFactory, fn)
		if !errors.Is(err, errs.ErrVersionConflict) {
			return err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return errs.NewStoreError("commit command",
		fmt.Errorf("gave up after %d conflicting attempts: %s", MaxConflictAttempts, err.Error()))
}

func runOnce(ctx context.Context, uowFactory UoWFactory, fn func(uow UoW) error) error {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := fn(uow); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
