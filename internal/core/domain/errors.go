package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSourceNotFound = errors.New("source not found")
	ErrNoText         = errors.New("document text unavailable")
	ErrNoStandards    = errors.New("application has no standards")
	ErrBlobNotFound   = errors.New("blob not found")
	// ErrTaskAlreadyHandled aborts a run whose triggering task was already
	// transitioned by a concurrent delivery; the run rolls back as a no-op.
	ErrTaskAlreadyHandled = errors.New("async task already handled")
	ErrTemporary          = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
