// Package filters implements the pluggable validation chain that gates
// incoming articles before they reach the ingestion queue.
package filters

import (
	"errors"
	"fmt"

	"github.com/go-while/nntp-ingestd/internal/auth"
	"github.com/go-while/nntp-ingestd/internal/config"
	"github.com/go-while/nntp-ingestd/internal/models"
	"github.com/go-while/nntp-ingestd/internal/storage"
)

// ErrRejected is the sentinel wrapped by every filter rejection, so
// callers can distinguish a policy rejection from a storage/auth error
// without string-matching the reason.
var ErrRejected = errors.New("filters: article rejected")

// RejectionError carries the filter name and human-readable reason for
// a validation failure. The protocol handler maps it to a wire
// response code without echoing backend-specific detail to the client.
type RejectionError struct {
	Filter string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Filter, e.Reason)
}

func (e *RejectionError) Unwrap() error { return ErrRejected }

func reject(filterName, reason string) error {
	return &RejectionError{Filter: filterName, Reason: reason}
}

// Filter is a single named validation gate. Filters are composed into
// an ordered Chain; the first error short-circuits the remaining
// filters.
type Filter interface {
	Name() string
	Validate(st storage.Storage, a auth.Auth, cfg config.Snapshot, msg *models.Message, size int64) error
}

// Chain is an ordered sequence of filters, run in declaration order.
type Chain []Filter

// Run executes every filter in order, stopping at the first error.
func (c Chain) Run(st storage.Storage, a auth.Auth, cfg config.Snapshot, msg *models.Message, size int64) error {
	for _, f := range c {
		if err := f.Validate(st, a, cfg, msg, size); err != nil {
			return err
		}
	}
	return nil
}
