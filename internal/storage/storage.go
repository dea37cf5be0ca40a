// Package storage defines the persistence boundary for the ingestion
// core: a Message keyed by Message-ID, shared across many groups, each
// assigning its own monotonic article number.
package storage

import (
	"errors"

	"github.com/go-while/nntp-ingestd/internal/models"
)

// ErrMissingMessageID is returned by StoreArticle when the message
// carries no Message-ID header.
var ErrMissingMessageID = errors.New("storage: missing Message-ID")

// GroupTime pairs a group name with its creation timestamp, as
// produced by ListGroupsWithTimes.
type GroupTime struct {
	Name      string
	CreatedAt int64
}

// Cursor is a lazy, finite, non-restartable sequence produced by a list
// operation. Next returns the next item, or ok=false once the sequence
// is exhausted (err is nil in that case) or a read error occurred (err
// is non-nil, ok is false). Callers must call Close when done, whether
// or not the cursor was read to completion.
type Cursor[T any] interface {
	Next() (item T, ok bool, err error)
	Close() error
}

// Storage is the persistence boundary the rest of the ingestion core
// depends on. A relational backend (SQLiteStorage) is provided; any
// implementation must honor the numbering, idempotency and orphan
// invariants described in spec.md §3-4.
type Storage interface {
	// StoreArticle idempotently inserts msg keyed by its Message-ID and
	// allocates a new per-group article number for every group named in
	// its Newsgroups header. Re-storing an already-known Message-ID is a
	// no-op for the messages row but still appends a new GroupArticle row
	// for every group named in the header, including groups the message
	// is already numbered in.
	StoreArticle(msg *models.Message) error

	// GetArticleByID returns the stored message for id, if any.
	GetArticleByID(id string) (msg *models.Message, found bool, err error)

	// GetArticleByNumber returns the message assigned number within
	// group, if any.
	GetArticleByNumber(group string, number int64) (msg *models.Message, found bool, err error)

	// AddGroup registers a group. Re-adding an existing group is a
	// no-op.
	AddGroup(name string, moderated bool) error

	// RemoveGroup deletes every GroupArticle for name, then the group
	// itself, then purges any message that became orphaned.
	RemoveGroup(name string) error

	IsGroupModerated(name string) (bool, error)
	GroupExists(name string) (bool, error)

	ListGroups() (Cursor[string], error)
	ListGroupsSince(since int64) (Cursor[string], error)
	ListGroupsWithTimes() (Cursor[GroupTime], error)

	ListArticleNumbers(group string) (Cursor[int64], error)
	ListArticleIDs(group string) (Cursor[string], error)
	ListArticleIDsSince(group string, since int64) (Cursor[string], error)

	// GetMessageSize returns the stored byte count for id, if present.
	GetMessageSize(id string) (size int64, found bool, err error)

	// PurgeGroupBefore deletes GroupArticle rows older than before;
	// it does not touch Messages.
	PurgeGroupBefore(group string, before int64) error

	// PurgeOrphanMessages deletes Messages referenced by no
	// GroupArticle.
	PurgeOrphanMessages() error

	// DeleteArticleByID removes every GroupArticle row for id and then
	// the Message row if nothing references it anymore. A cancel for an
	// unknown id is a no-op, not an error.
	DeleteArticleByID(id string) error

	Close() error
}
