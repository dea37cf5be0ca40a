package filters

import (
	"github.com/go-while/nntp-ingestd/internal/auth"
	"github.com/go-while/nntp-ingestd/internal/config"
	"github.com/go-while/nntp-ingestd/internal/models"
	"github.com/go-while/nntp-ingestd/internal/storage"
)

// SizeFilter rejects articles that exceed the configured per-group
// article size limit, grounded on original_source/src/filters/size.rs.
type SizeFilter struct{}

func (SizeFilter) Name() string { return "SizeFilter" }

func (SizeFilter) Validate(_ storage.Storage, _ auth.Auth, cfg config.Snapshot, msg *models.Message, size int64) error {
	for _, group := range msg.Newsgroups() {
		max, ok := cfg.MaxSizeForGroup(group)
		if !ok {
			continue
		}
		if size > max {
			return reject("SizeFilter", "article too large for group "+group)
		}
	}
	return nil
}
