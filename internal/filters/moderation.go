package filters

import (
	"fmt"

	"github.com/go-while/nntp-ingestd/internal/auth"
	"github.com/go-while/nntp-ingestd/internal/config"
	"github.com/go-while/nntp-ingestd/internal/models"
	"github.com/go-while/nntp-ingestd/internal/storage"
)

// ModerationFilter requires an Approved header on articles posted to a
// moderated group. It checks only header presence, not content or
// signature; control messages are not exempt (SPEC_FULL.md FULL-4.2).
type ModerationFilter struct{}

func (ModerationFilter) Name() string { return "ModerationFilter" }

func (ModerationFilter) Validate(st storage.Storage, _ auth.Auth, _ config.Snapshot, msg *models.Message, _ int64) error {
	for _, group := range msg.Newsgroups() {
		moderated, err := st.IsGroupModerated(group)
		if err != nil {
			return fmt.Errorf("ModerationFilter: %w", err)
		}
		if moderated && msg.Get("Approved") == "" {
			return reject("ModerationFilter", "group "+group+" is moderated and article carries no Approved header")
		}
	}
	return nil
}
