package filters

import (
	"fmt"

	"github.com/go-while/nntp-ingestd/internal/auth"
	"github.com/go-while/nntp-ingestd/internal/config"
	"github.com/go-while/nntp-ingestd/internal/models"
	"github.com/go-while/nntp-ingestd/internal/storage"
)

// GroupExistenceFilter rejects articles addressed to a newsgroup the
// server does not carry, grounded on
// original_source/src/filters/groups.rs.
type GroupExistenceFilter struct{}

func (GroupExistenceFilter) Name() string { return "GroupExistenceFilter" }

func (GroupExistenceFilter) Validate(st storage.Storage, _ auth.Auth, _ config.Snapshot, msg *models.Message, _ int64) error {
	for _, group := range msg.Newsgroups() {
		exists, err := st.GroupExists(group)
		if err != nil {
			return fmt.Errorf("GroupExistenceFilter: %w", err)
		}
		if !exists {
			return reject("GroupExistenceFilter", "group does not exist")
		}
	}
	return nil
}
