package filters

import (
	"github.com/go-while/nntp-ingestd/internal/auth"
	"github.com/go-while/nntp-ingestd/internal/models"
	"github.com/go-while/nntp-ingestd/internal/storage"
)

// fakeStorage is a minimal in-memory storage.Storage double for filter
// tests; only the methods filters actually call carry real behavior.
type fakeStorage struct {
	messages  map[string]*models.Message
	moderated map[string]bool
	exists    map[string]bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		messages:  make(map[string]*models.Message),
		moderated: make(map[string]bool),
		exists:    make(map[string]bool),
	}
}

func (f *fakeStorage) addGroup(name string, moderated bool) {
	f.exists[name] = true
	f.moderated[name] = moderated
}

func (f *fakeStorage) StoreArticle(msg *models.Message) error {
	f.messages[msg.MessageID()] = msg
	return nil
}

func (f *fakeStorage) GetArticleByID(id string) (*models.Message, bool, error) {
	m, ok := f.messages[id]
	return m, ok, nil
}

func (f *fakeStorage) GetArticleByNumber(string, int64) (*models.Message, bool, error) {
	return nil, false, nil
}

func (f *fakeStorage) AddGroup(name string, moderated bool) error {
	f.addGroup(name, moderated)
	return nil
}

func (f *fakeStorage) RemoveGroup(name string) error {
	delete(f.exists, name)
	delete(f.moderated, name)
	return nil
}

func (f *fakeStorage) IsGroupModerated(name string) (bool, error) {
	return f.moderated[name], nil
}

func (f *fakeStorage) GroupExists(name string) (bool, error) {
	return f.exists[name], nil
}

func (f *fakeStorage) ListGroups() (storage.Cursor[string], error)              { return nil, nil }
func (f *fakeStorage) ListGroupsSince(int64) (storage.Cursor[string], error)    { return nil, nil }
func (f *fakeStorage) ListGroupsWithTimes() (storage.Cursor[storage.GroupTime], error) {
	return nil, nil
}
func (f *fakeStorage) ListArticleNumbers(string) (storage.Cursor[int64], error) { return nil, nil }
func (f *fakeStorage) ListArticleIDs(string) (storage.Cursor[string], error)    { return nil, nil }
func (f *fakeStorage) ListArticleIDsSince(string, int64) (storage.Cursor[string], error) {
	return nil, nil
}
func (f *fakeStorage) GetMessageSize(string) (int64, bool, error)  { return 0, false, nil }
func (f *fakeStorage) PurgeGroupBefore(string, int64) error        { return nil }
func (f *fakeStorage) PurgeOrphanMessages() error                  { return nil }
func (f *fakeStorage) DeleteArticleByID(id string) error {
	delete(f.messages, id)
	return nil
}
func (f *fakeStorage) Close() error { return nil }

type fakeAuth struct{}

func (fakeAuth) Authenticate(string, string) (bool, error) { return true, nil }

var _ auth.Auth = fakeAuth{}
var _ storage.Storage = (*fakeStorage)(nil)
