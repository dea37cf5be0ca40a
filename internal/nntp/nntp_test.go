package nntp

import (
	"net"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-while/nntp-ingestd/internal/config"
	"github.com/go-while/nntp-ingestd/internal/filters"
	"github.com/go-while/nntp-ingestd/internal/models"
	"github.com/go-while/nntp-ingestd/internal/queue"
	"github.com/go-while/nntp-ingestd/internal/storage"
)

// testHarness wires a Server over an in-memory net.Pipe connection, so
// tests can drive the wire protocol without binding a real socket.
type testHarness struct {
	t          *testing.T
	st         *storage.SQLiteStorage
	client     *textproto.Conn
	clientConn net.Conn
	cfg        *config.Store
	q          *queue.ArticleQueue
}

func newHarness(t *testing.T, cfg config.Config) *testHarness {
	t.Helper()
	st, err := storage.OpenSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	chain := filters.Chain{
		filters.SizeFilter{},
		filters.GroupExistenceFilter{},
		filters.ModerationFilter{},
		filters.CancelLockFilter{},
	}
	q := queue.NewArticleQueue(16)
	srv := NewServer(st, nil, config.NewStore(cfg), chain, q)

	serverConn, clientConn := net.Pipe()
	go func() {
		defer serverConn.Close()
		newConn(serverConn, srv).serve()
	}()

	client := textproto.NewConn(clientConn)
	t.Cleanup(func() { client.Close() })

	// Consume the greeting line.
	if _, err := client.ReadLine(); err != nil {
		t.Fatalf("read greeting: %v", err)
	}

	return &testHarness{t: t, st: st, client: client, clientConn: clientConn, cfg: config.NewStore(cfg), q: q}
}

func (h *testHarness) sendLine(line string) {
	h.t.Helper()
	if err := h.client.PrintfLine("%s", line); err != nil {
		h.t.Fatalf("send %q: %v", line, err)
	}
}

func (h *testHarness) expectLine(wantPrefix string) string {
	h.t.Helper()
	h.clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := h.client.ReadLine()
	if err != nil {
		h.t.Fatalf("read line: %v", err)
	}
	if !strings.HasPrefix(line, wantPrefix) {
		h.t.Fatalf("got %q, want prefix %q", line, wantPrefix)
	}
	return line
}

func (h *testHarness) sendArticle(lines []string) {
	h.t.Helper()
	for _, l := range lines {
		h.sendLine(l)
	}
	h.sendLine(".")
}

func TestScenarioSizeFilterRejectsOversize(t *testing.T) {
	h := newHarness(t, config.Config{GroupSettings: []config.GroupSetting{
		{Pattern: "*", MaxArticleBytes: int64(10)},
	}})
	h.st.AddGroup("misc.test", false)

	h.sendLine("IHAVE <1@test>")
	h.expectLine("335")
	h.sendArticle([]string{
		"Message-ID: <1@test>",
		"Newsgroups: misc.test",
		"From: a@test",
		"Subject: big",
		"",
		"0123456789A",
	})
	h.expectLine("437")

	if _, found, err := h.st.GetArticleByID("<1@test>"); err != nil || found {
		t.Fatalf("GetArticleByID after rejection: found=%v err=%v", found, err)
	}
}

func TestScenarioCancelLockHonored(t *testing.T) {
	h := newHarness(t, config.Config{})
	h.st.AddGroup("misc.test", false)

	original := &models.Message{Headers: []models.Header{
		{Name: "Message-ID", Value: "<a@test>"},
		{Name: "Newsgroups", Value: "misc.test"},
		{Name: "From", Value: "a@test"},
		{Name: "Subject", Value: "hi"},
		{Name: "Cancel-Lock", Value: "sha256:47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU="},
	}}
	if err := h.st.StoreArticle(original); err != nil {
		t.Fatalf("seed article: %v", err)
	}

	h.sendLine("IHAVE <c@test>")
	h.expectLine("335")
	h.sendArticle([]string{
		"Message-ID: <c@test>",
		"Newsgroups: misc.test",
		"From: a@test",
		"Subject: cancel",
		"Control: cancel <a@test>",
		"Cancel-Key: sha256:",
	})
	h.expectLine("235")

	if _, found, err := h.st.GetArticleByID("<a@test>"); err != nil || found {
		t.Fatalf("GetArticleByID after cancel: found=%v err=%v", found, err)
	}
}

func TestScenarioMissingRequiredHeader(t *testing.T) {
	h := newHarness(t, config.Config{})
	h.st.AddGroup("misc.test", false)

	h.sendLine("POST")
	h.expectLine("340")
	h.sendArticle([]string{
		"Subject: Test",
		"Newsgroups: misc.test",
		"",
		"Body",
	})
	h.expectLine("441")
}
