package filters

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/go-while/nntp-ingestd/internal/config"
	"github.com/go-while/nntp-ingestd/internal/models"
)

// TestCancelLockHonored mirrors
// original_source/tests/integration/cancel_lock.rs: key "secret",
// Cancel-Lock = sha256:b64(sha256(b64(key))), Cancel-Key = sha256:b64(key).
func TestCancelLockHonored(t *testing.T) {
	st := newFakeStorage()
	st.addGroup("misc.test", false)

	key := "secret"
	keyB64 := base64.StdEncoding.EncodeToString([]byte(key))
	lockSum := sha256.Sum256([]byte(keyB64))
	lockB64 := base64.StdEncoding.EncodeToString(lockSum[:])

	original := &models.Message{Headers: []models.Header{
		{Name: "Message-ID", Value: "<a@test>"},
		{Name: "Newsgroups", Value: "misc.test"},
		{Name: "Cancel-Lock", Value: "sha256:" + lockB64},
	}}
	st.messages["<a@test>"] = original

	cancel := &models.Message{Headers: []models.Header{
		{Name: "Message-ID", Value: "<c@test>"},
		{Name: "Newsgroups", Value: "misc.test"},
		{Name: "Control", Value: "cancel <a@test>"},
		{Name: "Cancel-Key", Value: "sha256:" + keyB64},
	}}

	if err := (CancelLockFilter{}).Validate(st, nil, config.Config{}, cancel, 0); err != nil {
		t.Fatalf("expected cancel to be accepted, got %v", err)
	}
}

func TestCancelLockWrongKeyRejected(t *testing.T) {
	st := newFakeStorage()
	lockSum := sha256.Sum256([]byte(base64.StdEncoding.EncodeToString([]byte("secret"))))
	lockB64 := base64.StdEncoding.EncodeToString(lockSum[:])
	st.messages["<a@test>"] = &models.Message{Headers: []models.Header{
		{Name: "Message-ID", Value: "<a@test>"},
		{Name: "Cancel-Lock", Value: "sha256:" + lockB64},
	}}

	cancel := &models.Message{Headers: []models.Header{
		{Name: "Control", Value: "cancel <a@test>"},
		{Name: "Cancel-Key", Value: "sha256:" + base64.StdEncoding.EncodeToString([]byte("wrong"))},
	}}

	err := CancelLockFilter{}.Validate(st, nil, config.Config{}, cancel, 0)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected for a mismatched Cancel-Key, got %v", err)
	}
}

func TestCancelLockNoLockRejected(t *testing.T) {
	// SPEC_FULL.md FULL-4.1: a target with no Cancel-Lock cannot be
	// cancelled (fail closed).
	st := newFakeStorage()
	st.messages["<a@test>"] = &models.Message{Headers: []models.Header{
		{Name: "Message-ID", Value: "<a@test>"},
	}}
	cancel := &models.Message{Headers: []models.Header{
		{Name: "Control", Value: "cancel <a@test>"},
		{Name: "Cancel-Key", Value: "sha256:" + base64.StdEncoding.EncodeToString([]byte("secret"))},
	}}

	err := CancelLockFilter{}.Validate(st, nil, config.Config{}, cancel, 0)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected for a cancel target with no Cancel-Lock, got %v", err)
	}
}

func TestCancelLockUnknownTargetAccepted(t *testing.T) {
	// spec.md §4.5: cancel for an unknown id is accepted at the
	// protocol level; a no-op downstream.
	st := newFakeStorage()
	cancel := &models.Message{Headers: []models.Header{
		{Name: "Control", Value: "cancel <missing@test>"},
		{Name: "Cancel-Key", Value: "sha256:anything"},
	}}

	if err := (CancelLockFilter{}).Validate(st, nil, config.Config{}, cancel, 0); err != nil {
		t.Fatalf("expected acceptance of a cancel targeting an unknown id, got %v", err)
	}
}

func TestCancelLockNonCancelPassesThrough(t *testing.T) {
	st := newFakeStorage()
	msg := &models.Message{Headers: []models.Header{{Name: "Subject", Value: "hi"}}}
	if err := (CancelLockFilter{}).Validate(st, nil, config.Config{}, msg, 0); err != nil {
		t.Fatalf("expected non-control message to pass through, got %v", err)
	}
}
