package models

import (
	"reflect"
	"testing"
)

func TestMessageGetCaseInsensitive(t *testing.T) {
	m := &Message{Headers: []Header{
		{Name: "Message-ID", Value: "<a@test>"},
		{Name: "Subject", Value: "hello"},
	}}

	testCases := []struct {
		name string
		want string
	}{
		{"message-id", "<a@test>"},
		{"MESSAGE-ID", "<a@test>"},
		{"Subject", "hello"},
		{"X-Missing", ""},
	}

	for _, tc := range testCases {
		if got := m.Get(tc.name); got != tc.want {
			t.Errorf("Get(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestMessageSet(t *testing.T) {
	m := &Message{}
	m.Set("Subject", "first")
	m.Set("subject", "second")
	if got := m.Get("Subject"); got != "second" {
		t.Errorf("Get(Subject) = %q, want %q", got, "second")
	}
	if len(m.Headers) != 1 {
		t.Errorf("expected a single header after overwrite, got %d", len(m.Headers))
	}
}

func TestSplitNewsgroups(t *testing.T) {
	testCases := []struct {
		raw  string
		want []string
	}{
		{"misc.test", []string{"misc.test"}},
		{"misc.test, alt.test", []string{"misc.test", "alt.test"}},
		{" misc.test ,, alt.test ", []string{"misc.test", "alt.test"}},
		{"", nil},
	}
	for _, tc := range testCases {
		got := SplitNewsgroups(tc.raw)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitNewsgroups(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestMessageControl(t *testing.T) {
	m := &Message{Headers: []Header{{Name: "Control", Value: "cancel <a@test>"}}}
	ctl, ok := m.Control()
	if !ok {
		t.Fatal("expected Control header to parse")
	}
	if ctl.Action != "cancel" || ctl.Target != "<a@test>" {
		t.Errorf("Control() = %+v, want {cancel <a@test>}", ctl)
	}
	if !m.IsControl() {
		t.Error("IsControl() = false, want true")
	}

	plain := &Message{}
	if plain.IsControl() {
		t.Error("IsControl() = true for a message with no Control header")
	}
}
