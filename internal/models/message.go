// Package models defines the core data structures shared by the
// validation, queueing, storage and protocol layers of the ingestion
// core.
package models

import "strings"

// Header is a single (name, value) pair. Message keeps headers in an
// ordered slice rather than a map so that header order survives a
// store/retrieve round trip (spec invariant: header order is
// preserved).
type Header struct {
	Name  string
	Value string
}

// Message is the parsed, in-memory representation of an article: an
// ordered sequence of header pairs plus a body. Header names compare
// case-insensitively.
type Message struct {
	Headers []Header
	Body    string
}

// Get returns the first value for the named header, case-insensitive,
// or "" if absent.
func (m *Message) Get(name string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// GetAll returns every value stored under the named header, in
// declaration order.
func (m *Message) GetAll(name string) []string {
	var out []string
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			out = append(out, h.Value)
		}
	}
	return out
}

// Set replaces every existing occurrence of name with a single header
// carrying value, appending it if the header was not already present.
func (m *Message) Set(name, value string) {
	out := m.Headers[:0]
	replaced := false
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			if replaced {
				continue
			}
			h.Value = value
			replaced = true
		}
		out = append(out, h)
	}
	m.Headers = out
	if !replaced {
		m.Headers = append(m.Headers, Header{Name: name, Value: value})
	}
}

// MessageID returns the Message-ID header verbatim (angle brackets
// included).
func (m *Message) MessageID() string {
	return m.Get("Message-ID")
}

// Newsgroups returns the comma-separated Newsgroups header split into
// trimmed, non-empty group names.
func (m *Message) Newsgroups() []string {
	return SplitNewsgroups(m.Get("Newsgroups"))
}

// SplitNewsgroups splits a raw Newsgroups header value into trimmed,
// non-empty group names, preserving declaration order.
func SplitNewsgroups(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	groups := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			groups = append(groups, p)
		}
	}
	return groups
}

// ControlAction is a parsed Control header: an action name (e.g.
// "cancel") and its argument (e.g. a target Message-ID).
type ControlAction struct {
	Action string
	Target string
}

// Control parses the Control header, if present. ok is false when the
// header is absent or has fewer than two whitespace-separated tokens;
// the action name is lower-cased but not checked against any list.
func (m *Message) Control() (ControlAction, bool) {
	raw := strings.TrimSpace(m.Get("Control"))
	if raw == "" {
		return ControlAction{}, false
	}
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return ControlAction{}, false
	}
	return ControlAction{
		Action: strings.ToLower(fields[0]),
		Target: fields[1],
	}, true
}

// IsControl reports whether the message carries a Control header that
// Control can parse (an action plus an argument).
func (m *Message) IsControl() bool {
	_, ok := m.Control()
	return ok
}

// QueuedArticle is a Message plus the ingestion metadata the queue and
// storage layer need: its wire size, whether it is a control message,
// and whether it has already passed the validation chain.
type QueuedArticle struct {
	Message          Message
	Size             int64
	IsControl        bool
	AlreadyValidated bool
}

// Group is a server-known newsgroup.
type Group struct {
	Name      string
	CreatedAt int64 // Unix seconds
	Moderated bool
}

// GroupArticle assigns a monotonic per-group article number to a
// stored message.
type GroupArticle struct {
	GroupName  string
	Number     int64
	MessageID  string
	InsertedAt int64 // Unix seconds
}
