package nntp

import (
	"fmt"
	"net/textproto"
	"strings"

	"github.com/go-while/nntp-ingestd/internal/models"
)

// requiredHeaders are the headers whose absence fails article framing
// with 441 (POST) / 437 (IHAVE), per spec.md §4.4.
var requiredHeaders = []string{"Message-ID", "From", "Subject", "Newsgroups"}

// errMissingHeader is returned by readArticle when a required header
// is absent.
type errMissingHeader struct{ name string }

func (e *errMissingHeader) Error() string {
	return fmt.Sprintf("article missing required header %q", e.name)
}

// readArticle reads a dot-stuffed article off tc until the lone "."
// terminator, per spec.md §4.4's framing rules: a leading dot on a
// line is stripped (dot-unstuffing), header continuation lines begin
// with whitespace and are joined to the previous header value with a
// single space, and the reported size is the byte count of the
// unstuffed article as presented downstream.
func readArticle(tc *textproto.Conn) (*models.Message, int64, error) {
	var headers []models.Header
	var bodyLines []string
	inHeaders := true
	var lastIdx = -1
	var size int64

	for {
		line, err := tc.ReadLine()
		if err != nil {
			return nil, 0, fmt.Errorf("read article line: %w", err)
		}
		if line == "." {
			break
		}

		raw := line
		if strings.HasPrefix(line, ".") {
			line = line[1:]
		}
		size += int64(len(line)) + 2 // + CRLF

		if inHeaders {
			if line == "" {
				inHeaders = false
				continue
			}
			if (raw[0] == ' ' || raw[0] == '\t') && lastIdx >= 0 {
				headers[lastIdx].Value += " " + strings.TrimSpace(line)
				continue
			}
			colon := strings.IndexByte(line, ':')
			if colon < 0 {
				continue
			}
			name := strings.TrimSpace(line[:colon])
			value := strings.TrimSpace(line[colon+1:])
			headers = append(headers, models.Header{Name: name, Value: value})
			lastIdx = len(headers) - 1
			continue
		}
		bodyLines = append(bodyLines, line)
	}

	msg := &models.Message{Headers: headers, Body: strings.Join(bodyLines, "\r\n")}
	for _, name := range requiredHeaders {
		if msg.Get(name) == "" {
			return nil, 0, &errMissingHeader{name: name}
		}
	}
	return msg, size, nil
}
