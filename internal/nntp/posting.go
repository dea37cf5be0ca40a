package nntp

import (
	"context"
	"errors"
	"log"

	"github.com/go-while/nntp-ingestd/internal/filters"
	"github.com/go-while/nntp-ingestd/internal/models"
)

// handlePost implements POST (spec.md §4.4): request an article, run
// the validation chain (including authentication gating), reply 240
// or 441.
func (c *Conn) handlePost() error {
	if c.server.auth != nil && !c.authenticated {
		return c.respond(codeAuthRequired, "authentication required for posting")
	}

	if err := c.respond(codeSendArticle, "send article to be posted. End with <CR-LF>.<CR-LF>"); err != nil {
		return err
	}

	msg, size, err := readArticle(c.tc)
	if err != nil {
		log.Printf("nntp: POST: %v", err)
		return c.respond(codePostingFailed, "posting failed")
	}

	if err := c.validateAndSubmit(msg, size); err != nil {
		log.Printf("nntp: POST %s: %v", msg.MessageID(), err)
		return c.respond(codePostingFailed, "posting failed")
	}
	return c.respond(codePostingOK, "article received")
}

// handleIHave implements IHAVE (spec.md §4.4): check for duplicates,
// request the article, validate, enqueue, reply.
func (c *Conn) handleIHave(args []string) error {
	if len(args) != 1 {
		return c.respond(codeSyntaxError, "IHAVE requires exactly one argument")
	}
	msgID := args[0]

	if _, found, err := c.server.storage.GetArticleByID(msgID); err != nil {
		log.Printf("nntp: IHAVE %s: lookup: %v", msgID, err)
		return c.respond(codeTransferFailed, "transfer failed; try again later")
	} else if found {
		return c.respond(codeNotWanted, "article not wanted")
	}

	if err := c.respond(codeSendIt, "Send it; end with <CR-LF>.<CR-LF>"); err != nil {
		return err
	}

	msg, size, err := readArticle(c.tc)
	if err != nil {
		log.Printf("nntp: IHAVE %s: %v", msgID, err)
		return c.respond(codeArticleRejected, "article rejected")
	}

	if err := c.validateAndSubmit(msg, size); err != nil {
		if errors.Is(err, filters.ErrRejected) {
			log.Printf("nntp: IHAVE %s: rejected: %v", msgID, err)
			return c.respond(codeArticleRejected, "article rejected")
		}
		log.Printf("nntp: IHAVE %s: %v", msgID, err)
		return c.respond(codeTransferFailed, "transfer failed; try again later")
	}
	return c.respond(codeTransferOK, "Article transferred OK")
}

// validateAndSubmit runs the validation chain and, on success,
// enqueues the article. Control messages (cancel) are handled
// synchronously against storage per spec.md §4.5 ("Cancel for unknown
// id: accepted at protocol level; no-op at storage") rather than
// through the queue, since deletion has no backpressure concern.
func (c *Conn) validateAndSubmit(msg *models.Message, size int64) error {
	cfg := c.server.config.Snapshot()
	if err := c.server.filters.Run(c.server.storage, c.server.auth, cfg, msg, size); err != nil {
		return err
	}

	if ctl, ok := msg.Control(); ok && ctl.Action == "cancel" {
		if err := c.server.storage.DeleteArticleByID(ctl.Target); err != nil {
			return err
		}
		return nil
	}

	qa := models.QueuedArticle{Message: *msg, Size: size}
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	return c.server.queue.SubmitWait(ctx, qa)
}
