package queue

import (
	"context"

	"github.com/RichGutz/Scraper.Neoauto/internal/domain"
)

// Queue hands each selected target to exactly one claimant. A buffered
// channel gives the single-claim guarantee for free: a receive is the claim.
type Queue struct {
	ch chan domain.ListingTarget
}

// New builds a Queue over an already-ordered selection.
func New(targets []domain.ListingTarget) *Queue {
	ch := make(chan domain.ListingTarget, len(targets))
	for _, t := range targets {
		ch <- t
	}
	close(ch)
	return &Queue{ch: ch}
}

// Claim returns the next unclaimed target. ok is false when the queue is
// drained or the context is cancelled.
func (q *Queue) Claim(ctx context.Context) (domain.ListingTarget, bool) {
	select {
	case <-ctx.Done():
		return domain.ListingTarget{}, false
	case t, open := <-q.ch:
		if !open {
			return domain.ListingTarget{}, false
		}
		return t, true
	}
}

// Len reports how many targets remain unclaimed.
func (q *Queue) Len() int { return len(q.ch) }
