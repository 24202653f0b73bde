package models

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var lastSeq atomic.Int64

// newID returns id unchanged, or a fresh UUID when it is empty.
func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// nextSeq returns a value strictly greater than any earlier one in this
// process, seeded from the wall clock in nanoseconds so that separate
// processes also interleave in insertion order.
func nextSeq() int64 {
	for {
		last := lastSeq.Load()
		next := time.Now().UnixNano()
		if next <= last {
			next = last + 1
		}
		if lastSeq.CompareAndSwap(last, next) {
			return next
		}
	}
}
