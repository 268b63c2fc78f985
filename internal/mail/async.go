package mail

import (
	"context"
	"log"
	"time"
)

// sendTimeout is the max time allowed for a single async send.
const sendTimeout = 10 * time.Second

// SendAsync runs send in a goroutine with its own timeout so the caller is
// not blocked. Use from auth flows for fire-and-forget mail; errors are
// logged, never retried, and never reach the caller.
//
// The goroutine uses context.Background() so request cancellation does not
// abort an in-flight send.
func SendAsync(what string, send func(ctx context.Context) error) {
	if send == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			log.Printf("mail: async %s failed: %v", what, err)
		}
	}()
}
