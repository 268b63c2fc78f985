package events

import (
	"context"
	"log"
	"time"
)

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is
// not blocked. Use from auth flows for fire-and-forget events; errors are
// logged.
//
// producer and event may be nil; EmitAsync returns immediately without
// starting a goroutine. The goroutine uses context.Background() so request
// cancellation does not abort an in-flight emit.
func EmitAsync(producer Producer, event *Event) {
	if producer == nil || event == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := producer.Emit(ctx, event); err != nil {
			log.Printf("events: async emit failed: %v", err)
		}
	}()
}
