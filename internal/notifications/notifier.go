// Package notifications queues cache invalidation work through Redis and runs
// the worker that consumes it.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// InvalidationQueue is the Redis list holding pending invalidation events.
const InvalidationQueue = "showcase:invalidations"

// EventKind names what changed.
type EventKind string

const (
	EventProject      EventKind = "project"
	EventCompetitions EventKind = "competitions"
	EventTags         EventKind = "tags"
)

// InvalidationEvent is one unit of queued invalidation work.
type InvalidationEvent struct {
	Kind      EventKind  `json:"kind"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	QueuedAt  time.Time  `json:"queued_at"`
}

// Handler processes one event.
type Handler func(ctx context.Context, ev InvalidationEvent)

// Notifier pushes invalidation events onto the Redis queue. Without Redis it
// hands events to a local handler, if one is set.
type Notifier struct {
	rdb   *redis.Client
	local Handler
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// WithLocalHandler sets the handler used when no Redis client is configured.
func (n *Notifier) WithLocalHandler(h Handler) *Notifier {
	n.local = h
	return n
}

// EnqueueInvalidate queues invalidation of a project and the pages that show it.
func (n *Notifier) EnqueueInvalidate(ctx context.Context, projectID uuid.UUID) error {
	return n.enqueue(ctx, InvalidationEvent{Kind: EventProject, ProjectID: &projectID})
}

// EnqueueCompetitionsChanged queues invalidation of the competition listings.
func (n *Notifier) EnqueueCompetitionsChanged(ctx context.Context) error {
	return n.enqueue(ctx, InvalidationEvent{Kind: EventCompetitions})
}

// EnqueueTagsChanged queues invalidation of the tag listings.
func (n *Notifier) EnqueueTagsChanged(ctx context.Context) error {
	return n.enqueue(ctx, InvalidationEvent{Kind: EventTags})
}

func (n *Notifier) enqueue(ctx context.Context, ev InvalidationEvent) error {
	if n == nil {
		return nil
	}
	ev.QueuedAt = time.Now().UTC()

	if n.rdb == nil {
		if n.local != nil {
			go safeHandle(context.WithoutCancel(ctx), n.local, ev)
		}
		return nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal invalidation event: %w", err)
	}
	return n.rdb.LPush(ctx, InvalidationQueue, payload).Err()
}

// StartInvalidationConsumer pops events from the queue and calls handle for each
// until ctx is cancelled. It returns immediately; the loop runs in a goroutine.
func (n *Notifier) StartInvalidationConsumer(ctx context.Context, handle Handler) error {
	if n == nil || n.rdb == nil {
		return nil
	}

	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			res, err := n.rdb.BRPop(ctx, time.Second, InvalidationQueue).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				slog.WarnContext(ctx, "invalidation queue read failed", slog.String("error", err.Error()))
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
				continue
			}
			// BRPOP replies with [queue, payload].
			if len(res) != 2 {
				continue
			}

			var ev InvalidationEvent
			if err := json.Unmarshal([]byte(res[1]), &ev); err != nil {
				slog.WarnContext(ctx, "dropping malformed invalidation event", slog.String("error", err.Error()))
				continue
			}
			safeHandle(ctx, handle, ev)
		}
	}()

	return nil
}

func safeHandle(ctx context.Context, handle Handler, ev InvalidationEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic in invalidation handler",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	handle(ctx, ev)
}
