package notifications

import (
	"context"
	"log/slog"

	"showcase/internal/cache"
	"showcase/internal/observability"
	"showcase/internal/webui"

	"go.opentelemetry.io/otel/attribute"
)

// InvalidationWorker drops cached listings and asks the frontend to rebuild pages.
type InvalidationWorker struct {
	revalidator *webui.Revalidator
}

// NewInvalidationWorker returns a worker. A nil revalidator only clears the cache.
func NewInvalidationWorker(revalidator *webui.Revalidator) *InvalidationWorker {
	return &InvalidationWorker{revalidator: revalidator}
}

// Handle processes one event. Failures are logged and counted, never returned.
func (w *InvalidationWorker) Handle(ctx context.Context, ev InvalidationEvent) {
	ctx, span := observability.StartSpan(ctx, "invalidation.handle", attribute.String("invalidation.kind", string(ev.Kind)))
	defer span.End()

	var paths []string
	switch ev.Kind {
	case EventProject:
		if ev.ProjectID == nil {
			observability.Invalidations.WithLabelValues("invalid").Inc()
			return
		}
		cache.InvalidateProject(ctx, *ev.ProjectID)
		paths = webui.ProjectPaths(*ev.ProjectID)
	case EventCompetitions:
		cache.InvalidateCompetitions(ctx)
		paths = []string{"/", "/competitions"}
	case EventTags:
		cache.InvalidateTags(ctx)
		paths = []string{"/projects"}
	default:
		observability.Invalidations.WithLabelValues("invalid").Inc()
		slog.WarnContext(ctx, "unknown invalidation event", slog.String("kind", string(ev.Kind)))
		return
	}

	if err := w.revalidator.Revalidate(ctx, paths); err != nil {
		observability.Invalidations.WithLabelValues("revalidate_failed").Inc()
		observability.RecordErrorInContext(ctx, err)
		observability.LogAsyncOperationError(ctx, "revalidate", err, slog.String("kind", string(ev.Kind)))
		return
	}
	observability.Invalidations.WithLabelValues("ok").Inc()
}

// Start runs the worker against the notifier's queue until ctx is cancelled.
func (w *InvalidationWorker) Start(ctx context.Context, n *Notifier) error {
	observability.LogAsyncOperationStart(ctx, "invalidation_consumer")
	return n.StartInvalidationConsumer(ctx, w.Handle)
}
