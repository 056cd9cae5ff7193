package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/octal-backend/internal/observability"
	"github.com/yungbote/octal-backend/internal/platform/logger"
	"github.com/yungbote/octal-backend/internal/realtime"
	"github.com/yungbote/octal-backend/internal/realtime/bus"
)

// Emitter publishes a realtime message. Delivery is best-effort.
type Emitter interface {
	Emit(ctx context.Context, msg realtime.Message)
}

type busEmitter struct {
	bus     bus.Bus
	metrics *observability.Metrics
	log     *logger.Logger
}

func NewBusEmitter(b bus.Bus, metrics *observability.Metrics, log *logger.Logger) Emitter {
	return &busEmitter{bus: b, metrics: metrics, log: log.With("service", "BusEmitter")}
}

func (e *busEmitter) Emit(ctx context.Context, msg realtime.Message) {
	if e == nil || e.bus == nil {
		return
	}
	err := e.bus.Publish(ctx, msg)
	e.metrics.IncEventPublished(string(msg.Event), err)
	if err != nil {
		e.log.Warn("publish failed", "event", msg.Event, "channel", msg.Channel, "error", err)
	}
}

// LearnerNotifier tells a learner's open streams that their state moved.
type LearnerNotifier interface {
	KnowledgeChanged(ctx context.Context, userID uuid.UUID, conceptKey string, correct bool)
	MarksChanged(ctx context.Context, userID uuid.UUID, kind, conceptKey string, marked bool)
}

type learnerNotifier struct {
	emit Emitter
}

func NewLearnerNotifier(emit Emitter) LearnerNotifier {
	return &learnerNotifier{emit: emit}
}

func (n *learnerNotifier) KnowledgeChanged(ctx context.Context, userID uuid.UUID, conceptKey string, correct bool) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(ctx, realtime.Message{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.EventKnowledgeChanged,
		Data:    map[string]any{"concept": conceptKey, "correct": correct},
	})
}

func (n *learnerNotifier) MarksChanged(ctx context.Context, userID uuid.UUID, kind, conceptKey string, marked bool) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(ctx, realtime.Message{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.EventMarksChanged,
		Data:    map[string]any{"kind": kind, "concept": conceptKey, "marked": marked},
	})
}
