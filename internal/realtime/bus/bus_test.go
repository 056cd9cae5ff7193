package bus

import (
	"context"
	"testing"

	"github.com/yungbote/octal-backend/internal/platform/logger"
	"github.com/yungbote/octal-backend/internal/realtime"
)

func TestMemoryBusDeliversToForwarders(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	var got []realtime.Message
	if err := b.StartForwarder(ctx, func(m realtime.Message) { got = append(got, m) }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	if err := b.StartForwarder(ctx, nil); err == nil {
		t.Fatalf("StartForwarder(nil): expected error")
	}

	msg := realtime.Message{Channel: "user:1", Event: realtime.EventKnowledgeChanged}
	if err := b.Publish(ctx, msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 1 || got[0].Event != realtime.EventKnowledgeChanged {
		t.Fatalf("forwarded: %+v", got)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewFromEnvWithoutRedisUsesMemory(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	b, err := NewFromEnv(logger.Nop())
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if _, ok := b.(*memoryBus); !ok {
		t.Fatalf("expected memory bus, got %T", b)
	}
}

func TestNewRedisBusRequiresAddress(t *testing.T) {
	if _, err := NewRedisBus("", "", logger.Nop()); err == nil {
		t.Fatalf("expected error for empty address")
	}
}
