package bus

import (
	"context"
	"sync"

	"github.com/yungbote/octal-backend/internal/realtime"
)

// Bus carries realtime messages between server instances.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}

// memoryBus delivers in-process; used when REDIS_ADDR is unset.
type memoryBus struct {
	mu        sync.RWMutex
	listeners []func(realtime.Message)
}

func NewMemoryBus() Bus { return &memoryBus{} }

func (b *memoryBus) Publish(_ context.Context, msg realtime.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.listeners {
		fn(msg)
	}
	return nil
}

func (b *memoryBus) StartForwarder(_ context.Context, onMsg func(m realtime.Message)) error {
	if onMsg == nil {
		return errNoCallback
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, onMsg)
	b.mu.Unlock()
	return nil
}

func (b *memoryBus) Close() error { return nil }
