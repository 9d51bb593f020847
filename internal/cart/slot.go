package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Slot is one named key of durable storage holding the serialized cart
// state for a single session.
type Slot interface {
	Load(ctx context.Context) ([]byte, bool, error)
	Save(ctx context.Context, raw []byte) error
}

// SlotFactory resolves the slot for a session id.
type SlotFactory func(sessionID string) Slot

// Carts are kept for a month of inactivity, then the slot expires.
const slotTTL = 30 * 24 * time.Hour

type redisSlot struct {
	rdb *goredis.Client
	key string
}

// NewRedisSlotFactory builds slots backed by a shared redis client.
func NewRedisSlotFactory(rdb *goredis.Client) SlotFactory {
	return func(sessionID string) Slot {
		return NewRedisSlot(rdb, sessionID)
	}
}

// NewMemSlotFactory keeps one in-process slot per session id. It backs
// local development when no redis address is configured.
func NewMemSlotFactory() SlotFactory {
	var mu sync.Mutex
	slots := make(map[string]*MemSlot)
	return func(sessionID string) Slot {
		mu.Lock()
		defer mu.Unlock()
		s, ok := slots[sessionID]
		if !ok {
			s = NewMemSlot()
			slots[sessionID] = s
		}
		return s
	}
}

func NewRedisSlot(rdb *goredis.Client, sessionID string) Slot {
	return &redisSlot{rdb: rdb, key: "cart:" + sessionID}
}

func (s *redisSlot) Load(ctx context.Context) ([]byte, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *redisSlot) Save(ctx context.Context, raw []byte) error {
	return s.rdb.Set(ctx, s.key, raw, slotTTL).Err()
}

// MemSlot is the in-memory fallback used by tests and by deployments
// without a redis address configured.
type MemSlot struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

func NewMemSlot() *MemSlot {
	return &MemSlot{}
}

func (s *MemSlot) Load(ctx context.Context) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, false, nil
	}
	cp := make([]byte, len(s.data))
	copy(cp, s.data)
	return cp, true, nil
}

func (s *MemSlot) Save(ctx context.Context, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), raw...)
	s.set = true
	return nil
}
