package challenge

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

const memoryShards = 32

type memoryShard struct {
	mu    sync.Mutex
	items map[string]domain.OTPChallenge
}

// MemoryStore keeps challenges in process. Keys are spread over striped locks so
// that operations on one key are serialized without blocking unrelated keys.
type MemoryStore struct {
	shards [memoryShards]*memoryShard
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &memoryShard{items: make(map[string]domain.OTPChallenge)}
	}
	return s
}

func (s *MemoryStore) shard(key string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return s.shards[h.Sum32()%memoryShards]
}

func (s *MemoryStore) Put(ctx context.Context, c *domain.OTPChallenge) error {
	if err := validate(c); err != nil {
		return err
	}
	key := storeKey(c.Email, c.Purpose)
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	stored := *c
	stored.Attempts = 0
	sh.items[key] = stored
	return nil
}

func (s *MemoryStore) Verify(ctx context.Context, email string, purpose domain.OTPPurpose, codeHash string, now time.Time) (Outcome, error) {
	key := storeKey(email, purpose)
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	c, ok := sh.items[key]
	if !ok {
		return OutcomeNotFound, nil
	}
	if c.IsExpired(now) {
		delete(sh.items, key)
		return OutcomeExpired, nil
	}
	if hashesEqual(c.CodeHash, codeHash) {
		delete(sh.items, key)
		return OutcomeVerified, nil
	}
	c.Attempts++
	if !c.CanAttempt() {
		delete(sh.items, key)
		return OutcomeExhausted, nil
	}
	c.UpdatedAt = now
	sh.items[key] = c
	return OutcomeMismatch, nil
}

func (s *MemoryStore) Delete(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	key := storeKey(email, purpose)
	sh := s.shard(key)
	sh.mu.Lock()
	delete(sh.items, key)
	sh.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteIfHash(ctx context.Context, email string, purpose domain.OTPPurpose, codeHash string) error {
	key := storeKey(email, purpose)
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if c, ok := sh.items[key]; ok && hashesEqual(c.CodeHash, codeHash) {
		delete(sh.items, key)
	}
	return nil
}

func (s *MemoryStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var st Stats
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, c := range sh.items {
			st.Total++
			if c.IsExpired(now) {
				st.Expired++
			} else {
				st.Active++
			}
		}
		sh.mu.Unlock()
	}
	return st, nil
}

func (s *MemoryStore) PurgeExpired(ctx context.Context, before time.Time) (int, error) {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, c := range sh.items {
			if c.ExpiresAt.Before(before) {
				delete(sh.items, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}
