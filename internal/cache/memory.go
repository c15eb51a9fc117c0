package cache

import (
	"context"
	"sync"
)

// MemoryStore 是基于内存的Store实现，默认缓存后端
type MemoryStore struct {
	mu    sync.RWMutex
	entry *Entry
}

// NewMemoryStore 创建内存缓存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get 返回当前缓存条目
func (s *MemoryStore) Get(ctx context.Context) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry, nil
}

// Put 原子替换缓存条目
func (s *MemoryStore) Put(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = entry
	return nil
}

// Invalidate 清除缓存条目
func (s *MemoryStore) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = nil
	return nil
}
