package swruntime

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// memCacheStorage is an in-process CacheStorage built on go-cache. Each
// bucket maps URLs to response snapshots; entries never expire on their own
// because bucket lifetime is governed by version rollover, not TTLs.
type memCacheStorage struct {
	mu      sync.Mutex
	buckets map[string]*memBucket
}

// NewMemCacheStorage creates an empty in-process cache storage.
func NewMemCacheStorage() CacheStorage {
	return &memCacheStorage{buckets: make(map[string]*memBucket)}
}

func (s *memCacheStorage) Open(name string) (CacheBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buckets[name]; ok {
		return b, nil
	}
	b := &memBucket{entries: cache.New(cache.NoExpiration, 10*time.Minute)}
	s.buckets[name] = b
	return b, nil
}

func (s *memCacheStorage) Names() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	return names, nil
}

func (s *memCacheStorage) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buckets[name]; ok {
		b.entries.Flush()
		delete(s.buckets, name)
	}
	return nil
}

// memBucket stores responses keyed by URL. go-cache serializes access, so
// racing writers for the same key degrade to last-write-wins.
type memBucket struct {
	entries *cache.Cache
}

func (b *memBucket) Match(url string) (*Response, bool) {
	v, ok := b.entries.Get(url)
	if !ok {
		return nil, false
	}
	return v.(*Response), true
}

func (b *memBucket) Put(url string, resp *Response) {
	b.entries.Set(url, resp, cache.NoExpiration)
}
