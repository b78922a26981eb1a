package api

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/google/uuid"
	"github.com/samcharles93/psdwalk/pkg/psd"
)

const defaultStoreSize = 32

type entry struct {
	Path     string
	File     *psd.File
	OpenedAt time.Time
}

// DocumentStore is a bounded cache of open decoded documents keyed by
// handle id. Evicted and removed entries have their file mapping closed.
type DocumentStore struct {
	cache *lru.Cache[string, *entry]
}

func NewDocumentStore(size int) *DocumentStore {
	if size <= 0 {
		size = defaultStoreSize
	}
	cache, _ := lru.NewWithEvict(size, func(_ string, e *entry) {
		_ = e.File.Close()
	})
	return &DocumentStore{cache: cache}
}

// Add registers an open file and returns its handle id. Adding may evict
// (and close) the least recently used document.
func (s *DocumentStore) Add(path string, f *psd.File) string {
	id := "doc_" + uuid.NewString()
	s.cache.Add(id, &entry{Path: path, File: f, OpenedAt: time.Now()})
	return id
}

func (s *DocumentStore) Get(id string) (*entry, bool) {
	return s.cache.Get(id)
}

// Remove closes and drops the document. Reports whether it was present.
func (s *DocumentStore) Remove(id string) bool {
	return s.cache.Remove(id)
}

func (s *DocumentStore) List() []string {
	return s.cache.Keys()
}

// Close drops every open document.
func (s *DocumentStore) Close() {
	s.cache.Purge()
}
