package embed

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"

	bolt "go.etcd.io/bbolt"
)

var cacheBucket = []byte("embeddings")

// Cache stores embeddings keyed by the sha256 digest of their source
// text, avoiding re-embedding unchanged symbols across Graph Builder
// runs. Flush is called once per successful Builder run; implementations
// that don't need it (MemoryCache) make it a no-op.
type Cache interface {
	Get(text string) ([]float32, bool)
	Put(text string, vector []float32)
	Flush() error
	Close() error
}

func digestKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// MemoryCache is the default, process-lifetime cache: an in-memory map
// guarded by a mutex, with no persistence across process runs.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]float32)}
}

func (c *MemoryCache) Get(text string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[digestKey(text)]
	return v, ok
}

func (c *MemoryCache) Put(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[digestKey(text)] = vector
}

func (c *MemoryCache) Flush() error { return nil }
func (c *MemoryCache) Close() error { return nil }

// BoltCache persists embeddings across process runs under MODEL_CACHE_DIR,
// so re-running the Graph Builder on an unchanged tree skips the OpenAI
// API entirely. Writes are serialized by bbolt's single-writer transaction
// model, so no additional locking is layered on top.
type BoltCache struct {
	db *bolt.DB
}

func NewBoltCache(path string) (*BoltCache, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("embed: opening bolt cache at %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("embed: initializing bolt cache bucket: %w", err)
	}
	return &BoltCache{db: db}, nil
}

func (c *BoltCache) Get(text string) ([]float32, bool) {
	key := []byte(digestKey(text))
	var vector []float32
	err := c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(cacheBucket).Get(key)
		if raw == nil {
			return nil
		}
		vector = decodeVector(raw)
		return nil
	})
	if err != nil || vector == nil {
		return nil, false
	}
	return vector, true
}

func (c *BoltCache) Put(text string, vector []float32) {
	key := []byte(digestKey(text))
	raw := encodeVector(vector)
	// Best-effort: a failed cache write degrades to a cache miss next run,
	// never to a pipeline error.
	_ = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put(key, raw)
	})
}

// Flush forces bbolt's internal state to stable storage. bbolt commits
// each Update transaction durably already; Flush exists so callers have
// a single symmetrical lifecycle hook across cache implementations.
func (c *BoltCache) Flush() error { return c.db.Sync() }

func (c *BoltCache) Close() error { return c.db.Close() }

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	n := len(buf) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
