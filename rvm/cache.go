package rvm

import (
	"fmt"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// cborEncMode encodes with canonical CBOR, the same mode the teacher's
// vm/dist package uses for its wire format, so cached entries are byte-
// stable across writers.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("rvm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ResultCache is the handle-keyed result cache of spec.md §8: results are
// stored under a caller-chosen key (the server's "cacheKey" request field),
// and a later ResolveType or ResolveTypeOf request carrying the same key is
// answered from the cache. rvm.ResolveTypeOf and the rvmctl run/resolve-of
// commands do not consult it. The in-memory tier is always active; the
// on-disk tier is opt-in via CacheConfig.Enabled, and a server started with
// it enabled reloads the entries an earlier server run persisted.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*Node
	path    string
}

// NewResultCache creates a cache. path may be empty, in which case
// PersistEntry/LoadPersisted are no-ops and the cache is purely in-memory.
func NewResultCache(path string) *ResultCache {
	return &ResultCache{entries: make(map[string]*Node), path: path}
}

// Get returns the cached node for key, if any.
func (c *ResultCache) Get(key string) (*Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.entries[key]
	return n, ok
}

// Put stores n under key in the in-memory tier only.
func (c *ResultCache) Put(key string, n *Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = n
}

// cacheEnvelope wraps one persisted entry with a correlation ID, mirroring
// how the teacher's dist package wraps each CBOR payload in a small typed
// envelope instead of encoding bare values.
type cacheEnvelope struct {
	RunID string
	Key   string
	Node  *Node
}

// PersistEntry appends key/n to the on-disk cache file as a length-prefixed
// CBOR envelope. A no-op if no path was configured.
func (c *ResultCache) PersistEntry(key string, n *Node) error {
	if c.path == "" {
		return nil
	}
	env := cacheEnvelope{RunID: uuid.NewString(), Key: key, Node: n}
	data, err := cborEncMode.Marshal(env)
	if err != nil {
		return fmt.Errorf("rvm: marshal cache entry: %w", err)
	}

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("rvm: open cache file: %w", err)
	}
	defer f.Close()

	var lenBuf [4]byte
	length := uint32(len(data))
	lenBuf[0], lenBuf[1], lenBuf[2], lenBuf[3] = byte(length), byte(length>>8), byte(length>>16), byte(length>>24)
	if _, err := f.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("rvm: write cache entry length: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("rvm: write cache entry: %w", err)
	}
	return nil
}

// LoadPersisted reads every envelope previously written by PersistEntry and
// populates the in-memory tier. A no-op if no path was configured or the
// file doesn't exist yet.
func (c *ResultCache) LoadPersisted() error {
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("rvm: read cache file: %w", err)
	}

	pos := 0
	for pos+4 <= len(data) {
		length := int(data[pos]) | int(data[pos+1])<<8 | int(data[pos+2])<<16 | int(data[pos+3])<<24
		pos += 4
		if length < 0 || pos+length > len(data) {
			break
		}
		var env cacheEnvelope
		if err := cbor.Unmarshal(data[pos:pos+length], &env); err != nil {
			return fmt.Errorf("rvm: unmarshal cache entry: %w", err)
		}
		pos += length
		c.Put(env.Key, env.Node)
	}
	return nil
}
