package storage

import (
	"sort"
	"sync"
)

// KV is the in-memory store shared by every session of a server.
type KV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewKeyVal() *KV {
	return &KV{
		data: make(map[string]string),
	}
}

// Put inserts key or overwrites its current value.
func (kv *KV) Put(key, value string) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = value
}

func (kv *KV) Get(key string) (string, bool) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	val, ok := kv.data[key]
	return val, ok
}

// Delete removes key and reports whether it was present.
func (kv *KV) Delete(key string) bool {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if _, ok := kv.data[key]; !ok {
		return false
	}
	delete(kv.data, key)
	return true
}

func (kv *KV) Keys() []string {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	keys := make([]string, 0, len(kv.data))
	for k := range kv.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

func (kv *KV) Len() int {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return len(kv.data)
}
