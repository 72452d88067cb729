package cache

import "sync"

type MemCache struct {
	mutex      *sync.RWMutex
	partitions map[string]map[string][]byte
}

// NewMemCache creates an in-memory partition provider.
// Useful for tests and for running the gateway without persistence.
func NewMemCache() MemCache {
	return MemCache{
		mutex:      &sync.RWMutex{},
		partitions: make(map[string]map[string][]byte),
	}
}

func (m MemCache) Put(partition, key string, bytes []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	entries, ok := m.partitions[partition]
	if !ok {
		entries = make(map[string][]byte)
		m.partitions[partition] = entries
	}
	entries[key] = bytes
	return nil
}

func (m MemCache) Get(partition, key string) ([]byte, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	bytes, ok := m.partitions[partition][key]
	return bytes, ok, nil
}

func (m MemCache) Has(partition, key string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.partitions[partition][key]
	return ok
}

func (m MemCache) Keys(partition string) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	keys := make([]string, 0, len(m.partitions[partition]))
	for key := range m.partitions[partition] {
		keys = append(keys, key)
	}
	return keys, nil
}

func (m MemCache) Partitions() ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	names := make([]string, 0, len(m.partitions))
	for name := range m.partitions {
		names = append(names, name)
	}
	return names, nil
}

func (m MemCache) DeletePartition(name string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.partitions, name)
	return nil
}

func (m MemCache) Purge(partition, key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.partitions[partition], key)
}
