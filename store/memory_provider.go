package store

import (
	"sync"
)

// MemoryProvider implements DatabaseProvider backed by an in-process map.
// Used when the node is configured without a storage directory, and in tests.
type MemoryProvider struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryProvider creates a new in-memory provider
func NewMemoryProvider() DatabaseProvider {
	return &MemoryProvider{data: make(map[string][]byte)}
}

func (p *MemoryProvider) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	value, ok := p.data[string(key)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (p *MemoryProvider) Put(key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	p.data[string(key)] = stored
	return nil
}

func (p *MemoryProvider) Delete(key []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.data, string(key))
	return nil
}

func (p *MemoryProvider) Has(key []byte) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.data[string(key)]
	return ok, nil
}

func (p *MemoryProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = make(map[string][]byte)
	return nil
}

func (p *MemoryProvider) Batch() DatabaseBatch {
	return &memoryBatch{provider: p}
}

type memoryOp struct {
	key    string
	value  []byte
	delete bool
}

type memoryBatch struct {
	provider *MemoryProvider
	ops      []memoryOp
}

func (b *memoryBatch) Put(key, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)
	b.ops = append(b.ops, memoryOp{key: string(key), value: stored})
}

func (b *memoryBatch) Delete(key []byte) {
	b.ops = append(b.ops, memoryOp{key: string(key), delete: true})
}

func (b *memoryBatch) Write() error {
	b.provider.mu.Lock()
	defer b.provider.mu.Unlock()
	for _, op := range b.ops {
		if op.delete {
			delete(b.provider.data, op.key)
		} else {
			b.provider.data[op.key] = op.value
		}
	}
	return nil
}

func (b *memoryBatch) Reset() {
	b.ops = nil
}

func (b *memoryBatch) Close() error {
	b.ops = nil
	return nil
}
