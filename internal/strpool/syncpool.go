package strpool

import "sync"

// SyncPool wraps Pool with a shared/exclusive lock, safe under any number of
// concurrent readers and writers. It is the pool variant shared across
// goroutines: the tagged gname pools in internal/names use it.
type SyncPool struct {
	mu   sync.RWMutex
	pool *Pool
}

// NewSync returns an empty thread-safe pool.
func NewSync() *SyncPool {
	return &SyncPool{pool: New()}
}

func (p *SyncPool) Insert(s string) (uint64, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pool.Insert(s)
}

func (p *SyncPool) InsertWithHash(s string, hash uint64) (uint64, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pool.InsertWithHash(s, hash)
}

func (p *SyncPool) Find(hash uint64) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pool.Find(hash)
}

func (p *SyncPool) At(i int) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pool.At(i)
}

func (p *SyncPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pool.Size()
}

func (p *SyncPool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pool.Stats()
}
