package orchestrator

import "sync"

// pathLocks is a hashmap of path to mutex, protected by one lock,
// enforcing per-install-path write exclusivity: two pipelines can
// never write the same install path at once.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

func (p *pathLocks) lockFor(path string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.locks[path]
	if !ok {
		m = &sync.Mutex{}
		p.locks[path] = m
	}
	return m
}

// Acquire blocks until path's mutex is held, returning a release func.
func (p *pathLocks) Acquire(path string) func() {
	m := p.lockFor(path)
	m.Lock()
	return m.Unlock
}
