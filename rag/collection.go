package rag

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// collectionGuard resolves a remote collection once. Concurrent first
// callers share a single resolve; a failed resolve is not remembered, so the
// next call tries again.
type collectionGuard struct {
	resolve func(ctx context.Context) (string, error)

	mu    sync.Mutex
	ready bool
	id    string
	group singleflight.Group
}

func newCollectionGuard(resolve func(ctx context.Context) (string, error)) *collectionGuard {
	return &collectionGuard{resolve: resolve}
}

// get returns the collection id, resolving it on first use. The shared
// resolve is detached from any one caller's cancellation; each caller stops
// waiting when its own ctx is done.
func (g *collectionGuard) get(ctx context.Context) (string, error) {
	if id, ok := g.cached(); ok {
		return id, nil
	}
	ch := g.group.DoChan("ensure", func() (any, error) {
		if id, ok := g.cached(); ok {
			return id, nil
		}
		id, err := g.resolve(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}
		g.mu.Lock()
		g.id, g.ready = id, true
		g.mu.Unlock()
		return id, nil
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (g *collectionGuard) cached() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.id, g.ready
}

// reset forgets the resolved id, e.g. after the collection was deleted.
func (g *collectionGuard) reset() {
	g.mu.Lock()
	g.id, g.ready = "", false
	g.mu.Unlock()
}
