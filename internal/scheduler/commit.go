package scheduler

import (
	"context"
	"sync"
)

// commitGate hands out submission turns in task ID order. A task submits its
// discovered links only once every task with a lower ID has submitted, so
// the IDs given to children and the point where the page budget runs out
// follow the link structure, not which page happened to finish first.
//
// Workers dequeue in ID order, so every lower ID is already held by some
// worker when a task waits here and the wait always ends.
type commitGate struct {
	mu   sync.Mutex
	cond *sync.Cond
	next int
}

func newCommitGate(firstID int) *commitGate {
	g := &commitGate{next: firstID}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// wait blocks until it is id's turn. It returns false when ctx is done
// first; the turn is then never taken.
func (g *commitGate) wait(ctx context.Context, id int) bool {
	stop := context.AfterFunc(ctx, func() {
		g.mu.Lock()
		g.cond.Broadcast()
		g.mu.Unlock()
	})
	defer stop()

	g.mu.Lock()
	defer g.mu.Unlock()
	for g.next != id {
		if ctx.Err() != nil {
			return false
		}
		g.cond.Wait()
	}
	return ctx.Err() == nil
}

// release passes the turn on to id+1.
func (g *commitGate) release(id int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.next == id {
		g.next++
		g.cond.Broadcast()
	}
}
