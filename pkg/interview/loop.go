package interview

import "sync"

// Executor runs posted functions one at a time in posting order.
type Executor interface {
	// Post schedules f. It returns false once the executor is stopped.
	Post(f func()) bool

	// Stop rejects further posts. Functions already queued still run.
	Stop()
}

// serialLoop runs posted functions on a dedicated goroutine, started by
// the first Post.
type serialLoop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	started bool
	stopped bool
}

// NewSerialLoop returns an Executor backed by one goroutine. The goroutine
// starts with the first Post and exits after Stop once the queue drains, so
// a loop that never receives work holds no goroutine.
func NewSerialLoop() Executor {
	l := &serialLoop{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *serialLoop) Post(f func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return false
	}
	l.queue = append(l.queue, f)
	if !l.started {
		l.started = true
		go l.run()
	}
	l.cond.Signal()
	return true
}

func (l *serialLoop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.cond.Signal()
	l.mu.Unlock()
}

func (l *serialLoop) run() {
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.stopped {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		f := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()
		f()
	}
}

// InlineExecutor runs posted functions on the posting goroutine. A post made
// while another function is running is queued and runs after it, so order is
// preserved under reentrancy. It is meant for deterministic tests and for
// callers that already serialize access.
type InlineExecutor struct {
	mu      sync.Mutex
	queue   []func()
	running bool
	stopped bool
}

func (e *InlineExecutor) Post(f func()) bool {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return false
	}
	e.queue = append(e.queue, f)
	if e.running {
		e.mu.Unlock()
		return true
	}
	e.running = true
	for len(e.queue) > 0 {
		next := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()
		next()
		e.mu.Lock()
	}
	e.running = false
	e.mu.Unlock()
	return true
}

func (e *InlineExecutor) Stop() {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
}
