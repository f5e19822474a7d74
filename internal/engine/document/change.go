package document

import "sync"

// ChangeKind categorizes a raw content change.
type ChangeKind uint8

const (
	// ChangeFlush indicates the entire content was replaced.
	ChangeFlush ChangeKind = iota

	// ChangeLine indicates a single line was edited in place.
	ChangeLine

	// ChangeInsertLines indicates one or more lines were inserted.
	ChangeInsertLines

	// ChangeDeleteLines indicates one or more lines were deleted.
	ChangeDeleteLines
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeFlush:
		return "flush"
	case ChangeLine:
		return "line"
	case ChangeInsertLines:
		return "insert-lines"
	case ChangeDeleteLines:
		return "delete-lines"
	default:
		return "unknown"
	}
}

// Change is a raw content-change notification.
// Which positional fields are meaningful depends on Kind:
//
//   - ChangeFlush: none.
//   - ChangeLine: Line is the edited line.
//   - ChangeInsertLines: FromLine is the first inserted line, ToLine the last.
//   - ChangeDeleteLines: FromLine is the first deleted line, ToLine the last.
type Change struct {
	Kind     ChangeKind
	Line     uint32
	FromLine uint32
	ToLine   uint32

	// Version is the document content version after the mutation that
	// produced this change.
	Version uint64
}

// ChangeHandler receives change notifications.
type ChangeHandler func(Change)

// Subscription is a handle to an active change subscription.
// Cancel is idempotent and safe to call from within a handler.
type Subscription interface {
	Cancel()
}

// emitter delivers change notifications to registered handlers.
// Registration order is delivery order.
type emitter struct {
	mu     sync.Mutex
	nextID uint64
	order  []uint64
	subs   map[uint64]ChangeHandler
}

func newEmitter() *emitter {
	return &emitter{subs: make(map[uint64]ChangeHandler)}
}

func (e *emitter) subscribe(fn ChangeHandler) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.subs[id] = fn
	e.order = append(e.order, id)
	return &emitterSub{emitter: e, id: id}
}

func (e *emitter) cancel(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.subs[id]; !ok {
		return
	}
	delete(e.subs, id)
	for i, sid := range e.order {
		if sid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// emit invokes every registered handler with each change, in registration
// order. The handler list is snapshotted first so handlers may cancel
// subscriptions (their own included) during delivery.
func (e *emitter) emit(changes []Change) {
	if len(changes) == 0 {
		return
	}
	e.mu.Lock()
	handlers := make([]ChangeHandler, 0, len(e.order))
	ids := make([]uint64, 0, len(e.order))
	for _, id := range e.order {
		handlers = append(handlers, e.subs[id])
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, c := range changes {
		for i, fn := range handlers {
			e.mu.Lock()
			_, live := e.subs[ids[i]]
			e.mu.Unlock()
			if live {
				fn(c)
			}
		}
	}
}

type emitterSub struct {
	emitter *emitter
	id      uint64
}

func (s *emitterSub) Cancel() {
	s.emitter.cancel(s.id)
}
