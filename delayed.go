package katachi

import (
	"fmt"

	"go.uber.org/zap"
)

// delayedKind tags a queued structural change. It doubles as the per-entity
// pending tag.
type delayedKind uint8

const (
	delayedNone delayedKind = iota
	delayedDestroy
	delayedActivate
	delayedDeactivate
	delayedChangeType
)

func (k delayedKind) String() string {
	switch k {
	case delayedDestroy:
		return "destroy"
	case delayedActivate:
		return "activate"
	case delayedDeactivate:
		return "deactivate"
	case delayedChangeType:
		return "change type"
	default:
		return "none"
	}
}

type delayedOp struct {
	kind   delayedKind
	entity Entity
	target EntityTypeID
}

// enqueue appends op to the FIFO and tags the entity.
func (w *World) enqueue(op delayedOp) {
	w.slots[op.entity.handle.Index()].pending = op.kind
	w.delayed = append(w.delayed, op)
}

// queue validates e and enqueues a change unless a destroy is already
// pending or running for it, in which case the request is dropped.
func (w *World) queue(kind delayedKind, e Entity, target EntityTypeID) error {
	slot, _, _, err := w.resolve(e)
	if err != nil {
		return err
	}
	if slot.pending == delayedDestroy || slot.dying {
		return nil
	}
	w.enqueue(delayedOp{kind: kind, entity: e, target: target})
	return nil
}

// DestroyEntityDelayed marks e for destruction at the next flush. It is safe
// to call from a system update. Marking the same entity twice destroys it
// once.
func (w *World) DestroyEntityDelayed(e Entity) error {
	return w.queue(delayedDestroy, e, 0)
}

// ActivateDelayed activates e at the next flush.
func (w *World) ActivateDelayed(e Entity) error {
	return w.queue(delayedActivate, e, 0)
}

// DeactivateDelayed deactivates e at the next flush.
func (w *World) DeactivateDelayed(e Entity) error {
	return w.queue(delayedDeactivate, e, 0)
}

// ChangeTypeDelayed changes e's entity type at the next flush, after every
// system of the current tick has finished with its component pointers.
func (w *World) ChangeTypeDelayed(e Entity, entityType string) error {
	id, ok := w.ctx.entityTypes.lookup(entityType)
	if !ok {
		return fmt.Errorf("change type to %q: %w", entityType, ErrUnknownEntityType)
	}
	return w.queue(delayedChangeType, e, id)
}

// FlushDelayed applies every queued operation in FIFO order, including ones
// queued by callbacks during the flush, and returns how many took effect.
// RunSystems calls it after the last system; calling it from inside a system
// update is refused.
func (w *World) FlushDelayed() int {
	if w.destroyed || len(w.delayed) == 0 {
		return 0
	}
	if w.running {
		w.log.Error("contract violation: FlushDelayed during RunSystems")
		return 0
	}
	applied := 0
	i := 0
	for ; i < len(w.delayed); i++ {
		op := w.delayed[i]
		if w.handles.Valid(op.entity.handle) {
			w.slots[op.entity.handle.Index()].pending = delayedNone
		}
		var err error
		switch op.kind {
		case delayedDestroy:
			err = w.destroyEntity(op.entity)
		case delayedActivate:
			err = w.setActive(op.entity, true)
		case delayedDeactivate:
			err = w.setActive(op.entity, false)
		case delayedChangeType:
			err = w.changeType(op.entity, op.target)
		}
		if err != nil {
			w.log.Debug("delayed operation skipped",
				zap.Stringer("op", op.kind), zap.Stringer("entity", op.entity), zap.Error(err))
			continue
		}
		applied++
	}
	clear(w.delayed)
	w.delayed = w.delayed[:0]
	Publish(&w.events, DelayedFlushed{Queued: i, Applied: applied})
	return applied
}
