package katachi

import "reflect"

// EventBus delivers world lifecycle events to tooling such as editors and
// inspectors. Handlers run synchronously, in subscription order, on the
// goroutine that caused the event.
type EventBus struct {
	eventTypeMap map[reflect.Type]int
	handlers     [][]any
}

// Subscribe registers handler for events of type T.
func Subscribe[T any](bus *EventBus, handler func(T)) {
	t := reflect.TypeFor[T]()
	if bus.eventTypeMap == nil {
		bus.eventTypeMap = make(map[reflect.Type]int)
	}
	id, ok := bus.eventTypeMap[t]
	if !ok {
		id = len(bus.handlers)
		bus.eventTypeMap[t] = id
		bus.handlers = append(bus.handlers, make([]any, 0, 4))
	}
	bus.handlers[id] = append(bus.handlers[id], handler)
}

// Publish hands event to every handler subscribed to T.
func Publish[T any](bus *EventBus, event T) {
	if len(bus.handlers) == 0 {
		return
	}
	if id, ok := bus.eventTypeMap[reflect.TypeFor[T]()]; ok {
		for _, h := range bus.handlers[id] {
			h.(func(T))(event)
		}
	}
}

// EntityCreated is published after an entity's initializers ran.
type EntityCreated struct {
	Entity Entity
	Type   string
}

// EntityDestroyed is published after an entity's cleanups ran and its
// handle was freed.
type EntityDestroyed struct {
	Entity Entity
	Type   string
}

// EntityTypeChanged is published after an entity moved to another archetype.
type EntityTypeChanged struct {
	Entity Entity
	From   string
	To     string
}

// EntityActivated is published when an entity rejoins system updates.
type EntityActivated struct {
	Entity Entity
}

// EntityDeactivated is published when an entity leaves system updates.
type EntityDeactivated struct {
	Entity Entity
}

// DelayedFlushed is published once per flush of the delayed queue.
type DelayedFlushed struct {
	Queued  int
	Applied int
}
