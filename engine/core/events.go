package core

import "sync"

type EventContext struct {
	Data struct {
		I32 [4]int32
		U32 [4]uint32
		F32 [4]float32
		// C[0] carries an image handle rendered as a string
		C [2]string
	}
}

// System internal event codes. Applications should use codes beyond MAX_EVENT_CODE.
type SystemEventCode int

const (
	// An image resource was created and registered.
	/* Context usage:
	 * handle = data.C[0]
	 * width  = data.I32[0]
	 * height = data.I32[1]
	 */
	EVENT_CODE_IMAGE_CREATED SystemEventCode = 0x01

	// An image resource was destroyed and deregistered.
	/* Context usage:
	 * handle = data.C[0]
	 */
	EVENT_CODE_IMAGE_DESTROYED SystemEventCode = 0x02

	// The GPU mirror of an image was re-uploaded.
	/* Context usage:
	 * handle = data.C[0]
	 * scaled = data.U32[0] (1 when the upload went through the POT rescale)
	 */
	EVENT_CODE_TEXTURE_SYNCED SystemEventCode = 0x03

	// The window surface changed size.
	/* Context usage:
	 * width  = data.I32[0]
	 * height = data.I32[1]
	 */
	EVENT_CODE_SURFACE_RESIZED SystemEventCode = 0x04

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

const MAX_MESSAGE_CODES = 1024

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listenerInst interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventSystem dispatches events to listeners. Each engine owns its own
// instance, created on init and torn down on shutdown.
type EventSystem struct {
	mu         sync.Mutex
	registered map[SystemEventCode][]*registeredEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
}

func (es *EventSystem) Shutdown() {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.registered = make(map[SystemEventCode][]*registeredEvent)
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listeners will not be registered again and will cause this to return false.
 * @param code The event code to listen for.
 * @param listener A listener instance. Can be nil.
 * @param onEvent The callback to be invoked when the event code is fired.
 * @returns true if the event is successfully registered; otherwise false.
 */
func (es *EventSystem) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if code < 0 || code >= MAX_MESSAGE_CODES || onEvent == nil {
		return false
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	for _, e := range es.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	es.registered[code] = append(es.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code.
 * @returns true if the listener was found and removed; otherwise false.
 */
func (es *EventSystem) Unregister(code SystemEventCode, listener interface{}) bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	events := es.registered[code]
	for i, e := range events {
		if e.listener == listener {
			es.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func (es *EventSystem) Fire(code SystemEventCode, sender interface{}, context EventContext) bool {
	es.mu.Lock()
	events := append([]*registeredEvent(nil), es.registered[code]...)
	es.mu.Unlock()

	for _, e := range events {
		if e.callback(code, sender, e.listener, context) {
			return true
		}
	}
	return false
}
