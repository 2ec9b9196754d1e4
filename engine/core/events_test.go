package core

import "testing"

func TestEventSystemFireOrder(t *testing.T) {
	es := NewEventSystem()
	var calls []string

	first := "first"
	second := "second"
	es.Register(EVENT_CODE_IMAGE_CREATED, first, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls = append(calls, listener.(string))
		return false
	})
	es.Register(EVENT_CODE_IMAGE_CREATED, second, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls = append(calls, listener.(string))
		return data.Data.I32[0] == 4
	})

	var ctx EventContext
	ctx.Data.I32[0] = 4
	if !es.Fire(EVENT_CODE_IMAGE_CREATED, nil, ctx) {
		t.Fatal("expected the event to be handled")
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected call order %v", calls)
	}
	if es.Fire(EVENT_CODE_IMAGE_DESTROYED, nil, ctx) {
		t.Error("event with no listeners reported handled")
	}
}

func TestEventSystemRegisterUnregister(t *testing.T) {
	es := NewEventSystem()
	noop := func(SystemEventCode, interface{}, interface{}, EventContext) bool { return true }

	if !es.Register(EVENT_CODE_SURFACE_RESIZED, "a", noop) {
		t.Fatal("first registration failed")
	}
	if es.Register(EVENT_CODE_SURFACE_RESIZED, "a", noop) {
		t.Fatal("duplicate listener registered")
	}
	if es.Register(EVENT_CODE_SURFACE_RESIZED, "b", nil) {
		t.Fatal("nil callback registered")
	}
	if !es.Register(EVENT_CODE_SURFACE_RESIZED, "b", noop) {
		t.Fatal("second listener rejected")
	}
	if !es.Unregister(EVENT_CODE_SURFACE_RESIZED, "a") {
		t.Fatal("unregister of known listener failed")
	}
	if es.Unregister(EVENT_CODE_SURFACE_RESIZED, "a") {
		t.Fatal("unregister twice succeeded")
	}
	if !es.Fire(EVENT_CODE_SURFACE_RESIZED, nil, EventContext{}) {
		t.Fatal("remaining listener not invoked")
	}
	es.Shutdown()
	if es.Fire(EVENT_CODE_SURFACE_RESIZED, nil, EventContext{}) {
		t.Fatal("listener survived shutdown")
	}
}
