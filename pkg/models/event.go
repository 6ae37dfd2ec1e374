package models

import "time"

// EventKind identifies the type of an interaction event.
//
// The UI layer captures raw browser events and forwards them as typed
// Events; the engine dispatches on Kind and ignores payload fields that
// do not apply to the kind.
type EventKind string

const (
	EventPointerMove      EventKind = "pointer-move"
	EventPointerDown      EventKind = "pointer-down"
	EventClick            EventKind = "click"
	EventTouchStart       EventKind = "touch-start"
	EventTouchMove        EventKind = "touch-move"
	EventTouchEnd         EventKind = "touch-end"
	EventKeyDown          EventKind = "key-down"
	EventKeyUp            EventKind = "key-up"
	EventFocus            EventKind = "focus"
	EventBlur             EventKind = "blur"
	EventVisibilityChange EventKind = "visibility-change"
	EventPaste            EventKind = "paste"
	EventFieldInput       EventKind = "field-input"
)

// TouchPoint is one active contact in a touch event.
type TouchPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Event is a single interaction observation.
//
// Payload fields are kind-dependent:
//   - X/Y: pointer-move, pointer-down, click
//   - Touches: touch-start, touch-move, touch-end
//   - Field: focus, blur, field-input
//   - Value: field-input (current field content)
//   - ClipboardLen: paste
//   - Visible: visibility-change
//
// Unused fields are ignored. A malformed payload (e.g. a touch event with no
// touches) is tolerated; the unusable portion simply records nothing.
type Event struct {
	Kind EventKind `json:"kind"`
	Time time.Time `json:"time"`

	X       float64      `json:"x,omitempty"`
	Y       float64      `json:"y,omitempty"`
	Touches []TouchPoint `json:"touches,omitempty"`

	Field        string `json:"field,omitempty"`
	Value        string `json:"value,omitempty"`
	ClipboardLen int    `json:"clipboardLen,omitempty"`
	Visible      bool   `json:"visible,omitempty"`
}

// Interactive reports whether the event counts as a user interaction for
// first-interaction timing. Visibility changes are browser state, not input.
func (e Event) Interactive() bool {
	return e.Kind != EventVisibilityChange
}
