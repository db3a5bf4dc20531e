package job

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlxvideo/api/internal/model"
)

func TestNotifyDelivers(t *testing.T) {
	n := NewNotifier(zerolog.Nop())

	var got []model.Event
	n.Register("j1", func(ev model.Event) error {
		got = append(got, ev)
		return nil
	})

	n.Notify("j1", model.Event{Type: model.EventProgress})
	n.Notify("j2", model.Event{Type: model.EventProgress})

	require.Len(t, got, 1)
	assert.Equal(t, model.EventProgress, got[0].Type)
}

func TestRegisterReplacesPrevious(t *testing.T) {
	n := NewNotifier(zerolog.Nop())

	var first, second int
	n.Register("j1", func(model.Event) error { first++; return nil })
	n.Register("j1", func(model.Event) error { second++; return nil })

	n.Notify("j1", model.Event{Type: model.EventStatus})
	assert.Zero(t, first)
	assert.Equal(t, 1, second)
}

func TestStaleUnregisterLeavesSuccessor(t *testing.T) {
	n := NewNotifier(zerolog.Nop())

	var delivered int
	oldToken := n.Register("j1", func(model.Event) error { return nil })
	n.Register("j1", func(model.Event) error { delivered++; return nil })

	// The replaced subscriber tearing down late must not detach its
	// successor.
	n.Unregister("j1", oldToken)
	n.Notify("j1", model.Event{Type: model.EventStatus})
	assert.Equal(t, 1, delivered)
}

func TestUnregisterOwnToken(t *testing.T) {
	n := NewNotifier(zerolog.Nop())

	var delivered int
	token := n.Register("j1", func(model.Event) error { delivered++; return nil })
	n.Unregister("j1", token)

	n.Notify("j1", model.Event{Type: model.EventStatus})
	assert.Zero(t, delivered)
}

func TestSinkErrorSwallowed(t *testing.T) {
	n := NewNotifier(zerolog.Nop())

	n.Register("j1", func(model.Event) error { return errors.New("socket gone") })

	assert.NotPanics(t, func() {
		n.Notify("j1", model.Event{Type: model.EventProgress})
	})
}

func TestSinkPanicSwallowed(t *testing.T) {
	n := NewNotifier(zerolog.Nop())

	n.Register("j1", func(model.Event) error { panic("sink bug") })

	assert.NotPanics(t, func() {
		n.Notify("j1", model.Event{Type: model.EventProgress})
	})
}
