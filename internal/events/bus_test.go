package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lunaria-app/lunaria/pkg/logger"
)

func TestBusSubscribeAndEmit(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	bus := NewBus(log)

	var got []*Event
	bus.Subscribe(SyncStarted, func(e *Event) {
		got = append(got, e)
	})

	bus.Emit(SyncStarted, "sync", map[string]interface{}{"trigger": "manual"})
	bus.Emit(SyncCompleted, "sync", nil) // no subscriber, must not panic

	assert.Len(t, got, 1)
	assert.Equal(t, SyncStarted, got[0].Type)
	assert.Equal(t, "sync", got[0].Module)
	assert.Equal(t, "manual", got[0].Data["trigger"])
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestBusEmitError(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	bus := NewBus(log)

	var got *Event
	bus.Subscribe(ErrorOccurred, func(e *Event) { got = e })

	bus.EmitError("sync", errors.New("boom"), map[string]interface{}{"step": "fetch"})

	assert.NotNil(t, got)
	assert.Equal(t, "boom", got.Data["error"])
	assert.Equal(t, "fetch", got.Data["step"])
}

func TestBusMultipleHandlers(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	bus := NewBus(log)

	count := 0
	bus.Subscribe(BackupCompleted, func(*Event) { count++ })
	bus.Subscribe(BackupCompleted, func(*Event) { count++ })

	bus.Emit(BackupCompleted, "reliability", nil)
	assert.Equal(t, 2, count)
}
