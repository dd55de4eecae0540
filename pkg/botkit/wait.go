package botkit

import (
	"context"
	"errors"
	"strings"

	"github.com/looplab/fsm"
)

// Input kinds a wait slot can expect.
const (
	WaitText     = InputText
	WaitPhoto    = InputPhoto
	WaitVideo    = InputVideo
	WaitAudio    = InputAudio
	WaitDocument = InputDocument
)

const (
	stateIdle   = "idle"
	statePrefix = "waiting_"
	eventClear  = "clear"
	eventPrefix = "await_"
)

var waitKinds = []InputKind{WaitText, WaitPhoto, WaitVideo, WaitAudio, WaitDocument}

// Collector consumes the input a wait slot was armed for.
type Collector func(s *Session, in Input) error

// waitSlot is the single per-user record of what input is expected next.
// Its state is idle or waiting_<kind>; arming replaces any previous wait.
type waitSlot struct {
	machine  *fsm.FSM
	variable string
	collect  Collector
}

func newWaitSlot() *waitSlot {
	states := []string{stateIdle}
	for _, k := range waitKinds {
		states = append(states, statePrefix+string(k))
	}
	events := fsm.Events{{Name: eventClear, Src: states, Dst: stateIdle}}
	for _, k := range waitKinds {
		events = append(events, fsm.EventDesc{Name: eventPrefix + string(k), Src: states, Dst: statePrefix + string(k)})
	}
	return &waitSlot{machine: fsm.NewFSM(stateIdle, events, fsm.Callbacks{})}
}

// fire runs event, treating a transition to the current state as success.
func (w *waitSlot) fire(ctx context.Context, event string) error {
	err := w.machine.Event(ctx, event)
	var same fsm.NoTransitionError
	if err != nil && !errors.As(err, &same) {
		return err
	}
	return nil
}

func (w *waitSlot) arm(ctx context.Context, kind InputKind, variable string, collect Collector) error {
	if err := w.fire(ctx, eventPrefix+string(kind)); err != nil {
		return err
	}
	w.variable = variable
	w.collect = collect
	return nil
}

func (w *waitSlot) clear(ctx context.Context) error {
	w.variable = ""
	w.collect = nil
	return w.fire(ctx, eventClear)
}

// expecting returns the awaited kind, if any.
func (w *waitSlot) expecting() (InputKind, bool) {
	kind, ok := strings.CutPrefix(w.machine.Current(), statePrefix)
	if !ok || w.collect == nil {
		return "", false
	}
	return InputKind(kind), true
}
