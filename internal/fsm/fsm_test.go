package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateListening, next)

	next, err = Transition(next, EventStop)
	require.NoError(t, err)
	require.Equal(t, StateStopping, next)

	next, err = Transition(next, EventEnded)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionEngineEndWhileListeningGoesIdle(t *testing.T) {
	next, err := Transition(StateListening, EventEnded)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionFailKeepsListeningState(t *testing.T) {
	for _, state := range []State{StateIdle, StateListening, StateStopping} {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, state, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle stop invalid", state: StateIdle, event: EventStop, want: StateIdle, wantErr: true},
		{name: "idle rejected invalid", state: StateIdle, event: EventRejected, want: StateIdle, wantErr: true},
		{name: "listening start invalid", state: StateListening, event: EventStart, want: StateListening, wantErr: true},
		{name: "stopping start invalid", state: StateStopping, event: EventStart, want: StateStopping, wantErr: true},
		{name: "stopping stop invalid", state: StateStopping, event: EventStop, want: StateStopping, wantErr: true},
		{name: "listening rejected valid", state: StateListening, event: EventRejected, want: StateIdle, wantErr: false},
		{name: "idle spurious end valid", state: StateIdle, event: EventEnded, want: StateIdle, wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventStart)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}
