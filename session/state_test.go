package session

import (
	"testing"
	"testing/synctest"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateTuning, "Tuning"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{StateExhausted, "Exhausted"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_IsActive(t *testing.T) {
	for _, st := range []State{StateIdle, StateTuning, StateExhausted} {
		if st.IsActive() {
			t.Errorf("%v.IsActive() = true", st)
		}
	}
	for _, st := range []State{StatePlaying, StatePaused} {
		if !st.IsActive() {
			t.Errorf("%v.IsActive() = false", st)
		}
	}
}

func TestStateLocked_Derivation(t *testing.T) {
	tests := []struct {
		name            string
		exhausted       bool
		startedPlayback bool
		paused          bool
		want            State
	}{
		{"fresh session", false, false, true, StateIdle},
		{"tuning", false, false, false, StateTuning},
		{"playing", false, true, false, StatePlaying},
		{"paused", false, true, true, StatePaused},
		{"exhausted", true, false, false, StateExhausted},
		{"exhausted wins over playing", true, true, false, StateExhausted},
		{"exhausted wins over paused", true, true, true, StateExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{
				exhausted:       tt.exhausted,
				startedPlayback: tt.startedPlayback,
				paused:          tt.paused,
			}
			if got := s.stateLocked(); got != tt.want {
				t.Errorf("stateLocked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStateChanged_FullLifecycle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		tr.script("play",
			step{body: playBody("t1")},
			step{body: errorBody(9, "no more music")},
		)
		tr.script("play/t1/start", step{body: startBody(true)})
		tr.script("play/t1/complete", step{body: okBody})

		if err := sess.Tune(); err != nil {
			t.Fatalf("Tune() = %v", err)
		}
		synctest.Wait()
		change := recv(t, sub.StateChanged, "StateChanged")
		if change.Previous != StateIdle || change.Current != StateTuning {
			t.Errorf("transition = %v->%v, want Idle->Tuning", change.Previous, change.Current)
		}

		if err := sess.ReportStarted(); err != nil {
			t.Fatalf("ReportStarted() = %v", err)
		}
		synctest.Wait()
		change = recv(t, sub.StateChanged, "StateChanged")
		if change.Previous != StateTuning || change.Current != StatePlaying {
			t.Errorf("transition = %v->%v, want Tuning->Playing", change.Previous, change.Current)
		}

		sess.SetPaused(true)
		change = recv(t, sub.StateChanged, "StateChanged")
		if change.Current != StatePaused {
			t.Errorf("state after pause = %v, want Paused", change.Current)
		}
		recv(t, sub.PlayPaused, "PlayPaused")

		sess.SetPaused(false)
		change = recv(t, sub.StateChanged, "StateChanged")
		if change.Current != StatePlaying {
			t.Errorf("state after resume = %v, want Playing", change.Current)
		}
		recv(t, sub.PlayResumed, "PlayResumed")

		// The pre-fetch found nothing; completion exhausts the station.
		if err := sess.ReportCompleted(); err != nil {
			t.Fatalf("ReportCompleted() = %v", err)
		}
		synctest.Wait()
		change = recv(t, sub.StateChanged, "StateChanged")
		if change.Current != StateExhausted {
			t.Errorf("state after exhaustion = %v, want Exhausted", change.Current)
		}

		// A re-tune leaves the terminal state.
		tr.script("play", step{body: playBody("t3")})
		if err := sess.Tune(); err != nil {
			t.Fatalf("Tune() after exhaustion = %v", err)
		}
		synctest.Wait()
		change = recv(t, sub.StateChanged, "StateChanged")
		if change.Previous != StateExhausted || change.Current != StateTuning {
			t.Errorf("transition = %v->%v, want Exhausted->Tuning", change.Previous, change.Current)
		}
	})
}

func TestSetPaused_NoEventWhenUnchanged(t *testing.T) {
	sess, _, sub := newTestSession(t, Config{})

	// New sessions start paused.
	sess.SetPaused(true)
	noRecv(t, sub.PlayPaused, "PlayPaused")
	noRecv(t, sub.StateChanged, "StateChanged")

	sess.SetPaused(false)
	recv(t, sub.PlayResumed, "PlayResumed")
}
