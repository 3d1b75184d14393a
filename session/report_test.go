package session

import (
	"errors"
	"testing"
	"testing/synctest"
	"time"
)

// tuneToPlay drives the session to an active first play.
func tuneToPlay(t *testing.T, sess *Session, sub *Subscription) {
	t.Helper()
	if err := sess.Tune(); err != nil {
		t.Fatalf("Tune() = %v", err)
	}
	synctest.Wait()
	if sess.ActivePlay() == nil {
		t.Fatal("no active play after tune")
	}
	drain(sub.PlayActive)
	drain(sub.StateChanged)
}

func TestReportStarted_AcksAndPrefetches(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		tr.script("play",
			step{body: playBody("t1")},
			step{body: playBody("t2")},
		)
		tr.script("play/t1/start", step{body: startBody(true)})

		tuneToPlay(t, sess, sub)

		if err := sess.ReportStarted(); err != nil {
			t.Fatalf("ReportStarted() = %v", err)
		}
		synctest.Wait()

		started := recv(t, sub.PlayStarted, "PlayStarted")
		if started.ID != "t1" {
			t.Errorf("started play = %q, want t1", started.ID)
		}
		if !sess.HasActivePlayStarted() {
			t.Error("HasActivePlayStarted() = false after ack")
		}
		if !sess.CanSkip() {
			t.Error("CanSkip() = false, server granted skip")
		}
		if got := sess.State(); got != StatePlaying {
			t.Errorf("State() = %v, want Playing", got)
		}
		// The next play was pre-fetched and queued, not made current.
		if got := tr.count("play"); got != 2 {
			t.Errorf("play calls = %d, want 2", got)
		}
		noRecv(t, sub.PlayActive, "PlayActive")
	})
}

func TestReportStarted_AlreadyStartedCodeCountsAsAck(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		tr.script("play",
			step{body: playBody("t1")},
			step{body: playBody("t2")},
		)
		tr.script("play/t1/start", step{body: errorBody(20, "playback already started")})

		tuneToPlay(t, sess, sub)

		if err := sess.ReportStarted(); err != nil {
			t.Fatalf("ReportStarted() = %v", err)
		}
		synctest.Wait()

		recv(t, sub.PlayStarted, "PlayStarted")
		if !sess.HasActivePlayStarted() {
			t.Error("HasActivePlayStarted() = false")
		}
		// No retry, and the pre-fetch still runs.
		if got := tr.count("play/t1/start"); got != 1 {
			t.Errorf("start calls = %d, want 1", got)
		}
		if got := tr.count("play"); got != 2 {
			t.Errorf("play calls = %d, want 2", got)
		}
	})
}

func TestReportStarted_RetriesOnFixedCadence(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		tr.script("play",
			step{body: playBody("t1")},
			step{body: playBody("t2")},
		)
		tr.script("play/t1/start",
			step{body: genericBody},
			step{body: genericBody},
			step{body: startBody(false)},
		)

		tuneToPlay(t, sess, sub)

		if err := sess.ReportStarted(); err != nil {
			t.Fatalf("ReportStarted() = %v", err)
		}
		time.Sleep(10 * time.Second)
		synctest.Wait()

		calls := tr.callsTo("play/t1/start")
		if len(calls) != 3 {
			t.Fatalf("start calls = %d, want 3", len(calls))
		}
		for i := 1; i < 3; i++ {
			if got := calls[i].at.Sub(calls[i-1].at); got != 2*time.Second {
				t.Errorf("gap before start retry %d = %v, want 2s", i, got)
			}
		}
		recv(t, sub.PlayStarted, "PlayStarted")
		if sess.CanSkip() {
			t.Error("CanSkip() = true, server withheld skip")
		}
	})
}

func TestReportStarted_StaleSlotDiscarded(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		gate := make(chan struct{})
		tr.script("play/t1/start", step{body: startBody(true), gate: gate})

		tuneToPlay(t, sess, sub)

		if err := sess.ReportStarted(); err != nil {
			t.Fatalf("ReportStarted() = %v", err)
		}
		synctest.Wait()

		// The play is replaced while the ack is in flight.
		sess.SetStation("s2")
		synctest.Wait()
		drain(sub.PlayCompleted)
		before := tr.count("play")

		close(gate)
		synctest.Wait()

		noRecv(t, sub.PlayStarted, "PlayStarted")
		// No pre-fetch on behalf of the dead play.
		if got := tr.count("play"); got != before {
			t.Errorf("play calls = %d, want %d", got, before)
		}
	})
}

func TestReportCompleted_RequiresStartedPlay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, _, sub := newTestSession(t, Config{})

		if err := sess.ReportCompleted(); !errors.Is(err, ErrNoActivePlay) {
			t.Errorf("ReportCompleted() with no play = %v, want ErrNoActivePlay", err)
		}

		tuneToPlay(t, sess, sub)

		if err := sess.ReportCompleted(); !errors.Is(err, ErrPlayNotStarted) {
			t.Errorf("ReportCompleted() before start = %v, want ErrPlayNotStarted", err)
		}
	})
}

func TestReportCompleted_PromotesPendingPlay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		tr.script("play",
			step{body: playBody("t1")},
			step{body: playBody("t2")},
		)
		tr.script("play/t1/start", step{body: startBody(true)})
		tr.script("play/t1/complete", step{body: okBody})

		tuneToPlay(t, sess, sub)
		if err := sess.ReportStarted(); err != nil {
			t.Fatalf("ReportStarted() = %v", err)
		}
		synctest.Wait()

		if err := sess.ReportCompleted(); err != nil {
			t.Fatalf("ReportCompleted() = %v", err)
		}
		synctest.Wait()

		done := recv(t, sub.PlayCompleted, "PlayCompleted")
		if done.ID != "t1" {
			t.Errorf("completed play = %q, want t1", done.ID)
		}
		next := recv(t, sub.PlayActive, "PlayActive")
		if next.ID != "t2" {
			t.Errorf("promoted play = %q, want t2", next.ID)
		}
		// The queued play was promoted without another create-play call.
		if got := tr.count("play"); got != 2 {
			t.Errorf("play calls = %d, want 2", got)
		}
	})
}

func TestReportCompleted_WaitsForOutstandingRequest(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		gate := make(chan struct{})
		tr.script("play",
			step{body: playBody("t1")},
			step{body: playBody("t2"), gate: gate},
		)
		tr.script("play/t1/start", step{body: startBody(true)})
		tr.script("play/t1/complete", step{body: okBody})

		tuneToPlay(t, sess, sub)
		if err := sess.ReportStarted(); err != nil {
			t.Fatalf("ReportStarted() = %v", err)
		}
		synctest.Wait()

		// The pre-fetched request is still in flight when the play finishes.
		if err := sess.ReportCompleted(); err != nil {
			t.Fatalf("ReportCompleted() = %v", err)
		}
		synctest.Wait()

		recv(t, sub.PlayCompleted, "PlayCompleted")
		noRecv(t, sub.PlayActive, "PlayActive")
		noRecv(t, sub.PlaysExhausted, "PlaysExhausted")
		if sess.ActivePlay() != nil {
			t.Error("active play present while request outstanding")
		}

		// The outstanding request resolves and becomes the current play.
		close(gate)
		synctest.Wait()
		next := recv(t, sub.PlayActive, "PlayActive")
		if next.ID != "t2" {
			t.Errorf("active play = %q, want t2", next.ID)
		}
	})
}

func TestRequestSkip_DeniedWithoutPermission(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		tr.script("play",
			step{body: playBody("t1")},
			step{body: playBody("t2")},
		)
		tr.script("play/t1/start", step{body: startBody(false)})

		tuneToPlay(t, sess, sub)
		if err := sess.ReportStarted(); err != nil {
			t.Fatalf("ReportStarted() = %v", err)
		}
		synctest.Wait()

		if err := sess.RequestSkip(); err != nil {
			t.Fatalf("RequestSkip() = %v", err)
		}
		synctest.Wait()

		// Denied synchronously, no network traffic.
		recv(t, sub.SkipDenied, "SkipDenied")
		if got := tr.count("play/t1/skip"); got != 0 {
			t.Errorf("skip calls = %d, want 0", got)
		}
		if got := sess.ActivePlay(); got == nil || got.ID != "t1" {
			t.Errorf("active play = %v, want t1", got)
		}
	})
}

func TestRequestSkip_RequiresStartedPlay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, _, sub := newTestSession(t, Config{})
		tuneToPlay(t, sess, sub)

		if err := sess.RequestSkip(); !errors.Is(err, ErrPlayNotStarted) {
			t.Errorf("RequestSkip() before start = %v, want ErrPlayNotStarted", err)
		}
	})
}

func TestRequestSkip_PromotesPendingPlay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		tr.script("play",
			step{body: playBody("t1")},
			step{body: playBody("t2")},
		)
		tr.script("play/t1/start", step{body: startBody(true)})
		tr.script("play/t1/skip", step{body: okBody})

		tuneToPlay(t, sess, sub)
		if err := sess.ReportStarted(); err != nil {
			t.Fatalf("ReportStarted() = %v", err)
		}
		synctest.Wait()

		if err := sess.RequestSkip(); err != nil {
			t.Fatalf("RequestSkip() = %v", err)
		}
		synctest.Wait()

		done := recv(t, sub.PlayCompleted, "PlayCompleted")
		if done.ID != "t1" {
			t.Errorf("completed play = %q, want t1", done.ID)
		}
		next := recv(t, sub.PlayActive, "PlayActive")
		if next.ID != "t2" {
			t.Errorf("active play = %q, want t2", next.ID)
		}
		if got := tr.count("play"); got != 2 {
			t.Errorf("play calls = %d, want 2 (no extra request after skip)", got)
		}
	})
}

func TestRequestSkip_RefusalRevokesPermission(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		tr.script("play",
			step{body: playBody("t1")},
			step{body: playBody("t2")},
		)
		tr.script("play/t1/start", step{body: startBody(true)})
		tr.script("play/t1/skip", step{body: genericBody})

		tuneToPlay(t, sess, sub)
		if err := sess.ReportStarted(); err != nil {
			t.Fatalf("ReportStarted() = %v", err)
		}
		synctest.Wait()

		if err := sess.RequestSkip(); err != nil {
			t.Fatalf("RequestSkip() = %v", err)
		}
		synctest.Wait()

		recv(t, sub.SkipDenied, "SkipDenied")
		if sess.CanSkip() {
			t.Error("CanSkip() = true after server refusal")
		}
		if got := sess.ActivePlay(); got == nil || got.ID != "t1" {
			t.Errorf("active play = %v, want t1", got)
		}

		// The next attempt is denied locally.
		if err := sess.RequestSkip(); err != nil {
			t.Fatalf("second RequestSkip() = %v", err)
		}
		synctest.Wait()
		recv(t, sub.SkipDenied, "SkipDenied")
		if got := tr.count("play/t1/skip"); got != 1 {
			t.Errorf("skip calls = %d, want 1", got)
		}
	})
}

func TestRequestInvalidate_AllowedBeforeStart(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		tr.script("play",
			step{body: playBody("t1")},
			step{body: playBody("t2")},
		)
		tr.script("play/t1/invalidate", step{body: okBody})

		tuneToPlay(t, sess, sub)

		// Never started, no pre-fetch has run yet.
		if err := sess.RequestInvalidate(); err != nil {
			t.Fatalf("RequestInvalidate() = %v", err)
		}
		synctest.Wait()

		recv(t, sub.PlayCompleted, "PlayCompleted")
		// Invalidation kicked off a fresh request for the replacement.
		next := recv(t, sub.PlayActive, "PlayActive")
		if next.ID != "t2" {
			t.Errorf("active play = %q, want t2", next.ID)
		}
		if got := tr.count("play"); got != 2 {
			t.Errorf("play calls = %d, want 2", got)
		}
	})
}

func TestRequestInvalidate_PromotesPendingPlay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		tr.script("play",
			step{body: playBody("t1")},
			step{body: playBody("t2")},
		)
		tr.script("play/t1/start", step{body: startBody(true)})
		tr.script("play/t1/invalidate", step{body: okBody})

		tuneToPlay(t, sess, sub)
		if err := sess.ReportStarted(); err != nil {
			t.Fatalf("ReportStarted() = %v", err)
		}
		synctest.Wait()

		if err := sess.RequestInvalidate(); err != nil {
			t.Fatalf("RequestInvalidate() = %v", err)
		}
		synctest.Wait()

		next := recv(t, sub.PlayActive, "PlayActive")
		if next.ID != "t2" {
			t.Errorf("active play = %q, want t2", next.ID)
		}
		if got := tr.count("play"); got != 2 {
			t.Errorf("play calls = %d, want 2 (pending promoted, no new request)", got)
		}
	})
}

func TestRequestInvalidate_RetriesWithBackoff(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		tr.script("play",
			step{body: playBody("t1")},
			step{body: playBody("t2")},
		)
		tr.script("play/t1/invalidate",
			step{body: genericBody},
			step{body: genericBody},
			step{body: okBody},
		)

		tuneToPlay(t, sess, sub)
		if err := sess.RequestInvalidate(); err != nil {
			t.Fatalf("RequestInvalidate() = %v", err)
		}
		time.Sleep(5 * time.Second)
		synctest.Wait()

		calls := tr.callsTo("play/t1/invalidate")
		if len(calls) != 3 {
			t.Fatalf("invalidate calls = %d, want 3", len(calls))
		}
		wantGaps := []time.Duration{400 * time.Millisecond, 800 * time.Millisecond}
		for i, want := range wantGaps {
			if got := calls[i+1].at.Sub(calls[i].at); got != want {
				t.Errorf("gap before invalidate retry %d = %v, want %v", i+1, got, want)
			}
		}
		recv(t, sub.PlayCompleted, "PlayCompleted")
	})
}

func TestReportElapsed_FireAndForget(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sess, tr, sub := newTestSession(t, Config{})
		tr.script("play/t1/elapse", step{body: genericBody})

		tuneToPlay(t, sess, sub)

		if err := sess.ReportElapsed(30); err != nil {
			t.Fatalf("ReportElapsed() = %v", err)
		}
		synctest.Wait()

		calls := tr.callsTo("play/t1/elapse")
		if len(calls) != 1 {
			t.Fatalf("elapse calls = %d, want 1 (no retry)", len(calls))
		}
		if got := calls[0].form.Get("seconds"); got != "30" {
			t.Errorf("seconds = %q, want 30", got)
		}
		noRecv(t, sub.Error, "Error")
	})
}
