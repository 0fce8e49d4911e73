package room

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pong-arena/internal/arena"
	"github.com/vovakirdan/pong-arena/internal/config"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func testOptions(mode Mode, playerCount int) Options {
	cfg := config.Default()
	return Options{
		Mode:        mode,
		PlayerCount: playerCount,
		Difficulty:  config.DifficultyMedium,
		Game:        cfg.Game,
		AI:          cfg.AI,
	}
}

func newTestRoom(t *testing.T, mode Mode, playerCount int) *Room {
	t.Helper()
	r := New("TEST42", testOptions(mode, playerCount), testLogger(), nil)
	t.Cleanup(r.Stop)
	return r
}

// awaitEvent drains a session until an event satisfies match.
func awaitEvent(t *testing.T, s *ChannelSession, what string, match func(Event) bool) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-s.Events():
			if match(evt) {
				return evt
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

// awaitStatus polls the room summary until it reports the wanted status.
func awaitStatus(t *testing.T, r *Room, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.Info().Status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room status = %q, want %q", r.Info().Status, want)
}

func TestJoinAssignsSeatsInOrder(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsHuman, 2)
	s1 := NewChannelSession("p1", 64)
	s2 := NewChannelSession("p2", 64)

	res1, err := r.AddPlayer("p1", "alice", s1)
	if err != nil {
		t.Fatalf("AddPlayer(p1) failed: %v", err)
	}
	if res1.Player.Seat != "left" || !res1.Host {
		t.Errorf("first joiner got %+v, want left seat and host", res1)
	}

	res2, err := r.AddPlayer("p2", "bob", s2)
	if err != nil {
		t.Fatalf("AddPlayer(p2) failed: %v", err)
	}
	if res2.Player.Seat != "right" || res2.Host || res2.Spectator {
		t.Errorf("second joiner got %+v, want right seat, not host", res2)
	}
	if len(res2.Players) != 2 {
		t.Errorf("roster has %d players, want 2", len(res2.Players))
	}
}

func TestJoinFullRoomBecomesSpectator(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsHuman, 2)
	r.AddPlayer("p1", "a", NewChannelSession("p1", 64))
	r.AddPlayer("p2", "b", NewChannelSession("p2", 64))

	s3 := NewChannelSession("p3", 64)
	res, err := r.AddPlayer("p3", "c", s3)
	if err != nil {
		t.Fatalf("AddPlayer(p3) failed: %v", err)
	}
	if !res.Spectator {
		t.Error("third joiner in a 2-player room should spectate")
	}
	if len(res.Players) != 2 {
		t.Errorf("spectator roster has %d players, want 2", len(res.Players))
	}
}

func TestStartRequiresReadyInHumanVsHuman(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsHuman, 2)
	s1 := NewChannelSession("p1", 64)
	s2 := NewChannelSession("p2", 64)
	r.AddPlayer("p1", "a", s1)
	r.AddPlayer("p2", "b", s2)

	if err := r.StartGame("p1"); err != ErrPlayersNotReady {
		t.Fatalf("StartGame before ready = %v, want ErrPlayersNotReady", err)
	}

	r.ToggleReady("p1")
	r.ToggleReady("p2")
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame after ready failed: %v", err)
	}

	evt := awaitEvent(t, s2, "gameStarted", func(e Event) bool {
		_, ok := e.(GameStartedEvent)
		return ok
	}).(GameStartedEvent)

	if evt.InitialState.Ball.X != 400 || evt.InitialState.Ball.Y != 400 {
		t.Errorf("initial ball = (%v,%v), want (400,400)",
			evt.InitialState.Ball.X, evt.InitialState.Ball.Y)
	}
	if evt.WinScore != 10 || evt.TickRate != 60 {
		t.Errorf("game config on wire = %d/%d, want 10/60", evt.WinScore, evt.TickRate)
	}
	awaitEvent(t, s1, "state", func(e Event) bool {
		_, ok := e.(StateEvent)
		return ok
	})
}

func TestStartRejectsNonHost(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsAI, 2)
	r.AddPlayer("p1", "a", NewChannelSession("p1", 64))
	r.AddPlayer("p2", "b", NewChannelSession("p2", 64))

	if err := r.StartGame("p2"); err != ErrNotHost {
		t.Errorf("StartGame by non-host = %v, want ErrNotHost", err)
	}
}

func TestStartFillsEmptySeatsWithAI(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsAI, 2)
	s1 := NewChannelSession("p1", 64)
	r.AddPlayer("p1", "a", s1)

	// Human vs AI starts without any ready gating
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	evt := awaitEvent(t, s1, "gameStarted", func(e Event) bool {
		_, ok := e.(GameStartedEvent)
		return ok
	}).(GameStartedEvent)

	if len(evt.Players) != 2 {
		t.Fatalf("started with %d players, want 2", len(evt.Players))
	}
	var aiSeats int
	for _, p := range evt.Players {
		if p.IsAI {
			aiSeats++
		}
	}
	if aiSeats != 1 {
		t.Errorf("%d AI seats, want 1", aiSeats)
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
	}{
		{"human_vs_human", ModeHumanVsHuman},
		{"human_vs_ai", ModeHumanVsAI},
		{"ai_vs_ai", ModeAIvsAI},
		{"", ModeHumanVsHuman},
		{"bogus", ModeHumanVsHuman},
	}
	for _, tc := range cases {
		if got := ParseMode(tc.in); got != tc.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAIvsAIStartsWithoutReady(t *testing.T) {
	r := newTestRoom(t, ModeAIvsAI, 2)
	s1 := NewChannelSession("p1", 128)
	r.AddPlayer("p1", "a", s1)

	// No ready gating outside human vs human
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	awaitEvent(t, s1, "gameStarted", func(e Event) bool {
		_, ok := e.(GameStartedEvent)
		return ok
	})
}

func TestAIvsAINonHostLeaveBackfills(t *testing.T) {
	r := newTestRoom(t, ModeAIvsAI, 2)
	s1 := NewChannelSession("p1", 128)
	r.AddPlayer("p1", "a", s1)
	r.AddPlayer("p2", "b", NewChannelSession("p2", 64))
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	awaitStatus(t, r, "playing")

	r.RemovePlayer("p2")

	awaitEvent(t, s1, "notice", func(e Event) bool {
		_, ok := e.(NoticeEvent)
		return ok
	})
	awaitStatus(t, r, "playing")

	var hasBackfill bool
	for _, p := range r.Info().Players {
		if p.ID == "ai_right" && p.IsAI {
			hasBackfill = true
		}
	}
	if !hasBackfill {
		t.Error("vacated seat was not back-filled by an AI player")
	}
}

func TestHostLeaveClosesRoom(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsHuman, 2)
	s2 := NewChannelSession("p2", 64)
	r.AddPlayer("p1", "a", NewChannelSession("p1", 64))
	r.AddPlayer("p2", "b", s2)

	res := r.RemovePlayer("p1")
	if !res.Closed {
		t.Fatal("host departure did not close the room")
	}

	evt := awaitEvent(t, s2, "gameEnded", func(e Event) bool {
		_, ok := e.(GameEndedEvent)
		return ok
	}).(GameEndedEvent)

	if evt.Winner != nil {
		t.Errorf("winner = %v, want nil", *evt.Winner)
	}
	if evt.Reason != EndReasonHostDisconnected {
		t.Errorf("reason = %q, want %q", evt.Reason, EndReasonHostDisconnected)
	}

	if _, err := r.AddPlayer("p3", "late", NewChannelSession("p3", 64)); err != ErrRoomClosed {
		t.Errorf("join after close = %v, want ErrRoomClosed", err)
	}
}

func TestNonHostLeavePausesHumanMatch(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsHuman, 2)
	s1 := NewChannelSession("p1", 64)
	r.AddPlayer("p1", "a", s1)
	r.AddPlayer("p2", "b", NewChannelSession("p2", 64))
	r.ToggleReady("p1")
	r.ToggleReady("p2")
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	awaitStatus(t, r, "playing")

	res := r.RemovePlayer("p2")
	if res.Closed || res.Empty {
		t.Errorf("non-host leave reported %+v", res)
	}

	awaitEvent(t, s1, "gamePaused", func(e Event) bool {
		_, ok := e.(GamePausedEvent)
		return ok
	})
	awaitStatus(t, r, "paused")
}

func TestNonHostLeaveBackfillsAISeat(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsAI, 3)
	s1 := NewChannelSession("p1", 128)
	r.AddPlayer("p1", "a", s1)
	r.AddPlayer("p2", "b", NewChannelSession("p2", 64))
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	awaitStatus(t, r, "playing")

	r.RemovePlayer("p2")

	awaitEvent(t, s1, "notice", func(e Event) bool {
		_, ok := e.(NoticeEvent)
		return ok
	})
	awaitStatus(t, r, "playing")

	var hasBackfill bool
	for _, p := range r.Info().Players {
		if p.ID == "ai_right" && p.IsAI {
			hasBackfill = true
		}
	}
	if !hasBackfill {
		t.Error("vacated seat was not back-filled by an AI player")
	}
}

func TestPauseResumeHostOnly(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsAI, 2)
	r.AddPlayer("p1", "a", NewChannelSession("p1", 64))
	r.AddPlayer("p2", "b", NewChannelSession("p2", 64))
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	awaitStatus(t, r, "playing")

	if err := r.PauseGame("p2"); err != ErrNotHost {
		t.Errorf("PauseGame by non-host = %v, want ErrNotHost", err)
	}
	if err := r.PauseGame("p1"); err != nil {
		t.Fatalf("PauseGame failed: %v", err)
	}
	awaitStatus(t, r, "paused")

	if err := r.ResumeGame("p1"); err != nil {
		t.Fatalf("ResumeGame failed: %v", err)
	}
	awaitStatus(t, r, "playing")
}

func TestEndGameAborts(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsAI, 2)
	s1 := NewChannelSession("p1", 128)
	r.AddPlayer("p1", "a", s1)
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	awaitStatus(t, r, "playing")

	if err := r.EndGame("p1"); err != nil {
		t.Fatalf("EndGame failed: %v", err)
	}
	evt := awaitEvent(t, s1, "gameEnded", func(e Event) bool {
		_, ok := e.(GameEndedEvent)
		return ok
	}).(GameEndedEvent)

	if evt.Winner != nil || evt.Reason != EndReasonEndedByHost {
		t.Errorf("got winner=%v reason=%q, want nil/%q", evt.Winner, evt.Reason, EndReasonEndedByHost)
	}
	if err := r.EndGame("p1"); err != ErrNoGame {
		t.Errorf("second EndGame = %v, want ErrNoGame", err)
	}
}

func TestRestartReplacesSimulation(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsAI, 2)
	s1 := NewChannelSession("p1", 128)
	r.AddPlayer("p1", "a", s1)
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	awaitStatus(t, r, "playing")

	if err := r.RestartGame("p1"); err != nil {
		t.Fatalf("RestartGame failed: %v", err)
	}
	awaitStatus(t, r, "playing")

	// The first gameStarted may still be queued; wait for the second one.
	started := 0
	evt := awaitEvent(t, s1, "second gameStarted", func(e Event) bool {
		if _, ok := e.(GameStartedEvent); ok {
			started++
		}
		return started == 2
	}).(GameStartedEvent)
	if evt.InitialState.Tick != 0 || evt.InitialState.Ball.X != 400 {
		t.Errorf("restarted initial state tick=%d ball.x=%v, want 0/400",
			evt.InitialState.Tick, evt.InitialState.Ball.X)
	}
	for _, score := range evt.InitialState.Scores {
		if score != 0 {
			t.Errorf("restarted match carries score %d", score)
		}
	}
}

type captureSaver struct {
	recs chan MatchRecord
}

func (c *captureSaver) SaveMatch(_ context.Context, rec MatchRecord) error {
	c.recs <- rec
	return nil
}

func TestFinishedMatchIsSaved(t *testing.T) {
	saver := &captureSaver{recs: make(chan MatchRecord, 1)}
	opts := testOptions(ModeHumanVsAI, 2)
	opts.Game.WinScore = 1
	r := New("SAVE01", opts, testLogger(), saver)
	t.Cleanup(r.Stop)

	s1 := NewChannelSession("p1", 256)
	r.AddPlayer("p1", "a", s1)
	if err := r.StartGame("p1"); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	// With a win score of 1 the AI rally ends quickly on its own
	select {
	case rec := <-saver.recs:
		if rec.RoomID != "SAVE01" || rec.WinnerSeat == "" {
			t.Errorf("saved record %+v", rec)
		}
		if rec.EndReason != EndReasonScoreLimit {
			t.Errorf("end reason = %q, want %q", rec.EndReason, EndReasonScoreLimit)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("match never finished")
	}

	evt := awaitEvent(t, s1, "gameEnded", func(e Event) bool {
		_, ok := e.(GameEndedEvent)
		return ok
	}).(GameEndedEvent)
	if evt.Winner == nil || evt.Reason != EndReasonScoreLimit {
		t.Errorf("gameEnded = %+v, want a winner and score_limit", evt)
	}
}

func TestAddAIPlayer(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsAI, 2)
	s1 := NewChannelSession("p1", 64)
	r.AddPlayer("p1", "a", s1)

	if err := r.AddAIPlayer(arena.SeatRight); err != nil {
		t.Fatalf("AddAIPlayer(right) failed: %v", err)
	}
	evt := awaitEvent(t, s1, "AI playerJoined", func(e Event) bool {
		pj, ok := e.(PlayerJoinedEvent)
		return ok && pj.Player.IsAI
	}).(PlayerJoinedEvent)
	if evt.Player.Seat != "right" || !evt.Player.Ready {
		t.Errorf("AI player = %+v, want ready right seat", evt.Player)
	}

	if err := r.AddAIPlayer(arena.SeatRight); err != ErrSeatUnavailable {
		t.Errorf("duplicate AddAIPlayer = %v, want ErrSeatUnavailable", err)
	}
	if err := r.AddAIPlayer(arena.SeatTop); err != ErrSeatUnavailable {
		t.Errorf("AddAIPlayer(top) in 2-player room = %v, want ErrSeatUnavailable", err)
	}

	// Toggling an AI player's ready flag is a no-op
	r.ToggleReady("ai_right")
	for _, p := range r.Info().Players {
		if p.IsAI && !p.Ready {
			t.Error("AI player lost its ready flag")
		}
	}
}

func TestIsEmptyIgnoresAIPlayers(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsAI, 2)
	if !r.IsEmpty() {
		t.Error("fresh room should be empty")
	}

	r.AddPlayer("p1", "a", NewChannelSession("p1", 64))
	r.AddAIPlayer(arena.SeatRight)
	if r.IsEmpty() {
		t.Error("room with a human should not be empty")
	}

	r.RemovePlayer("p1")
	// p1 was host, so the room closed; but emptiness is what the server
	// keys eviction on either way
	if !r.IsEmpty() {
		t.Error("AI-only room should count as empty")
	}
}

func TestHandleInputIgnoresSpectators(t *testing.T) {
	r := newTestRoom(t, ModeHumanVsHuman, 2)
	r.AddPlayer("p1", "a", NewChannelSession("p1", 64))
	r.AddPlayer("p2", "b", NewChannelSession("p2", 64))
	r.AddPlayer("p3", "c", NewChannelSession("p3", 64))

	// Must not panic or affect anything without a running game
	r.HandleInput("p3", arena.DirUp)
	r.HandleInput("p1", arena.DirUp)
}
