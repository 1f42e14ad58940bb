package app_test

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"escape-room-service/internal/app"
	"escape-room-service/internal/domain"
	"go.uber.org/zap/zaptest"
)

func newTestSession(t *testing.T, rules domain.Rules, picks ...int) (*app.Session, *fakeClock) {
	t.Helper()
	clock := &fakeClock{}
	session, err := app.NewSession("s1", testCatalog(rules), rules, app.SessionDeps{
		Clock:  clock,
		Random: &scriptedRandom{picks: picks},
		Logger: zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(session.Close)
	return session, clock
}

// playRoom answers every question of the current room, correct where marked, and submits it.
// Wrong answers use the first wrong option a hint has not removed.
func playRoom(s *app.Session, correct ...bool) {
	for _, ok := range correct {
		option := correctOption
		if !ok {
			st := s.GetState()
			rs := st.RoomStates[st.CurrentRoomIndex]
			qid := s.Catalog().Rooms[st.CurrentRoomIndex].Questions[rs.CurrentQuestionIndex].ID
			for o := 0; o < domain.OptionsPerQuestion; o++ {
				if o != correctOption && !rs.IsEliminated(qid, o) {
					option = o
					break
				}
			}
		}
		s.ConfirmAnswerImmediate(option)
		s.NextQuestion()
	}
}

func TestRoomPassScenario(t *testing.T) {
	session, _ := newTestSession(t, testRules())
	session.StartGame("Ada")

	playRoom(session, true, true, false, true, true)

	st := session.GetState()
	rs := st.RoomStates[0]
	if st.Screen != domain.ScreenRoomResult {
		t.Fatalf("expected room-result, got %s", st.Screen)
	}
	if !rs.Completed || !rs.Passed || rs.CorrectCount() != 4 {
		t.Fatalf("expected passed room with 4 correct, got %+v", rs)
	}
	if st.Score != 20 {
		t.Fatalf("expected additive score 20, got %d", st.Score)
	}
}

func TestRoomFailAndRetry(t *testing.T) {
	session, _ := newTestSession(t, testRules())
	session.StartGame("Ada")
	playRoom(session, true, false, true, false, false)

	st := session.GetState()
	if st.RoomStates[0].Passed || !st.RoomStates[0].Completed {
		t.Fatalf("expected failed completed room, got %+v", st.RoomStates[0])
	}
	before := st.Score

	session.RetryRoom()
	st = session.GetState()
	rs := st.RoomStates[0]
	if st.Screen != domain.ScreenPlaying {
		t.Fatalf("expected playing after retry, got %s", st.Screen)
	}
	if rs.RetryCount != 1 || rs.Completed || len(rs.Answers) != 0 || rs.CurrentQuestionIndex != 0 {
		t.Fatalf("expected fresh room with retryCount 1, got %+v", rs)
	}
	if st.Score != before-testRules().RetryPenalty {
		t.Fatalf("expected score %d, got %d", before-testRules().RetryPenalty, st.Score)
	}
	if st.SelectedAnswer != nil || st.AnswerConfirmed {
		t.Fatalf("expected cleared selection")
	}
	if st.PenaltyAnimation == nil || st.PenaltyAnimation.Kind != domain.PenaltyRetry {
		t.Fatalf("expected retry penalty signal, got %+v", st.PenaltyAnimation)
	}
}

func TestRetryIgnoredWhenRoomPassed(t *testing.T) {
	session, _ := newTestSession(t, testRules())
	session.StartGame("Ada")
	playRoom(session, true, true, true, true, true)

	before := session.GetState()
	session.RetryRoom()
	session.UseEndOfRoomHint()
	if after := session.GetState(); !reflect.DeepEqual(before, after) {
		t.Fatalf("expected no change on passed room")
	}
}

func TestEndOfRoomHintSingleUse(t *testing.T) {
	rules := testRules()
	rules.Scoring = domain.ScoringPool
	session, _ := newTestSession(t, rules)
	session.StartGame("Ada")
	playRoom(session, true, true, false, false, false)

	session.UseEndOfRoomHint()
	st := session.GetState()
	rs := st.RoomStates[0]
	if !rs.EndOfRoomHintUsed() || rs.EndOfRoomHint.String() != "2/5" {
		t.Fatalf("expected 2/5 reveal, got %+v", rs.EndOfRoomHint)
	}
	if st.Score != rules.StartingScore-rules.HintPenaltyEndRoom {
		t.Fatalf("expected one penalty, got score %d", st.Score)
	}

	session.UseEndOfRoomHint()
	if again := session.GetState(); again.Score != st.Score {
		t.Fatalf("second reveal charged again: %d", again.Score)
	}
}

func TestQuestionHintCapAndSafety(t *testing.T) {
	rules := testRules()
	rules.Scoring = domain.ScoringPool
	session, _ := newTestSession(t, rules, 0, 1, 2)
	session.StartGame("Ada")

	session.UseQuestionHint()
	session.UseQuestionHint()
	st := session.GetState()
	rs := st.RoomStates[0]
	eliminated := rs.EliminatedOptions["r1q1"]
	// candidates [0 2 3] pick 0 -> 0; then [2 3] pick 1 -> 3
	if !reflect.DeepEqual(eliminated, []int{0, 3}) {
		t.Fatalf("expected eliminated [0 3], got %v", eliminated)
	}
	if rs.HintsUsedInRoom != 2 {
		t.Fatalf("expected 2 hints used, got %d", rs.HintsUsedInRoom)
	}
	if st.Score != rules.StartingScore-2*rules.HintPenaltyPerQuestion {
		t.Fatalf("unexpected score %d", st.Score)
	}

	session.UseQuestionHint()
	if capped := session.GetState(); !reflect.DeepEqual(st, capped) {
		t.Fatalf("expected hint beyond cap to be a no-op")
	}

	for _, o := range eliminated {
		if o == correctOption {
			t.Fatalf("correct option eliminated")
		}
	}
	session.SelectAnswer(0)
	session.ConfirmAnswerImmediate(3)
	if got := session.GetState(); got.SelectedAnswer != nil || got.AnswerConfirmed {
		t.Fatalf("eliminated options must not be selectable")
	}
}

func TestQuestionHintRequiresUnansweredQuestion(t *testing.T) {
	session, _ := newTestSession(t, testRules())
	session.StartGame("Ada")
	session.ConfirmAnswerImmediate(correctOption)

	before := session.GetState()
	session.UseQuestionHint()
	if after := session.GetState(); !reflect.DeepEqual(before, after) {
		t.Fatalf("expected hint on answered question to be ignored")
	}
}

func TestHintsResetWithRoomOnRetry(t *testing.T) {
	session, _ := newTestSession(t, testRules())
	session.StartGame("Ada")
	session.UseQuestionHint()
	playRoom(session, false, false, false, false, false)
	session.RetryRoom()

	rs := session.GetState().RoomStates[0]
	if rs.HintsUsedInRoom != 0 || len(rs.EliminatedOptions) != 0 {
		t.Fatalf("expected fresh hint budget after retry, got %+v", rs)
	}
}

func TestScoreNeverNegative(t *testing.T) {
	session, _ := newTestSession(t, testRules())
	session.StartGame("Ada")
	for i := 0; i < 5; i++ {
		session.UseQuestionHint()
		playRoom(session, false, false, false, false, false)
		session.UseEndOfRoomHint()
		session.RetryRoom()
		if score := session.GetState().Score; score < 0 {
			t.Fatalf("score went negative: %d", score)
		}
	}
	if rs := session.GetState().RoomStates[0]; rs.RetryCount != 5 {
		t.Fatalf("expected 5 retries, got %d", rs.RetryCount)
	}
}

func TestNextQuestionRequiresAnswer(t *testing.T) {
	session, _ := newTestSession(t, testRules())
	session.StartGame("Ada")
	session.NextQuestion()
	if idx := session.GetState().RoomStates[0].CurrentQuestionIndex; idx != 0 {
		t.Fatalf("expected to stay on first question, got %d", idx)
	}
}

func TestConfirmOverwritesAnswer(t *testing.T) {
	session, _ := newTestSession(t, testRules())
	session.StartGame("Ada")
	session.ConfirmAnswerImmediate(0)
	session.ConfirmAnswerImmediate(correctOption)

	rs := session.GetState().RoomStates[0]
	if rs.Answers["r1q1"] != correctOption || !rs.CorrectAnswers["r1q1"] {
		t.Fatalf("expected overwritten answer, got %+v", rs)
	}
}

func TestSelectThenConfirm(t *testing.T) {
	session, _ := newTestSession(t, testRules())
	session.StartGame("Ada")
	session.ConfirmAnswer()
	if session.GetState().AnswerConfirmed {
		t.Fatalf("confirm without selection must be ignored")
	}
	session.SelectAnswer(2)
	session.ConfirmAnswer()
	st := session.GetState()
	if !st.AnswerConfirmed || st.RoomStates[0].Answers["r1q1"] != 2 {
		t.Fatalf("expected selection confirmed, got %+v", st)
	}
}

func TestProceedThroughRoomsToGameOver(t *testing.T) {
	session, clock := newTestSession(t, testRules())
	session.StartGame("Ada")

	playRoom(session, true, true, true, true, true)
	session.ProceedToNextRoom()
	st := session.GetState()
	if st.CurrentRoomIndex != 1 || st.Screen != domain.ScreenPlaying {
		t.Fatalf("expected second room, got index %d screen %s", st.CurrentRoomIndex, st.Screen)
	}

	playRoom(session, true, true, true, true, false)
	session.ProceedToNextRoom()
	st = session.GetState()
	if st.Screen != domain.ScreenGameOver || st.IsTimerRunning {
		t.Fatalf("expected stopped game-over, got %s running=%v", st.Screen, st.IsTimerRunning)
	}
	if st.CurrentRoomIndex != 1 {
		t.Fatalf("room index must not move past the last room, got %d", st.CurrentRoomIndex)
	}
	if clock.Running() != 0 {
		t.Fatalf("expected ticker stopped")
	}
	if st.Score != 45 {
		t.Fatalf("expected 45 points, got %d", st.Score)
	}
	if sum := session.Summary(); sum.RoomsCleared != 2 || sum.Rooms[1].Name != "Room 2" {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestProceedRequiresPassedRoom(t *testing.T) {
	session, _ := newTestSession(t, testRules())
	session.StartGame("Ada")
	playRoom(session, false, false, false, false, false)
	session.ProceedToNextRoom()
	if st := session.GetState(); st.CurrentRoomIndex != 0 || st.Screen != domain.ScreenRoomResult {
		t.Fatalf("failed room must not advance: %+v", st)
	}
}

func TestTimerRunsOutToGameOver(t *testing.T) {
	rules := testRules()
	session, clock := newTestSession(t, rules)
	session.StartGame("Ada")

	for i := 0; i < rules.TotalTimeSeconds; i++ {
		clock.Tick()
	}
	st := session.GetState()
	if st.Screen != domain.ScreenGameOver || st.TimeRemaining != 0 || st.IsTimerRunning {
		t.Fatalf("expected expired game, got screen=%s time=%d running=%v", st.Screen, st.TimeRemaining, st.IsTimerRunning)
	}
	if clock.Running() != 0 {
		t.Fatalf("expected no running ticker after expiry")
	}
	clock.TickStale()
	if after := session.GetState(); after.TimeRemaining != 0 {
		t.Fatalf("tick after expiry changed state")
	}
}

func TestStartTimerIsIdempotent(t *testing.T) {
	session, clock := newTestSession(t, testRules())
	session.StartGame("Ada")
	session.StartTimer()
	session.StartTimer()
	if n := clock.Running(); n != 1 {
		t.Fatalf("expected one tick source, got %d", n)
	}
	clock.Tick()
	if got := session.GetState().TimeRemaining; got != testRules().TotalTimeSeconds-1 {
		t.Fatalf("expected one second elapsed, got %d", got)
	}
}

func TestStopTimerIsIdempotentAndCancelsTicks(t *testing.T) {
	session, clock := newTestSession(t, testRules())
	session.StartGame("Ada")
	clock.Tick()

	session.StopTimer()
	once := session.GetState()
	session.StopTimer()
	if twice := session.GetState(); !reflect.DeepEqual(once, twice) {
		t.Fatalf("second stop changed state")
	}

	clock.TickStale()
	if got := session.GetState(); got.TimeRemaining != once.TimeRemaining {
		t.Fatalf("tick after stop was applied")
	}

	session.StartTimer()
	clock.Tick()
	if got := session.GetState().TimeRemaining; got != once.TimeRemaining-1 {
		t.Fatalf("expected resume from stored time, got %d", got)
	}
}

func TestResetGameMatchesFreshSession(t *testing.T) {
	rules := testRules()
	session, clock := newTestSession(t, rules)
	session.StartGame("Ada")
	session.UseQuestionHint()
	playRoom(session, false, true, false, true, false)
	session.RetryRoom()
	clock.Tick()

	session.ResetGame()
	fresh, _ := newTestSession(t, rules)
	if got, want := session.GetState(), fresh.GetState(); !reflect.DeepEqual(got, want) {
		t.Fatalf("reset state differs from fresh state:\n got %+v\nwant %+v", got, want)
	}
	if clock.Running() != 0 {
		t.Fatalf("reset must stop the timer")
	}
}

func TestPenaltySignalClears(t *testing.T) {
	session, clock := newTestSession(t, testRules())
	session.StartGame("Ada")

	session.UseQuestionHint()
	if session.GetState().PenaltyAnimation == nil {
		t.Fatalf("expected penalty signal")
	}
	clock.Advance(time.Second)
	if session.GetState().PenaltyAnimation == nil {
		t.Fatalf("signal cleared too early")
	}
	clock.Advance(600 * time.Millisecond)
	if session.GetState().PenaltyAnimation != nil {
		t.Fatalf("expected signal cleared after display time")
	}
}

func TestStalePenaltyClearNeverTouchesNewSignal(t *testing.T) {
	session, clock := newTestSession(t, testRules())
	session.StartGame("Ada")

	session.UseQuestionHint()
	clock.Advance(time.Second)
	session.UseQuestionHint()
	clock.Advance(600 * time.Millisecond)
	if session.GetState().PenaltyAnimation == nil {
		t.Fatalf("first clear removed the second signal")
	}

	session.ResetGame()
	clock.Advance(2 * time.Second)
	if st := session.GetState(); st.PenaltyAnimation != nil {
		t.Fatalf("signal resurrected after reset")
	}
}

func TestSubscribeSeesEveryChange(t *testing.T) {
	session, clock := newTestSession(t, testRules())
	var (
		mu      sync.Mutex
		screens []domain.Screen
	)
	unsubscribe := session.Subscribe(func(st domain.GameState) {
		mu.Lock()
		screens = append(screens, st.Screen)
		mu.Unlock()
	})

	session.StartGame("Ada")
	clock.Tick()
	unsubscribe()
	unsubscribe()
	clock.Tick()

	mu.Lock()
	defer mu.Unlock()
	if len(screens) != 2 || screens[0] != domain.ScreenPlaying {
		t.Fatalf("expected two playing notifications, got %v", screens)
	}
}

func TestSnapshotsAreNotMutated(t *testing.T) {
	session, _ := newTestSession(t, testRules())
	session.StartGame("Ada")
	snap := session.GetState()

	session.ConfirmAnswerImmediate(correctOption)
	if len(snap.RoomStates[0].Answers) != 0 || snap.AnswerConfirmed {
		t.Fatalf("earlier snapshot was mutated")
	}

	snap.RoomStates[0].Answers["r1q2"] = 3
	if _, ok := session.GetState().RoomStates[0].Answers["r1q2"]; ok {
		t.Fatalf("caller edits leaked into session")
	}
}

func TestLoginFlow(t *testing.T) {
	rules := testRules()
	rules.RequireLogin = true
	session, _ := newTestSession(t, rules)

	if st := session.GetState(); st.Screen != domain.ScreenLogin {
		t.Fatalf("expected login screen, got %s", st.Screen)
	}
	session.StartGame("Ada")
	if st := session.GetState(); st.Screen != domain.ScreenLogin {
		t.Fatalf("start without identity must be ignored")
	}
	session.SignIn(domain.Identity{Address: "0xabc", Connected: false})
	if st := session.GetState(); st.Screen != domain.ScreenLogin {
		t.Fatalf("disconnected identity must be ignored")
	}
	session.SignIn(domain.Identity{Address: "0xabc", Connected: true})
	session.StartGame("Ada")
	st := session.GetState()
	if st.Screen != domain.ScreenPlaying || st.PlayerAddress != "0xabc" {
		t.Fatalf("expected playing as 0xabc, got %+v", st)
	}
	session.ResetGame()
	if st := session.GetState(); st.Screen != domain.ScreenLogin || st.PlayerAddress != "" {
		t.Fatalf("reset must return to login, got %s", st.Screen)
	}
}

func TestPoolPolicyNeverAwardsPoints(t *testing.T) {
	rules := testRules()
	rules.Scoring = domain.ScoringPool
	session, _ := newTestSession(t, rules)
	session.StartGame("Ada")
	playRoom(session, true, true, true, true, true)
	if got := session.GetState().Score; got != rules.StartingScore {
		t.Fatalf("expected pool score unchanged at %d, got %d", rules.StartingScore, got)
	}
}

func TestClosedSessionIgnoresActions(t *testing.T) {
	session, clock := newTestSession(t, testRules())
	session.StartGame("Ada")
	session.Close()
	before := session.GetState()
	session.ConfirmAnswerImmediate(correctOption)
	clock.TickStale()
	if after := session.GetState(); !reflect.DeepEqual(before, after) {
		t.Fatalf("closed session changed")
	}
	if before.IsTimerRunning {
		t.Fatalf("close must stop the timer")
	}
}

func TestConcurrentActionsKeepInvariants(t *testing.T) {
	rules := testRules()
	session, clock := newTestSession(t, rules, 2, 0, 1)
	session.StartGame("Ada")

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				switch (i + w) % 6 {
				case 0:
					session.UseQuestionHint()
				case 1:
					session.ConfirmAnswerImmediate(i % 4)
				case 2:
					session.NextQuestion()
				case 3:
					session.RetryRoom()
				case 4:
					session.ProceedToNextRoom()
				case 5:
					clock.Tick()
				}
			}
		}(w)
	}
	wg.Wait()

	st := session.GetState()
	if st.Score < 0 {
		t.Fatalf("negative score %d", st.Score)
	}
	for _, rs := range st.RoomStates {
		if rs.Passed && !rs.Completed {
			t.Fatalf("passed room not completed: %+v", rs)
		}
		if rs.HintsUsedInRoom > rules.MaxHintsPerRoom {
			t.Fatalf("hint cap exceeded: %d", rs.HintsUsedInRoom)
		}
		for _, opts := range rs.EliminatedOptions {
			for _, o := range opts {
				if o == correctOption {
					t.Fatalf("correct option eliminated")
				}
			}
		}
	}
}

func TestPoolRetryDeductsExactlyRetryPenalty(t *testing.T) {
	rules := testRules()
	rules.Scoring = domain.ScoringPool
	session, _ := newTestSession(t, rules)
	session.StartGame("Ada")
	playRoom(session, false, false, false, true, true)

	before := session.GetState().Score
	if before != rules.StartingScore {
		t.Fatalf("expected room submission to keep the pool score, got %d", before)
	}
	session.RetryRoom()
	if got := session.GetState().Score; got != before-rules.RetryPenalty {
		t.Fatalf("expected score %d after retry, got %d", before-rules.RetryPenalty, got)
	}
}

func TestNewSessionRejectsStartingScoreAboveMax(t *testing.T) {
	rules := testRules()
	rules.Scoring = domain.ScoringPool
	rules.StartingScore = rules.MaxScore * 2
	if _, err := app.NewSession("s1", testCatalog(rules), rules, app.SessionDeps{}); !errors.Is(err, domain.ErrInvalidRules) {
		t.Fatalf("expected invalid rules, got %v", err)
	}
}
