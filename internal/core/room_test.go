package core

import (
	"context"
	"testing"
)

func TestJoinCreatesPlayer(t *testing.T) {
	room, _, _ := startTestRoom(t, nil)

	c, init := joinRoom(t, room, "c1", &JoinRequest{Nickname: "anna"})

	if init.MyID != "c1" {
		t.Fatalf("unexpected myId: %s", init.MyID)
	}
	if init.UserID == "" {
		t.Fatal("expected a generated userId")
	}
	if init.ServerSessionID == "" {
		t.Fatal("expected a server session id")
	}

	ev := mustEvent(t, c.Events, EventPlayerUpdate)
	if len(ev.Players) != 1 || ev.Players[0].Nickname != "anna" || !ev.Players[0].IsOnline {
		t.Fatalf("unexpected roster: %+v", ev.Players)
	}
}

func TestJoinDefaultsNickname(t *testing.T) {
	room, _, _ := startTestRoom(t, nil)

	_, init := joinRoom(t, room, "abcdef", &JoinRequest{})

	view := room.Status()
	if len(view.Players) != 1 {
		t.Fatalf("expected one player, got %d", len(view.Players))
	}
	if view.Players[0].Nickname != "玩家abcd" {
		t.Fatalf("unexpected default nickname: %s", view.Players[0].Nickname)
	}
	if view.Players[0].UserID != init.UserID {
		t.Fatalf("roster userId mismatch: %s vs %s", view.Players[0].UserID, init.UserID)
	}
}

func TestReconnectRebindsSingleRecord(t *testing.T) {
	room, lib, _ := startTestRoom(t, nil)
	lib.Add(context.Background(), &Puzzle{ID: 42, Title: "P", Content: "c", Answer: "soup"})

	host, _ := joinRoom(t, room, "h", &JoinRequest{Nickname: "host", RoleHint: "host"})
	a, initA := joinRoom(t, room, "a1", &JoinRequest{Nickname: "anna"})

	room.Dispatch(host, &Command{Kind: CommandSelectPuzzle, PuzzleID: 42})
	mustEvent(t, a.Events, EventNewPuzzle)

	// Disconnect during a running session soft-removes the player.
	room.Disconnect(a)
	view := room.Status()
	if len(view.Players) != 2 {
		t.Fatalf("expected both records kept, got %d", len(view.Players))
	}
	for _, p := range view.Players {
		if p.UserID == initA.UserID && p.IsOnline {
			t.Fatal("disconnected player should be offline")
		}
	}

	// Rejoining with the same identity rebinds the record to the new handle.
	_, initA2 := joinRoom(t, room, "a2", &JoinRequest{
		Nickname:     "anna",
		UserID:       initA.UserID,
		SessionToken: initA.ServerSessionID,
	})
	if initA2.UserID != initA.UserID {
		t.Fatalf("identity changed across reconnect: %s vs %s", initA2.UserID, initA.UserID)
	}

	view = room.Status()
	count := 0
	for _, p := range view.Players {
		if p.UserID == initA.UserID {
			count++
			if !p.IsOnline || p.ConnID != "a2" {
				t.Fatalf("record not rebound: %+v", p)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one record for the userId, got %d", count)
	}
}

func TestStaleSessionTokenMintsFreshIdentity(t *testing.T) {
	room, _, _ := startTestRoom(t, nil)

	_, init := joinRoom(t, room, "c1", &JoinRequest{
		Nickname:     "anna",
		UserID:       "user_from_previous_run",
		SessionToken: "not-the-current-session",
	})

	if init.UserID == "user_from_previous_run" {
		t.Fatal("stale userId should have been ignored")
	}
}

func TestDisconnectInLobbyRemovesPlayer(t *testing.T) {
	room, _, _ := startTestRoom(t, nil)

	_, _ = joinRoom(t, room, "h", &JoinRequest{Nickname: "host", RoleHint: "host"})
	a, _ := joinRoom(t, room, "a1", &JoinRequest{Nickname: "anna"})

	room.Disconnect(a)

	view := room.Status()
	if len(view.Players) != 1 {
		t.Fatalf("expected lobby disconnect to remove the player, got %d records", len(view.Players))
	}
}

func TestAtMostOneHost(t *testing.T) {
	room, _, _ := startTestRoom(t, nil)

	_, _ = joinRoom(t, room, "h1", &JoinRequest{Nickname: "first", RoleHint: "host"})
	_, _ = joinRoom(t, room, "h2", &JoinRequest{Nickname: "second", RoleHint: "host"})

	view := room.Status()
	hosts := 0
	for _, p := range view.Players {
		if p.IsHost {
			hosts++
			if p.ConnID != "h1" {
				t.Fatalf("wrong player holds host role: %+v", p)
			}
		}
	}
	if hosts != 1 {
		t.Fatalf("expected exactly one host, got %d", hosts)
	}
	if view.HostConn != "h1" {
		t.Fatalf("unexpected host binding: %s", view.HostConn)
	}
}

func TestClaimHostWhenVacant(t *testing.T) {
	room, _, _ := startTestRoom(t, nil)

	c, _ := joinRoom(t, room, "c1", &JoinRequest{Nickname: "anna"})
	other, _ := joinRoom(t, room, "c2", &JoinRequest{Nickname: "bob"})

	room.Dispatch(c, &Command{Kind: CommandClaimHost})
	mustEvent(t, c.Events, EventHostData)

	if view := room.Status(); view.HostConn != "c1" {
		t.Fatalf("claim did not bind host: %s", view.HostConn)
	}

	// A second claim while a host exists is silently ignored.
	room.Dispatch(other, &Command{Kind: CommandClaimHost})
	noEvent(t, other.Events, EventHostData)
	if view := room.Status(); view.HostConn != "c1" {
		t.Fatalf("host binding changed: %s", view.HostConn)
	}
}

func TestResignHostOnlyInLobby(t *testing.T) {
	room, lib, _ := startTestRoom(t, nil)
	lib.Add(context.Background(), &Puzzle{ID: 1, Title: "P", Answer: "x"})

	host, _ := joinRoom(t, room, "h", &JoinRequest{Nickname: "host", RoleHint: "host"})
	a, _ := joinRoom(t, room, "a1", &JoinRequest{Nickname: "anna"})

	room.Dispatch(host, &Command{Kind: CommandSelectPuzzle, PuzzleID: 1})
	mustEvent(t, a.Events, EventNewPuzzle)

	// Mid-session resign is ignored.
	room.Dispatch(host, &Command{Kind: CommandResignHost})
	if view := room.Status(); view.HostConn != "h" {
		t.Fatalf("host resigned mid-session: %s", view.HostConn)
	}

	room.Dispatch(host, &Command{Kind: CommandReturnToLobby})
	mustEvent(t, a.Events, EventReturnToLobby)

	room.Dispatch(host, &Command{Kind: CommandResignHost})
	mustEvent(t, a.Events, EventPlayerUpdate)
	if view := room.Status(); view.HostConn != "" {
		t.Fatalf("host binding not cleared: %s", view.HostConn)
	}
}

func TestKickRefusesOnlinePlayer(t *testing.T) {
	room, lib, _ := startTestRoom(t, nil)
	lib.Add(context.Background(), &Puzzle{ID: 1, Title: "P", Answer: "x"})

	host, _ := joinRoom(t, room, "h", &JoinRequest{Nickname: "host", RoleHint: "host"})
	a, _ := joinRoom(t, room, "a1", &JoinRequest{Nickname: "anna"})
	b, _ := joinRoom(t, room, "b1", &JoinRequest{Nickname: "bob"})

	room.Dispatch(host, &Command{Kind: CommandSelectPuzzle, PuzzleID: 1})
	mustEvent(t, a.Events, EventNewPuzzle)

	room.Dispatch(host, &Command{Kind: CommandKickPlayer, TargetConn: "b1"})
	ev := mustEvent(t, host.Events, EventError)
	if ev.Error.Code != ErrCodeTargetOnline {
		t.Fatalf("expected target_online, got %s", ev.Error.Code)
	}

	// Once offline the same player can be kicked.
	room.Disconnect(b)
	room.Dispatch(host, &Command{Kind: CommandKickPlayer, TargetConn: "b1"})
	mustEvent(t, a.Events, EventPlayerUpdate)

	view := room.Status()
	if len(view.Players) != 2 {
		t.Fatalf("expected kicked player removed, got %d records", len(view.Players))
	}

	// Kicks from non-hosts are silently ignored.
	room.Dispatch(a, &Command{Kind: CommandKickPlayer, TargetConn: "h"})
	if view := room.Status(); len(view.Players) != 2 {
		t.Fatalf("non-host kick mutated the roster")
	}
}

func TestHostTransferFlow(t *testing.T) {
	room, _, _ := startTestRoom(t, nil)

	host, _ := joinRoom(t, room, "h", &JoinRequest{Nickname: "host", RoleHint: "host"})
	a, _ := joinRoom(t, room, "a1", &JoinRequest{Nickname: "anna"})
	b, _ := joinRoom(t, room, "b1", &JoinRequest{Nickname: "bob"})

	// Request is forwarded to the host only; no state change yet.
	room.Dispatch(a, &Command{Kind: CommandRequestHost})
	req := mustEvent(t, host.Events, EventHostTransferRequest)
	if req.Transfer.RequesterConn != "a1" || req.Transfer.RequesterName != "anna" {
		t.Fatalf("unexpected transfer request: %+v", req.Transfer)
	}
	if view := room.Status(); view.HostConn != "h" {
		t.Fatal("request alone must not transfer the role")
	}

	// Reject is a directed message back to the requester.
	room.Dispatch(host, &Command{Kind: CommandRejectHostTransfer, TargetConn: "a1"})
	mustEvent(t, a.Events, EventHostTransferRejected)

	// Approvals from non-hosts are ignored.
	room.Dispatch(b, &Command{Kind: CommandApproveHostTransfer, TargetConn: "a1"})
	if view := room.Status(); view.HostConn != "h" {
		t.Fatal("non-host approval transferred the role")
	}

	room.Dispatch(host, &Command{Kind: CommandApproveHostTransfer, TargetConn: "a1"})
	mustEvent(t, a.Events, EventHostData)

	view := room.Status()
	if view.HostConn != "a1" {
		t.Fatalf("host not rebound: %s", view.HostConn)
	}
	for _, p := range view.Players {
		switch p.ConnID {
		case "a1":
			if !p.IsHost {
				t.Fatal("new host flag not set")
			}
		default:
			if p.IsHost {
				t.Fatalf("old host flag not cleared: %+v", p)
			}
		}
	}
}

func TestSelectPuzzleRequiresTwoOnline(t *testing.T) {
	room, lib, _ := startTestRoom(t, nil)
	lib.Add(context.Background(), &Puzzle{ID: 1, Title: "P", Answer: "x"})

	host, _ := joinRoom(t, room, "h", &JoinRequest{Nickname: "host", RoleHint: "host"})

	room.Dispatch(host, &Command{Kind: CommandSelectPuzzle, PuzzleID: 1})
	ev := mustEvent(t, host.Events, EventError)
	if ev.Error.Code != ErrCodeNotEnoughPlayers {
		t.Fatalf("expected not_enough_players, got %s", ev.Error.Code)
	}
	if view := room.Status(); view.Phase != "lobby" {
		t.Fatalf("session started anyway: %s", view.Phase)
	}
}

func TestAskAnswerScenario(t *testing.T) {
	room, lib, _ := startTestRoom(t, nil)
	lib.Add(context.Background(), &Puzzle{ID: 42, Title: "P", Content: "c", Answer: "soup"})

	host, _ := joinRoom(t, room, "h", &JoinRequest{Nickname: "host", RoleHint: "host"})
	a, _ := joinRoom(t, room, "a1", &JoinRequest{Nickname: "anna"})
	b, _ := joinRoom(t, room, "b1", &JoinRequest{Nickname: "bob"})

	room.Dispatch(host, &Command{
		Kind:     CommandSelectPuzzle,
		PuzzleID: 42,
		Limits:   &Limits{MaxQuestionsPerPlayer: intPtr(1)},
	})
	start := mustEvent(t, a.Events, EventNewPuzzle)
	if start.Start.Puzzle.Title != "P" || start.Start.StartTime == 0 {
		t.Fatalf("unexpected session start: %+v", start.Start)
	}
	reveal := mustEvent(t, host.Events, EventPuzzleReveal)
	if reveal.Puzzle.Answer != "soup" {
		t.Fatalf("host did not receive the full puzzle: %+v", reveal.Puzzle)
	}

	// First question goes through and lands pending.
	room.Dispatch(a, &Command{Kind: CommandAskQuestion, Text: "Is it night?"})
	asked := mustEvent(t, b.Events, EventNewQuestion)
	if asked.Question.Status != StatusPending || asked.Question.Nickname != "anna" {
		t.Fatalf("unexpected question entry: %+v", asked.Question)
	}

	// Second question while the first is unanswered is refused.
	room.Dispatch(a, &Command{Kind: CommandAskQuestion, Text: "Am I impatient?"})
	pendingErr := mustEvent(t, a.Events, EventError)
	if pendingErr.Error.Code != ErrCodeAnswerPending {
		t.Fatalf("expected answer_pending, got %s", pendingErr.Error.Code)
	}

	room.Dispatch(host, &Command{
		Kind:   CommandAnswerQuestion,
		Answer: &AnswerRequest{QuestionID: asked.Question.ID, Kind: AnswerYes},
	})
	answeredEv := mustEvent(t, a.Events, EventQuestionAnswered)
	if answeredEv.Question.Status != StatusAnswered {
		t.Fatalf("question not answered: %+v", answeredEv.Question)
	}
	if answeredEv.Question.Answer == nil || *answeredEv.Question.Answer != "是" {
		t.Fatalf("unexpected answer text: %v", answeredEv.Question.Answer)
	}

	// Per-player quota: bob still has his own share.
	room.Dispatch(b, &Command{Kind: CommandAskQuestion, Text: "Is it about food?"})
	mustEvent(t, a.Events, EventNewQuestion)

	// Anna's personal quota is spent.
	room.Dispatch(a, &Command{Kind: CommandAskQuestion, Text: "One more?"})
	quotaErr := mustEvent(t, a.Events, EventError)
	if quotaErr.Error.Code != ErrCodePersonalExhausted {
		t.Fatalf("expected personal_exhausted, got %s", quotaErr.Error.Code)
	}

	if view := room.Status(); len(view.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(view.History))
	}
}

func TestAnswerAlreadyAnsweredIsNoOp(t *testing.T) {
	room, lib, _ := startTestRoom(t, nil)
	lib.Add(context.Background(), &Puzzle{ID: 1, Title: "P", Answer: "x"})

	host, _ := joinRoom(t, room, "h", &JoinRequest{Nickname: "host", RoleHint: "host"})
	a, _ := joinRoom(t, room, "a1", &JoinRequest{Nickname: "anna"})

	room.Dispatch(host, &Command{Kind: CommandSelectPuzzle, PuzzleID: 1})
	mustEvent(t, a.Events, EventNewPuzzle)

	room.Dispatch(a, &Command{Kind: CommandAskQuestion, Text: "Is it day?"})
	asked := mustEvent(t, host.Events, EventNewQuestion)

	room.Dispatch(host, &Command{
		Kind:   CommandAnswerQuestion,
		Answer: &AnswerRequest{QuestionID: asked.Question.ID, Kind: AnswerNo},
	})
	mustEvent(t, a.Events, EventQuestionAnswered)

	// A second answer to the same id must not change anything.
	room.Dispatch(host, &Command{
		Kind:   CommandAnswerQuestion,
		Answer: &AnswerRequest{QuestionID: asked.Question.ID, Kind: AnswerYes},
	})
	noEvent(t, a.Events, EventQuestionAnswered)

	view := room.Status()
	if len(view.History) != 1 {
		t.Fatalf("unexpected history length: %d", len(view.History))
	}
	q := view.History[0]
	if q.AnswerKind != AnswerNo || q.Answer == nil || *q.Answer != "不是" {
		t.Fatalf("answer was altered: %+v", q)
	}

	// An unknown id is a silent no-op as well.
	room.Dispatch(host, &Command{
		Kind:   CommandAnswerQuestion,
		Answer: &AnswerRequest{QuestionID: 999999, Kind: AnswerYes},
	})
	noEvent(t, a.Events, EventQuestionAnswered)
}

func TestRevealAndReturnToLobby(t *testing.T) {
	room, lib, snaps := startTestRoom(t, nil)
	lib.Add(context.Background(), &Puzzle{ID: 1, Title: "P", Answer: "深海的汤"})

	host, _ := joinRoom(t, room, "h", &JoinRequest{Nickname: "host", RoleHint: "host"})
	a, _ := joinRoom(t, room, "a1", &JoinRequest{Nickname: "anna"})
	b, _ := joinRoom(t, room, "b1", &JoinRequest{Nickname: "bob"})

	room.Dispatch(host, &Command{
		Kind:     CommandSelectPuzzle,
		PuzzleID: 1,
		Limits:   &Limits{MaxTotalQuestions: intPtr(10)},
	})
	mustEvent(t, a.Events, EventNewPuzzle)

	// Reveals from non-hosts are ignored.
	room.Dispatch(a, &Command{Kind: CommandRevealAnswer})
	noEvent(t, b.Events, EventGameOver)

	room.Dispatch(host, &Command{Kind: CommandRevealAnswer})
	over := mustEvent(t, b.Events, EventGameOver)
	if over.Answer != "深海的汤" {
		t.Fatalf("unexpected answer broadcast: %s", over.Answer)
	}

	// Reveal keeps the session alive until the host returns to the lobby.
	if view := room.Status(); view.Phase != "in_progress" {
		t.Fatalf("reveal ended the session: %s", view.Phase)
	}

	room.Disconnect(b)
	room.Dispatch(host, &Command{Kind: CommandReturnToLobby})
	mustEvent(t, a.Events, EventReturnToLobby)
	mustEvent(t, host.Events, EventHostData)

	view := room.Status()
	if view.Phase != "lobby" || view.Puzzle != nil || len(view.History) != 0 {
		t.Fatalf("lobby reset incomplete: %+v", view)
	}
	if view.Limits.MaxTotalQuestions != nil {
		t.Fatal("limits not cleared on lobby reset")
	}
	if len(view.Players) != 2 {
		t.Fatalf("offline players not purged: %d records", len(view.Players))
	}
	if snaps.clearCount() == 0 {
		t.Fatal("snapshot not cleared on lobby reset")
	}
}

func TestHostDisconnectBlocksHostActions(t *testing.T) {
	room, lib, _ := startTestRoom(t, nil)
	lib.Add(context.Background(), &Puzzle{ID: 1, Title: "P", Answer: "x"})

	host, _ := joinRoom(t, room, "h", &JoinRequest{Nickname: "host", RoleHint: "host"})
	a, _ := joinRoom(t, room, "a1", &JoinRequest{Nickname: "anna"})
	b, _ := joinRoom(t, room, "b1", &JoinRequest{Nickname: "bob"})

	room.Dispatch(host, &Command{Kind: CommandSelectPuzzle, PuzzleID: 1})
	mustEvent(t, a.Events, EventNewPuzzle)

	room.Disconnect(host)

	// The host record stays, offline; no other connection can act as host.
	room.Dispatch(a, &Command{Kind: CommandReturnToLobby})
	noEvent(t, b.Events, EventReturnToLobby)
	room.Dispatch(a, &Command{Kind: CommandRevealAnswer})
	noEvent(t, b.Events, EventGameOver)

	view := room.Status()
	if view.Phase != "in_progress" {
		t.Fatalf("session ended without the host: %s", view.Phase)
	}
}

func TestSnapshotPersistedOnMutations(t *testing.T) {
	room, lib, snaps := startTestRoom(t, nil)
	lib.Add(context.Background(), &Puzzle{ID: 1, Title: "P", Answer: "x"})

	host, _ := joinRoom(t, room, "h", &JoinRequest{Nickname: "host", RoleHint: "host"})
	a, _ := joinRoom(t, room, "a1", &JoinRequest{Nickname: "anna"})

	room.Dispatch(host, &Command{Kind: CommandSelectPuzzle, PuzzleID: 1})
	mustEvent(t, a.Events, EventNewPuzzle)

	room.Dispatch(a, &Command{Kind: CommandAskQuestion, Text: "Is it cold?"})
	mustEvent(t, host.Events, EventNewQuestion)

	snap := snaps.last()
	if snap == nil {
		t.Fatal("no snapshot written")
	}
	if snap.CurrentPuzzle == nil || snap.CurrentPuzzle.ID != 1 {
		t.Fatalf("snapshot missing puzzle: %+v", snap.CurrentPuzzle)
	}
	if len(snap.History) != 1 {
		t.Fatalf("snapshot missing history: %d entries", len(snap.History))
	}
	for _, p := range snap.Players {
		if p.IsOnline {
			t.Fatalf("snapshot players must be offline: %+v", p)
		}
	}
	if snap.SavedAt == 0 {
		t.Fatal("snapshot missing savedAt")
	}
}

func TestRecoveryFlow(t *testing.T) {
	restored := &Snapshot{
		CurrentPuzzle: &Puzzle{ID: 7, Title: "P", Content: "c", Answer: "x"},
		History:       []*Question{answered("a9")},
		Players: []*Player{
			{ConnID: "dead-h", UserID: "h9", Nickname: "host", IsHost: true},
			{ConnID: "dead-a", UserID: "a9", Nickname: "anna"},
		},
		Limits:    Limits{MaxQuestionsPerPlayer: intPtr(3)},
		StartTime: 12345,
	}
	room, _, _ := startTestRoom(t, restored)

	// First reconnecting party drives the recovery prompt.
	h, initH := joinRoom(t, room, "h-new", &JoinRequest{UserID: "h9", SessionToken: "stale"})
	if !initH.RecoveryMode || !initH.AwaitingRecovery || !initH.FirstReconnector {
		t.Fatalf("unexpected recovery flags: %+v", initH)
	}
	if initH.FullPuzzle == nil || initH.FullPuzzle.Answer != "x" {
		t.Fatal("recovered host did not receive the full puzzle")
	}
	if view := room.Status(); view.HostConn != "h-new" {
		t.Fatalf("host binding not restored: %s", view.HostConn)
	}

	a, initA := joinRoom(t, room, "a-new", &JoinRequest{UserID: "a9", SessionToken: "stale"})
	if initA.FirstReconnector {
		t.Fatal("second reconnector flagged as first")
	}
	if initA.FullPuzzle != nil {
		t.Fatal("non-host received the full puzzle")
	}

	// Accepting recovery keeps the session as-is.
	room.Dispatch(a, &Command{Kind: CommandRecoveryDecision, Recover: true})
	made := mustEvent(t, h.Events, EventRecoveryDecisionMade)
	if !made.Recover {
		t.Fatal("expected recover=true broadcast")
	}

	view := room.Status()
	if view.Phase != "in_progress" || view.Puzzle == nil || len(view.History) != 1 {
		t.Fatalf("recovered state lost: %+v", view)
	}

	// The decision is accepted exactly once.
	room.Dispatch(h, &Command{Kind: CommandRecoveryDecision, Recover: false})
	noEvent(t, a.Events, EventRecoveryDecisionMade)
	if view := room.Status(); view.Puzzle == nil {
		t.Fatal("late decision wiped the session")
	}
}

func TestRecoveryDiscardWipesState(t *testing.T) {
	restored := &Snapshot{
		CurrentPuzzle: &Puzzle{ID: 7, Title: "P", Answer: "x"},
		History:       []*Question{answered("a9")},
		Players: []*Player{
			{ConnID: "dead-h", UserID: "h9", Nickname: "host", IsHost: true},
		},
		StartTime: 12345,
	}
	room, _, snaps := startTestRoom(t, restored)

	h, _ := joinRoom(t, room, "h-new", &JoinRequest{UserID: "h9", SessionToken: "stale"})

	room.Dispatch(h, &Command{Kind: CommandRecoveryDecision, Recover: false})
	made := mustEvent(t, h.Events, EventRecoveryDecisionMade)
	if made.Recover {
		t.Fatal("expected recover=false broadcast")
	}

	view := room.Status()
	if view.Phase != "lobby" || view.Puzzle != nil || len(view.Players) != 0 || len(view.History) != 0 {
		t.Fatalf("discard left state behind: %+v", view)
	}
	if snaps.clearCount() == 0 {
		t.Fatal("snapshot not deleted on discard")
	}
}

func TestCreateCustomPuzzleStartsSessionAndStoresIt(t *testing.T) {
	room, lib, snaps := startTestRoom(t, nil)

	host, _ := joinRoom(t, room, "h", &JoinRequest{Nickname: "host", RoleHint: "host"})
	a, _ := joinRoom(t, room, "a1", &JoinRequest{Nickname: "anna"})

	room.Dispatch(host, &Command{
		Kind: CommandCreateCustomPuzzle,
		Draft: &PuzzleDraft{
			Content: "A man orders turtle soup.",
			Answer:  "He had it before.",
			Limits:  Limits{MaxTotalQuestions: intPtr(20)},
		},
	})

	mustEvent(t, host.Events, EventHostData)
	start := mustEvent(t, a.Events, EventNewPuzzle)
	if start.Start.Puzzle.Title != "自定义海龟汤" {
		t.Fatalf("default title not applied: %s", start.Start.Puzzle.Title)
	}

	puzzles, _ := lib.List(context.Background())
	if len(puzzles) != 1 || puzzles[0].Answer != "He had it before." {
		t.Fatalf("custom puzzle not stored: %+v", puzzles)
	}
	if snaps.last() == nil {
		t.Fatal("session start not persisted")
	}
}

func TestUpdatePuzzleRebroadcastsAndKeepsHistory(t *testing.T) {
	room, lib, _ := startTestRoom(t, nil)
	lib.Add(context.Background(), &Puzzle{ID: 1, Title: "P", Content: "before", Answer: "x"})

	host, _ := joinRoom(t, room, "h", &JoinRequest{Nickname: "host", RoleHint: "host"})
	a, _ := joinRoom(t, room, "a1", &JoinRequest{Nickname: "anna"})

	room.Dispatch(host, &Command{Kind: CommandSelectPuzzle, PuzzleID: 1})
	mustEvent(t, a.Events, EventNewPuzzle)

	room.Dispatch(a, &Command{Kind: CommandAskQuestion, Text: "Is it day?"})
	mustEvent(t, host.Events, EventNewQuestion)

	room.Dispatch(host, &Command{
		Kind: CommandUpdatePuzzle,
		Draft: &PuzzleDraft{
			Title:   "P2",
			Content: "after",
			Answer:  "y",
			Limits:  Limits{MaxQuestionsPerPlayer: intPtr(5)},
		},
	})
	updated := mustEvent(t, a.Events, EventPuzzleUpdated)
	if updated.Update.Puzzle.Content != "after" {
		t.Fatalf("edit not broadcast: %+v", updated.Update.Puzzle)
	}
	if updated.Update.Limits.MaxQuestionsPerPlayer == nil || *updated.Update.Limits.MaxQuestionsPerPlayer != 5 {
		t.Fatalf("limits not updated: %+v", updated.Update.Limits)
	}
	reveal := mustEvent(t, host.Events, EventPuzzleReveal)
	if reveal.Puzzle.Answer != "y" {
		t.Fatalf("host reveal not refreshed: %+v", reveal.Puzzle)
	}

	view := room.Status()
	if len(view.History) != 1 {
		t.Fatal("in-place edit must not clear history")
	}
	puzzles, _ := lib.List(context.Background())
	if len(puzzles) != 1 || puzzles[0].Title != "P2" {
		t.Fatalf("library copy not updated: %+v", puzzles)
	}
}
