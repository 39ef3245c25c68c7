package core

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ctlKind int

const (
	ctlNone ctlKind = iota
	ctlConnect
	ctlDisconnect
	ctlStatus
)

type roomMsg struct {
	client *Client
	cmd    *Command
	ctl    ctlKind
	status chan StatusView
}

// StatusView is a race-free copy of the room state, used by the status
// endpoint and by tests.
type StatusView struct {
	Phase            string
	ServerSessionID  string
	Players          []*Player
	History          []*Question
	Puzzle           *Puzzle
	Limits           Limits
	StartTime        int64
	HostConn         string
	RecoveryMode     bool
	AwaitingRecovery bool
	NumClients       int
}

// Room is the single game session coordinator. All state lives behind one
// goroutine draining the inbox, so handlers never need locks.
type Room struct {
	inbox chan roomMsg

	clients map[string]*Client
	players []*Player
	host    string // connection handle of the host, "" when none

	puzzle    *Puzzle
	history   []*Question
	limits    Limits
	startTime int64

	serverSessionID  string
	recoveryMode     bool
	awaitingRecovery bool

	lastID int64

	library   PuzzleLibrary
	snapshots SnapshotStore
	log       *zerolog.Logger
	now       func() time.Time
	ctx       context.Context
}

// RoomOption customizes room construction.
type RoomOption func(*Room)

// WithClock overrides the room's time source, used by tests.
func WithClock(now func() time.Time) RoomOption {
	return func(r *Room) { r.now = now }
}

// NewRoom builds the coordinator. restored is the snapshot loaded at process
// start, or nil; when non-nil the room begins in recovery mode awaiting the
// room-wide keep-or-discard decision.
func NewRoom(library PuzzleLibrary, snapshots SnapshotStore, restored *Snapshot, logger *zerolog.Logger, opts ...RoomOption) *Room {
	r := &Room{
		inbox:     make(chan roomMsg, 64),
		clients:   make(map[string]*Client),
		library:   library,
		snapshots: snapshots,
		log:       logger,
		now:       time.Now,
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.serverSessionID = strconv.FormatInt(r.now().UnixMilli(), 10)

	if restored != nil {
		r.puzzle = restored.CurrentPuzzle
		r.history = restored.History
		r.players = restored.Players
		r.limits = restored.Limits
		r.startTime = restored.StartTime
		r.recoveryMode = true
		r.awaitingRecovery = true
		r.log.Info().Int("players", len(r.players)).Msg("session restored, awaiting recovery decision")
	}

	return r
}

// Run drains the inbox until ctx is cancelled. It must be started exactly
// once, before any client connects.
func (r *Room) Run(ctx context.Context) {
	r.ctx = ctx
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-r.inbox:
			r.handle(m)
		}
	}
}

// Connect registers a live connection with the room.
func (r *Room) Connect(c *Client) {
	r.inbox <- roomMsg{client: c, ctl: ctlConnect}
}

// Disconnect unbinds a connection; the bound player goes offline or is
// removed depending on whether a puzzle is active.
func (r *Room) Disconnect(c *Client) {
	r.inbox <- roomMsg{client: c, ctl: ctlDisconnect}
}

// Dispatch queues a client command for serialized execution.
func (r *Room) Dispatch(c *Client, cmd *Command) {
	r.inbox <- roomMsg{client: c, cmd: cmd}
}

// Status returns a copy of the current room state.
func (r *Room) Status() StatusView {
	reply := make(chan StatusView, 1)
	r.inbox <- roomMsg{ctl: ctlStatus, status: reply}
	return <-reply
}

func (r *Room) handle(m roomMsg) {
	switch m.ctl {
	case ctlConnect:
		r.clients[m.client.ConnID] = m.client
		return
	case ctlDisconnect:
		delete(r.clients, m.client.ConnID)
		r.handleGone(m.client.ConnID)
		return
	case ctlStatus:
		m.status <- r.statusView()
		return
	}

	if m.cmd == nil {
		return
	}
	c := m.client
	switch m.cmd.Kind {
	case CommandJoin:
		r.handleJoin(c, m.cmd.Join)
	case CommandClaimHost:
		r.handleClaimHost(c)
	case CommandRecoveryDecision:
		r.handleRecoveryDecision(m.cmd.Recover)
	case CommandResignHost:
		r.handleResignHost(c)
	case CommandKickPlayer:
		r.handleKick(c, m.cmd.TargetConn)
	case CommandRequestHost:
		r.handleRequestHost(c)
	case CommandApproveHostTransfer:
		r.handleApproveTransfer(c, m.cmd.TargetConn)
	case CommandRejectHostTransfer:
		r.handleRejectTransfer(m.cmd.TargetConn)
	case CommandCreateCustomPuzzle:
		r.handleCreateCustomPuzzle(c, m.cmd.Draft)
	case CommandSelectPuzzle:
		r.handleSelectPuzzle(c, m.cmd.PuzzleID, m.cmd.Limits)
	case CommandAskQuestion:
		r.handleAsk(c, m.cmd.Text)
	case CommandAnswerQuestion:
		r.handleAnswer(c, m.cmd.Answer)
	case CommandRevealAnswer:
		r.handleReveal(c)
	case CommandUpdatePuzzle:
		r.handleUpdatePuzzle(c, m.cmd.Draft)
	case CommandReturnToLobby:
		r.handleReturnToLobby(c)
	}
}

// ==== identity & registry ====

func (r *Room) handleJoin(c *Client, req *JoinRequest) {
	if req == nil {
		req = &JoinRequest{}
	}

	sameSession := req.SessionToken == "" || req.SessionToken == r.serverSessionID
	resolvedUserID := ""
	if sameSession {
		resolvedUserID = req.UserID
	}

	// Recovery mode matches against the recovered roster by raw userId:
	// after a restart every client necessarily carries a stale session token.
	if r.recoveryMode && req.UserID != "" {
		if saved := findPlayerByUserID(r.players, req.UserID); saved != nil {
			saved.ConnID = c.ConnID
			saved.IsOnline = true
			if saved.IsHost {
				r.host = c.ConnID
			}
			first := countOnline(r.players) == 1 && r.awaitingRecovery
			r.log.Info().Str("nickname", saved.Nickname).Bool("first", first).Msg("player recovered")
			r.sendTo(c.ConnID, &Event{Kind: EventInitState, Init: r.buildInitState(saved, first)})
			r.broadcastPlayers()
			return
		}
	}

	if !sameSession && req.UserID != "" {
		r.log.Debug().Str("nickname", req.Nickname).Msg("ignoring stale userId from previous server session")
	}

	// Drop offline leftovers holding the same identity before rebinding.
	if resolvedUserID != "" {
		r.purgeDisconnected(resolvedUserID)
	}

	var player *Player
	if resolvedUserID != "" {
		player = findPlayerByUserID(r.players, resolvedUserID)
	}

	if player != nil {
		player.ConnID = c.ConnID
		player.IsOnline = true
		if req.Nickname != "" {
			player.Nickname = req.Nickname
		}
		if player.IsHost {
			r.host = c.ConnID
		}
		r.log.Info().Str("nickname", player.Nickname).Msg("player reconnected")
	} else {
		grantHost := req.RoleHint == "host" && currentHost(r.players) == nil
		player = &Player{
			ConnID:   c.ConnID,
			UserID:   resolvedUserID,
			Nickname: req.Nickname,
			IsHost:   grantHost,
			IsOnline: true,
		}
		if player.UserID == "" {
			player.UserID = "user_" + uuid.NewString()
		}
		if player.Nickname == "" {
			player.Nickname = "玩家" + shortID(c.ConnID)
		}
		r.players = append(r.players, player)
		if player.IsHost {
			r.host = c.ConnID
		}
		r.log.Info().Str("nickname", player.Nickname).Bool("host", player.IsHost).Msg("player joined")
	}

	r.sendTo(c.ConnID, &Event{Kind: EventInitState, Init: r.buildInitState(player, false)})
	r.broadcastPlayers()
}

func (r *Room) handleGone(connID string) {
	i := findPlayerByConn(r.players, connID)
	if i == -1 {
		return
	}
	p := r.players[i]

	if r.puzzle != nil {
		// Soft-remove so the player can rejoin the running session.
		p.IsOnline = false
		r.log.Info().Str("nickname", p.Nickname).Msg("player disconnected, marked offline")
	} else {
		r.removePlayerAt(i)
		r.log.Info().Str("nickname", p.Nickname).Msg("player disconnected, removed")
	}
	r.broadcastPlayers()
}

// removePlayerAt hard-removes a roster entry. Removing the host clears the
// host binding and, with no puzzle active, resets the lobby history.
func (r *Room) removePlayerAt(i int) *Player {
	if i < 0 || i >= len(r.players) {
		return nil
	}
	removed := r.players[i]
	r.players = append(r.players[:i], r.players[i+1:]...)
	if removed.IsHost {
		r.host = ""
		if r.puzzle == nil {
			r.resetLobbyState()
		}
	}
	return removed
}

func (r *Room) resetLobbyState() {
	if r.puzzle == nil && len(r.history) == 0 {
		return
	}
	r.puzzle = nil
	r.history = nil
	r.broadcast(&Event{Kind: EventReturnToLobby})
}

// purgeDisconnected removes duplicate roster entries with the given userId
// whose connection handle no longer maps to a live client. The first record
// is kept so the joiner can rebind it.
func (r *Room) purgeDisconnected(userID string) {
	seen := false
	removed := false
	for i := 0; i < len(r.players); {
		p := r.players[i]
		if p.UserID == userID {
			if !seen {
				seen = true
				i++
				continue
			}
			if _, connected := r.clients[p.ConnID]; !connected {
				r.removePlayerAt(i)
				removed = true
				continue
			}
		}
		i++
	}
	if removed {
		r.broadcastPlayers()
	}
}

func (r *Room) handleKick(c *Client, targetConn string) {
	if c.ConnID != r.host {
		return
	}
	i := findPlayerByConn(r.players, targetConn)
	if i == -1 {
		return
	}
	target := r.players[i]
	if target.IsOnline {
		r.sendTo(c.ConnID, &Event{Kind: EventError, Error: coreError(ErrCodeTargetOnline, "只能踢出离线玩家")})
		return
	}
	r.players = append(r.players[:i], r.players[i+1:]...)
	r.log.Info().Str("nickname", target.Nickname).Msg("player kicked by host")
	r.broadcastPlayers()
}

// ==== host role lifecycle ====

func (r *Room) handleClaimHost(c *Client) {
	if currentHost(r.players) != nil {
		return
	}
	i := findPlayerByConn(r.players, c.ConnID)
	if i == -1 {
		return
	}
	p := r.players[i]
	p.IsHost = true
	r.host = c.ConnID
	r.broadcastPlayers()
	r.sendTo(c.ConnID, &Event{Kind: EventHostData, Library: r.listLibrary()})
}

func (r *Room) handleResignHost(c *Client) {
	if r.puzzle != nil {
		return
	}
	i := findPlayerByConn(r.players, c.ConnID)
	if i == -1 || !r.players[i].IsHost {
		return
	}
	r.players[i].IsHost = false
	r.host = ""
	r.broadcastPlayers()
}

func (r *Room) handleRequestHost(c *Client) {
	i := findPlayerByConn(r.players, c.ConnID)
	host := currentHost(r.players)
	if i == -1 || host == nil {
		return
	}
	requester := r.players[i]
	if requester.ConnID == host.ConnID {
		return
	}
	r.sendTo(host.ConnID, &Event{
		Kind:     EventHostTransferRequest,
		Transfer: &TransferRequest{RequesterConn: requester.ConnID, RequesterName: requester.Nickname},
	})
}

func (r *Room) handleApproveTransfer(c *Client, requesterConn string) {
	hi := findPlayerByConn(r.players, c.ConnID)
	ni := findPlayerByConn(r.players, requesterConn)
	if hi == -1 || ni == -1 || !r.players[hi].IsHost {
		return
	}
	r.players[hi].IsHost = false
	r.players[ni].IsHost = true
	r.host = r.players[ni].ConnID
	r.broadcastPlayers()
	r.sendTo(r.host, &Event{Kind: EventHostData, Library: r.listLibrary()})
}

func (r *Room) handleRejectTransfer(requesterConn string) {
	r.sendTo(requesterConn, &Event{Kind: EventHostTransferRejected})
}

// ==== recovery ====

func (r *Room) handleRecoveryDecision(recover bool) {
	if !r.awaitingRecovery {
		return
	}
	r.awaitingRecovery = false

	if recover {
		// recoveryMode stays set so later reconnects still match the roster.
		r.log.Info().Msg("recovery accepted, session continues")
		r.broadcast(&Event{Kind: EventRecoveryDecisionMade, Recover: true})
		return
	}

	r.recoveryMode = false
	r.puzzle = nil
	r.history = nil
	r.players = nil
	r.startTime = 0
	r.snapshots.Clear()
	r.log.Info().Msg("recovery rejected, starting fresh")
	r.broadcast(&Event{Kind: EventRecoveryDecisionMade, Recover: false})
}

// ==== puzzle lifecycle ====

func (r *Room) handleCreateCustomPuzzle(c *Client, draft *PuzzleDraft) {
	if c.ConnID != r.host || draft == nil {
		return
	}
	if countOnline(r.players) < 2 {
		r.sendTo(c.ConnID, &Event{Kind: EventError, Error: coreError(ErrCodeNotEnoughPlayers, "至少需要2名玩家才能开始游戏（包括主持人）")})
		return
	}

	p := &Puzzle{
		ID:            r.nextID(),
		Title:         draft.Title,
		Content:       draft.Content,
		Answer:        draft.Answer,
		ContentImages: draft.ContentImages,
		AnswerImages:  draft.AnswerImages,
	}
	if p.Title == "" {
		p.Title = "自定义海龟汤"
	}
	if p.ContentImages == nil {
		p.ContentImages = []string{}
	}
	if p.AnswerImages == nil {
		p.AnswerImages = []string{}
	}

	if err := r.library.Add(r.ctx, p); err != nil {
		r.log.Warn().Err(err).Str("title", p.Title).Msg("failed to store custom puzzle")
	}
	r.sendTo(c.ConnID, &Event{Kind: EventHostData, Library: r.listLibrary()})

	r.startSession(c, p, normalizedLimits(draft.Limits))
}

func (r *Room) handleSelectPuzzle(c *Client, puzzleID int64, limits *Limits) {
	if c.ConnID != r.host {
		return
	}
	if countOnline(r.players) < 2 {
		r.sendTo(c.ConnID, &Event{Kind: EventError, Error: coreError(ErrCodeNotEnoughPlayers, "至少需要2名玩家才能开始游戏（包括主持人）")})
		return
	}
	p, err := r.library.Get(r.ctx, puzzleID)
	if err != nil || p == nil {
		if err != nil {
			r.log.Warn().Err(err).Int64("id", puzzleID).Msg("puzzle lookup failed")
		}
		return
	}
	var l Limits
	if limits != nil {
		l = normalizedLimits(*limits)
	}
	r.startSession(c, p, l)
}

// startSession moves the room from lobby to a running puzzle.
func (r *Room) startSession(host *Client, p *Puzzle, limits Limits) {
	r.puzzle = p
	r.history = nil
	r.recoveryMode = false
	r.startTime = r.now().UnixMilli()
	r.limits = limits

	r.broadcast(&Event{Kind: EventNewPuzzle, Start: &SessionStart{
		Puzzle:    r.puzzle.View(),
		Limits:    r.limits,
		StartTime: r.startTime,
	}})
	r.sendTo(host.ConnID, &Event{Kind: EventPuzzleReveal, Puzzle: clonePuzzle(r.puzzle)})
	r.persist()
}

func (r *Room) handleUpdatePuzzle(c *Client, draft *PuzzleDraft) {
	if c.ConnID != r.host || r.puzzle == nil || draft == nil {
		return
	}

	r.puzzle.Title = draft.Title
	r.puzzle.Content = draft.Content
	r.puzzle.Answer = draft.Answer
	r.puzzle.ContentImages = draft.ContentImages
	r.puzzle.AnswerImages = draft.AnswerImages
	if r.puzzle.ContentImages == nil {
		r.puzzle.ContentImages = []string{}
	}
	if r.puzzle.AnswerImages == nil {
		r.puzzle.AnswerImages = []string{}
	}
	r.limits = draft.Limits

	if err := r.library.Update(r.ctx, r.puzzle); err != nil {
		r.log.Warn().Err(err).Int64("id", r.puzzle.ID).Msg("failed to update stored puzzle")
	}

	r.broadcast(&Event{Kind: EventPuzzleUpdated, Update: &PuzzleUpdate{
		Puzzle: r.puzzle.View(),
		Limits: r.limits,
	}})
	r.sendTo(c.ConnID, &Event{Kind: EventPuzzleReveal, Puzzle: clonePuzzle(r.puzzle)})
	r.persist()
}

func (r *Room) handleReveal(c *Client) {
	if c.ConnID != r.host || r.puzzle == nil {
		return
	}
	r.broadcast(&Event{Kind: EventGameOver, Answer: r.puzzle.Answer})
}

func (r *Room) handleReturnToLobby(c *Client) {
	if c.ConnID != r.host {
		return
	}
	r.puzzle = nil
	r.history = nil
	r.recoveryMode = false
	r.startTime = 0
	r.limits = Limits{}

	for i := len(r.players) - 1; i >= 0; i-- {
		if !r.players[i].IsOnline {
			r.players = append(r.players[:i], r.players[i+1:]...)
		}
	}

	r.snapshots.Clear()
	r.broadcast(&Event{Kind: EventReturnToLobby})
	r.broadcastPlayers()
	r.sendTo(c.ConnID, &Event{Kind: EventHostData, Library: r.listLibrary()})
}

// ==== questions ====

func (r *Room) handleAsk(c *Client, text string) {
	if r.puzzle == nil {
		return
	}
	i := findPlayerByConn(r.players, c.ConnID)
	if i == -1 {
		return
	}
	player := r.players[i]

	if cerr := CanAsk(r.history, r.limits, player.UserID, onlineNonHostPlayers(r.players)); cerr != nil {
		r.sendTo(c.ConnID, &Event{Kind: EventError, Error: cerr})
		return
	}

	q := &Question{
		ID:       r.nextID(),
		PlayerID: c.ConnID,
		UserID:   player.UserID,
		Nickname: player.Nickname,
		Question: text,
		Status:   StatusPending,
	}
	r.history = append(r.history, q)
	r.broadcast(&Event{Kind: EventNewQuestion, Question: cloneQuestion(q)})
	r.persist()
}

func (r *Room) handleAnswer(c *Client, req *AnswerRequest) {
	if c.ConnID != r.host || req == nil {
		return
	}
	var q *Question
	for _, entry := range r.history {
		if entry.ID == req.QuestionID {
			q = entry
			break
		}
	}
	if q == nil || q.Status == StatusAnswered {
		return
	}

	text := req.Kind.Text(req.CustomText)
	q.Answer = &text
	q.AnswerKind = req.Kind
	q.Status = StatusAnswered

	r.broadcast(&Event{Kind: EventQuestionAnswered, Question: cloneQuestion(q)})
	r.persist()
}

// ==== persistence ====

func (r *Room) persist() {
	if r.puzzle == nil {
		return
	}
	players := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		cp := *p
		cp.IsOnline = false // everyone starts offline after a restart
		players = append(players, &cp)
	}
	r.snapshots.Save(&Snapshot{
		CurrentPuzzle: clonePuzzle(r.puzzle),
		History:       cloneHistory(r.history),
		Players:       players,
		Limits:        r.limits,
		StartTime:     r.startTime,
		SavedAt:       r.now().UnixMilli(),
	})
}

// ==== outbound plumbing ====

func (r *Room) broadcast(ev *Event) {
	for _, c := range r.clients {
		select {
		case c.Events <- ev:
		default:
			// Drop if slow consumer.
		}
	}
}

func (r *Room) sendTo(connID string, ev *Event) {
	c, ok := r.clients[connID]
	if !ok {
		return
	}
	select {
	case c.Events <- ev:
	default:
	}
}

func (r *Room) broadcastPlayers() {
	r.broadcast(&Event{Kind: EventPlayerUpdate, Players: clonePlayers(r.players)})
}

func (r *Room) buildInitState(p *Player, firstReconnector bool) *InitState {
	init := &InitState{
		MyID:             p.ConnID,
		UserID:           p.UserID,
		ServerSessionID:  r.serverSessionID,
		Players:          clonePlayers(r.players),
		Puzzle:           r.puzzle.View(),
		History:          cloneHistory(r.history),
		Limits:           r.limits,
		StartTime:        r.startTime,
		RecoveryMode:     r.recoveryMode,
		AwaitingRecovery: r.awaitingRecovery,
		FirstReconnector: firstReconnector,
	}
	if p.IsHost {
		init.FullPuzzle = clonePuzzle(r.puzzle)
		init.Library = r.listLibrary()
	}
	return init
}

func (r *Room) listLibrary() []*Puzzle {
	puzzles, err := r.library.List(r.ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to list puzzle library")
		return []*Puzzle{}
	}
	return puzzles
}

func (r *Room) statusView() StatusView {
	phase := "lobby"
	switch {
	case r.awaitingRecovery:
		phase = "recovery"
	case r.puzzle != nil:
		phase = "in_progress"
	}
	return StatusView{
		Phase:            phase,
		ServerSessionID:  r.serverSessionID,
		Players:          clonePlayers(r.players),
		History:          cloneHistory(r.history),
		Puzzle:           clonePuzzle(r.puzzle),
		Limits:           r.limits,
		StartTime:        r.startTime,
		HostConn:         r.host,
		RecoveryMode:     r.recoveryMode,
		AwaitingRecovery: r.awaitingRecovery,
		NumClients:       len(r.clients),
	}
}

// nextID returns a millisecond timestamp, bumped when necessary so ids stay
// strictly monotonic within the room.
func (r *Room) nextID() int64 {
	id := r.now().UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id
	return id
}

func normalizedLimits(l Limits) Limits {
	out := Limits{}
	if l.MaxQuestionsPerPlayer != nil && *l.MaxQuestionsPerPlayer > 0 {
		v := *l.MaxQuestionsPerPlayer
		out.MaxQuestionsPerPlayer = &v
	}
	if l.MaxTotalQuestions != nil && *l.MaxTotalQuestions > 0 {
		v := *l.MaxTotalQuestions
		out.MaxTotalQuestions = &v
	}
	return out
}

func shortID(id string) string {
	if len(id) > 4 {
		return id[:4]
	}
	return id
}

func clonePlayers(ps []*Player) []*Player {
	out := make([]*Player, 0, len(ps))
	for _, p := range ps {
		cp := *p
		out = append(out, &cp)
	}
	return out
}

func cloneQuestion(q *Question) *Question {
	if q == nil {
		return nil
	}
	cp := *q
	if q.Answer != nil {
		text := *q.Answer
		cp.Answer = &text
	}
	return &cp
}

func cloneHistory(qs []*Question) []*Question {
	out := make([]*Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, cloneQuestion(q))
	}
	return out
}

func clonePuzzle(p *Puzzle) *Puzzle {
	if p == nil {
		return nil
	}
	cp := *p
	cp.ContentImages = append([]string(nil), p.ContentImages...)
	cp.AnswerImages = append([]string(nil), p.AnswerImages...)
	return &cp
}
