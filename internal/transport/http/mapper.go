package http

import (
	"encoding/json"

	"github.com/mxchen/turtlesoup-server/internal/core"
	"github.com/mxchen/turtlesoup-server/internal/proto"
)

// inboundToCommand maps a wire message to a core command. A nil command with
// a nil error means the message was recognized but malformed; per the error
// model such messages are dropped silently.
func inboundToCommand(inbound proto.Inbound) (*core.Command, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if len(inbound.Data) > 0 {
			if err := json.Unmarshal(inbound.Data, &join); err != nil {
				return nil, err
			}
		}
		return &core.Command{
			Kind: core.CommandJoin,
			Join: &core.JoinRequest{
				Nickname:     join.Nickname,
				UserID:       join.UserID,
				SessionToken: join.SessionID,
				RoleHint:     join.RoleHint,
			},
		}, nil

	case proto.InboundTypeClaimHost:
		return &core.Command{Kind: core.CommandClaimHost}, nil

	case proto.InboundTypeRecoveryDecision:
		var decision proto.RecoveryDecisionData
		if err := json.Unmarshal(inbound.Data, &decision); err != nil {
			return nil, err
		}
		return &core.Command{Kind: core.CommandRecoveryDecision, Recover: decision.Recover}, nil

	case proto.InboundTypeRecoverGame:
		return &core.Command{Kind: core.CommandRecoveryDecision, Recover: true}, nil

	case proto.InboundTypeStartNewGame:
		return &core.Command{Kind: core.CommandRecoveryDecision, Recover: false}, nil

	case proto.InboundTypeResignHost:
		return &core.Command{Kind: core.CommandResignHost}, nil

	case proto.InboundTypeKickPlayer:
		target, err := connRef(inbound.Data, "playerId")
		if err != nil || target == "" {
			return nil, err
		}
		return &core.Command{Kind: core.CommandKickPlayer, TargetConn: target}, nil

	case proto.InboundTypeRequestHost:
		return &core.Command{Kind: core.CommandRequestHost}, nil

	case proto.InboundTypeApproveHostTransfer:
		target, err := connRef(inbound.Data, "requesterId")
		if err != nil || target == "" {
			return nil, err
		}
		return &core.Command{Kind: core.CommandApproveHostTransfer, TargetConn: target}, nil

	case proto.InboundTypeRejectHostTransfer:
		target, err := connRef(inbound.Data, "requesterId")
		if err != nil || target == "" {
			return nil, err
		}
		return &core.Command{Kind: core.CommandRejectHostTransfer, TargetConn: target}, nil

	case proto.InboundTypeCreateCustomPuzzle:
		var data proto.PuzzleData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		return &core.Command{Kind: core.CommandCreateCustomPuzzle, Draft: draftFromData(data)}, nil

	case proto.InboundTypeSelectPuzzle:
		// Older clients send a bare numeric id instead of an object.
		var id int64
		if err := json.Unmarshal(inbound.Data, &id); err == nil {
			return &core.Command{Kind: core.CommandSelectPuzzle, PuzzleID: id}, nil
		}
		var data proto.SelectPuzzleData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		return &core.Command{
			Kind:     core.CommandSelectPuzzle,
			PuzzleID: data.ID,
			Limits: &core.Limits{
				MaxQuestionsPerPlayer: data.MaxQuestionsPerPlayer,
				MaxTotalQuestions:     data.MaxTotalQuestions,
			},
		}, nil

	case proto.InboundTypeAskQuestion:
		// Older clients send the question as a bare string.
		var text string
		if err := json.Unmarshal(inbound.Data, &text); err == nil {
			return &core.Command{Kind: core.CommandAskQuestion, Text: text}, nil
		}
		var ask proto.AskData
		if err := json.Unmarshal(inbound.Data, &ask); err != nil {
			return nil, err
		}
		return &core.Command{Kind: core.CommandAskQuestion, Text: ask.Text}, nil

	case proto.InboundTypeAnswerQuestion:
		var data proto.AnswerData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		return &core.Command{
			Kind: core.CommandAnswerQuestion,
			Answer: &core.AnswerRequest{
				QuestionID: data.QuestionID,
				Kind:       core.AnswerKind(data.AnswerType),
				CustomText: data.CustomText,
			},
		}, nil

	case proto.InboundTypeRevealAnswer:
		return &core.Command{Kind: core.CommandRevealAnswer}, nil

	case proto.InboundTypeUpdatePuzzle:
		var data proto.PuzzleData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		return &core.Command{Kind: core.CommandUpdatePuzzle, Draft: draftFromData(data)}, nil

	case proto.InboundTypeReturnToLobby:
		return &core.Command{Kind: core.CommandReturnToLobby}, nil

	default:
		return nil, nil
	}
}

func connRef(data json.RawMessage, key string) (string, error) {
	// Accept both {"<key>": "..."} and a bare string.
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}
	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", err
	}
	return obj[key], nil
}

func draftFromData(data proto.PuzzleData) *core.PuzzleDraft {
	return &core.PuzzleDraft{
		Title:         data.Title,
		Content:       data.Content,
		Answer:        data.Answer,
		ContentImages: data.ContentImages,
		AnswerImages:  data.AnswerImages,
		Limits: core.Limits{
			MaxQuestionsPerPlayer: data.MaxQuestionsPerPlayer,
			MaxTotalQuestions:     data.MaxTotalQuestions,
		},
	}
}

// outboundFromEvent maps a core event to its wire form.
func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventInitState:
		return proto.Outbound{Type: proto.OutboundTypeInitState, Data: initStateData(event.Init)}

	case core.EventPlayerUpdate:
		return proto.Outbound{Type: proto.OutboundTypePlayerUpdate, Data: playerInfos(event.Players)}

	case core.EventNewPuzzle:
		return proto.Outbound{Type: proto.OutboundTypeNewPuzzle, Data: proto.NewPuzzleData{
			Title:         event.Start.Puzzle.Title,
			Content:       event.Start.Puzzle.Content,
			ContentImages: event.Start.Puzzle.ContentImages,
			Limits:        limitsInfo(event.Start.Limits),
			StartTime:     event.Start.StartTime,
		}}

	case core.EventPuzzleReveal:
		return proto.Outbound{Type: proto.OutboundTypePuzzleReveal, Data: fullPuzzle(event.Puzzle)}

	case core.EventPuzzleUpdated:
		return proto.Outbound{Type: proto.OutboundTypePuzzleUpdated, Data: proto.PuzzleUpdatedData{
			Puzzle: puzzleInfo(event.Update.Puzzle),
			Limits: limitsInfo(event.Update.Limits),
		}}

	case core.EventNewQuestion:
		return proto.Outbound{Type: proto.OutboundTypeNewQuestion, Data: questionInfo(event.Question)}

	case core.EventQuestionAnswered:
		return proto.Outbound{Type: proto.OutboundTypeQuestionAnswered, Data: questionInfo(event.Question)}

	case core.EventGameOver:
		return proto.Outbound{Type: proto.OutboundTypeGameOver, Data: proto.GameOverData{Answer: event.Answer}}

	case core.EventHostData:
		return proto.Outbound{Type: proto.OutboundTypeHostData, Data: fullPuzzles(event.Library)}

	case core.EventHostTransferRequest:
		return proto.Outbound{Type: proto.OutboundTypeHostTransferRequest, Data: proto.HostTransferRequestData{
			RequesterID:   event.Transfer.RequesterConn,
			RequesterName: event.Transfer.RequesterName,
		}}

	case core.EventHostTransferRejected:
		return proto.Outbound{Type: proto.OutboundTypeHostTransferRejected}

	case core.EventRecoveryDecisionMade:
		return proto.Outbound{Type: proto.OutboundTypeRecoveryDecisionMade, Data: proto.RecoveryDecisionMadeData{Recover: event.Recover}}

	case core.EventReturnToLobby:
		return proto.Outbound{Type: proto.OutboundTypeReturnToLobby}

	case core.EventError:
		msg := "unknown error"
		if event.Error != nil {
			msg = event.Error.Message
		}
		return proto.Outbound{Type: proto.OutboundTypeErrorMessage, Data: proto.ErrorMessageData{Message: msg}}

	default:
		return proto.Outbound{Type: proto.OutboundTypeErrorMessage, Data: proto.ErrorMessageData{Message: "unknown event"}}
	}
}

func initStateData(init *core.InitState) proto.InitStateData {
	data := proto.InitStateData{
		MyID:                       init.MyID,
		UserID:                     init.UserID,
		ServerSessionID:            init.ServerSessionID,
		Players:                    playerInfos(init.Players),
		History:                    questionInfos(init.History),
		Limits:                     limitsInfo(init.Limits),
		StartTime:                  init.StartTime,
		RecoveryMode:               init.RecoveryMode,
		WaitingForRecoveryDecision: init.AwaitingRecovery,
		IsFirstReconnector:         init.FirstReconnector,
		Puzzles:                    fullPuzzles(init.Library),
	}
	if init.Puzzle != nil {
		info := puzzleInfo(init.Puzzle)
		data.CurrentPuzzle = &info
	}
	if init.FullPuzzle != nil {
		full := fullPuzzle(init.FullPuzzle)
		data.FullPuzzle = &full
	}
	return data
}

func playerInfos(players []*core.Player) []proto.PlayerInfo {
	out := make([]proto.PlayerInfo, 0, len(players))
	for _, p := range players {
		out = append(out, proto.PlayerInfo{
			ID:       p.ConnID,
			UserID:   p.UserID,
			Nickname: p.Nickname,
			IsHost:   p.IsHost,
			IsOnline: p.IsOnline,
		})
	}
	return out
}

func questionInfo(q *core.Question) proto.QuestionInfo {
	return proto.QuestionInfo{
		ID:         q.ID,
		PlayerID:   q.PlayerID,
		UserID:     q.UserID,
		Nickname:   q.Nickname,
		Question:   q.Question,
		Answer:     q.Answer,
		AnswerType: string(q.AnswerKind),
		Status:     string(q.Status),
	}
}

func questionInfos(qs []*core.Question) []proto.QuestionInfo {
	out := make([]proto.QuestionInfo, 0, len(qs))
	for _, q := range qs {
		out = append(out, questionInfo(q))
	}
	return out
}

func puzzleInfo(v *core.PuzzleView) proto.PuzzleInfo {
	return proto.PuzzleInfo{
		Title:         v.Title,
		Content:       v.Content,
		ContentImages: v.ContentImages,
	}
}

func fullPuzzle(p *core.Puzzle) proto.FullPuzzle {
	return proto.FullPuzzle{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		Answer:        p.Answer,
		ContentImages: p.ContentImages,
		AnswerImages:  p.AnswerImages,
	}
}

func fullPuzzles(ps []*core.Puzzle) []proto.FullPuzzle {
	out := make([]proto.FullPuzzle, 0, len(ps))
	for _, p := range ps {
		out = append(out, fullPuzzle(p))
	}
	return out
}

func limitsInfo(l core.Limits) proto.LimitsInfo {
	return proto.LimitsInfo{
		MaxQuestionsPerPlayer: l.MaxQuestionsPerPlayer,
		MaxTotalQuestions:     l.MaxTotalQuestions,
	}
}
