package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/mxchen/turtlesoup-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	nickname := flag.String("nickname", "smoke", "nickname to join with")
	roleHint := flag.String("role", "", "role hint, pass 'host' to claim the host seat")
	question := flag.String("question", "", "question to ask once joined (optional)")
	timeout := flag.Duration("timeout", 10*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(msgType string, v any) error {
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", msgType, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", msgType, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeJoin, proto.JoinData{Nickname: *nickname, RoleHint: *roleHint}); err != nil {
		return err
	}

	asked := false
	for {
		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received: type=%s\n", msg.Type)

		switch msg.Type {
		case proto.OutboundTypeInitState:
			var init proto.InitStateData
			if err := json.Unmarshal(msg.Data, &init); err != nil {
				return fmt.Errorf("unmarshal init_state: %w", err)
			}
			fmt.Printf("Joined: myId=%s userId=%s session=%s players=%d\n",
				init.MyID, init.UserID, init.ServerSessionID, len(init.Players))
			if init.CurrentPuzzle != nil {
				fmt.Printf("Active puzzle: %s\n", init.CurrentPuzzle.Title)
			}
			if *question != "" && !asked {
				if err := send(proto.InboundTypeAskQuestion, proto.AskData{Text: *question}); err != nil {
					return err
				}
				asked = true
			}

		case proto.OutboundTypeNewQuestion:
			var q proto.QuestionInfo
			if err := json.Unmarshal(msg.Data, &q); err == nil {
				fmt.Printf("Question #%d from %s: %q\n", q.ID, q.Nickname, q.Question)
			}

		case proto.OutboundTypeQuestionAnswered:
			var q proto.QuestionInfo
			if err := json.Unmarshal(msg.Data, &q); err == nil && q.Answer != nil {
				fmt.Printf("Answer to #%d: %s\n", q.ID, *q.Answer)
				return nil
			}

		case proto.OutboundTypeErrorMessage:
			var e proto.ErrorMessageData
			if err := json.Unmarshal(msg.Data, &e); err == nil {
				fmt.Printf("Error: %s\n", e.Message)
			}

		default:
			// keep looping
		}
	}
}
