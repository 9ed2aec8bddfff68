package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"InvoiceRoom/internal/config"

	"github.com/gorilla/websocket"
)

type watchCmd struct{}

func (watchCmd) Name() string { return "watch" }
func (watchCmd) Description() string {
	return "Follow room events live; an optional message is sent to everyone in the room"
}
func (watchCmd) Usage() string { return "watch <room_hash> [message...]" }

func (watchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	wsURL := newClient(cfg).WebSocketURL("/ws/negotiation/" + args[0] + "/")
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("room %s not found", args[0])
		}
		return err
	}
	defer conn.Close()

	// Отмена ctx (Ctrl+C) закрывает соединение и прерывает чтение.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	if len(args) > 1 {
		frame, _ := json.Marshal(map[string]string{"type": "message", "message": strings.Join(args[1:], " ")})
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return err
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		fmt.Fprintln(Out, formatEvent(data))
	}
}

// formatEvent печатает известные события кратко, прочие кадры как есть.
func formatEvent(data []byte) string {
	var ev struct {
		Type    string          `json:"type"`
		Data    json.RawMessage `json:"data"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return string(data)
	}
	switch ev.Type {
	case "room_state":
		var st struct {
			IsBuyerAssigned bool    `json:"is_buyer_assigned"`
			InvoiceStatus   *string `json:"invoice_status"`
		}
		if json.Unmarshal(ev.Data, &st) == nil {
			status := "-"
			if st.InvoiceStatus != nil {
				status = *st.InvoiceStatus
			}
			return fmt.Sprintf("[state] status=%s buyer_assigned=%t", status, st.IsBuyerAssigned)
		}
	case "negotiation_update":
		var u struct {
			Action string `json:"action"`
			Actor  string `json:"actor"`
			Status string `json:"status"`
			Notes  string `json:"notes"`
		}
		if json.Unmarshal(ev.Message, &u) == nil {
			line := fmt.Sprintf("[update] %s by %s -> %s", u.Action, u.Actor, u.Status)
			if u.Notes != "" {
				line += " (" + u.Notes + ")"
			}
			return line
		}
	}
	return string(data)
}

func init() { RegisterCmd(watchCmd{}) }
