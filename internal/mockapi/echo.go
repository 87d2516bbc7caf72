package mockapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
)

// maxEchoReadSize caps websocket frames; echo messages are short text.
const maxEchoReadSize = 1 << 16 // 64 KB

// handleEcho is a websocket greeting/echo endpoint. The first client
// message is treated as a nickname; every later message is echoed back
// with a timestamp prefix.
func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Mock servers are development tools; skip origin checks.
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Debug("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()
	conn.SetReadLimit(maxEchoReadSize)

	ctx := r.Context()
	if err := conn.Write(ctx, websocket.MessageText, []byte("Hello buddy, what's your name?")); err != nil {
		return
	}

	_, name, err := conn.Read(ctx)
	if err != nil {
		return
	}
	greeting := fmt.Sprintf("Nice to meet you, %s!", strings.TrimSpace(string(name)))
	if err := conn.Write(ctx, websocket.MessageText, []byte(greeting)); err != nil {
		return
	}

	if err := s.echoLoop(ctx, conn); err != nil {
		slog.Debug("echo connection closed", "error", err)
	}
}

func (s *Server) echoLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		reply := fmt.Sprintf("%s %s", time.Now().UTC().Format(time.RFC3339), msg)
		if err := conn.Write(ctx, websocket.MessageText, []byte(reply)); err != nil {
			return err
		}
	}
}
