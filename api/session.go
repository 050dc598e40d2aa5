package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced by the outer handler.
		return true
	},
}

// handleSession runs one client session. Frames are decoded and
// executed strictly in arrival order on this goroutine, which is the
// per-session ordering the core's contract asks of the transport.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.log.Info("session opened", zap.String("remote", conn.RemoteAddr().String()))

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("session read failed", zap.Error(err))
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			s.reply(conn, Ack{OK: false, Error: "malformed frame"})
			continue
		}
		if err := validate(cmd, s.maxSymbolLen); err != nil {
			s.reply(conn, Ack{OK: false, Error: err.Error()})
			continue
		}

		var seq uint64
		switch cmd.Op {
		case OpBuy:
			seq = s.venue.Buy(cmd.ID, cmd.Symbol, cmd.Price, cmd.Qty)
		case OpSell:
			seq = s.venue.Sell(cmd.ID, cmd.Symbol, cmd.Price, cmd.Qty)
		case OpCancel:
			seq = s.venue.Cancel(cmd.ID)
		}
		s.reply(conn, Ack{OK: true, Seq: seq})
	}
}

func (s *Server) reply(conn *websocket.Conn, ack Ack) {
	if err := conn.WriteJSON(ack); err != nil {
		s.log.Warn("session write failed", zap.Error(err))
	}
}
