package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lk16/swap/internal/othello"
	"github.com/lk16/swap/pkg/game"
)

const (
	wsIdlePingInterval = 30 * time.Second
	wsWriteWait        = 10 * time.Second
	wsSendBuffer       = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient is one websocket connection playing one game.
//
// Clients send single-key objects: {"do_move": 19}, {"undo": null},
// {"redo": null}, {"new_game": null}, {"xot_game": null},
// {"set_black_player": "edax"} and {"set_white_player": "human"}. After
// every accepted message and every bot move the server pushes a
// StateMessage.
type wsClient struct {
	conn    *websocket.Conn
	session *game.Session
	send    chan []byte
	log     zerolog.Logger
}

// WebSocket handles GET /ws: a game session per connection.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &wsClient{
		conn:    conn,
		session: game.NewSession(game.PlayerConfig{Engine: h.engine, Level: h.level}),
		send:    make(chan []byte, wsSendBuffer),
		log:     log.With().Str("remote", r.RemoteAddr).Logger(),
	}
	c.log.Info().Msg("websocket connected")

	// Reads run on their own goroutine so a disconnect cancels ctx and with
	// it a running bot search.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.writePump(); err != nil {
			c.log.Debug().Err(err).Msg("websocket write failed")
		}
	}()
	msgs := make(chan []byte, wsSendBuffer)
	go c.readPump(ctx, cancel, msgs)

	c.pushState(ctx)
	for data := range msgs {
		if ctx.Err() == nil && c.handleMessage(data) {
			c.pushState(ctx)
			c.playBots(ctx)
		}
	}

	cancel()
	close(c.send)
	<-done
	conn.Close()
	c.log.Info().Msg("websocket closed")
}

// writePump sends queued messages, pinging the client when the connection
// has been idle.
func (c *wsClient) writePump() error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()

	fail := func(err error) error {
		c.conn.Close()
		for range c.send {
		}
		return err
	}

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
				return nil
			}
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return fail(err)
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return fail(err)
			}
			lastWrite = time.Now()
		}
	}
}

// readPump queues client messages until the connection fails, then cancels
// ctx and closes msgs.
func (c *wsClient) readPump(ctx context.Context, cancel context.CancelFunc, msgs chan<- []byte) {
	defer close(msgs)
	defer cancel()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}
		select {
		case msgs <- data:
		case <-ctx.Done():
			return
		}
	}
}

// handleMessage applies one client message to the session. It returns false
// for messages that were not understood.
func (c *wsClient) handleMessage(data []byte) bool {
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(data, &msg); err != nil || len(msg) != 1 {
		c.log.Warn().Bytes("message", data).Msg("ignoring malformed message")
		return false
	}

	for kind, arg := range msg {
		switch kind {
		case "do_move":
			var sq int
			if err := json.Unmarshal(arg, &sq); err != nil || sq < 0 || sq >= 64 {
				c.log.Warn().RawJSON("move", arg).Msg("ignoring invalid move")
				return false
			}
			if err := c.session.DoMove(othello.Square(sq)); err != nil {
				c.log.Info().Err(err).Int("move", sq).Msg("ignoring move")
			}
		case "undo":
			c.session.Undo()
		case "redo":
			c.session.Redo()
		case "new_game":
			c.session.Reset(game.NewBoard())
		case "xot_game":
			c.session.Reset(game.NewXOTBoard())
		case "set_black_player", "set_white_player":
			var name string
			if err := json.Unmarshal(arg, &name); err != nil {
				c.log.Warn().RawJSON("player", arg).Msg("ignoring invalid player")
				return false
			}
			color := game.Black
			if kind == "set_white_player" {
				color = game.White
			}
			if err := c.session.SetPlayer(color, name); err != nil {
				c.log.Info().Err(err).Str("color", color.String()).Msg("ignoring player")
			}
		default:
			c.log.Warn().Str("kind", kind).Msg("ignoring unknown message")
			return false
		}
	}
	return true
}

// playBots lets bots move until a human is to move, the game ends or ctx is
// done.
func (c *wsClient) playBots(ctx context.Context) {
	for ctx.Err() == nil && c.session.BotToMove() {
		sq, err := c.session.BotMove(ctx)
		if ctx.Err() != nil {
			c.log.Debug().Msg("bot game abandoned")
			return
		}
		if err != nil {
			c.log.Warn().Err(err).Msg("bot move failed")
			return
		}
		c.log.Debug().Str("move", sq.String()).Msg("bot moved")
		c.pushState(ctx)
	}
}

func (c *wsClient) pushState(ctx context.Context) {
	data, err := json.Marshal(stateMessage(c.session.Current()))
	if err != nil {
		c.log.Error().Err(err).Msg("encoding state")
		return
	}
	select {
	case c.send <- data:
	case <-ctx.Done():
	}
}

func stateMessage(b game.Board) StateMessage {
	return StateMessage{
		Black: squareIndices(b.Black()),
		White: squareIndices(b.White()),
		Moves: squareIndices(b.Position.Moves()),
		Turn:  b.Turn.String(),
	}
}
