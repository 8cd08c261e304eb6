package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lk16/swap/internal/othello"
)

// ErrHumanToMove is returned by BotMove when no bot plays the side to move.
var ErrHumanToMove = errors.New("human to move")

// Session is a game in progress. The history is a stack of board snapshots
// with a cursor on the current one; moves made after an undo drop the
// boards ahead of the cursor. A Session is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	boards  []Board
	cursor  int
	players [2]Player
	cfg     PlayerConfig
}

// NewSession starts a game from the standard board with two humans.
func NewSession(cfg PlayerConfig) *Session {
	return &Session{boards: []Board{NewBoard()}, cfg: cfg}
}

// Current returns the board at the cursor.
func (s *Session) Current() Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boards[s.cursor]
}

// History returns the boards up to and including the current one.
func (s *Session) History() []Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Board(nil), s.boards[:s.cursor+1]...)
}

// DoMove plays sq on the current board. When the side to move next has to
// pass, the passed board is pushed as well.
func (s *Session) DoMove(sq othello.Square) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doMove(sq)
}

func (s *Session) doMove(sq othello.Square) error {
	b, err := s.boards[s.cursor].Play(sq)
	if err != nil {
		return err
	}
	s.boards = append(s.boards[:s.cursor+1], b)
	s.cursor++
	if b.HasToPass() {
		s.boards = append(s.boards, b.Pass())
		s.cursor++
	}
	return nil
}

// hasHumanTurn reports whether a human can move on b.
func (s *Session) hasHumanTurn(b Board) bool {
	return s.players[b.Turn] == nil && b.Position.HasMoves()
}

// Undo moves the cursor back to the latest earlier board on which a human
// was to move. It returns false when there is none.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := s.cursor - 1; i >= 0; i-- {
		if s.hasHumanTurn(s.boards[i]) {
			s.cursor = i
			return true
		}
	}
	return false
}

// Redo moves the cursor forward to the next board on which a human is to
// move. It returns false when there is none.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := s.cursor + 1; i < len(s.boards); i++ {
		if s.hasHumanTurn(s.boards[i]) {
			s.cursor = i
			return true
		}
	}
	return false
}

// Reset starts over from b, dropping the history. Players are kept.
func (s *Session) Reset(b Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = []Board{b}
	s.cursor = 0
}

// SetPlayer assigns the player called name to colour c.
func (s *Session) SetPlayer(c Color, name string) error {
	if c != Black && c != White {
		return fmt.Errorf("invalid colour %d", int(c))
	}
	p, err := NewPlayer(name, s.cfg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[c] = p
	return nil
}

// PlayerName returns the name of the player of colour c.
func (s *Session) PlayerName(c Color) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.players[c]; p != nil {
		return p.Name()
	}
	return Human
}

// BotToMove reports whether a bot plays the side to move and the game is
// not over.
func (s *Session) BotToMove() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.boards[s.cursor]
	return s.players[b.Turn] != nil && !b.IsGameOver()
}

// BotMove lets the bot of the side to move pick and play a move. The lock is
// not held while the bot thinks; if the board changed meanwhile, the move is
// dropped and BotMove returns NoMove. A move found after ctx is done is
// dropped too and the context error is returned.
func (s *Session) BotMove(ctx context.Context) (othello.Square, error) {
	s.mu.Lock()
	b := s.boards[s.cursor]
	p := s.players[b.Turn]
	s.mu.Unlock()
	if p == nil {
		return othello.NoMove, ErrHumanToMove
	}
	if b.IsGameOver() {
		return othello.NoMove, ErrNoMoves
	}

	sq, err := p.Move(ctx, b)
	if err != nil {
		return othello.NoMove, fmt.Errorf("%s: %w", p.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return othello.NoMove, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.boards[s.cursor] != b {
		return othello.NoMove, nil
	}
	if err := s.doMove(sq); err != nil {
		return othello.NoMove, fmt.Errorf("%s played %v: %w", p.Name(), sq, err)
	}
	return sq, nil
}
