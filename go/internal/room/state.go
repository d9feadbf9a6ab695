package room

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/roomsync/go/internal/models"
)

// State is one room's in-memory view, kept converged with the store by the
// dispatcher. Reads come from websocket attach snapshots and command
// handlers; writes come from feed echoes plus the score board's optimistic
// updates. Values handed out are copies.
type State struct {
	mu       sync.RWMutex
	members  []models.Member
	scores   map[uuid.UUID]int
	messages []models.ChatMessage
	round    *models.Round
}

func NewState() *State {
	return &State{
		scores: make(map[uuid.UUID]int),
	}
}

func (s *State) SetMembers(members []models.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = members
}

func (s *State) Members() []models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Member, len(s.members))
	copy(out, s.members)
	return out
}

// SetScores replaces the whole board with the canonical store view,
// discarding any optimistic values.
func (s *State) SetScores(entries []models.ScoreEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores = make(map[uuid.UUID]int, len(entries))
	for _, e := range entries {
		s.scores[e.UserID] = e.Score
	}
}

// Score returns the locally known score, zero if absent.
func (s *State) Score(userID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scores[userID]
}

// ApplyScore records an optimistic score value ahead of the feed echo.
func (s *State) ApplyScore(userID uuid.UUID, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[userID] = value
}

// Scores returns the board keyed by user id string, ready for push payloads.
func (s *State) Scores() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.scores))
	for id, score := range s.scores {
		out[id.String()] = score
	}
	return out
}

func (s *State) SetMessages(messages []models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = messages
}

// AppendMessage adds one feed-echoed chat row to the log. No dedup key is
// applied; the log mirrors delivery order as-is.
func (s *State) AppendMessage(msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

func (s *State) Messages() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *State) SetRound(round *models.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round = round
}

func (s *State) Round() *models.Round {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.round == nil {
		return nil
	}
	round := *s.round
	return &round
}
