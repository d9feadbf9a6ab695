package room

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/roomsync/go/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestStateSetScoresDiscardsOptimisticValues(t *testing.T) {
	state := NewState()
	userID := uuid.New()

	state.ApplyScore(userID, 10)
	assert.Equal(t, 10, state.Score(userID))

	state.SetScores([]models.ScoreEntry{{UserID: userID, Score: 3}})
	assert.Equal(t, 3, state.Score(userID))

	// Replacing the board drops users no longer present.
	state.SetScores(nil)
	assert.Equal(t, 0, state.Score(userID))
}

func TestStateAccessorsReturnCopies(t *testing.T) {
	state := NewState()
	state.SetMembers([]models.Member{{UserID: uuid.New(), Username: "ada"}})

	got := state.Members()
	got[0].Username = "mutated"
	assert.Equal(t, "ada", state.Members()[0].Username)

	state.AppendMessage(models.ChatMessage{ID: 1, Body: "hi"})
	msgs := state.Messages()
	msgs[0].Body = "mutated"
	assert.Equal(t, "hi", state.Messages()[0].Body)
}

func TestStateRoundCopy(t *testing.T) {
	state := NewState()
	assert.Nil(t, state.Round())

	state.SetRound(&models.Round{ID: 2, Topic: "ocean"})
	round := state.Round()
	round.Topic = "mutated"
	assert.Equal(t, "ocean", state.Round().Topic)
}
