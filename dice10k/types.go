package dice10k

import (
	"encoding/json"
	"strings"
)

// Outcome is the decoded form of the free-text message the game API returns
// from roll and keep calls.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomePickKeepers
	OutcomeBusted
	OutcomeStealRejected
	OutcomeNoScoringDice
)

// Messages the game API is known to send.
const (
	MessagePickKeepers   = "Pick Keepers!"
	MessageBustedPrefix  = "BUSTED"
	MessageStealRejected = "You can't steal, it'll put you over 10k"
	MessageNoScoringDice = "Must pick at least one scoring die"
	completedState       = "completed"
)

// ParseOutcome classifies an API message.
func ParseOutcome(message string) Outcome {
	switch {
	case message == MessagePickKeepers:
		return OutcomePickKeepers
	case strings.HasPrefix(message, MessageBustedPrefix):
		return OutcomeBusted
	case message == MessageStealRejected:
		return OutcomeStealRejected
	case message == MessageNoScoringDice:
		return OutcomeNoScoringDice
	default:
		return OutcomeUnknown
	}
}

func (o Outcome) String() string {
	switch o {
	case OutcomePickKeepers:
		return "PickKeepers"
	case OutcomeBusted:
		return "Busted"
	case OutcomeStealRejected:
		return "StealRejected"
	case OutcomeNoScoringDice:
		return "NoScoringDice"
	default:
		return "Unknown"
	}
}

// Player is one entry of a game's player list.
type Player struct {
	Name          string `json:"name"`
	Points        int    `json:"points"`
	PendingPoints int    `json:"pending-points"`
	IceBroken     bool   `json:"ice-broken?"`
}

// Game is the API's view of a game, returned by FetchGame and nested as
// game-state in turn responses.
type Game struct {
	ID            string   `json:"game-id,omitempty"`
	State         string   `json:"state"`
	TurnPlayer    string   `json:"turn-player"`
	PendingPoints int      `json:"pending-points"`
	PendingDice   int      `json:"pending-dice"`
	Players       []Player `json:"players"`
}

// Player finds a player by name.
func (g Game) Player(name string) (Player, bool) {
	for _, p := range g.Players {
		if p.Name == name {
			return p, true
		}
	}
	return Player{}, false
}

// Completed reports whether the game is over.
func (g Game) Completed() bool {
	return g.State == completedState
}

// Robbable reports whether name's turn can be stolen from, which the API
// allows once the player has broken the ice.
func (g Game) Robbable(name string) bool {
	p, ok := g.Player(name)
	return ok && p.IceBroken
}

// turnResult holds the fields shared by roll, keep and pass responses.
type turnResult struct {
	Message       string `json:"message"`
	Roll          []int  `json:"roll"`
	PendingPoints int    `json:"pending-points"`
	GameState     Game   `json:"game-state"`
}

// RollResponse is the answer to Roll.
type RollResponse struct {
	Outcome       Outcome `json:"-"`
	Message       string  `json:"message"`
	Roll          []int   `json:"roll"`
	PendingPoints int     `json:"pending-points"`
	GameState     Game    `json:"game-state"`
}

func (r *RollResponse) UnmarshalJSON(b []byte) error {
	var t turnResult
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	*r = RollResponse{
		Outcome:       ParseOutcome(t.Message),
		Message:       t.Message,
		Roll:          t.Roll,
		PendingPoints: t.PendingPoints,
		GameState:     t.GameState,
	}
	return nil
}

// KeepResponse is the answer to SendKeepers.
type KeepResponse RollResponse

func (r *KeepResponse) UnmarshalJSON(b []byte) error {
	return (*RollResponse)(r).UnmarshalJSON(b)
}

// PassResponse is the answer to PassTurn.
type PassResponse struct {
	Message       string `json:"message"`
	PendingPoints int    `json:"pending-points"`
	GameState     Game   `json:"game-state"`
}

// StartGameResponse is the answer to StartGame.
type StartGameResponse struct {
	Message    string `json:"message"`
	TurnPlayer string `json:"turn-player"`
	GameState  Game   `json:"game-state"`
}

// AddPlayerResponse is the answer to AddPlayer.
type AddPlayerResponse struct {
	PlayerID string `json:"player-id"`
}

// CreateGameResponse is the answer to CreateGame.
type CreateGameResponse struct {
	GameID string `json:"game-id"`
}
