// Package game remembers where each game lives in Slack.
package game

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store for an unknown game id.
var ErrNotFound = errors.New("game not found")

// Player links a dice10k player to a Slack user.
type Player struct {
	UserID  string `json:"user_id"`
	SlackID string `json:"slack_id"`
}

// Info is everything needed to relay a game's events to Slack. The dice10k
// API owns the game itself.
type Info struct {
	GameID          string            `json:"game_id"`
	Channel         string            `json:"channel"`
	ParentMessageTS string            `json:"parent_message_ts"`
	AutoBreak       bool              `json:"auto_break"`
	Users           map[string]Player `json:"users"`
}

// Player looks up a joined player by Slack username.
func (i *Info) Player(username string) (Player, bool) {
	p, ok := i.Users[username]
	return p, ok
}

// Store keeps Info between interactions.
type Store interface {
	Get(ctx context.Context, gameID string) (*Info, error)
	Put(ctx context.Context, info *Info) error
	// AddPlayer records one player without rewriting the rest of the game,
	// so concurrent joins all survive. It returns ErrNotFound for an
	// unknown game.
	AddPlayer(ctx context.Context, gameID, username string, p Player) error
	Delete(ctx context.Context, gameID string) error
}

func (i *Info) clone() *Info {
	c := *i
	c.Users = make(map[string]Player, len(i.Users))
	for k, v := range i.Users {
		c.Users[k] = v
	}
	return &c
}
