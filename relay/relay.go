// Package relay turns Slack interactions into dice10k API calls and the
// API's answers into Slack messages.
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/aasmall/dice10k-relay/dice10k"
	"github.com/aasmall/dice10k-relay/game"
	"github.com/aasmall/dice10k-relay/lib/logger"
	"github.com/aasmall/dice10k-relay/message"
)

// ErrUnknownPlayer is returned when a username has not joined the game.
var ErrUnknownPlayer = errors.New("player has not joined this game")

// GameAPI is the dice10k API as the relay uses it.
type GameAPI interface {
	CreateGame(ctx context.Context) (*dice10k.CreateGameResponse, error)
	FetchGame(ctx context.Context, gameID string) (*dice10k.Game, error)
	AddPlayer(ctx context.Context, gameID, name string) (*dice10k.AddPlayerResponse, error)
	StartGame(ctx context.Context, gameID string) (*dice10k.StartGameResponse, error)
	Roll(ctx context.Context, gameID, playerID string, steal bool) (*dice10k.RollResponse, error)
	SendKeepers(ctx context.Context, gameID, playerID string, keepers []int) (*dice10k.KeepResponse, error)
	PassTurn(ctx context.Context, gameID, playerID string) (*dice10k.PassResponse, error)
}

// Chat sends messages to Slack.
type Chat interface {
	// PostMessage posts to the channel, or the thread when ThreadTS is set,
	// and returns the new message's ts.
	PostMessage(ctx context.Context, p message.Payload) (string, error)
	PostEphemeral(ctx context.Context, p message.Payload) error
	UpdateMessage(ctx context.Context, p message.Payload) error
	// Respond answers through an interaction's response URL.
	Respond(ctx context.Context, responseURL string, p message.Payload, replaceOriginal bool) error
	DeleteOriginal(ctx context.Context, responseURL string) error
}

// Actor is the Slack user behind an interaction.
type Actor struct {
	Name        string
	SlackID     string
	ResponseURL string
}

// Relay dispatches interactions for every game.
type Relay struct {
	api   GameAPI
	chat  Chat
	games game.Store
	log   *logger.Logger
}

func New(api GameAPI, chat Chat, games game.Store, log *logger.Logger) *Relay {
	return &Relay{api: api, chat: chat, games: games, log: log}
}

func lookupPlayer(info *game.Info, username string) (game.Player, error) {
	p, ok := info.Player(username)
	if !ok {
		return game.Player{}, fmt.Errorf("%s in game %s: %w", username, info.GameID, ErrUnknownPlayer)
	}
	return p, nil
}

func (r *Relay) draft(info *game.Info, text string) message.Draft {
	return message.New(info.GameID, info.Channel, text).InThread(info.ParentMessageTS)
}

func (r *Relay) broadcast(ctx context.Context, info *game.Info, text string) error {
	_, err := r.chat.PostMessage(ctx, r.draft(info, text).Build())
	return err
}

// deleteOriginal removes an interaction's message. Failures are only logged.
func (r *Relay) deleteOriginal(ctx context.Context, responseURL string) {
	if responseURL == "" {
		return
	}
	if err := r.chat.DeleteOriginal(ctx, responseURL); err != nil {
		r.log.Debugf("could not delete original message: %v", err)
	}
}
