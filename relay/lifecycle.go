package relay

import (
	"context"
	"fmt"

	"github.com/aasmall/dice10k-relay/game"
	"github.com/aasmall/dice10k-relay/message"
)

const startedBanner = "*=====================================*\n" +
	"*Game has started, follow in thread from now on*\n" +
	"*=====================================*"

// NewGame describes the slash command that opens a game.
type NewGame struct {
	ChannelID string
	UserID    string
	UserName  string
	AutoBreak bool
}

// CreateGame opens a game on the API and posts the message its thread will
// hang off.
func (r *Relay) CreateGame(ctx context.Context, ng NewGame) (*game.Info, error) {
	created, err := r.api.CreateGame(ctx)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("<@%s> wants to play dice10k! Join, then start once everyone is in.", ng.UserID)
	if ng.AutoBreak {
		text += "\nDice are kept automatically until the ice is broken."
	}
	p := message.New(created.GameID, ng.ChannelID, text).
		AddButtons(
			message.Button{Text: "Join", ActionID: message.ActionJoinGame},
			message.Button{Text: "Start", ActionID: message.ActionStartGame},
		).Build()
	ts, err := r.chat.PostMessage(ctx, p)
	if err != nil {
		return nil, err
	}
	info := &game.Info{
		GameID:          created.GameID,
		Channel:         ng.ChannelID,
		ParentMessageTS: ts,
		AutoBreak:       ng.AutoBreak,
		Users:           make(map[string]game.Player),
	}
	if err := r.games.Put(ctx, info); err != nil {
		return nil, err
	}
	r.log.Infof("%s created game %s in %s", ng.UserName, info.GameID, info.Channel)
	return info, nil
}

// JoinGame adds the actor to the game. Joining twice is a no-op.
func (r *Relay) JoinGame(ctx context.Context, info *game.Info, actor Actor) error {
	if _, ok := info.Player(actor.Name); ok {
		return nil
	}
	added, err := r.api.AddPlayer(ctx, info.GameID, actor.Name)
	if err != nil {
		return err
	}
	player := game.Player{UserID: added.PlayerID, SlackID: actor.SlackID}
	if err := r.games.AddPlayer(ctx, info.GameID, actor.Name, player); err != nil {
		return err
	}
	if info.Users == nil {
		info.Users = make(map[string]game.Player)
	}
	info.Users[actor.Name] = player
	return r.broadcast(ctx, info, fmt.Sprintf("@%s has successfully joined the game", actor.Name))
}

// StartGame starts the game and rolls for whoever goes first.
func (r *Relay) StartGame(ctx context.Context, info *game.Info, actor Actor) error {
	started, err := r.api.StartGame(ctx, info.GameID)
	if err != nil {
		return err
	}
	r.log.Debugf("game %s started, %s goes first", info.GameID, started.TurnPlayer)
	if actor.ResponseURL != "" {
		banner := message.New(info.GameID, info.Channel, startedBanner).Build()
		if err := r.chat.Respond(ctx, actor.ResponseURL, banner, true); err != nil {
			return err
		}
	}
	return r.RollWithPlayerMessage(ctx, info, started.TurnPlayer, false)
}

// RollDice answers the Roll button.
func (r *Relay) RollDice(ctx context.Context, info *game.Info, actor Actor) error {
	return r.rollFromPrompt(ctx, info, actor, false)
}

// StealDice answers the Steal button.
func (r *Relay) StealDice(ctx context.Context, info *game.Info, actor Actor) error {
	return r.rollFromPrompt(ctx, info, actor, true)
}

// rollFromPrompt leaves the prompt in place for someone who has not joined.
func (r *Relay) rollFromPrompt(ctx context.Context, info *game.Info, actor Actor, steal bool) error {
	if _, err := lookupPlayer(info, actor.Name); err != nil {
		return err
	}
	r.deleteOriginal(ctx, actor.ResponseURL)
	return r.RollWithPlayerMessage(ctx, info, actor.Name, steal)
}

// PassDice banks the actor's points and moves on to the next player, who
// may steal what was left on the table.
func (r *Relay) PassDice(ctx context.Context, info *game.Info, actor Actor) error {
	player, err := lookupPlayer(info, actor.Name)
	if err != nil {
		return err
	}
	r.deleteOriginal(ctx, actor.ResponseURL)
	passed, err := r.api.PassTurn(ctx, info.GameID, player.UserID)
	if err != nil {
		return err
	}
	over, err := r.IsGameOver(ctx, info)
	if err != nil || over {
		return err
	}
	if err := r.BuildGamePanel(ctx, info, StateStarted); err != nil {
		return err
	}

	state := passed.GameState
	if state.PendingPoints <= 0 || state.PendingDice <= 0 {
		return r.RollWithPlayerMessage(ctx, info, state.TurnPlayer, false)
	}
	next, err := lookupPlayer(info, state.TurnPlayer)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("@%s passed with %d points and %d dice left. Steal them or roll fresh?",
		actor.Name, state.PendingPoints, state.PendingDice)
	choice := r.draft(info, text).
		AtUser(next.SlackID).
		AddButtons(
			message.Button{Text: "Roll", ActionID: message.ActionRollDice},
			message.Button{Text: "Steal", ActionID: message.ActionStealDice},
		)
	return r.chat.PostEphemeral(ctx, choice.Build())
}
