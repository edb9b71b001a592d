package relay

import (
	"context"
	"fmt"

	"github.com/aasmall/dice10k-relay/dice"
	"github.com/aasmall/dice10k-relay/dice10k"
	"github.com/aasmall/dice10k-relay/game"
	"github.com/aasmall/dice10k-relay/message"
)

const (
	apologyText = "We encountered an error, please try another time"
	// below this many pending points a player who has not broken the ice
	// keeps rolling without being asked
	iceThreshold = 1000
)

type stepKind int

const (
	stepDone stepKind = iota
	stepRoll
	stepPick
)

// step is what a turn does next. Rolling can lead to a pick (auto_break) or
// to the next player's roll (bust); everything else ends the loop.
type step struct {
	kind     stepKind
	username string
	steal    bool
	actor    Actor
	picks    []int
}

var done = step{kind: stepDone}

func (r *Relay) run(ctx context.Context, info *game.Info, s step) error {
	for s.kind != stepDone {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch s.kind {
		case stepRoll:
			s, err = r.roll(ctx, info, s.username, s.steal)
		case stepPick:
			s, err = r.pick(ctx, info, s.actor, s.picks)
		default:
			return fmt.Errorf("unknown step %d", s.kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// RollWithPlayerMessage rolls for username and relays the outcome, following
// busts on to the next player until a turn needs a human or the game ends.
func (r *Relay) RollWithPlayerMessage(ctx context.Context, info *game.Info, username string, steal bool) error {
	return r.run(ctx, info, step{kind: stepRoll, username: username, steal: steal})
}

// PickDice keeps picks for the actor.
func (r *Relay) PickDice(ctx context.Context, info *game.Info, actor Actor, picks []int) error {
	return r.run(ctx, info, step{kind: stepPick, actor: actor, picks: picks})
}

func (r *Relay) roll(ctx context.Context, info *game.Info, username string, steal bool) (step, error) {
	player, err := lookupPlayer(info, username)
	if err != nil {
		return done, err
	}
	resp, err := r.api.Roll(ctx, info.GameID, player.UserID, steal)
	if err != nil {
		return done, err
	}
	r.log.Debugf("game %s: %s rolled %v: %s", info.GameID, username, resp.Roll, resp.Outcome)

	switch resp.Outcome {
	case dice10k.OutcomePickKeepers:
		rolled := dice.FormatEmojis(resp.Roll)
		if err := r.broadcast(ctx, info, fmt.Sprintf("%s rolled: %s", username, rolled)); err != nil {
			return done, err
		}
		prompt := r.draft(info, "You rolled: "+rolled).AtUser(player.SlackID).PickDie(resp.Roll)
		if err := r.chat.PostEphemeral(ctx, prompt.Build()); err != nil {
			return done, err
		}
		if !info.AutoBreak {
			return done, nil
		}
		g, err := r.api.FetchGame(ctx, info.GameID)
		if err != nil {
			return done, err
		}
		if g.Robbable(username) {
			return done, nil
		}
		return step{
			kind:  stepPick,
			actor: Actor{Name: username, SlackID: player.SlackID},
			picks: resp.Roll,
		}, nil

	case dice10k.OutcomeBusted:
		if err := r.broadcast(ctx, info, fmt.Sprintf("%s BUSTED!: %s", username, dice.FormatEmojis(resp.Roll))); err != nil {
			return done, err
		}
		over, err := r.IsGameOver(ctx, info)
		if err != nil || over {
			return done, err
		}
		return step{kind: stepRoll, username: resp.GameState.TurnPlayer}, nil

	case dice10k.OutcomeStealRejected:
		p := r.draft(info, resp.Message).AtUser(player.SlackID).AddButton("Roll", message.ActionRollDice)
		return done, r.chat.PostEphemeral(ctx, p.Build())

	default:
		r.log.Warningf("game %s: the API returned an unknown message for %s's roll: %q", info.GameID, username, resp.Message)
		return done, r.broadcast(ctx, info, apologyText)
	}
}

func (r *Relay) pick(ctx context.Context, info *game.Info, actor Actor, picks []int) (step, error) {
	player, err := lookupPlayer(info, actor.Name)
	if err != nil {
		return done, err
	}
	resp, err := r.api.SendKeepers(ctx, info.GameID, player.UserID, picks)
	if err != nil {
		return done, err
	}

	if resp.Outcome == dice10k.OutcomeNoScoringDice {
		text := fmt.Sprintf("%s, try again: %s", resp.Message, dice.FormatEmojis(resp.Roll))
		p := r.draft(info, text).AtUser(player.SlackID).PickDie(resp.Roll).Build()
		if actor.ResponseURL == "" {
			return done, r.chat.PostEphemeral(ctx, p)
		}
		return done, r.chat.Respond(ctx, actor.ResponseURL, p, true)
	}

	r.deleteOriginal(ctx, actor.ResponseURL)
	state, _ := resp.GameState.Player(actor.Name)
	summary := fmt.Sprintf("@%s\nPicked: %s\nPending Points: %d, Current Points %d\nRemaining Dice: %d\nIce Broken: %t",
		actor.Name, dice.FormatEmojis(picks), resp.PendingPoints, state.Points, resp.GameState.PendingDice, state.IceBroken)
	if err := r.broadcast(ctx, info, summary); err != nil {
		return done, err
	}

	if !(state.IceBroken || resp.PendingPoints >= iceThreshold) {
		return step{kind: stepRoll, username: actor.Name}, nil
	}
	survey := r.draft(info, fmt.Sprintf("You have %d pending points. Roll again or pass?", resp.PendingPoints)).
		AtUser(player.SlackID).
		AddButtons(
			message.Button{Text: "Roll", ActionID: message.ActionRollDice},
			message.Button{Text: "Pass", ActionID: message.ActionPassDice},
		)
	return done, r.chat.PostEphemeral(ctx, survey.Build())
}
