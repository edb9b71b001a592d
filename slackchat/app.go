package slackchat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/aasmall/dice10k-relay/dice"
	"github.com/aasmall/dice10k-relay/game"
	"github.com/aasmall/dice10k-relay/lib/handler"
	"github.com/aasmall/dice10k-relay/lib/logger"
	"github.com/aasmall/dice10k-relay/message"
	"github.com/aasmall/dice10k-relay/relay"
	"github.com/slack-go/slack"
)

const gameGoneText = "That game is over or no longer exists. Start a new one with %s"

// App is the Env behind the Slack handlers.
type App struct {
	Relay         *relay.Relay
	Games         game.Store
	Chat          relay.Chat
	Log           *logger.Logger
	SigningSecret string
	SlashCommand  string
	ActionTimeout time.Duration
	// Local allows running without a signing secret.
	Local         bool
}

// ValidateSlackSignature checks the X-Slack-Signature slack appends
// to every request to ensure we're actually receiving them from slack.
// The body is left readable.
func (app *App) ValidateSlackSignature(r *http.Request) error {
	log := app.Log.WithRequest(r)
	if app.SigningSecret == "" {
		if app.Local {
			log.Warning("no slack signing secret configured, skipping signature check")
			return nil
		}
		log.Error("no slack signing secret configured, rejecting request")
		return handler.StatusError{Code: http.StatusUnauthorized, Err: errors.New("invalid slack signature")}
	}
	sv, err := slack.NewSecretsVerifier(r.Header, app.SigningSecret)
	if err != nil {
		log.Errorf("cannot validate slack signature: %v", err)
		return handler.StatusError{Code: http.StatusUnauthorized, Err: errors.New("invalid slack signature")}
	}
	body, err := ioutil.ReadAll(io.TeeReader(r.Body, &sv))
	if err != nil {
		return handler.StatusError{Code: http.StatusBadRequest, Err: err}
	}
	r.Body = ioutil.NopCloser(bytes.NewReader(body))
	if err := sv.Ensure(); err != nil {
		log.Debugf("signature mismatch: %v", err)
		return handler.StatusError{Code: http.StatusUnauthorized, Err: errors.New("invalid slack signature")}
	}
	return nil
}

func (app *App) actionContext() (context.Context, context.CancelFunc) {
	if app.ActionTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), app.ActionTimeout)
}

// SlashCommandHandler opens a game. "/dice10k auto" turns on auto_break.
func SlashCommandHandler(e interface{}, w http.ResponseWriter, r *http.Request) error {
	app := e.(*App)
	if err := app.ValidateSlackSignature(r); err != nil {
		return err
	}
	s, err := slack.SlashCommandParse(r)
	if err != nil {
		return handler.StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("could not parse slash command: %w", err)}
	}
	if app.SlashCommand != "" && s.Command != app.SlashCommand {
		app.Log.Warningf("unexpected slash command %q", s.Command)
	}
	ctx, cancel := app.actionContext()
	defer cancel()
	_, err = app.Relay.CreateGame(ctx, relay.NewGame{
		ChannelID: s.ChannelID,
		UserID:    s.UserID,
		UserName:  s.UserName,
		AutoBreak: strings.Contains(strings.ToLower(s.Text), "auto"),
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

// InteractionHandler dispatches button clicks and die picks.
func InteractionHandler(e interface{}, w http.ResponseWriter, r *http.Request) error {
	app := e.(*App)
	if err := app.ValidateSlackSignature(r); err != nil {
		return err
	}
	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &cb); err != nil {
		return handler.StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("could not parse interaction: %w", err)}
	}
	if len(cb.ActionCallback.BlockActions) == 0 {
		return handler.StatusError{Code: http.StatusBadRequest, Err: errors.New("interaction has no actions")}
	}
	action := cb.ActionCallback.BlockActions[0]
	gameID := action.BlockID
	if gameID == "" {
		gameID = action.Value
	}
	actor := relay.Actor{Name: cb.User.Name, SlackID: cb.User.ID, ResponseURL: cb.ResponseURL}
	log := app.Log.WithRequest(r)
	log.Debugf("%s clicked %s in game %s", actor.Name, action.ActionID, gameID)

	ctx, cancel := app.actionContext()
	defer cancel()
	info, err := app.Games.Get(ctx, gameID)
	if errors.Is(err, game.ErrNotFound) {
		notice := message.New(gameID, cb.Channel.ID, fmt.Sprintf(gameGoneText, app.SlashCommand)).AtUser(actor.SlackID).Build()
		if err := app.Chat.Respond(ctx, actor.ResponseURL, notice, false); err != nil {
			log.Errorf("could not tell %s the game is gone: %v", actor.Name, err)
		}
		w.WriteHeader(http.StatusOK)
		return nil
	}
	if err != nil {
		return err
	}

	switch action.ActionID {
	case message.ActionJoinGame:
		err = app.Relay.JoinGame(ctx, info, actor)
	case message.ActionStartGame:
		err = app.Relay.StartGame(ctx, info, actor)
	case message.ActionRollDice:
		err = app.Relay.RollDice(ctx, info, actor)
	case message.ActionStealDice:
		err = app.Relay.StealDice(ctx, info, actor)
	case message.ActionPassDice:
		err = app.Relay.PassDice(ctx, info, actor)
	case message.ActionPickDice:
		var values []string
		for _, o := range action.SelectedOptions {
			values = append(values, o.Value)
		}
		var picks []int
		picks, err = dice.FacesFromOptionValues(values)
		if err != nil {
			return handler.StatusError{Code: http.StatusBadRequest, Err: err}
		}
		err = app.Relay.PickDice(ctx, info, actor, picks)
	default:
		log.Warningf("unknown action %q", action.ActionID)
	}
	if errors.Is(err, relay.ErrUnknownPlayer) {
		notice := message.New(gameID, cb.Channel.ID, "Join the game first!").AtUser(actor.SlackID).Build()
		err = app.Chat.Respond(ctx, actor.ResponseURL, notice, false)
	}
	if err != nil {
		log.Errorf("%s in game %s failed: %v", action.ActionID, gameID, err)
		return err
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

// RootHandler answers health checks.
func RootHandler(e interface{}, w http.ResponseWriter, r *http.Request) error {
	fmt.Fprint(w, "200")
	return nil
}
