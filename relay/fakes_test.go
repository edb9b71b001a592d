package relay

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aasmall/dice10k-relay/dice10k"
	"github.com/aasmall/dice10k-relay/game"
	"github.com/aasmall/dice10k-relay/lib/logger"
	"github.com/aasmall/dice10k-relay/message"
	"github.com/slack-go/slack"
)

type apiCall struct {
	op       string
	playerID string
	steal    bool
	keepers  []int
}

// scriptedAPI answers each call with the next scripted response.
type scriptedAPI struct {
	mu     sync.Mutex
	calls  []apiCall
	rolls  []*dice10k.RollResponse
	keeps  []*dice10k.KeepResponse
	games  []*dice10k.Game
	passes []*dice10k.PassResponse
	start  *dice10k.StartGameResponse
}

var errUnscripted = errors.New("unscripted call")

func (a *scriptedAPI) CreateGame(ctx context.Context) (*dice10k.CreateGameResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, apiCall{op: "CreateGame"})
	return &dice10k.CreateGameResponse{GameID: "g1"}, nil
}

func (a *scriptedAPI) FetchGame(ctx context.Context, gameID string) (*dice10k.Game, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, apiCall{op: "FetchGame"})
	if len(a.games) == 0 {
		return nil, errUnscripted
	}
	g := a.games[0]
	if len(a.games) > 1 {
		a.games = a.games[1:]
	}
	return g, nil
}

func (a *scriptedAPI) AddPlayer(ctx context.Context, gameID, name string) (*dice10k.AddPlayerResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, apiCall{op: "AddPlayer"})
	return &dice10k.AddPlayerResponse{PlayerID: "p-" + name}, nil
}

func (a *scriptedAPI) StartGame(ctx context.Context, gameID string) (*dice10k.StartGameResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, apiCall{op: "StartGame"})
	if a.start == nil {
		return nil, errUnscripted
	}
	return a.start, nil
}

func (a *scriptedAPI) Roll(ctx context.Context, gameID, playerID string, steal bool) (*dice10k.RollResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, apiCall{op: "Roll", playerID: playerID, steal: steal})
	if len(a.rolls) == 0 {
		return nil, errUnscripted
	}
	r := a.rolls[0]
	a.rolls = a.rolls[1:]
	return r, nil
}

func (a *scriptedAPI) SendKeepers(ctx context.Context, gameID, playerID string, keepers []int) (*dice10k.KeepResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, apiCall{op: "SendKeepers", playerID: playerID, keepers: keepers})
	if len(a.keeps) == 0 {
		return nil, errUnscripted
	}
	k := a.keeps[0]
	a.keeps = a.keeps[1:]
	return k, nil
}

func (a *scriptedAPI) PassTurn(ctx context.Context, gameID, playerID string) (*dice10k.PassResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, apiCall{op: "PassTurn", playerID: playerID})
	if len(a.passes) == 0 {
		return nil, errUnscripted
	}
	p := a.passes[0]
	a.passes = a.passes[1:]
	return p, nil
}

func (a *scriptedAPI) ops() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var ops []string
	for _, c := range a.calls {
		ops = append(ops, c.op)
	}
	return ops
}

type sent struct {
	kind        string
	responseURL string
	replace     bool
	p           message.Payload
}

// recordingChat keeps every outbound message in order.
type recordingChat struct {
	mu        sync.Mutex
	sent      []sent
	deleteErr error
}

func (c *recordingChat) PostMessage(ctx context.Context, p message.Payload) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sent{kind: "post", p: p})
	return "1700000000.000100", nil
}

func (c *recordingChat) PostEphemeral(ctx context.Context, p message.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sent{kind: "ephemeral", p: p})
	return nil
}

func (c *recordingChat) UpdateMessage(ctx context.Context, p message.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sent{kind: "update", p: p})
	return nil
}

func (c *recordingChat) Respond(ctx context.Context, responseURL string, p message.Payload, replace bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sent{kind: "respond", responseURL: responseURL, replace: replace, p: p})
	return nil
}

func (c *recordingChat) DeleteOriginal(ctx context.Context, responseURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sent{kind: "delete", responseURL: responseURL})
	return c.deleteErr
}

func (c *recordingChat) kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var kinds []string
	for _, s := range c.sent {
		kinds = append(kinds, s.kind)
	}
	return kinds
}

type fixture struct {
	relay *Relay
	api   *scriptedAPI
	chat  *recordingChat
	store *game.MemoryStore
	info  *game.Info
	logs  *bytes.Buffer
}

func newFixture(t *testing.T, autoBreak bool) *fixture {
	t.Helper()
	f := &fixture{
		api:   &scriptedAPI{},
		chat:  &recordingChat{},
		store: game.NewMemoryStore(),
		logs:  &bytes.Buffer{},
		info: &game.Info{
			GameID:          "g1",
			Channel:         "C1",
			ParentMessageTS: "1600000000.000100",
			AutoBreak:       autoBreak,
			Users: map[string]game.Player{
				"alice": {UserID: "p1", SlackID: "U1"},
				"bob":   {UserID: "p2", SlackID: "U2"},
			},
		},
	}
	if err := f.store.Put(context.Background(), f.info); err != nil {
		t.Fatal(err)
	}
	f.relay = New(f.api, f.chat, f.store, logger.New("", logger.WithOutput(f.logs), logger.WithDebug(true)))
	return f
}

func rollResp(msg string, roll []int, next string) *dice10k.RollResponse {
	return &dice10k.RollResponse{
		Outcome:   dice10k.ParseOutcome(msg),
		Message:   msg,
		Roll:      roll,
		GameState: dice10k.Game{State: "started", TurnPlayer: next},
	}
}

func keepResp(msg string, roll []int, pending int, players ...dice10k.Player) *dice10k.KeepResponse {
	return &dice10k.KeepResponse{
		Outcome:       dice10k.ParseOutcome(msg),
		Message:       msg,
		Roll:          roll,
		PendingPoints: pending,
		GameState:     dice10k.Game{State: "started", PendingDice: 6 - len(roll), Players: players},
	}
}

func gameWith(state string, players ...dice10k.Player) *dice10k.Game {
	return &dice10k.Game{State: state, Players: players}
}

// elements lists the action ids and values of a payload's interactive block.
func elements(p message.Payload) (actions, values []string) {
	for _, b := range p.Blocks {
		ab, ok := b.(*slack.ActionBlock)
		if !ok {
			continue
		}
		for _, el := range ab.Elements.ElementSet {
			switch e := el.(type) {
			case *slack.ButtonBlockElement:
				actions = append(actions, e.ActionID)
				values = append(values, e.Value)
			case *slack.MultiSelectBlockElement:
				actions = append(actions, e.ActionID)
				for _, o := range e.Options {
					values = append(values, o.Value)
				}
			}
		}
	}
	return actions, values
}
