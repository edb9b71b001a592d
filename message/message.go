// Package message composes the Slack messages the relay sends.
package message

import (
	"github.com/aasmall/dice10k-relay/dice"
	"github.com/slack-go/slack"
)

// Action ids carried by the interactive elements.
const (
	ActionJoinGame  = "join_game"
	ActionStartGame = "start_game"
	ActionRollDice  = "roll_dice"
	ActionStealDice = "steal_dice"
	ActionPickDice  = "pick_dice"
	ActionPassDice  = "pass_dice"
)

// Button is an interactive button; its value is always the game id.
type Button struct {
	Text     string
	ActionID string
}

// Draft is a message under construction. Every step returns a new Draft and
// leaves the receiver untouched; calling a step twice overwrites.
type Draft struct {
	gameID   string
	channel  string
	text     string
	threadTS string
	userID   string
	ts       string
	buttons  []Button
	roll     []int
}

// New starts a Draft for a message about gameID posted to channel.
func New(gameID, channel, text string) Draft {
	return Draft{gameID: gameID, channel: channel, text: text}
}

// InThread places the message in the thread anchored at ts.
func (d Draft) InThread(ts string) Draft {
	d.threadTS = ts
	return d
}

// AtUser makes the message ephemeral, visible only to slackID.
func (d Draft) AtUser(slackID string) Draft {
	d.userID = slackID
	return d
}

// AddButton sets a single button.
func (d Draft) AddButton(text, actionID string) Draft {
	return d.AddButtons(Button{Text: text, ActionID: actionID})
}

// AddButtons sets the buttons, in order.
func (d Draft) AddButtons(buttons ...Button) Draft {
	d.buttons = append([]Button(nil), buttons...)
	return d
}

// PickDie attaches a die selection control offering every die of roll.
func (d Draft) PickDie(roll []int) Draft {
	d.roll = append([]int(nil), roll...)
	return d
}

// Updating targets the existing message ts instead of posting a new one.
func (d Draft) Updating(ts string) Draft {
	d.ts = ts
	return d
}

// Payload is a built message, ready for the chat client.
type Payload struct {
	Channel  string
	ThreadTS string
	UserID   string
	TS       string
	Text     string
	Blocks   []slack.Block
}

// Ephemeral reports whether the payload is addressed to a single user.
func (p Payload) Ephemeral() bool {
	return p.UserID != ""
}

// Build renders the Draft.
func (d Draft) Build() Payload {
	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, d.text, false, false), nil, nil),
	}
	var elements []slack.BlockElement
	if len(d.roll) > 0 {
		elements = append(elements, dieSelect(d.roll))
	}
	for _, b := range d.buttons {
		elements = append(elements, slack.NewButtonBlockElement(b.ActionID, d.gameID,
			slack.NewTextBlockObject(slack.PlainTextType, b.Text, false, false)))
	}
	if len(elements) > 0 {
		blocks = append(blocks, slack.NewActionBlock(d.gameID, elements...))
	}
	return Payload{
		Channel:  d.channel,
		ThreadTS: d.threadTS,
		UserID:   d.userID,
		TS:       d.ts,
		Text:     d.text,
		Blocks:   blocks,
	}
}

func dieSelect(roll []int) *slack.MultiSelectBlockElement {
	options := make([]*slack.OptionBlockObject, len(roll))
	for i, face := range roll {
		options[i] = slack.NewOptionBlockObject(dice.OptionValue(i, face),
			slack.NewTextBlockObject(slack.PlainTextType, dice.Emoji(face), true, false), nil)
	}
	return slack.NewOptionsMultiSelectBlockElement(slack.MultiOptTypeStatic,
		slack.NewTextBlockObject(slack.PlainTextType, "Pick dice to keep", false, false),
		ActionPickDice, options...)
}
