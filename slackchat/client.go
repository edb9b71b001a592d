// Package slackchat connects the relay to Slack.
package slackchat

import (
	"context"
	"net/http"

	"github.com/aasmall/dice10k-relay/message"
	"github.com/slack-go/slack"
)

const (
	responseTypeInChannel = "in_channel"
	responseTypeEphemeral = "ephemeral"
)

// Client sends relay messages through the Slack Web API.
type Client struct {
	api        *slack.Client
	httpClient *http.Client
}

// NewClient wraps api. httpClient is used for response URLs.
func NewClient(api *slack.Client, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{api: api, httpClient: httpClient}
}

func msgOptions(p message.Payload) []slack.MsgOption {
	opts := []slack.MsgOption{
		slack.MsgOptionText(p.Text, false),
		slack.MsgOptionBlocks(p.Blocks...),
	}
	if p.ThreadTS != "" {
		opts = append(opts, slack.MsgOptionTS(p.ThreadTS))
	}
	return opts
}

func (c *Client) PostMessage(ctx context.Context, p message.Payload) (string, error) {
	_, ts, err := c.api.PostMessageContext(ctx, p.Channel, msgOptions(p)...)
	return ts, err
}

func (c *Client) PostEphemeral(ctx context.Context, p message.Payload) error {
	_, err := c.api.PostEphemeralContext(ctx, p.Channel, p.UserID, msgOptions(p)...)
	return err
}

func (c *Client) UpdateMessage(ctx context.Context, p message.Payload) error {
	_, _, _, err := c.api.UpdateMessageContext(ctx, p.Channel, p.TS,
		slack.MsgOptionText(p.Text, false),
		slack.MsgOptionBlocks(p.Blocks...))
	return err
}

func (c *Client) Respond(ctx context.Context, responseURL string, p message.Payload, replaceOriginal bool) error {
	msg := &slack.WebhookMessage{
		Text:            p.Text,
		Blocks:          &slack.Blocks{BlockSet: p.Blocks},
		ReplaceOriginal: replaceOriginal,
		ResponseType:    responseTypeInChannel,
	}
	if p.Ephemeral() {
		msg.ResponseType = responseTypeEphemeral
	}
	return slack.PostWebhookCustomHTTPContext(ctx, responseURL, c.httpClient, msg)
}

func (c *Client) DeleteOriginal(ctx context.Context, responseURL string) error {
	return slack.PostWebhookCustomHTTPContext(ctx, responseURL, c.httpClient, &slack.WebhookMessage{DeleteOriginal: true})
}
