package slackchat

import (
	"context"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/aasmall/dice10k-relay/message"
	"github.com/aasmall/dice10k-relay/mocks/slackapi"
	"github.com/davecgh/go-spew/spew"
	"github.com/slack-go/slack"
)

func TestClient(t *testing.T) {
	mock := slackapi.New()
	srv := httptest.NewServer(mock)
	defer srv.Close()
	c := NewClient(slack.New("xoxb-test", slack.OptionAPIURL(srv.URL+"/api/")), srv.Client())
	ctx := context.Background()
	draft := message.New("g1", "C1", "hello").InThread("1.1")

	ts, err := c.PostMessage(ctx, draft.AddButton("Roll", message.ActionRollDice).Build())
	if err != nil || ts == "" {
		t.Fatalf("PostMessage() = %q, %v", ts, err)
	}
	if err := c.PostEphemeral(ctx, draft.AtUser("U1").Build()); err != nil {
		t.Fatalf("PostEphemeral() error = %v", err)
	}
	if err := c.UpdateMessage(ctx, message.New("g1", "C1", "scores").Updating(ts).Build()); err != nil {
		t.Fatalf("UpdateMessage() error = %v", err)
	}
	if err := c.Respond(ctx, srv.URL+"/response/1", draft.AtUser("U1").Build(), true); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if err := c.DeleteOriginal(ctx, srv.URL+"/response/2"); err != nil {
		t.Fatalf("DeleteOriginal() error = %v", err)
	}
	if err := c.DeleteOriginal(ctx, srv.URL+"/nowhere"); err == nil {
		t.Error("DeleteOriginal() to a dead url: expected error")
	}

	calls := mock.Calls()
	want := []slackapi.Call{
		{Method: "chat.postMessage", Channel: "C1", ThreadTS: "1.1", Text: "hello"},
		{Method: "chat.postEphemeral", Channel: "C1", User: "U1", ThreadTS: "1.1", Text: "hello"},
		{Method: "chat.update", Channel: "C1", TS: ts, Text: "scores"},
		{Method: "response", ResponseID: "1", Text: "hello", ReplaceOriginal: true, ResponseType: "ephemeral"},
		{Method: "response", ResponseID: "2", DeleteOriginal: true},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", spew.Sdump(calls))
	}
	for i := range want {
		got := calls[i]
		if got.Method != "chat.update" {
			got.TS = ""
		}
		got.Blocks = ""
		if !reflect.DeepEqual(got, want[i]) {
			t.Errorf("call %d = %v, want %v", i, spew.Sdump(got), spew.Sdump(want[i]))
		}
	}
	if blocks, err := calls[0].BlockSet(); err != nil || len(blocks) != 2 {
		t.Errorf("postMessage blocks = %v, %v", spew.Sdump(blocks), err)
	}
}
