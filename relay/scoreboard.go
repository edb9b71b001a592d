package relay

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aasmall/dice10k-relay/dice10k"
	"github.com/aasmall/dice10k-relay/game"
	"github.com/aasmall/dice10k-relay/message"
	"github.com/olekukonko/tablewriter"
)

// Game states the scoreboard is titled with.
const (
	StateStarted   = "started"
	StateCompleted = "completed"
)

// IsGameOver checks the API. A finished game gets its final scoreboard and
// is forgotten.
func (r *Relay) IsGameOver(ctx context.Context, info *game.Info) (bool, error) {
	g, err := r.api.FetchGame(ctx, info.GameID)
	if err != nil {
		return false, err
	}
	if !g.Completed() {
		return false, nil
	}
	r.log.Infof("game %s is over", info.GameID)
	if err := r.updatePanel(ctx, info, StateCompleted, g); err != nil {
		return true, err
	}
	if err := r.games.Delete(ctx, info.GameID); err != nil {
		r.log.Warningf("could not forget game %s: %v", info.GameID, err)
	}
	return true, nil
}

// BuildGamePanel replaces the thread anchor with the current scoreboard.
func (r *Relay) BuildGamePanel(ctx context.Context, info *game.Info, state string) error {
	g, err := r.api.FetchGame(ctx, info.GameID)
	if err != nil {
		return err
	}
	return r.updatePanel(ctx, info, state, g)
}

func (r *Relay) updatePanel(ctx context.Context, info *game.Info, state string, g *dice10k.Game) error {
	p := message.New(info.GameID, info.Channel, RenderScoreboard(state, g.Players)).
		Updating(info.ParentMessageTS).
		Build()
	return r.chat.UpdateMessage(ctx, p)
}

// RenderScoreboard draws the players as a table inside a code block.
func RenderScoreboard(state string, players []dice10k.Player) string {
	title := fmt.Sprintf("Game has %s, follow in thread", state)
	if state == StateCompleted {
		title = fmt.Sprintf("Game has %s", state)
	}
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Player", "Score", "Pending", "Possible", "Ice Broken"})
	table.SetAutoFormatHeaders(false)
	for _, p := range players {
		table.Append([]string{
			p.Name,
			strconv.Itoa(p.Points),
			strconv.Itoa(p.PendingPoints),
			strconv.Itoa(p.Points + p.PendingPoints),
			strconv.FormatBool(p.IceBroken),
		})
	}
	table.Render()
	return "```" + title + "\n" + b.String() + "```"
}
