package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"astrascore/internal/scoreboard"
)

// RenderBoard writes a plain-text scoreboard.
func RenderBoard(w io.Writer, b scoreboard.Board) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  [%s]\n", b.Name, strings.ToUpper(string(b.Status)))
	if b.Scale != "" {
		fmt.Fprintf(&sb, "%s / %s / %s\n", b.Category, b.Subcategory, b.Scale)
	}
	clock := b.Clock
	if b.Running {
		clock += " >"
	}
	if b.Period != "" {
		clock += "  " + b.Period
	}
	fmt.Fprintf(&sb, "%s\n\n", clock)

	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	if b.Mode == scoreboard.HeadToHead && len(b.Teams) == 2 {
		fmt.Fprintf(tw, "%s\t%d\t-\t%d\t%s\n", b.Teams[0].Name, b.Teams[0].Score, b.Teams[1].Score, b.Teams[1].Name)
	} else {
		places := scoreboard.Placements(b.Teams)
		for i, t := range b.Teams {
			fmt.Fprintf(tw, "%d.\t%s\t%d\n", places[i], t.Name, t.Score)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(b.Logs) > 0 {
		sb.WriteString("\n")
		for _, l := range b.Logs {
			fmt.Fprintf(&sb, "  %s\n", l)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// FollowBoard renders the event every time it changes until ctx is done.
func FollowBoard(ctx context.Context, events *scoreboard.Service, id string, interval time.Duration, w io.Writer) error {
	errc := make(chan error, 1)
	h := scoreboard.Watch(ctx, events, id, interval, func(e scoreboard.Event) {
		// Clear the terminal before each frame.
		_, _ = io.WriteString(w, "\033[H\033[2J")
		if err := RenderBoard(w, scoreboard.BoardFor(e)); err != nil {
			select {
			case errc <- err:
			default:
			}
		}
	}, func(err error) {
		select {
		case errc <- err:
		default:
		}
	})
	defer h.Stop()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		return err
	}
}
