// Terminal viewer for the trending feed. Handy for checking what the bot's
// /trending command will serve without talking to Telegram.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"reelgrab/internal/config"
	"reelgrab/internal/domain"
	"reelgrab/internal/trending"
)

func main() {
	region := flag.String("region", "US", "Region code (e.g. BR, US)")
	limit := flag.Int("limit", 20, "Number of videos to show")
	days := flag.Int("days", 5, "How many days back to look")
	baseURL := flag.String("base-url", "https://www.tikwm.com", "Trending API base URL")
	flag.Parse()

	// The client logs its failures; keep them off the drawn screen.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := trending.NewClient(config.TrendingConfig{
		BaseURL:       *baseURL,
		DefaultRegion: *region,
	}, "reelgrab-tui", logger)

	app := tview.NewApplication()

	table := tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0).
		SetSelectable(true, false)
	table.SetBorder(true)

	footer := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[yellow]r[white]:Refresh [yellow]q[white]:Quit")

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(table, 0, 1, true).
		AddItem(footer, 1, 0, false)

	load := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
		defer cancel()
		videos := client.Feed(ctx, trending.FeedQuery{
			Region: *region,
			Days:   *days,
			Limit:  *limit,
		})
		app.QueueUpdateDraw(func() {
			render(table, *region, videos)
		})
	}

	table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q':
			app.Stop()
			return nil
		case 'r':
			go load()
			return nil
		}
		return event
	})

	render(table, *region, nil)
	go load()

	if err := app.SetRoot(layout, true).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func render(table *tview.Table, region string, videos []domain.TrendingVideo) {
	table.Clear()
	table.SetTitle(fmt.Sprintf(" Trending (%s) ", region))

	headers := []string{"#", "Title", "Author", "Views", "Likes", "Posted"}
	for col, h := range headers {
		table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetAttributes(tcell.AttrBold))
	}

	if len(videos) == 0 {
		table.SetCell(1, 1, tview.NewTableCell("loading…").SetTextColor(tcell.ColorGray))
		return
	}

	for i, v := range videos {
		row := i + 1
		posted := ""
		if !v.CreatedAt.IsZero() {
			posted = humanize.Time(v.CreatedAt)
		}
		table.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf("%d", row)))
		table.SetCell(row, 1, tview.NewTableCell(truncate(v.Title, 48)).SetExpansion(1))
		table.SetCell(row, 2, tview.NewTableCell("@"+v.AuthorID))
		table.SetCell(row, 3, tview.NewTableCell(humanize.Comma(v.Views)).SetAlign(tview.AlignRight))
		table.SetCell(row, 4, tview.NewTableCell(humanize.Comma(v.Likes)).SetAlign(tview.AlignRight))
		table.SetCell(row, 5, tview.NewTableCell(posted))
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
