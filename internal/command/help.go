package command

import (
	"fmt"
	"strings"

	"github.com/edhtools/podbot/internal/tourney"
)

type HelpSection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// HelpSections renders the static help content from the command table and
// the score table. Purely derived, no feedback into the core.
func HelpSections() []HelpSection {
	return []HelpSection{
		{
			ID:    "general",
			Title: "Pod Tournament Bot",
			Body:  "Runs free-for-all tournaments in pods of 1-4 players. Rounds close once every pod reports, or when the round time limit runs out.",
		},
		{
			ID:    "commands",
			Title: "Commands",
			Body:  commandsHelp(),
		},
		{
			ID:    "points",
			Title: "Points System",
			Body:  pointsHelp(),
		},
	}
}

func commandsHelp() string {
	var b strings.Builder
	for _, c := range Table {
		b.WriteByte('/')
		b.WriteString(c.Name)
		if c.Usage != "" {
			b.WriteByte(' ')
			b.WriteString(c.Usage)
		}
		fmt.Fprintf(&b, ": %s", c.Description)
		if c.Perm != PermAnyone {
			fmt.Fprintf(&b, " (%s only)", c.Perm)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func pointsHelp() string {
	var b strings.Builder
	for size := tourney.MaxPodSize; size >= 1; size-- {
		alloc, err := tourney.Allocation(size)
		if err != nil {
			panic("must not happen")
		}
		fmt.Fprintf(&b, "%d-player pod: ", size)
		for pos, pts := range alloc {
			if pos != 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%d", ordinal(pos+1), pts)
		}
		if size == 1 {
			b.WriteString(" (auto win)")
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", n)
	}
}
