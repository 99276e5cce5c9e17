package cli

import (
	"fmt"

	"github.com/fatih/color"
)

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// stateColor renders a loop state with the operator palette: green for
// active, yellow for awaiting a decision, dim for closed.
func stateColor(state string) string {
	switch state {
	case "active":
		return color.GreenString(state)
	case "awaiting_decision":
		return color.YellowString(state)
	case "closed":
		return color.HiBlackString(state)
	default:
		return state
	}
}
