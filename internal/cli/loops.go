package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/loopdeck/loopdeck/internal/research"
)

var (
	loopsView       string
	loopsState      string
	loopsStaleHours int
	loopsLimit      int
	loopsSession    string
	loopsJSON       bool

	closeLoopID string
	closeReason string
)

var loopsCmd = &cobra.Command{
	Use:   "loops",
	Short: "List research loops in a triage view",
	Run:   runLoops,
}

var loopCmd = &cobra.Command{
	Use:   "loop <loopId>",
	Short: "Show one research loop",
	Args:  cobra.ExactArgs(1),
	Run:   runLoop,
}

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Close a research loop",
	Run:   runClose,
}

func init() {
	loopsCmd.Flags().StringVar(&loopsView, "view", "all", "View: all, needs_decision, needs_review, hot, stale")
	loopsCmd.Flags().StringVar(&loopsState, "state", "", "Optional state filter: active, awaiting_decision, closed")
	loopsCmd.Flags().IntVar(&loopsStaleHours, "stale-hours", 0, "Idle window in hours for --view stale (default: 24)")
	loopsCmd.Flags().IntVar(&loopsLimit, "limit", 0, "Maximum loops to show (default: 20)")
	loopsCmd.Flags().StringVarP(&loopsSession, "session", "s", "cli:default", "Session key for agent scoping")
	loopsCmd.Flags().BoolVar(&loopsJSON, "json", false, "Emit raw JSON instead of a table")

	loopCmd.Flags().StringVarP(&loopsSession, "session", "s", "cli:default", "Session key for agent scoping")

	closeCmd.Flags().StringVar(&closeLoopID, "loop", "", "Loop id to close")
	closeCmd.Flags().StringVar(&closeReason, "reason", "", "Close reason")
	closeCmd.Flags().StringVarP(&loopsSession, "session", "s", "cli:default", "Session key for agent scoping")
}

func runLoops(cmd *cobra.Command, args []string) {
	reg, _, err := buildRegistry(loopsSession)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	summaries, err := reg.List(context.Background(), research.ListQuery{
		State:      loopsState,
		View:       loopsView,
		StaleHours: loopsStaleHours,
		Limit:      loopsLimit,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if loopsJSON {
		out, _ := json.MarshalIndent(summaries, "", "  ")
		fmt.Println(string(out))
		return
	}

	printHeader(fmt.Sprintf("Research loops — view=%s agent=%s", loopsView, reg.AgentID()))
	if len(summaries) == 0 {
		fmt.Println("No loops match.")
		return
	}
	for _, s := range summaries {
		line := fmt.Sprintf("%s  %-18s round %d/%d  %s",
			shortID(s.LoopID), stateColor(s.State), s.CurrentRound, s.MaxRounds, s.Topic)
		if s.LastPriorityScore != nil {
			line += fmt.Sprintf("  prio=%d", *s.LastPriorityScore)
		}
		if s.LastAnalysisQualityScore != nil {
			line += fmt.Sprintf("  quality=%d", *s.LastAnalysisQualityScore)
		}
		if s.NeedsReview {
			line += "  " + color.RedString("needs-review")
		}
		fmt.Println(line)
		fmt.Printf("          updated %s\n", time.UnixMilli(s.UpdatedAt).Format(time.RFC3339))
	}
	fmt.Printf("\n%d loop(s)\n", len(summaries))
}

func runLoop(cmd *cobra.Command, args []string) {
	reg, _, err := buildRegistry(loopsSession)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	loop, err := reg.Status(context.Background(), args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(loop, "", "  ")
	fmt.Println(string(out))
}

func runClose(cmd *cobra.Command, args []string) {
	if closeLoopID == "" {
		fmt.Println("Error: --loop is required")
		os.Exit(1)
	}
	reg, _, err := buildRegistry(loopsSession)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	loop, err := reg.Close(context.Background(), closeLoopID, closeReason)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Closed %s (%s)\n", loop.LoopID, loop.Topic)
}
