package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnomeskillet/signin-kiosk/internal/roster"
	"github.com/gnomeskillet/signin-kiosk/internal/ui"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Inspect the student roster",
}

var rosterCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the roster file and show a summary",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		r := mustRoster(cfg.RosterPath)
		fmt.Printf("%s Roster OK: %d students (%s)\n", ui.RenderPass("✓"), r.Len(), cfg.RosterPath)
	},
}

var rosterFindCmd = &cobra.Command{
	Use:   "find <id-or-name>",
	Short: "Look up students by ID or partial name",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		r := mustRoster(cfg.RosterPath)

		if s, ok := r.Find(args[0]); ok {
			printStudent(s)
			return
		}

		matches := r.Search(args[0])
		if len(matches) == 0 {
			fmt.Printf("%s No student matches %q\n", ui.RenderWarn("⚠"), args[0])
			os.Exit(1)
		}
		for _, s := range matches {
			printStudent(s)
		}
	},
}

func mustRoster(path string) *roster.Roster {
	if path == "" {
		fmt.Fprintf(os.Stderr, "Error: roster_path is not configured\n")
		os.Exit(1)
	}
	r, err := roster.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading roster: %v\n", err)
		os.Exit(1)
	}
	return r
}

func printStudent(s roster.Student) {
	line := fmt.Sprintf("  %s  %s", s.ID, s.Name)
	if s.Grade != "" {
		line += "  " + ui.RenderDim("grade "+s.Grade)
	}
	if s.Email != "" {
		line += "  " + ui.RenderDim(s.Email)
	}
	fmt.Println(line)
}

func init() {
	rosterCmd.AddCommand(rosterCheckCmd)
	rosterCmd.AddCommand(rosterFindCmd)
	rootCmd.AddCommand(rosterCmd)
}
