package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"go-attention-agent/internal/blackboard"
	"go-attention-agent/internal/eval"
)

var watchScores bool

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Print the scores published by a running supervisor",
	RunE:  runScores,
}

func init() {
	scoresCmd.Flags().BoolVarP(&watchScores, "watch", "w", false, "reprint on every update")
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#01cdfe"))
	nameStyle   = lipgloss.NewStyle().Width(16)
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb86c"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff71ce"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3d8"))
)

func runScores(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store := blackboard.NewRedisStore(redisOptions(), logger)
	defer store.Close()

	var updates <-chan blackboard.Update
	if watchScores {
		var err error
		if updates, err = store.Watch(ctx, eval.KeyPrefix+"*"); err != nil {
			return err
		}
	}
	for {
		values, err := readScores(ctx, store)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderScores(values))
		if !watchScores {
			return nil
		}
		if !drain(ctx, updates) {
			return nil
		}
	}
}

// drain waits for an update and swallows the rest of its transaction.
func drain(ctx context.Context, updates <-chan blackboard.Update) bool {
	select {
	case <-ctx.Done():
		return false
	case _, ok := <-updates:
		if !ok {
			return false
		}
	}
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

// readScores returns the published value of every dimension; nil means no data.
func readScores(ctx context.Context, store blackboard.Store) (map[string]*float64, error) {
	out := make(map[string]*float64, len(eval.Dimensions))
	for _, name := range eval.Dimensions {
		v, _, err := store.Get(ctx, eval.KeyPrefix+name)
		if errors.Is(err, blackboard.ErrNotFound) {
			out[name] = nil
			continue
		}
		if err != nil {
			return nil, err
		}
		if f, ok := v.(float64); ok {
			out[name] = &f
		}
	}
	return out, nil
}

func renderScores(values map[string]*float64) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(nameStyle.Render("dimension") + "score"))
	for _, name := range eval.Dimensions {
		b.WriteString("\n")
		b.WriteString(nameStyle.Render(name))
		b.WriteString(renderValue(values[name]))
	}
	return b.String()
}

func renderValue(v *float64) string {
	if v == nil {
		return mutedStyle.Render("n/a")
	}
	s := fmt.Sprintf("%.3f", *v)
	switch {
	case *v < 0.1:
		return goodStyle.Render(s)
	case *v < 0.3:
		return warnStyle.Render(s)
	}
	return badStyle.Render(s)
}
