package telemetry

import (
	"errors"
	"fmt"
)

// ErrLabelOrder is returned when label rows are not grouped run -> agent -> frame.
var ErrLabelOrder = errors.New("labels out of order")

// LabelSummary describes a validated label file.
type LabelSummary struct {
	Runs   int
	Agents int // per run
	Frames int // per agent
	Rows   int
}

// CheckLabels verifies that rows are grouped by run (ascending), then by
// agent (each agent one contiguous block, same roster in every run), then by
// frame (strictly increasing), and that every agent has the same frame count.
func CheckLabels(rows []LabelRow) (LabelSummary, error) {
	sum := LabelSummary{Rows: len(rows)}
	if len(rows) == 0 {
		return sum, nil
	}

	var (
		roster     []string
		runAgents  []string
		seen       map[string]bool
		frames     = -1
		blockLen   int
		prev       LabelRow
		runStarted bool
	)

	closeBlock := func() error {
		if frames == -1 {
			frames = blockLen
		} else if blockLen != frames {
			return fmt.Errorf("%w: run %d agent %q has %d frames, want %d", ErrLabelOrder, prev.Run, prev.Agent, blockLen, frames)
		}
		return nil
	}
	closeRun := func() error {
		if roster == nil {
			roster = runAgents
			return nil
		}
		if len(runAgents) != len(roster) {
			return fmt.Errorf("%w: run %d has %d agents, want %d", ErrLabelOrder, prev.Run, len(runAgents), len(roster))
		}
		for i := range roster {
			if runAgents[i] != roster[i] {
				return fmt.Errorf("%w: run %d agent %d is %q, want %q", ErrLabelOrder, prev.Run, i, runAgents[i], roster[i])
			}
		}
		return nil
	}

	for i, r := range rows {
		switch {
		case !runStarted || r.Run != prev.Run:
			if runStarted {
				if r.Run < prev.Run {
					return sum, fmt.Errorf("%w: row %d: run %d after run %d", ErrLabelOrder, i, r.Run, prev.Run)
				}
				if err := closeBlock(); err != nil {
					return sum, err
				}
				if err := closeRun(); err != nil {
					return sum, err
				}
			}
			runStarted = true
			sum.Runs++
			runAgents = []string{r.Agent}
			seen = map[string]bool{r.Agent: true}
			blockLen = 1
		case r.Agent != prev.Agent:
			if seen[r.Agent] {
				return sum, fmt.Errorf("%w: row %d: agent %q split within run %d", ErrLabelOrder, i, r.Agent, r.Run)
			}
			if err := closeBlock(); err != nil {
				return sum, err
			}
			runAgents = append(runAgents, r.Agent)
			seen[r.Agent] = true
			blockLen = 1
		default:
			if r.Frame <= prev.Frame {
				return sum, fmt.Errorf("%w: row %d: frame %d after frame %d for agent %q", ErrLabelOrder, i, r.Frame, prev.Frame, r.Agent)
			}
			blockLen++
		}
		prev = r
	}

	if err := closeBlock(); err != nil {
		return sum, err
	}
	if err := closeRun(); err != nil {
		return sum, err
	}
	sum.Agents = len(roster)
	sum.Frames = frames
	return sum, nil
}
