// Package selector asks the operator which channel groups to plot.
package selector

import (
	"context"
	"fmt"
	"strings"

	"github.com/roman-kulish/flightplot/internal/catalog"
)

// Decision records whether a catalog group ends up in the figure.
type Decision struct {
	Group   catalog.Group
	Include bool
}

// Selection is the ordered outcome of asking about every group, plus any
// overview plots the operator accepted.
type Selection struct {
	Decisions []Decision
	Overviews []catalog.Overview
}

// Groups returns the included groups in plotting order.
func (s Selection) Groups() []catalog.Group {
	var groups []catalog.Group
	for _, d := range s.Decisions {
		if d.Include {
			groups = append(groups, d.Group)
		}
	}
	return groups
}

// Rows is the number of grid rows the included groups need, one per axis.
func (s Selection) Rows() int {
	return 3 * len(s.Groups())
}

// Accept reports whether an operator response means yes. An empty response
// is the default answer. Only the first byte is looked at, so "yikes" is a yes
// and " y" is not.
func Accept(response string) bool {
	return response == "" || response[0] == 'y' || response[0] == 'Y'
}

// Prompt is the question asked for a group.
func Prompt(g catalog.Group) string {
	return PromptNoun(g.Noun)
}

// PromptNoun formats the yes/no question for noun.
func PromptNoun(noun string) string {
	return fmt.Sprintf("plot %s data? ([Y]es / [n]o): ", noun)
}

// Select asks once for every present candidate, in order. Absent groups are
// recorded as excluded without prompting. Only prompter failures are errors.
func Select(ctx context.Context, candidates []catalog.Candidate, prompter Prompter) (Selection, error) {
	sel := Selection{Decisions: make([]Decision, 0, len(candidates))}

	for _, c := range candidates {
		if !c.Present {
			sel.Decisions = append(sel.Decisions, Decision{Group: c.Group})
			continue
		}

		answer, err := prompter.Ask(ctx, Prompt(c.Group))
		if err != nil {
			return Selection{}, fmt.Errorf("asking about %s: %w", c.Group.Name, err)
		}
		sel.Decisions = append(sel.Decisions, Decision{Group: c.Group, Include: Accept(answer)})
	}

	return sel, nil
}

// SelectOverviews asks once for every overview and returns the accepted ones.
func SelectOverviews(ctx context.Context, overviews []catalog.Overview, prompter Prompter) ([]catalog.Overview, error) {
	var accepted []catalog.Overview
	for _, o := range overviews {
		answer, err := prompter.Ask(ctx, PromptNoun(o.Noun))
		if err != nil {
			return nil, fmt.Errorf("asking about %s: %w", o.Name, err)
		}
		if Accept(answer) {
			accepted = append(accepted, o)
		}
	}
	return accepted, nil
}

// UnknownKeyError is returned by Preset for a key that names neither a group
// nor an overview.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown group %q", e.Key)
}

// ParseKeys splits a comma separated list of group keys.
func ParseKeys(list string) []string {
	var keys []string
	for _, k := range strings.Split(list, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Preset builds a selection without prompting. Every key must name a catalog
// group or overview. Keys whose group is absent from the log are ignored.
func Preset(candidates []catalog.Candidate, overviews []catalog.Overview, keys []string) (Selection, error) {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		_, isGroup := catalog.Lookup(k)
		_, isOverview := catalog.LookupOverview(k)
		if !isGroup && !isOverview {
			return Selection{}, &UnknownKeyError{Key: k}
		}
		want[k] = true
	}

	sel := Selection{Decisions: make([]Decision, 0, len(candidates))}
	for _, c := range candidates {
		sel.Decisions = append(sel.Decisions, Decision{
			Group:   c.Group,
			Include: c.Present && want[c.Group.Key],
		})
	}
	for _, o := range overviews {
		if want[o.Key] {
			sel.Overviews = append(sel.Overviews, o)
		}
	}
	return sel, nil
}
