package selector

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/roman-kulish/flightplot/internal/catalog"
)

type scripted struct {
	answers   []string
	questions []string
	err       error
}

func (s *scripted) Ask(_ context.Context, question string) (string, error) {
	s.questions = append(s.questions, question)
	if s.err != nil {
		return "", s.err
	}
	if len(s.answers) == 0 {
		return "", nil
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func TestAccept(t *testing.T) {
	for _, r := range []string{"", "y", "Y", "yes", "Yes", "yikes"} {
		if !Accept(r) {
			t.Errorf("Accept(%q) = false, want true", r)
		}
	}
	for _, r := range []string{"n", "N", "no", "maybe", "x", " y", "\ty"} {
		if Accept(r) {
			t.Errorf("Accept(%q) = true, want false", r)
		}
	}
}

func TestPrompt(t *testing.T) {
	testCases := []struct {
		group catalog.Group
		want  string
	}{
		{catalog.Position, "plot pos data? ([Y]es / [n]o): "},
		{catalog.Velocity, "plot vel data? ([Y]es / [n]o): "},
		{catalog.Acceleration, "plot acc data? ([Y]es / [n]o): "},
	}

	for _, tc := range testCases {
		if got := Prompt(tc.group); got != tc.want {
			t.Errorf("Prompt(%s) = %q, want %q", tc.group.Key, got, tc.want)
		}
	}
}

func TestSelect(t *testing.T) {
	testCases := []struct {
		name      string
		names     []string
		answers   []string
		wantAsked []string
		wantKeys  []string
		wantRows  int
	}{
		{
			name:      "position only accepted by default",
			names:     []string{"tick", "stateCompressed.x", "spCompressed.x"},
			answers:   []string{""},
			wantAsked: []string{"plot pos data? ([Y]es / [n]o): "},
			wantKeys:  []string{"pos"},
			wantRows:  3,
		},
		{
			name:     "tick only",
			names:    []string{"tick"},
			wantRows: 0,
		},
		{
			name:    "mixed answers",
			names:   []string{"tick", "stateCompressed.vx", "stateCompressed.ax"},
			answers: []string{"no", "Yes", "y"},
			wantAsked: []string{
				"plot pos data? ([Y]es / [n]o): ",
				"plot vel data? ([Y]es / [n]o): ",
				"plot acc data? ([Y]es / [n]o): ",
			},
			wantKeys: []string{"vel", "acc"},
			wantRows: 6,
		},
		{
			name:      "garbage means no",
			names:     []string{"tick", "stateCompressed.x"},
			answers:   []string{"maybe"},
			wantAsked: []string{"plot pos data? ([Y]es / [n]o): "},
			wantRows:  0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &scripted{answers: tc.answers}
			sel, err := Select(context.Background(), catalog.Detect(tc.names), p)
			if err != nil {
				t.Fatalf("Select: %v", err)
			}

			if diff := cmp.Diff(tc.wantAsked, p.questions); diff != "" {
				t.Errorf("questions mismatch (-want +got):\n%s", diff)
			}

			var keys []string
			for _, g := range sel.Groups() {
				keys = append(keys, g.Key)
			}
			if diff := cmp.Diff(tc.wantKeys, keys); diff != "" {
				t.Errorf("selection mismatch (-want +got):\n%s", diff)
			}
			if sel.Rows() != tc.wantRows {
				t.Errorf("Rows() = %d, want %d", sel.Rows(), tc.wantRows)
			}
			if len(sel.Decisions) != 3 {
				t.Errorf("expected a decision for every group, got %d", len(sel.Decisions))
			}
		})
	}
}

func TestSelect_PrompterError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Select(context.Background(), catalog.Detect([]string{"a.x"}), &scripted{err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped prompter error, got %v", err)
	}
}

func TestSelectOverviews(t *testing.T) {
	p := &scripted{answers: []string{"n"}}
	got, err := SelectOverviews(context.Background(), []catalog.Overview{catalog.Gyro}, p)
	if err != nil {
		t.Fatalf("SelectOverviews: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected overview to be declined, got %+v", got)
	}
	if diff := cmp.Diff([]string{"plot gyro data? ([Y]es / [n]o): "}, p.questions); diff != "" {
		t.Errorf("questions mismatch (-want +got):\n%s", diff)
	}

	got, err = SelectOverviews(context.Background(), []catalog.Overview{catalog.Gyro}, AssumeYes)
	if err != nil || len(got) != 1 {
		t.Errorf("expected overview accepted, got %+v, %v", got, err)
	}
}

func TestPreset(t *testing.T) {
	candidates := catalog.Detect([]string{"tick", "stateCompressed.vx"})

	sel, err := Preset(candidates, []catalog.Overview{catalog.Gyro}, ParseKeys(" acc, vel ,gyro,"))
	if err != nil {
		t.Fatalf("Preset: %v", err)
	}

	var keys []string
	for _, g := range sel.Groups() {
		keys = append(keys, g.Key)
	}
	if diff := cmp.Diff([]string{"vel"}, keys); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
	if len(sel.Overviews) != 1 {
		t.Errorf("expected gyro overview, got %+v", sel.Overviews)
	}

	_, err = Preset(candidates, nil, []string{"pos", "jerk"})
	var e *UnknownKeyError
	if !errors.As(err, &e) || e.Key != "jerk" {
		t.Errorf("expected UnknownKeyError, got %v", err)
	}
}

func TestLinePrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("n\r\nyes\npartial"), &out)

	var answers []string
	for range 4 {
		a, err := p.Ask(context.Background(), "? ")
		if err != nil {
			t.Fatalf("Ask: %v", err)
		}
		answers = append(answers, a)
	}

	if diff := cmp.Diff([]string{"n", "yes", "partial", ""}, answers); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}
	if out.String() != "? ? ? ? " {
		t.Errorf("unexpected prompt output %q", out.String())
	}
}

func TestLinePrompter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	if _, err := NewLinePrompter(strings.NewReader("y\n"), &out).Ask(ctx, "? "); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no prompt after cancellation, got %q", out.String())
	}
}
