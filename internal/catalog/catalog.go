// Package catalog works out which channel groups a decoded log carries.
package catalog

import "regexp"

const (
	// StatePrefix names the measured state channels, as in "stateCompressed.vx".
	StatePrefix = "stateCompressed"

	// SetpointPrefix names the setpoint channels, as in "spCompressed.vx".
	SetpointPrefix = "spCompressed"
)

// Group is a family of three axis channels logged both as measured state and
// as setpoint.
type Group struct {
	Key    string    // Short identifier used on the command line
	Name   string    // Human readable name
	Suffix string    // Pattern whose presence in any channel name marks the group as candidate, "." matches any character
	Noun   string    // Word used in the operator prompt
	Unit   string    // Unit shown on the y axis
	Axes   [3]string // Axis channel suffixes in plotting order
}

// StateChannel returns the name of the measured state channel for axis.
func (g Group) StateChannel(axis string) string {
	return StatePrefix + "." + axis
}

// SetpointChannel returns the name of the setpoint channel for axis.
func (g Group) SetpointChannel(axis string) string {
	return SetpointPrefix + "." + axis
}

var (
	Position = Group{
		Key:    "pos",
		Name:   "Position",
		Suffix: ".x",
		Noun:   "pos",
		Unit:   "mm",
		Axes:   [3]string{"x", "y", "z"},
	}

	Velocity = Group{
		Key:    "vel",
		Name:   "Velocity",
		Suffix: ".vx",
		Noun:   "vel",
		Unit:   "mm/s",
		Axes:   [3]string{"vx", "vy", "vz"},
	}

	Acceleration = Group{
		Key:    "acc",
		Name:   "Acceleration",
		Suffix: ".ax",
		Noun:   "acc",
		Unit:   "mm/s^2",
		Axes:   [3]string{"ax", "ay", "az"},
	}
)

// Groups returns the built-in groups in plotting order.
func Groups() []Group {
	return []Group{Position, Velocity, Acceleration}
}

// Lookup returns the built-in group with the given key.
func Lookup(key string) (Group, bool) {
	for _, g := range Groups() {
		if g.Key == key {
			return g, true
		}
	}
	return Group{}, false
}

// Candidate flags whether a group is present in a log.
type Candidate struct {
	Group   Group
	Present bool
}

// suffixPatterns holds the compiled suffix of every built-in group, by key.
var suffixPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, g := range Groups() {
		patterns[g.Key] = regexp.MustCompile(g.Suffix)
	}
	return patterns
}()

// Detect returns one entry per built-in group, in plotting order. A group is
// present when its suffix matches anywhere in any channel name. The "." of a
// suffix matches any character, so ".x" is also found inside ".vx" and ".ax".
func Detect(names []string) []Candidate {
	groups := Groups()
	candidates := make([]Candidate, len(groups))
	for i, g := range groups {
		candidates[i] = Candidate{Group: g, Present: matchesAny(names, suffixPatterns[g.Key])}
	}
	return candidates
}

// Candidates returns only the groups present in names, in plotting order.
func Candidates(names []string) []Group {
	return Present(Detect(names))
}

// Present filters candidates down to the groups that were found.
func Present(candidates []Candidate) []Group {
	var groups []Group
	for _, c := range candidates {
		if c.Present {
			groups = append(groups, c.Group)
		}
	}
	return groups
}

func matchesAny(names []string, pattern *regexp.Regexp) bool {
	for _, name := range names {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

// Overview is a single-panel plot of several raw channels sharing one y axis,
// such as the three gyro axes.
type Overview struct {
	Key      string
	Name     string
	Noun     string
	Channels []string
	Labels   []string
	YLabel   string
}

// Gyro plots the three raw gyro axes in one panel.
var Gyro = Overview{
	Key:      "gyro",
	Name:     "Gyro",
	Noun:     "gyro",
	Channels: []string{"gyro.x", "gyro.y", "gyro.z"},
	Labels:   []string{"X", "Y", "Z"},
	YLabel:   "Position [m]",
}

// Overviews returns the built-in overview plots.
func Overviews() []Overview {
	return []Overview{Gyro}
}

// LookupOverview returns the built-in overview with the given key.
func LookupOverview(key string) (Overview, bool) {
	for _, o := range Overviews() {
		if o.Key == key {
			return o, true
		}
	}
	return Overview{}, false
}

// DetectOverviews returns the overviews whose channels are all present. Unlike
// groups, overviews match exact channel names.
func DetectOverviews(names []string) []Overview {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}

	var found []Overview
	for _, o := range Overviews() {
		all := true
		for _, ch := range o.Channels {
			if _, ok := set[ch]; !ok {
				all = false
				break
			}
		}
		if all {
			found = append(found, o)
		}
	}
	return found
}
