package domain

import "github.com/samber/lo"

// Session is a tmux session as seen during one inspection cycle
type Session struct {
	Name    string   `json:"name"`
	Windows []string `json:"windows"`
}

// HasWindow reports whether the session has a window with the given name.
func (s Session) HasWindow(name string) bool {
	return lo.Contains(s.Windows, name)
}

// ExclusionSet holds session names that are never detected or restarted.
type ExclusionSet map[string]struct{}

// NewExclusionSet creates an exclusion set, ignoring empty names
func NewExclusionSet(names ...string) ExclusionSet {
	set := make(ExclusionSet, len(names))
	for _, n := range lo.Compact(names) {
		set[n] = struct{}{}
	}
	return set
}

// Contains reports whether name is excluded. A nil set excludes nothing.
func (e ExclusionSet) Contains(name string) bool {
	_, ok := e[name]
	return ok
}

// Names returns the excluded names
func (e ExclusionSet) Names() []string {
	return lo.Keys(e)
}
