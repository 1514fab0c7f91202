// Package featureflags evaluates FEATURE_FLAGS rollouts per actor.
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"social/internal/authz"
)

// PostCache gates the post detail cache.
const PostCache = "post_cache"

const (
	valueOn    = "on"
	valueOff   = "off"
	valueStaff = "staff"
)

// Manager evaluates flags declared as a comma-separated key=value list, e.g.
// "post_cache=on,new_feed=25%,beta_tools=staff".
type Manager struct {
	flags map[string]string
}

// NewManager parses raw. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	flags := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), canonical(normalize(value))
		if key == "" || value == "" {
			continue
		}
		flags[key] = value
	}
	return &Manager{flags: flags}
}

func canonical(v string) string {
	switch v {
	case "on", "true", "1", "yes":
		return valueOn
	case "off", "false", "0", "no":
		return valueOff
	}
	return v
}

// Enabled reports whether name is on for the actor. Unknown flags are off.
func (m *Manager) Enabled(name string, actor authz.Actor) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case valueOn:
		return true
	case valueOff:
		return false
	case valueStaff:
		return actor.IsStaff
	}

	pct, ok := percentage(value)
	if !ok || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if !actor.Authenticated() {
		return false
	}
	return rolloutBucket(name, actor.ID) < pct
}

// EnabledGlobally reports whether name is on regardless of actor.
func (m *Manager) EnabledGlobally(name string) bool {
	if m == nil {
		return false
	}
	value := m.flags[normalize(name)]
	if value == valueOn {
		return true
	}
	pct, ok := percentage(value)
	return ok && pct >= 100
}

// Names returns the configured flag names, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.flags))
	for name := range m.flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns every flag evaluated for one actor.
func (m *Manager) Snapshot(actor authz.Actor) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, actor)
	}
	return out
}

func percentage(v string) (int, bool) {
	raw, ok := strings.CutSuffix(v, "%")
	if !ok {
		return 0, false
	}
	pct, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return pct, true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
