// Package emoji answers which emoji names exist and parses the +:name:
// reaction shorthand.
package emoji

import (
	"regexp"
	"sync"

	"github.com/yuin/goldmark-emoji/definition"
)

// reactionPattern matches "+:name:" and "-:name:" with optional trailing space.
var reactionPattern = regexp.MustCompile(`^([+-]):([^:\s]+):\s*$`)

// Action is the direction of a reaction shorthand.
type Action int

const (
	Add Action = iota + 1
	Remove
)

func (a Action) String() string {
	switch a {
	case Add:
		return "add"
	case Remove:
		return "remove"
	}
	return "unknown"
}

// Reaction is a parsed reaction shorthand.
type Reaction struct {
	Action Action
	Name   string
}

// ParseReaction parses text as a reaction shorthand. It does not check that
// the emoji exists.
func ParseReaction(text string) (Reaction, bool) {
	m := reactionPattern.FindStringSubmatch(text)
	if m == nil {
		return Reaction{}, false
	}
	action := Add
	if m[1] == "-" {
		action = Remove
	}
	return Reaction{Action: action, Name: m[2]}, true
}

// Set is the known emoji set: the GitHub shortcodes plus custom names.
// It is safe for concurrent use.
type Set struct {
	system definition.Emojis

	mu     sync.RWMutex
	custom map[string]struct{}
}

// NewSet returns a set of the GitHub shortcodes and the given custom names.
func NewSet(custom ...string) *Set {
	s := &Set{
		system: definition.Github(),
		custom: make(map[string]struct{}, len(custom)),
	}
	s.AddCustom(custom...)
	return s
}

// AddCustom registers custom emoji names.
func (s *Set) AddCustom(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		if n != "" {
			s.custom[n] = struct{}{}
		}
	}
}

// Has reports whether name is a known emoji.
func (s *Set) Has(name string) bool {
	if _, ok := s.system.Get(name); ok {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.custom[name]
	return ok
}

// Unicode returns the character for a system emoji and ":name:" for custom
// or unknown ones.
func (s *Set) Unicode(name string) string {
	if e, ok := s.system.Get(name); ok && len(e.Unicode) > 0 {
		return string(e.Unicode)
	}
	return ":" + name + ":"
}

// NameFor maps an emoji character back to its first short name. Unknown
// characters are returned as-is.
func (s *Set) NameFor(char string) string {
	if name, ok := reverseIndex()[char]; ok {
		return name
	}
	return char
}

var (
	reverseOnce sync.Once
	reverse     map[string]string
)

// reverseIndex maps the characters of commonNames back to their names.
func reverseIndex() map[string]string {
	reverseOnce.Do(func() {
		reverse = make(map[string]string)
		defs := definition.Github()
		for _, name := range commonNames {
			if e, ok := defs.Get(name); ok && len(e.Unicode) > 0 {
				if _, seen := reverse[string(e.Unicode)]; !seen {
					reverse[string(e.Unicode)] = name
				}
			}
		}
	})
	return reverse
}

// commonNames are the reactions the network sends as raw characters and
// that we map back to names for display and storage.
var commonNames = []string{
	"+1", "-1", "heart", "joy", "open_mouth", "cry", "pray", "smile", "laughing",
	"tada", "fire", "clap", "100", "eyes", "thinking", "ok_hand", "wave", "rocket",
	"white_check_mark", "x", "heart_eyes", "slightly_smiling_face", "sob", "rage",
}
