// Package settings holds user preferences consumed by the selection engine
// and the stores they are read from.
package settings

import (
	"fmt"
	"maps"
	"strings"
)

// Recognized keys.
const (
	KeyModifier       = "modifierKey"
	KeyHighlightColor = "highlightColor"
	KeyCopyMode       = "copyMode"
	KeyMultiSearch    = "multiSearch"
	KeyCombinedSearch = "combinedSearch"
)

// CopyMode selects how selected texts are joined for the clipboard.
type CopyMode string

const (
	CopyNewline CopyMode = "newline"
	CopySpace   CopyMode = "space"
	CopyBullets CopyMode = "bullets"
)

// Defaults.
const (
	DefaultModifierKey    = "Control"
	DefaultHighlightColor = "rgb(219,252,144)"
	DefaultCopyMode       = CopySpace
)

// Settings is one snapshot of the user's preferences. MultiSearch and
// CombinedSearch are not used by the engine; they are carried for the menu
// collaborator. Unrecognized keys are kept in Extra.
type Settings struct {
	ModifierKey    string         `yaml:"modifierKey" json:"modifierKey"`
	HighlightColor string         `yaml:"highlightColor" json:"highlightColor"`
	CopyMode       CopyMode       `yaml:"copyMode" json:"copyMode"`
	MultiSearch    bool           `yaml:"multiSearch" json:"multiSearch"`
	CombinedSearch bool           `yaml:"combinedSearch" json:"combinedSearch"`
	Extra          map[string]any `yaml:",inline" json:"-"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		ModifierKey:    DefaultModifierKey,
		HighlightColor: DefaultHighlightColor,
		CopyMode:       DefaultCopyMode,
		MultiSearch:    true,
		CombinedSearch: true,
	}
}

func (s *Settings) applyDefaults() {
	if s.ModifierKey == "" {
		s.ModifierKey = DefaultModifierKey
	}
	if s.HighlightColor == "" {
		s.HighlightColor = DefaultHighlightColor
	}
	if s.CopyMode == "" {
		s.CopyMode = DefaultCopyMode
	}
}

// clone returns a copy of s that shares nothing mutable with it.
func (s Settings) clone() Settings {
	if s.Extra != nil {
		s.Extra = maps.Clone(s.Extra)
	}
	return s
}

// Map returns every setting keyed by its storage name.
func (s Settings) Map() map[string]any {
	m := make(map[string]any, 5+len(s.Extra))
	maps.Copy(m, s.Extra)
	m[KeyModifier] = s.ModifierKey
	m[KeyHighlightColor] = s.HighlightColor
	m[KeyCopyMode] = string(s.CopyMode)
	m[KeyMultiSearch] = s.MultiSearch
	m[KeyCombinedSearch] = s.CombinedSearch
	return m
}

// Apply sets the given keys on s. Recognized keys must have the right type;
// anything else is stored in Extra.
func (s *Settings) Apply(values map[string]any) error {
	for key, value := range values {
		switch key {
		case KeyModifier, KeyHighlightColor, KeyCopyMode:
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("setting %s: expected a string, got %T", key, value)
			}
			switch key {
			case KeyModifier:
				s.ModifierKey = str
			case KeyHighlightColor:
				s.HighlightColor = str
			case KeyCopyMode:
				s.CopyMode = CopyMode(str)
			}
		case KeyMultiSearch, KeyCombinedSearch:
			b, ok := value.(bool)
			if !ok {
				return fmt.Errorf("setting %s: expected a bool, got %T", key, value)
			}
			if key == KeyMultiSearch {
				s.MultiSearch = b
			} else {
				s.CombinedSearch = b
			}
		default:
			if s.Extra == nil {
				s.Extra = make(map[string]any)
			}
			s.Extra[key] = value
		}
	}
	s.applyDefaults()
	return nil
}

// FormatCopy joins texts for the clipboard. Unknown modes join with newlines.
func FormatCopy(texts []string, mode CopyMode) string {
	switch mode {
	case CopySpace:
		return strings.Join(texts, " ")
	case CopyBullets:
		if len(texts) == 0 {
			return ""
		}
		return "• " + strings.Join(texts, "\n• ")
	default:
		return strings.Join(texts, "\n")
	}
}
