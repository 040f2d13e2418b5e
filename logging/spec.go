package logging

import (
	"fmt"
	"strings"
)

// Spec is a parsed logging specification: a base level plus optional
// per-component overrides.
//
// The string form is "<base-level>[,<component>=<level>]...":
//
//   - "info" - everything at info
//   - "warn,manager=debug" - base warn, manager at debug
//   - "info,store=trace,pal=debug" - multiple overrides
type Spec struct {
	// BaseLevel applies to any component without an override.
	BaseLevel Level
	// Components maps component names to their override levels.
	Components map[string]Level
}

// ParseSpec parses a spec string. The empty string yields info with no
// overrides. A bare level is only accepted as the first element.
func ParseSpec(s string) (Spec, error) {
	spec := Spec{
		BaseLevel:  LevelInfo,
		Components: make(map[string]Level),
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return spec, nil
	}

	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idx := strings.Index(part, "=")
		if idx == -1 {
			if i != 0 {
				return spec, fmt.Errorf("base level %q must be first in spec", part)
			}
			level, err := ParseLevel(part)
			if err != nil {
				return spec, err
			}
			spec.BaseLevel = level
			continue
		}

		component := strings.TrimSpace(part[:idx])
		if component == "" {
			return spec, fmt.Errorf("empty component name in %q", part)
		}
		level, err := ParseLevel(part[idx+1:])
		if err != nil {
			return spec, fmt.Errorf("invalid level for component %q: %w", component, err)
		}
		spec.Components[component] = level
	}

	return spec, nil
}

// LevelFor returns the override for component if one exists, otherwise
// the base level.
func (s *Spec) LevelFor(component string) Level {
	if level, ok := s.Components[component]; ok {
		return level
	}
	return s.BaseLevel
}

// String renders the spec back into its parseable form. Component
// order is unspecified.
func (s *Spec) String() string {
	parts := []string{s.BaseLevel.String()}
	for component, level := range s.Components {
		parts = append(parts, fmt.Sprintf("%s=%s", component, level.String()))
	}
	return strings.Join(parts, ",")
}
