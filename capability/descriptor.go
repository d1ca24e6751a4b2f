package capability

import (
	"github.com/mediakit/mediakit/errors"
	"github.com/mediakit/mediakit/media"
)

// Descriptor describes a registered capability: what it accepts, what it
// emits, and the configuration options it understands. Descriptors are
// created once at process start and never mutated.
type Descriptor struct {
	// Name is the unique capability identifier used in pipeline specs.
	Name string
	// InputKinds is the set of media kinds this capability accepts.
	InputKinds []media.Kind
	// OutputKind is the media kind this capability emits.
	OutputKind media.Kind
	// Options is the configuration schema with defaults.
	Options []OptionSpec
}

// OptionSpec declares one named configuration option.
type OptionSpec struct {
	// Name is the option key as it appears in spec text (":key=value").
	Name string
	// Default is applied when the spec omits the option.
	Default string
	// Required rejects specs that omit the option and provide no default.
	Required bool
}

// Accepts reports whether the capability accepts the given input kind.
func (d Descriptor) Accepts(kind media.Kind) bool {
	for _, k := range d.InputKinds {
		if kind.Matches(k) {
			return true
		}
	}
	return false
}

// ResolveOptions merges raw stage options with the descriptor's schema:
// defaults are applied, unknown keys and missing required options are
// rejected. The returned map is a fresh copy.
func ResolveOptions(d Descriptor, raw map[string]string) (map[string]string, error) {
	specs := make(map[string]OptionSpec, len(d.Options))
	for _, opt := range d.Options {
		specs[opt.Name] = opt
	}

	for key := range raw {
		if _, ok := specs[key]; !ok {
			return nil, errors.Newf(errors.ErrCodeInvalidOption,
				"capability %q does not accept option %q", d.Name, key)
		}
	}

	resolved := make(map[string]string, len(d.Options))
	for _, opt := range d.Options {
		if v, ok := raw[opt.Name]; ok {
			resolved[opt.Name] = v
			continue
		}
		if opt.Default != "" {
			resolved[opt.Name] = opt.Default
			continue
		}
		if opt.Required {
			return nil, errors.Newf(errors.ErrCodeInvalidOption,
				"capability %q requires option %q", d.Name, opt.Name)
		}
	}
	return resolved, nil
}
