package dag

import (
	"strings"

	"github.com/mediakit/mediakit/errors"
)

// stageDraft is one parsed stage occurrence before validation.
type stageDraft struct {
	name     string
	options  map[string]string
	fuseNext bool // fusion hint with the next draft in the same chain
}

// element is one comma-separated member of a segment: a single stage or
// a fusion chain.
type element struct {
	chain []stageDraft
}

// segment is one ';'-separated part of the spec: a single element or a
// bracketed parallel group.
type segment struct {
	elements []element
	group    bool
}

// parseSpec tokenizes the pipeline grammar. It performs purely syntactic
// checks; name resolution and kind checking happen in the builder.
func parseSpec(text string) ([]segment, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, buildErrf(errors.ErrCodeInvalidSpec, -1, "", "empty pipeline spec")
	}

	parts := strings.Split(trimmed, ";")
	segments := make([]segment, 0, len(parts))
	for _, part := range parts {
		seg, err := parseSegment(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func parseSegment(text string) (segment, error) {
	if text == "" {
		return segment{}, buildErrf(errors.ErrCodeInvalidSpec, -1, "", "empty segment")
	}

	if strings.HasPrefix(text, "[") {
		if !strings.HasSuffix(text, "]") {
			return segment{}, buildErrf(errors.ErrCodeInvalidSpec, -1, "", "unterminated group %q", text)
		}
		inner := text[1 : len(text)-1]
		if strings.ContainsAny(inner, "[]") {
			return segment{}, buildErrf(errors.ErrCodeInvalidSpec, -1, "", "nested groups are not supported in %q", text)
		}
		members := strings.Split(inner, ",")
		if len(members) < 2 {
			return segment{}, buildErrf(errors.ErrCodeInvalidSpec, -1, "", "group %q needs at least two members", text)
		}
		seg := segment{group: true}
		for _, member := range members {
			el, err := parseElement(strings.TrimSpace(member))
			if err != nil {
				return segment{}, err
			}
			seg.elements = append(seg.elements, el)
		}
		return seg, nil
	}

	if strings.ContainsAny(text, "[],") {
		return segment{}, buildErrf(errors.ErrCodeInvalidSpec, -1, "", "unexpected group syntax in %q", text)
	}

	el, err := parseElement(text)
	if err != nil {
		return segment{}, err
	}
	return segment{elements: []element{el}}, nil
}

func parseElement(text string) (element, error) {
	if text == "" {
		return element{}, buildErrf(errors.ErrCodeInvalidSpec, -1, "", "empty stage")
	}

	links := strings.Split(text, "+")
	el := element{}
	for i, link := range links {
		draft, err := parseStage(strings.TrimSpace(link))
		if err != nil {
			return element{}, err
		}
		draft.fuseNext = i < len(links)-1
		el.chain = append(el.chain, draft)
	}
	return el, nil
}

func parseStage(text string) (stageDraft, error) {
	if text == "" {
		return stageDraft{}, buildErrf(errors.ErrCodeInvalidSpec, -1, "", "empty stage name")
	}

	name, rest, hasOptions := strings.Cut(text, ":")
	if !validName(name) {
		return stageDraft{}, buildErrf(errors.ErrCodeInvalidSpec, -1, name, "invalid capability name %q", name)
	}

	draft := stageDraft{name: name}
	if !hasOptions {
		return draft, nil
	}

	// A ':' opens a new option only when followed by "key=". Other
	// colons belong to the preceding value (URLs, timestamps).
	var last string
	for _, field := range strings.Split(rest, ":") {
		key, value, ok := strings.Cut(field, "=")
		if ok && validName(key) {
			if draft.options == nil {
				draft.options = make(map[string]string)
			}
			if _, dup := draft.options[key]; dup {
				return stageDraft{}, buildErrf(errors.ErrCodeInvalidSpec, -1, name, "duplicate option %q", key)
			}
			draft.options[key] = value
			last = key
			continue
		}
		if last == "" {
			return stageDraft{}, buildErrf(errors.ErrCodeInvalidSpec, -1, name, "malformed option %q", field)
		}
		draft.options[last] += ":" + field
	}
	return draft, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}
