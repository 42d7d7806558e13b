// Package nametmpl renders positional name templates such as "MDT-{0}".
package nametmpl

import (
	"fmt"
	"strconv"
	"strings"
)

type segment struct {
	literal string
	slot    int // -1 for literal segments
}

// parse splits tmpl into literal and slot segments. "{{" and "}}" are
// literal braces.
func parse(tmpl string) ([]segment, error) {
	var (
		segs []segment
		lit  strings.Builder
	)

	for i := 0; i < len(tmpl); i++ {
		ch := tmpl[i]
		switch {
		case ch == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			lit.WriteByte('{')
			i++
		case ch == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			lit.WriteByte('}')
			i++
		case ch == '{':
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unclosed '{' at offset %d", i)
			}
			body := tmpl[i+1 : i+end]
			n, err := strconv.Atoi(body)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid slot %q at offset %d", "{"+body+"}", i)
			}
			if lit.Len() > 0 {
				segs = append(segs, segment{literal: lit.String(), slot: -1})
				lit.Reset()
			}
			segs = append(segs, segment{slot: n})
			i += end
		case ch == '}':
			return nil, fmt.Errorf("unmatched '}' at offset %d", i)
		default:
			lit.WriteByte(ch)
		}
	}

	if lit.Len() > 0 {
		segs = append(segs, segment{literal: lit.String(), slot: -1})
	}
	return segs, nil
}

// Validate checks tmpl's syntax and that it uses no slot at or above
// maxSlots.
func Validate(tmpl string, maxSlots int) error {
	segs, err := parse(tmpl)
	if err != nil {
		return err
	}
	for _, s := range segs {
		if s.slot >= maxSlots {
			return fmt.Errorf("slot {%d} out of range, template accepts %d", s.slot, maxSlots)
		}
	}
	return nil
}

// Render substitutes args into tmpl's positional slots.
func Render(tmpl string, args ...string) (string, error) {
	segs, err := parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var b strings.Builder
	for _, s := range segs {
		if s.slot < 0 {
			b.WriteString(s.literal)
			continue
		}
		if s.slot >= len(args) {
			return "", fmt.Errorf("render template: no value for slot {%d}", s.slot)
		}
		b.WriteString(args[s.slot])
	}
	return b.String(), nil
}
