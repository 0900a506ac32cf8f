package compiler

import (
	"strings"

	"github.com/shibukawa/snaphaml"
	"github.com/shibukawa/snaphaml/intermediate"
)

// HasInterpolation reports whether text contains an interpolation marker,
// escaped or not.
func HasInterpolation(text string) bool {
	return strings.Contains(text, "#{") || strings.Contains(text, "#$") || strings.Contains(text, "#@")
}

// Interpolate lowers text into Static runs and Escape(escape, Dynamic) spans.
// Text without markers comes back as a single unchanged Static node.
func Interpolate(text string, escape bool, line int) (intermediate.Node, error) {
	if !HasInterpolation(text) {
		return &intermediate.Static{Text: text}, nil
	}

	s := &scanner{text: text, escape: escape, line: line, result: intermediate.NewMulti()}
	if err := s.scan(); err != nil {
		return nil, err
	}

	return s.result, nil
}

type scanner struct {
	text    string
	escape  bool
	line    int
	literal strings.Builder
	result  *intermediate.Multi
}

func (s *scanner) scan() error {
	text := s.text
	i := 0

	for i < len(text) {
		if text[i] != '\\' && text[i] != '#' {
			s.literal.WriteByte(text[i])
			i++

			continue
		}

		j := i
		for j < len(text) && text[j] == '\\' {
			j++
		}

		backslashes := j - i

		if !isMarker(text, j) {
			if backslashes == 0 {
				s.literal.WriteByte('#')
				j++
			} else {
				s.literal.WriteString(text[i:j])
			}

			i = j

			continue
		}

		s.literal.WriteString(strings.Repeat(`\`, backslashes/2))

		if backslashes%2 == 1 {
			s.literal.WriteString(text[j : j+2])
			i = j + 2

			continue
		}

		next, err := s.interpolation(j)
		if err != nil {
			return err
		}

		i = next
	}

	s.flush()

	return nil
}

// interpolation lowers the marker at pos and returns the index after it
func (s *scanner) interpolation(pos int) (int, error) {
	text := s.text

	if text[pos+1] == '{' {
		depth := 1
		end := pos + 2

		for ; end < len(text); end++ {
			switch text[end] {
			case '{':
				depth++
			case '}':
				depth--
			}

			if depth == 0 {
				break
			}
		}

		if depth != 0 {
			return 0, &snaphaml.InterpolationError{Line: s.line, Text: text}
		}

		s.dynamic(text[pos+2 : end])

		return end + 1, nil
	}

	// #@ivar, #@@cvar, #$gvar
	start := pos + 1
	end := start

	for end < len(text) && (text[end] == '@' || text[end] == '$') && end-start < 2 {
		end++
	}

	nameStart := end
	for end < len(text) && isWordChar(text[end]) {
		end++
	}

	if end == nameStart {
		s.literal.WriteString(text[pos:end])
		return end, nil
	}

	s.dynamic(text[start:end])

	return end, nil
}

func (s *scanner) dynamic(code string) {
	s.flush()
	s.result.Append(&intermediate.Escape{
		Flag:  s.escape,
		Child: &intermediate.Dynamic{Code: code, Line: s.line},
	})
}

func (s *scanner) flush() {
	if s.literal.Len() > 0 {
		s.result.Append(&intermediate.Static{Text: s.literal.String()})
		s.literal.Reset()
	}
}

func isMarker(text string, pos int) bool {
	if pos+1 >= len(text) || text[pos] != '#' {
		return false
	}

	switch text[pos+1] {
	case '{', '$', '@':
		return true
	}

	return false
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}
