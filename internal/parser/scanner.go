package parser

import (
	"strata/internal/source"
)

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokIdent
	tokValue // %name
	tokFunc  // @name
	tokNumber
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokLAngle
	tokRAngle
	tokComma
	tokColon
	tokEq
	tokArrow
	tokError
)

func (k tokKind) String() string {
	switch k {
	case tokEOF:
		return "end of file"
	case tokIdent:
		return "identifier"
	case tokValue:
		return "value reference"
	case tokFunc:
		return "function reference"
	case tokNumber:
		return "number"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokLAngle:
		return "'<'"
	case tokRAngle:
		return "'>'"
	case tokComma:
		return "','"
	case tokColon:
		return "':'"
	case tokEq:
		return "'='"
	case tokArrow:
		return "'->'"
	}
	return "bad token"
}

type token struct {
	Kind tokKind
	Text string
	Span source.Span
}

// scanner is a single-pass tokenizer over one file's normalized content.
// Line comments start with //.
type scanner struct {
	file    source.FileID
	content []byte
	pos     uint32
}

func newScanner(f *source.File) *scanner {
	return &scanner{file: f.ID, content: f.Content}
}

func (s *scanner) span(start uint32) source.Span {
	return source.Span{File: s.file, Start: start, End: s.pos}
}

func (s *scanner) peekByte() (byte, bool) {
	if int(s.pos) >= len(s.content) {
		return 0, false
	}
	return s.content[s.pos], true
}

func (s *scanner) skipSpace() {
	for {
		c, ok := s.peekByte()
		if !ok {
			return
		}
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++
		case c == '/' && int(s.pos)+1 < len(s.content) && s.content[s.pos+1] == '/':
			for {
				c, ok = s.peekByte()
				if !ok || c == '\n' {
					break
				}
				s.pos++
			}
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentBody(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (s *scanner) ident() string {
	start := s.pos
	for {
		c, ok := s.peekByte()
		if !ok || !isIdentBody(c) {
			break
		}
		s.pos++
	}
	return string(s.content[start:s.pos])
}

// next returns the following token. Unknown bytes produce tokError with the
// offending byte as text.
func (s *scanner) next() token {
	s.skipSpace()
	start := s.pos
	c, ok := s.peekByte()
	if !ok {
		return token{Kind: tokEOF, Span: s.span(start)}
	}

	switch {
	case isIdentStart(c):
		text := s.ident()
		return token{Kind: tokIdent, Text: text, Span: s.span(start)}
	case c == '%':
		s.pos++
		text := s.ident()
		if text == "" {
			return token{Kind: tokError, Text: "%", Span: s.span(start)}
		}
		return token{Kind: tokValue, Text: text, Span: s.span(start)}
	case c == '@':
		s.pos++
		text := s.ident()
		if text == "" {
			return token{Kind: tokError, Text: "@", Span: s.span(start)}
		}
		return token{Kind: tokFunc, Text: text, Span: s.span(start)}
	case isDigit(c) || c == '-':
		return s.number(start)
	}

	s.pos++
	switch c {
	case '(':
		return token{Kind: tokLParen, Span: s.span(start)}
	case ')':
		return token{Kind: tokRParen, Span: s.span(start)}
	case '{':
		return token{Kind: tokLBrace, Span: s.span(start)}
	case '}':
		return token{Kind: tokRBrace, Span: s.span(start)}
	case '<':
		return token{Kind: tokLAngle, Span: s.span(start)}
	case '>':
		return token{Kind: tokRAngle, Span: s.span(start)}
	case ',':
		return token{Kind: tokComma, Span: s.span(start)}
	case ':':
		return token{Kind: tokColon, Span: s.span(start)}
	case '=':
		return token{Kind: tokEq, Span: s.span(start)}
	}
	return token{Kind: tokError, Text: string(c), Span: s.span(start)}
}

func (s *scanner) number(start uint32) token {
	c, _ := s.peekByte()
	if c == '-' {
		s.pos++
		if c, ok := s.peekByte(); !ok || !isDigit(c) {
			// A lone '-' is only meaningful as part of '->'.
			if c == '>' {
				s.pos++
				return token{Kind: tokArrow, Span: s.span(start)}
			}
			return token{Kind: tokError, Text: "-", Span: s.span(start)}
		}
	}
	for {
		c, ok := s.peekByte()
		if !ok {
			break
		}
		if isDigit(c) || c == '.' || c == 'e' || c == 'E' ||
			((c == '+' || c == '-') && (s.content[s.pos-1] == 'e' || s.content[s.pos-1] == 'E')) {
			s.pos++
			continue
		}
		break
	}
	return token{Kind: tokNumber, Text: string(s.content[start:s.pos]), Span: s.span(start)}
}
