package compiler

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/grackle/internal/intern"
	"github.com/roach88/grackle/internal/ir"
)

// ParseTypeExpr parses a textual type expression into a TypeRepr.
//
// Supported forms mirror what the IR can represent:
//
//	(A, B)             tuples (the empty tuple is the unit type)
//	path::To::Type     nominal types, optionally with <Arg, ...>
//	'a                 lifetimes
//	&'a mut T          references with optional lifetime and mutability
//
// Names are interned through tab so type expressions share identity with
// the rest of the grammar.
func ParseTypeExpr(tab *intern.Table, src string) (ir.TypeRepr, error) {
	p := &typeParser{tab: tab, src: src}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing input after type expression")
	}
	return ty, nil
}

type typeParser struct {
	tab *intern.Table
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type expression %q at offset %d: %s",
		p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *typeParser) eat(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) parseType() (ir.TypeRepr, error) {
	p.skipSpace()
	switch {
	case p.peek() == '(':
		return p.parseTuple()
	case p.peek() == '&':
		return p.parseRef()
	case p.peek() == '\'':
		lt, err := p.parseLifetime()
		if err != nil {
			return nil, err
		}
		return ir.LifetimeRepr{Name: lt}, nil
	default:
		return p.parseNominal()
	}
}

func (p *typeParser) parseTuple() (ir.TypeRepr, error) {
	p.eat('(')
	p.skipSpace()
	var elems []ir.TypeRepr
	for !p.eat(')') {
		if p.pos >= len(p.src) {
			return nil, p.errorf("unclosed tuple")
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		p.skipSpace()
		if p.eat(',') {
			p.skipSpace()
			continue
		}
		if !p.eat(')') {
			return nil, p.errorf("expected ',' or ')' in tuple")
		}
		break
	}
	return ir.TupleRepr{Elems: elems}, nil
}

func (p *typeParser) parseRef() (ir.TypeRepr, error) {
	p.eat('&')
	p.skipSpace()

	var lifetime intern.Atom
	if p.peek() == '\'' {
		lt, err := p.parseLifetime()
		if err != nil {
			return nil, err
		}
		lifetime = lt
		p.skipSpace()
	}

	mutable := false
	if strings.HasPrefix(p.src[p.pos:], "mut") {
		after := p.pos + 3
		if after == len(p.src) || !isIdentByte(p.src[after]) {
			p.pos = after
			mutable = true
			p.skipSpace()
		}
	}

	referent, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return ir.RefRepr{Lifetime: lifetime, Mutable: mutable, Referent: referent}, nil
}

func (p *typeParser) parseLifetime() (intern.Atom, error) {
	start := p.pos
	p.eat('\'')
	name := p.parseIdent()
	if name == "" {
		p.pos = start
		return intern.Atom{}, p.errorf("expected lifetime name after '")
	}
	return p.tab.Intern(p.src[start:p.pos]), nil
}

func (p *typeParser) parseNominal() (ir.TypeRepr, error) {
	var segments []intern.Atom
	for {
		p.skipSpace()
		seg := p.parseIdent()
		if seg == "" {
			return nil, p.errorf("expected type name")
		}
		segments = append(segments, p.tab.Intern(seg))
		p.skipSpace()
		if strings.HasPrefix(p.src[p.pos:], "::") {
			p.pos += 2
			continue
		}
		break
	}

	var args []ir.TypeRepr
	if p.eat('<') {
		p.skipSpace()
		for {
			arg, err := p.parseType()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			p.skipSpace()
			if p.eat(',') {
				p.skipSpace()
				continue
			}
			if p.eat('>') {
				break
			}
			return nil, p.errorf("expected ',' or '>' in type arguments")
		}
	}

	return ir.NominalRepr{Path: ir.PathOf(segments...), Args: args}, nil
}

func (p *typeParser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isIdentByte(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}
