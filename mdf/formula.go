package mdf

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// parseFormula compiles a conversion type 10 text formula into a function
// of the single free variable X. The grammar is deliberately small: +, -,
// *, /, unary minus, parentheses, power(a,b) / pow(a,b), and the unary
// functions exp, log, sqrt, abs, sin, cos, tan. Anything outside that
// grammar returns ErrUnsupportedFormula; this trades a full symbolic math
// library for a small hand-written evaluator covering what MDF3 files
// actually use.
func parseFormula(src string) (func(float64) float64, error) {
	p := &formulaParser{tokens: tokenizeFormula(src)}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, errors.Wrapf(ErrUnsupportedFormula, "%s: %q", err, src)
	}
	if p.pos != len(p.tokens) {
		return nil, errors.Wrapf(ErrUnsupportedFormula, "unexpected trailing input: %q", src)
	}
	return func(x float64) float64 { return expr(x) }, nil
}

type formulaToken struct {
	kind  byte // 'n' number, 'i' identifier, or the literal rune for operators/parens/comma
	text  string
	value float64
}

func tokenizeFormula(src string) []formulaToken {
	var tokens []formulaToken
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case strings.ContainsRune("+-*/(),", rune(c)):
			tokens = append(tokens, formulaToken{kind: c})
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.') {
				j++
			}
			v, _ := strconv.ParseFloat(src[i:j], 64)
			tokens = append(tokens, formulaToken{kind: 'n', value: v})
			i = j
		case isIdentChar(c):
			j := i
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			tokens = append(tokens, formulaToken{kind: 'i', text: src[i:j]})
			i = j
		default:
			// Unrecognized character: emit as its own token so the parser
			// rejects it explicitly rather than silently skipping it.
			tokens = append(tokens, formulaToken{kind: c})
			i++
		}
	}
	return tokens
}

func isIdentChar(c byte) bool {
	return c == 'X' || c == 'x' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

type formulaParser struct {
	tokens []formulaToken
	pos    int
}

func (p *formulaParser) peek() (formulaToken, bool) {
	if p.pos >= len(p.tokens) {
		return formulaToken{}, false
	}
	return p.tokens[p.pos], true
}

func (p *formulaParser) next() (formulaToken, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

// parseExpr : term (('+' | '-') term)*
func (p *formulaParser) parseExpr() (func(float64) float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || (t.kind != '+' && t.kind != '-') {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		l := left
		if t.kind == '+' {
			left = func(x float64) float64 { return l(x) + right(x) }
		} else {
			left = func(x float64) float64 { return l(x) - right(x) }
		}
	}
}

// parseTerm : factor (('*' | '/') factor)*
func (p *formulaParser) parseTerm() (func(float64) float64, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || (t.kind != '*' && t.kind != '/') {
			return left, nil
		}
		p.next()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		l := left
		if t.kind == '*' {
			left = func(x float64) float64 { return l(x) * right(x) }
		} else {
			left = func(x float64) float64 { return l(x) / right(x) }
		}
	}
}

// parseFactor : '-' factor | primary
func (p *formulaParser) parseFactor() (func(float64) float64, error) {
	if t, ok := p.peek(); ok && t.kind == '-' {
		p.next()
		inner, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return func(x float64) float64 { return -inner(x) }, nil
	}
	return p.parsePrimary()
}

// parsePrimary : number | 'X' | '(' expr ')' | ident '(' expr (',' expr)? ')'
func (p *formulaParser) parsePrimary() (func(float64) float64, error) {
	t, ok := p.next()
	if !ok {
		return nil, errors.New("unexpected end of formula")
	}

	switch t.kind {
	case 'n':
		v := t.value
		return func(float64) float64 { return v }, nil

	case '(':
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return inner, nil

	case 'i':
		return p.parseIdentifier(t.text)

	default:
		return nil, errors.Errorf("unexpected token %q", string(t.kind))
	}
}

func (p *formulaParser) parseIdentifier(name string) (func(float64) float64, error) {
	if strings.EqualFold(name, "X") {
		return func(x float64) float64 { return x }, nil
	}

	fn, ok := unaryFunctions[strings.ToLower(name)]
	if ok {
		if err := p.expect('('); err != nil {
			return nil, err
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return func(x float64) float64 { return fn(arg(x)) }, nil
	}

	lower := strings.ToLower(name)
	if lower == "power" || lower == "pow" {
		if err := p.expect('('); err != nil {
			return nil, err
		}
		base, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		exp, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return func(x float64) float64 { return math.Pow(base(x), exp(x)) }, nil
	}

	return nil, errors.Errorf("unknown identifier %q", name)
}

func (p *formulaParser) expect(kind byte) error {
	t, ok := p.next()
	if !ok || t.kind != kind {
		return errors.Errorf("expected %q", string(kind))
	}
	return nil
}

var unaryFunctions = map[string]func(float64) float64{
	"exp":  math.Exp,
	"log":  math.Log,
	"sqrt": math.Sqrt,
	"abs":  math.Abs,
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
}
