package michelson

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/trilitech/tzgo/micheline"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokAnnot
	tokInt
	tokString
	tokBytes
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokSemi
)

var punctuation = map[byte]tokenKind{
	'(': tokLParen,
	')': tokRParen,
	'{': tokLBrace,
	'}': tokRBrace,
	';': tokSemi,
}

type token struct {
	kind      tokenKind
	text      string
	line, col int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of input"
	}

	return fmt.Sprintf("%q", t.text)
}

// lex splits Michelson source into tokens, dropping whitespace and comments.
func lex(src string) ([]token, error) {
	var (
		toks      []token
		line, col = 1, 1
		i         int
	)

	advance := func(n int) {
		for range n {
			if src[i] == '\n' {
				line++
				col = 1
			} else {
				col++
			}
			i++
		}
	}
	emit := func(kind tokenKind, text string) {
		toks = append(toks, token{kind: kind, text: text, line: line, col: col})
	}

	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			advance(1)
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				advance(1)
			}
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return nil, fmt.Errorf("%d:%d: unterminated comment", line, col)
			}
			advance(end + 4)
		case c == '(' || c == ')' || c == '{' || c == '}' || c == ';':
			emit(punctuation[c], string(c))
			advance(1)
		case c == '"':
			s, n, err := lexString(src[i:])
			if err != nil {
				return nil, fmt.Errorf("%d:%d: %w", line, col, err)
			}
			emit(tokString, s)
			advance(n)
		case strings.HasPrefix(src[i:], "0x"):
			n := 2 + span(src[i+2:], isHexDigit)
			if _, err := hex.DecodeString(src[i+2 : i+n]); err != nil {
				return nil, fmt.Errorf("%d:%d: invalid bytes literal %s", line, col, src[i:i+n])
			}
			emit(tokBytes, strings.ToLower(src[i+2:i+n]))
			advance(n)
		case isDigit(c) || (c == '-' && i+1 < len(src) && isDigit(src[i+1])):
			n := 1 + span(src[i+1:], isDigit)
			emit(tokInt, src[i:i+n])
			advance(n)
		case c == '%' || c == ':' || c == '@':
			n := 1 + span(src[i+1:], isAnnotChar)
			emit(tokAnnot, src[i:i+n])
			advance(n)
		case isLetter(c) || c == '_':
			n := 1 + span(src[i+1:], isIdentChar)
			emit(tokIdent, src[i:i+n])
			advance(n)
		default:
			return nil, fmt.Errorf("%d:%d: unexpected character %q", line, col, c)
		}
	}

	toks = append(toks, token{kind: tokEOF, line: line, col: col})

	return toks, nil
}

// lexString reads a double quoted string literal and returns its value and its length in src.
func lexString(src string) (string, int, error) {
	var sb strings.Builder
	for i := 1; i < len(src); i++ {
		switch c := src[i]; c {
		case '"':
			return sb.String(), i + 1, nil
		case '\n':
			return "", 0, errors.New("newline in string literal")
		case '\\':
			if i+1 >= len(src) {
				return "", 0, errors.New("unterminated string literal")
			}
			i++
			switch src[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\', '"':
				sb.WriteByte(src[i])
			default:
				return "", 0, fmt.Errorf("invalid escape sequence \\%c", src[i])
			}
		default:
			sb.WriteByte(c)
		}
	}

	return "", 0, errors.New("unterminated string literal")
}

func span(s string, pred func(byte) bool) int {
	n := 0
	for n < len(s) && pred(s[n]) {
		n++
	}

	return n
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isLetter(c byte) bool   { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isHexDigit(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '.'
}
func isAnnotChar(c byte) bool {
	return isIdentChar(c) || c == '%' || c == '@' || c == ':'
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}

	return t
}

func (p *parser) expect(kind tokenKind, what string) error {
	if t := p.next(); t.kind != kind {
		return fmt.Errorf("%d:%d: expected %s, found %s", t.line, t.col, what, t)
	}

	return nil
}

// opcode resolves the primitive named by an identifier token.
func opcode(t token) (micheline.OpCode, error) {
	op, err := micheline.ParseOpCode(t.text)
	if err != nil {
		return 0, fmt.Errorf("%d:%d: unknown primitive %q", t.line, t.col, t.text)
	}

	return op, nil
}

// expr parses a primitive application, a literal or a sequence.
func (p *parser) expr() (micheline.Prim, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return p.term()
	}

	p.next()
	op, err := opcode(t)
	if err != nil {
		return micheline.Prim{}, err
	}

	var (
		annots []string
		args   []micheline.Prim
	)
	for {
		switch a := p.peek(); a.kind {
		case tokAnnot:
			p.next()
			annots = append(annots, a.text)
		case tokIdent, tokInt, tokString, tokBytes, tokLParen, tokLBrace:
			arg, err := p.term()
			if err != nil {
				return micheline.Prim{}, err
			}
			args = append(args, arg)
		default:
			return newPrim(op, annots, args...), nil
		}
	}
}

// term parses an expression which does not take arguments without parentheses.
func (p *parser) term() (micheline.Prim, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		op, err := opcode(t)
		if err != nil {
			return micheline.Prim{}, err
		}

		return micheline.NewCode(op), nil
	case tokInt:
		i, ok := new(big.Int).SetString(t.text, 10)
		if !ok {
			return micheline.Prim{}, fmt.Errorf("%d:%d: invalid integer %s", t.line, t.col, t.text)
		}

		return micheline.NewBig(i), nil
	case tokString:
		return micheline.NewString(t.text), nil
	case tokBytes:
		b, err := hex.DecodeString(t.text)
		if err != nil {
			return micheline.Prim{}, fmt.Errorf("%d:%d: invalid bytes literal 0x%s", t.line, t.col, t.text)
		}

		return micheline.NewBytes(b), nil
	case tokLParen:
		n, err := p.expr()
		if err != nil {
			return micheline.Prim{}, err
		}
		if err = p.expect(tokRParen, `")"`); err != nil {
			return micheline.Prim{}, err
		}

		return n, nil
	case tokLBrace:
		return p.seq(tokRBrace)
	default:
		return micheline.Prim{}, fmt.Errorf("%d:%d: unexpected %s", t.line, t.col, t)
	}
}

// seq parses ";" separated expressions up to the closing token, which is consumed.
func (p *parser) seq(closing tokenKind) (micheline.Prim, error) {
	n := micheline.NewSeq()
	for {
		if p.peek().kind == closing {
			p.next()
			return n, nil
		}

		e, err := p.expr()
		if err != nil {
			return micheline.Prim{}, err
		}
		n.Args = append(n.Args, e)

		switch t := p.peek(); t.kind {
		case tokSemi:
			p.next()
		case closing:
		default:
			return micheline.Prim{}, fmt.Errorf("%d:%d: expected \";\", found %s", t.line, t.col, t)
		}
	}
}

// ParseExpression parses a single Michelson expression such as `Pair 1 "a"` or
// `(pair (nat %n) (string %s))`.
func ParseExpression(src string) (micheline.Prim, error) {
	toks, err := lex(src)
	if err != nil {
		return micheline.Prim{}, fmt.Errorf("%w: %w", chain.ErrScriptParse, err)
	}

	p := &parser{toks: toks}
	n, err := p.expr()
	if err == nil {
		err = p.expect(tokEOF, "end of input")
	}
	if err != nil {
		return micheline.Prim{}, fmt.Errorf("%w: %w", chain.ErrScriptParse, err)
	}

	return n, nil
}

// ParseScript parses the source of a contract into its toplevel sections. The sections may be
// wrapped in braces. A script must have exactly one parameter, storage and code section and may
// declare views.
func ParseScript(src string) (micheline.Code, error) {
	toks, err := lex(src)
	if err != nil {
		return micheline.Code{}, fmt.Errorf("%w: %w", chain.ErrScriptParse, err)
	}

	p := &parser{toks: toks}
	var sections micheline.Prim
	if p.peek().kind == tokLBrace {
		p.next()
		sections, err = p.seq(tokRBrace)
		if err == nil {
			err = p.expect(tokEOF, "end of input")
		}
	} else {
		sections, err = p.seq(tokEOF)
	}
	if err != nil {
		return micheline.Code{}, fmt.Errorf("%w: %w", chain.ErrScriptParse, err)
	}

	code, err := splitSections(sections)
	if err != nil {
		return micheline.Code{}, fmt.Errorf("%w: %w", chain.ErrScriptParse, err)
	}

	return code, nil
}

func splitSections(sections micheline.Prim) (micheline.Code, error) {
	code := micheline.Code{View: micheline.NewSeq()}
	seen := map[micheline.OpCode]int{}
	for _, s := range sections.Args {
		if isSeq(s) || s.Type < micheline.PrimNullary || s.Type > micheline.PrimVariadicAnno {
			return micheline.Code{}, fmt.Errorf("unexpected toplevel %s", Format(s))
		}

		switch s.OpCode {
		case micheline.K_PARAMETER, micheline.K_STORAGE, micheline.K_CODE:
			if len(s.Args) != 1 {
				return micheline.Code{}, fmt.Errorf("section %s expects 1 argument, got %d", s.OpCode, len(s.Args))
			}
		case micheline.K_VIEW:
			if len(s.Args) != 4 {
				return micheline.Code{}, fmt.Errorf("view expects 4 arguments, got %d", len(s.Args))
			}
		default:
			return micheline.Code{}, fmt.Errorf("unknown toplevel section %q", s.OpCode)
		}
		seen[s.OpCode]++

		switch s.OpCode {
		case micheline.K_PARAMETER:
			code.Param = s
		case micheline.K_STORAGE:
			code.Storage = s
		case micheline.K_CODE:
			code.Code = s
		default:
			code.View.Args = append(code.View.Args, s)
		}
	}

	for _, op := range []micheline.OpCode{micheline.K_PARAMETER, micheline.K_STORAGE, micheline.K_CODE} {
		if seen[op] != 1 {
			return micheline.Code{}, fmt.Errorf("script must have exactly one %s section, found %d", op, seen[op])
		}
	}

	return code, nil
}
