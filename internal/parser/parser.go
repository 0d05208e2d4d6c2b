// Package parser builds an internal/ast.Program from the token stream
// produced by internal/lexer, implementing the grammar of spec.md §4.2
// as a hand-written recursive-descent/precedence-climbing parser (the
// teacher's generated-grammar parser is replaced by the equivalent
// hand-rolled discipline — see DESIGN.md).
package parser

import (
	"github.com/oursh-shell/oursh/internal/ast"
	"github.com/oursh-shell/oursh/internal/invariant"
	"github.com/oursh-shell/oursh/internal/lexer"
	"github.com/oursh-shell/oursh/internal/token"
)

// Parse lexes and parses src into a Program.
func Parse(src string) (*ast.Program, error) {
	toks, err := lexer.All(src)
	if err != nil {
		if lexErr, ok := err.(*lexer.Error); ok {
			return nil, &Error{Kind: InvalidToken, Pos: lexErr.Start, Expected: []string{"valid character"}}
		}
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	return p.parseProgram()
}

type parser struct {
	src  string
	toks []token.Token
	pos  int
}

func (p *parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) is(kinds ...token.Kind) bool {
	c := p.cur().Kind
	for _, k := range kinds {
		if c == k {
			return true
		}
	}
	return false
}

func (p *parser) unexpected(expected ...string) error {
	c := p.cur()
	if c.Kind == token.EOF {
		return &Error{Kind: UnrecognizedEOF, Pos: c.Start, Expected: expected}
	}
	return &Error{Kind: UnrecognizedToken, Pos: c.Start, Got: c, Expected: expected}
}

func (p *parser) expect(k token.Kind, name string) (token.Token, error) {
	if !p.is(k) {
		return token.Token{}, p.unexpected(name)
	}
	return p.advance(), nil
}

// adjacent reports whether b begins exactly where a ends, i.e. no
// whitespace or other token separates them in the source.
func adjacent(a, b token.Token) bool {
	return a.End.Offset == b.Start.Offset
}

func isSeparator(k token.Kind) bool {
	return k == token.SEMI || k == token.LINEFEED
}

func (p *parser) skipSeparators() {
	for isSeparator(p.cur().Kind) {
		p.advance()
	}
}

// parseProgram implements: program := complete_command (separator complete_command)*
func (p *parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	p.skipSeparators()
	for !p.is(token.EOF) && !p.isBlockTerminator() {
		prevPos := p.pos
		cmd, err := p.parseCompleteCommand()
		if err != nil {
			return nil, err
		}
		prog.Commands = append(prog.Commands, cmd)
		p.skipSeparators()
		invariant.Invariant(p.pos > prevPos, "parser stuck in parseProgram() at pos %d, token: %v", p.pos, p.cur().Kind)
	}
	return prog, nil
}

// isBlockTerminator reports whether the current token closes an
// enclosing brace group, subshell, or control structure, so a nested
// parseProgram call knows to stop without consuming it.
func (p *parser) isBlockTerminator() bool {
	return p.is(token.RBRACE, token.RPAREN, token.THEN, token.ELSE, token.ELIF,
		token.FI, token.DO, token.DONE)
}

// parseCompleteCommand implements:
// complete_command := and_or_list (Amper | Semi | ε)
func (p *parser) parseCompleteCommand() (ast.Command, error) {
	start := p.cur().Start
	cmd, err := p.parseAndOr()
	if err != nil {
		return ast.Command{}, err
	}
	if p.is(token.AMPER) {
		p.advance()
		return ast.Background(cmd, start), nil
	}
	return cmd, nil
}

// parseAndOr implements:
// and_or_list := pipeline ((And|Or) pipeline)*   [left-assoc]
func (p *parser) parseAndOr() (ast.Command, error) {
	left, err := p.parsePipeline()
	if err != nil {
		return ast.Command{}, err
	}
	for p.is(token.AND, token.OR) {
		op := p.advance()
		p.skipSeparators() // a linebreak may follow && / || before the next pipeline
		right, err := p.parsePipeline()
		if err != nil {
			return ast.Command{}, err
		}
		if op.Kind == token.AND {
			left = ast.And(left, right, op.Start)
		} else {
			left = ast.Or(left, right, op.Start)
		}
	}
	return left, nil
}

// parsePipeline implements:
// pipeline := (Bang)? command (Pipe command)*
// Bang wraps the whole resulting pipeline (spec.md open question #6).
func (p *parser) parsePipeline() (ast.Command, error) {
	var bang *token.Token
	if p.is(token.BANG) {
		t := p.advance()
		bang = &t
	}

	left, err := p.parseCommand()
	if err != nil {
		return ast.Command{}, err
	}
	for p.is(token.PIPE) {
		op := p.advance()
		p.skipSeparators()
		right, err := p.parseCommand()
		if err != nil {
			return ast.Command{}, err
		}
		left = ast.Pipeline(left, right, op.Start)
	}

	if bang != nil {
		left = ast.Not(left, bang.Start)
	}
	return left, nil
}

// parseCommand implements:
// command := simple | compound
func (p *parser) parseCommand() (ast.Command, error) {
	switch p.cur().Kind {
	case token.LBRACE:
		return p.parseBraceGroup()
	case token.LPAREN:
		return p.parseSubshell()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhileUntil(false)
	case token.UNTIL:
		return p.parseWhileUntil(true)
	case token.FOR:
		return p.parseFor()
	case token.SHEBANG:
		return p.parseLangBlock()
	default:
		return p.parseSimple()
	}
}

// parseBraceGroup implements: brace_group := LBrace program RBrace
func (p *parser) parseBraceGroup() (ast.Command, error) {
	start := p.advance().Start // consume {
	prog, err := p.parseProgram()
	if err != nil {
		return ast.Command{}, err
	}
	if _, err := p.expect(token.RBRACE, "}"); err != nil {
		return ast.Command{}, err
	}
	return ast.Compound(prog, start), nil
}

// parseSubshell implements: subshell := LParen program RParen
func (p *parser) parseSubshell() (ast.Command, error) {
	start := p.advance().Start // consume (
	prog, err := p.parseProgram()
	if err != nil {
		return ast.Command{}, err
	}
	if _, err := p.expect(token.RPAREN, ")"); err != nil {
		return ast.Command{}, err
	}
	return ast.Subshell(prog, start), nil
}

// parseLangBlock implements: lang_block := Shebang Text RBrace
func (p *parser) parseLangBlock() (ast.Command, error) {
	tag := p.advance() // Shebang
	text, err := p.expect(token.TEXT, "language block body")
	if err != nil {
		return ast.Command{}, err
	}
	if _, err := p.expect(token.RBRACE, "}"); err != nil {
		return ast.Command{}, err
	}
	return ast.Lang(resolveInterpreter(tag.Text), text.Text, tag.Start), nil
}

// resolveInterpreter classifies a Shebang tag's text into an
// ast.Interpreter, per spec.md §4.5:
//   - "" (bare {#...}) selects the Primary (reserved) interpreter.
//   - "!" followed by an absolute path or /usr/bin/env line is Shebang.
//   - a single bare identifier is HashLang, looked up at eval time.
//   - "!" alone with nothing else is Alternate (/bin/sh).
func resolveInterpreter(tag string) ast.Interpreter {
	switch {
	case tag == "":
		return ast.Interpreter{Kind: ast.InterpreterPrimary}
	case tag == "!":
		return ast.Interpreter{Kind: ast.InterpreterAlternate}
	case len(tag) > 0 && tag[0] == '!':
		return ast.Interpreter{Kind: ast.InterpreterShebang, Name: tag[1:]}
	default:
		return ast.Interpreter{Kind: ast.InterpreterHashLang, Name: tag}
	}
}

// parseIf implements:
// if_clause := IF and_or_list THEN program (ELIF and_or_list THEN program)* (ELSE program)? FI
func (p *parser) parseIf() (ast.Command, error) {
	start := p.advance().Start // consume if
	var branches []ast.IfBranch

	for {
		cond, err := p.parseAndOr()
		if err != nil {
			return ast.Command{}, err
		}
		condProg := &ast.Program{Commands: []ast.Command{cond}}
		p.skipSeparators()
		if _, err := p.expect(token.THEN, "then"); err != nil {
			return ast.Command{}, err
		}
		body, err := p.parseProgram()
		if err != nil {
			return ast.Command{}, err
		}
		branches = append(branches, ast.IfBranch{Cond: condProg, Body: body})
		if p.is(token.ELIF) {
			p.advance()
			continue
		}
		break
	}

	var elseBody *ast.Program
	if p.is(token.ELSE) {
		p.advance()
		body, err := p.parseProgram()
		if err != nil {
			return ast.Command{}, err
		}
		elseBody = body
	}

	if _, err := p.expect(token.FI, "fi"); err != nil {
		return ast.Command{}, err
	}
	return ast.If(branches, elseBody, start), nil
}

// parseWhileUntil implements both while_clause and until_clause, which
// share a grammar shape differing only in the loop-continuation sense.
func (p *parser) parseWhileUntil(until bool) (ast.Command, error) {
	start := p.advance().Start // consume while/until
	cond, err := p.parseAndOr()
	if err != nil {
		return ast.Command{}, err
	}
	condProg := &ast.Program{Commands: []ast.Command{cond}}
	p.skipSeparators()
	if _, err := p.expect(token.DO, "do"); err != nil {
		return ast.Command{}, err
	}
	body, err := p.parseProgram()
	if err != nil {
		return ast.Command{}, err
	}
	if _, err := p.expect(token.DONE, "done"); err != nil {
		return ast.Command{}, err
	}
	if until {
		return ast.Until(condProg, body, start), nil
	}
	return ast.While(condProg, body, start), nil
}

// parseFor implements:
// for_clause := FOR WORD (IN word*)? separator DO program DONE
func (p *parser) parseFor() (ast.Command, error) {
	start := p.advance().Start // consume for
	name, err := p.expect(token.WORD, "identifier")
	if err != nil {
		return ast.Command{}, err
	}

	var items []ast.Word
	if p.cur().Kind == token.WORD && p.cur().Text == "in" {
		p.advance()
		for p.cur().Kind == token.WORD {
			items = append(items, p.wordFromToken(p.advance()))
		}
	}

	p.skipSeparators()
	if _, err := p.expect(token.DO, "do"); err != nil {
		return ast.Command{}, err
	}
	body, err := p.parseProgram()
	if err != nil {
		return ast.Command{}, err
	}
	if _, err := p.expect(token.DONE, "done"); err != nil {
		return ast.Command{}, err
	}
	return ast.For(name.Text, items, body, start), nil
}

// parseSimple implements:
// simple := (assignment)* (word | io_redirect)+
func (p *parser) parseSimple() (ast.Command, error) {
	start := p.cur().Start
	var assignments []ast.Assignment

	for p.looksLikeAssignment() {
		name := p.advance() // WORD
		p.advance()          // EQUALS
		value := ""
		if p.cur().Kind == token.WORD && adjacent(p.toks[p.pos-1], p.cur()) {
			value = p.scanCompoundWordText()
		}
		assignments = append(assignments, ast.Assignment{Name: name.Text, Value: value})
	}

	var words []ast.Word
	var redirects []ast.Redirect
	for p.startsWordOrRedirect() {
		if p.is(token.IONUMBER) || p.isRedirOp() {
			r, err := p.parseRedirect()
			if err != nil {
				return ast.Command{}, err
			}
			redirects = append(redirects, r)
			continue
		}
		words = append(words, p.wordFromCompound())
	}

	if len(assignments) == 0 && len(words) == 0 && len(redirects) == 0 {
		return ast.Command{}, p.unexpected("command")
	}
	return ast.Simple(assignments, words, redirects, start), nil
}

// looksLikeAssignment reports whether the tokens at the current position
// form a NAME=value assignment prefix: a bare WORD immediately followed
// by EQUALS with no intervening whitespace.
func (p *parser) looksLikeAssignment() bool {
	if p.cur().Kind != token.WORD {
		return false
	}
	nxt := p.peekAt(1)
	if nxt.Kind != token.EQUALS {
		return false
	}
	return adjacent(p.cur(), nxt) && isValidName(p.cur().Text)
}

func isValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

func (p *parser) isRedirOp() bool {
	return p.is(token.GREAT, token.DGREAT, token.GREATAND, token.CLOBBER,
		token.LESS, token.DLESS, token.DLESSDASH, token.LESSAND, token.LESSGREATER)
}

func (p *parser) startsWordOrRedirect() bool {
	return p.is(token.WORD, token.IONUMBER) || p.isRedirOp()
}

// parseRedirect implements: io_redirect := (IoNumber)? redir_op word
func (p *parser) parseRedirect() (ast.Redirect, error) {
	fd := -1 // sentinel: "use the operator's default fd"
	if p.is(token.IONUMBER) {
		t := p.advance()
		fd = atoiSafe(t.Text)
	}

	op := p.advance()
	wordTok, err := p.expect(token.WORD, "filename")
	if err != nil {
		return ast.Redirect{}, err
	}
	filename := p.finishCompoundWord(wordTok).Value

	switch op.Kind {
	case token.LESSGREATER:
		return ast.Redirect{Kind: ast.RedirectRW, FD: defaultFD(fd, 0), Filename: filename}, nil
	case token.LESS:
		return ast.Redirect{Kind: ast.RedirectRead, FD: defaultFD(fd, 0), Filename: filename}, nil
	case token.LESSAND:
		return ast.Redirect{Kind: ast.RedirectRead, FD: defaultFD(fd, 0), Filename: filename, Duplicate: true}, nil
	case token.GREAT:
		return ast.Redirect{Kind: ast.RedirectWrite, FD: defaultFD(fd, 1), Filename: filename}, nil
	case token.DGREAT:
		return ast.Redirect{Kind: ast.RedirectWrite, FD: defaultFD(fd, 1), Filename: filename, Append: true}, nil
	case token.CLOBBER:
		return ast.Redirect{Kind: ast.RedirectWrite, FD: defaultFD(fd, 1), Filename: filename, Clobber: true}, nil
	case token.GREATAND:
		return ast.Redirect{Kind: ast.RedirectWrite, FD: defaultFD(fd, 1), Filename: filename, Duplicate: true}, nil
	default:
		return ast.Redirect{}, p.unexpected("redirection operator")
	}
}

func defaultFD(fd, def int) int {
	if fd < 0 {
		return def
	}
	return fd
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// wordFromCompound consumes one or more adjacent WORD/EQUALS tokens
// starting at the current position and merges them into a single
// ast.Word, reconstructing literal '=' occurrences inside an ordinary
// argument (e.g. "echo a=b" is one word, not an assignment).
func (p *parser) wordFromCompound() ast.Word {
	first := p.advance()
	w := p.finishCompoundWord(first)
	return w
}

func (p *parser) wordFromToken(t token.Token) ast.Word {
	return p.finishCompoundWord(t)
}

func (p *parser) finishCompoundWord(first token.Token) ast.Word {
	text := first.Text
	last := first
	for p.is(token.EQUALS, token.WORD) && adjacent(last, p.cur()) {
		nxt := p.advance()
		text += nxt.Symbol()
		last = nxt
	}
	return ast.Word{Kind: p.wordKindAt(first), Value: text}
}

// wordKindAt classifies a word by inspecting the raw byte that opens its
// first token in the source: a leading quote character determines the
// quoting of the whole reconstructed word (SPEC_FULL.md §12.1 notes this
// is the simple, common case; a word formed from multiple differently
// quoted segments takes the kind of its first segment).
func (p *parser) wordKindAt(t token.Token) ast.WordKind {
	if t.Start.Offset >= len(p.src) {
		return ast.WordBare
	}
	switch p.src[t.Start.Offset] {
	case '\'':
		return ast.WordSingleQuoted
	case '"':
		return ast.WordDoubleQuoted
	default:
		return ast.WordBare
	}
}

// scanCompoundWordText is used for assignment values, where we only need
// the text, not the quote classification.
func (p *parser) scanCompoundWordText() string {
	first := p.advance()
	return p.finishCompoundWord(first).Value
}
