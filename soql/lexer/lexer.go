package lexer

import (
	"github.com/thisisjab/jitsoql/fault"
	"github.com/thisisjab/jitsoql/soql/token"
)

type Lexer struct {
	input   []rune
	pos     int  // position of the current character in the input string
	readPos int  // position of the next character to be read
	char    rune // current character being processed
	line    int
	column  int
}

// state is a saved cursor used to roll back a speculative scan.
type state struct {
	pos, readPos, line, column int
	char                       rune
}

func New(input string) *Lexer {
	l := &Lexer{input: []rune(input), line: 1}
	l.readChar()
	return l
}

// Tokenize scans the whole input. The returned slice always ends with EOF
// unless a lexical error stopped the scan.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)

	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}

// Slice returns the source text between two rune offsets.
func (l *Lexer) Slice(from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(l.input) {
		to = len(l.input)
	}
	if from >= to {
		return ""
	}
	return string(l.input[from:to])
}

func (l *Lexer) readChar() {
	if l.char == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPos >= len(l.input) {
		l.char = 0
	} else {
		l.char = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) position() token.Position {
	return token.Position{Offset: l.pos, Line: l.line, Column: l.column}
}

func (l *Lexer) save() state {
	return state{pos: l.pos, readPos: l.readPos, line: l.line, column: l.column, char: l.char}
}

func (l *Lexer) restore(s state) {
	l.pos, l.readPos, l.line, l.column, l.char = s.pos, s.readPos, s.line, s.column, s.char
}

// NextToken returns the next token. The error is non-nil only for lexical
// faults; anything else the scanner cannot classify comes back as ILLEGAL
// and is left to the parser.
func (l *Lexer) NextToken() (token.Token, error) {
	var tok token.Token

	l.skipWhitespace()
	start := l.position()

	if l.eof() {
		return token.Token{Type: token.EOF, Pos: start}, nil
	}

	switch l.char {
	case '=':
		tok = token.Token{Type: token.EQUAL, Literal: "="}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.LESSEQUAL, Literal: "<="}
		} else {
			tok = token.Token{Type: token.LESS, Literal: "<"}
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.GREATEREQUAL, Literal: ">="}
		} else {
			tok = token.Token{Type: token.GREATER, Literal: ">"}
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NOTEQUAL, Literal: "!="}
		} else {
			tok = token.Token{Type: token.ILLEGAL, Literal: "!"}
		}
	case ',':
		tok = token.Token{Type: token.COMMA, Literal: ","}
	case '(':
		tok = token.Token{Type: token.LPAREN, Literal: "("}
	case ')':
		tok = token.Token{Type: token.RPAREN, Literal: ")"}
	case ']':
		tok = token.Token{Type: token.RBRACKET, Literal: "]"}
	case '[':
		tok, err := l.readVariable()
		tok.Pos = start
		return tok, err
	case '\'':
		tok = l.readQuoted()
		tok.Pos = start
		return tok, nil
	default:
		if isLetter(l.char) {
			tok = l.readIdentifier()
			tok.Pos = start
			return tok, nil
		}
		if isDigit(l.char) || (l.char == '-' && isDigit(l.peekChar())) {
			tok = l.readNumber()
			tok.Pos = start
			return tok, nil
		}
		tok = token.Token{Type: token.ILLEGAL, Literal: string(l.char)}
	}

	tok.Pos = start
	l.readChar()
	return tok, nil
}

// readVariable scans an unquoted `[name]` or `[name{default}]` reference.
// When the text after `[` is not a variable at all, the scan is rolled back
// and a lone LBRACKET is returned.
func (l *Lexer) readVariable() (token.Token, error) {
	mark := l.save()
	start := l.pos

	l.readChar() // [
	nameStart := l.pos
	for isVariableChar(l.char) {
		l.readChar()
	}
	name := string(l.input[nameStart:l.pos])

	if name != "" {
		switch l.char {
		case ']':
			l.readChar()
			return token.Token{
				Type:    token.VARIABLE,
				Literal: string(l.input[start:l.pos]),
				Var:     &token.Variable{Name: name},
			}, nil
		case '{':
			return l.readDefaultValue(start, name)
		case '}':
			return token.Token{Type: token.ILLEGAL, Literal: string(l.input[start : l.pos+1])},
				lexicalError(l.position(), "variable %q is missing the opening curly bracket of its default value", name)
		}
	}

	l.restore(mark)
	l.readChar()
	return token.Token{Type: token.LBRACKET, Literal: "["}, nil
}

// readDefaultValue continues a variable scan from its `{`. Once here the
// reference is confirmed, so an unterminated default is a lexical error.
func (l *Lexer) readDefaultValue(start int, name string) (token.Token, error) {
	open := l.position()
	l.readChar() // {
	valueStart := l.pos

	end, ok := scanDefaultValue(l.input, valueStart)
	if !ok {
		return token.Token{Type: token.ILLEGAL, Literal: string(l.input[start:end])},
			lexicalError(open, "variable %q has an unbalanced curly bracket in its default value", name)
	}

	defaultValue := string(l.input[valueStart:end])
	for l.pos < end+2 { // }]
		l.readChar()
	}

	return token.Token{
		Type:    token.VARIABLE,
		Literal: string(l.input[start:l.pos]),
		Var:     &token.Variable{Name: name, Default: &defaultValue},
	}, nil
}

// readQuoted scans a single-quoted string. Backslash escapes any character.
// A string whose whole content is a well-formed variable reference becomes a
// VARIABLE token; every other string stays a STRING.
func (l *Lexer) readQuoted() token.Token {
	start := l.pos

	l.readChar() // opening quote
	for !l.eof() && l.char != '\'' {
		if l.char == '\\' {
			l.readChar()
			if l.eof() {
				break
			}
		}
		l.readChar()
	}

	if l.eof() {
		return token.Token{Type: token.ILLEGAL, Literal: string(l.input[start:l.pos])}
	}
	l.readChar() // closing quote

	text := string(l.input[start:l.pos])
	if v, ok := quotedVariable(l.input[start+1 : l.pos-1]); ok {
		return token.Token{Type: token.VARIABLE, Literal: text, Var: v}
	}

	return token.Token{Type: token.STRING, Literal: text}
}

// quotedVariable matches content against the variable grammar without ever
// failing: any mismatch means the caller keeps the text as a string.
func quotedVariable(content []rune) (*token.Variable, bool) {
	if len(content) < 3 || content[0] != '[' {
		return nil, false
	}

	i := 1
	for i < len(content) && isVariableChar(content[i]) {
		i++
	}
	if i == 1 || i >= len(content) {
		return nil, false
	}
	name := string(content[1:i])

	switch content[i] {
	case ']':
		if i+1 == len(content) {
			return &token.Variable{Name: name}, true
		}
	case '{':
		end, ok := scanDefaultValue(content, i+1)
		if ok && end+2 == len(content) {
			defaultValue := string(content[i+1 : end])
			return &token.Variable{Name: name, Default: &defaultValue}, true
		}
	}

	return nil, false
}

// scanDefaultValue looks for the `}` that closes a default value, starting at
// from. `\{` and `\}` are escape pairs and never close the value. The closing
// `}` must be directly followed by `]`. It returns the index of that `}`, or
// the index where scanning stopped and false.
func scanDefaultValue(input []rune, from int) (int, bool) {
	for i := from; i < len(input); i++ {
		c := input[i]
		if !isPrintable(c) {
			return i, false
		}
		if c == '\\' && i+1 < len(input) && (input[i+1] == '{' || input[i+1] == '}') {
			i++
			continue
		}
		if c == '}' && i+1 < len(input) && input[i+1] == ']' {
			return i, true
		}
	}
	return len(input), false
}

func (l *Lexer) readIdentifier() token.Token {
	pos := l.pos

	for isLetter(l.char) || isDigit(l.char) || l.char == '.' {
		l.readChar()
	}

	literal := string(l.input[pos:l.pos])

	return token.Token{Type: token.LookupIdent(literal), Literal: literal}
}

func (l *Lexer) readNumber() token.Token {
	pos := l.pos

	if l.char == '-' {
		l.readChar()
	}
	for isDigit(l.char) {
		l.readChar()
	}

	tokType := token.INT
	if l.char == '.' && isDigit(l.peekChar()) {
		tokType = token.DECIMAL
		l.readChar()
		for isDigit(l.char) {
			l.readChar()
		}
	}

	return token.Token{Type: tokType, Literal: string(l.input[pos:l.pos])}
}

func (l *Lexer) skipWhitespace() {
	for isWhitespace(l.char) {
		l.readChar()
	}
}

func lexicalError(pos token.Position, format string, args ...any) error {
	return fault.Newf(fault.LexicalCode, format, args...).
		WithMetadata(fault.PositionMetadata{Offset: pos.Offset, Line: pos.Line, Column: pos.Column})
}

func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isVariableChar(r rune) bool {
	return isLetter(r) || isDigit(r) || r == '.'
}

// isPrintable covers printable ASCII, space through tilde.
func isPrintable(r rune) bool {
	return r >= ' ' && r <= '~'
}
