package parser

import (
	"fmt"
	"regexp"
)

type TokenType string

const (
	TokenLParen     TokenType = "LPAREN"
	TokenRParen     TokenType = "RPAREN"
	TokenComma      TokenType = "COMMA"
	TokenDot        TokenType = "DOT"
	TokenOr         TokenType = "OR"
	TokenAnd        TokenType = "AND"
	TokenConcat     TokenType = "CONCAT"
	TokenEq         TokenType = "EQ"
	TokenNe         TokenType = "NE"
	TokenLte        TokenType = "LTE"
	TokenGte        TokenType = "GTE"
	TokenLt         TokenType = "LT"
	TokenGt         TokenType = "GT"
	TokenNot        TokenType = "NOT"
	TokenPlus       TokenType = "PLUS"
	TokenMinus      TokenType = "MINUS"
	TokenStar       TokenType = "STAR"
	TokenSlash      TokenType = "SLASH"
	TokenNumber     TokenType = "NUMBER"
	TokenString     TokenType = "STRING"
	TokenDateTime   TokenType = "DATETIME"
	TokenIdentifier TokenType = "IDENTIFIER"
	TokenBracketed  TokenType = "BRACKETED"
	TokenWhitespace TokenType = "WHITESPACE"
	TokenEOF        TokenType = "EOF"
)

type Token struct {
	Type     TokenType
	Value    string
	Position int
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Value)
}

type tokenPattern struct {
	Type    TokenType
	Pattern *regexp.Regexp
}

// Patterns are tried in order; longer operators precede their prefixes.
var patterns = []tokenPattern{
	{TokenWhitespace, regexp.MustCompile(`^\s+`)},
	{TokenLParen, regexp.MustCompile(`^\(`)},
	{TokenRParen, regexp.MustCompile(`^\)`)},
	{TokenComma, regexp.MustCompile(`^,`)},
	{TokenDot, regexp.MustCompile(`^\.`)},
	{TokenOr, regexp.MustCompile(`^\|\|`)},
	{TokenAnd, regexp.MustCompile(`^&&`)},
	{TokenConcat, regexp.MustCompile(`^&`)},
	{TokenEq, regexp.MustCompile(`^==?`)},
	{TokenNe, regexp.MustCompile(`^(?:!=|<>)`)},
	{TokenLte, regexp.MustCompile(`^<=`)},
	{TokenGte, regexp.MustCompile(`^>=`)},
	{TokenLt, regexp.MustCompile(`^<`)},
	{TokenGt, regexp.MustCompile(`^>`)},
	{TokenNot, regexp.MustCompile(`^!`)},
	{TokenPlus, regexp.MustCompile(`^\+`)},
	{TokenMinus, regexp.MustCompile(`^-`)},
	{TokenStar, regexp.MustCompile(`^\*`)},
	{TokenSlash, regexp.MustCompile(`^/`)},
	{TokenNumber, regexp.MustCompile(`^\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`)},
	{TokenString, regexp.MustCompile(`^(?:"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*')`)},
	{TokenDateTime, regexp.MustCompile(`^#[^#]*#`)},
	{TokenIdentifier, regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)},
	{TokenBracketed, regexp.MustCompile(`^\[(?:[^\]]|\]\])+\]`)},
}

type Lexer struct {
	text     string
	position int
	tokens   []Token
}

func NewLexer(text string) *Lexer {
	return &Lexer{text: text}
}

// Tokenize returns the tokens of the text, whitespace dropped, terminated by
// an EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.position < len(l.text) {
		remaining := l.text[l.position:]
		matched := false
		for _, pattern := range patterns {
			loc := pattern.Pattern.FindStringIndex(remaining)
			if loc == nil {
				continue
			}
			if pattern.Type != TokenWhitespace {
				l.tokens = append(l.tokens, Token{
					Type:     pattern.Type,
					Value:    remaining[:loc[1]],
					Position: l.position,
				})
			}
			l.position += loc[1]
			matched = true
			break
		}
		if !matched {
			return nil, l.unexpected(remaining)
		}
	}
	l.tokens = append(l.tokens, Token{Type: TokenEOF, Position: len(l.text)})
	return l.tokens, nil
}

func (l *Lexer) unexpected(remaining string) error {
	switch remaining[0] {
	case '"', '\'':
		return &ParseError{Message: "unterminated text literal", Offset: l.position}
	case '#':
		return &ParseError{Message: "unterminated date/time literal", Offset: l.position}
	case '[':
		return &ParseError{Message: "unterminated bracketed property name", Offset: l.position}
	}
	r := []rune(remaining)[0]
	return &ParseError{Message: fmt.Sprintf("unexpected character %q", r), Offset: l.position}
}
