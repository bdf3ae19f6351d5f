package parser

import (
	"strings"
	"unicode"

	"github.com/matzehuels/nodify/pkg/errors"
)

type kind int

const (
	kindEOF kind = iota
	kindNumber
	kindName
	kindOp
)

type token struct {
	kind kind
	text string
	pos  int
}

// operators lists punctuation, longest first.
var operators = []string{"**", "=", "+", "-", "*", "/", "%", "(", ")", "[", "]", "{", "}", "$", ",", ";"}

// lex splits a line into tokens. A '#' starts a comment running to the end
// of the line.
func lex(line string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(line) {
		c := rune(line[i])
		switch {
		case c == '#':
			i = len(line)
		case unicode.IsSpace(c):
			i++
		case isDigit(c) || (c == '.' && i+1 < len(line) && isDigit(rune(line[i+1]))):
			start := i
			i = scanNumber(line, i)
			toks = append(toks, token{kind: kindNumber, text: line[start:i], pos: start})
		case c == '_' || unicode.IsLetter(c):
			start := i
			for i < len(line) && isNameChar(rune(line[i])) {
				i++
			}
			toks = append(toks, token{kind: kindName, text: line[start:i], pos: start})
		default:
			op := ""
			for _, o := range operators {
				if strings.HasPrefix(line[i:], o) {
					op = o
					break
				}
			}
			if op == "" {
				return nil, errors.Syntax("unexpected character %q at column %d", c, i+1)
			}
			toks = append(toks, token{kind: kindOp, text: op, pos: i})
			i += len(op)
		}
	}
	return append(toks, token{kind: kindEOF, pos: len(line)}), nil
}

func scanNumber(s string, i int) int {
	for i < len(s) && isDigit(rune(s[i])) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(rune(s[i])) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(rune(s[j])) {
			i = j
			for i < len(s) && isDigit(rune(s[i])) {
				i++
			}
		}
	}
	return i
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isNameChar(c rune) bool {
	return c == '_' || c == '.' || unicode.IsLetter(c) || unicode.IsDigit(c)
}
