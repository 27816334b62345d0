package engine

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	identifierCode
	dotCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	identifierToken = parsly.NewToken(identifierCode, "Identifier", newIdentifierMatcher())
	dotToken        = parsly.NewToken(dotCode, ".", matcher.NewByte('.'))
)

func newIdentifierMatcher() parsly.Matcher {
	return &identifierMatcher{}
}

// identifierMatcher matches task, context-variable and field names:
// a letter or underscore followed by letters, digits, underscores or dashes.
type identifierMatcher struct{}

func (m *identifierMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	if !isLetter(input[pos]) && input[pos] != '_' {
		return 0
	}
	matched := 1
	for i := pos + 1; i < size; i++ {
		if isLetter(input[i]) || isDigit(input[i]) || input[i] == '_' || input[i] == '-' {
			matched++
			continue
		}
		break
	}
	return matched
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
