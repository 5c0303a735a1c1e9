package feedback

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxContentRunes caps a single feedback comment.
const MaxContentRunes = 1000

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

// ValidateItem checks a feedback item and normalises it in place. Returns
// true if the item is usable. Word indices are checked later by translation.
func ValidateItem(it *Item) bool {
	if it == nil {
		return false
	}
	content := strings.TrimSpace(it.Content)
	if content == "" || utf8.RuneCountInString(content) > MaxContentRunes {
		return false
	}
	if injectionPattern.MatchString(content) {
		return false
	}
	it.Content = content
	if strings.TrimSpace(it.Author) == "" {
		it.Author = "AI"
	}
	return true
}
