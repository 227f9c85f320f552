// Package truncate bounds document text to a character budget.
package truncate

import "unicode/utf8"

// Marker is inserted where a document's middle was dropped.
const Marker = "\n\n[... truncated ...]\n\n"

// Middle bounds content to maxChars by keeping the head and the tail
// and dropping the middle. Framing context at both ends matters more
// for synthesis than the bulk in between, and bounding length here
// bounds later embedding cost. Cuts land on rune boundaries so the
// result stays valid UTF-8. Returns the content and whether it was
// truncated. A maxChars of zero or less disables truncation.
func Middle(content string, maxChars int) (string, bool) {
	if maxChars <= 0 || len(content) <= maxChars {
		return content, false
	}

	budget := maxChars - len(Marker)
	if budget < 2 {
		return content[:runeFloor(content, maxChars)], true
	}

	// Head gets two thirds, tail one third.
	head := runeFloor(content, budget*2/3)
	tailStart := runeCeil(content, len(content)-(budget-head))
	return content[:head] + Marker + content[tailStart:], true
}

// runeFloor backs i off to the nearest rune start at or before it.
func runeFloor(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// runeCeil advances i to the nearest rune start at or after it.
func runeCeil(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}
