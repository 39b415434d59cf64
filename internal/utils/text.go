package utils

import "strings"

// emojiRanges covers the unicode blocks stripped from category and payee
// names before they are compared or written back to the ledger.
var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F300, 0x1F5FF}, // symbols & pictographs
	{0x1F680, 0x1F6FF}, // transport & map symbols
	{0x1F1E0, 0x1F1FF}, // flags
	{0x2500, 0x2BEF},
	{0x2702, 0x27B0},
	{0x24C2, 0x1F251},
	{0x1F926, 0x1F937},
	{0x10000, 0x10FFFF},
	{0x2640, 0x2642},
	{0x2600, 0x2B55},
	{0x200D, 0x200D},
	{0x23CF, 0x23CF},
	{0x23E9, 0x23E9},
	{0x231A, 0x231A},
	{0xFE0F, 0xFE0F},
	{0x3030, 0x3030},
}

// StripEmojis removes emoji runes from s and trims surrounding whitespace.
func StripEmojis(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !isEmoji(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func isEmoji(r rune) bool {
	for _, rng := range emojiRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}
