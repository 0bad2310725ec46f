package bot

import "strings"

// The accepted reaction alphabet: keycap digits one through nine, the ten
// keycap, and 💯 as a second glyph for a perfect score. Keys are stored
// without the U+FE0F variation selector because Discord clients are
// inconsistent about including it in reaction payloads.
var emojiValues = map[string]int{
	"1⃣": 1,
	"2⃣": 2,
	"3⃣": 3,
	"4⃣": 4,
	"5⃣": 5,
	"6⃣": 6,
	"7⃣": 7,
	"8⃣": 8,
	"9⃣": 9,
	"🔟":       10,
	"💯":       10,
}

// seedEmojis are pre-added to every posted movie message, in display order,
// so voters can tap instead of hunting the picker.
var seedEmojis = []string{
	"1️⃣", "2️⃣", "3️⃣",
	"4️⃣", "5️⃣", "6️⃣",
	"7️⃣", "8️⃣", "9️⃣",
	"🔟",
}

// emojiValue maps a reaction emoji to its rating value. The second return
// is false for anything outside the alphabet.
func emojiValue(name string) (int, bool) {
	v, ok := emojiValues[strings.ReplaceAll(name, "️", "")]
	return v, ok
}
