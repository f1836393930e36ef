package reply

import "testing"

func TestFormatResponse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		max  int
		want string
	}{
		{"plain", "sounds good", 0, "sounds good"},
		{"trims", "  ok then \n", 0, "ok then"},
		{"first line", "\n\nfirst\nsecond", 0, "first"},
		{"double quotes", `"hello there"`, 0, "hello there"},
		{"cjk quotes", "「今天真热」", 0, "今天真热"},
		{"curly quotes", "“nice”", 0, "nice"},
		{"trailing period", "see you later.", 0, "see you later"},
		{"trailing cjk period", "好的。", 0, "好的"},
		{"label", "Reply: \"all good\"", 0, "all good"},
		{"cjk label", "回复：加油", 0, "加油"},
		{"truncate runes", "一二三四五六", 4, "一二三四"},
		{"empty", "   \n  ", 0, ""},
		{"only quotes", `""`, 0, ""},
		{"quoted then period", "\"好的\"。", 0, "好的"},
		{"ascii quoted then period", `"See you soon".`, 0, "See you soon"},
		{"cjk quoted then period", "「好的」。", 0, "好的"},
		{"period inside and outside", "“fine.”.", 0, "fine"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := FormatResponse(c.raw, c.max); got != c.want {
				t.Fatalf("FormatResponse(%q) = %q, want %q", c.raw, got, c.want)
			}
		})
	}
}
