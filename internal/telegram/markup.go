package telegram

import (
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/gotd/td/tg"
)

// Chat replies use *bold* and `code` markers. Telegram wants plain text plus
// entities measured in UTF-16 code units.
var markupRegex = regexp.MustCompile("\\*([^*\\n]+)\\*|`([^`]+)`")

func ParseMarkup(text string) (string, []tg.MessageEntityClass) {
	var (
		clean    strings.Builder
		entities []tg.MessageEntityClass
		offset   int
		lastIdx  int
	)

	for _, m := range markupRegex.FindAllStringSubmatchIndex(text, -1) {
		pre := text[lastIdx:m[0]]
		clean.WriteString(pre)
		offset += utf16Len(pre)

		var content string
		var ent tg.MessageEntityClass
		if m[2] != -1 {
			content = text[m[2]:m[3]]
			ent = &tg.MessageEntityBold{Offset: offset, Length: utf16Len(content)}
		} else {
			content = text[m[4]:m[5]]
			ent = &tg.MessageEntityCode{Offset: offset, Length: utf16Len(content)}
		}

		clean.WriteString(content)
		offset += utf16Len(content)
		entities = append(entities, ent)
		lastIdx = m[1]
	}
	clean.WriteString(text[lastIdx:])
	return clean.String(), entities
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}
