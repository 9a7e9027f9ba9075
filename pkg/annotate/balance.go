package annotate

import (
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`<[^>]+>`)

// voidElements never take a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// styleTags are the inline tags a span may be stretched to cover.
var styleTags = []string{"i", "em", "b"}

// styleTagTolerance is how far past a span's edge a matching style tag
// may start.
const styleTagTolerance = 5

// Balanced reports whether every element opened in s is closed in s and
// nothing is closed that was not opened. It scans brackets rather than
// parsing HTML: comments, declarations and void elements are ignored, and
// a '<' without a closing '>' is treated as text. Deliberately malformed
// markup can fool it.
func Balanced(s string) bool {
	var stack []string
	for i := 0; i < len(s); {
		lt := strings.IndexByte(s[i:], '<')
		if lt < 0 {
			break
		}
		i += lt
		if strings.HasPrefix(s[i:], "<!--") {
			end := strings.Index(s[i+4:], "-->")
			if end < 0 {
				break
			}
			i += 4 + end + 3
			continue
		}
		gt := strings.IndexByte(s[i:], '>')
		if gt < 0 {
			break
		}
		tag := s[i+1 : i+gt]
		i += gt + 1

		if tag == "" || tag[0] == '!' || tag[0] == '?' {
			continue
		}
		closing := tag[0] == '/'
		name := tagName(strings.TrimPrefix(tag, "/"))
		if name == "" || voidElements[name] {
			continue
		}
		if closing {
			if len(stack) == 0 || stack[len(stack)-1] != name {
				return false
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if strings.HasSuffix(tag, "/") {
			continue
		}
		stack = append(stack, name)
	}
	return len(stack) == 0
}

func tagName(tag string) string {
	end := strings.IndexFunc(tag, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '/'
	})
	if end < 0 {
		end = len(tag)
	}
	return strings.ToLower(tag[:end])
}

// balanceStyleTags stretches [start, end) over a style tag that is opened
// inside the span and closed just after it, or closed inside and opened
// just before it.
func balanceStyleTags(text string, start, end int) (int, int) {
	for _, tag := range styleTags {
		openTag, closeTag := "<"+tag+">", "</"+tag+">"
		span := text[start:end]
		hasOpen, hasClose := strings.Contains(span, openTag), strings.Contains(span, closeTag)
		switch {
		case hasOpen && !hasClose:
			limit := min(end+styleTagTolerance+len(closeTag), len(text))
			if i := strings.Index(text[end:limit], closeTag); i >= 0 {
				end += i + len(closeTag)
			}
		case hasClose && !hasOpen:
			from := max(start-styleTagTolerance-len(openTag), 0)
			if i := strings.LastIndex(text[from:start], openTag); i >= 0 {
				start = from + i
			}
		}
	}
	return start, end
}
