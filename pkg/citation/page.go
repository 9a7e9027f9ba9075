package citation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/coolbeans/lexcite/pkg/grammar"
)

var (
	pageRe = regexp.MustCompile(`^` + grammar.PageNumberPattern + `$`)

	// pinPageRe finds the first page of a pin cite after an optional "at"
	// and label, as in "at 241", "*3", "pp. 12-13" or "n. 4".
	pinPageRe = regexp.MustCompile(`^,?\s*(?:at\s+)?(?:(?:&\s)?(?:note|nn?\.?|fn?\.?)\s?|¶{1,2}\s?|§{1,2}\s?|pg\.?\s?|pp?\.?\s?)?\*{0,4}(\d+|[ivxlc]+)\b`)

	placeholderRe = regexp.MustCompile(`^_+$`)
)

var romanValues = map[byte]int{'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100}

// ParsePage converts a page written as digits or as a lowercase Roman
// numeral between 1 and 199 to a number. The numerals "v", "l" and "c" on
// their own, uppercase numerals and underscore placeholders are rejected.
func ParsePage(s string) (int, bool) {
	if s == "" || IsPlaceholderPage(s) || !pageRe.MatchString(s) {
		return 0, false
	}
	if s[0] >= '0' && s[0] <= '9' {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return romanToInt(s), true
}

// IsPlaceholderPage reports whether s is an unassigned page such as "___".
func IsPlaceholderPage(s string) bool {
	return placeholderRe.MatchString(s)
}

func romanToInt(s string) int {
	total := 0
	for i := 0; i < len(s); i++ {
		v := romanValues[s[i]]
		if i+1 < len(s) && v < romanValues[s[i+1]] {
			total -= v
		} else {
			total += v
		}
	}
	return total
}

// PinPage returns the first page a pin cite points to.
func PinPage(pin string) (int, bool) {
	m := pinPageRe.FindStringSubmatch(strings.TrimSpace(pin))
	if m == nil {
		return 0, false
	}
	return ParsePage(m[1])
}

// ParseYear parses a four-digit year between 1600 and next year. Courts
// sometimes cite in December a decision to be published in January.
func ParseYear(s string) (int, bool) {
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	if year < 1600 || year > time.Now().Year()+1 {
		return 0, false
	}
	return year, true
}
