package loot

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ChatMarker prefixes every loot line in the chat log.
const ChatMarker = "You have obtained"

var clockRegex = regexp.MustCompile(`(\d{1,2}):(\d{1,2})`)

// Parse turns one recognized line into an Event. Lines that do not follow the
// grammar of mode yield ok == false; that is expected for most OCR output.
func Parse(mode Mode, line string) (Event, bool) {
	switch mode {
	case DropLog:
		return parseDropLog(line)
	default:
		return parseChatLog(line)
	}
}

// ParseAll parses every line and keeps the successful ones in input order.
func ParseAll(mode Mode, lines []string) []Event {
	events := make([]Event, 0, len(lines))
	for _, line := range lines {
		if ev, ok := Parse(mode, line); ok {
			events = append(events, ev)
		}
	}
	return events
}

// parseChatLog handles "You have obtained [Black Stone]x7. (16:08)".
func parseChatLog(line string) (Event, bool) {
	line = NormalizeSpaces(line)
	if !strings.HasPrefix(line, ChatMarker) {
		return Event{}, false
	}

	open := strings.IndexByte(line, '[')
	if open < 0 {
		return Event{}, false
	}
	rest := line[open+1:]
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return Event{}, false
	}
	name := TitleCase(rest[:end])
	if name == "" {
		return Event{}, false
	}

	tail := rest[end+1:]
	amountPart, clockPart := tail, ""
	if p := strings.IndexByte(tail, '('); p >= 0 {
		amountPart, clockPart = tail[:p], tail[p:]
	}

	amount := concatDigits(amountPart)
	if amount == 0 {
		amount = 1
	}
	hour, minute := parseClock(clockPart)

	return Event{Name: name, Amount: amount, Hour: hour, Minute: minute}, true
}

// parseDropLog handles "Swamp Leaves x 1" and "Silverx100".
func parseDropLog(line string) (Event, bool) {
	runes := []rune(line)
	sep := -1
	// index 0 can never be the separator: there would be no item name
	for i := len(runes) - 1; i > 0; i-- {
		if isSeparatorX(runes[i]) {
			sep = i
			break
		}
	}
	if sep < 0 {
		return Event{}, false
	}

	name := TitleCase(string(runes[:sep]))
	if name == "" {
		return Event{}, false
	}
	amount, ok := firstNumber(string(runes[sep+1:]))
	if !ok || amount == 0 {
		return Event{}, false
	}
	return Event{Name: name, Amount: amount}, true
}

func isSeparatorX(r rune) bool {
	return norm.NFD.String(strings.ToLower(string(r))) == "x"
}

// NormalizeSpaces trims the line and collapses whitespace runs to one space.
func NormalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TitleCase upper-cases the first letter of each whitespace separated word
// and lower-cases the rest.
func TitleCase(s string) string {
	words := strings.Fields(s)
	lower := cases.Lower(language.Und)
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + lower.String(w[size:])
	}
	return strings.Join(words, " ")
}

// concatDigits reads every decimal digit in s as one number, so OCR noise
// such as "x1,000." still yields 1000. Saturates instead of overflowing.
func concatDigits(s string) uint64 {
	var n uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		d := uint64(r - '0')
		if n > (math.MaxUint64-d)/10 {
			return math.MaxUint64
		}
		n = n*10 + d
	}
	return n
}

// firstNumber returns the first run of decimal digits in s.
func firstNumber(s string) (uint64, bool) {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return 0, false
	}
	end := strings.IndexFunc(s[start:], func(r rune) bool { return !isDigit(r) })
	if end < 0 {
		end = len(s) - start
	}
	n, err := strconv.ParseUint(s[start:start+end], 10, 64)
	if err != nil {
		return math.MaxUint64, true
	}
	return n, true
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// parseClock finds the first HH:MM run. Out of range values read as 00:00.
func parseClock(s string) (uint8, uint8) {
	m := clockRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, 0
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0
	}
	return uint8(hour), uint8(minute)
}
