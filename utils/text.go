package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	// areaRegexp captures the number right before an area unit marker.
	areaRegexp = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:м²|м2|мк)`)
	// roomsRegexp captures "N өрөө".
	roomsRegexp = regexp.MustCompile(`(\d+)\s*өрөө`)
	// numberRegexp captures the first decimal number.
	numberRegexp = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// NormaliseText strips leading/trailing whitespace and collapses internal whitespace.
func NormaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

// ExtractArea finds a floor area such as "45 мк" or "62.5 м²" in free text.
func ExtractArea(text string) (float64, bool) {
	m := areaRegexp.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	return parseDecimal(m[1])
}

// ExtractRooms finds a room count such as "3 өрөө" in free text.
func ExtractRooms(text string) (int, bool) {
	m := roomsRegexp.FindStringSubmatch(strings.ToLower(text))
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FirstNumber returns the first decimal number in s, accepting a comma as
// the decimal mark.
func FirstNumber(s string) (float64, bool) {
	match := numberRegexp.FindString(s)
	if match == "" {
		return 0, false
	}
	return parseDecimal(match)
}

func parseDecimal(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
