package services

import (
	"strings"
	"unicode/utf8"

	"unegui-scraper/utils"
)

// cityPrefixes are stripped from the front of a location before lookup,
// repeatedly, so "Улаанбаатар хот, ..." loses both tokens.
var cityPrefixes = []string{"Улаанбаатар", "Ulaanbaatar", "УБ", "UB", "хот", "hot"}

const districtSuffix = " дүүрэг"

// districtAliases maps a normalised key (lower case, no spaces or hyphens)
// to the canonical Ulaanbaatar district name.
var districtAliases = map[string]string{
	"баянгол": "Баянгол", "бгд": "Баянгол", "bayangol": "Баянгол",

	"баянзүрх": "Баянзүрх", "баянзурх": "Баянзүрх", "бзд": "Баянзүрх",
	"bayanzurkh": "Баянзүрх", "bayanzurh": "Баянзүрх",

	"сонгинохайрхан": "Сонгинохайрхан", "схд": "Сонгинохайрхан",
	"songinokhairkhan": "Сонгинохайрхан", "songinohairhan": "Сонгинохайрхан",

	"сүхбаатар": "Сүхбаатар", "сухбаатар": "Сүхбаатар", "сбд": "Сүхбаатар",
	"sukhbaatar": "Сүхбаатар", "suhbaatar": "Сүхбаатар",

	"хануул": "Хан-Уул", "худ": "Хан-Уул", "khanuul": "Хан-Уул", "hanuul": "Хан-Уул",

	"чингэлтэй": "Чингэлтэй", "чд": "Чингэлтэй", "chingeltei": "Чингэлтэй",

	"налайх": "Налайх", "nalaikh": "Налайх", "nalaih": "Налайх",

	"багануур": "Багануур", "baganuur": "Багануур",

	"багахангай": "Багахангай", "bagakhangai": "Багахангай", "bagahangai": "Багахангай",
}

// CanonicalDistrict normalises a raw district string: the city prefix and
// the trailing "дүүрэг" are removed, then known spellings map to one
// canonical name. Unknown values are returned trimmed. When a comma part is
// only the city ("Улаанбаатар хот, Баянгол"), the next part is used.
func CanonicalDistrict(raw string) string {
	for _, part := range strings.Split(raw, ",") {
		if d := canonicalPart(part); d != "" {
			return d
		}
	}
	return ""
}

func canonicalPart(raw string) string {
	s := stripCityPrefix(utils.NormaliseText(raw))
	if head, tail := splitRunes(s, utf8.RuneCountInString(s)-utf8.RuneCountInString(districtSuffix)); strings.EqualFold(tail, districtSuffix) {
		s = strings.TrimSpace(head)
	}

	if canon, ok := districtAliases[aliasKey(s)]; ok {
		return canon
	}
	return s
}

func stripCityPrefix(s string) string {
	for {
		rest, ok := trimCityToken(s)
		if !ok {
			return s
		}
		s = rest
	}
}

func trimCityToken(s string) (string, bool) {
	for _, p := range cityPrefixes {
		head, rest := splitRunes(s, utf8.RuneCountInString(p))
		if !strings.EqualFold(head, p) {
			continue
		}
		// The prefix must end at a separator so "Убс" or "Хотол" survive.
		if r, _ := utf8.DecodeRuneInString(rest); rest != "" && !isSeparator(r) {
			continue
		}
		return strings.TrimLeftFunc(rest, isSeparator), true
	}
	return s, false
}

// splitRunes cuts s after its first n runes.
func splitRunes(s string, n int) (string, string) {
	if n <= 0 {
		return "", s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', ',', '-', '—', '–', ':', '/', '.', '|':
		return true
	}
	return false
}

func aliasKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '—', '–':
			return -1
		}
		return r
	}, strings.ToLower(s))
}
