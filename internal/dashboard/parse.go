package dashboard

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/finboard/finboard/internal/animation"
)

// ParsePercentage reads the leading integer of text such as "42%" or " 7 ".
// Anything unparseable yields 0; the result is clamped to [0,100].
func ParsePercentage(text string) int {
	s := strings.TrimSpace(text)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	v := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		if v <= 100 {
			v = v*10 + int(c-'0')
		}
	}
	if neg {
		v = -v
	}
	return animation.ClampPercent(v)
}

// FormatPercent renders a display value the way widgets show it.
func FormatPercent(v int) string {
	return strconv.Itoa(v) + "%"
}

// WidgetID derives a stable identifier from a widget label, e.g.
// "Faturamento Serviço" becomes "faturamento-servico".
func WidgetID(label string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, label)
	if err != nil {
		folded = label
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
