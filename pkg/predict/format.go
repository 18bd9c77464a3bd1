package predict

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// present applies the output format to a raw model value and returns the
// reported value and its display string.
func (o Output) present(raw float64) (float64, string) {
	p := message.NewPrinter(language.English)
	switch o.Kind {
	case OutputScore:
		v := math.Max(o.Min, math.Min(o.Max, raw))
		return v, p.Sprintf("%.2f", v)
	case OutputCurrency:
		return raw, o.Prefix + p.Sprintf("%.2f", raw)
	default:
		return raw, p.Sprintf("%.2f", raw)
	}
}
