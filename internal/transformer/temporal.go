package transformer

import (
	"time"
)

// Temporal is a parsed date/time cell. Lexical is the text as written in
// the CSV; it is what ends up in the literal.
type Temporal struct {
	Lexical string
	Time    time.Time
}

func (t Temporal) String() string { return t.Lexical }

// temporalLayouts give the XSD lexical form for a time.Time when the value
// did not come from a CSV cell.
var temporalLayouts = map[string]string{
	xsdNS + "date":          "2006-01-02",
	xsdNS + "dateTime":      "2006-01-02T15:04:05.999999999Z07:00",
	xsdNS + "dateTimeStamp": "2006-01-02T15:04:05.999999999Z07:00",
	xsdNS + "time":          "15:04:05.999999999",
	xsdNS + "gYear":         "2006",
	xsdNS + "gYearMonth":    "2006-01",
	xsdNS + "gMonth":        "--01",
	xsdNS + "gMonthDay":     "--01-02",
	xsdNS + "gDay":          "---02",
}

func temporalLexical(v any, base string) string {
	switch t := v.(type) {
	case Temporal:
		return t.Lexical
	case time.Time:
		if layout, ok := temporalLayouts[base]; ok {
			return t.Format(layout)
		}
		return t.Format(time.RFC3339Nano)
	case string:
		return t
	}
	return stringOf(v)
}
