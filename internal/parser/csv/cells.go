package csv

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theodi/csv2rdf/internal/schema"
	"github.com/theodi/csv2rdf/internal/transformer"
)

// parseFunc turns one trimmed, non-null cell string into a typed value. ok
// is false when the text is not valid for the datatype.
type parseFunc func(s string) (v any, ok bool)

// cellPlan is the per-column parsing strategy, compiled once per table so
// the row loop does no datatype lookups.
type cellPlan struct {
	col      *schema.Column
	kind     string // error suffix: local name of the base datatype
	parse    parseFunc
	null     map[string]struct{}
	required bool
}

func compilePlan(col *schema.Column) *cellPlan {
	_, base := col.Datatype.Resolve()
	p := &cellPlan{
		col:      col,
		kind:     localName(base),
		required: col.Required,
		null:     make(map[string]struct{}, len(col.Null)),
	}
	for _, n := range col.Null {
		p.null[n] = struct{}{}
	}
	if len(col.Null) == 0 {
		p.null[""] = struct{}{}
	}
	p.parse = compileParser(base, col.Datatype)
	return p
}

func localName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}

// integer bounds per derived integer type; nil means unbounded.
type bounds struct{ min, max *int64 }

func i64(v int64) *int64 { return &v }

var integerBounds = map[string]bounds{
	schema.NSXSD + "integer":            {},
	schema.NSXSD + "long":               {i64(math.MinInt64), i64(math.MaxInt64)},
	schema.NSXSD + "int":                {i64(math.MinInt32), i64(math.MaxInt32)},
	schema.NSXSD + "short":              {i64(math.MinInt16), i64(math.MaxInt16)},
	schema.NSXSD + "byte":               {i64(math.MinInt8), i64(math.MaxInt8)},
	schema.NSXSD + "nonNegativeInteger": {min: i64(0)},
	schema.NSXSD + "positiveInteger":    {min: i64(1)},
	schema.NSXSD + "unsignedLong":       {min: i64(0)},
	schema.NSXSD + "unsignedInt":        {i64(0), i64(math.MaxUint32)},
	schema.NSXSD + "unsignedShort":      {i64(0), i64(math.MaxUint16)},
	schema.NSXSD + "unsignedByte":       {i64(0), i64(math.MaxUint8)},
	schema.NSXSD + "nonPositiveInteger": {max: i64(0)},
	schema.NSXSD + "negativeInteger":    {max: i64(-1)},
}

var (
	doubleRe  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	decimalRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	integerRe = regexp.MustCompile(`^[+-]?\d+$`)
)

func compileParser(base string, dt schema.Datatype) parseFunc {
	numeric := numericCleaner(dt)

	if b, ok := integerBounds[base]; ok {
		return func(s string) (any, bool) {
			s = numeric(s)
			if !integerRe.MatchString(s) {
				return nil, false
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				if (b.min != nil && n < *b.min) || (b.max != nil && n > *b.max) {
					return nil, false
				}
				return n, true
			}
			// Out of int64 range: only unbounded directions are valid.
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, false
			}
			if (d.Sign() > 0 && b.max != nil) || (d.Sign() < 0 && b.min != nil) {
				return nil, false
			}
			return d, true
		}
	}

	switch base {
	case schema.NSXSD + "decimal":
		return func(s string) (any, bool) {
			s = numeric(s)
			if !decimalRe.MatchString(s) {
				return nil, false
			}
			d, err := decimal.NewFromString(s)
			return d, err == nil
		}

	case schema.NSXSD + "double", schema.NSXSD + "float":
		return func(s string) (any, bool) {
			switch s {
			case "NaN":
				return math.NaN(), true
			case "INF", "+INF":
				return math.Inf(1), true
			case "-INF":
				return math.Inf(-1), true
			}
			s = numeric(s)
			if !doubleRe.MatchString(s) {
				return nil, false
			}
			f, err := strconv.ParseFloat(s, 64)
			return f, err == nil
		}

	case schema.NSXSD + "boolean":
		yes, no := []string{"true", "1"}, []string{"false", "0"}
		if t, f, ok := strings.Cut(dt.Format, "|"); ok {
			yes, no = []string{t}, []string{f}
		}
		return func(s string) (any, bool) {
			for _, y := range yes {
				if s == y {
					return true, true
				}
			}
			for _, n := range no {
				if s == n {
					return false, true
				}
			}
			return nil, false
		}
	}

	if layouts, ok := temporalLayouts[base]; ok {
		return temporalParser(base, dt.Format, layouts)
	}

	if dt.Format != "" && (base == schema.XSDString || base == schema.NSXSD+"anyURI" || base == schema.NSXSD+"token") {
		re, err := regexp.Compile("^(?:" + dt.Format + ")$")
		if err == nil {
			return func(s string) (any, bool) { return s, re.MatchString(s) }
		}
	}
	return func(s string) (any, bool) { return s, true }
}

// numericCleaner strips group characters and normalizes the decimal mark.
func numericCleaner(dt schema.Datatype) func(string) string {
	group, dec := dt.GroupChar, dt.DecimalChar
	if group == "" && (dec == "" || dec == ".") {
		return func(s string) string { return s }
	}
	return func(s string) string {
		if group != "" {
			s = strings.ReplaceAll(s, group, "")
		}
		if dec != "" && dec != "." {
			s = strings.ReplaceAll(s, dec, ".")
		}
		return s
	}
}

// temporalLayouts are the accepted XSD lexical layouts per base, the first
// one being the canonical output layout.
var temporalLayouts = map[string][]string{
	schema.NSXSD + "date":          {"2006-01-02", "2006-01-02Z07:00"},
	schema.NSXSD + "dateTime":      {"2006-01-02T15:04:05", "2006-01-02T15:04:05Z07:00"},
	schema.NSXSD + "dateTimeStamp": {"2006-01-02T15:04:05Z07:00"},
	schema.NSXSD + "time":          {"15:04:05", "15:04:05Z07:00"},
	schema.NSXSD + "gYear":         {"2006", "2006Z07:00"},
	schema.NSXSD + "gYearMonth":    {"2006-01", "2006-01Z07:00"},
	schema.NSXSD + "gMonth":        {"--01", "--01Z07:00"},
	schema.NSXSD + "gMonthDay":     {"--01-02", "--01-02Z07:00"},
	schema.NSXSD + "gDay":          {"---02", "---02Z07:00"},
}

func temporalParser(base, format string, layouts []string) parseFunc {
	if format != "" {
		layout, zoned := patternToLayout(format)
		out := layouts[0]
		if zoned && len(layouts) > 1 {
			out = layouts[1]
		}
		return func(s string) (any, bool) {
			t, err := time.Parse(layout, s)
			if err != nil {
				return nil, false
			}
			return transformer.Temporal{Lexical: t.Format(out), Time: t}, true
		}
	}
	return func(s string) (any, bool) {
		for _, l := range layouts {
			if t, err := time.Parse(l, s); err == nil {
				return transformer.Temporal{Lexical: s, Time: t}, true
			}
		}
		return nil, false
	}
}

// patternToLayout converts a CSVW (Unicode TR35) date pattern such as
// "dd/MM/yyyy HH:mm" to a Go layout. zoned reports a time zone field.
func patternToLayout(p string) (layout string, zoned bool) {
	var b strings.Builder
	for i := 0; i < len(p); {
		c := p[i]
		if c == '\'' {
			end := strings.IndexByte(p[i+1:], '\'')
			if end < 0 {
				b.WriteString(p[i+1:])
				break
			}
			b.WriteString(p[i+1 : i+1+end])
			i += end + 2
			continue
		}
		j := i
		for j < len(p) && p[j] == c {
			j++
		}
		n := j - i
		switch c {
		case 'y':
			if n == 2 {
				b.WriteString("06")
			} else {
				b.WriteString("2006")
			}
		case 'M':
			if n == 1 {
				b.WriteString("1")
			} else {
				b.WriteString("01")
			}
		case 'd':
			if n == 1 {
				b.WriteString("2")
			} else {
				b.WriteString("02")
			}
		case 'H':
			b.WriteString("15")
		case 'h':
			if n == 1 {
				b.WriteString("3")
			} else {
				b.WriteString("03")
			}
		case 'm':
			if n == 1 {
				b.WriteString("4")
			} else {
				b.WriteString("04")
			}
		case 's':
			if n == 1 {
				b.WriteString("5")
			} else {
				b.WriteString("05")
			}
		case 'S':
			b.WriteString(strings.Repeat("0", n))
		case 'a':
			b.WriteString("PM")
		case 'X', 'x':
			zoned = true
			switch n {
			case 1:
				b.WriteString("Z07")
			case 2:
				b.WriteString("Z0700")
			default:
				b.WriteString("Z07:00")
			}
		default:
			b.WriteString(p[i:j])
		}
		i = j
	}
	return b.String(), zoned
}
