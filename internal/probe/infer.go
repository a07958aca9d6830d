package probe

import (
	"bytes"
	"encoding/csv"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	csvparser "github.com/theodi/csv2rdf/internal/parser/csv"
)

// maxSampleRows caps how many data rows feed inference.
const maxSampleRows = 50000

// readSample parses data with delim and returns the header plus up to
// maxSampleRows data rows. Malformed and misaligned rows are skipped so
// inference sees only rows that line up with the header.
func readSample(data []byte, delim rune) ([]string, [][]string) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var headers []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil || len(rec) == 0 {
			continue
		}
		headers = csvparser.StripHeaderBOM(rec)
		break
	}

	var rows [][]string
	for len(rows) < maxSampleRows {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(rec) != len(headers) {
			continue
		}
		rows = append(rows, rec)
	}
	return headers, rows
}

// candidateDelimiters are tried in order when no delimiter is given.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// sniffDelimiter picks the candidate that splits the first lines into the
// same number of fields, preferring more fields. Comma wins ties.
func sniffDelimiter(data []byte) rune {
	best, bestFields := ',', 1
	for _, d := range candidateDelimiters {
		r := csv.NewReader(bytes.NewReader(data))
		r.Comma = d
		r.LazyQuotes = true
		r.FieldsPerRecord = -1

		width, consistent := 0, true
		for i := 0; i < 10; i++ {
			rec, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				consistent = false
				break
			}
			if width == 0 {
				width = len(rec)
			} else if len(rec) != width {
				consistent = false
				break
			}
		}
		if consistent && width > bestFields {
			best, bestFields = d, width
		}
	}
	return best
}

// Column is what the probe learned about one column.
type Column struct {
	// Title is the header cell as read.
	Title string
	// Name is Title reduced to a lowercase ASCII identifier, unique within
	// the table.
	Name string
	// Datatype is a CSVW built-in datatype name such as "integer" or "date".
	Datatype string
	// Format is a CSVW format for Datatype, empty when the default lexical
	// form applies.
	Format string
	// Required is set when every sampled value is non-empty.
	Required bool
}

func inferColumns(headers []string, rows [][]string) []Column {
	cols := make([]Column, len(headers))
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		values := make([]string, 0, len(rows))
		for _, r := range rows {
			values = append(values, r[i])
		}
		name := normalizeFieldName(h)
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = name + "_" + strconv.Itoa(n+1)
		} else {
			seen[name] = 1
		}
		dt, format := inferColumn(values)
		cols[i] = Column{
			Title:    h,
			Name:     name,
			Datatype: dt,
			Format:   format,
			Required: len(rows) > 0 && allNonEmpty(values),
		}
	}
	return cols
}

// inferColumn narrows a column to the most specific datatype every
// non-empty value satisfies: integer, boolean, decimal, double, date,
// datetime, then string.
func inferColumn(values []string) (datatype, format string) {
	vals := nonEmptyTrimmed(values)
	if len(vals) == 0 {
		return "string", ""
	}
	if allMatch(vals, isInt) {
		return "integer", ""
	}
	if f := booleanFormat(vals); f != "" {
		if f == "true|false" {
			f = ""
		}
		return "boolean", f
	}
	if allMatch(vals, isDecimal) {
		return "decimal", ""
	}
	if allMatch(vals, isDouble) {
		return "double", ""
	}
	if l := selectBestLayout(vals, datetimeLayouts, datetimePreference); l != "" && allParse(vals, l) {
		return "datetime", layoutPatterns[l]
	}
	if l := selectBestLayout(vals, dateLayouts, datePreference); l != "" && allParse(vals, l) {
		return "date", layoutPatterns[l]
	}
	return "string", ""
}

func nonEmptyTrimmed(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func allNonEmpty(vals []string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

func allParse(vals []string, layout string) bool {
	return allMatch(vals, func(s string) bool {
		_, err := time.Parse(layout, s)
		return err == nil
	})
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

var (
	decimalRe = regexp.MustCompile(`^[+-]?(\d+\.\d*|\.\d+)$`)
	doubleRe  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

func isDecimal(s string) bool { return decimalRe.MatchString(s) || isInt(s) }

func isDouble(s string) bool {
	switch s {
	case "NaN", "INF", "-INF":
		return true
	}
	return doubleRe.MatchString(s)
}

// booleanPairs are the true|false vocabularies a boolean column may use.
// 1/0 is absent: such columns read as integers.
var booleanPairs = [][2]string{
	{"true", "false"},
	{"yes", "no"},
	{"Yes", "No"},
	{"Y", "N"},
	{"T", "F"},
}

// booleanFormat returns the "true|false" format whose two values cover
// every sample, or "".
func booleanFormat(vals []string) string {
	for _, p := range booleanPairs {
		if allMatch(vals, func(s string) bool { return s == p[0] || s == p[1] }) {
			return p[0] + "|" + p[1]
		}
	}
	return ""
}

// dateLayouts are the date formats tried, with their CSVW patterns in
// layoutPatterns.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"01.02.2006",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"20060102",
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
}

var layoutPatterns = map[string]string{
	"2006-01-02":          "",
	"02.01.2006":          "dd.MM.yyyy",
	"01.02.2006":          "MM.dd.yyyy",
	"02/01/2006":          "dd/MM/yyyy",
	"01/02/2006":          "MM/dd/yyyy",
	"2006/01/02":          "yyyy/MM/dd",
	"20060102":            "yyyyMMdd",
	time.RFC3339Nano:      "",
	"2006-01-02T15:04:05": "",
	"2006-01-02 15:04:05": "yyyy-MM-dd HH:mm:ss",
	"2006/01/02 15:04:05": "yyyy/MM/dd HH:mm:ss",
	"02/01/2006 15:04:05": "dd/MM/yyyy HH:mm:ss",
	"01/02/2006 15:04:05": "MM/dd/yyyy HH:mm:ss",
}

// datePreference breaks ties between layouts matching the same number of
// samples: day-first over ISO over month-first.
func datePreference(layout string) int {
	switch layout {
	case "02.01.2006", "02/01/2006":
		return 3
	case "2006-01-02", "2006/01/02", "20060102":
		return 2
	}
	return 1
}

func datetimePreference(layout string) int {
	switch layout {
	case time.RFC3339Nano:
		return 3
	case "2006-01-02T15:04:05":
		return 2
	}
	return 1
}

// selectBestLayout scores each layout by how many samples it parses and
// returns the highest scorer; ties go to pref, then to declaration order.
// It returns "" when no layout parses any sample.
func selectBestLayout(samples, layouts []string, pref func(string) int) string {
	bestIdx, bestScore, bestPref := -1, 0, -1
	for i, lay := range layouts {
		score := 0
		for _, s := range samples {
			if _, err := time.Parse(lay, s); err == nil {
				score++
			}
		}
		if score == 0 || score < bestScore {
			continue
		}
		if p := pref(lay); score > bestScore || p > bestPref {
			bestIdx, bestScore, bestPref = i, score, p
		}
	}
	if bestIdx < 0 {
		return ""
	}
	return layouts[bestIdx]
}

// normalizeFieldName reduces header text to a lowercase ASCII identifier:
// accents are stripped, runs of space, dash, dot or underscore become one
// underscore, and anything else is dropped. Empty results become "col".
func normalizeFieldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, _ := transform.String(t, strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	if name := strings.Trim(b.String(), "_"); name != "" {
		return name
	}
	return "col"
}
