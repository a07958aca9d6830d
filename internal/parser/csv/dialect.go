package csv

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
)

// Dialect describes how a CSV file is laid out. Field names follow the CSVW
// dialect description; LazyQuotes is an extension for broken real-world
// files.
type Dialect struct {
	Delimiter        string `mapstructure:"delimiter"`
	QuoteChar        string `mapstructure:"quoteChar"`
	DoubleQuote      bool   `mapstructure:"doubleQuote"`
	Header           bool   `mapstructure:"header"`
	HeaderRowCount   int    `mapstructure:"headerRowCount"`
	SkipRows         int    `mapstructure:"skipRows"`
	SkipBlankRows    bool   `mapstructure:"skipBlankRows"`
	SkipInitialSpace bool   `mapstructure:"skipInitialSpace"`
	CommentPrefix    string `mapstructure:"commentPrefix"`
	// Trim is "true", "false", "start" or "end".
	Trim       string `mapstructure:"trim"`
	Encoding   string `mapstructure:"encoding"`
	LazyQuotes bool   `mapstructure:"lazyQuotes"`
}

// DefaultDialect returns the CSVW defaults.
func DefaultDialect() Dialect {
	return Dialect{
		Delimiter:      ",",
		QuoteChar:      `"`,
		DoubleQuote:    true,
		Header:         true,
		HeaderRowCount: 1,
		CommentPrefix:  "#",
		Trim:           "true",
		Encoding:       "utf-8",
	}
}

// DecodeDialect overlays the options bag on the defaults. Keys are the CSVW
// dialect property names; values may be JSON numbers, strings or booleans.
// The returned warnings describe settings that were adjusted.
func DecodeDialect(opts map[string]any) (Dialect, []string, error) {
	d := DefaultDialect()
	if len(opts) == 0 {
		return d, nil, nil
	}
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &d,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Metadata:         &md,
	})
	if err != nil {
		return d, nil, fmt.Errorf("dialect: %w", err)
	}
	if err := dec.Decode(opts); err != nil {
		return d, nil, fmt.Errorf("dialect: %w", err)
	}

	var warns []string
	for _, k := range md.Unused {
		warns = append(warns, fmt.Sprintf("dialect: ignored property %q", k))
	}
	if _, set := opts["headerRowCount"]; !set && !d.Header {
		d.HeaderRowCount = 0
	}
	switch strings.ToLower(d.Trim) {
	case "true", "1":
		d.Trim = "true"
	case "false", "0":
		d.Trim = "false"
	case "start", "end":
		d.Trim = strings.ToLower(d.Trim)
	default:
		warns = append(warns, fmt.Sprintf("dialect: invalid trim %q; using true", d.Trim))
		d.Trim = "true"
	}
	if utf8.RuneCountInString(d.Delimiter) != 1 {
		warns = append(warns, fmt.Sprintf("dialect: delimiter %q must be one character; using ','", d.Delimiter))
		d.Delimiter = ","
	}
	if d.QuoteChar != `"` {
		warns = append(warns, fmt.Sprintf("dialect: quote character %q is not supported; using '\"'", d.QuoteChar))
		d.QuoteChar = `"`
	}
	if !d.DoubleQuote {
		warns = append(warns, "dialect: only doubled quotes are supported as escapes")
		d.DoubleQuote = true
	}
	if d.HeaderRowCount < 0 || d.SkipRows < 0 {
		return d, warns, fmt.Errorf("dialect: negative headerRowCount or skipRows")
	}
	return d, warns, nil
}

func (d Dialect) comma() rune {
	r, _ := utf8.DecodeRuneInString(d.Delimiter)
	return r
}

func (d Dialect) trim(s string) string {
	switch d.Trim {
	case "true":
		return strings.TrimSpace(s)
	case "start":
		return strings.TrimLeft(s, " \t")
	case "end":
		return strings.TrimRight(s, " \t")
	}
	return s
}
