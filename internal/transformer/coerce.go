package transformer

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theodi/csv2rdf/internal/rdf"
)

const xsdNS = rdf.NSXSD

var numericTypes = map[string]bool{
	xsdNS + "decimal":            true,
	xsdNS + "integer":            true,
	xsdNS + "long":               true,
	xsdNS + "int":                true,
	xsdNS + "short":              true,
	xsdNS + "byte":               true,
	xsdNS + "nonNegativeInteger": true,
	xsdNS + "positiveInteger":    true,
	xsdNS + "unsignedLong":       true,
	xsdNS + "unsignedInt":        true,
	xsdNS + "unsignedShort":      true,
	xsdNS + "unsignedByte":       true,
	xsdNS + "nonPositiveInteger": true,
	xsdNS + "negativeInteger":    true,
	xsdNS + "double":             true,
	xsdNS + "float":              true,
}

var datetimeTypes = map[string]bool{
	xsdNS + "date":          true,
	xsdNS + "dateTime":      true,
	xsdNS + "dateTimeStamp": true,
	xsdNS + "time":          true,
	xsdNS + "gYear":         true,
	xsdNS + "gYearMonth":    true,
	xsdNS + "gMonth":        true,
	xsdNS + "gMonthDay":     true,
	xsdNS + "gDay":          true,
}

const (
	xsdString  = xsdNS + "string"
	xsdBoolean = xsdNS + "boolean"
	xsdDecimal = xsdNS + "decimal"
	xsdDouble  = xsdNS + "double"
	xsdFloat   = xsdNS + "float"
)

// IsNumeric reports whether base is one of the numeric XSD datatypes.
func IsNumeric(base string) bool { return numericTypes[base] }

// IsTemporal reports whether base is one of the date/time XSD datatypes.
func IsTemporal(base string) bool { return datetimeTypes[base] }

// Coerce maps one typed cell value onto an RDF term. datatypeID is the
// column's datatype (possibly derived), baseType the built-in it derives
// from and lang the column language ("und" for none).
func Coerce(value any, datatypeID, baseType, lang string) rdf.Term {
	dt := rdf.IRI{Value: datatypeID}

	switch v := value.(type) {
	case Invalid:
		return rdf.NewLiteral(v.Raw)
	case float64:
		return coerceFloat(v, dt, baseType)
	case float32:
		return coerceFloat(float64(v), dt, baseType)
	}

	switch {
	case numericTypes[baseType]:
		return rdf.NewTypedLiteral(numericLexical(value, baseType), dt)
	case baseType == xsdBoolean:
		if b, ok := value.(bool); ok {
			return rdf.NewBoolean(b)
		}
		return rdf.NewTypedLiteral(stringOf(value), rdf.XSDBoolean)
	case datetimeTypes[baseType]:
		return rdf.NewTypedLiteral(temporalLexical(value, baseType), dt)
	case baseType == xsdString:
		s := stringOf(value)
		if datatypeID != baseType {
			return rdf.NewTypedLiteral(s, dt)
		}
		if lang == "" || lang == "und" {
			return rdf.NewLiteral(s)
		}
		return rdf.NewLangLiteral(s, lang)
	default:
		return rdf.NewTypedLiteral(stringOf(value), dt)
	}
}

func coerceFloat(v float64, dt rdf.IRI, base string) rdf.Literal {
	switch {
	case math.IsNaN(v):
		return rdf.NewTypedLiteral("NaN", dt)
	case math.IsInf(v, 1):
		return rdf.NewTypedLiteral("INF", dt)
	case math.IsInf(v, -1):
		return rdf.NewTypedLiteral("-INF", dt)
	}
	switch {
	case base == xsdDouble || base == xsdFloat:
		return rdf.NewTypedLiteral(CanonicalDouble(v), dt)
	case numericTypes[base] && base != xsdDecimal && v == math.Trunc(v):
		return rdf.NewTypedLiteral(strconv.FormatFloat(v, 'f', -1, 64), dt)
	default:
		return rdf.NewTypedLiteral(decimalLexical(strconv.FormatFloat(v, 'f', -1, 64)), dt)
	}
}

// CanonicalDouble renders v in the XSD canonical double form: a mantissa
// with exactly one digit before the point and at least one after it, and an
// unpadded exponent ("1.5E0", "-2.0E-7").
func CanonicalDouble(v float64) string {
	s := strconv.FormatFloat(v, 'E', -1, 64)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	e, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}
	return mant + "E" + strconv.Itoa(e)
}

func numericLexical(value any, base string) string {
	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case *big.Int:
		return v.String()
	case decimal.Decimal:
		s := v.String()
		if base == xsdDecimal {
			return decimalLexical(s)
		}
		return s
	case string:
		return v
	}
	return stringOf(value)
}

func decimalLexical(s string) string {
	if strings.ContainsAny(s, ".eE") {
		return s
	}
	return s + ".0"
}

func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
