package transformer

import (
	"math"
	"math/rand"
	"reflect"
	"strconv"
	"testing"
	"testing/quick"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theodi/csv2rdf/internal/rdf"
)

/*
TestCoerce covers every branch of the value mapping: invalid cells, float
specials, numeric, boolean, temporal, language-tagged and derived string
datatypes.
*/
func TestCoerce(t *testing.T) {
	t.Parallel()

	xsd := func(local string) rdf.IRI { return rdf.IRI{Value: rdf.NSXSD + local} }
	code := "http://example.org/Code"

	cases := []struct {
		name     string
		value    any
		id, base string
		lang     string
		want     rdf.Term
	}{
		{"invalid_is_plain", Invalid{Raw: "abc"}, rdf.NSXSD + "integer", rdf.NSXSD + "integer", "", rdf.NewLiteral("abc")},
		{"nan", math.NaN(), rdf.NSXSD + "double", rdf.NSXSD + "double", "", rdf.NewTypedLiteral("NaN", xsd("double"))},
		{"pos_inf", math.Inf(1), rdf.NSXSD + "double", rdf.NSXSD + "double", "", rdf.NewTypedLiteral("INF", xsd("double"))},
		{"neg_inf", math.Inf(-1), rdf.NSXSD + "float", rdf.NSXSD + "float", "", rdf.NewTypedLiteral("-INF", xsd("float"))},
		{"double", 1.5, rdf.NSXSD + "double", rdf.NSXSD + "double", "", rdf.NewTypedLiteral("1.5E0", xsd("double"))},
		{"float_on_decimal", 2.5, rdf.NSXSD + "decimal", rdf.NSXSD + "decimal", "", rdf.NewTypedLiteral("2.5", xsd("decimal"))},
		{"float_on_integer", 3.0, rdf.NSXSD + "integer", rdf.NSXSD + "integer", "", rdf.NewTypedLiteral("3", xsd("integer"))},
		{"integer", int64(42), rdf.NSXSD + "integer", rdf.NSXSD + "integer", "", rdf.NewTypedLiteral("42", xsd("integer"))},
		{"derived_integer", int64(7), rdf.NSXSD + "positiveInteger", rdf.NSXSD + "integer", "", rdf.NewTypedLiteral("7", xsd("positiveInteger"))},
		{"decimal_whole", decimal.NewFromInt(2), rdf.NSXSD + "decimal", rdf.NSXSD + "decimal", "", rdf.NewTypedLiteral("2.0", xsd("decimal"))},
		{"decimal_frac", decimal.RequireFromString("10.250"), rdf.NSXSD + "decimal", rdf.NSXSD + "decimal", "", rdf.NewTypedLiteral("10.25", xsd("decimal"))},
		{"boolean", true, code, rdf.NSXSD + "boolean", "", rdf.NewBoolean(true)},
		{"date", Temporal{Lexical: "2020-01-02", Time: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)}, rdf.NSXSD + "date", rdf.NSXSD + "date", "", rdf.NewTypedLiteral("2020-01-02", xsd("date"))},
		{"time_value", time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), rdf.NSXSD + "date", rdf.NSXSD + "date", "", rdf.NewTypedLiteral("2021-03-04", xsd("date"))},
		{"lang_string", "chat", rdf.NSXSD + "string", rdf.NSXSD + "string", "fr", rdf.NewLangLiteral("chat", "fr")},
		{"und_string", "x", rdf.NSXSD + "string", rdf.NSXSD + "string", "und", rdf.NewLiteral("x")},
		{"derived_string", "AB", code, rdf.NSXSD + "string", "en", rdf.NewTypedLiteral("AB", rdf.IRI{Value: code})},
		{"other_datatype", "http://e.org/", rdf.NSXSD + "anyURI", rdf.NSXSD + "anyURI", "", rdf.NewTypedLiteral("http://e.org/", xsd("anyURI"))},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Coerce(tc.value, tc.id, tc.base, tc.lang))
		})
	}
}

func TestCanonicalDouble(t *testing.T) {
	t.Parallel()

	for in, want := range map[float64]string{
		1.5:     "1.5E0",
		100:     "1.0E2",
		0.00012: "1.2E-4",
		-2:      "-2.0E0",
		0:       "0.0E0",
	} {
		assert.Equal(t, want, CanonicalDouble(in), "input %v", in)
	}
}

// finiteFloats draws from the whole float64 range (random bit patterns),
// not just quick's default small magnitudes.
func finiteFloats(args []reflect.Value, r *rand.Rand) {
	for {
		v := math.Float64frombits(r.Uint64())
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			args[0] = reflect.ValueOf(v)
			return
		}
	}
}

func TestCoerce_FloatRoundTrip(t *testing.T) {
	t.Parallel()

	bases := []string{rdf.NSXSD + "double", rdf.NSXSD + "float", rdf.NSXSD + "decimal", rdf.NSXSD + "integer"}
	for _, base := range bases {
		base := base
		t.Run(base[len(rdf.NSXSD):], func(t *testing.T) {
			t.Parallel()
			check := func(v float64) bool {
				lit, ok := Coerce(v, base, base, "").(rdf.Literal)
				if !ok {
					return false
				}
				back, err := strconv.ParseFloat(lit.Lexical, 64)
				return err == nil && back == v && lit.Datatype.Value == base
			}
			cfg := &quick.Config{MaxCount: 2000, Values: finiteFloats}
			require.NoError(t, quick.Check(check, cfg))

			for _, v := range []float64{0, -0.5, 1, 1e21, 5e-324, math.MaxFloat64, -math.SmallestNonzeroFloat64} {
				assert.True(t, check(v), "%v", v)
			}
		})
	}
}

func TestCoerce_Idempotent(t *testing.T) {
	t.Parallel()

	ids := []string{rdf.NSXSD + "double", rdf.NSXSD + "decimal", rdf.NSXSD + "integer", rdf.NSXSD + "string", "http://example.org/Code"}
	check := func(f float64, n int64, s string, pick uint8) bool {
		id := ids[int(pick)%len(ids)]
		for _, v := range []any{f, n, s, Invalid{Raw: s}} {
			if Coerce(v, id, id, "en") != Coerce(v, id, id, "en") {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(check, &quick.Config{MaxCount: 1000}))
}

func TestCoerce_FloatSpecialsIgnoreDatatype(t *testing.T) {
	t.Parallel()

	specials := map[string]float64{"NaN": math.NaN(), "INF": math.Inf(1), "-INF": math.Inf(-1)}
	ids := []string{
		rdf.NSXSD + "double", rdf.NSXSD + "float", rdf.NSXSD + "decimal", rdf.NSXSD + "integer",
		rdf.NSXSD + "string", rdf.NSXSD + "boolean", "http://example.org/Measure",
	}
	for want, v := range specials {
		for _, id := range ids {
			lit, ok := Coerce(v, id, id, "").(rdf.Literal)
			require.True(t, ok)
			assert.Equal(t, want, lit.Lexical, "%s under %s", want, id)
			assert.Equal(t, id, lit.Datatype.Value)
		}
	}
}
