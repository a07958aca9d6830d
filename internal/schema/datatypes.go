package schema

// builtinDatatypes maps CSVW built-in datatype names to absolute IRIs.
var builtinDatatypes = map[string]string{
	"anyAtomicType":      NSXSD + "anyAtomicType",
	"anyURI":             NSXSD + "anyURI",
	"base64Binary":       NSXSD + "base64Binary",
	"boolean":            NSXSD + "boolean",
	"date":               NSXSD + "date",
	"dateTime":           NSXSD + "dateTime",
	"dateTimeStamp":      NSXSD + "dateTimeStamp",
	"decimal":            NSXSD + "decimal",
	"integer":            NSXSD + "integer",
	"long":               NSXSD + "long",
	"int":                NSXSD + "int",
	"short":              NSXSD + "short",
	"byte":               NSXSD + "byte",
	"nonNegativeInteger": NSXSD + "nonNegativeInteger",
	"positiveInteger":    NSXSD + "positiveInteger",
	"unsignedLong":       NSXSD + "unsignedLong",
	"unsignedInt":        NSXSD + "unsignedInt",
	"unsignedShort":      NSXSD + "unsignedShort",
	"unsignedByte":       NSXSD + "unsignedByte",
	"nonPositiveInteger": NSXSD + "nonPositiveInteger",
	"negativeInteger":    NSXSD + "negativeInteger",
	"double":             NSXSD + "double",
	"duration":           NSXSD + "duration",
	"dayTimeDuration":    NSXSD + "dayTimeDuration",
	"yearMonthDuration":  NSXSD + "yearMonthDuration",
	"float":              NSXSD + "float",
	"gDay":               NSXSD + "gDay",
	"gMonth":             NSXSD + "gMonth",
	"gMonthDay":          NSXSD + "gMonthDay",
	"gYear":              NSXSD + "gYear",
	"gYearMonth":         NSXSD + "gYearMonth",
	"hexBinary":          NSXSD + "hexBinary",
	"QName":              NSXSD + "QName",
	"string":             NSXSD + "string",
	"normalizedString":   NSXSD + "normalizedString",
	"token":              NSXSD + "token",
	"language":           NSXSD + "language",
	"Name":               NSXSD + "Name",
	"NMTOKEN":            NSXSD + "NMTOKEN",
	"time":               NSXSD + "time",
	"xml":                NSRDF + "XMLLiteral",
	"html":               NSRDF + "HTML",
	"json":               NSCSVW + "JSON",
	// aliases
	"any":      NSXSD + "anyAtomicType",
	"binary":   NSXSD + "base64Binary",
	"datetime": NSXSD + "dateTime",
	"number":   NSXSD + "double",
}

// BuiltinDatatype returns the IRI for a CSVW built-in name. Absolute IRIs of
// built-ins are accepted as well.
func BuiltinDatatype(name string) (string, bool) {
	if iri, ok := builtinDatatypes[name]; ok {
		return iri, true
	}
	for _, iri := range builtinDatatypes {
		if iri == name {
			return iri, true
		}
	}
	return "", false
}

// jsonTableTypes maps JSON-Table field types to built-in names.
var jsonTableTypes = map[string]string{
	"string":   "string",
	"integer":  "integer",
	"number":   "number",
	"boolean":  "boolean",
	"date":     "date",
	"datetime": "dateTime",
	"time":     "time",
	"year":     "gYear",
	"any":      "string",
}
