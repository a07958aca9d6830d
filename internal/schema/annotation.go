package schema

import (
	"encoding/json"
	"sort"
	"strings"
)

// AnnotationKind tags the variant held by an Annotation.
type AnnotationKind uint8

const (
	// KindScalar is a bare JSON string, number or boolean.
	KindScalar AnnotationKind = iota
	// KindReference is {"@id": ...}.
	KindReference
	// KindValue is {"@value": ..., "@type"|"@language": ...}.
	KindValue
	// KindNode is any other object: a nested description.
	KindNode
	// KindArray is a JSON array.
	KindArray
)

// Annotation is a metadata value attached to a table group, table or note.
// Exactly the fields of its Kind are meaningful.
type Annotation struct {
	Kind AnnotationKind

	// ID is the referenced IRI (KindReference).
	ID string

	// Value is a string, json.Number, float64 or bool (KindScalar, KindValue).
	Value any
	// Type is the compact or absolute datatype (KindValue).
	Type string
	// Language is the language tag (KindValue).
	Language string

	// Types are the node's @type values (KindNode).
	Types []string
	// Properties are the node's other members in key order (KindNode).
	Properties []Property

	// Items are the elements (KindArray).
	Items []Annotation
}

// Property pairs a property name (compact or absolute) with its value.
type Property struct {
	Name  string
	Value Annotation
}

// Reference returns a KindReference annotation.
func Reference(id string) Annotation { return Annotation{Kind: KindReference, ID: id} }

// Scalar returns a KindScalar annotation.
func Scalar(v any) Annotation { return Annotation{Kind: KindScalar, Value: v} }

// ValueObject returns a KindValue annotation.
func ValueObject(v any, typ, lang string) Annotation {
	return Annotation{Kind: KindValue, Value: v, Type: typ, Language: lang}
}

// Node returns a KindNode annotation.
func Node(types []string, props ...Property) Annotation {
	return Annotation{Kind: KindNode, Types: types, Properties: props}
}

// Array returns a KindArray annotation.
func Array(items ...Annotation) Annotation { return Annotation{Kind: KindArray, Items: items} }

// ParseAnnotation converts a decoded JSON value into an Annotation. Objects
// with @id are references and objects with @value are value objects; the
// check order matches JSON-LD value/node classification.
func ParseAnnotation(v any) Annotation {
	switch t := v.(type) {
	case map[string]any:
		if id, ok := t["@id"]; ok {
			s, _ := id.(string)
			return Reference(s)
		}
		if val, ok := t["@value"]; ok {
			typ, _ := t["@type"].(string)
			lang, _ := t["@language"].(string)
			return ValueObject(val, typ, lang)
		}
		a := Annotation{Kind: KindNode}
		for _, k := range sortedKeys(t) {
			if k == "@type" {
				a.Types = append(a.Types, stringList(t[k])...)
				continue
			}
			if strings.HasPrefix(k, "@") {
				continue
			}
			a.Properties = append(a.Properties, Property{Name: k, Value: ParseAnnotation(t[k])})
		}
		return a
	case []any:
		items := make([]Annotation, 0, len(t))
		for _, e := range t {
			items = append(items, ParseAnnotation(e))
		}
		return Array(items...)
	default:
		return Scalar(v)
	}
}

// IsInteger reports whether a scalar number has no fractional part.
func IsInteger(n json.Number) bool {
	_, err := n.Int64()
	return err == nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	}
	return nil
}
