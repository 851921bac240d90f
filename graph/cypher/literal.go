// Copyright 2024 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cypher

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc/rdf"
	"github.com/cayleygraph/quad/voc/xsd"
)

// Full datatype IRIs. Property values are stored with full IRIs only.
const (
	dtString     = xsd.NS + "string"
	dtBoolean    = xsd.NS + "boolean"
	dtInteger    = xsd.NS + "integer"
	dtLong       = xsd.NS + "long"
	dtInt        = xsd.NS + "int"
	dtShort      = xsd.NS + "short"
	dtByte       = xsd.NS + "byte"
	dtDouble     = xsd.NS + "double"
	dtFloat      = xsd.NS + "float"
	dtDecimal    = xsd.NS + "decimal"
	dtDateTime   = xsd.NS + "dateTime"
	dtLangString = rdf.NS + "langString"
)

// literal is the property form of an RDF literal.
//
// Value is one of string, int64, float64 or bool. Datatype is empty for plain
// strings. Lang is set only for language-tagged strings.
type literal struct {
	Value    interface{}
	Datatype string
	Lang     string
}

// datatypeParam returns the datatype as a parameter value; nil clears the field.
func (l literal) datatypeParam() interface{} {
	if l.Datatype == "" {
		return nil
	}
	return l.Datatype
}

func (l literal) langParam() interface{} {
	if l.Lang == "" {
		return nil
	}
	return l.Lang
}

func (l literal) equal(o literal) bool {
	return l.Value == o.Value && l.Datatype == o.Datatype && l.Lang == o.Lang
}

// encodeLiteral converts an RDF literal into its property form.
//
// Numeric and boolean literals are stored natively. Non-finite floats are
// not representable as graph properties and are stored in lexical form.
func encodeLiteral(v quad.Value) (literal, bool) {
	switch v := v.(type) {
	case quad.String:
		return literal{Value: string(v)}, true
	case quad.LangString:
		if v.Lang == "" {
			return literal{Value: string(v.Value)}, true
		}
		return literal{Value: string(v.Value), Datatype: dtLangString, Lang: v.Lang}, true
	case quad.Int:
		return literal{Value: int64(v), Datatype: dtInteger}, true
	case quad.Float:
		return floatLiteral(float64(v), dtDouble), true
	case quad.Bool:
		return literal{Value: bool(v), Datatype: dtBoolean}, true
	case quad.Time:
		return literal{Value: formatTime(time.Time(v)), Datatype: dtDateTime}, true
	case quad.TypedString:
		return encodeTyped(string(v.Value), string(v.Type.Full())), true
	}
	return literal{}, false
}

func encodeTyped(lex, dt string) literal {
	switch dt {
	case "", dtString:
		return literal{Value: lex}
	case dtInteger, dtLong, dtInt, dtShort, dtByte:
		if i, err := strconv.ParseInt(lex, 10, 64); err == nil {
			return literal{Value: i, Datatype: dt}
		}
	case dtDouble, dtFloat, dtDecimal:
		if f, err := strconv.ParseFloat(lex, 64); err == nil {
			return floatLiteral(f, dt)
		}
	case dtBoolean:
		switch lex {
		case "true", "1":
			return literal{Value: true, Datatype: dt}
		case "false", "0":
			return literal{Value: false, Datatype: dt}
		}
	case dtDateTime:
		if t, err := time.Parse(time.RFC3339Nano, lex); err == nil {
			return literal{Value: formatTime(t), Datatype: dt}
		}
	}
	return literal{Value: lex, Datatype: dt}
}

func floatLiteral(f float64, dt string) literal {
	switch {
	case math.IsNaN(f):
		return literal{Value: "NaN", Datatype: dt}
	case math.IsInf(f, 1):
		return literal{Value: "INF", Datatype: dt}
	case math.IsInf(f, -1):
		return literal{Value: "-INF", Datatype: dt}
	}
	return literal{Value: f, Datatype: dt}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// decodeLiteral reconstructs an RDF literal from a stored property value
// and its shadow fields.
//
// A canonical datatype with a matching value gives a native quad value.
// Any other datatype gives a typed string. Without a datatype the native
// kind of the stored value decides.
func decodeLiteral(val interface{}, dt, lang string) quad.Value {
	switch dt {
	case "":
		return nativeValue(val)
	case dtLangString:
		s := lexical(val)
		if lang == "" {
			return quad.String(s)
		}
		return quad.LangString{Value: quad.String(s), Lang: lang}
	case dtString:
		return quad.String(lexical(val))
	case dtInteger:
		switch v := val.(type) {
		case int64:
			return quad.Int(v)
		case string:
			if i, err := strconv.ParseInt(v, 10, 64); err == nil {
				return quad.Int(i)
			}
		}
	case dtDouble:
		switch v := val.(type) {
		case float64:
			return quad.Float(v)
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return quad.Float(f)
			}
		}
	case dtBoolean:
		if b, ok := val.(bool); ok {
			return quad.Bool(b)
		}
	case dtDateTime:
		if s, ok := val.(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return quad.Time(t)
			}
		}
	}
	return quad.TypedString{Value: quad.String(lexical(val)), Type: quad.IRI(dt)}
}

func nativeValue(val interface{}) quad.Value {
	switch v := val.(type) {
	case string:
		return quad.String(v)
	case int64:
		return quad.Int(v)
	case float64:
		return quad.Float(v)
	case bool:
		return quad.Bool(v)
	}
	return quad.String(lexical(val))
}

// lexical returns the lexical form of a stored value.
func lexical(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	}
	return fmt.Sprint(val)
}

// sameLiteral reports whether two literals are equal in value.
func sameLiteral(a, b quad.Value) bool {
	la, ok := encodeLiteral(a)
	if !ok {
		return false
	}
	lb, ok := encodeLiteral(b)
	if !ok {
		return false
	}
	return la.equal(lb)
}
