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
	"math"
	"testing"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"
)

func typed(v, dt string) quad.TypedString {
	return quad.TypedString{Value: quad.String(v), Type: quad.IRI(dt)}
}

var literalCases = []struct {
	name string
	in   quad.Value
	enc  literal
	out  quad.Value
}{
	{"string", quad.String("Isaac"), literal{Value: "Isaac"}, quad.String("Isaac")},
	{"empty string", quad.String(""), literal{Value: ""}, quad.String("")},
	{"int", quad.Int(42), literal{Value: int64(42), Datatype: dtInteger}, quad.Int(42)},
	{"negative int", quad.Int(-7), literal{Value: int64(-7), Datatype: dtInteger}, quad.Int(-7)},
	{"float", quad.Float(2.5), literal{Value: 2.5, Datatype: dtDouble}, quad.Float(2.5)},
	{"bool", quad.Bool(true), literal{Value: true, Datatype: dtBoolean}, quad.Bool(true)},
	{"lang", quad.LangString{Value: "chat", Lang: "fr"},
		literal{Value: "chat", Datatype: dtLangString, Lang: "fr"},
		quad.LangString{Value: "chat", Lang: "fr"}},
	{"lang without tag", quad.LangString{Value: "chat"}, literal{Value: "chat"}, quad.String("chat")},
	{"typed integer", typed("42", dtInteger), literal{Value: int64(42), Datatype: dtInteger}, quad.Int(42)},
	{"typed long", typed("42", dtLong), literal{Value: int64(42), Datatype: dtLong}, typed("42", dtLong)},
	{"typed string", typed("x", dtString), literal{Value: "x"}, quad.String("x")},
	{"typed bad integer", typed("forty", dtInteger), literal{Value: "forty", Datatype: dtInteger}, typed("forty", dtInteger)},
	{"typed custom", typed("POINT(1 2)", "http://www.opengis.net/ont/geosparql#wktLiteral"),
		literal{Value: "POINT(1 2)", Datatype: "http://www.opengis.net/ont/geosparql#wktLiteral"},
		typed("POINT(1 2)", "http://www.opengis.net/ont/geosparql#wktLiteral")},
	{"typed boolean", typed("1", dtBoolean), literal{Value: true, Datatype: dtBoolean}, quad.Bool(true)},
	{"typed decimal", typed("1.50", dtDecimal), literal{Value: 1.5, Datatype: dtDecimal}, typed("1.5", dtDecimal)},
	{"short datatype", typed("5", "xsd:integer"), literal{Value: int64(5), Datatype: dtInteger}, quad.Int(5)},
	{"infinity", quad.Float(math.Inf(1)), literal{Value: "INF", Datatype: dtDouble}, quad.Float(math.Inf(1))},
	{"negative infinity", quad.Float(math.Inf(-1)), literal{Value: "-INF", Datatype: dtDouble}, quad.Float(math.Inf(-1))},
}

func TestLiteralCodec(t *testing.T) {
	for _, c := range literalCases {
		t.Run(c.name, func(t *testing.T) {
			enc, ok := encodeLiteral(c.in)
			require.True(t, ok)
			require.Equal(t, c.enc, enc)

			dt, _ := enc.datatypeParam().(string)
			lang, _ := enc.langParam().(string)
			out := decodeLiteral(enc.Value, dt, lang)
			require.Equal(t, c.out, out)
			require.True(t, sameLiteral(c.in, out), "decoded value must be equal in value")
		})
	}
}

func TestLiteralNaN(t *testing.T) {
	enc, ok := encodeLiteral(quad.Float(math.NaN()))
	require.True(t, ok)
	require.Equal(t, literal{Value: "NaN", Datatype: dtDouble}, enc)
	out := decodeLiteral(enc.Value, dtDouble, "")
	f, ok := out.(quad.Float)
	require.True(t, ok)
	require.True(t, math.IsNaN(float64(f)))
	require.True(t, sameLiteral(quad.Float(math.NaN()), out))
}

func TestLiteralTime(t *testing.T) {
	ts := time.Date(2020, 5, 17, 10, 30, 0, 500, time.FixedZone("X", 3600))
	enc, ok := encodeLiteral(quad.Time(ts))
	require.True(t, ok)
	require.Equal(t, literal{Value: "2020-05-17T09:30:00.0000005Z", Datatype: dtDateTime}, enc)

	out := decodeLiteral(enc.Value, dtDateTime, "")
	tv, ok := out.(quad.Time)
	require.True(t, ok)
	require.True(t, time.Time(tv).Equal(ts))
	require.True(t, sameLiteral(quad.Time(ts), out))
	require.True(t, sameLiteral(typed("2020-05-17T10:30:00.0000005+01:00", dtDateTime), out))
}

func TestDecodeNative(t *testing.T) {
	require.Equal(t, quad.String("x"), decodeLiteral("x", "", ""))
	require.Equal(t, quad.Int(3), decodeLiteral(int64(3), "", ""))
	require.Equal(t, quad.Float(0.5), decodeLiteral(0.5, "", ""))
	require.Equal(t, quad.Bool(false), decodeLiteral(false, "", ""))
	require.Equal(t, quad.String("[a b]"), decodeLiteral([]interface{}{"a", "b"}, "", ""))
	require.Equal(t, typed("7", dtLong), decodeLiteral(int64(7), dtLong, ""))
	require.Equal(t, typed("yes", dtBoolean), decodeLiteral("yes", dtBoolean, ""))
}

func TestSameLiteral(t *testing.T) {
	require.True(t, sameLiteral(quad.Int(42), typed("42", dtInteger)))
	require.True(t, sameLiteral(quad.Int(42), typed("042", dtInteger)))
	require.False(t, sameLiteral(quad.Int(42), typed("42", dtLong)))
	require.False(t, sameLiteral(quad.Int(42), quad.String("42")))
	require.False(t, sameLiteral(quad.Int(1), quad.Float(1)))
	require.False(t, sameLiteral(quad.LangString{Value: "a", Lang: "en"}, quad.LangString{Value: "a", Lang: "de"}))
	require.False(t, sameLiteral(quad.IRI("a"), quad.String("a")))
}

func TestLiteralCanonicalForm(t *testing.T) {
	enc, ok := encodeLiteral(typed("30", dtInteger))
	require.True(t, ok)
	out := decodeLiteral(enc.Value, enc.Datatype, enc.Lang)
	require.Equal(t, quad.Int(30), out)
	require.NotEqual(t, typed("30", dtInteger), out)
	require.True(t, sameLiteral(typed("30", dtInteger), out))

	enc, ok = encodeLiteral(quad.LangString{Value: "Isaac"})
	require.True(t, ok)
	require.Equal(t, quad.String("Isaac"), decodeLiteral(enc.Value, enc.Datatype, enc.Lang))
}
