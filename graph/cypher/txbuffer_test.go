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
	"testing"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"
)

func TestTxBuffer(t *testing.T) {
	a := tr(exIsaac, exName, quad.String("Isaac"))
	b := tr(exIsaac, exFather, exJacob)
	c := tr(exJacob, rdfType, exPerson)

	var cases = []struct {
		name    string
		do      func(buf *txBuffer)
		adds    []quad.Quad
		deletes []quad.Quad
	}{
		{
			name:    "adds keep order",
			do:      func(buf *txBuffer) { buf.add(a); buf.add(b); buf.add(c) },
			adds:    []quad.Quad{a, b, c},
			deletes: []quad.Quad{},
		},
		{
			name:    "re-add moves to back",
			do:      func(buf *txBuffer) { buf.add(a); buf.add(b); buf.add(a) },
			adds:    []quad.Quad{b, a},
			deletes: []quad.Quad{},
		},
		{
			name:    "add then delete",
			do:      func(buf *txBuffer) { buf.add(a); buf.remove(a) },
			adds:    []quad.Quad{a},
			deletes: []quad.Quad{a},
		},
		{
			name:    "delete then add",
			do:      func(buf *txBuffer) { buf.remove(a); buf.add(a) },
			adds:    []quad.Quad{a},
			deletes: []quad.Quad{},
		},
		{
			name:    "delete twice",
			do:      func(buf *txBuffer) { buf.remove(a); buf.remove(b); buf.remove(a) },
			adds:    []quad.Quad{},
			deletes: []quad.Quad{a, b},
		},
		{
			name: "delete add delete",
			do: func(buf *txBuffer) {
				buf.remove(a)
				buf.add(a)
				buf.remove(a)
			},
			adds:    []quad.Quad{a},
			deletes: []quad.Quad{a},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf := newTxBuffer()
			c.do(buf)
			require.Equal(t, c.adds, buf.adds.list())
			require.Equal(t, c.deletes, buf.deletes.list())
			require.Equal(t, len(c.adds)+len(c.deletes), buf.len())
		})
	}
}

func TestTxBufferStorageForms(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var forms = []struct {
		name string
		a, b quad.Quad
	}{
		{"short type", tr(exIsaac, quad.IRI("rdf:type"), exPerson), tr(exIsaac, rdfType, exPerson)},
		{"typed integer", tr(exIsaac, exAge, typed("30", dtInteger)), tr(exIsaac, exAge, quad.Int(30))},
		{"time zone", tr(exIsaac, exAge, quad.Time(at.In(time.FixedZone("X", 3600)))), tr(exIsaac, exAge, quad.Time(at))},
		{"empty lang", tr(exIsaac, exName, quad.LangString{Value: "Isaac"}), tr(exIsaac, exName, quad.String("Isaac"))},
		{"string datatype", tr(exIsaac, exName, typed("Isaac", dtString)), tr(exIsaac, exName, quad.String("Isaac"))},
	}
	for _, c := range forms {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, keyOf(c.a), keyOf(c.b))

			buf := newTxBuffer()
			buf.remove(c.a)
			buf.add(c.b)
			require.Equal(t, []quad.Quad{c.b}, buf.adds.list())
			require.Equal(t, []quad.Quad{}, buf.deletes.list(), "add cancels an equal delete")

			buf = newTxBuffer()
			buf.add(c.a)
			buf.add(c.b)
			buf.remove(c.b)
			buf.remove(c.a)
			require.Equal(t, []quad.Quad{c.b}, buf.adds.list())
			require.Equal(t, []quad.Quad{c.b}, buf.deletes.list())
		})
	}
	require.NotEqual(t,
		keyOf(tr(exIsaac, exAge, quad.Int(30))),
		keyOf(tr(exIsaac, exAge, quad.String("30"))),
	)
}

func TestOrderedSet(t *testing.T) {
	a := tr(exIsaac, exName, quad.String("Isaac"))
	b := tr(exIsaac, exAge, quad.Int(60))

	s := newOrderedSet()
	require.False(t, s.has(a))
	s.pushOnce(a)
	s.pushOnce(b)
	s.pushOnce(a)
	require.True(t, s.has(a))
	require.Equal(t, []quad.Quad{a, b}, s.list())

	s.remove(a)
	require.False(t, s.has(a))
	require.Equal(t, 1, s.len())
	require.Equal(t, []quad.Quad{b}, s.list())

	s.moveToBack(a)
	s.moveToBack(b)
	require.Equal(t, []quad.Quad{a, b}, s.list())
}
