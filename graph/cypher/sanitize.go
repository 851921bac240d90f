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

import "strings"

var identReplacer = strings.NewReplacer("`", "``", "\x00", "")

// Sanitize escapes a string for use inside a backtick-delimited Cypher
// identifier: label names, relationship types and property keys.
//
// Backticks are doubled and NUL bytes are removed. Any other character,
// including quotes, braces and newlines, is allowed inside the delimiters.
// Data values must never be passed through Sanitize; they are sent as
// bound parameters.
func Sanitize(raw string) string {
	return identReplacer.Replace(raw)
}

// quoteIdent returns a delimited identifier ready to be placed into a query.
func quoteIdent(raw string) string {
	return "`" + Sanitize(raw) + "`"
}
