// Copyright (c) 2020-2023, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package cli

import (
	"github.com/alecthomas/participle"
	"github.com/pkg/errors"
)

// Quantity is a number with an optional unit suffix, e.g. `500kbps`, `10ms`, `1.5` or `ever`.
// noinspection GoStructTag
type Quantity struct {
	Ever  *EverFlag `  @@`                //nolint
	Value *float64  `| ( @Int | @Float )` //nolint
	Unit  string    `  [ @Ident ]`        //nolint
}

// noinspection GoStructTag
type EverFlag struct {
	Dummy struct{} `"ever"` //nolint
}

var (
	quantityParser = participle.MustBuild(&Quantity{})
)

func parseQuantity(s string) (*Quantity, error) {
	q := &Quantity{}
	if err := quantityParser.ParseString(splitUnit(s), q); err != nil {
		return nil, err
	}
	if q.Ever == nil && q.Value == nil {
		return nil, errors.Errorf("missing value")
	}
	return q, nil
}

// splitUnit separates a numeric prefix from its unit, so the lexer does not read `0bps` or `0xs`
// as a base-prefixed integer literal.
func splitUnit(s string) string {
	if s == "" || !isDigit(s[0]) {
		return s
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case isDigit(c) || c == '.':
		case (c == 'e' || c == 'E') && i+1 < len(s) && (isDigit(s[i+1]) || s[i+1] == '-' || s[i+1] == '+'):
			i++
		default:
			return s[:i] + " " + s[i:]
		}
	}
	return s
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
