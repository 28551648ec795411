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
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openmanet/manet-ns/types"
)

var durationUnits = map[string]float64{
	"":   float64(types.Second),
	"us": float64(types.Microsecond),
	"ms": float64(types.Millisecond),
	"s":  float64(types.Second),
	"m":  60 * float64(types.Second),
	"h":  3600 * float64(types.Second),
}

var rateUnits = map[string]float64{
	"":     1,
	"bps":  1,
	"kbps": 1e3,
	"Kbps": 1e3,
	"Mbps": 1e6,
	"Gbps": 1e9,
}

// ParseDuration parses a virtual duration into microseconds. A bare number is in seconds and
// `ever` maps to types.Ever.
func ParseDuration(s string) (uint64, error) {
	q, err := parseQuantity(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", s)
	}
	if q.Ever != nil {
		return types.Ever, nil
	}
	mult, ok := durationUnits[q.Unit]
	if !ok {
		return 0, errors.Errorf("invalid duration %q: unknown unit %q", s, q.Unit)
	}
	us := math.Round(*q.Value * mult)
	if us >= float64(types.Ever) {
		return types.Ever, nil
	}
	return uint64(us), nil
}

// ParseRate parses a data rate into bits per second, e.g. `500kbps` or `1Mbps`.
func ParseRate(s string) (uint64, error) {
	q, err := parseQuantity(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid data rate %q", s)
	}
	if q.Ever != nil {
		return 0, errors.Errorf("invalid data rate %q", s)
	}
	mult, ok := rateUnits[q.Unit]
	if !ok {
		return 0, errors.Errorf("invalid data rate %q: unknown unit %q", s, q.Unit)
	}
	return uint64(math.Round(*q.Value * mult)), nil
}

// FormatDuration renders microseconds in the largest unit that keeps the value integral.
func FormatDuration(us uint64) string {
	switch {
	case us == types.Ever:
		return "ever"
	case us == 0:
		return "0s"
	case us%types.Second == 0:
		return strconv.FormatUint(us/types.Second, 10) + "s"
	case us%types.Millisecond == 0:
		return strconv.FormatUint(us/types.Millisecond, 10) + "ms"
	default:
		return strconv.FormatUint(us, 10) + "us"
	}
}

// FormatRate renders bits per second in the largest unit that keeps the value integral.
func FormatRate(bps uint64) string {
	switch {
	case bps == 0:
		return "0"
	case bps%1000000000 == 0:
		return strconv.FormatUint(bps/1000000000, 10) + "Gbps"
	case bps%1000000 == 0:
		return strconv.FormatUint(bps/1000000, 10) + "Mbps"
	case bps%1000 == 0:
		return strconv.FormatUint(bps/1000, 10) + "kbps"
	default:
		return strconv.FormatUint(bps, 10) + "bps"
	}
}

// Duration is a virtual duration in microseconds that reads `10ms`-style values from YAML and
// command-line flags.
type Duration uint64

func (d Duration) Us() uint64 {
	return uint64(d)
}

func (d Duration) String() string {
	return FormatDuration(uint64(d))
}

func (d *Duration) Set(s string) error {
	v, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Type() string {
	return "duration"
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.Set(value.Value)
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// DataRate is a data rate in bits per second that reads `500kbps`-style values.
type DataRate uint64

func (r DataRate) Bps() uint64 {
	return uint64(r)
}

func (r DataRate) String() string {
	return FormatRate(uint64(r))
}

func (r *DataRate) Set(s string) error {
	v, err := ParseRate(s)
	if err != nil {
		return err
	}
	*r = DataRate(v)
	return nil
}

func (r DataRate) Type() string {
	return "rate"
}

func (r *DataRate) UnmarshalYAML(value *yaml.Node) error {
	return r.Set(value.Value)
}

func (r DataRate) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}
