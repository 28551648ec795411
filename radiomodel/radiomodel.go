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

package radiomodel

import (
	"github.com/pkg/errors"
)

// RadioModel decides which members of a shared medium can hear each other.
type RadioModel interface {
	// CheckRadioReachable returns whether dst can receive a frame sent by src.
	CheckRadioReachable(src *RadioNode, dst *RadioNode) bool
	// GetName returns the name of the radio model.
	GetName() string
}

const (
	NameIdeal     = "ideal"
	NameUnlimited = "unlimited"
)

// Create creates a radio model by name; radioRange applies to the ideal model.
func Create(name string, radioRange float64) (RadioModel, error) {
	switch name {
	case NameIdeal, "Ideal", "disc":
		if radioRange <= 0 {
			return nil, errors.Errorf("radio model %s requires a positive radio range", name)
		}
		return &RadioModelIdeal{Name: NameIdeal, RadioRange: radioRange}, nil
	case NameUnlimited, "":
		return &RadioModelUnlimited{}, nil
	default:
		return nil, errors.Errorf("unknown radio model: %s", name)
	}
}

// RadioModelUnlimited lets every medium member hear every other member.
type RadioModelUnlimited struct{}

func (rm *RadioModelUnlimited) CheckRadioReachable(src *RadioNode, dst *RadioNode) bool {
	return src != dst && !src.Failed && !dst.Failed
}

func (rm *RadioModelUnlimited) GetName() string {
	return NameUnlimited
}
