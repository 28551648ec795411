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

package routing

import (
	"github.com/pkg/errors"

	. "github.com/openmanet/manet-ns/types"
)

const NameDirect = "direct"

// Direct only delivers to immediate neighbors.
type Direct struct {
	g         Graph
	installed map[NodeId]bool
}

func NewDirect(g Graph) *Direct {
	return &Direct{
		g:         g,
		installed: map[NodeId]bool{},
	}
}

func (a *Direct) Name() string {
	return NameDirect
}

func (a *Direct) Install(node NodeId) (Handle, error) {
	if a.installed[node] {
		return nil, errors.Errorf("%s: node %d already installed", NameDirect, node)
	}
	a.installed[node] = true
	return node, nil
}

func (a *Direct) Resolve(src, dst NodeId) (NodeId, bool) {
	if !a.installed[src] || !a.installed[dst] {
		return InvalidNodeId, false
	}
	if _, ok := a.g.Hop(src, dst); !ok {
		return InvalidNodeId, false
	}
	return dst, true
}
