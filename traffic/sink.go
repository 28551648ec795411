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

package traffic

import (
	"github.com/openmanet/manet-ns/event"
	"github.com/openmanet/manet-ns/network"
	. "github.com/openmanet/manet-ns/types"
)

type SinkConfig struct {
	Node  NodeId
	Port  uint16
	Start uint64
	Stop  uint64
	// Echo sends every received packet back to its sender.
	Echo bool
}

// Sink receives packets on a port while it is running.
type Sink struct {
	appLifecycle
	cfg SinkConfig
}

func NewSink(cfg SinkConfig) *Sink {
	if cfg.Stop == 0 {
		cfg.Stop = Ever
	}
	return &Sink{
		appLifecycle: appLifecycle{
			node:  cfg.Node,
			start: cfg.Start,
			stop:  cfg.Stop,
		},
		cfg: cfg,
	}
}

func (s *Sink) Name() string {
	return NameSink
}

func (s *Sink) Install(net *network.Network) error {
	if err := s.install(net, func() {}, func() {}); err != nil {
		return err
	}
	return net.Listen(s.node, s.cfg.Port, s)
}

func (s *Sink) HandlePacket(now uint64, pkt *event.Packet) {
	if !s.receive(now, pkt) || !s.cfg.Echo || pkt.IsEcho {
		return
	}
	s.send(pkt.Reply(0))
}
