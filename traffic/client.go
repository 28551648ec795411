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
	"github.com/pkg/errors"

	"github.com/openmanet/manet-ns/dispatcher"
	"github.com/openmanet/manet-ns/event"
	"github.com/openmanet/manet-ns/network"
	. "github.com/openmanet/manet-ns/types"
)

type FixedCountClientConfig struct {
	Node       NodeId
	Remote     NodeId
	RemotePort uint16
	Interval   uint64 // us
	MaxPackets uint64 // 0 means unlimited
	PacketSize int
	Start      uint64
	Stop       uint64
	// CountEchoes makes the client listen for echo replies and record them as received.
	CountEchoes bool
}

// FixedCountClient sends MaxPackets packets, the first at Start and then one per Interval, as long
// as the time is before Stop.
type FixedCountClient struct {
	appLifecycle
	cfg       FixedCountClientConfig
	localPort uint16
	sendEvent dispatcher.EventHandle
}

func NewFixedCountClient(cfg FixedCountClientConfig) *FixedCountClient {
	if cfg.Stop == 0 {
		cfg.Stop = Ever
	}
	return &FixedCountClient{
		appLifecycle: appLifecycle{
			node:  cfg.Node,
			start: cfg.Start,
			stop:  cfg.Stop,
		},
		cfg: cfg,
	}
}

func (c *FixedCountClient) Name() string {
	return NameFixedCountClient
}

func (c *FixedCountClient) Install(net *network.Network) error {
	if c.cfg.Interval == 0 && c.cfg.MaxPackets != 1 {
		return errors.Errorf("client on node %d: zero interval", c.node)
	}
	if err := c.install(net, c.startApplication, c.stopApplication); err != nil {
		return err
	}
	c.localPort = net.EphemeralPort(c.node)
	if c.cfg.CountEchoes {
		return net.Listen(c.node, c.localPort, network.ReceiverFunc(func(now uint64, pkt *event.Packet) {
			c.receive(now, pkt)
		}))
	}
	return nil
}

func (c *FixedCountClient) startApplication() {
	c.sendPacket()
}

func (c *FixedCountClient) stopApplication() {
	cancelSend(c.d(), &c.sendEvent)
}

func (c *FixedCountClient) sendPacket() {
	c.sendEvent = dispatcher.EventHandle{}
	c.send(event.Packet{
		Src:     c.node,
		Dst:     c.cfg.Remote,
		SrcPort: c.localPort,
		DstPort: c.cfg.RemotePort,
		Size:    c.cfg.PacketSize,
	})
	if c.cfg.MaxPackets > 0 && c.stats.PacketsSent+c.stats.PacketsFailed >= c.cfg.MaxPackets {
		return
	}
	c.sendEvent = c.d().Schedule(c.cfg.Interval, c.sendPacket)
}
