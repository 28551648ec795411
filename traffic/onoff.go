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

type ConstantRateOnOffConfig struct {
	Node       NodeId
	Remote     NodeId
	RemotePort uint16
	Rate       uint64 // bits per second
	PacketSize int
	Start      uint64
	Stop       uint64
	// OnTime and OffTime alternate sending and silent periods. OnTime 0 sends all the time.
	OnTime  uint64
	OffTime uint64
	// MaxBytes stops sending once that many bytes were sent. 0 means unlimited.
	MaxBytes uint64
}

// ConstantRateOnOff sends PacketSize packets at Rate during on periods. The first packet of an on
// period is sent one packet interval after it begins.
type ConstantRateOnOff struct {
	appLifecycle
	cfg        ConstantRateOnOffConfig
	interval   uint64
	localPort  uint16
	sendEvent  dispatcher.EventHandle
	onOffEvent dispatcher.EventHandle
}

func NewConstantRateOnOff(cfg ConstantRateOnOffConfig) *ConstantRateOnOff {
	if cfg.Stop == 0 {
		cfg.Stop = Ever
	}
	return &ConstantRateOnOff{
		appLifecycle: appLifecycle{
			node:  cfg.Node,
			start: cfg.Start,
			stop:  cfg.Stop,
		},
		cfg:      cfg,
		interval: TxDuration(cfg.PacketSize, cfg.Rate),
	}
}

func (o *ConstantRateOnOff) Name() string {
	return NameConstantRateOnOff
}

// Interval returns the time between two packets of an on period.
func (o *ConstantRateOnOff) Interval() uint64 {
	return o.interval
}

func (o *ConstantRateOnOff) Install(net *network.Network) error {
	if o.interval == 0 {
		return errors.Errorf("onoff on node %d: rate %d and packet size %d give no packet interval",
			o.node, o.cfg.Rate, o.cfg.PacketSize)
	}
	if err := o.install(net, o.startOn, o.stopApplication); err != nil {
		return err
	}
	o.localPort = net.EphemeralPort(o.node)
	return nil
}

func (o *ConstantRateOnOff) startOn() {
	if o.cfg.OnTime > 0 && o.cfg.OffTime > 0 {
		o.onOffEvent = o.d().Schedule(o.cfg.OnTime, o.startOff)
	}
	o.sendEvent = o.d().Schedule(o.interval, o.sendPacket)
}

func (o *ConstantRateOnOff) startOff() {
	cancelSend(o.d(), &o.sendEvent)
	o.onOffEvent = o.d().Schedule(o.cfg.OffTime, o.startOn)
}

func (o *ConstantRateOnOff) stopApplication() {
	cancelSend(o.d(), &o.sendEvent)
	cancelSend(o.d(), &o.onOffEvent)
}

func (o *ConstantRateOnOff) sendPacket() {
	o.sendEvent = dispatcher.EventHandle{}
	if o.cfg.MaxBytes > 0 && o.stats.BytesSent >= o.cfg.MaxBytes {
		return
	}
	o.send(event.Packet{
		Src:     o.node,
		Dst:     o.cfg.Remote,
		SrcPort: o.localPort,
		DstPort: o.cfg.RemotePort,
		Size:    o.cfg.PacketSize,
	})
	o.sendEvent = o.d().Schedule(o.interval, o.sendPacket)
}
