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

package trace

import (
	"net/netip"

	"github.com/pkg/errors"

	"github.com/openmanet/manet-ns/logger"
	"github.com/openmanet/manet-ns/pcap"
	. "github.com/openmanet/manet-ns/types"
)

// PcapWriter writes every Tx record as a UDP datagram frame, stamped with its send time.
type PcapWriter struct {
	file   pcap.File
	path   string
	addrOf func(id NodeId) netip.Addr
}

func NewPcapWriter(path string, frameType pcap.FrameType, addrOf func(id NodeId) netip.Addr) (*PcapWriter, error) {
	f, err := pcap.NewFile(path, frameType)
	if err != nil {
		return nil, err
	}
	return &PcapWriter{
		file:   f,
		path:   path,
		addrOf: addrOf,
	}, nil
}

func (w *PcapWriter) Name() string {
	return "pcap"
}

func (w *PcapWriter) Write(records *Records) error {
	frames := 0
	for _, rec := range records.Packets {
		if rec.Direction != DirectionTx {
			continue
		}
		data := pcap.Build(w.file.FrameType(), pcap.Datagram{
			Src:         w.addrOf(rec.Src),
			Dst:         w.addrOf(rec.Dst),
			SrcPort:     rec.SrcPort,
			DstPort:     rec.DstPort,
			PayloadSize: rec.Size,
			Ident:       uint16(rec.Seq),
		})
		if err := w.file.AppendFrame(pcap.Frame{Timestamp: rec.Time, Data: data}); err != nil {
			return errors.Wrapf(err, "write pcap frame")
		}
		frames++
	}
	logger.Infof("pcap trace written: %d frames", frames)
	return w.file.Sync()
}

func (w *PcapWriter) Close() error {
	return w.file.Close()
}

func (w *PcapWriter) Remove() error {
	_ = w.Close()
	return removeFiles(w.path)
}
