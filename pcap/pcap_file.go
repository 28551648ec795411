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

package pcap

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"

	"github.com/openmanet/manet-ns/logger"
)

type FrameType int

const (
	FrameTypeOff FrameType = iota
	FrameTypeIPv4
	FrameTypeEthernet
	FrameTypeUnknown
)

const (
	FrameTypeOffStr      string = "off"
	FrameTypeIPv4Str     string = "ipv4"
	FrameTypeEthernetStr string = "ethernet"
)

const (
	linkTypeEthernet    = 1
	linkTypeIPv4        = 228
	pcapMagicNumber     = 0xA1B2C3D4
	pcapVersionMajor    = 2
	pcapVersionMinor    = 4
	pcapFileHeaderSize  = 24
	pcapFrameHeaderSize = 16
	pcapSnapLen         = 65535
)

// File represents a PCAP file
type File interface {
	AppendFrame(frame Frame) error
	FrameType() FrameType
	Sync() error
	Close() error
}

// Frame is one captured packet. Data starts at the link layer of the file's frame type.
type Frame struct {
	Timestamp uint64
	Data      []byte
}

type file struct {
	fd        *os.File
	frameType FrameType
}

// NewFile creates a new PCAP file for frames of the given type, replacing an existing file.
func NewFile(filename string, frameType FrameType) (File, error) {
	var linkType uint32
	switch frameType {
	case FrameTypeIPv4:
		linkType = linkTypeIPv4
	case FrameTypeEthernet:
		linkType = linkTypeEthernet
	default:
		return nil, errors.Errorf("invalid PCAP frame type: %d", frameType)
	}

	fd, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "create pcap file")
	}
	pf := &file{
		fd:        fd,
		frameType: frameType,
	}
	if err = pf.writeHeader(linkType); err != nil {
		_ = pf.Close()
		_ = os.Remove(filename)
		return nil, err
	}
	logger.Debugf("pcap file %s opened, frame type %s", filename, frameType)
	return pf, nil
}

func ParseFrameTypeStr(tp string) FrameType {
	switch tp {
	case FrameTypeOffStr, "":
		return FrameTypeOff
	case FrameTypeIPv4Str:
		return FrameTypeIPv4
	case FrameTypeEthernetStr:
		return FrameTypeEthernet
	default:
		return FrameTypeUnknown
	}
}

func (ft FrameType) String() string {
	switch ft {
	case FrameTypeOff:
		return FrameTypeOffStr
	case FrameTypeIPv4:
		return FrameTypeIPv4Str
	case FrameTypeEthernet:
		return FrameTypeEthernetStr
	default:
		return "unknown"
	}
}

func (pf *file) FrameType() FrameType {
	return pf.frameType
}

func (pf *file) AppendFrame(frame Frame) error {
	var header [pcapFrameHeaderSize]byte
	capLen := len(frame.Data)
	if capLen > pcapSnapLen {
		capLen = pcapSnapLen
	}
	binary.LittleEndian.PutUint32(header[:4], uint32(frame.Timestamp/1000000))
	binary.LittleEndian.PutUint32(header[4:8], uint32(frame.Timestamp%1000000))
	binary.LittleEndian.PutUint32(header[8:12], uint32(capLen))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(frame.Data)))

	if _, err := pf.fd.Write(header[:]); err != nil {
		return err
	}
	_, err := pf.fd.Write(frame.Data[:capLen])
	return err
}

func (pf *file) Sync() error {
	return pf.fd.Sync()
}

func (pf *file) Close() error {
	return pf.fd.Close()
}

func (pf *file) writeHeader(linkType uint32) error {
	var header [pcapFileHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:4], pcapMagicNumber)
	binary.LittleEndian.PutUint16(header[4:6], pcapVersionMajor)
	binary.LittleEndian.PutUint16(header[6:8], pcapVersionMinor)
	binary.LittleEndian.PutUint32(header[16:20], pcapSnapLen)
	binary.LittleEndian.PutUint32(header[20:24], linkType)
	if _, err := pf.fd.Write(header[:]); err != nil {
		return err
	}
	return pf.fd.Sync()
}
