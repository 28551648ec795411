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
	"net/netip"
)

const (
	ipv4HeaderSize     = 20
	udpHeaderSize      = 8
	ethernetHeaderSize = 14
	ipProtoUDP         = 17
	defaultTTL         = 64
	etherTypeIPv4      = 0x0800
)

// Datagram describes a UDP datagram to be rendered as a captured frame. The payload is zero-filled.
type Datagram struct {
	Src, Dst         netip.Addr
	SrcPort, DstPort uint16
	PayloadSize      int
	Ident            uint16
}

// BuildIPv4 renders the datagram as an IPv4 packet with a UDP header.
func BuildIPv4(dg Datagram) []byte {
	total := ipv4HeaderSize + udpHeaderSize + dg.PayloadSize
	if total > 0xFFFF {
		total = 0xFFFF
	}
	pkt := make([]byte, total)

	ip := pkt[:ipv4HeaderSize]
	ip[0] = 0x45
	binary.BigEndian.PutUint16(ip[2:4], uint16(total))
	binary.BigEndian.PutUint16(ip[4:6], dg.Ident)
	ip[8] = defaultTTL
	ip[9] = ipProtoUDP
	src, dst := dg.Src.As4(), dg.Dst.As4()
	copy(ip[12:16], src[:])
	copy(ip[16:20], dst[:])
	binary.BigEndian.PutUint16(ip[10:12], checksum(ip, 0))

	udp := pkt[ipv4HeaderSize:]
	binary.BigEndian.PutUint16(udp[0:2], dg.SrcPort)
	binary.BigEndian.PutUint16(udp[2:4], dg.DstPort)
	binary.BigEndian.PutUint16(udp[4:6], uint16(len(udp)))

	// pseudo header sum
	var pseudo uint32
	pseudo += uint32(binary.BigEndian.Uint16(src[0:2])) + uint32(binary.BigEndian.Uint16(src[2:4]))
	pseudo += uint32(binary.BigEndian.Uint16(dst[0:2])) + uint32(binary.BigEndian.Uint16(dst[2:4]))
	pseudo += ipProtoUDP + uint32(len(udp))
	sum := checksum(udp, pseudo)
	if sum == 0 {
		sum = 0xFFFF
	}
	binary.BigEndian.PutUint16(udp[6:8], sum)
	return pkt
}

// BuildEthernet renders the datagram behind an Ethernet header with locally administered MAC
// addresses derived from the IPv4 addresses.
func BuildEthernet(dg Datagram) []byte {
	ip := BuildIPv4(dg)
	frame := make([]byte, ethernetHeaderSize+len(ip))
	dstMac, srcMac := macOf(dg.Dst), macOf(dg.Src)
	copy(frame[0:6], dstMac[:])
	copy(frame[6:12], srcMac[:])
	binary.BigEndian.PutUint16(frame[12:14], etherTypeIPv4)
	copy(frame[ethernetHeaderSize:], ip)
	return frame
}

// Build renders the datagram for the given frame type.
func Build(ft FrameType, dg Datagram) []byte {
	if ft == FrameTypeEthernet {
		return BuildEthernet(dg)
	}
	return BuildIPv4(dg)
}

func macOf(addr netip.Addr) [6]byte {
	a4 := addr.As4()
	return [6]byte{0x02, 0x00, a4[0], a4[1], a4[2], a4[3]}
}

// checksum is the internet checksum of data, starting from an initial sum.
func checksum(data []byte, initial uint32) uint16 {
	sum := initial
	for i := 0; i+1 < len(data); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(data[i : i+2]))
	}
	if len(data)%2 == 1 {
		sum += uint32(data[len(data)-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}
