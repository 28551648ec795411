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
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/openmanet/manet-ns/logger"
	. "github.com/openmanet/manet-ns/types"
)

const (
	PositionsFileName = "positions.csv"
	PacketsFileName   = "packets.csv"
)

// CSVWriter writes the position trace (time,node,x,y) and the packet trace (Time,Type,Size, or
// Time,Type,Src,Dst,Size when addressed) as CSV files.
type CSVWriter struct {
	positionsFile *os.File
	packetsFile   *os.File
	addressed     bool

	// AddrOf renders a node in the Src and Dst columns. Node ids are used when nil.
	AddrOf func(id NodeId) string
}

// NewCSVWriter creates both trace files, replacing existing ones.
func NewCSVWriter(positionsPath, packetsPath string, addressed bool) (*CSVWriter, error) {
	positionsFile, err := os.Create(positionsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "create position trace")
	}
	packetsFile, err := os.Create(packetsPath)
	if err != nil {
		_ = positionsFile.Close()
		_ = removeFiles(positionsPath)
		return nil, errors.Wrapf(err, "create packet trace")
	}
	return &CSVWriter{
		positionsFile: positionsFile,
		packetsFile:   packetsFile,
		addressed:     addressed,
	}, nil
}

func (w *CSVWriter) Name() string {
	return "csv"
}

func (w *CSVWriter) addr(id NodeId) string {
	if w.AddrOf != nil {
		return w.AddrOf(id)
	}
	return strconv.Itoa(id)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func (w *CSVWriter) Write(records *Records) error {
	if err := w.writePositions(records.Positions); err != nil {
		return errors.Wrapf(err, "write %s", w.positionsFile.Name())
	}
	if err := w.writePackets(records.Packets); err != nil {
		return errors.Wrapf(err, "write %s", w.packetsFile.Name())
	}
	logger.Infof("csv trace written: %s (%d rows), %s (%d rows)", w.positionsFile.Name(), len(records.Positions),
		w.packetsFile.Name(), len(records.Packets))
	return nil
}

func (w *CSVWriter) writePositions(positions []PositionRecord) error {
	cw := csv.NewWriter(w.positionsFile)
	if err := cw.Write([]string{"time", "node", "x", "y"}); err != nil {
		return err
	}
	for _, rec := range positions {
		err := cw.Write([]string{
			FormatSeconds(rec.Time),
			strconv.Itoa(rec.Node),
			formatCoord(rec.X),
			formatCoord(rec.Y),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (w *CSVWriter) writePackets(packets []PacketRecord) error {
	cw := csv.NewWriter(w.packetsFile)
	header := []string{"Time", "Type", "Size"}
	if w.addressed {
		header = []string{"Time", "Type", "Src", "Dst", "Size"}
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range packets {
		row := []string{FormatSeconds(rec.Time), rec.Direction.String()}
		if w.addressed {
			row = append(row, w.addr(rec.Src), w.addr(rec.Dst))
		}
		row = append(row, strconv.Itoa(rec.Size))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (w *CSVWriter) Close() error {
	err1 := w.positionsFile.Close()
	err2 := w.packetsFile.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func (w *CSVWriter) Remove() error {
	_ = w.Close()
	return removeFiles(w.positionsFile.Name(), w.packetsFile.Name())
}
