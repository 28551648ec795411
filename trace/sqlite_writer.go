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
	"database/sql"
	"os"

	// sqlite driver, registered as "sqlite"
	_ "github.com/glebarez/go-sqlite"
	"github.com/pkg/errors"
	"github.com/rs/xid"

	"github.com/openmanet/manet-ns/logger"
)

// SQLiteWriter stores the trace streams in the positions, packets and drops tables of a SQLite
// database.
type SQLiteWriter struct {
	*sql.DB
	path      string
	batchSize int
}

// NewSQLiteWriter creates the database file. An empty path picks a unique name. An existing file
// is an error.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if path == "" {
		path = "manet_ns_trace_" + xid.New().String() + ".sqlite3"
	}
	if _, err := os.Stat(path); err == nil {
		return nil, errors.Errorf("file %s already exists", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	w := &SQLiteWriter{
		DB:        db,
		path:      path,
		batchSize: 50000,
	}
	if err = w.createTables(); err != nil {
		_ = db.Close()
		_ = removeFiles(path)
		return nil, err
	}
	return w, nil
}

func (w *SQLiteWriter) Name() string {
	return "sqlite"
}

func (w *SQLiteWriter) Path() string {
	return w.path
}

func (w *SQLiteWriter) createTables() error {
	sqlStmt := `
	create table if not exists positions (
		id integer not null primary key,
		time_us integer,
		time real,
		node integer,
		x real,
		y real,
		z real
	);
	create table if not exists packets (
		id integer not null primary key,
		time_us integer,
		time real,
		type text,
		node integer,
		src integer,
		dst integer,
		src_port integer,
		dst_port integer,
		size integer,
		seq integer,
		echo integer
	);
	create table if not exists drops (
		id integer not null primary key,
		time_us integer,
		time real,
		node integer,
		src integer,
		dst integer,
		size integer,
		seq integer,
		reason text
	);
	`
	_, err := w.Exec(sqlStmt)
	return errors.Wrapf(err, "create tables in %s", w.path)
}

// insertBatches runs insert for rows [0, n) in transactions of at most batchSize rows.
func (w *SQLiteWriter) insertBatches(sqlStmt string, n int, args func(i int) []interface{}) error {
	statement, err := w.Prepare(sqlStmt)
	if err != nil {
		return err
	}
	defer statement.Close()

	for start := 0; start < n; start += w.batchSize {
		end := start + w.batchSize
		if end > n {
			end = n
		}
		tx, err := w.Begin()
		if err != nil {
			return err
		}
		stmt := tx.Stmt(statement)
		for i := start; i < end; i++ {
			if _, err = stmt.Exec(args(i)...); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		if err = tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func (w *SQLiteWriter) Write(records *Records) error {
	err := w.insertBatches(`insert into positions(time_us, time, node, x, y, z) values(?, ?, ?, ?, ?, ?)`,
		len(records.Positions), func(i int) []interface{} {
			rec := &records.Positions[i]
			return []interface{}{int64(rec.Time), float64(rec.Time) / 1e6, rec.Node, rec.X, rec.Y, rec.Z}
		})
	if err != nil {
		return errors.Wrapf(err, "insert positions")
	}

	err = w.insertBatches(`insert into packets(time_us, time, type, node, src, dst, src_port, dst_port, size, seq, echo)
	values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(records.Packets), func(i int) []interface{} {
			rec := &records.Packets[i]
			return []interface{}{int64(rec.Time), float64(rec.Time) / 1e6, rec.Direction.String(), rec.Node,
				rec.Src, rec.Dst, rec.SrcPort, rec.DstPort, rec.Size, int64(rec.Seq), rec.Echo}
		})
	if err != nil {
		return errors.Wrapf(err, "insert packets")
	}

	err = w.insertBatches(`insert into drops(time_us, time, node, src, dst, size, seq, reason) values(?, ?, ?, ?, ?, ?, ?, ?)`,
		len(records.Drops), func(i int) []interface{} {
			rec := &records.Drops[i]
			return []interface{}{int64(rec.Time), float64(rec.Time) / 1e6, rec.Node, rec.Src, rec.Dst, rec.Size,
				int64(rec.Seq), rec.Reason}
		})
	if err != nil {
		return errors.Wrapf(err, "insert drops")
	}
	logger.Infof("sqlite trace written: %s", w.path)
	return nil
}

func (w *SQLiteWriter) Remove() error {
	_ = w.Close()
	return removeFiles(w.path, w.path+"-journal")
}
