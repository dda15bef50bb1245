// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists committed engine events in sqlite and answers
// filtered queries over them.
package eventdb

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aurum-network/aurum/aurum"
	"github.com/aurum-network/aurum/runtime"
)

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	engine BLOB NOT NULL,
	name TEXT NOT NULL,
	actor BLOB NOT NULL,
	time INTEGER NOT NULL,
	attrs TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS event_engine ON event(engine);
CREATE INDEX IF NOT EXISTS event_actor ON event(actor);
CREATE INDEX IF NOT EXISTS event_name ON event(name);`

// EventDB is the sqlite-backed event log. It implements runtime.EventWriter.
type EventDB struct {
	path string
	db   *sql.DB
}

// New creates or opens the event db at the given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}
	return &EventDB{path, db}, nil
}

// NewMem creates an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close closes the event db.
func (db *EventDB) Close() {
	db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// Append stores the events of one committed call in a single transaction.
func (db *EventDB) Append(events []*runtime.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT INTO event(engine, name, actor, time, attrs) VALUES(?,?,?,?,?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, ev := range events {
		attrs, err := json.Marshal(ev.Attrs)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.Exec(
			ev.Engine.Bytes(),
			ev.Name,
			ev.Actor.Bytes(),
			ev.Time,
			string(attrs),
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Order is the sort direction of filter results.
type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// TimeRange bounds results by event time, inclusive.
type TimeRange struct {
	From uint64
	To   uint64
}

// Options pages filter results.
type Options struct {
	Offset uint64
	Limit  uint64
}

// Filter selects stored events. Nil/empty fields match everything.
type Filter struct {
	Engine  *aurum.Address
	Actor   *aurum.Address
	Name    string
	Range   *TimeRange
	Options *Options
	Order   Order
}

// Event is a stored event row.
type Event struct {
	Seq    uint64         `json:"seq"`
	Engine aurum.Address  `json:"engine"`
	Name   string         `json:"name"`
	Actor  aurum.Address  `json:"actor"`
	Time   uint64         `json:"time"`
	Attrs  []runtime.Attr `json:"attrs"`
}

// FilterEvents returns stored events matching the filter.
func (db *EventDB) FilterEvents(ctx context.Context, filter *Filter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT * FROM event")
	}
	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	if filter.Engine != nil {
		args = append(args, filter.Engine.Bytes())
		stmt += " AND engine = ? "
	}
	if filter.Actor != nil {
		args = append(args, filter.Actor.Bytes())
		stmt += " AND actor = ? "
	}
	if filter.Name != "" {
		args = append(args, filter.Name)
		stmt += " AND name = ? "
	}
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND time >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND time <= ? "
		}
	}
	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}
	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *EventDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq    uint64
			engine []byte
			name   string
			actor  []byte
			time   uint64
			attrs  string
		)
		if err := rows.Scan(&seq, &engine, &name, &actor, &time, &attrs); err != nil {
			return nil, err
		}
		ev := &Event{
			Seq:    seq,
			Engine: aurum.BytesToAddress(engine),
			Name:   name,
			Actor:  aurum.BytesToAddress(actor),
			Time:   time,
		}
		if err := json.Unmarshal([]byte(attrs), &ev.Attrs); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
