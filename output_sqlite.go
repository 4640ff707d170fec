package cosi

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteWriter is an optional side-table sink for --output-arg-edges,
// --output-mut-gens and --output-recomb-locs: it records ARG edges and
// placed mutations to a
// SQLite database rather than the flat native/matrix formats, for
// downstream querying. Grounded directly on the teacher's
// sqlite_logger.go (OpenSQLiteDB/newTable pattern), adapted from
// per-host epidemiological tables to ARG edges and mutations.
type SQLiteWriter struct {
	path       string
	instanceID int
}

// NewSQLiteWriter builds a writer targeting the given database file for
// simulation instance i.
func NewSQLiteWriter(path string, i int) *SQLiteWriter {
	return &SQLiteWriter{path: path, instanceID: i}
}

// OpenSQLiteDB opens (creating if absent) a SQLite database at path.
func OpenSQLiteDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, NewSimError(ErrIO, "opening sqlite database", err)
	}
	return db, nil
}

// Init creates the Edge and Mutation tables for this instance.
func (w *SQLiteWriter) Init() error {
	db, err := OpenSQLiteDB(w.path)
	if err != nil {
		return err
	}
	defer db.Close()

	edgeTable := fmt.Sprintf("Edge%03d", w.instanceID)
	mutTable := fmt.Sprintf("Mutation%03d", w.instanceID)
	stmts := []string{
		fmt.Sprintf(`create table %s (id integer not null primary key, child_seq integer, parent_seq integer, child_gen real, parent_gen real, kind integer, pop text, seg_beg real, seg_end real);`, edgeTable),
		fmt.Sprintf(`delete from %s;`, edgeTable),
		fmt.Sprintf(`create table %s (id integer not null primary key, pos real, bp integer, generation real, pop text);`, mutTable),
		fmt.Sprintf(`delete from %s;`, mutTable),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return NewSimError(ErrIO, "initializing sqlite tables", fmt.Errorf("%q: %s", err, stmt))
		}
	}
	return nil
}

// WriteEdges inserts every ARG edge into the instance's Edge table.
func (w *SQLiteWriter) WriteEdges(edges []ARGEdge) error {
	db, err := OpenSQLiteDB(w.path)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.Begin()
	if err != nil {
		return NewSimError(ErrIO, "beginning sqlite transaction", err)
	}
	tableName := fmt.Sprintf("Edge%03d", w.instanceID)
	stmt, err := tx.Prepare("insert into " + tableName + "(child_seq, parent_seq, child_gen, parent_gen, kind, pop, seg_beg, seg_end) values(?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return NewSimError(ErrIO, "preparing sqlite insert", err)
	}
	defer stmt.Close()
	for _, e := range edges {
		var beg, end float64
		if segs := e.Seglist.Segments(); len(segs) > 0 {
			beg, end = float64(segs[0].Beg), float64(segs[len(segs)-1].End)
		}
		if _, err := stmt.Exec(e.Child.Seq, e.Parent.Seq, float64(e.ChildGen), float64(e.ParentGen), int(e.Kind), string(e.Pop), beg, end); err != nil {
			return NewSimError(ErrIO, "inserting edge row", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return NewSimError(ErrIO, "committing sqlite transaction", err)
	}
	return nil
}

// WriteMutations inserts every placed mutation into the instance's
// Mutation table.
func (w *SQLiteWriter) WriteMutations(muts []Mutation) error {
	db, err := OpenSQLiteDB(w.path)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.Begin()
	if err != nil {
		return NewSimError(ErrIO, "beginning sqlite transaction", err)
	}
	tableName := fmt.Sprintf("Mutation%03d", w.instanceID)
	stmt, err := tx.Prepare("insert into " + tableName + "(pos, bp, generation, pop) values(?, ?, ?, ?)")
	if err != nil {
		return NewSimError(ErrIO, "preparing sqlite insert", err)
	}
	defer stmt.Close()
	for _, m := range muts {
		if _, err := stmt.Exec(float64(m.Pos), m.BP, float64(m.Generation), string(m.Pop)); err != nil {
			return NewSimError(ErrIO, "inserting mutation row", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return NewSimError(ErrIO, "committing sqlite transaction", err)
	}
	return nil
}
