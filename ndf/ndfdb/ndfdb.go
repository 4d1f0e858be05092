// Package ndfdb persists object graphs into a SQLite database for
// editing workflows. It is an alternative persistence surface: the
// binary codec never depends on it, and a graph stored and loaded
// through it is structurally identical to the original.
//
// Row shape: ndf_file identifies the source archive member, ndf_object
// holds one row per graph object, ndf_property one row per property
// (container children link to their parent row and carry a position),
// and each scalar variant keeps its payload in a value table addressed
// by ndf_property.value_id.
package ndfdb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // database/sql driver

	"github.com/wgmod/eugen/internal/utils"
	"github.com/wgmod/eugen/ndf"
)

// DB wraps an open editing database with its schema applied.
type DB struct {
	db *sql.DB
}

// FileRow identifies the provenance of a stored graph.
type FileRow struct {
	VFSPath string
	DatPath string
	FSPath  string
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ndf_file(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		vfs_path TEXT,
		dat_path TEXT,
		fs_path TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS ndf_object(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ndf_id INTEGER NOT NULL REFERENCES ndf_file(id),
		obj_index INTEGER NOT NULL,
		object_name TEXT NOT NULL,
		class_name TEXT,
		export_path TEXT,
		is_top_object BOOLEAN
	);`,
	`CREATE TABLE IF NOT EXISTS ndf_property(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		object_id INTEGER NOT NULL REFERENCES ndf_object(id),
		property_name TEXT,
		property_index INTEGER,
		parent INTEGER REFERENCES ndf_property(id),
		position INTEGER,
		type INTEGER NOT NULL,
		is_import_reference BOOLEAN,
		value_id INTEGER
	);`,
	`CREATE TABLE IF NOT EXISTS ndf_bool(id INTEGER PRIMARY KEY AUTOINCREMENT, value BOOLEAN);`,
	`CREATE TABLE IF NOT EXISTS ndf_uint8(id INTEGER PRIMARY KEY AUTOINCREMENT, value INTEGER);`,
	`CREATE TABLE IF NOT EXISTS ndf_int16(id INTEGER PRIMARY KEY AUTOINCREMENT, value INTEGER);`,
	`CREATE TABLE IF NOT EXISTS ndf_uint16(id INTEGER PRIMARY KEY AUTOINCREMENT, value INTEGER);`,
	`CREATE TABLE IF NOT EXISTS ndf_int32(id INTEGER PRIMARY KEY AUTOINCREMENT, value INTEGER);`,
	`CREATE TABLE IF NOT EXISTS ndf_uint32(id INTEGER PRIMARY KEY AUTOINCREMENT, value INTEGER);`,
	`CREATE TABLE IF NOT EXISTS ndf_float32(id INTEGER PRIMARY KEY AUTOINCREMENT, value REAL);`,
	`CREATE TABLE IF NOT EXISTS ndf_float64(id INTEGER PRIMARY KEY AUTOINCREMENT, value REAL);`,
	`CREATE TABLE IF NOT EXISTS ndf_string(id INTEGER PRIMARY KEY AUTOINCREMENT, value TEXT);`,
	`CREATE TABLE IF NOT EXISTS ndf_widestring(id INTEGER PRIMARY KEY AUTOINCREMENT, value TEXT);`,
	`CREATE TABLE IF NOT EXISTS ndf_vec2(id INTEGER PRIMARY KEY AUTOINCREMENT, value_x NUMERIC, value_y NUMERIC);`,
	`CREATE TABLE IF NOT EXISTS ndf_vec3(id INTEGER PRIMARY KEY AUTOINCREMENT, value_x NUMERIC, value_y NUMERIC, value_z NUMERIC);`,
	`CREATE TABLE IF NOT EXISTS ndf_vec4(id INTEGER PRIMARY KEY AUTOINCREMENT, value_x NUMERIC, value_y NUMERIC, value_z NUMERIC, value_w NUMERIC);`,
	`CREATE TABLE IF NOT EXISTS ndf_color(id INTEGER PRIMARY KEY AUTOINCREMENT, value_r INTEGER, value_g INTEGER, value_b INTEGER, value_a INTEGER);`,
	`CREATE TABLE IF NOT EXISTS ndf_guid(id INTEGER PRIMARY KEY AUTOINCREMENT, value TEXT);`,
	`CREATE TABLE IF NOT EXISTS ndf_hash(id INTEGER PRIMARY KEY AUTOINCREMENT, value TEXT);`,
	`CREATE TABLE IF NOT EXISTS ndf_path(id INTEGER PRIMARY KEY AUTOINCREMENT, value TEXT);`,
	`CREATE TABLE IF NOT EXISTS ndf_reference(id INTEGER PRIMARY KEY AUTOINCREMENT, value TEXT);`,
}

// Open opens (creating if necessary) an editing database at path and
// applies the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, utils.WrapError("open database", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, utils.WrapError("apply schema", err)
		}
	}
	return &DB{db: db}, nil
}

// Close releases the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// StoreGraph persists a graph in one transaction, returning the
// ndf_file id identifying it.
func (d *DB) StoreGraph(file FileRow, g *ndf.Graph) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, utils.WrapError("begin transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO ndf_file(vfs_path, dat_path, fs_path) VALUES(?, ?, ?)`,
		file.VFSPath, file.DatPath, file.FSPath)
	if err != nil {
		return 0, utils.WrapError("insert file row", err)
	}
	ndfID, err := res.LastInsertId()
	if err != nil {
		return 0, utils.WrapError("file row id", err)
	}

	for i, name := range g.ObjectNames() {
		obj, _ := g.Object(name)
		res, err := tx.Exec(
			`INSERT INTO ndf_object(ndf_id, obj_index, object_name, class_name, export_path, is_top_object)
			 VALUES(?, ?, ?, ?, ?, ?)`,
			ndfID, i, obj.Name, obj.ClassName, obj.ExportPath, obj.IsTopObject)
		if err != nil {
			return 0, utils.WrapError("insert object row", err)
		}
		objectID, err := res.LastInsertId()
		if err != nil {
			return 0, utils.WrapError("object row id", err)
		}
		for pos, p := range obj.Properties {
			if err := storeProperty(tx, objectID, sql.NullInt64{}, pos, p); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, utils.WrapError("commit", err)
	}
	return ndfID, nil
}

func insertValue(tx *sql.Tx, table string, cols string, args ...any) (sql.NullInt64, error) {
	marks := "?"
	for i := 1; i < len(args); i++ {
		marks += ", ?"
	}
	res, err := tx.Exec(fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s)", table, cols, marks), args...)
	if err != nil {
		return sql.NullInt64{}, utils.WrapError("insert "+table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return sql.NullInt64{}, utils.WrapError(table+" row id", err)
	}
	return sql.NullInt64{Int64: id, Valid: true}, nil
}

//nolint:gocyclo // one arm per closed-sum variant
func storeProperty(tx *sql.Tx, objectID int64, parent sql.NullInt64, position int, p ndf.Property) error {
	var valueID sql.NullInt64
	var err error
	isImport := false

	switch v := p.(type) {
	case *ndf.Bool:
		valueID, err = insertValue(tx, "ndf_bool", "value", v.Value)
	case *ndf.UInt8:
		valueID, err = insertValue(tx, "ndf_uint8", "value", v.Value)
	case *ndf.Int16:
		valueID, err = insertValue(tx, "ndf_int16", "value", v.Value)
	case *ndf.UInt16:
		valueID, err = insertValue(tx, "ndf_uint16", "value", v.Value)
	case *ndf.Int32:
		valueID, err = insertValue(tx, "ndf_int32", "value", v.Value)
	case *ndf.UInt32:
		valueID, err = insertValue(tx, "ndf_uint32", "value", v.Value)
	case *ndf.Float32:
		valueID, err = insertValue(tx, "ndf_float32", "value", v.Value)
	case *ndf.Float64:
		valueID, err = insertValue(tx, "ndf_float64", "value", v.Value)
	case *ndf.String:
		valueID, err = insertValue(tx, "ndf_string", "value", v.Value)
	case *ndf.WideString:
		valueID, err = insertValue(tx, "ndf_widestring", "value", v.Value)
	case *ndf.F32Vec2:
		valueID, err = insertValue(tx, "ndf_vec2", "value_x, value_y", v.X, v.Y)
	case *ndf.S32Vec2:
		valueID, err = insertValue(tx, "ndf_vec2", "value_x, value_y", v.X, v.Y)
	case *ndf.F32Vec3:
		valueID, err = insertValue(tx, "ndf_vec3", "value_x, value_y, value_z", v.X, v.Y, v.Z)
	case *ndf.S32Vec3:
		valueID, err = insertValue(tx, "ndf_vec3", "value_x, value_y, value_z", v.X, v.Y, v.Z)
	case *ndf.F32Vec4:
		valueID, err = insertValue(tx, "ndf_vec4", "value_x, value_y, value_z, value_w", v.X, v.Y, v.Z, v.W)
	case *ndf.Color:
		valueID, err = insertValue(tx, "ndf_color", "value_r, value_g, value_b, value_a", v.R, v.G, v.B, v.A)
	case *ndf.GUID:
		valueID, err = insertValue(tx, "ndf_guid", "value", v.Hex)
	case *ndf.Hash:
		valueID, err = insertValue(tx, "ndf_hash", "value", v.Hex)
	case *ndf.LocHash:
		valueID, err = insertValue(tx, "ndf_hash", "value", v.Hex)
	case *ndf.PathReference:
		valueID, err = insertValue(tx, "ndf_path", "value", v.Path)
	case *ndf.ObjectReference:
		valueID, err = insertValue(tx, "ndf_reference", "value", v.Object)
	case *ndf.ImportReference:
		isImport = true
		valueID, err = insertValue(tx, "ndf_reference", "value", v.Import)
	case *ndf.List, *ndf.Map, *ndf.Pair:
		// containers persist structurally through child rows
	default:
		return utils.WrapError(fmt.Sprintf("property type %s", p.Type()), utils.ErrNotImplemented)
	}
	if err != nil {
		return err
	}

	res, err := tx.Exec(
		`INSERT INTO ndf_property(object_id, property_name, property_index, parent, position, type, is_import_reference, value_id)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		objectID, p.Name(), position, parent, position, uint32(p.Type()), isImport, valueID)
	if err != nil {
		return utils.WrapError("insert property row", err)
	}
	propID, err := res.LastInsertId()
	if err != nil {
		return utils.WrapError("property row id", err)
	}
	self := sql.NullInt64{Int64: propID, Valid: true}

	switch v := p.(type) {
	case *ndf.List:
		for i, item := range v.Items {
			if err := storeProperty(tx, objectID, self, i, item); err != nil {
				return err
			}
		}
	case *ndf.Map:
		for i, item := range v.Items {
			if err := storeProperty(tx, objectID, self, 2*i, item.Key); err != nil {
				return err
			}
			if err := storeProperty(tx, objectID, self, 2*i+1, item.Value); err != nil {
				return err
			}
		}
	case *ndf.Pair:
		if err := storeProperty(tx, objectID, self, 0, v.First); err != nil {
			return err
		}
		if err := storeProperty(tx, objectID, self, 1, v.Second); err != nil {
			return err
		}
	}
	return nil
}
