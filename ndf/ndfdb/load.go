package ndfdb

import (
	"database/sql"
	"fmt"

	"github.com/wgmod/eugen/internal/utils"
	"github.com/wgmod/eugen/ndf"
)

// LoadGraph reconstructs the graph stored under an ndf_file id.
func (d *DB) LoadGraph(ndfID int64) (*ndf.Graph, error) {
	g := ndf.NewGraph()

	rows, err := d.db.Query(
		`SELECT id, object_name, class_name, export_path, is_top_object
		 FROM ndf_object WHERE ndf_id = ? ORDER BY obj_index`, ndfID)
	if err != nil {
		return nil, utils.WrapError("query objects", err)
	}
	defer rows.Close()

	type objRow struct {
		id  int64
		obj *ndf.Object
	}
	var objs []objRow
	for rows.Next() {
		var id int64
		obj := &ndf.Object{}
		if err := rows.Scan(&id, &obj.Name, &obj.ClassName, &obj.ExportPath, &obj.IsTopObject); err != nil {
			return nil, utils.WrapError("scan object row", err)
		}
		objs = append(objs, objRow{id: id, obj: obj})
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapError("iterate object rows", err)
	}

	for _, o := range objs {
		props, err := d.loadChildren(o.id, sql.NullInt64{})
		if err != nil {
			return nil, err
		}
		o.obj.Properties = props
		if err := g.AddObject(o.obj); err != nil {
			return nil, err
		}
	}
	return g, nil
}

type propRow struct {
	id       int64
	name     string
	typ      uint32
	isImport bool
	valueID  sql.NullInt64
}

// loadChildren loads the ordered property rows below one parent (the
// object itself when parent is null).
func (d *DB) loadChildren(objectID int64, parent sql.NullInt64) ([]ndf.Property, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parent.Valid {
		rows, err = d.db.Query(
			`SELECT id, property_name, type, is_import_reference, value_id
			 FROM ndf_property WHERE object_id = ? AND parent = ? ORDER BY position`,
			objectID, parent.Int64)
	} else {
		rows, err = d.db.Query(
			`SELECT id, property_name, type, is_import_reference, value_id
			 FROM ndf_property WHERE object_id = ? AND parent IS NULL ORDER BY position`,
			objectID)
	}
	if err != nil {
		return nil, utils.WrapError("query properties", err)
	}
	defer rows.Close()

	var prs []propRow
	for rows.Next() {
		var pr propRow
		if err := rows.Scan(&pr.id, &pr.name, &pr.typ, &pr.isImport, &pr.valueID); err != nil {
			return nil, utils.WrapError("scan property row", err)
		}
		prs = append(prs, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapError("iterate property rows", err)
	}

	// A parent without rows yields nil, matching a property list that
	// was never appended to.
	var props []ndf.Property
	for _, pr := range prs {
		p, err := d.loadProperty(objectID, pr)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

func (d *DB) scalar(table string, valueID sql.NullInt64, dest ...any) error {
	if !valueID.Valid {
		return utils.WrapError(table+" value id is null", utils.ErrFormat)
	}
	cols := "value"
	switch len(dest) {
	case 2:
		cols = "value_x, value_y"
	case 3:
		cols = "value_x, value_y, value_z"
	case 4:
		cols = "value_x, value_y, value_z, value_w"
	}
	if table == "ndf_color" {
		cols = "value_r, value_g, value_b, value_a"
	}
	row := d.db.QueryRow(fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", cols, table), valueID.Int64)
	return utils.WrapError("load "+table, row.Scan(dest...))
}

//nolint:gocyclo // one arm per closed-sum variant
func (d *DB) loadProperty(objectID int64, pr propRow) (ndf.Property, error) {
	switch t := ndf.Type(pr.typ); t {
	case ndf.TypeBool:
		var v bool
		if err := d.scalar("ndf_bool", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewBool(pr.name, v), nil
	case ndf.TypeUInt8:
		var v uint8
		if err := d.scalar("ndf_uint8", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewUInt8(pr.name, v), nil
	case ndf.TypeInt16:
		var v int16
		if err := d.scalar("ndf_int16", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewInt16(pr.name, v), nil
	case ndf.TypeUInt16:
		var v uint16
		if err := d.scalar("ndf_uint16", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewUInt16(pr.name, v), nil
	case ndf.TypeInt32:
		var v int32
		if err := d.scalar("ndf_int32", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewInt32(pr.name, v), nil
	case ndf.TypeUInt32:
		var v uint32
		if err := d.scalar("ndf_uint32", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewUInt32(pr.name, v), nil
	case ndf.TypeFloat32:
		var v float32
		if err := d.scalar("ndf_float32", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewFloat32(pr.name, v), nil
	case ndf.TypeFloat64:
		var v float64
		if err := d.scalar("ndf_float64", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewFloat64(pr.name, v), nil
	case ndf.TypeString:
		var v string
		if err := d.scalar("ndf_string", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewString(pr.name, v), nil
	case ndf.TypeWideString:
		var v string
		if err := d.scalar("ndf_widestring", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewWideString(pr.name, v), nil
	case ndf.TypeF32Vec2:
		var x, y float32
		if err := d.scalar("ndf_vec2", pr.valueID, &x, &y); err != nil {
			return nil, err
		}
		return ndf.NewF32Vec2(pr.name, x, y), nil
	case ndf.TypeS32Vec2:
		var x, y int32
		if err := d.scalar("ndf_vec2", pr.valueID, &x, &y); err != nil {
			return nil, err
		}
		return ndf.NewS32Vec2(pr.name, x, y), nil
	case ndf.TypeF32Vec3:
		var x, y, z float32
		if err := d.scalar("ndf_vec3", pr.valueID, &x, &y, &z); err != nil {
			return nil, err
		}
		return ndf.NewF32Vec3(pr.name, x, y, z), nil
	case ndf.TypeS32Vec3:
		var x, y, z int32
		if err := d.scalar("ndf_vec3", pr.valueID, &x, &y, &z); err != nil {
			return nil, err
		}
		return ndf.NewS32Vec3(pr.name, x, y, z), nil
	case ndf.TypeF32Vec4:
		var x, y, z, w float32
		if err := d.scalar("ndf_vec4", pr.valueID, &x, &y, &z, &w); err != nil {
			return nil, err
		}
		return ndf.NewF32Vec4(pr.name, x, y, z, w), nil
	case ndf.TypeColor:
		var r, g, b, a uint8
		if err := d.scalar("ndf_color", pr.valueID, &r, &g, &b, &a); err != nil {
			return nil, err
		}
		return ndf.NewColor(pr.name, r, g, b, a), nil
	case ndf.TypeGUID:
		var v string
		if err := d.scalar("ndf_guid", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewGUID(pr.name, v), nil
	case ndf.TypeHash:
		var v string
		if err := d.scalar("ndf_hash", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewHash(pr.name, v), nil
	case ndf.TypeLocHash:
		var v string
		if err := d.scalar("ndf_hash", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewLocHash(pr.name, v), nil
	case ndf.TypePathReference:
		var v string
		if err := d.scalar("ndf_path", pr.valueID, &v); err != nil {
			return nil, err
		}
		return ndf.NewPathReference(pr.name, v), nil
	case ndf.TypeReference:
		var v string
		if err := d.scalar("ndf_reference", pr.valueID, &v); err != nil {
			return nil, err
		}
		if pr.isImport {
			return ndf.NewImportReference(pr.name, v), nil
		}
		return ndf.NewObjectReference(pr.name, v), nil
	case ndf.TypeList:
		children, err := d.loadChildren(objectID, sql.NullInt64{Int64: pr.id, Valid: true})
		if err != nil {
			return nil, err
		}
		return ndf.NewList(pr.name, children...), nil
	case ndf.TypeMap:
		children, err := d.loadChildren(objectID, sql.NullInt64{Int64: pr.id, Valid: true})
		if err != nil {
			return nil, err
		}
		if len(children)%2 != 0 {
			return nil, utils.WrapError(fmt.Sprintf("map %q has %d children", pr.name, len(children)), utils.ErrFormat)
		}
		m := ndf.NewMap(pr.name)
		for i := 0; i < len(children); i += 2 {
			m.Items = append(m.Items, ndf.MapItem{Key: children[i], Value: children[i+1]})
		}
		return m, nil
	case ndf.TypePair:
		children, err := d.loadChildren(objectID, sql.NullInt64{Int64: pr.id, Valid: true})
		if err != nil {
			return nil, err
		}
		if len(children) != 2 {
			return nil, utils.WrapError(fmt.Sprintf("pair %q has %d children", pr.name, len(children)), utils.ErrFormat)
		}
		return ndf.NewPair(pr.name, children[0], children[1]), nil
	default:
		return nil, utils.WrapError(fmt.Sprintf("stored property type 0x%02X", pr.typ), utils.ErrNotImplemented)
	}
}
