package ndf

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/wgmod/eugen/internal/utils"
)

// readProperty reads one inline-tagged property: the type tag, the
// reference discriminator when the tag is TypeReference, and the
// payload. Used for container elements; object property streams read
// their tags in the stream loop and call the same dispatch.
func readProperty(d *decoder) (Property, error) {
	tag, err := d.r.U32()
	if err != nil {
		return nil, err
	}
	return readTaggedProperty(d, Type(tag))
}

func readTaggedProperty(d *decoder, tag Type) (Property, error) {
	var p Property
	if tag == TypeReference {
		disc, err := d.r.U32()
		if err != nil {
			return nil, err
		}
		switch disc {
		case refObject:
			p = &ObjectReference{}
		case refImport:
			p = &ImportReference{}
		default:
			return nil, utils.Violation(d.r.Tell()-4, "reference discriminator 0x%08X", disc)
		}
	} else {
		var err error
		p, err = newProperty(tag)
		if err != nil {
			return nil, err
		}
	}
	if err := p.readPayload(d); err != nil {
		return nil, err
	}
	return p, nil
}

// writeProperty writes one inline-tagged property. Reference variants
// write their discriminator inside writePayload, directly after the
// shared TypeReference tag.
func writeProperty(e *encoder, p Property) error {
	if err := e.w.U32(uint32(p.Type())); err != nil {
		return err
	}
	return p.writePayload(e)
}

func (p *Bool) readPayload(d *decoder) error {
	v, err := d.r.U8()
	if err != nil {
		return err
	}
	p.Value = v != 0
	return nil
}

func (p *Bool) writePayload(e *encoder) error {
	var v uint8
	if p.Value {
		v = 1
	}
	return e.w.U8(v)
}

func (p *UInt8) readPayload(d *decoder) error {
	v, err := d.r.U8()
	p.Value = v
	return err
}

func (p *UInt8) writePayload(e *encoder) error {
	return e.w.U8(p.Value)
}

func (p *Int16) readPayload(d *decoder) error {
	v, err := d.r.I16()
	p.Value = v
	return err
}

func (p *Int16) writePayload(e *encoder) error {
	return e.w.I16(p.Value)
}

func (p *UInt16) readPayload(d *decoder) error {
	v, err := d.r.U16()
	p.Value = v
	return err
}

func (p *UInt16) writePayload(e *encoder) error {
	return e.w.U16(p.Value)
}

func (p *Int32) readPayload(d *decoder) error {
	v, err := d.r.I32()
	p.Value = v
	return err
}

func (p *Int32) writePayload(e *encoder) error {
	return e.w.I32(p.Value)
}

func (p *UInt32) readPayload(d *decoder) error {
	v, err := d.r.U32()
	p.Value = v
	return err
}

func (p *UInt32) writePayload(e *encoder) error {
	return e.w.U32(p.Value)
}

func (p *Float32) readPayload(d *decoder) error {
	v, err := d.r.F32()
	p.Value = v
	return err
}

func (p *Float32) writePayload(e *encoder) error {
	return e.w.F32(p.Value)
}

func (p *Float64) readPayload(d *decoder) error {
	v, err := d.r.F64()
	p.Value = v
	return err
}

func (p *Float64) writePayload(e *encoder) error {
	return e.w.F64(p.Value)
}

func (p *String) readPayload(d *decoder) error {
	idx, err := d.r.U32()
	if err != nil {
		return err
	}
	p.Value, err = d.stringAt(idx)
	return err
}

func (p *String) writePayload(e *encoder) error {
	idx, err := e.strings.Intern(p.Value)
	if err != nil {
		return err
	}
	return e.w.U32(idx)
}

func (p *PathReference) readPayload(d *decoder) error {
	idx, err := d.r.U32()
	if err != nil {
		return err
	}
	p.Path, err = d.stringAt(idx)
	return err
}

func (p *PathReference) writePayload(e *encoder) error {
	idx, err := e.strings.Intern(p.Path)
	if err != nil {
		return err
	}
	return e.w.U32(idx)
}

func (p *WideString) readPayload(d *decoder) error {
	length, err := d.r.U32()
	if err != nil {
		return err
	}
	if length%2 != 0 {
		return utils.Violation(d.r.Tell()-4, "wide string byte length %d is odd", length)
	}
	raw, err := d.r.Bytes(int(length))
	if err != nil {
		return err
	}
	p.Value, err = Utf16ToUtf8(raw)
	return err
}

func (p *WideString) writePayload(e *encoder) error {
	raw, err := Utf8ToUtf16(p.Value)
	if err != nil {
		return err
	}
	length, err := utils.U32Len(len(raw), "wide string")
	if err != nil {
		return err
	}
	if err := e.w.U32(length); err != nil {
		return err
	}
	return e.w.Bytes(raw)
}

func (p *F32Vec2) readPayload(d *decoder) error {
	var err error
	if p.X, err = d.r.F32(); err != nil {
		return err
	}
	p.Y, err = d.r.F32()
	return err
}

func (p *F32Vec2) writePayload(e *encoder) error {
	if err := e.w.F32(p.X); err != nil {
		return err
	}
	return e.w.F32(p.Y)
}

func (p *F32Vec3) readPayload(d *decoder) error {
	var err error
	if p.X, err = d.r.F32(); err != nil {
		return err
	}
	if p.Y, err = d.r.F32(); err != nil {
		return err
	}
	p.Z, err = d.r.F32()
	return err
}

func (p *F32Vec3) writePayload(e *encoder) error {
	if err := e.w.F32(p.X); err != nil {
		return err
	}
	if err := e.w.F32(p.Y); err != nil {
		return err
	}
	return e.w.F32(p.Z)
}

func (p *F32Vec4) readPayload(d *decoder) error {
	var err error
	if p.X, err = d.r.F32(); err != nil {
		return err
	}
	if p.Y, err = d.r.F32(); err != nil {
		return err
	}
	if p.Z, err = d.r.F32(); err != nil {
		return err
	}
	p.W, err = d.r.F32()
	return err
}

func (p *F32Vec4) writePayload(e *encoder) error {
	if err := e.w.F32(p.X); err != nil {
		return err
	}
	if err := e.w.F32(p.Y); err != nil {
		return err
	}
	if err := e.w.F32(p.Z); err != nil {
		return err
	}
	return e.w.F32(p.W)
}

func (p *S32Vec2) readPayload(d *decoder) error {
	var err error
	if p.X, err = d.r.I32(); err != nil {
		return err
	}
	p.Y, err = d.r.I32()
	return err
}

func (p *S32Vec2) writePayload(e *encoder) error {
	if err := e.w.I32(p.X); err != nil {
		return err
	}
	return e.w.I32(p.Y)
}

func (p *S32Vec3) readPayload(d *decoder) error {
	var err error
	if p.X, err = d.r.I32(); err != nil {
		return err
	}
	if p.Y, err = d.r.I32(); err != nil {
		return err
	}
	p.Z, err = d.r.I32()
	return err
}

func (p *S32Vec3) writePayload(e *encoder) error {
	if err := e.w.I32(p.X); err != nil {
		return err
	}
	if err := e.w.I32(p.Y); err != nil {
		return err
	}
	return e.w.I32(p.Z)
}

// Color payloads are (b, g, r, a) on the wire.
func (p *Color) readPayload(d *decoder) error {
	raw, err := d.r.Bytes(4)
	if err != nil {
		return err
	}
	p.B, p.G, p.R, p.A = raw[0], raw[1], raw[2], raw[3]
	return nil
}

func (p *Color) writePayload(e *encoder) error {
	return e.w.Bytes([]byte{p.B, p.G, p.R, p.A})
}

func (p *GUID) readPayload(d *decoder) error {
	raw, err := d.r.Bytes(16)
	if err != nil {
		return err
	}
	p.Hex = strings.ToUpper(hex.EncodeToString(raw))
	return nil
}

func (p *GUID) writePayload(e *encoder) error {
	return writeHexPayload(e, p.Hex, 16, "GUID")
}

func (p *Hash) readPayload(d *decoder) error {
	raw, err := d.r.Bytes(16)
	if err != nil {
		return err
	}
	p.Hex = strings.ToUpper(hex.EncodeToString(raw))
	return nil
}

func (p *Hash) writePayload(e *encoder) error {
	return writeHexPayload(e, p.Hex, 16, "hash")
}

func (p *LocHash) readPayload(d *decoder) error {
	raw, err := d.r.Bytes(8)
	if err != nil {
		return err
	}
	p.Hex = strings.ToUpper(hex.EncodeToString(raw))
	return nil
}

func (p *LocHash) writePayload(e *encoder) error {
	return writeHexPayload(e, p.Hex, 8, "localisation hash")
}

func writeHexPayload(e *encoder, hexDigits string, n int, what string) error {
	raw, err := hex.DecodeString(hexDigits)
	if err != nil || len(raw) != n {
		return utils.Violation(e.w.Tell(), "%s %q is not %d hex bytes", what, hexDigits, n)
	}
	return e.w.Bytes(raw)
}

func (p *ObjectReference) readPayload(d *decoder) error {
	objIdx, err := d.r.U32()
	if err != nil {
		return err
	}
	// The class index travels with the reference but the object's own
	// descriptor is authoritative; it is not materialized.
	if _, err := d.r.U32(); err != nil {
		return err
	}
	if objIdx == sentinel {
		p.Object = ""
		return nil
	}
	p.Object = objectName(objIdx)
	return nil
}

func (p *ObjectReference) writePayload(e *encoder) error {
	if err := e.w.U32(refObject); err != nil {
		return err
	}
	objIdx := sentinel
	classIdx := sentinel
	if idx, ok := e.objectIndex[p.Object]; ok {
		objIdx = idx
		obj, _ := e.graph.Object(p.Object)
		if ci, ok := e.classes.Lookup(obj.ClassName); ok {
			classIdx = ci
		}
	}
	if err := e.w.U32(objIdx); err != nil {
		return err
	}
	return e.w.U32(classIdx)
}

func (p *ImportReference) readPayload(d *decoder) error {
	idx, err := d.r.U32()
	if err != nil {
		return err
	}
	name, ok := d.importNames[idx]
	if !ok {
		return utils.WrapError(fmt.Sprintf("import index %d has no import table entry", idx), utils.ErrDanglingReference)
	}
	p.Import = name
	return nil
}

func (p *ImportReference) writePayload(e *encoder) error {
	if err := e.w.U32(refImport); err != nil {
		return err
	}
	idx, err := e.internImport(p.Import)
	if err != nil {
		return err
	}
	return e.w.U32(idx)
}

func (p *List) readPayload(d *decoder) error {
	count, err := d.r.U32()
	if err != nil {
		return err
	}
	p.Items = make([]Property, 0, count)
	for i := uint32(0); i < count; i++ {
		item, err := readProperty(d)
		if err != nil {
			return err
		}
		item.setName("ListItem")
		p.Items = append(p.Items, item)
	}
	return nil
}

func (p *List) writePayload(e *encoder) error {
	count, err := utils.U32Len(len(p.Items), "list")
	if err != nil {
		return err
	}
	if err := e.w.U32(count); err != nil {
		return err
	}
	for _, item := range p.Items {
		if err := writeProperty(e, item); err != nil {
			return err
		}
	}
	return nil
}

func (p *Map) readPayload(d *decoder) error {
	count, err := d.r.U32()
	if err != nil {
		return err
	}
	p.Items = make([]MapItem, 0, count)
	for i := uint32(0); i < count; i++ {
		key, err := readProperty(d)
		if err != nil {
			return err
		}
		key.setName("Key")
		value, err := readProperty(d)
		if err != nil {
			return err
		}
		value.setName("Value")
		p.Items = append(p.Items, MapItem{Key: key, Value: value})
	}
	return nil
}

func (p *Map) writePayload(e *encoder) error {
	count, err := utils.U32Len(len(p.Items), "map")
	if err != nil {
		return err
	}
	if err := e.w.U32(count); err != nil {
		return err
	}
	for _, item := range p.Items {
		if err := writeProperty(e, item.Key); err != nil {
			return err
		}
		if err := writeProperty(e, item.Value); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pair) readPayload(d *decoder) error {
	first, err := readProperty(d)
	if err != nil {
		return err
	}
	first.setName("First")
	second, err := readProperty(d)
	if err != nil {
		return err
	}
	second.setName("Second")
	p.First, p.Second = first, second
	return nil
}

func (p *Pair) writePayload(e *encoder) error {
	if err := writeProperty(e, p.First); err != nil {
		return err
	}
	return writeProperty(e, p.Second)
}
