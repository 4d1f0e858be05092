package ndf

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/wgmod/eugen/internal/utils"
)

// The XML transform is the reversible textual surface of the graph:
// one element per object, one child element per property named after
// the property itself, and the attribute vocabulary fixed below. It
// exists for interoperability and testing; the binary codec never
// consumes it.

// WriteXML writes the graph as an XML document rooted at <NDF>.
func (g *Graph) WriteXML(dst io.Writer) error {
	if _, err := io.WriteString(dst, xml.Header); err != nil {
		return utils.WrapError("write document", err)
	}
	enc := xml.NewEncoder(dst)
	enc.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: "NDF"}}
	if err := enc.EncodeToken(root); err != nil {
		return utils.WrapError("encode document", err)
	}

	for _, name := range g.names {
		obj := g.objects[name]
		el := xml.StartElement{
			Name: xml.Name{Local: obj.Name},
			Attr: []xml.Attr{
				attr("class", obj.ClassName),
				attr("export_path", obj.ExportPath),
				attr("is_top_object", strconv.FormatBool(obj.IsTopObject)),
			},
		}
		if err := enc.EncodeToken(el); err != nil {
			return utils.WrapError("encode object", err)
		}
		for _, p := range obj.Properties {
			if err := propToXML(enc, p); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(el.End()); err != nil {
			return utils.WrapError("encode object", err)
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return utils.WrapError("encode document", err)
	}
	if err := enc.Flush(); err != nil {
		return utils.WrapError("encode document", err)
	}
	_, err := io.WriteString(dst, "\n")
	return err
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func typeAttr(p Property) xml.Attr {
	return attr("typeId", strconv.FormatUint(uint64(p.Type()), 10))
}

func f32s(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func propToXML(enc *xml.Encoder, p Property) error {
	el := xml.StartElement{Name: xml.Name{Local: p.Name()}}
	var children []Property

	switch v := p.(type) {
	case *Bool:
		el.Attr = append(el.Attr, attr("value", strconv.FormatBool(v.Value)))
	case *UInt8:
		el.Attr = append(el.Attr, attr("value", strconv.FormatUint(uint64(v.Value), 10)))
	case *Int16:
		el.Attr = append(el.Attr, attr("value", strconv.FormatInt(int64(v.Value), 10)))
	case *UInt16:
		el.Attr = append(el.Attr, attr("value", strconv.FormatUint(uint64(v.Value), 10)))
	case *Int32:
		el.Attr = append(el.Attr, attr("value", strconv.FormatInt(int64(v.Value), 10)))
	case *UInt32:
		el.Attr = append(el.Attr, attr("value", strconv.FormatUint(uint64(v.Value), 10)))
	case *Float32:
		el.Attr = append(el.Attr, attr("value", f32s(v.Value)))
	case *Float64:
		el.Attr = append(el.Attr, attr("value", strconv.FormatFloat(v.Value, 'g', -1, 64)))
	case *String:
		el.Attr = append(el.Attr, attr("value", v.Value))
	case *WideString:
		el.Attr = append(el.Attr, attr("str", v.Value))
	case *F32Vec2:
		el.Attr = append(el.Attr, attr("x", f32s(v.X)), attr("y", f32s(v.Y)))
	case *F32Vec3:
		el.Attr = append(el.Attr, attr("x", f32s(v.X)), attr("y", f32s(v.Y)), attr("z", f32s(v.Z)))
	case *F32Vec4:
		el.Attr = append(el.Attr, attr("x", f32s(v.X)), attr("y", f32s(v.Y)), attr("z", f32s(v.Z)), attr("w", f32s(v.W)))
	case *S32Vec2:
		el.Attr = append(el.Attr,
			attr("x", strconv.FormatInt(int64(v.X), 10)),
			attr("y", strconv.FormatInt(int64(v.Y), 10)))
	case *S32Vec3:
		el.Attr = append(el.Attr,
			attr("x", strconv.FormatInt(int64(v.X), 10)),
			attr("y", strconv.FormatInt(int64(v.Y), 10)),
			attr("z", strconv.FormatInt(int64(v.Z), 10)))
	case *Color:
		el.Attr = append(el.Attr,
			attr("r", strconv.FormatUint(uint64(v.R), 10)),
			attr("g", strconv.FormatUint(uint64(v.G), 10)),
			attr("b", strconv.FormatUint(uint64(v.B), 10)),
			attr("a", strconv.FormatUint(uint64(v.A), 10)))
	case *GUID:
		el.Attr = append(el.Attr, attr("guid", v.Hex))
	case *Hash:
		el.Attr = append(el.Attr, attr("hash", v.Hex))
	case *LocHash:
		el.Attr = append(el.Attr, attr("hash", v.Hex))
	case *PathReference:
		el.Attr = append(el.Attr, attr("path", v.Path))
	case *ObjectReference:
		el.Attr = append(el.Attr, attr("object", v.Object))
	case *ImportReference:
		el.Attr = append(el.Attr, attr("import", v.Import))
	case *List:
		children = v.Items
	case *Map, *Pair:
		// handled below; children need wrappers
	default:
		return utils.WrapError(fmt.Sprintf("property %q type %s", p.Name(), p.Type()), utils.ErrNotImplemented)
	}

	el.Attr = append(el.Attr, typeAttr(p))
	switch p.(type) {
	case *ObjectReference:
		el.Attr = append(el.Attr, attr("referenceType", "object"))
	case *ImportReference:
		el.Attr = append(el.Attr, attr("referenceType", "import"))
	}

	if err := enc.EncodeToken(el); err != nil {
		return utils.WrapError("encode property", err)
	}

	switch v := p.(type) {
	case *List:
		for _, item := range children {
			if err := propToXML(enc, item); err != nil {
				return err
			}
		}
	case *Map:
		for _, item := range v.Items {
			wrapper := xml.StartElement{Name: xml.Name{Local: "MapItem"}}
			if err := enc.EncodeToken(wrapper); err != nil {
				return utils.WrapError("encode map item", err)
			}
			if err := propToXML(enc, item.Key); err != nil {
				return err
			}
			if err := propToXML(enc, item.Value); err != nil {
				return err
			}
			if err := enc.EncodeToken(wrapper.End()); err != nil {
				return utils.WrapError("encode map item", err)
			}
		}
	case *Pair:
		if err := propToXML(enc, v.First); err != nil {
			return err
		}
		if err := propToXML(enc, v.Second); err != nil {
			return err
		}
	}

	return utils.WrapError("encode property", enc.EncodeToken(el.End()))
}

// ReadXML parses a graph from its XML surface.
func ReadXML(src io.Reader) (*Graph, error) {
	dec := xml.NewDecoder(src)
	g := NewGraph()

	root, err := nextStart(dec)
	if err != nil {
		return nil, err
	}
	if root == nil || root.Name.Local != "NDF" {
		return nil, utils.WrapError("document root is not NDF", utils.ErrFormat)
	}

	for {
		el, err := nextStartWithin(dec)
		if err != nil {
			return nil, err
		}
		if el == nil {
			break
		}

		obj := &Object{Name: el.Name.Local}
		for _, a := range el.Attr {
			switch a.Name.Local {
			case "class":
				obj.ClassName = a.Value
			case "export_path":
				obj.ExportPath = a.Value
			case "is_top_object":
				obj.IsTopObject = a.Value == "true"
			}
		}

		for {
			pel, err := nextStartWithin(dec)
			if err != nil {
				return nil, err
			}
			if pel == nil {
				break
			}
			p, err := propFromXML(dec, pel)
			if err != nil {
				return nil, err
			}
			obj.Properties = append(obj.Properties, p)
		}

		if err := g.AddObject(obj); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// nextStart returns the next StartElement at any depth, or nil at EOF.
func nextStart(dec *xml.Decoder) (*xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, utils.WrapError("parse document", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return &start, nil
		}
	}
}

// nextStartWithin returns the next child StartElement of the current
// element, or nil when the element closes.
func nextStartWithin(dec *xml.Decoder) (*xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, utils.WrapError("parse document", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return &t, nil
		case xml.EndElement:
			return nil, nil
		}
	}
}

func xmlAttrs(el *xml.StartElement) map[string]string {
	m := make(map[string]string, len(el.Attr))
	for _, a := range el.Attr {
		m[a.Name.Local] = a.Value
	}
	return m
}

//nolint:gocyclo // one arm per closed-sum variant
func propFromXML(dec *xml.Decoder, el *xml.StartElement) (Property, error) {
	attrs := xmlAttrs(el)
	name := el.Name.Local

	tagVal, err := strconv.ParseUint(attrs["typeId"], 10, 32)
	if err != nil {
		return nil, utils.WrapError(fmt.Sprintf("property %q typeId %q", name, attrs["typeId"]), utils.ErrFormat)
	}
	tag := Type(tagVal)

	consume := func() error { return dec.Skip() }

	switch tag {
	case TypeBool:
		v, _ := strconv.ParseBool(attrs["value"])
		return NewBool(name, v), consume()
	case TypeUInt8:
		v, _ := strconv.ParseUint(attrs["value"], 10, 8)
		return NewUInt8(name, uint8(v)), consume()
	case TypeInt16:
		v, _ := strconv.ParseInt(attrs["value"], 10, 16)
		return NewInt16(name, int16(v)), consume()
	case TypeUInt16:
		v, _ := strconv.ParseUint(attrs["value"], 10, 16)
		return NewUInt16(name, uint16(v)), consume()
	case TypeInt32:
		v, _ := strconv.ParseInt(attrs["value"], 10, 32)
		return NewInt32(name, int32(v)), consume()
	case TypeUInt32:
		v, _ := strconv.ParseUint(attrs["value"], 10, 32)
		return NewUInt32(name, uint32(v)), consume()
	case TypeFloat32:
		v, _ := strconv.ParseFloat(attrs["value"], 32)
		return NewFloat32(name, float32(v)), consume()
	case TypeFloat64:
		v, _ := strconv.ParseFloat(attrs["value"], 64)
		return NewFloat64(name, v), consume()
	case TypeString:
		return NewString(name, attrs["value"]), consume()
	case TypeWideString:
		return NewWideString(name, attrs["str"]), consume()
	case TypeF32Vec2:
		x, _ := strconv.ParseFloat(attrs["x"], 32)
		y, _ := strconv.ParseFloat(attrs["y"], 32)
		return NewF32Vec2(name, float32(x), float32(y)), consume()
	case TypeF32Vec3:
		x, _ := strconv.ParseFloat(attrs["x"], 32)
		y, _ := strconv.ParseFloat(attrs["y"], 32)
		z, _ := strconv.ParseFloat(attrs["z"], 32)
		return NewF32Vec3(name, float32(x), float32(y), float32(z)), consume()
	case TypeF32Vec4:
		x, _ := strconv.ParseFloat(attrs["x"], 32)
		y, _ := strconv.ParseFloat(attrs["y"], 32)
		z, _ := strconv.ParseFloat(attrs["z"], 32)
		w, _ := strconv.ParseFloat(attrs["w"], 32)
		return NewF32Vec4(name, float32(x), float32(y), float32(z), float32(w)), consume()
	case TypeS32Vec2:
		x, _ := strconv.ParseInt(attrs["x"], 10, 32)
		y, _ := strconv.ParseInt(attrs["y"], 10, 32)
		return NewS32Vec2(name, int32(x), int32(y)), consume()
	case TypeS32Vec3:
		x, _ := strconv.ParseInt(attrs["x"], 10, 32)
		y, _ := strconv.ParseInt(attrs["y"], 10, 32)
		z, _ := strconv.ParseInt(attrs["z"], 10, 32)
		return NewS32Vec3(name, int32(x), int32(y), int32(z)), consume()
	case TypeColor:
		r, _ := strconv.ParseUint(attrs["r"], 10, 8)
		gg, _ := strconv.ParseUint(attrs["g"], 10, 8)
		b, _ := strconv.ParseUint(attrs["b"], 10, 8)
		a, _ := strconv.ParseUint(attrs["a"], 10, 8)
		return NewColor(name, uint8(r), uint8(gg), uint8(b), uint8(a)), consume()
	case TypeGUID:
		return NewGUID(name, attrs["guid"]), consume()
	case TypeHash:
		return NewHash(name, attrs["hash"]), consume()
	case TypeLocHash:
		return NewLocHash(name, attrs["hash"]), consume()
	case TypePathReference:
		return NewPathReference(name, attrs["path"]), consume()
	case TypeReference:
		switch attrs["referenceType"] {
		case "object":
			return NewObjectReference(name, attrs["object"]), consume()
		case "import":
			return NewImportReference(name, attrs["import"]), consume()
		}
		return nil, utils.WrapError(fmt.Sprintf("property %q referenceType %q", name, attrs["referenceType"]), utils.ErrFormat)
	case TypeList:
		list := NewList(name)
		for {
			child, err := nextStartWithin(dec)
			if err != nil {
				return nil, err
			}
			if child == nil {
				return list, nil
			}
			item, err := propFromXML(dec, child)
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, item)
		}
	case TypeMap:
		m := NewMap(name)
		for {
			wrapper, err := nextStartWithin(dec)
			if err != nil {
				return nil, err
			}
			if wrapper == nil {
				return m, nil
			}
			if wrapper.Name.Local != "MapItem" {
				return nil, utils.WrapError(fmt.Sprintf("map %q child %q, want MapItem", name, wrapper.Name.Local), utils.ErrFormat)
			}
			var item MapItem
			for {
				child, err := nextStartWithin(dec)
				if err != nil {
					return nil, err
				}
				if child == nil {
					break
				}
				p, err := propFromXML(dec, child)
				if err != nil {
					return nil, err
				}
				switch child.Name.Local {
				case "Key":
					item.Key = p
				case "Value":
					item.Value = p
				default:
					return nil, utils.WrapError(fmt.Sprintf("map item child %q", child.Name.Local), utils.ErrFormat)
				}
			}
			if item.Key == nil || item.Value == nil {
				return nil, utils.WrapError(fmt.Sprintf("map %q item missing Key or Value", name), utils.ErrFormat)
			}
			m.Items = append(m.Items, item)
		}
	case TypePair:
		pair := &Pair{PropBase: named(name)}
		for {
			child, err := nextStartWithin(dec)
			if err != nil {
				return nil, err
			}
			if child == nil {
				break
			}
			p, err := propFromXML(dec, child)
			if err != nil {
				return nil, err
			}
			switch child.Name.Local {
			case "First":
				pair.First = p
			case "Second":
				pair.Second = p
			default:
				return nil, utils.WrapError(fmt.Sprintf("pair child %q", child.Name.Local), utils.ErrFormat)
			}
		}
		if pair.First == nil || pair.Second == nil {
			return nil, utils.WrapError(fmt.Sprintf("pair %q missing First or Second", name), utils.ErrFormat)
		}
		return pair, nil
	}
	return nil, utils.WrapError(fmt.Sprintf("property %q type 0x%02X", name, tagVal), utils.ErrNotImplemented)
}
