package ndf

// Property is the closed sum of every variant the object-graph format
// recognizes. The codec methods are unexported: the variant set is
// fixed at the wire-format revision and not open for extension.
type Property interface {
	// Type returns the wire tag of the variant.
	Type() Type
	// Name returns the property name.
	Name() string
	// Copy returns a deep copy.
	Copy() Property

	setName(string)
	appendRefs(objects, imports map[string]struct{})
	rewriteRefs(objects, imports map[string]string)
	readPayload(d *decoder) error
	writePayload(e *encoder) error
}

// PropBase carries the property name shared by all variants.
type PropBase struct {
	PropName string
}

// Name returns the property name.
func (b *PropBase) Name() string { return b.PropName }

func (b *PropBase) setName(n string) { b.PropName = n }

func (*PropBase) appendRefs(_, _ map[string]struct{}) {}

func (*PropBase) rewriteRefs(_, _ map[string]string) {}

func named(name string) PropBase { return PropBase{PropName: name} }

// Bool is a single-byte boolean.
type Bool struct {
	PropBase
	Value bool
}

// NewBool creates a named boolean property.
func NewBool(name string, v bool) *Bool { return &Bool{named(name), v} }

func (*Bool) Type() Type { return TypeBool }

// Copy returns a deep copy.
func (p *Bool) Copy() Property { c := *p; return &c }

// UInt8 is an unsigned 8-bit integer.
type UInt8 struct {
	PropBase
	Value uint8
}

// NewUInt8 creates a named uint8 property.
func NewUInt8(name string, v uint8) *UInt8 { return &UInt8{named(name), v} }

func (*UInt8) Type() Type { return TypeUInt8 }

// Copy returns a deep copy.
func (p *UInt8) Copy() Property { c := *p; return &c }

// Int16 is a signed 16-bit integer.
type Int16 struct {
	PropBase
	Value int16
}

// NewInt16 creates a named int16 property.
func NewInt16(name string, v int16) *Int16 { return &Int16{named(name), v} }

func (*Int16) Type() Type { return TypeInt16 }

// Copy returns a deep copy.
func (p *Int16) Copy() Property { c := *p; return &c }

// UInt16 is an unsigned 16-bit integer.
type UInt16 struct {
	PropBase
	Value uint16
}

// NewUInt16 creates a named uint16 property.
func NewUInt16(name string, v uint16) *UInt16 { return &UInt16{named(name), v} }

func (*UInt16) Type() Type { return TypeUInt16 }

// Copy returns a deep copy.
func (p *UInt16) Copy() Property { c := *p; return &c }

// Int32 is a signed 32-bit integer.
type Int32 struct {
	PropBase
	Value int32
}

// NewInt32 creates a named int32 property.
func NewInt32(name string, v int32) *Int32 { return &Int32{named(name), v} }

func (*Int32) Type() Type { return TypeInt32 }

// Copy returns a deep copy.
func (p *Int32) Copy() Property { c := *p; return &c }

// UInt32 is an unsigned 32-bit integer.
type UInt32 struct {
	PropBase
	Value uint32
}

// NewUInt32 creates a named uint32 property.
func NewUInt32(name string, v uint32) *UInt32 { return &UInt32{named(name), v} }

func (*UInt32) Type() Type { return TypeUInt32 }

// Copy returns a deep copy.
func (p *UInt32) Copy() Property { c := *p; return &c }

// Float32 is an IEEE 754 single.
type Float32 struct {
	PropBase
	Value float32
}

// NewFloat32 creates a named float32 property.
func NewFloat32(name string, v float32) *Float32 { return &Float32{named(name), v} }

func (*Float32) Type() Type { return TypeFloat32 }

// Copy returns a deep copy.
func (p *Float32) Copy() Property { c := *p; return &c }

// Float64 is an IEEE 754 double.
type Float64 struct {
	PropBase
	Value float64
}

// NewFloat64 creates a named float64 property.
func NewFloat64(name string, v float64) *Float64 { return &Float64{named(name), v} }

func (*Float64) Type() Type { return TypeFloat64 }

// Copy returns a deep copy.
func (p *Float64) Copy() Property { c := *p; return &c }

// String is a UTF-8 string stored through the string table.
type String struct {
	PropBase
	Value string
}

// NewString creates a named string property.
func NewString(name, v string) *String { return &String{named(name), v} }

func (*String) Type() Type { return TypeString }

// Copy returns a deep copy.
func (p *String) Copy() Property { c := *p; return &c }

// WideString is a UTF-16 string stored inline with a byte length.
type WideString struct {
	PropBase
	Value string
}

// NewWideString creates a named wide-string property.
func NewWideString(name, v string) *WideString { return &WideString{named(name), v} }

func (*WideString) Type() Type { return TypeWideString }

// Copy returns a deep copy.
func (p *WideString) Copy() Property { c := *p; return &c }

// F32Vec2 is a pair of float32 components.
type F32Vec2 struct {
	PropBase
	X, Y float32
}

// NewF32Vec2 creates a named float vector property.
func NewF32Vec2(name string, x, y float32) *F32Vec2 { return &F32Vec2{named(name), x, y} }

func (*F32Vec2) Type() Type { return TypeF32Vec2 }

// Copy returns a deep copy.
func (p *F32Vec2) Copy() Property { c := *p; return &c }

// F32Vec3 is a triple of float32 components.
type F32Vec3 struct {
	PropBase
	X, Y, Z float32
}

// NewF32Vec3 creates a named float vector property.
func NewF32Vec3(name string, x, y, z float32) *F32Vec3 { return &F32Vec3{named(name), x, y, z} }

func (*F32Vec3) Type() Type { return TypeF32Vec3 }

// Copy returns a deep copy.
func (p *F32Vec3) Copy() Property { c := *p; return &c }

// F32Vec4 is a quadruple of float32 components.
type F32Vec4 struct {
	PropBase
	X, Y, Z, W float32
}

// NewF32Vec4 creates a named float vector property.
func NewF32Vec4(name string, x, y, z, w float32) *F32Vec4 {
	return &F32Vec4{named(name), x, y, z, w}
}

func (*F32Vec4) Type() Type { return TypeF32Vec4 }

// Copy returns a deep copy.
func (p *F32Vec4) Copy() Property { c := *p; return &c }

// S32Vec2 is a pair of int32 components.
type S32Vec2 struct {
	PropBase
	X, Y int32
}

// NewS32Vec2 creates a named integer vector property.
func NewS32Vec2(name string, x, y int32) *S32Vec2 { return &S32Vec2{named(name), x, y} }

func (*S32Vec2) Type() Type { return TypeS32Vec2 }

// Copy returns a deep copy.
func (p *S32Vec2) Copy() Property { c := *p; return &c }

// S32Vec3 is a triple of int32 components.
type S32Vec3 struct {
	PropBase
	X, Y, Z int32
}

// NewS32Vec3 creates a named integer vector property.
func NewS32Vec3(name string, x, y, z int32) *S32Vec3 { return &S32Vec3{named(name), x, y, z} }

func (*S32Vec3) Type() Type { return TypeS32Vec3 }

// Copy returns a deep copy.
func (p *S32Vec3) Copy() Property { c := *p; return &c }

// Color holds logical (r, g, b, a) channels. On the wire the bytes are
// stored as (b, g, r, a); the codec performs the swap.
type Color struct {
	PropBase
	R, G, B, A uint8
}

// NewColor creates a named color property from logical channels.
func NewColor(name string, r, g, b, a uint8) *Color { return &Color{named(name), r, g, b, a} }

func (*Color) Type() Type { return TypeColor }

// Copy returns a deep copy.
func (p *Color) Copy() Property { c := *p; return &c }

// GUID is an opaque 16-byte identifier, presented as 32 uppercase hex
// digits.
type GUID struct {
	PropBase
	Hex string
}

// NewGUID creates a named GUID property from its hex form.
func NewGUID(name, hexDigits string) *GUID { return &GUID{named(name), hexDigits} }

func (*GUID) Type() Type { return TypeGUID }

// Copy returns a deep copy.
func (p *GUID) Copy() Property { c := *p; return &c }

// Hash is an opaque 16-byte hash, presented as 32 uppercase hex digits.
type Hash struct {
	PropBase
	Hex string
}

// NewHash creates a named hash property from its hex form.
func NewHash(name, hexDigits string) *Hash { return &Hash{named(name), hexDigits} }

func (*Hash) Type() Type { return TypeHash }

// Copy returns a deep copy.
func (p *Hash) Copy() Property { c := *p; return &c }

// LocHash is an opaque 8-byte localisation hash, presented as 16
// uppercase hex digits.
type LocHash struct {
	PropBase
	Hex string
}

// NewLocHash creates a named localisation-hash property from its hex form.
func NewLocHash(name, hexDigits string) *LocHash { return &LocHash{named(name), hexDigits} }

func (*LocHash) Type() Type { return TypeLocHash }

// Copy returns a deep copy.
func (p *LocHash) Copy() Property { c := *p; return &c }

// ObjectReference points at another object in the graph by name. An
// empty Object is the dangling sentinel and round-trips verbatim.
type ObjectReference struct {
	PropBase
	Object string
}

// NewObjectReference creates a named reference to an object.
func NewObjectReference(name, object string) *ObjectReference {
	return &ObjectReference{named(name), object}
}

func (*ObjectReference) Type() Type { return TypeReference }

// Copy returns a deep copy.
func (p *ObjectReference) Copy() Property { c := *p; return &c }

func (p *ObjectReference) appendRefs(objects, _ map[string]struct{}) {
	objects[p.Object] = struct{}{}
}

func (p *ObjectReference) rewriteRefs(objects, _ map[string]string) {
	if to, ok := objects[p.Object]; ok {
		p.Object = to
	}
}

// ImportReference points at an external symbol by its slash-separated
// import path.
type ImportReference struct {
	PropBase
	Import string
}

// NewImportReference creates a named reference to an imported symbol.
func NewImportReference(name, importPath string) *ImportReference {
	return &ImportReference{named(name), importPath}
}

func (*ImportReference) Type() Type { return TypeReference }

// Copy returns a deep copy.
func (p *ImportReference) Copy() Property { c := *p; return &c }

func (p *ImportReference) appendRefs(_, imports map[string]struct{}) {
	imports[p.Import] = struct{}{}
}

func (p *ImportReference) rewriteRefs(_, imports map[string]string) {
	if to, ok := imports[p.Import]; ok {
		p.Import = to
	}
}

// PathReference is a filesystem-style path stored through the string
// table.
type PathReference struct {
	PropBase
	Path string
}

// NewPathReference creates a named path-reference property.
func NewPathReference(name, path string) *PathReference {
	return &PathReference{named(name), path}
}

func (*PathReference) Type() Type { return TypePathReference }

// Copy returns a deep copy.
func (p *PathReference) Copy() Property { c := *p; return &c }

// List is an ordered sequence of properties, each with its own inline
// type tag.
type List struct {
	PropBase
	Items []Property
}

// NewList creates a named list property.
func NewList(name string, items ...Property) *List { return &List{named(name), items} }

func (*List) Type() Type { return TypeList }

// Copy returns a deep copy.
func (p *List) Copy() Property {
	c := &List{PropBase: p.PropBase, Items: make([]Property, len(p.Items))}
	for i, item := range p.Items {
		c.Items[i] = item.Copy()
	}
	return c
}

func (p *List) appendRefs(objects, imports map[string]struct{}) {
	for _, item := range p.Items {
		item.appendRefs(objects, imports)
	}
}

func (p *List) rewriteRefs(objects, imports map[string]string) {
	for _, item := range p.Items {
		item.rewriteRefs(objects, imports)
	}
}

// MapItem is one key/value entry of a Map property.
type MapItem struct {
	Key   Property
	Value Property
}

// Map is an ordered sequence of key/value property pairs.
type Map struct {
	PropBase
	Items []MapItem
}

// NewMap creates a named map property.
func NewMap(name string, items ...MapItem) *Map { return &Map{named(name), items} }

func (*Map) Type() Type { return TypeMap }

// Copy returns a deep copy.
func (p *Map) Copy() Property {
	c := &Map{PropBase: p.PropBase, Items: make([]MapItem, len(p.Items))}
	for i, item := range p.Items {
		c.Items[i] = MapItem{Key: item.Key.Copy(), Value: item.Value.Copy()}
	}
	return c
}

func (p *Map) appendRefs(objects, imports map[string]struct{}) {
	for _, item := range p.Items {
		item.Key.appendRefs(objects, imports)
		item.Value.appendRefs(objects, imports)
	}
}

func (p *Map) rewriteRefs(objects, imports map[string]string) {
	for _, item := range p.Items {
		item.Key.rewriteRefs(objects, imports)
		item.Value.rewriteRefs(objects, imports)
	}
}

// Pair holds two properties of independent types.
type Pair struct {
	PropBase
	First  Property
	Second Property
}

// NewPair creates a named pair property.
func NewPair(name string, first, second Property) *Pair {
	return &Pair{named(name), first, second}
}

func (*Pair) Type() Type { return TypePair }

// Copy returns a deep copy.
func (p *Pair) Copy() Property {
	return &Pair{PropBase: p.PropBase, First: p.First.Copy(), Second: p.Second.Copy()}
}

func (p *Pair) appendRefs(objects, imports map[string]struct{}) {
	p.First.appendRefs(objects, imports)
	p.Second.appendRefs(objects, imports)
}

func (p *Pair) rewriteRefs(objects, imports map[string]string) {
	p.First.rewriteRefs(objects, imports)
	p.Second.rewriteRefs(objects, imports)
}
