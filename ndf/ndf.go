// Package ndf models and round-trips the NDFBin object-graph format: a
// typed, heterogeneous property tree with de-duplicated string, class,
// and transliteration tables, intra-graph object references, and
// hierarchical import/export path tries.
package ndf

import (
	"fmt"

	"github.com/wgmod/eugen/internal/utils"
)

// Type is the wire tag identifying a property variant.
type Type uint32

// Wire values of the property type enum.
const (
	TypeBool           Type = 0x00
	TypeUInt8          Type = 0x01
	TypeInt32          Type = 0x02
	TypeUInt32         Type = 0x03
	TypeFloat32        Type = 0x05
	TypeFloat64        Type = 0x06
	TypeString         Type = 0x07
	TypeWideString     Type = 0x08
	TypeReference      Type = 0x09
	TypeF32Vec3        Type = 0x0B
	TypeF32Vec4        Type = 0x0C
	TypeColor          Type = 0x0D
	TypeS32Vec3        Type = 0x0E
	TypeMatrix         Type = 0x0F
	TypeList           Type = 0x11
	TypeMap            Type = 0x12
	TypeLong           Type = 0x13
	TypeBlob           Type = 0x14
	TypeInt16          Type = 0x18
	TypeUInt16         Type = 0x19
	TypeGUID           Type = 0x1A
	TypePathReference  Type = 0x1C
	TypeLocHash        Type = 0x1D
	TypeS32Vec2        Type = 0x1F
	TypeF32Vec2        Type = 0x21
	TypePair           Type = 0x22
	TypeHash           Type = 0x25
)

// Reference discriminators, stored as a u32 immediately after a
// TypeReference tag.
const (
	refImport uint32 = 0xAAAAAAAA
	refObject uint32 = 0xBBBBBBBB
)

// sentinel marks dangling object references, interior trie nodes, and
// the end of a property stream.
const sentinel uint32 = 0xFFFFFFFF

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "Bool"
	case TypeUInt8:
		return "UInt8"
	case TypeInt32:
		return "Int32"
	case TypeUInt32:
		return "UInt32"
	case TypeFloat32:
		return "Float32"
	case TypeFloat64:
		return "Float64"
	case TypeString:
		return "String"
	case TypeWideString:
		return "WideString"
	case TypeReference:
		return "Reference"
	case TypeF32Vec3:
		return "F32_vec3"
	case TypeF32Vec4:
		return "F32_vec4"
	case TypeColor:
		return "Color"
	case TypeS32Vec3:
		return "S32_vec3"
	case TypeMatrix:
		return "Matrix"
	case TypeList:
		return "List"
	case TypeMap:
		return "Map"
	case TypeLong:
		return "Long"
	case TypeBlob:
		return "Blob"
	case TypeInt16:
		return "Int16"
	case TypeUInt16:
		return "UInt16"
	case TypeGUID:
		return "GUID"
	case TypePathReference:
		return "PathReference"
	case TypeLocHash:
		return "LocalisationHash"
	case TypeS32Vec2:
		return "S32_vec2"
	case TypeF32Vec2:
		return "F32_vec2"
	case TypePair:
		return "Pair"
	case TypeHash:
		return "Hash"
	}
	return fmt.Sprintf("Type(0x%02X)", uint32(t))
}

// newProperty creates the empty variant for a type tag. TypeReference
// needs its discriminator and is handled by the codec directly. Matrix,
// Long, and Blob exist in the enum but have no codec; they and any
// unknown tag are strictly fatal.
func newProperty(t Type) (Property, error) {
	switch t {
	case TypeBool:
		return &Bool{}, nil
	case TypeUInt8:
		return &UInt8{}, nil
	case TypeInt32:
		return &Int32{}, nil
	case TypeUInt32:
		return &UInt32{}, nil
	case TypeFloat32:
		return &Float32{}, nil
	case TypeFloat64:
		return &Float64{}, nil
	case TypeString:
		return &String{}, nil
	case TypeWideString:
		return &WideString{}, nil
	case TypeF32Vec3:
		return &F32Vec3{}, nil
	case TypeF32Vec4:
		return &F32Vec4{}, nil
	case TypeColor:
		return &Color{}, nil
	case TypeS32Vec3:
		return &S32Vec3{}, nil
	case TypeList:
		return &List{}, nil
	case TypeMap:
		return &Map{}, nil
	case TypeInt16:
		return &Int16{}, nil
	case TypeUInt16:
		return &UInt16{}, nil
	case TypeGUID:
		return &GUID{}, nil
	case TypePathReference:
		return &PathReference{}, nil
	case TypeLocHash:
		return &LocHash{}, nil
	case TypeS32Vec2:
		return &S32Vec2{}, nil
	case TypeF32Vec2:
		return &F32Vec2{}, nil
	case TypePair:
		return &Pair{}, nil
	case TypeHash:
		return &Hash{}, nil
	case TypeMatrix, TypeLong, TypeBlob:
		return nil, utils.WrapError(fmt.Sprintf("type %s has no codec", t), utils.ErrNotImplemented)
	}
	return nil, utils.WrapError(fmt.Sprintf("unknown type tag 0x%02X", uint32(t)), utils.ErrNotImplemented)
}
