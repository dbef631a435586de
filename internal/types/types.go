package types

// TypeID is a stable handle into an Interner.
type TypeID uint32

// NoTypeID is the invalid sentinel (row 0 of every interner).
const NoTypeID TypeID = 0

func (id TypeID) IsValid() bool {
	return id != NoTypeID
}

// Kind classifies a type descriptor.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindBool is the scalar boolean produced by extract and consumed by
	// conditional branches.
	KindBool
	// KindInt is a 64-bit signed integer.
	KindInt
	// KindFloat is a 64-bit float.
	KindFloat
	// KindTensor is a shaped (possibly 0-dimensional) tensor of a scalar
	// element type.
	KindTensor
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "i64"
	case KindFloat:
		return "f64"
	case KindTensor:
		return "tensor"
	}
	return "invalid"
}

// Type is a structural descriptor. Elem and Dims are meaningful only for
// KindTensor; a tensor with no dims is 0-dimensional (single element).
type Type struct {
	Kind Kind
	Elem TypeID
	Dims []int64
}

// MakeTensor builds a tensor descriptor over a scalar element type.
func MakeTensor(elem TypeID, dims ...int64) Type {
	return Type{Kind: KindTensor, Elem: elem, Dims: dims}
}
