package types

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Invalid TypeID
	Bool    TypeID
	Int     TypeID
	Float   TypeID
}

type typeKey struct {
	kind Kind
	elem TypeID
	dims string
}

func keyOf(t Type) typeKey {
	k := typeKey{kind: t.Kind, elem: t.Elem}
	if len(t.Dims) > 0 {
		var sb strings.Builder
		for i, d := range t.Dims {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatInt(d, 10))
		}
		k.dims = sb.String()
	}
	return k
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 16),
	}
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.Float = in.Intern(Type{Kind: KindFloat})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := keyOf(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[keyOf(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// IsBool reports whether id is the scalar boolean type.
func (in *Interner) IsBool(id TypeID) bool {
	return id == in.builtins.Bool
}

// IsTensor reports whether id is a tensor type.
func (in *Interner) IsTensor(id TypeID) bool {
	t, ok := in.Lookup(id)
	return ok && t.Kind == KindTensor
}

// IsScalarPred reports whether id can drive a conditional branch after
// extraction: a plain bool, or a single-element tensor of bool.
func (in *Interner) IsScalarPred(id TypeID) bool {
	if in.IsBool(id) {
		return true
	}
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindTensor || t.Elem != in.builtins.Bool {
		return false
	}
	elems := int64(1)
	for _, d := range t.Dims {
		elems *= d
	}
	return elems == 1
}

// Elem returns the scalar element type of a tensor, or the type itself for
// scalars.
func (in *Interner) Elem(id TypeID) TypeID {
	t, ok := in.Lookup(id)
	if !ok {
		return NoTypeID
	}
	if t.Kind == KindTensor {
		return t.Elem
	}
	return id
}

// String renders a type in the textual IR syntax.
func (in *Interner) String(id TypeID) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "invalid"
	}
	if t.Kind != KindTensor {
		return t.Kind.String()
	}
	var sb strings.Builder
	sb.WriteString("tensor<")
	sb.WriteString(in.String(t.Elem))
	for _, d := range t.Dims {
		sb.WriteString(", ")
		sb.WriteString(strconv.FormatInt(d, 10))
	}
	sb.WriteByte('>')
	return sb.String()
}
