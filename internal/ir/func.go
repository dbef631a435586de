package ir

import (
	"fmt"

	"fortio.org/safecast"

	"strata/internal/source"
	"strata/internal/types"
)

// Value is an SSA-style definition: a fixed type plus an optional
// human-readable name. Values are rows in a per-function arena and are
// referenced by ValueID from operand slots.
type Value struct {
	Type types.TypeID
	Name string
}

// Func is an ordered sequence of basic blocks forming a control-flow graph.
// Blocks is the arena; destroyed blocks are nilled out and every live block
// is listed in exactly one region (the body or a construct sub-program).
// The entry block's parameters are the function's parameters.
type Func struct {
	ID   FuncID
	Name string
	Span source.Span

	Results []types.TypeID

	Values []Value
	Blocks []*Block
	Body   Region
}

// Module is a compilation unit.
type Module struct {
	Name  string
	Funcs []*Func
}

// NewFunc allocates an empty function.
func NewFunc(id FuncID, name string) *Func {
	return &Func{ID: id, Name: name}
}

// Block returns the arena row for id; nil for destroyed blocks.
func (f *Func) Block(id BlockID) *Block {
	if !id.IsValid() || int(id) >= len(f.Blocks) {
		return nil
	}
	return f.Blocks[id]
}

// Value returns the arena row for id.
func (f *Func) Value(id ValueID) *Value {
	if !id.IsValid() || int(id) >= len(f.Values) {
		return nil
	}
	return &f.Values[id]
}

// ValueType returns the type of id, or NoTypeID.
func (f *Func) ValueType(id ValueID) types.TypeID {
	v := f.Value(id)
	if v == nil {
		return types.NoTypeID
	}
	return v.Type
}

// NewValue allocates a value row.
func (f *Func) NewValue(t types.TypeID, name string) ValueID {
	lenValues, err := safecast.Conv[int32](len(f.Values))
	if err != nil {
		panic(fmt.Errorf("len(values) overflow: %w", err))
	}
	f.Values = append(f.Values, Value{Type: t, Name: name})
	return ValueID(lenValues)
}

// NewBlock allocates an empty block in the arena. The caller is responsible
// for listing it in a region.
func (f *Func) NewBlock() BlockID {
	lenBlocks, err := safecast.Conv[int32](len(f.Blocks))
	if err != nil {
		panic(fmt.Errorf("len(blocks) overflow: %w", err))
	}
	f.Blocks = append(f.Blocks, &Block{})
	return BlockID(lenBlocks)
}

// AddBlockParam appends a typed parameter to a block and returns its value.
func (f *Func) AddBlockParam(b BlockID, t types.TypeID, name string) ValueID {
	v := f.NewValue(t, name)
	blk := f.Block(b)
	blk.Params = append(blk.Params, v)
	return v
}

// Entry returns the function's entry block.
func (f *Func) Entry() BlockID {
	return f.Body.Entry()
}

// Params returns the entry block's parameters.
func (f *Func) Params() []ValueID {
	blk := f.Block(f.Entry())
	if blk == nil {
		return nil
	}
	return blk.Params
}
