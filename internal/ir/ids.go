package ir

type FuncID int32
type BlockID int32
type ValueID int32

const (
	NoFuncID  FuncID  = -1
	NoBlockID BlockID = -1
	NoValueID ValueID = -1
)

func (id BlockID) IsValid() bool { return id != NoBlockID }
func (id ValueID) IsValid() bool { return id != NoValueID }
