package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo            Code = 1000
	LexUnknownChar     Code = 1001
	LexBadNumber       Code = 1002
	LexUnterminatedRef Code = 1003

	// Syntax
	SynInfo              Code = 2000
	SynUnexpectedToken   Code = 2001
	SynExpectIdentifier  Code = 2002
	SynExpectType        Code = 2003
	SynUnknownInstr      Code = 2004
	SynUndefinedValue    Code = 2005
	SynUndefinedBlock    Code = 2006
	SynDuplicateValue    Code = 2007
	SynDuplicateBlock    Code = 2008
	SynUnclosedDelimiter Code = 2009
	SynMissingTerminator Code = 2010

	// Structural (IR validation)
	IRInfo               Code = 3000
	IRUnterminatedBlock  Code = 3001
	IRBadBranchTarget    Code = 3002
	IRBranchArgMismatch  Code = 3003
	IRBadCondType        Code = 3004
	IRValueOutOfRange    Code = 3005
	IRYieldOutsideRegion Code = 3006

	// Lowering
	LowInfo                Code = 4000
	LowMalformedTerminator Code = 4001
)

func (c Code) String() string {
	return fmt.Sprintf("S%04d", uint16(c))
}
