// Package daedalus implements the Daedalus module loader and virtual
// machine: the compiled-script symbol table, bytecode decoder, and stack
// machine that executes it.
package daedalus

import "github.com/gothicgo/zengin/internal/zlog"

var log = zlog.Default()

// DataType is the wire type tag stored in a symbol's packed properties
// word.
type DataType uint8

const (
	Void DataType = iota
	Float
	Int
	String
	Class
	Function
	Prototype
	Instance
)

func (t DataType) String() string {
	switch t {
	case Void:
		return "void"
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	case Class:
		return "class"
	case Function:
		return "func"
	case Prototype:
		return "prototype"
	case Instance:
		return "instance"
	default:
		return "unknown"
	}
}

// SymbolFlag bits. The loader reads the low six of them from bits 16-21 of a
// symbol's properties word; FlagTrapAccess and FlagFuncLocals lie outside
// that field.
type SymbolFlag uint8

const (
	FlagConst      SymbolFlag = 1 << 0
	FlagReturn     SymbolFlag = 1 << 1
	FlagMember     SymbolFlag = 1 << 2
	FlagExternal   SymbolFlag = 1 << 3
	FlagMerged     SymbolFlag = 1 << 4
	FlagTrapAccess SymbolFlag = 1 << 6
	FlagFuncLocals SymbolFlag = 1 << 7
)

// Opcode is a decoded bytecode instruction's operation.
type Opcode uint8

const (
	OpAdd     Opcode = 0
	OpSub     Opcode = 1
	OpMul     Opcode = 2
	OpDiv     Opcode = 3
	OpMod     Opcode = 4
	OpOr      Opcode = 5
	OpAndB    Opcode = 6
	OpLT      Opcode = 7
	OpGT      Opcode = 8
	OpMovI    Opcode = 9
	OpOrr     Opcode = 11
	OpAnd     Opcode = 12
	OpLSL     Opcode = 13
	OpLSR     Opcode = 14
	OpLTE     Opcode = 15
	OpEQ      Opcode = 16
	OpNEQ     Opcode = 17
	OpGTE     Opcode = 18
	OpAddMovI Opcode = 19
	OpSubMovI Opcode = 20
	OpMulMovI Opcode = 21
	OpDivMovI Opcode = 22
	OpPlus    Opcode = 30
	OpNegate  Opcode = 31
	OpNot     Opcode = 32
	OpCmpl    Opcode = 33
	OpNop     Opcode = 45
	OpRSR     Opcode = 60
	OpBL      Opcode = 61
	OpBE      Opcode = 62
	OpPushI   Opcode = 64
	OpPushV   Opcode = 65
	OpPushVI  Opcode = 67
	OpMovS    Opcode = 70
	OpMovSS   Opcode = 71
	OpMovVF   Opcode = 72
	OpMovF    Opcode = 73
	OpMovVI   Opcode = 74
	OpB       Opcode = 75
	OpBZ      Opcode = 76
	OpGMovI   Opcode = 80
	OpPushVV  Opcode = 245
)

// Instruction is one decoded bytecode op plus whichever operand its opcode
// class carries.
type Instruction struct {
	Op        Opcode
	Size      uint32
	Address   uint32
	Immediate int32
	Symbol    uint32
	Index     uint8
}

// ExceptionStrategy is what the VM does after a registered exception
// handler observes a runtime error.
type ExceptionStrategy int

const (
	StrategyFail ExceptionStrategy = iota
	StrategyContinue
	StrategyReturn
)

// ExecFlag toggles VM leniency behaviors.
type ExecFlag uint8

const (
	FlagAllowNullInstanceAccess ExecFlag = 1 << 0
	FlagIgnoreConstSpecifier    ExecFlag = 1 << 1
)
