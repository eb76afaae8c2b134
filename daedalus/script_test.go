package daedalus_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gothicgo/zengin/daedalus"
	"github.com/gothicgo/zengin/stream"
)

// buildModule hand-assembles a minimal Daedalus module binary: a single
// const FUNCTION symbol named "TESTFUNC" whose bytecode is whatever code
// is passed in.
func buildModule(t *testing.T, code []byte) stream.Stream {
	t.Helper()
	s := stream.OpenMemory(nil)

	require.NoError(t, s.WriteU8(1))  // version
	require.NoError(t, s.WriteU32(1)) // symbol count

	require.NoError(t, s.WriteU32(0)) // sort table entry

	// symbol 0: TESTFUNC
	require.NoError(t, s.WriteU32(1)) // has_name
	require.NoError(t, s.WriteLine("TESTFUNC"))
	require.NoError(t, s.WriteU32(0)) // vary -> return type VOID

	const (
		flagConst = 1 << 0
	)
	count := uint32(1)
	typ := uint32(daedalus.Function)
	flags := uint32(flagConst)
	properties := count | (typ << 12) | (flags << 16)
	require.NoError(t, s.WriteU32(properties))

	require.NoError(t, s.WriteU32(0)) // file_index
	require.NoError(t, s.WriteU32(0)) // line_start
	require.NoError(t, s.WriteU32(0)) // line_count
	require.NoError(t, s.WriteU32(0)) // char_start
	require.NoError(t, s.WriteU32(0)) // char_count

	require.NoError(t, s.WriteU32(0)) // address: entry point at text offset 0

	require.NoError(t, s.WriteI32(-1)) // parent

	require.NoError(t, s.WriteU32(uint32(len(code))))
	require.NoError(t, s.WriteBlock(code))

	_, err := s.Seek(0, stream.Begin)
	require.NoError(t, err)
	return s
}

func encodeInstr(op daedalus.Opcode, operand ...byte) []byte {
	return append([]byte{byte(op)}, operand...)
}

func u32le(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestLoad_SingleFunction(t *testing.T) {
	var code []byte
	code = append(code, encodeInstr(daedalus.OpPushI, u32le(2)...)...)
	code = append(code, encodeInstr(daedalus.OpPushI, u32le(3)...)...)
	code = append(code, encodeInstr(daedalus.OpAdd)...)
	code = append(code, encodeInstr(daedalus.OpRSR)...)

	scr, err := daedalus.Load(buildModule(t, code))
	require.NoError(t, err)

	sym := scr.FindSymbolByName("testfunc")
	require.NotNil(t, sym)
	require.Equal(t, daedalus.Function, sym.Type())
	require.True(t, sym.IsConst())
	require.EqualValues(t, 0, sym.Address())

	bySym := scr.FindSymbolByAddress(0)
	require.NotNil(t, bySym)
	require.Equal(t, sym.Index(), bySym.Index())

	require.EqualValues(t, len(code), scr.Size())
}

func TestDecodeInstruction_Operands(t *testing.T) {
	s := stream.OpenMemory(nil)
	require.NoError(t, s.WriteU8(byte(daedalus.OpPushI)))
	require.NoError(t, s.WriteU32(7))
	require.NoError(t, s.WriteU8(byte(daedalus.OpBE)))
	require.NoError(t, s.WriteU32(3))
	require.NoError(t, s.WriteU8(byte(daedalus.OpPushVV)))
	require.NoError(t, s.WriteU32(5))
	require.NoError(t, s.WriteU8(9))

	_, err := s.Seek(0, stream.Begin)
	require.NoError(t, err)

	ins, err := daedalus.DecodeInstruction(s)
	require.NoError(t, err)
	require.Equal(t, daedalus.OpPushI, ins.Op)
	require.EqualValues(t, 7, ins.Immediate)
	require.EqualValues(t, 5, ins.Size)

	ins, err = daedalus.DecodeInstruction(s)
	require.NoError(t, err)
	require.Equal(t, daedalus.OpBE, ins.Op)
	require.EqualValues(t, 3, ins.Symbol)

	ins, err = daedalus.DecodeInstruction(s)
	require.NoError(t, err)
	require.Equal(t, daedalus.OpPushVV, ins.Op)
	require.EqualValues(t, 5, ins.Symbol)
	require.EqualValues(t, 9, ins.Index)
}
