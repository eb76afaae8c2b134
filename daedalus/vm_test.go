package daedalus_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gothicgo/zengin/daedalus"
)

func TestVm_UnsafeCall_AddsAndReturns(t *testing.T) {
	var code []byte
	code = append(code, encodeInstr(daedalus.OpPushI, u32le(2)...)...)
	code = append(code, encodeInstr(daedalus.OpPushI, u32le(3)...)...)
	code = append(code, encodeInstr(daedalus.OpAdd)...)
	code = append(code, encodeInstr(daedalus.OpRSR)...)

	scr, err := daedalus.Load(buildModule(t, code))
	require.NoError(t, err)

	vm := daedalus.NewVm(scr)
	sym := scr.FindSymbolByName("TESTFUNC")
	require.NotNil(t, sym)

	require.NoError(t, vm.UnsafeCall(sym))
}

func TestVm_DivisionByZero(t *testing.T) {
	var code []byte
	code = append(code, encodeInstr(daedalus.OpPushI, u32le(0)...)...)
	code = append(code, encodeInstr(daedalus.OpPushI, u32le(1)...)...)
	code = append(code, encodeInstr(daedalus.OpDiv)...)
	code = append(code, encodeInstr(daedalus.OpRSR)...)

	scr, err := daedalus.Load(buildModule(t, code))
	require.NoError(t, err)

	vm := daedalus.NewVm(scr)
	sym := scr.FindSymbolByName("TESTFUNC")
	require.NotNil(t, sym)

	err = vm.UnsafeCall(sym)
	require.Error(t, err)
}

func TestVm_LenientExceptionHandlerRecovers(t *testing.T) {
	var code []byte
	code = append(code, encodeInstr(daedalus.OpPushI, u32le(0)...)...)
	code = append(code, encodeInstr(daedalus.OpPushI, u32le(1)...)...)
	code = append(code, encodeInstr(daedalus.OpDiv)...)
	code = append(code, encodeInstr(daedalus.OpRSR)...)

	scr, err := daedalus.Load(buildModule(t, code))
	require.NoError(t, err)

	vm := daedalus.NewVm(scr, daedalus.WithExceptionHandler(daedalus.LenientExceptionHandler))
	sym := scr.FindSymbolByName("TESTFUNC")
	require.NotNil(t, sym)

	require.NoError(t, vm.UnsafeCall(sym))
}

func TestVm_JumpOutOfRange(t *testing.T) {
	code := encodeInstr(daedalus.OpRSR)
	scr, err := daedalus.Load(buildModule(t, code))
	require.NoError(t, err)

	vm := daedalus.NewVm(scr)
	require.Error(t, vm.Jump(9999))
}
