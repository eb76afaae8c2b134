package daedalus

import (
	"fmt"
	"math"
	"reflect"

	"github.com/gothicgo/zengin/zgerr"
)

const stackSize = 2048

// stackFrame is one value-stack entry: either an immediate int/float/
// instance or a reference into a symbol's storage.
type stackFrame struct {
	context   Instance
	reference bool

	kind stackKind
	ival int32
	fval float32
	sym  *Symbol
	inst Instance

	index uint16
}

type stackKind uint8

const (
	kindInt stackKind = iota
	kindFloat
	kindInstance
)

type callFrame struct {
	sym     *Symbol
	pc      uint32
	context Instance
}

// ExceptionHandler decides what the VM does after an opcode raises a
// script error.
type ExceptionHandler func(vm *Vm, err error, instr Instruction) ExceptionStrategy

// Vm is a Daedalus bytecode interpreter bound to one loaded Script.
type Vm struct {
	*Script

	flags ExecFlag

	stack    [stackSize]stackFrame
	stackPtr int
	pc       uint32
	instance Instance

	calls []callFrame

	selfSym, otherSym, victimSym, heroSym, itemSym *Symbol
	temporaryStrings                               *Symbol

	functionOverrides map[uint32]func(*Vm) error
	externals         map[*Symbol]func(*Vm) error
	defaultExternal   func(*Vm, *Symbol) error
	accessTrap        func(*Symbol)
	exceptionHandler  ExceptionHandler
}

// NewVm constructs a Vm over scr, wiring up the well-known SELF/OTHER/
// VICTIM/HERO/ITEM symbols and the scratch string symbol pushString uses.
func NewVm(scr *Script, opts ...VmOption) *Vm {
	vm := &Vm{
		Script:            scr,
		functionOverrides: map[uint32]func(*Vm) error{},
		externals:         map[*Symbol]func(*Vm) error{},
	}

	vm.temporaryStrings = scr.AddTemporaryStringsSymbol()
	vm.selfSym = scr.FindSymbolByName("SELF")
	vm.otherSym = scr.FindSymbolByName("OTHER")
	vm.victimSym = scr.FindSymbolByName("VICTIM")
	vm.heroSym = scr.FindSymbolByName("HERO")
	vm.itemSym = scr.FindSymbolByName("ITEM")

	for _, opt := range opts {
		opt(vm)
	}

	return vm
}

// PC returns the program counter.
func (vm *Vm) PC() uint32 { return vm.pc }

// Jump repositions the program counter.
func (vm *Vm) Jump(address uint32) error {
	if address > vm.Size() {
		return zgerr.Wrap(zgerr.KindVm, fmt.Sprintf("jump to %d", address), zgerr.ErrBadJump)
	}
	vm.pc = address
	return nil
}

func (vm *Vm) pushCall(sym *Symbol) {
	vm.calls = append(vm.calls, callFrame{sym: sym, pc: vm.pc, context: vm.instance})
}

func (vm *Vm) popCall() {
	n := len(vm.calls) - 1
	top := vm.calls[n]
	vm.pc = top.pc
	vm.instance = top.context
	vm.calls = vm.calls[:n]
}

// UnsafeCall runs sym's bytecode to completion (until RSR), without
// validating that sym is actually a callable function symbol.
func (vm *Vm) UnsafeCall(sym *Symbol) error {
	vm.pushCall(sym)
	if err := vm.Jump(uint32(sym.address)); err != nil {
		return err
	}

	for {
		cont, err := vm.step()
		if err != nil {
			vm.popCall()
			return err
		}
		if !cont {
			break
		}
	}

	vm.popCall()
	return nil
}

func (vm *Vm) pushInt(v int32) error {
	if vm.stackPtr == stackSize {
		return zgerr.Wrap(zgerr.KindVm, "push int", zgerr.ErrStackOverflow)
	}
	vm.stack[vm.stackPtr] = stackFrame{kind: kindInt, ival: v}
	vm.stackPtr++
	return nil
}

func (vm *Vm) pushFloat(v float32) error {
	if vm.stackPtr == stackSize {
		return zgerr.Wrap(zgerr.KindVm, "push float", zgerr.ErrStackOverflow)
	}
	vm.stack[vm.stackPtr] = stackFrame{kind: kindFloat, fval: v}
	vm.stackPtr++
	return nil
}

func (vm *Vm) pushInstance(v Instance) error {
	if vm.stackPtr == stackSize {
		return zgerr.Wrap(zgerr.KindVm, "push instance", zgerr.ErrStackOverflow)
	}
	vm.stack[vm.stackPtr] = stackFrame{kind: kindInstance, inst: v}
	vm.stackPtr++
	return nil
}

func (vm *Vm) pushReference(sym *Symbol, index uint8) error {
	if vm.stackPtr == stackSize {
		return zgerr.Wrap(zgerr.KindVm, "push reference", zgerr.ErrStackOverflow)
	}
	vm.stack[vm.stackPtr] = stackFrame{context: vm.instance, reference: true, sym: sym, index: uint16(index)}
	vm.stackPtr++
	return nil
}

// pushString stages value in the VM's single scratch STRING symbol and
// pushes a reference to it.
func (vm *Vm) pushString(value string) error {
	vm.temporaryStrings.setStringFast(value)
	return vm.pushReference(vm.temporaryStrings, 0)
}

func (vm *Vm) popInt() (int32, error) {
	if vm.stackPtr == 0 {
		return 0, nil
	}
	vm.stackPtr--
	v := vm.stack[vm.stackPtr]

	if v.reference {
		return vm.getInt(v.context, v.sym, v.index)
	}
	if v.kind == kindInt {
		return v.ival, nil
	}
	return 0, zgerr.Wrap(zgerr.KindVm, "pop_int", zgerr.ErrTypeMismatch)
}

// popFloat reinterprets a bare int32 stack slot as IEEE-754 bits when no
// float is present (int literals pushed by PUSHI may flow into float-typed
// arithmetic); Go has no implicit reinterpret-cast, so this goes through
// math.Float32frombits explicitly.
func (vm *Vm) popFloat() (float32, error) {
	if vm.stackPtr == 0 {
		return 0, nil
	}
	vm.stackPtr--
	v := vm.stack[vm.stackPtr]

	if v.reference {
		return vm.getFloat(v.context, v.sym, v.index)
	}
	if v.kind == kindFloat {
		return v.fval, nil
	}
	if v.kind == kindInt {
		return math.Float32frombits(uint32(v.ival)), nil
	}
	return 0, zgerr.Wrap(zgerr.KindVm, "pop_float", zgerr.ErrTypeMismatch)
}

func (vm *Vm) popReference() (*Symbol, uint16, Instance, error) {
	if vm.stackPtr == 0 {
		return nil, 0, nil, zgerr.Wrap(zgerr.KindVm, "pop_reference", zgerr.ErrStackUnderflow)
	}
	vm.stackPtr--
	v := vm.stack[vm.stackPtr]
	if !v.reference {
		return nil, 0, nil, zgerr.Wrap(zgerr.KindVm, "pop_reference", zgerr.ErrTypeMismatch)
	}
	return v.sym, v.index, v.context, nil
}

func (vm *Vm) popInstance() (Instance, error) {
	if vm.stackPtr == 0 {
		return nil, zgerr.Wrap(zgerr.KindVm, "pop_instance", zgerr.ErrStackUnderflow)
	}
	vm.stackPtr--
	v := vm.stack[vm.stackPtr]

	if v.reference {
		return v.sym.GetInstance(), nil
	}
	if v.kind == kindInstance {
		return v.inst, nil
	}
	return nil, zgerr.Wrap(zgerr.KindVm, "pop_instance", zgerr.ErrTypeMismatch)
}

func (vm *Vm) popString() (string, error) {
	sym, idx, ctx, err := vm.popReference()
	if err != nil {
		return "", err
	}

	if sym.IsMember() && ctx == nil {
		if vm.flags&FlagAllowNullInstanceAccess == 0 {
			return "", zgerr.Wrap(zgerr.KindVm, "pop_string", zgerr.ErrNoContext)
		}
		log.Error("accessing member \"" + sym.name + "\" without an instance set")
		return "", nil
	}

	return sym.GetString(idx, ctx)
}

func (vm *Vm) getInt(context Instance, sym *Symbol, index uint16) (int32, error) {
	if sym.IsMember() && context == nil {
		if vm.flags&FlagAllowNullInstanceAccess == 0 {
			return 0, zgerr.Wrap(zgerr.KindVm, "get_int", zgerr.ErrNoContext)
		}
		log.Error("accessing member \"" + sym.name + "\" without an instance set")
		return 0, nil
	}
	return sym.GetInt(index, context)
}

func (vm *Vm) getFloat(context Instance, sym *Symbol, index uint16) (float32, error) {
	if sym.IsMember() && context == nil {
		if vm.flags&FlagAllowNullInstanceAccess == 0 {
			return 0, zgerr.Wrap(zgerr.KindVm, "get_float", zgerr.ErrNoContext)
		}
		log.Error("accessing member \"" + sym.name + "\" without an instance set")
		return 0, nil
	}
	return sym.GetFloat(index, context)
}

func (vm *Vm) setInt(context Instance, ref *Symbol, index uint16, value int32) error {
	ignoreConst := vm.flags&FlagIgnoreConstSpecifier != 0
	allowNull := vm.flags&FlagAllowNullInstanceAccess != 0
	if !ref.IsMember() || context != nil || !allowNull {
		return ref.SetInt(value, index, context, ignoreConst, allowNull)
	}
	log.Error("accessing member \"" + ref.name + "\" without an instance set")
	return nil
}

func (vm *Vm) setFloat(context Instance, ref *Symbol, index uint16, value float32) error {
	ignoreConst := vm.flags&FlagIgnoreConstSpecifier != 0
	allowNull := vm.flags&FlagAllowNullInstanceAccess != 0
	if !ref.IsMember() || context != nil || !allowNull {
		return ref.SetFloat(value, index, context, ignoreConst, allowNull)
	}
	log.Error("accessing member \"" + ref.name + "\" without an instance set")
	return nil
}

func (vm *Vm) setString(context Instance, ref *Symbol, index uint16, value string) error {
	ignoreConst := vm.flags&FlagIgnoreConstSpecifier != 0
	allowNull := vm.flags&FlagAllowNullInstanceAccess != 0
	if !ref.IsMember() || context != nil || !allowNull {
		return ref.SetString(value, index, context, ignoreConst, allowNull)
	}
	log.Error("accessing member \"" + ref.name + "\" without an instance set")
	return nil
}

// b2i converts a Go bool comparison result to Daedalus's int-valued
// booleans (0/1).
func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// step executes exactly one instruction at the current PC. It returns
// false when the subroutine should end (RSR, or an exception handled with
// the return strategy), and an error when the instruction raised an
// unhandled exception.
func (vm *Vm) step() (bool, error) {
	pcBefore := vm.pc
	instr, err := vm.InstructionAt(vm.pc)
	if err != nil {
		return false, err
	}

	cont, err := vm.dispatch(instr)
	if err == nil {
		if vm.pc == pcBefore {
			vm.pc += instr.Size
		}
		return cont, nil
	}

	if vm.exceptionHandler == nil {
		log.Error("error executing script: " + err.Error())
		return false, err
	}

	switch vm.exceptionHandler(vm, err, instr) {
	case StrategyFail:
		log.Error("error executing script: " + err.Error())
		return false, err
	case StrategyReturn:
		return false, nil
	case StrategyContinue:
		if vm.pc == pcBefore {
			vm.pc += instr.Size
		}
		return true, nil
	}
	return true, nil
}

// dispatch executes instr's side effects. B and BZ-taken set vm.pc
// themselves via Jump; step() detects this by comparing vm.pc against its
// value before dispatch ran, so it only advances by instr.Size when no
// jump occurred.
func (vm *Vm) dispatch(instr Instruction) (bool, error) {
	switch instr.Op {
	case OpAdd:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(a + b)
	case OpSub:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(a - b)
	case OpMul:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(a * b)
	case OpDiv:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		if b == 0 {
			return true, zgerr.Wrap(zgerr.KindVm, "div", zgerr.ErrDivisionByZero)
		}
		return true, vm.pushInt(a / b)
	case OpMod:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		if b == 0 {
			return true, zgerr.Wrap(zgerr.KindVm, "mod", zgerr.ErrDivisionByZero)
		}
		return true, vm.pushInt(a % b)
	case OpOr:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(a | b)
	case OpAndB:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(a & b)
	case OpLT:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(b2i(a < b))
	case OpGT:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(b2i(a > b))
	case OpLSL:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(a << uint32(b))
	case OpLSR:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(a >> uint32(b))
	case OpLTE:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(b2i(a <= b))
	case OpEQ:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(b2i(a == b))
	case OpNEQ:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(b2i(a != b))
	case OpGTE:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(b2i(a >= b))
	case OpPlus:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(+a)
	case OpNegate:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(-a)
	case OpNot:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(b2i(a == 0))
	case OpCmpl:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(^a)
	case OpOrr:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(b2i(a != 0 || b != 0))
	case OpAnd:
		a, err := vm.popInt()
		if err != nil {
			return true, err
		}
		b, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.pushInt(b2i(a != 0 && b != 0))
	case OpNop:
		return true, nil
	case OpRSR:
		return false, nil
	case OpBL:
		return true, vm.execBL(instr)
	case OpBE:
		return true, vm.execBE(instr)
	case OpPushI:
		return true, vm.pushInt(instr.Immediate)
	case OpPushV, OpPushVI:
		sym := vm.FindSymbolByIndex(instr.Symbol)
		if sym == nil {
			return true, zgerr.Wrap(zgerr.KindVm, "pushv", zgerr.ErrSymbolNotFound)
		}
		if sym.HasAccessTrap() && vm.accessTrap != nil {
			vm.accessTrap(sym)
			return true, nil
		}
		return true, vm.pushReference(sym, 0)
	case OpMovI, OpMovVF:
		ref, idx, ctx, err := vm.popReference()
		if err != nil {
			return true, err
		}
		value, err := vm.popInt()
		if err != nil {
			return true, err
		}
		return true, vm.setInt(ctx, ref, idx, value)
	case OpMovF:
		ref, idx, ctx, err := vm.popReference()
		if err != nil {
			return true, err
		}
		value, err := vm.popFloat()
		if err != nil {
			return true, err
		}
		return true, vm.setFloat(ctx, ref, idx, value)
	case OpMovS:
		ref, idx, ctx, err := vm.popReference()
		if err != nil {
			return true, err
		}
		value, err := vm.popString()
		if err != nil {
			return true, err
		}
		return true, vm.setString(ctx, ref, idx, value)
	case OpMovSS:
		// String-to-string member move; no script in the wild is known to
		// emit this, so it is accepted as a no-op rather than failing exec.
		return true, nil
	case OpAddMovI:
		return true, vm.execCompoundMovI(func(a, b int32) int32 { return a + b })
	case OpSubMovI:
		return true, vm.execCompoundMovI(func(a, b int32) int32 { return a - b })
	case OpMulMovI:
		return true, vm.execCompoundMovI(func(a, b int32) int32 { return a * b })
	case OpDivMovI:
		return true, vm.execDivMovI()
	case OpMovVI:
		target, _, _, err := vm.popReference()
		if err != nil {
			return true, err
		}
		value, err := vm.popInstance()
		if err != nil {
			return true, err
		}
		target.SetInstance(value)
		return true, nil
	case OpB:
		return true, vm.Jump(instr.Address)
	case OpBZ:
		v, err := vm.popInt()
		if err != nil {
			return true, err
		}
		if v == 0 {
			return true, vm.Jump(instr.Address)
		}
		return true, nil
	case OpGMovI:
		sym := vm.FindSymbolByIndex(instr.Symbol)
		if sym == nil {
			return true, zgerr.Wrap(zgerr.KindVm, "gmovi", zgerr.ErrSymbolNotFound)
		}
		vm.instance = sym.GetInstance()
		return true, nil
	case OpPushVV:
		sym := vm.FindSymbolByIndex(instr.Symbol)
		if sym == nil {
			return true, zgerr.Wrap(zgerr.KindVm, "pushvv", zgerr.ErrSymbolNotFound)
		}
		return true, vm.pushReference(sym, instr.Index)
	}

	return true, nil
}

// execBL handles an unconditional call-by-address, honoring any override
// registered for that address.
func (vm *Vm) execBL(instr Instruction) error {
	sym := vm.FindSymbolByAddress(instr.Address)

	if cb, ok := vm.functionOverrides[instr.Address]; ok {
		if err := cb(vm); err != nil {
			if sym != nil {
				_ = vm.pushDefault(sym.returnType)
			}
			return err
		}
		return nil
	}

	if sym == nil {
		return zgerr.Wrap(zgerr.KindVm, fmt.Sprintf("bl: no symbol found for address %d", instr.Address), zgerr.ErrSymbolNotFound)
	}
	return vm.UnsafeCall(sym)
}

// execBE handles a call-by-symbol-index to an external. When the callback
// returns an error, a default value of the symbol's return type is pushed
// before the error is returned.
func (vm *Vm) execBE(instr Instruction) error {
	sym := vm.FindSymbolByIndex(instr.Symbol)
	if sym == nil {
		return zgerr.Wrap(zgerr.KindVm, "be: no external found for index", zgerr.ErrSymbolNotFound)
	}

	pushed := false
	guard := func() error {
		if pushed {
			return nil
		}
		return vm.pushDefault(sym.returnType)
	}

	cb, ok := vm.externals[sym]
	if !ok {
		if vm.defaultExternal == nil {
			return zgerr.Wrap(zgerr.KindVm, "be: no external registered for "+sym.name, zgerr.ErrSymbolNotFound)
		}
		if err := vm.defaultExternal(vm, sym); err != nil {
			return err
		}
		pushed = true
		return nil
	}

	vm.pushCall(sym)
	err := cb(vm)
	vm.popCall()
	if err != nil {
		if gerr := guard(); gerr != nil {
			return gerr
		}
		return err
	}
	pushed = true
	return nil
}

func (vm *Vm) pushDefault(t DataType) error {
	switch t {
	case Float:
		return vm.pushFloat(0)
	case Int, Function:
		return vm.pushInt(0)
	case String:
		return vm.pushString("")
	case Instance:
		return vm.pushInstance(nil)
	}
	return nil
}

func (vm *Vm) execCompoundMovI(op func(a, b int32) int32) error {
	ref, idx, ctx, err := vm.popReference()
	if err != nil {
		return err
	}
	value, err := vm.popInt()
	if err != nil {
		return err
	}

	ignoreConst := vm.flags&FlagIgnoreConstSpecifier != 0
	if ref.IsConst() && !ignoreConst {
		return zgerr.Wrap(zgerr.KindVm, "compound assign to "+ref.name, zgerr.ErrIllegalConstAccess)
	}

	allowNull := vm.flags&FlagAllowNullInstanceAccess != 0
	if !ref.IsMember() || ctx != nil || !allowNull {
		cur, err := ref.GetInt(idx, ctx)
		if err != nil {
			return err
		}
		return ref.SetInt(op(cur, value), idx, ctx, ignoreConst, allowNull)
	}
	if ref.IsMember() {
		log.Error("accessing member \"" + ref.name + "\" without an instance set")
	}
	return nil
}

func (vm *Vm) execDivMovI() error {
	ref, idx, ctx, err := vm.popReference()
	if err != nil {
		return err
	}
	value, err := vm.popInt()
	if err != nil {
		return err
	}
	if value == 0 {
		return zgerr.Wrap(zgerr.KindVm, "divmovi", zgerr.ErrDivisionByZero)
	}

	ignoreConst := vm.flags&FlagIgnoreConstSpecifier != 0
	if ref.IsConst() && !ignoreConst {
		return zgerr.Wrap(zgerr.KindVm, "compound assign to "+ref.name, zgerr.ErrIllegalConstAccess)
	}

	allowNull := vm.flags&FlagAllowNullInstanceAccess != 0
	if !ref.IsMember() || ctx != nil || !allowNull {
		cur, err := ref.GetInt(idx, ctx)
		if err != nil {
			return err
		}
		return ref.SetInt(cur/value, idx, ctx, ignoreConst, allowNull)
	}
	if ref.IsMember() {
		log.Error("accessing member \"" + ref.name + "\" without an instance set")
	}
	return nil
}

// RegisterExternal registers fn as the implementation of the script
// external named name, verifying it is actually declared as an external
// function in the script. fn is responsible for popping exactly the
// declared parameters (in reverse order) and, if the symbol has_return(),
// pushing exactly one value of the declared return type; this does not
// yet verify fn's arity against FindParametersForFunction itself.
func (vm *Vm) RegisterExternal(name string, fn func(*Vm) error) error {
	sym := vm.FindSymbolByName(name)
	if sym == nil {
		return nil
	}
	if !sym.IsExternal() {
		return zgerr.Wrap(zgerr.KindVm, "register external "+name, zgerr.ErrIllegalExternalDefinition)
	}
	vm.externals[sym] = fn
	return nil
}

// RegisterFunctionOverride registers fn to run instead of the script
// function whose address is sym.Address(), an address-keyed BL override
// lookup used to intercept specific script routines (e.g. content-pack
// patches) without touching the bytecode.
func (vm *Vm) RegisterFunctionOverride(sym *Symbol, fn func(*Vm) error) {
	vm.functionOverrides[uint32(sym.address)] = fn
}

// RegisterDefaultExternal installs the fallback invoked for any external
// call whose symbol has no specific registration: it pops the declared
// parameters, pushes a zero-valued return if the symbol declares one, then
// invokes callback with the symbol's name.
func (vm *Vm) RegisterDefaultExternal(callback func(name string)) {
	vm.defaultExternal = func(v *Vm, sym *Symbol) error {
		params := v.FindParametersForFunction(sym)
		for i := len(params) - 1; i >= 0; i-- {
			par := params[i]
			var err error
			switch par.typ {
			case Int:
				_, err = v.popInt()
			case Float:
				_, err = v.popFloat()
			case Instance, String:
				_, _, _, err = v.popReference()
			}
			if err != nil {
				return err
			}
		}

		if sym.HasReturn() {
			if err := v.pushDefault(sym.returnType); err != nil {
				return err
			}
		}

		callback(sym.name)
		return nil
	}
}

// RegisterDefaultExternalCustom installs a raw fallback with full control
// over the stack.
func (vm *Vm) RegisterDefaultExternalCustom(callback func(*Vm, *Symbol) error) {
	vm.defaultExternal = callback
}

// RegisterAccessTrap installs the interceptor invoked instead of pushing a
// reference to a TRAP_ACCESS-flagged symbol.
func (vm *Vm) RegisterAccessTrap(callback func(*Symbol)) {
	vm.accessTrap = callback
}

// RegisterExceptionHandler installs the strategy decider invoked whenever
// an opcode raises a script error.
func (vm *Vm) RegisterExceptionHandler(handler ExceptionHandler) {
	vm.exceptionHandler = handler
}

// LenientExceptionHandler is a built-in ExceptionHandler that logs the
// error and always continues, pushing a harmless default value for
// opcodes that expect one.
func LenientExceptionHandler(vm *Vm, err error, instr Instruction) ExceptionStrategy {
	log.Error("internal exception: " + err.Error())

	switch instr.Op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpOr, OpAndB, OpLT, OpGT, OpOrr, OpAnd,
		OpLSL, OpLSR, OpLTE, OpEQ, OpNEQ, OpGTE, OpPlus, OpNegate, OpNot, OpCmpl:
		_ = vm.pushInt(0)
	case OpPushI, OpPushV, OpPushVI, OpPushVV:
		_ = vm.pushInt(0)
	case OpAddMovI, OpSubMovI, OpMulMovI, OpDivMovI, OpMovI, OpMovS, OpMovSS, OpMovVF, OpMovF, OpMovVI:
		// nothing to undo; the offending values are already off the stack.
	case OpGMovI:
		vm.instance = nil
	}

	return StrategyContinue
}

// InitInstance constructs a new instance of inst (which must embed
// InstanceBase), binds it to sym, and runs sym's bytecode initializer.
// inst is passed as a zero-value pointer produced by the caller (e.g.
// &Npc{}) since Go generics over constructors are more awkward here than
// a simple factory argument.
func (vm *Vm) InitInstance(inst Instance, sym *Symbol) error {
	if err := vm.AllocateInstance(inst, sym); err != nil {
		return err
	}

	oldInstance := vm.instance
	var oldSelf Instance
	if vm.selfSym != nil {
		oldSelf = vm.selfSym.GetInstance()
	}

	vm.instance = inst
	if vm.selfSym != nil {
		vm.selfSym.SetInstance(inst)
	}

	err := vm.UnsafeCall(sym)

	vm.instance = oldInstance
	if vm.selfSym != nil {
		vm.selfSym.SetInstance(oldSelf)
	}

	return err
}

// AllocateInstance performs InitInstance's setup half without running the
// initializer bytecode. It walks sym's parent chain to the owning CLASS
// symbol and confirms that class was registered for inst's exact Go type
// via reflect.
func (vm *Vm) AllocateInstance(inst Instance, sym *Symbol) error {
	if sym == nil {
		return zgerr.Wrap(zgerr.KindVm, "allocate instance", zgerr.ErrSymbolNotFound)
	}
	if sym.typ != Instance {
		return zgerr.Wrap(zgerr.KindVm, "cannot init "+sym.name, zgerr.ErrIllegalTypeAccess)
	}

	parent := vm.FindSymbolByIndex(uint32(sym.parent))
	if parent == nil {
		return zgerr.New(zgerr.KindVm, "cannot init "+sym.name+": parent class not found (did you try to initialize $INSTANCE_HELP?)")
	}
	for parent.typ != Class {
		parent = vm.FindSymbolByIndex(uint32(parent.parent))
		if parent == nil {
			return zgerr.New(zgerr.KindVm, "cannot init "+sym.name+": parent class not found (did you try to initialize $INSTANCE_HELP?)")
		}
	}

	if parent.registeredTo != reflect.TypeOf(inst) {
		return zgerr.New(zgerr.KindVm, "cannot init "+sym.name+": parent class is not registered or is registered to a different instance class")
	}

	inst.SetSymbolIndex(sym.index)
	sym.SetInstance(inst)
	return nil
}

// InitOpaqueInstance constructs a generic OpaqueInstance for a CLASS the
// host program has no concrete Go type for, binding every member via
// RegisterAsOpaque and then running the script initializer.
func (vm *Vm) InitOpaqueInstance(sym *Symbol) (*OpaqueInstance, error) {
	cls := sym
	for cls != nil && cls.typ != Class {
		cls = vm.FindSymbolByIndex(uint32(cls.parent))
	}
	if cls == nil {
		return nil, zgerr.New(zgerr.KindVm, "cannot init "+sym.name+": parent class not found (did you try to initialize $INSTANCE_HELP?)")
	}

	vm.RegisterAsOpaque(cls)
	members := vm.FindClassMembers(cls)
	inst := NewOpaqueInstance(cls, members)

	if err := vm.InitInstance(inst, sym); err != nil {
		return nil, err
	}
	return inst, nil
}
