package daedalus

import (
	"reflect"

	"github.com/gothicgo/zengin/zgerr"
)

// Instance is implemented by every Go type a script CLASS/INSTANCE symbol
// can be bound to. The VM stamps SetSymbolIndex when an instance is
// constructed through InitInstance/AllocateInstance.
type Instance interface {
	SymbolIndex() uint32
	SetSymbolIndex(uint32)
}

// MemberBinding wires a class member symbol to typed accessors on a host Go
// struct. Go has no portable equivalent of reading a member through a raw
// byte offset into an arbitrary struct, so each bound field gets a pair of
// closures instead. HostType is compared against the caller's context
// instance so a symbol registered against one Go type can never be read
// through another, matching IllegalContextType below.
type MemberBinding struct {
	HostType  reflect.Type
	GetInt    func(Instance, int) int32
	SetInt    func(Instance, int, int32)
	GetFloat  func(Instance, int) float32
	SetFloat  func(Instance, int, float32)
	GetString func(Instance, int) string
	SetString func(Instance, int, string)
}

// Symbol is one entry of a compiled script's symbol table.
type Symbol struct {
	index     uint32
	name      string
	generated bool

	typ        DataType
	count      uint32
	flags      SymbolFlag
	returnType DataType

	memberOffset uint32
	classSize    uint32
	classOffset  int32
	address      int32
	parent       int32

	fileIndex uint32
	lineStart uint32
	lineCount uint32
	charStart uint32
	charCount uint32

	ints     []int32
	floats   []float32
	strings  []string
	instance Instance

	binding      *MemberBinding
	registeredTo reflect.Type
}

// RegisterHostType records the Go type a CLASS symbol's instances must be,
// checked by AllocateInstance before binding a new instance to this class.
func (s *Symbol) RegisterHostType(t reflect.Type) {
	s.registeredTo = t
}

// RegisteredTo returns the Go type previously passed to RegisterHostType,
// or nil if none was registered.
func (s *Symbol) RegisteredTo() reflect.Type {
	return s.registeredTo
}

func (s *Symbol) Index() uint32        { return s.index }
func (s *Symbol) Name() string         { return s.name }
func (s *Symbol) IsGenerated() bool    { return s.generated }
func (s *Symbol) Type() DataType       { return s.typ }
func (s *Symbol) Count() uint32        { return s.count }
func (s *Symbol) ReturnType() DataType { return s.returnType }
func (s *Symbol) Parent() int32        { return s.parent }
func (s *Symbol) Address() int32       { return s.address }
func (s *Symbol) ClassOffset() int32   { return s.classOffset }
func (s *Symbol) ClassSize() uint32    { return s.classSize }
func (s *Symbol) MemberOffset() uint32 { return s.memberOffset }

func (s *Symbol) IsConst() bool       { return s.flags&FlagConst != 0 }
func (s *Symbol) HasReturn() bool     { return s.flags&FlagReturn != 0 }
func (s *Symbol) IsMember() bool      { return s.flags&FlagMember != 0 }
func (s *Symbol) IsExternal() bool    { return s.flags&FlagExternal != 0 }
func (s *Symbol) IsMerged() bool      { return s.flags&FlagMerged != 0 }
func (s *Symbol) HasAccessTrap() bool { return s.flags&FlagTrapAccess != 0 }
func (s *Symbol) IsFuncLocals() bool  { return s.flags&FlagFuncLocals != 0 }

// Bind attaches a MemberBinding to a member symbol. Registering a
// non-member symbol is a programming error and is rejected.
func (s *Symbol) Bind(b MemberBinding) error {
	if !s.IsMember() {
		return zgerr.Wrap(zgerr.KindDaedalus, "register member "+s.name, zgerr.ErrMemberRegistration)
	}
	s.binding = &b
	return nil
}

func (s *Symbol) checkContext(context Instance) error {
	if context == nil {
		return zgerr.Wrap(zgerr.KindDaedalus, "read "+s.name, zgerr.ErrNoContext)
	}
	if s.binding == nil {
		return zgerr.Wrap(zgerr.KindDaedalus, "read "+s.name, zgerr.ErrUnboundMemberAccess)
	}
	if reflect.TypeOf(context) != s.binding.HostType {
		return zgerr.Wrap(zgerr.KindDaedalus, "read "+s.name, zgerr.ErrIllegalContextType)
	}
	return nil
}

// GetInt reads an INT (or FUNCTION, which stores a symbol address as an
// int) value.
func (s *Symbol) GetInt(index uint16, context Instance) (int32, error) {
	if s.typ != Int && s.typ != Function {
		return 0, zgerr.Wrap(zgerr.KindDaedalus, "get_int "+s.name, zgerr.ErrIllegalTypeAccess)
	}
	if uint32(index) >= s.count {
		return 0, zgerr.Wrap(zgerr.KindDaedalus, "get_int "+s.name, zgerr.ErrIllegalIndexAccess)
	}
	if s.IsMember() {
		if err := s.checkContext(context); err != nil {
			return 0, err
		}
		return s.binding.GetInt(context, int(index)), nil
	}
	return s.ints[index], nil
}

// SetInt writes an INT value, enforcing const-ness unless ignoreConst is
// set and null-instance tolerance unless allowNullInstance is set.
func (s *Symbol) SetInt(value int32, index uint16, context Instance, ignoreConst, allowNullInstance bool) error {
	if s.typ != Int && s.typ != Function {
		return zgerr.Wrap(zgerr.KindDaedalus, "set_int "+s.name, zgerr.ErrIllegalTypeAccess)
	}
	if uint32(index) >= s.count {
		return zgerr.Wrap(zgerr.KindDaedalus, "set_int "+s.name, zgerr.ErrIllegalIndexAccess)
	}
	if s.IsConst() && !ignoreConst {
		return zgerr.Wrap(zgerr.KindDaedalus, "set_int "+s.name, zgerr.ErrIllegalConstAccess)
	}
	if s.IsMember() {
		if context == nil {
			if allowNullInstance {
				log.Error("accessing member \"" + s.name + "\" without an instance set")
				return nil
			}
			return zgerr.Wrap(zgerr.KindDaedalus, "set_int "+s.name, zgerr.ErrNoContext)
		}
		if err := s.checkContext(context); err != nil {
			return err
		}
		s.binding.SetInt(context, int(index), value)
		return nil
	}
	s.ints[index] = value
	return nil
}

func (s *Symbol) GetFloat(index uint16, context Instance) (float32, error) {
	if s.typ != Float {
		return 0, zgerr.Wrap(zgerr.KindDaedalus, "get_float "+s.name, zgerr.ErrIllegalTypeAccess)
	}
	if uint32(index) >= s.count {
		return 0, zgerr.Wrap(zgerr.KindDaedalus, "get_float "+s.name, zgerr.ErrIllegalIndexAccess)
	}
	if s.IsMember() {
		if err := s.checkContext(context); err != nil {
			return 0, err
		}
		return s.binding.GetFloat(context, int(index)), nil
	}
	return s.floats[index], nil
}

func (s *Symbol) SetFloat(value float32, index uint16, context Instance, ignoreConst, allowNullInstance bool) error {
	if s.typ != Float {
		return zgerr.Wrap(zgerr.KindDaedalus, "set_float "+s.name, zgerr.ErrIllegalTypeAccess)
	}
	if uint32(index) >= s.count {
		return zgerr.Wrap(zgerr.KindDaedalus, "set_float "+s.name, zgerr.ErrIllegalIndexAccess)
	}
	if s.IsConst() && !ignoreConst {
		return zgerr.Wrap(zgerr.KindDaedalus, "set_float "+s.name, zgerr.ErrIllegalConstAccess)
	}
	if s.IsMember() {
		if context == nil {
			if allowNullInstance {
				log.Error("accessing member \"" + s.name + "\" without an instance set")
				return nil
			}
			return zgerr.Wrap(zgerr.KindDaedalus, "set_float "+s.name, zgerr.ErrNoContext)
		}
		if err := s.checkContext(context); err != nil {
			return err
		}
		s.binding.SetFloat(context, int(index), value)
		return nil
	}
	s.floats[index] = value
	return nil
}

func (s *Symbol) GetString(index uint16, context Instance) (string, error) {
	if s.typ != String {
		return "", zgerr.Wrap(zgerr.KindDaedalus, "get_string "+s.name, zgerr.ErrIllegalTypeAccess)
	}
	if uint32(index) >= s.count {
		return "", zgerr.Wrap(zgerr.KindDaedalus, "get_string "+s.name, zgerr.ErrIllegalIndexAccess)
	}
	if s.IsMember() {
		if err := s.checkContext(context); err != nil {
			return "", err
		}
		return s.binding.GetString(context, int(index)), nil
	}
	return s.strings[index], nil
}

func (s *Symbol) SetString(value string, index uint16, context Instance, ignoreConst, allowNullInstance bool) error {
	if s.typ != String {
		return zgerr.Wrap(zgerr.KindDaedalus, "set_string "+s.name, zgerr.ErrIllegalTypeAccess)
	}
	if uint32(index) >= s.count {
		return zgerr.Wrap(zgerr.KindDaedalus, "set_string "+s.name, zgerr.ErrIllegalIndexAccess)
	}
	if s.IsConst() && !ignoreConst {
		return zgerr.Wrap(zgerr.KindDaedalus, "set_string "+s.name, zgerr.ErrIllegalConstAccess)
	}
	if s.IsMember() {
		if context == nil {
			if allowNullInstance {
				log.Error("accessing member \"" + s.name + "\" without an instance set")
				return nil
			}
			return zgerr.Wrap(zgerr.KindDaedalus, "set_string "+s.name, zgerr.ErrNoContext)
		}
		if err := s.checkContext(context); err != nil {
			return err
		}
		s.binding.SetString(context, int(index), value)
		return nil
	}
	s.strings[index] = value
	return nil
}

// GetInstance returns the Instance currently bound to an INSTANCE symbol
// (the script-level global variable this symbol represents).
func (s *Symbol) GetInstance() Instance { return s.instance }

// SetInstance rebinds an INSTANCE symbol's value.
func (s *Symbol) SetInstance(inst Instance) { s.instance = inst }

// setStringFast is used by the VM's temporary-string symbol to stage a
// PUSHI-equivalent literal string without going through index bounds
// checking meant for real script symbols.
func (s *Symbol) setStringFast(value string) {
	s.strings[0] = value
}
