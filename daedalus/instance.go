package daedalus

import "reflect"

var opaqueInstanceType = reflect.TypeOf((*OpaqueInstance)(nil))

// InstanceBase is embedded by every Go type that backs a script INSTANCE
// symbol; it supplies the bookkeeping the VM needs (SymbolIndex) without
// forcing callers to implement the Instance interface by hand.
type InstanceBase struct {
	symbolIndex uint32
}

func (b *InstanceBase) SymbolIndex() uint32       { return b.symbolIndex }
func (b *InstanceBase) SetSymbolIndex(idx uint32) { b.symbolIndex = idx }

// OpaqueInstance backs a CLASS the host program never declared a Go type
// for. Raw byte offsets into a heap block sized by member layout have no
// portable Go equivalent, so this instead keeps one typed slice per
// member and indexes into it by the member's declared array count,
// preserving the same member/offset/count relationship without unsafe.
type OpaqueInstance struct {
	InstanceBase
	ClassSymbol *Symbol
	ints        map[uint32][]int32
	floats      map[uint32][]float32
	strings     map[uint32][]string
}

// NewOpaqueInstance allocates per-member storage for every member symbol,
// sized by each member's declared count, without needing a byte-accurate
// class size computation.
func NewOpaqueInstance(cls *Symbol, members []*Symbol) *OpaqueInstance {
	inst := &OpaqueInstance{
		ClassSymbol: cls,
		ints:        map[uint32][]int32{},
		floats:      map[uint32][]float32{},
		strings:     map[uint32][]string{},
	}

	for _, m := range members {
		switch m.typ {
		case Int, Class, Function, Prototype, Instance:
			inst.ints[m.index] = make([]int32, m.count)
		case Float:
			inst.floats[m.index] = make([]float32, m.count)
		case String:
			inst.strings[m.index] = make([]string, m.count)
		}
	}

	return inst
}

func (o *OpaqueInstance) GetInt(m *Symbol, index int) int32 { return o.ints[m.index][index] }
func (o *OpaqueInstance) SetInt(m *Symbol, index int, v int32) { o.ints[m.index][index] = v }

func (o *OpaqueInstance) GetFloat(m *Symbol, index int) float32 { return o.floats[m.index][index] }
func (o *OpaqueInstance) SetFloat(m *Symbol, index int, v float32) {
	o.floats[m.index][index] = v
}

func (o *OpaqueInstance) GetString(m *Symbol, index int) string { return o.strings[m.index][index] }
func (o *OpaqueInstance) SetString(m *Symbol, index int, v string) {
	o.strings[m.index][index] = v
}

// Bind produces the MemberBinding that routes a member symbol's accessors
// through this opaque instance's own storage, keyed by the member symbol
// itself rather than a fixed byte offset.
func Bind(m *Symbol) MemberBinding {
	return MemberBinding{
		HostType: opaqueInstanceType,
		GetInt: func(ctx Instance, i int) int32 {
			return ctx.(*OpaqueInstance).GetInt(m, i)
		},
		SetInt: func(ctx Instance, i int, v int32) {
			ctx.(*OpaqueInstance).SetInt(m, i, v)
		},
		GetFloat: func(ctx Instance, i int) float32 {
			return ctx.(*OpaqueInstance).GetFloat(m, i)
		},
		SetFloat: func(ctx Instance, i int, v float32) {
			ctx.(*OpaqueInstance).SetFloat(m, i, v)
		},
		GetString: func(ctx Instance, i int) string {
			return ctx.(*OpaqueInstance).GetString(m, i)
		},
		SetString: func(ctx Instance, i int, v string) {
			ctx.(*OpaqueInstance).SetString(m, i, v)
		},
	}
}
