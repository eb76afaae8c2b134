package daedalus

import (
	"strings"
	"unicode"

	"github.com/gothicgo/zengin/stream"
	"github.com/gothicgo/zengin/zgerr"
)

// Script holds a compiled Daedalus module's symbol table and bytecode.
type Script struct {
	version uint8
	symbols []Symbol

	byName    map[string]uint32
	byAddress map[uint32]uint32

	text stream.Stream
}

// Load parses a compiled Daedalus module from s: version byte, symbol
// count, a sort table (skipped), the symbol table, then the bytecode.
func Load(s stream.Stream) (*Script, error) {
	scr := &Script{}

	version, err := s.ReadU8()
	if err != nil {
		return nil, zgerr.Wrap(zgerr.KindDaedalus, "read version", err)
	}
	scr.version = version

	symbolCount, err := s.ReadU32()
	if err != nil {
		return nil, zgerr.Wrap(zgerr.KindDaedalus, "read symbol count", err)
	}

	scr.symbols = make([]Symbol, symbolCount)
	scr.byName = make(map[string]uint32, symbolCount+1)
	scr.byAddress = make(map[uint32]uint32, symbolCount)

	// Sort table: symbolCount indexes into the symbol table, sorted
	// lexicographically by symbol name. Loading never needs it since
	// FindSymbolByName keeps its own map.
	if _, err := s.Seek(int32(symbolCount)*4, stream.Current); err != nil {
		return nil, zgerr.Wrap(zgerr.KindDaedalus, "skip sort table", err)
	}

	for i := uint32(0); i < symbolCount; i++ {
		sym, err := loadSymbol(s)
		if err != nil {
			return nil, zgerr.Wrap(zgerr.KindDaedalus, "load symbol", err)
		}
		sym.index = i
		scr.symbols[i] = sym

		scr.byName[strings.ToUpper(sym.name)] = i

		if sym.typ == Prototype || sym.typ == Instance ||
			(sym.typ == Function && sym.IsConst() && !sym.IsMember()) {
			scr.byAddress[uint32(sym.address)] = i
		}
	}

	textSize, err := s.ReadU32()
	if err != nil {
		return nil, zgerr.Wrap(zgerr.KindDaedalus, "read text size", err)
	}
	code, err := s.ReadBlock(int(textSize))
	if err != nil {
		return nil, zgerr.Wrap(zgerr.KindDaedalus, "read bytecode", err)
	}
	scr.text = stream.OpenMemory(code)

	return scr, nil
}

func loadSymbol(s stream.Stream) (Symbol, error) {
	var sym Symbol

	hasName, err := s.ReadU32()
	if err != nil {
		return sym, err
	}
	if hasName != 0 {
		name, err := s.ReadLine(false)
		if err != nil {
			return sym, err
		}
		if len(name) > 0 && name[0] == 0xFF {
			name = "$" + name[1:]
			sym.generated = true
		}
		sym.name = name
	}

	vary, err := s.ReadU32()
	if err != nil {
		return sym, err
	}
	properties, err := s.ReadU32()
	if err != nil {
		return sym, err
	}

	sym.count = properties & 0xFFF
	sym.typ = DataType((properties >> 12) & 0xF)
	sym.flags = SymbolFlag((properties >> 16) & 0x3F)

	switch {
	case sym.IsMember():
		sym.memberOffset = vary
	case sym.typ == Class:
		sym.classSize = vary
	case sym.typ == Function:
		sym.returnType = DataType(vary)
	}

	fileIndex, err := s.ReadU32()
	if err != nil {
		return sym, err
	}
	lineStart, err := s.ReadU32()
	if err != nil {
		return sym, err
	}
	lineCount, err := s.ReadU32()
	if err != nil {
		return sym, err
	}
	charStart, err := s.ReadU32()
	if err != nil {
		return sym, err
	}
	charCount, err := s.ReadU32()
	if err != nil {
		return sym, err
	}
	sym.fileIndex = fileIndex & 0x7FFFF
	sym.lineStart = lineStart & 0x7FFFF
	sym.lineCount = lineCount & 0x7FFFF
	sym.charStart = charStart & 0xFFFFFF
	sym.charCount = charCount & 0xFFFFFF

	if !sym.IsMember() {
		switch sym.typ {
		case Float:
			sym.floats = make([]float32, sym.count)
			for i := range sym.floats {
				v, err := s.ReadF32()
				if err != nil {
					return sym, err
				}
				sym.floats[i] = v
			}
		case Int:
			sym.ints = make([]int32, sym.count)
			for i := range sym.ints {
				v, err := s.ReadU32()
				if err != nil {
					return sym, err
				}
				sym.ints[i] = int32(v)
			}
		case String:
			sym.strings = make([]string, sym.count)
			for i := range sym.strings {
				line, err := s.ReadLine(false)
				if err != nil {
					return sym, err
				}
				sym.strings[i] = unescape(line)
			}
		case Class:
			v, err := s.ReadU32()
			if err != nil {
				return sym, err
			}
			sym.classOffset = int32(v)
		case Instance:
			v, err := s.ReadU32()
			if err != nil {
				return sym, err
			}
			sym.address = int32(v)
		case Function:
			v, err := s.ReadU32()
			if err != nil {
				return sym, err
			}
			sym.address = int32(v)
			if !sym.IsConst() {
				sym.ints = make([]int32, 1)
			}
		case Prototype:
			v, err := s.ReadU32()
			if err != nil {
				return sym, err
			}
			sym.address = int32(v)
		}
	}

	parent, err := s.ReadU32()
	if err != nil {
		return sym, err
	}
	sym.parent = int32(parent)

	if sym.typ == String && !sym.IsMember() && sym.IsConst() && isSpaceByte(byte(sym.parent&0xFF)) {
		if err := fixupStringParent(s, &sym); err != nil {
			return sym, err
		}
	}

	return sym, nil
}

func isSpaceByte(b byte) bool {
	return unicode.IsSpace(rune(b))
}

// fixupStringParent applies a lookback heuristic: a const STRING symbol's
// serialized parent field can be clipped by a
// preceding string's embedded newline escape, so when the low byte looks
// like whitespace we back up in 3-byte steps looking for the -1 sentinel
// every top-level symbol's parent actually carries.
func fixupStringParent(s stream.Stream, sym *Symbol) error {
	savepoint := s.Tell()

	attempts := 4
	for ; attempts > 0; attempts-- {
		if _, err := s.Seek(-3, stream.Current); err != nil {
			return err
		}
		v, err := s.ReadU32()
		if err != nil {
			return err
		}
		parentIndex := int32(v)
		if parentIndex == -1 {
			sym.parent = parentIndex
			break
		}
	}

	if attempts == 0 {
		if _, err := s.Seek(int32(savepoint), stream.Begin); err != nil {
			return err
		}
		v, err := s.ReadU32()
		if err != nil {
			return err
		}
		sym.parent = int32(v)
		log.Warn("Heuristic: no valid endpoint found for a string symbol's parent; issues might arise")
	}

	return nil
}

// unescape turns the two escape sequences the Daedalus compiler emits into
// strings ("\n" and "\t") back into their literal bytes.
func unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// DecodeInstruction decodes one bytecode instruction at the stream's
// current position.
func DecodeInstruction(s stream.Stream) (Instruction, error) {
	var ins Instruction

	op, err := s.ReadU8()
	if err != nil {
		return ins, err
	}
	ins.Op = Opcode(op)
	ins.Size = 1

	switch ins.Op {
	case OpBL, OpBZ, OpB:
		v, err := s.ReadU32()
		if err != nil {
			return ins, err
		}
		ins.Address = v
		ins.Size += 4
	case OpPushI:
		v, err := s.ReadU32()
		if err != nil {
			return ins, err
		}
		ins.Immediate = int32(v)
		ins.Size += 4
	case OpBE, OpPushV, OpPushVI, OpGMovI:
		v, err := s.ReadU32()
		if err != nil {
			return ins, err
		}
		ins.Symbol = v
		ins.Size += 4
	case OpPushVV:
		v, err := s.ReadU32()
		if err != nil {
			return ins, err
		}
		ins.Symbol = v
		idx, err := s.ReadU8()
		if err != nil {
			return ins, err
		}
		ins.Index = idx
		ins.Size += 5
	}

	return ins, nil
}

// InstructionAt decodes the instruction stored at address.
func (scr *Script) InstructionAt(address uint32) (Instruction, error) {
	if _, err := scr.text.Seek(int32(address), stream.Begin); err != nil {
		return Instruction{}, zgerr.Wrap(zgerr.KindDaedalus, "seek bytecode", err)
	}
	return DecodeInstruction(scr.text)
}

// Size returns the bytecode length in bytes.
func (scr *Script) Size() uint32 {
	return uint32(scr.text.Len())
}

// FindSymbolByIndex returns the symbol at index, or nil if out of range.
func (scr *Script) FindSymbolByIndex(index uint32) *Symbol {
	if index >= uint32(len(scr.symbols)) {
		return nil
	}
	return &scr.symbols[index]
}

// FindSymbolByName looks a symbol up case-insensitively.
func (scr *Script) FindSymbolByName(name string) *Symbol {
	idx, ok := scr.byName[strings.ToUpper(name)]
	if !ok {
		return nil
	}
	return scr.FindSymbolByIndex(idx)
}

// FindSymbolByAddress looks up the PROTOTYPE/INSTANCE/const-FUNCTION symbol
// that starts at address.
func (scr *Script) FindSymbolByAddress(address uint32) *Symbol {
	idx, ok := scr.byAddress[address]
	if !ok {
		return nil
	}
	return scr.FindSymbolByIndex(idx)
}

// EnumerateInstancesByClassName invokes callback for every const INSTANCE
// symbol whose class is name, following the PROTOTYPE chain.
func (scr *Script) EnumerateInstancesByClassName(name string, callback func(*Symbol)) {
	cls := scr.FindSymbolByName(name)
	if cls == nil {
		return
	}

	prototypes := map[uint32]bool{}
	for i := range scr.symbols {
		sym := &scr.symbols[i]
		if sym.typ == Prototype && sym.parent == int32(cls.index) {
			prototypes[sym.index] = true
		} else if sym.typ == Instance && sym.IsConst() &&
			(prototypes[uint32(sym.parent)] || sym.parent == int32(cls.index)) {
			callback(sym)
		}
	}
}

// FindParametersForFunction returns the parameter symbols immediately
// following parent in the symbol table.
func (scr *Script) FindParametersForFunction(parent *Symbol) []*Symbol {
	syms := make([]*Symbol, 0, parent.count)
	for i := uint32(0); i < parent.count; i++ {
		syms = append(syms, scr.FindSymbolByIndex(parent.index+i+1))
	}
	return syms
}

// FindClassMembers returns every member symbol belonging to cls.
func (scr *Script) FindClassMembers(cls *Symbol) []*Symbol {
	var members []*Symbol
	for i := range scr.symbols {
		sym := &scr.symbols[i]
		if !sym.IsMember() || uint32(sym.parent) != cls.index {
			continue
		}
		members = append(members, sym)
	}
	return members
}

// RegisterAsOpaque binds every member of sym's class to OpaqueInstance
// storage. Rather than computing a byte size and offset per member to lay
// out a raw memory block, this only needs to attach a MemberBinding since
// OpaqueInstance keeps its own per-member slices.
func (scr *Script) RegisterAsOpaque(sym *Symbol) {
	members := scr.FindClassMembers(sym)
	for _, m := range members {
		_ = m.Bind(Bind(m))
	}
	sym.RegisterHostType(opaqueInstanceType)
}

// AddTemporaryStringsSymbol appends the VM's single-slot scratch STRING
// symbol used to stage literal values that never came from the script
// itself.
func (scr *Script) AddTemporaryStringsSymbol() *Symbol {
	sym := Symbol{
		name:      "$PHOENIX_FAKE_STRINGS",
		generated: true,
		typ:       String,
		count:     1,
		strings:   make([]string, 1),
		index:     uint32(len(scr.symbols)),
	}
	scr.symbols = append(scr.symbols, sym)
	return &scr.symbols[len(scr.symbols)-1]
}
