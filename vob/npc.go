package vob

import (
	"strings"

	"github.com/gothicgo/zengin/archive"
	"github.com/gothicgo/zengin/stream"
	"github.com/gothicgo/zengin/zgerr"
)

func init() {
	archive.Register("oCNpc:zCVob", func() archive.Persistable { return &Npc{} }, 0, 0)
}

// Talent is an oCNpcTalent sub-object: one learned skill level. An empty
// ("%") slot in the talent list round-trips as a zero-value Talent, via
// skip-and-continue.
type Talent struct {
	Talent int32
	Value  int32
	Skill  int32
}

// InventorySlot is one entry of an Npc's equipment slot table; Item is
// resolved either from an embedded object or a back reference into Items.
type InventorySlot struct {
	Used       bool
	Name       string
	Item       *Item
	InInventory bool
}

// Npc is oCNpc: a field-by-field load including the two always-empty
// "carryVob"/"enemy" back-reference slots and the G1/G2 "packed" string
// split.
type Npc struct {
	VirtualObject

	InstanceName string
	ModelScale   stream.Vec3
	ModelFatness float32

	Overlays []string

	Flags      int32
	Guild      int32
	GuildTrue  int32
	Level      int32
	XP         int32
	XPNextLevel int32
	LP         int32

	Talents []Talent

	FightTactic int32
	FightMode   int32
	Wounded     bool
	Mad         bool
	MadTime     int32
	Player      bool

	Attributes [8]int32
	HitChance  [5]int32 // Gothic 2 only ("hc<n>"); unused fields stay zero under Gothic 1.

	Missions [5]int32

	StartAIState string
	AIVars       []int32

	ScriptWaypoint string
	Attitude       int32
	AttitudeTemp   int32
	NameNr         int32

	Spells [4]byte

	MoveLock bool
	Packed   [9]string

	Items []*Item
	Slots []InventorySlot

	CurrentStateValid     bool
	CurrentStateName      string
	CurrentStateIndex     int32
	CurrentStateIsRoutine bool
	NextStateValid        bool
	NextStateName         string
	NextStateIndex        int32
	NextStateIsRoutine    bool
	LastAIState           int32
	HasRoutine            bool
	RoutineChanged        bool
	RoutineOverlay        bool
	RoutineOverlayCount   int32
	WalkmodeRoutine       int32
	WeaponmodeRoutine     bool
	StartNewRoutine       bool
	AIStateDriven         int32
	AIStatePos            stream.Vec3
	CurrentRoutine        string
	Respawn               bool
	RespawnTime           int32

	Protection [8]int32

	BSInterruptableOverride int32
	NPCType                 int32
	SpellMana               int32
}

func (n *Npc) ClassName() string { return "oCNpc:zCVob" }

func (n *Npc) Load(r archive.Reader, version archive.GameVersion) error {
	if err := n.LoadBase(r, version); err != nil {
		return err
	}

	var err error
	if n.InstanceName, err = r.ReadString(); err != nil {
		return err
	}
	if n.ModelScale, err = r.ReadVec3(); err != nil {
		return err
	}
	if n.ModelFatness, err = r.ReadFloat(); err != nil {
		return err
	}

	overlayCount, err := r.ReadInt()
	if err != nil {
		return err
	}
	n.Overlays = make([]string, 0, overlayCount)
	for i := int32(0); i < overlayCount; i++ {
		s, err := r.ReadString()
		if err != nil {
			return err
		}
		n.Overlays = append(n.Overlays, s)
	}

	if n.Flags, err = r.ReadInt(); err != nil {
		return err
	}
	if n.Guild, err = r.ReadInt(); err != nil {
		return err
	}
	if n.GuildTrue, err = r.ReadInt(); err != nil {
		return err
	}
	if n.Level, err = r.ReadInt(); err != nil {
		return err
	}
	if n.XP, err = r.ReadInt(); err != nil {
		return err
	}
	if n.XPNextLevel, err = r.ReadInt(); err != nil {
		return err
	}
	if n.LP, err = r.ReadInt(); err != nil {
		return err
	}

	talentCount, err := r.ReadInt()
	if err != nil {
		return err
	}
	n.Talents = make([]Talent, talentCount)
	for i := int32(0); i < talentCount; i++ {
		obj, ok := r.ReadObjectBegin()
		if !ok {
			return zgerr.New(zgerr.KindVob, "npc talent: missing object header")
		}
		if obj.ClassName == "%" {
			r.SkipObject(true)
			continue
		}
		if n.Talents[i].Talent, err = r.ReadInt(); err != nil {
			return err
		}
		if n.Talents[i].Value, err = r.ReadInt(); err != nil {
			return err
		}
		if n.Talents[i].Skill, err = r.ReadInt(); err != nil {
			return err
		}
		if !r.ReadObjectEnd() {
			log.Warn("npc talent object not fully parsed")
			r.SkipObject(true)
		}
	}

	if n.FightTactic, err = r.ReadInt(); err != nil {
		return err
	}
	if n.FightMode, err = r.ReadInt(); err != nil {
		return err
	}
	if n.Wounded, err = r.ReadBool(); err != nil {
		return err
	}
	if n.Mad, err = r.ReadBool(); err != nil {
		return err
	}
	if n.MadTime, err = r.ReadInt(); err != nil {
		return err
	}
	if n.Player, err = r.ReadBool(); err != nil {
		return err
	}

	for i := range n.Attributes {
		if n.Attributes[i], err = r.ReadInt(); err != nil {
			return err
		}
	}

	if version == archive.Gothic2 {
		for i := range n.HitChance {
			if n.HitChance[i], err = r.ReadInt(); err != nil {
				return err
			}
		}
	}

	for i := range n.Missions {
		if n.Missions[i], err = r.ReadInt(); err != nil {
			return err
		}
	}

	if n.StartAIState, err = r.ReadString(); err != nil {
		return err
	}

	varCount := 50
	if version == archive.Gothic2 {
		varCount = 100
	}
	raw, err := r.ReadRaw(varCount * 4)
	if err != nil {
		return err
	}
	buf := stream.OpenMemory(raw)
	n.AIVars = make([]int32, varCount)
	for i := range n.AIVars {
		if n.AIVars[i], err = buf.ReadI32(); err != nil {
			return err
		}
	}

	if n.ScriptWaypoint, err = r.ReadString(); err != nil {
		return err
	}
	if n.Attitude, err = r.ReadInt(); err != nil {
		return err
	}
	if n.AttitudeTemp, err = r.ReadInt(); err != nil {
		return err
	}
	if n.NameNr, err = r.ReadInt(); err != nil {
		return err
	}

	spells, err := r.ReadRaw(4)
	if err != nil {
		return err
	}
	copy(n.Spells[:], spells)

	newsCount, err := r.ReadInt()
	if err != nil {
		return err
	}
	if newsCount != 0 {
		return zgerr.New(zgerr.KindVob, "npc news entries are not supported")
	}

	r.SkipObject(false) // [carryVob % 0 0]
	r.SkipObject(false) // [enemy % 0 0]

	if n.MoveLock, err = r.ReadBool(); err != nil {
		return err
	}

	if version == archive.Gothic1 {
		for i := range n.Packed {
			if n.Packed[i], err = r.ReadString(); err != nil {
				return err
			}
		}
	} else {
		packed, err := r.ReadString()
		if err != nil {
			return err
		}
		parts := strings.SplitN(packed, ";", 9)
		for i, p := range parts {
			if i >= len(n.Packed) {
				break
			}
			n.Packed[i] = p
		}
	}

	itemCount, err := r.ReadInt()
	if err != nil {
		return err
	}
	n.Items = make([]*Item, 0, itemCount)
	itemIndex := map[uint32]*Item{}
	for i := int32(0); i < itemCount; i++ {
		hdr, ok := r.ReadObjectBegin()
		if !ok {
			return zgerr.New(zgerr.KindVob, "npc item: missing object header")
		}
		item := &Item{}
		if err := item.Load(r, version); err != nil {
			return err
		}
		item.ID = hdr.Index
		if !r.ReadObjectEnd() {
			log.Warn("npc item object not fully parsed")
			r.SkipObject(true)
		}
		if item.Flags&0x200 != 0 {
			if _, err := r.ReadInt(); err != nil { // shortKey<n>
				return err
			}
		}
		n.Items = append(n.Items, item)
		itemIndex[hdr.Index] = item
	}

	invSlotCount, err := r.ReadInt()
	if err != nil {
		return err
	}
	n.Slots = make([]InventorySlot, invSlotCount)
	for i := int32(0); i < invSlotCount; i++ {
		if n.Slots[i].Used, err = r.ReadBool(); err != nil {
			return err
		}
		if n.Slots[i].Name, err = r.ReadString(); err != nil {
			return err
		}

		if n.Slots[i].Used {
			hdr, ok := r.ReadObjectBegin()
			if !ok {
				return zgerr.New(zgerr.KindVob, "npc inventory slot: missing object header")
			}
			if hdr.ClassName == "\xA7" {
				n.Slots[i].Item = itemIndex[hdr.Index]
			} else {
				item := &Item{}
				if err := item.Load(r, version); err != nil {
					return err
				}
				item.ID = hdr.Index
				n.Items = append(n.Items, item)
				itemIndex[hdr.Index] = item
				n.Slots[i].Item = item
			}
			if !r.ReadObjectEnd() {
				log.Warn("npc inventory slot not fully parsed")
				r.SkipObject(true)
			}
			if n.Slots[i].InInventory, err = r.ReadBool(); err != nil {
				return err
			}
		}
	}

	if n.CurrentStateValid, err = r.ReadBool(); err != nil {
		return err
	}
	if n.CurrentStateName, err = r.ReadString(); err != nil {
		return err
	}
	if n.CurrentStateIndex, err = r.ReadInt(); err != nil {
		return err
	}
	if n.CurrentStateIsRoutine, err = r.ReadBool(); err != nil {
		return err
	}
	if n.NextStateValid, err = r.ReadBool(); err != nil {
		return err
	}
	if n.NextStateName, err = r.ReadString(); err != nil {
		return err
	}
	if n.NextStateIndex, err = r.ReadInt(); err != nil {
		return err
	}
	if n.NextStateIsRoutine, err = r.ReadBool(); err != nil {
		return err
	}
	if n.LastAIState, err = r.ReadInt(); err != nil {
		return err
	}
	if n.HasRoutine, err = r.ReadBool(); err != nil {
		return err
	}
	if n.RoutineChanged, err = r.ReadBool(); err != nil {
		return err
	}
	if n.RoutineOverlay, err = r.ReadBool(); err != nil {
		return err
	}
	if n.RoutineOverlayCount, err = r.ReadInt(); err != nil {
		return err
	}
	if n.WalkmodeRoutine, err = r.ReadInt(); err != nil {
		return err
	}
	if n.WeaponmodeRoutine, err = r.ReadBool(); err != nil {
		return err
	}
	if n.StartNewRoutine, err = r.ReadBool(); err != nil {
		return err
	}
	if n.AIStateDriven, err = r.ReadInt(); err != nil {
		return err
	}
	if n.AIStatePos, err = r.ReadVec3(); err != nil {
		return err
	}
	if n.CurrentRoutine, err = r.ReadString(); err != nil {
		return err
	}
	if n.Respawn, err = r.ReadBool(); err != nil {
		return err
	}
	if n.RespawnTime, err = r.ReadInt(); err != nil {
		return err
	}

	prot, err := r.ReadRaw(8 * 4)
	if err != nil {
		return err
	}
	protBuf := stream.OpenMemory(prot)
	for i := range n.Protection {
		if n.Protection[i], err = protBuf.ReadI32(); err != nil {
			return err
		}
	}

	if version == archive.Gothic2 {
		if n.BSInterruptableOverride, err = r.ReadInt(); err != nil {
			return err
		}
		if n.NPCType, err = r.ReadInt(); err != nil {
			return err
		}
		n.SpellMana, err = r.ReadInt()
	}
	return err
}

// Save is not implemented: oCNpc's save-game write layout was never
// retrieved in complete form (see DESIGN.md), and the field-by-field
// layout above is reconstructed from the read path alone.
func (n *Npc) Save(w archive.Writer, version archive.GameVersion) error {
	return zgerr.New(zgerr.KindVob, "npc save is not supported")
}
