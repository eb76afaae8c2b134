package vob

import (
	"github.com/gothicgo/zengin/archive"
	"github.com/gothicgo/zengin/stream"
	"github.com/gothicgo/zengin/zgerr"
)

// VirtualObject is the abstract node of a world tree
// "VirtualObject (VOb)" and §4.6 "Base VirtualObject encoding". Concrete
// subclasses (Light, Sound, Trigger,...) embed this for the common
// transform/visibility/name fields and append their own.
type VirtualObject struct {
	ID uint32

	BoundingBox stream.AABB
	Position    stream.Vec3
	Rotation    stream.Mat3

	PresetName string
	VobName    string
	VisualName string

	ShowVisual            bool
	SpriteAlign           SpriteAlignment
	CDStatic              bool
	CDDynamic             bool
	VobStatic             bool
	DynamicShadows        ShadowType
	PhysicsEnabled        bool
	AnimMode              AnimationType
	AnimStrength          float32
	FarClipScale          float32
	Bias                  int32
	Ambient               bool

	Visual           Visual
	AssociatedVisual VisualType
	AI               AI
	EventManager     *EventManager

	// Save-game-only fields.
	SleepMode    uint8
	NextOnTimer  float32
	RigidBody    *RigidBody

	Children []archive.Persistable
}

// LoadBase implements the packed/unpacked dual encoding described in
// Subclasses call this first, then read their own fields.
func (v *VirtualObject) LoadBase(r archive.Reader, version archive.GameVersion) error {
	pack, err := r.ReadInt()
	if err != nil {
		return zgerr.Wrap(zgerr.KindVob, "read pack flag", err)
	}

	var hasVisualObject, hasAIObject, hasEventManagerObject bool

	if pack != 0 {
		size := 74
		if version == archive.Gothic2 {
			size = 83
		}
		raw, err := r.ReadRaw(size)
		if err != nil {
			return zgerr.Wrap(zgerr.KindVob, "read packed dataRaw", err)
		}
		bin := stream.OpenMemory(raw)

		v.BoundingBox, err = bin.ReadAABB()
		if err != nil {
			return zgerr.Wrap(zgerr.KindVob, "packed bbox", err)
		}
		v.Position, err = bin.ReadVec3()
		if err != nil {
			return zgerr.Wrap(zgerr.KindVob, "packed position", err)
		}
		v.Rotation, err = bin.ReadMat3()
		if err != nil {
			return zgerr.Wrap(zgerr.KindVob, "packed rotation", err)
		}

		bit0, err := bin.ReadU8()
		if err != nil {
			return zgerr.Wrap(zgerr.KindVob, "packed bit0", err)
		}
		var bit1 uint16
		if version == archive.Gothic1 {
			b, err := bin.ReadU8()
			if err != nil {
				return zgerr.Wrap(zgerr.KindVob, "packed bit1", err)
			}
			bit1 = uint16(b)
		} else {
			bit1, err = bin.ReadU16()
			if err != nil {
				return zgerr.Wrap(zgerr.KindVob, "packed bit1", err)
			}
		}

		v.ShowVisual = bit0&0b0000_0001 != 0
		v.SpriteAlign = SpriteAlignment((bit0 & 0b0000_0110) >> 1)
		v.CDStatic = bit0&0b0000_1000 != 0
		v.CDDynamic = bit0&0b0001_0000 != 0
		v.VobStatic = bit0&0b0010_0000 != 0
		v.DynamicShadows = ShadowType((bit0 & 0b1100_0000) >> 6)

		hasPresetName := bit1&0b0000_0000_0000_0001 != 0
		hasVobName := bit1&0b0000_0000_0000_0010 != 0
		hasVisualName := bit1&0b0000_0000_0000_0100 != 0
		hasVisualObject = bit1&0b0000_0000_0000_1000 != 0
		hasAIObject = bit1&0b0000_0000_0001_0000 != 0
		hasEventManagerObject = bit1&0b0000_0000_0010_0000 != 0 && r.Header().Save

		if version == archive.Gothic1 {
			v.PhysicsEnabled = bit1&0b0000_0000_1000_0000 != 0
		} else {
			v.PhysicsEnabled = bit1&0b0000_0000_0100_0000 != 0
		}

		if version == archive.Gothic2 {
			v.AnimMode = AnimationType((bit1 & 0b0000_0001_1000_0000) >> 7)
			v.Bias = int32((bit1 & 0b0011_1110_0000_0000) >> 9)
			v.Ambient = bit1&0b0100_0000_0000_0000 != 0

			v.AnimStrength, err = bin.ReadF32()
			if err != nil {
				return zgerr.Wrap(zgerr.KindVob, "packed animStrength", err)
			}
			v.FarClipScale, err = bin.ReadF32()
			if err != nil {
				return zgerr.Wrap(zgerr.KindVob, "packed farClipScale", err)
			}
		}

		if hasPresetName {
			if v.PresetName, err = r.ReadString(); err != nil {
				return zgerr.Wrap(zgerr.KindVob, "presetName", err)
			}
		}
		if hasVobName {
			if v.VobName, err = r.ReadString(); err != nil {
				return zgerr.Wrap(zgerr.KindVob, "vobName", err)
			}
		}
		if hasVisualName {
			if v.VisualName, err = r.ReadString(); err != nil {
				return zgerr.Wrap(zgerr.KindVob, "visual", err)
			}
		}
	} else {
		var err error
		if v.PresetName, err = r.ReadString(); err != nil {
			return zgerr.Wrap(zgerr.KindVob, "presetName", err)
		}
		if v.BoundingBox, err = r.ReadBBox(); err != nil {
			return zgerr.Wrap(zgerr.KindVob, "bbox3DWS", err)
		}
		if v.Rotation, err = r.ReadMat3(); err != nil {
			return zgerr.Wrap(zgerr.KindVob, "trafoOSToWSRot", err)
		}
		if v.Position, err = r.ReadVec3(); err != nil {
			return zgerr.Wrap(zgerr.KindVob, "trafoOSToWSPos", err)
		}
		if v.VobName, err = r.ReadString(); err != nil {
			return zgerr.Wrap(zgerr.KindVob, "vobName", err)
		}
		if v.VisualName, err = r.ReadString(); err != nil {
			return zgerr.Wrap(zgerr.KindVob, "visual", err)
		}
		if v.ShowVisual, err = r.ReadBool(); err != nil {
			return zgerr.Wrap(zgerr.KindVob, "showVisual", err)
		}
		alignVal, err := r.ReadEnum()
		if err != nil {
			return zgerr.Wrap(zgerr.KindVob, "visualCamAlign", err)
		}
		v.SpriteAlign = SpriteAlignment(alignVal)

		if version == archive.Gothic1 {
			if v.CDStatic, err = r.ReadBool(); err != nil {
				return zgerr.Wrap(zgerr.KindVob, "cdStatic", err)
			}
			if v.CDDynamic, err = r.ReadBool(); err != nil {
				return zgerr.Wrap(zgerr.KindVob, "cdDyn", err)
			}
			if v.VobStatic, err = r.ReadBool(); err != nil {
				return zgerr.Wrap(zgerr.KindVob, "staticVob", err)
			}
			shadowVal, err := r.ReadEnum()
			if err != nil {
				return zgerr.Wrap(zgerr.KindVob, "dynShadow", err)
			}
			v.DynamicShadows = ShadowType(shadowVal)
		} else {
			animVal, err := r.ReadEnum()
			if err != nil {
				return zgerr.Wrap(zgerr.KindVob, "visualAniMode", err)
			}
			v.AnimMode = AnimationType(animVal)
			if v.AnimStrength, err = r.ReadFloat(); err != nil {
				return zgerr.Wrap(zgerr.KindVob, "visualAniModeStrength", err)
			}
			if v.FarClipScale, err = r.ReadFloat(); err != nil {
				return zgerr.Wrap(zgerr.KindVob, "vobFarClipZScale", err)
			}
			if v.CDStatic, err = r.ReadBool(); err != nil {
				return zgerr.Wrap(zgerr.KindVob, "cdStatic", err)
			}
			if v.CDDynamic, err = r.ReadBool(); err != nil {
				return zgerr.Wrap(zgerr.KindVob, "cdDyn", err)
			}
			if v.VobStatic, err = r.ReadBool(); err != nil {
				return zgerr.Wrap(zgerr.KindVob, "staticVob", err)
			}
			shadowVal, err := r.ReadEnum()
			if err != nil {
				return zgerr.Wrap(zgerr.KindVob, "dynShadow", err)
			}
			v.DynamicShadows = ShadowType(shadowVal)
			if v.Bias, err = r.ReadInt(); err != nil {
				return zgerr.Wrap(zgerr.KindVob, "zbias", err)
			}
			if v.Ambient, err = r.ReadBool(); err != nil {
				return zgerr.Wrap(zgerr.KindVob, "isAmbient", err)
			}
		}

		hasVisualObject = v.VisualName != ""
		hasAIObject = false
		hasEventManagerObject = false
	}

	if hasVisualObject {
		obj, err := r.ReadObject(version)
		if err != nil {
			return zgerr.Wrap(zgerr.KindVob, "visual object", err)
		}
		if vis, ok := obj.(Visual); ok {
			vis.SetVisualName(v.VisualName)
			v.Visual = vis
			v.AssociatedVisual = vis.Type()
		}
	}

	if hasAIObject {
		obj, err := r.ReadObject(version)
		if err != nil {
			return zgerr.Wrap(zgerr.KindVob, "ai object", err)
		}
		v.AI = obj
	}

	if hasEventManagerObject {
		obj, err := r.ReadObject(version)
		if err != nil {
			return zgerr.Wrap(zgerr.KindVob, "event manager object", err)
		}
		if em, ok := obj.(*EventManager); ok {
			v.EventManager = em
		}
	}

	if r.Header().Save {
		sleepMode, err := r.ReadByte()
		if err != nil {
			return zgerr.Wrap(zgerr.KindVob, "sleepMode", err)
		}
		v.SleepMode = sleepMode
		if v.NextOnTimer, err = r.ReadFloat(); err != nil {
			return zgerr.Wrap(zgerr.KindVob, "nextOnTimer", err)
		}
		if v.PhysicsEnabled && version == archive.Gothic2 {
			rb := &RigidBody{}
			if err := loadRigidBody(rb, r); err != nil {
				return err
			}
			v.RigidBody = rb
		}
	}

	return v.loadChildren(r, version)
}

// loadChildren reads the trailing "childs0 int" count and that many
// recursively serialized objects. An object
// that fails to construct has its entire subtree skipped without damaging
// the cursor, since archive.Reader.ReadObject already performs that skip.
func (v *VirtualObject) loadChildren(r archive.Reader, version archive.GameVersion) error {
	count, err := r.ReadInt()
	if err != nil {
		return zgerr.Wrap(zgerr.KindVob, "childs0", err)
	}
	for i := int32(0); i < count; i++ {
		child, err := r.ReadObject(version)
		if err != nil {
			return zgerr.Wrap(zgerr.KindVob, "child object", err)
		}
		if child != nil {
			v.Children = append(v.Children, child)
		}
	}
	return nil
}

// SaveBase always emits the packed (pack=1) encoding; pack=0 is never
// written. save indicates whether the enclosing archive is a save-game.
func (v *VirtualObject) SaveBase(w archive.Writer, version archive.GameVersion, save bool) error {
	if err := w.WriteInt("pack", 1); err != nil {
		return err
	}

	packed := stream.OpenMemory(nil)
	if err := packed.WriteAABB(v.BoundingBox); err != nil {
		return err
	}
	if err := packed.WriteVec3(v.Position); err != nil {
		return err
	}
	if err := packed.WriteMat3(v.Rotation); err != nil {
		return err
	}

	var bit0 uint8
	if v.ShowVisual {
		bit0 |= 1 << 0
	}
	bit0 |= (uint8(v.SpriteAlign) & 3) << 1
	if v.CDStatic {
		bit0 |= 1 << 3
	}
	if v.CDDynamic {
		bit0 |= 1 << 4
	}
	if v.VobStatic {
		bit0 |= 1 << 5
	}
	bit0 |= (uint8(v.DynamicShadows) & 3) << 6
	if err := packed.WriteU8(bit0); err != nil {
		return err
	}

	var bit1 uint16
	if v.PresetName != "" {
		bit1 |= 1 << 0
	}
	if v.VobName != "" {
		bit1 |= 1 << 1
	}
	if v.Visual != nil && v.Visual.VisualName() != "" {
		bit1 |= 1 << 2
	}
	if v.Visual != nil {
		bit1 |= 1 << 3
	}
	if v.AI != nil {
		bit1 |= 1 << 4
	}
	if v.EventManager != nil {
		bit1 |= 1 << 5
	}

	if version == archive.Gothic1 {
		if v.PhysicsEnabled {
			bit1 |= 1 << 7
		}
	} else {
		if v.PhysicsEnabled && v.RigidBody != nil {
			bit1 |= 1 << 6
		}
	}

	if version == archive.Gothic2 {
		bit1 |= uint16(uint8(v.AnimMode)&3) << 7
		bit1 |= uint16(uint8(v.Bias)&0b11111) << 9
		if v.Ambient {
			bit1 |= 1 << 14
		}
		if err := packed.WriteU16(bit1); err != nil {
			return err
		}
		if err := packed.WriteF32(v.AnimStrength); err != nil {
			return err
		}
		if err := packed.WriteF32(v.FarClipScale); err != nil {
			return err
		}
	} else {
		if err := packed.WriteU8(uint8(bit1 & 0xFF)); err != nil {
			return err
		}
	}

	if _, err := packed.Seek(0, stream.Begin); err != nil {
		return err
	}
	buf, err := packed.ReadBlock(int(packed.Len()))
	if err != nil {
		return err
	}
	if err := w.WriteRaw("dataRaw", buf); err != nil {
		return err
	}

	if v.PresetName != "" {
		if err := w.WriteString("presetName", v.PresetName); err != nil {
			return err
		}
	}
	if v.VobName != "" {
		if err := w.WriteString("vobName", v.VobName); err != nil {
			return err
		}
	}
	if v.Visual != nil && v.Visual.VisualName() != "" {
		if err := w.WriteString("visual", v.Visual.VisualName()); err != nil {
			return err
		}
	}

	if v.Visual != nil {
		if p, ok := v.Visual.(archive.Persistable); ok {
			if err := writeVisualObject(w, "visual", p, version); err != nil {
				return err
			}
		}
	}
	if v.AI != nil {
		if p, ok := v.AI.(archive.Persistable); ok {
			if err := writeVisualObject(w, "ai", p, version); err != nil {
				return err
			}
		}
	}
	if v.EventManager != nil {
		if err := writeVisualObject(w, "eventManager", v.EventManager, version); err != nil {
			return err
		}
	}

	if save {
		if err := w.WriteByte("sleepMode", v.SleepMode); err != nil {
			return err
		}
		if err := w.WriteFloat("nextOnTimer", v.NextOnTimer); err != nil {
			return err
		}
		if v.PhysicsEnabled && v.RigidBody != nil && version == archive.Gothic2 {
			if err := saveRigidBody(v.RigidBody, w); err != nil {
				return err
			}
		}
	}

	return v.saveChildren(w, version)
}

func (v *VirtualObject) saveChildren(w archive.Writer, version archive.GameVersion) error {
	if err := w.WriteInt("childs0", int32(len(v.Children))); err != nil {
		return err
	}
	for _, child := range v.Children {
		if err := archive.WriteObject(w, "item", classNameOf(child), version, child); err != nil {
			return err
		}
	}
	return nil
}

// writeVisualObject writes a sub-object without the surrounding indentation
// concerns the ASCII back-end already handles internally.
func writeVisualObject(w archive.Writer, objectName string, p archive.Persistable, version archive.GameVersion) error {
	return archive.WriteObject(w, objectName, classNameOf(p), version, p)
}

func loadRigidBody(rb *RigidBody, r archive.Reader) error {
	var err error
	if rb.Velocity, err = r.ReadVec3(); err != nil {
		return zgerr.Wrap(zgerr.KindVob, "rigidBody.vel", err)
	}
	if rb.Mode, err = r.ReadByte(); err != nil {
		return zgerr.Wrap(zgerr.KindVob, "rigidBody.mode", err)
	}
	if rb.GravityEnabled, err = r.ReadBool(); err != nil {
		return zgerr.Wrap(zgerr.KindVob, "rigidBody.gravOn", err)
	}
	if rb.GravityScale, err = r.ReadFloat(); err != nil {
		return zgerr.Wrap(zgerr.KindVob, "rigidBody.gravScale", err)
	}
	if rb.SlideDirection, err = r.ReadVec3(); err != nil {
		return zgerr.Wrap(zgerr.KindVob, "rigidBody.slideDir", err)
	}
	return nil
}

func saveRigidBody(rb *RigidBody, w archive.Writer) error {
	if err := w.WriteVec3("vel", rb.Velocity); err != nil {
		return err
	}
	if err := w.WriteByte("mode", rb.Mode); err != nil {
		return err
	}
	if err := w.WriteBool("gravOn", rb.GravityEnabled); err != nil {
		return err
	}
	if err := w.WriteFloat("gravScale", rb.GravityScale); err != nil {
		return err
	}
	return w.WriteVec3("slideDir", rb.SlideDirection)
}
