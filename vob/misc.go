package vob

import (
	"github.com/gothicgo/zengin/archive"
	"github.com/gothicgo/zengin/stream"
)

// MessageFilterAction selects what a zCMessageFilter does to a forwarded
// trigger/untrigger event.
type MessageFilterAction uint32

const (
	MessageFilterNone MessageFilterAction = iota
	MessageFilterTrigger
	MessageFilterUntrigger
	MessageFilterEnable
	MessageFilterDisable
	MessageFilterToggle
)

// MoverMessageType selects how a zCMoverControler drives its target mover.
type MoverMessageType uint32

const (
	MoverMessageFixedDirect MoverMessageType = iota
	MoverMessageFixedOrder
	MoverMessageNextFixedDirect
	MoverMessageNextFixedOrder
)

// TouchCollisionType selects the collision shape a zCTouchDamage volume
// tests against.
type TouchCollisionType uint32

const (
	TouchCollisionBox TouchCollisionType = iota
	TouchCollisionPoint
)

func init() {
	archive.Register("zCVobAnimate:zCVob", func() archive.Persistable { return &Animate{} }, 0, 0)
	archive.Register("zCVobLensFlare:zCVob", func() archive.Persistable { return &LensFlare{} }, 0, 0)
	archive.Register("zCPFXControler:zCVob", func() archive.Persistable { return &ParticleEffectController{} }, 0, 0)
	archive.Register("zCMessageFilter:zCVob", func() archive.Persistable { return &MessageFilter{} }, 0, 0)
	archive.Register("zCCodeMaster:zCVob", func() archive.Persistable { return &CodeMaster{} }, 0, 0)
	archive.Register("zCMoverControler:zCVob", func() archive.Persistable { return &MoverController{} }, 0, 0)
	archive.Register("oCTouchDamage:zCTouchDamage:zCVob", func() archive.Persistable { return &TouchDamage{} }, 0, 0)
	archive.Register("zCEarthquake:zCVob", func() archive.Persistable { return &Earthquake{} }, 0, 0)
}

// Animate is zCVobAnimate, a standalone play/pause toggle over a visual's
// idle animation.
type Animate struct {
	VirtualObject

	StartOn   bool
	IsRunning bool
}

func (a *Animate) ClassName() string { return "zCVobAnimate:zCVob" }

func (a *Animate) Load(r archive.Reader, version archive.GameVersion) error {
	if err := a.LoadBase(r, version); err != nil {
		return err
	}
	var err error
	if a.StartOn, err = r.ReadBool(); err != nil {
		return err
	}
	if r.Header().Save {
		a.IsRunning, err = r.ReadBool()
	}
	return err
}

func (a *Animate) Save(w archive.Writer, version archive.GameVersion) error {
	if err := a.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := w.WriteBool("startOn", a.StartOn); err != nil {
		return err
	}
	if w.Header().Save {
		return w.WriteBool("isRunning", a.IsRunning)
	}
	return nil
}

// LensFlare is zCVobLensFlare, naming the lensflare effect template to
// render at this VOb's position.
type LensFlare struct {
	VirtualObject

	FX string
}

func (l *LensFlare) ClassName() string { return "zCVobLensFlare:zCVob" }

func (l *LensFlare) Load(r archive.Reader, version archive.GameVersion) error {
	if err := l.LoadBase(r, version); err != nil {
		return err
	}
	var err error
	l.FX, err = r.ReadString()
	return err
}

func (l *LensFlare) Save(w archive.Writer, version archive.GameVersion) error {
	if err := l.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	return w.WriteString("lensflareFX", l.FX)
}

// ParticleEffectController is zCPFXControler.
type ParticleEffectController struct {
	VirtualObject

	PFXName          string
	KillWhenDone     bool
	InitiallyRunning bool
}

func (p *ParticleEffectController) ClassName() string { return "zCPFXControler:zCVob" }

func (p *ParticleEffectController) Load(r archive.Reader, version archive.GameVersion) error {
	if err := p.LoadBase(r, version); err != nil {
		return err
	}
	var err error
	if p.PFXName, err = r.ReadString(); err != nil {
		return err
	}
	if p.KillWhenDone, err = r.ReadBool(); err != nil {
		return err
	}
	p.InitiallyRunning, err = r.ReadBool()
	return err
}

func (p *ParticleEffectController) Save(w archive.Writer, version archive.GameVersion) error {
	if err := p.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := w.WriteString("pfxName", p.PFXName); err != nil {
		return err
	}
	if err := w.WriteBool("killVobWhenDone", p.KillWhenDone); err != nil {
		return err
	}
	return w.WriteBool("pfxStartOn", p.InitiallyRunning)
}

// MessageFilter is zCMessageFilter, forwarding trigger/untrigger events to
// another vob under a possibly different action.
type MessageFilter struct {
	VirtualObject

	Target      string
	OnTrigger   MessageFilterAction
	OnUntrigger MessageFilterAction
}

func (m *MessageFilter) ClassName() string { return "zCMessageFilter:zCVob" }

func (m *MessageFilter) Load(r archive.Reader, version archive.GameVersion) error {
	if err := m.LoadBase(r, version); err != nil {
		return err
	}
	var err error
	if m.Target, err = r.ReadString(); err != nil {
		return err
	}
	onTriggerVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	m.OnTrigger = MessageFilterAction(onTriggerVal)
	onUntriggerVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	m.OnUntrigger = MessageFilterAction(onUntriggerVal)
	return nil
}

func (m *MessageFilter) Save(w archive.Writer, version archive.GameVersion) error {
	if err := m.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := w.WriteString("triggerTarget", m.Target); err != nil {
		return err
	}
	if err := w.WriteEnum("onTrigger", uint32(m.OnTrigger)); err != nil {
		return err
	}
	return w.WriteEnum("onUntrigger", uint32(m.OnUntrigger))
}

// CodeMaster is zCCodeMaster: a multi-slave AND/OR trigger gate. Resolving
// the save-game "slaveTriggeredN" back references is left unsupported.
type CodeMaster struct {
	VirtualObject

	Target              string
	Ordered             bool
	FirstFalseIsFailure bool
	FailureTarget       string
	UntriggeredCancels  bool
	Slaves              []string

	NumTriggeredSlaves uint8
}

func (c *CodeMaster) ClassName() string { return "zCCodeMaster:zCVob" }

func (c *CodeMaster) Load(r archive.Reader, version archive.GameVersion) error {
	if err := c.LoadBase(r, version); err != nil {
		return err
	}
	var err error
	if c.Target, err = r.ReadString(); err != nil {
		return err
	}
	if c.Ordered, err = r.ReadBool(); err != nil {
		return err
	}
	if c.FirstFalseIsFailure, err = r.ReadBool(); err != nil {
		return err
	}
	if c.FailureTarget, err = r.ReadString(); err != nil {
		return err
	}
	if c.UntriggeredCancels, err = r.ReadBool(); err != nil {
		return err
	}

	slaveCount, err := r.ReadByte()
	if err != nil {
		return err
	}
	c.Slaves = make([]string, slaveCount)
	for i := range c.Slaves {
		if c.Slaves[i], err = r.ReadString(); err != nil {
			return err
		}
	}

	if r.Header().Save && version == archive.Gothic2 {
		if c.NumTriggeredSlaves, err = r.ReadByte(); err != nil {
			return err
		}
		for i := uint8(0); i < slaveCount; i++ {
			r.SkipObject(false) // [slaveTriggeredN % 0 0]
		}
	}
	return nil
}

func (c *CodeMaster) Save(w archive.Writer, version archive.GameVersion) error {
	if err := c.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := w.WriteString("triggerTarget", c.Target); err != nil {
		return err
	}
	if err := w.WriteBool("orderRelevant", c.Ordered); err != nil {
		return err
	}
	if err := w.WriteBool("firstFalseIsFailure", c.FirstFalseIsFailure); err != nil {
		return err
	}
	if err := w.WriteString("triggerTargetFailure", c.FailureTarget); err != nil {
		return err
	}
	if err := w.WriteBool("untriggerCancels", c.UntriggeredCancels); err != nil {
		return err
	}
	if err := w.WriteByte("numSlaves", uint8(len(c.Slaves))); err != nil {
		return err
	}
	for _, slave := range c.Slaves {
		if err := w.WriteString("slaveVobName", slave); err != nil {
			return err
		}
	}

	if w.Header().Save && version == archive.Gothic2 {
		if err := w.WriteByte("numSlavesTriggered", c.NumTriggeredSlaves); err != nil {
			return err
		}
		for range c.Slaves {
			w.WriteRef("slaveTriggered", 0)
		}
	}
	return nil
}

// MoverController is zCMoverControler, a remote-control front end over a
// named zCMover.
type MoverController struct {
	VirtualObject

	Target  string
	Message MoverMessageType
	Key     int32
}

func (m *MoverController) ClassName() string { return "zCMoverControler:zCVob" }

func (m *MoverController) Load(r archive.Reader, version archive.GameVersion) error {
	if err := m.LoadBase(r, version); err != nil {
		return err
	}
	var err error
	if m.Target, err = r.ReadString(); err != nil {
		return err
	}

	if version == archive.Gothic1 {
		msgVal, err := r.ReadEnum()
		if err != nil {
			return err
		}
		m.Message = MoverMessageType(msgVal)
	} else {
		msgVal, err := r.ReadByte()
		if err != nil {
			return err
		}
		m.Message = MoverMessageType(msgVal)
	}

	m.Key, err = r.ReadInt()
	return err
}

func (m *MoverController) Save(w archive.Writer, version archive.GameVersion) error {
	if err := m.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := w.WriteString("triggerTarget", m.Target); err != nil {
		return err
	}
	if version == archive.Gothic1 {
		if err := w.WriteEnum("moverMessage", uint32(m.Message)); err != nil {
			return err
		}
	} else {
		if err := w.WriteByte("moverMessage", uint8(m.Message)); err != nil {
			return err
		}
	}
	return w.WriteInt("gotoFixedKey", m.Key)
}

// TouchDamage is zCTouchDamage, a per-element damage-type mask applied on
// contact with this VOb.
type TouchDamage struct {
	VirtualObject

	Damage float32

	Barrier bool
	Blunt   bool
	Edge    bool
	Fire    bool
	Fly     bool
	Magic   bool
	Point   bool
	Fall    bool

	RepeatDelaySec float32
	VolumeScale    float32
	Collision      TouchCollisionType
}

func (t *TouchDamage) ClassName() string { return "oCTouchDamage:zCTouchDamage:zCVob" }

func (t *TouchDamage) Load(r archive.Reader, version archive.GameVersion) error {
	if err := t.LoadBase(r, version); err != nil {
		return err
	}
	var err error
	if t.Damage, err = r.ReadFloat(); err != nil {
		return err
	}
	if t.Barrier, err = r.ReadBool(); err != nil {
		return err
	}
	if t.Blunt, err = r.ReadBool(); err != nil {
		return err
	}
	if t.Edge, err = r.ReadBool(); err != nil {
		return err
	}
	if t.Fire, err = r.ReadBool(); err != nil {
		return err
	}
	if t.Fly, err = r.ReadBool(); err != nil {
		return err
	}
	if t.Magic, err = r.ReadBool(); err != nil {
		return err
	}
	if t.Point, err = r.ReadBool(); err != nil {
		return err
	}
	if t.Fall, err = r.ReadBool(); err != nil {
		return err
	}
	if t.RepeatDelaySec, err = r.ReadFloat(); err != nil {
		return err
	}
	if t.VolumeScale, err = r.ReadFloat(); err != nil {
		return err
	}
	collisionVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	t.Collision = TouchCollisionType(collisionVal)
	return nil
}

func (t *TouchDamage) Save(w archive.Writer, version archive.GameVersion) error {
	if err := t.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := w.WriteFloat("damage", t.Damage); err != nil {
		return err
	}
	if err := w.WriteBool("Barrier", t.Barrier); err != nil {
		return err
	}
	if err := w.WriteBool("Blunt", t.Blunt); err != nil {
		return err
	}
	if err := w.WriteBool("Edge", t.Edge); err != nil {
		return err
	}
	if err := w.WriteBool("Fire", t.Fire); err != nil {
		return err
	}
	if err := w.WriteBool("Fly", t.Fly); err != nil {
		return err
	}
	if err := w.WriteBool("Magic", t.Magic); err != nil {
		return err
	}
	if err := w.WriteBool("Point", t.Point); err != nil {
		return err
	}
	if err := w.WriteBool("Fall", t.Fall); err != nil {
		return err
	}
	if err := w.WriteFloat("damageRepeatDelaySec", t.RepeatDelaySec); err != nil {
		return err
	}
	if err := w.WriteFloat("damageVolDownScale", t.VolumeScale); err != nil {
		return err
	}
	return w.WriteEnum("damageCollType", uint32(t.Collision))
}

// Earthquake is zCEarthquake, a local screen-shake volume.
type Earthquake struct {
	VirtualObject

	Radius    float32
	Duration  float32
	Amplitude stream.Vec3
}

func (e *Earthquake) ClassName() string { return "zCEarthquake:zCVob" }

func (e *Earthquake) Load(r archive.Reader, version archive.GameVersion) error {
	if err := e.LoadBase(r, version); err != nil {
		return err
	}
	var err error
	if e.Radius, err = r.ReadFloat(); err != nil {
		return err
	}
	if e.Duration, err = r.ReadFloat(); err != nil {
		return err
	}
	e.Amplitude, err = r.ReadVec3()
	return err
}

func (e *Earthquake) Save(w archive.Writer, version archive.GameVersion) error {
	if err := e.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := w.WriteFloat("radius", e.Radius); err != nil {
		return err
	}
	if err := w.WriteFloat("timeSec", e.Duration); err != nil {
		return err
	}
	return w.WriteVec3("amplitudeCM", e.Amplitude)
}
