package vob

import (
	"github.com/gothicgo/zengin/archive"
	"github.com/gothicgo/zengin/stream"
)

// MoverBehavior selects how a zCMover responds to triggering.
type MoverBehavior uint32

const (
	MoverToggle MoverBehavior = iota
	MoverTriggerControl
	MoverOpenTime
	MoverLoop
	MoverSingleKeys
)

// MoverLerpType selects the interpolation curve between keyframes.
type MoverLerpType uint32

const (
	MoverLerpCurve MoverLerpType = iota
	MoverLerpLinear
)

// MoverSpeedType shapes the velocity profile along a mover's path.
type MoverSpeedType uint32

const (
	MoverSpeedConstant MoverSpeedType = iota
	MoverSpeedSlowStartEnd
	MoverSpeedSlowStart
	MoverSpeedSlowEnd
	MoverSpeedSegmentSlowStartEnd
	MoverSpeedSegmentSlowStart
	MoverSpeedSegmentSlowEnd
)

// MoverKeyframe is one element of a mover's keyframe path, packed on the
// wire as 7 floats (vec3 position + quaternion x,y,z,w).
type MoverKeyframe struct {
	Position stream.Vec3
	QuatX    float32
	QuatY    float32
	QuatZ    float32
	QuatW    float32
}

func init() {
	archive.Register("zCMover:zCTrigger:zCVob", func() archive.Persistable { return &Mover{} }, 12289, 52224)
}

// Mover is zCMover, extending Trigger with path-animation state.
type Mover struct {
	Trigger

	Behavior           MoverBehavior
	TouchBlockerDamage float32
	StayOpenTimeSec    float32
	Locked             bool
	AutoLink           bool
	AutoRotate         bool

	Speed     float32
	LerpMode  MoverLerpType
	SpeedMode MoverSpeedType
	Keyframes []MoverKeyframe

	ActKeyPosDelta   stream.Vec3
	ActKeyframeF     float32
	ActKeyframe      int32
	NextKeyframe     int32
	MoveSpeedUnit    float32
	AdvanceDir       float32
	MoverState       uint32
	TriggerEventCount int32
	StayOpenTimeDest float32

	SFXOpenStart   string
	SFXOpenEnd     string
	SFXTransitioning string
	SFXCloseStart  string
	SFXCloseEnd    string
	SFXLock        string
	SFXUnlock      string
	SFXUseLocked   string
}

func (m *Mover) ClassName() string { return "zCMover:zCTrigger:zCVob" }

func (m *Mover) Load(r archive.Reader, version archive.GameVersion) error {
	if err := m.LoadBase(r, version); err != nil {
		return err
	}
	if err := m.Trigger.loadFields(r, version); err != nil {
		return err
	}

	behaviorVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	m.Behavior = MoverBehavior(behaviorVal)
	if m.TouchBlockerDamage, err = r.ReadFloat(); err != nil {
		return err
	}
	if m.StayOpenTimeSec, err = r.ReadFloat(); err != nil {
		return err
	}
	if m.Locked, err = r.ReadBool(); err != nil {
		return err
	}
	if m.AutoLink, err = r.ReadBool(); err != nil {
		return err
	}
	if version == archive.Gothic2 {
		if m.AutoRotate, err = r.ReadBool(); err != nil {
			return err
		}
	}

	keyframeCountVal, err := r.ReadWord()
	if err != nil {
		return err
	}
	if keyframeCountVal > 0 {
		speedVal, err := r.ReadFloat()
		if err != nil {
			return err
		}
		m.Speed = speedVal
		lerpVal, err := r.ReadEnum()
		if err != nil {
			return err
		}
		m.LerpMode = MoverLerpType(lerpVal)
		speedModeVal, err := r.ReadEnum()
		if err != nil {
			return err
		}
		m.SpeedMode = MoverSpeedType(speedModeVal)

		raw, err := r.ReadRaw(int(keyframeCountVal) * 4 * 7)
		if err != nil {
			return err
		}
		buf := stream.OpenMemory(raw)
		m.Keyframes = make([]MoverKeyframe, keyframeCountVal)
		for i := range m.Keyframes {
			pos, err := buf.ReadVec3()
			if err != nil {
				return err
			}
			x, err := buf.ReadF32()
			if err != nil {
				return err
			}
			y, err := buf.ReadF32()
			if err != nil {
				return err
			}
			z, err := buf.ReadF32()
			if err != nil {
				return err
			}
			w, err := buf.ReadF32()
			if err != nil {
				return err
			}
			m.Keyframes[i] = MoverKeyframe{Position: pos, QuatX: x, QuatY: y, QuatZ: z, QuatW: w}
		}
	}

	if r.Header().Save {
		if m.ActKeyPosDelta, err = r.ReadVec3(); err != nil {
			return err
		}
		if m.ActKeyframeF, err = r.ReadFloat(); err != nil {
			return err
		}
		if m.ActKeyframe, err = r.ReadInt(); err != nil {
			return err
		}
		if m.NextKeyframe, err = r.ReadInt(); err != nil {
			return err
		}
		if m.MoveSpeedUnit, err = r.ReadFloat(); err != nil {
			return err
		}
		if m.AdvanceDir, err = r.ReadFloat(); err != nil {
			return err
		}
		if m.MoverState, err = r.ReadEnum(); err != nil {
			return err
		}
		if m.TriggerEventCount, err = r.ReadInt(); err != nil {
			return err
		}
		if m.StayOpenTimeDest, err = r.ReadFloat(); err != nil {
			return err
		}
	}

	if m.SFXOpenStart, err = r.ReadString(); err != nil {
		return err
	}
	if m.SFXOpenEnd, err = r.ReadString(); err != nil {
		return err
	}
	if m.SFXTransitioning, err = r.ReadString(); err != nil {
		return err
	}
	if m.SFXCloseStart, err = r.ReadString(); err != nil {
		return err
	}
	if m.SFXCloseEnd, err = r.ReadString(); err != nil {
		return err
	}
	if m.SFXLock, err = r.ReadString(); err != nil {
		return err
	}
	if m.SFXUnlock, err = r.ReadString(); err != nil {
		return err
	}
	m.SFXUseLocked, err = r.ReadString()
	return err
}

func (m *Mover) Save(w archive.Writer, version archive.GameVersion) error {
	if err := m.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := m.Trigger.saveFields(w, version); err != nil {
		return err
	}

	if err := w.WriteEnum("moverBehavior", uint32(m.Behavior)); err != nil {
		return err
	}
	if err := w.WriteFloat("touchBlockerDamage", m.TouchBlockerDamage); err != nil {
		return err
	}
	if err := w.WriteFloat("stayOpenTimeSec", m.StayOpenTimeSec); err != nil {
		return err
	}
	if err := w.WriteBool("moverLocked", m.Locked); err != nil {
		return err
	}
	if err := w.WriteBool("autoLinkEnabled", m.AutoLink); err != nil {
		return err
	}
	if version == archive.Gothic2 {
		if err := w.WriteBool("autoRotate", m.AutoRotate); err != nil {
			return err
		}
	}

	if err := w.WriteWord("numKeyframes", uint16(len(m.Keyframes))); err != nil {
		return err
	}
	if len(m.Keyframes) > 0 {
		if err := w.WriteFloat("moveSpeed", m.Speed); err != nil {
			return err
		}
		if err := w.WriteEnum("posLerpType", uint32(m.LerpMode)); err != nil {
			return err
		}
		if err := w.WriteEnum("speedType", uint32(m.SpeedMode)); err != nil {
			return err
		}

		buf := stream.OpenMemory(nil)
		for _, k := range m.Keyframes {
			if err := buf.WriteVec3(k.Position); err != nil {
				return err
			}
			if err := buf.WriteF32(k.QuatX); err != nil {
				return err
			}
			if err := buf.WriteF32(k.QuatY); err != nil {
				return err
			}
			if err := buf.WriteF32(k.QuatZ); err != nil {
				return err
			}
			if err := buf.WriteF32(k.QuatW); err != nil {
				return err
			}
		}
		if _, err := buf.Seek(0, stream.Begin); err != nil {
			return err
		}
		raw, err := buf.ReadBlock(int(buf.Len()))
		if err != nil {
			return err
		}
		if err := w.WriteRaw("keyframes", raw); err != nil {
			return err
		}
	}

	if w.Header().Save {
		if err := w.WriteVec3("actKeyPosDelta", m.ActKeyPosDelta); err != nil {
			return err
		}
		if err := w.WriteFloat("actKeyframeF", m.ActKeyframeF); err != nil {
			return err
		}
		if err := w.WriteInt("actKeyframe", m.ActKeyframe); err != nil {
			return err
		}
		if err := w.WriteInt("nextKeyframe", m.NextKeyframe); err != nil {
			return err
		}
		if err := w.WriteFloat("moveSpeedUnit", m.MoveSpeedUnit); err != nil {
			return err
		}
		if err := w.WriteFloat("advanceDir", m.AdvanceDir); err != nil {
			return err
		}
		if err := w.WriteEnum("moverState", m.MoverState); err != nil {
			return err
		}
		if err := w.WriteInt("numTriggerEvents", m.TriggerEventCount); err != nil {
			return err
		}
		if err := w.WriteFloat("stayOpenTimeDest", m.StayOpenTimeDest); err != nil {
			return err
		}
	}

	if err := w.WriteString("sfxOpenStart", m.SFXOpenStart); err != nil {
		return err
	}
	if err := w.WriteString("sfxOpenEnd", m.SFXOpenEnd); err != nil {
		return err
	}
	if err := w.WriteString("sfxMoving", m.SFXTransitioning); err != nil {
		return err
	}
	if err := w.WriteString("sfxCloseStart", m.SFXCloseStart); err != nil {
		return err
	}
	if err := w.WriteString("sfxCloseEnd", m.SFXCloseEnd); err != nil {
		return err
	}
	if err := w.WriteString("sfxLock", m.SFXLock); err != nil {
		return err
	}
	if err := w.WriteString("sfxUnlock", m.SFXUnlock); err != nil {
		return err
	}
	return w.WriteString("sfxUseLocked", m.SFXUseLocked)
}
