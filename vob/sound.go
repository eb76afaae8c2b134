package vob

import "github.com/gothicgo/zengin/archive"

// SoundMode selects how zCVobSound repeats playback.
type SoundMode uint32

const (
	SoundLoop SoundMode = iota
	SoundOnce
	SoundRandom
)

// SoundTriggerVolumeType selects the shape of a sound's trigger volume.
type SoundTriggerVolumeType uint32

const (
	SoundVolumeSpherical SoundTriggerVolumeType = iota
	SoundVolumeEllipsoidal
)

func init() {
	archive.Register("zCVobSound:zCVob", func() archive.Persistable { return &Sound{} }, 12289, 52224)
	archive.Register("zCVobSoundDaytime:zCVobSound:zCVob", func() archive.Persistable { return &SoundDaytime{} }, 12289, 52224)
}

// Sound is zCVobSound.
type Sound struct {
	VirtualObject

	Volume          float32
	Mode            SoundMode
	RandomDelay     float32
	RandomDelayVar  float32
	InitiallyPlaying bool
	Ambient3D       bool
	Obstruction     bool
	ConeAngle       float32
	VolumeType      SoundTriggerVolumeType
	Radius          float32
	SoundName       string

	Running        bool
	AllowedToRun   bool
}

func (s *Sound) ClassName() string { return "zCVobSound:zCVob" }

func (s *Sound) Load(r archive.Reader, version archive.GameVersion) error {
	if err := s.LoadBase(r, version); err != nil {
		return err
	}
	return s.loadFields(r, version)
}

func (s *Sound) loadFields(r archive.Reader, version archive.GameVersion) error {
	var err error
	if s.Volume, err = r.ReadFloat(); err != nil {
		return err
	}
	modeVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	s.Mode = SoundMode(modeVal)
	if s.RandomDelay, err = r.ReadFloat(); err != nil {
		return err
	}
	if s.RandomDelayVar, err = r.ReadFloat(); err != nil {
		return err
	}
	if s.InitiallyPlaying, err = r.ReadBool(); err != nil {
		return err
	}
	if s.Ambient3D, err = r.ReadBool(); err != nil {
		return err
	}
	if s.Obstruction, err = r.ReadBool(); err != nil {
		return err
	}
	if s.ConeAngle, err = r.ReadFloat(); err != nil {
		return err
	}
	volTypeVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	s.VolumeType = SoundTriggerVolumeType(volTypeVal)
	if s.Radius, err = r.ReadFloat(); err != nil {
		return err
	}
	if s.SoundName, err = r.ReadString(); err != nil {
		return err
	}

	if r.Header().Save {
		if s.Running, err = r.ReadBool(); err != nil {
			return err
		}
		if s.AllowedToRun, err = r.ReadBool(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sound) Save(w archive.Writer, version archive.GameVersion) error {
	if err := s.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	return s.saveFields(w, version)
}

func (s *Sound) saveFields(w archive.Writer, version archive.GameVersion) error {
	if err := w.WriteFloat("sndVolume", s.Volume); err != nil {
		return err
	}
	if err := w.WriteEnum("sndMode", uint32(s.Mode)); err != nil {
		return err
	}
	if err := w.WriteFloat("sndRandDelay", s.RandomDelay); err != nil {
		return err
	}
	if err := w.WriteFloat("sndRandDelayVar", s.RandomDelayVar); err != nil {
		return err
	}
	if err := w.WriteBool("sndStartOn", s.InitiallyPlaying); err != nil {
		return err
	}
	if err := w.WriteBool("sndAmbient3D", s.Ambient3D); err != nil {
		return err
	}
	if err := w.WriteBool("sndObstruction", s.Obstruction); err != nil {
		return err
	}
	if err := w.WriteFloat("sndConeAngle", s.ConeAngle); err != nil {
		return err
	}
	if err := w.WriteEnum("sndVolType", uint32(s.VolumeType)); err != nil {
		return err
	}
	if err := w.WriteFloat("sndRadius", s.Radius); err != nil {
		return err
	}
	if err := w.WriteString("sndName", s.SoundName); err != nil {
		return err
	}

	if w.Header().Save {
		if err := w.WriteBool("soundIsRunning", s.Running); err != nil {
			return err
		}
		if err := w.WriteBool("soundAllowedToRun", s.AllowedToRun); err != nil {
			return err
		}
	}
	return nil
}

// SoundDaytime is zCVobSoundDaytime, adding a time-of-day window on top of
// Sound's fields.
type SoundDaytime struct {
	Sound

	StartTime float32
	EndTime   float32
	SoundName2 string
}

func (s *SoundDaytime) ClassName() string { return "zCVobSoundDaytime:zCVobSound:zCVob" }

func (s *SoundDaytime) Load(r archive.Reader, version archive.GameVersion) error {
	if err := s.LoadBase(r, version); err != nil {
		return err
	}
	if err := s.Sound.loadFields(r, version); err != nil {
		return err
	}
	var err error
	if s.StartTime, err = r.ReadFloat(); err != nil {
		return err
	}
	if s.EndTime, err = r.ReadFloat(); err != nil {
		return err
	}
	s.SoundName2, err = r.ReadString()
	return err
}

func (s *SoundDaytime) Save(w archive.Writer, version archive.GameVersion) error {
	if err := s.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := s.Sound.saveFields(w, version); err != nil {
		return err
	}
	if err := w.WriteFloat("sndStartTime", s.StartTime); err != nil {
		return err
	}
	if err := w.WriteFloat("sndEndTime", s.EndTime); err != nil {
		return err
	}
	return w.WriteString("sndName2", s.SoundName2)
}
