package vob

import (
	"github.com/gothicgo/zengin/archive"
	"github.com/gothicgo/zengin/stream"
)

// CameraMotion selects the interpolation driving one axis of a camera
// trajectory frame (fov, roll, or time).
type CameraMotion uint32

const (
	CameraMotionUndefined CameraMotion = iota
	CameraMotionSmooth
	CameraMotionLinear
	CameraMotionStep
	CameraMotionSlow
	CameraMotionFast
	CameraMotionCustom
)

// CameraLoop selects how a cutscene camera replays its trajectory.
type CameraLoop uint32

const (
	CameraLoopNone CameraLoop = iota
	CameraLoopRestart
	CameraLoopPingPong
)

// CameraLerpType selects the spline fit of a cutscene camera's trajectory.
type CameraLerpType uint32

const (
	CameraLerpUndefined CameraLerpType = iota
	CameraLerpPath
	CameraLerpPathIgnoreRoll
	CameraLerpPathRotationSamples
)

// CameraCoordinateReference selects whether trajectory/target frames are
// expressed in world space or relative to another VOb.
type CameraCoordinateReference uint32

const (
	CameraFrameWorld CameraCoordinateReference = iota
	CameraFrameObject
)

func init() {
	archive.Register("zCCSCamera:zCVob", func() archive.Persistable { return &CutsceneCamera{} }, 30720, 33793)
	archive.Register("zCCamTrj_KeyFrame:zCVob", func() archive.Persistable { return &CameraTrajectoryFrame{} }, 0, 0)
}

// CameraTrajectoryFrame is zCCamTrj_KeyFrame, one sample of a cutscene
// camera's trajectory or target path.
type CameraTrajectoryFrame struct {
	VirtualObject

	Time              float32
	RollAngle         float32
	FOVScale          float32
	MotionType        CameraMotion
	MotionTypeFOV     CameraMotion
	MotionTypeRoll    CameraMotion
	MotionTypeTimeScale CameraMotion
	Tension           float32
	Bias              float32
	Continuity        float32
	TimeScale         float32
	TimeFixed         bool
	OriginalPose      stream.Mat4
}

func (f *CameraTrajectoryFrame) ClassName() string { return "zCCamTrj_KeyFrame:zCVob" }

func (f *CameraTrajectoryFrame) Load(r archive.Reader, version archive.GameVersion) error {
	if err := f.LoadBase(r, version); err != nil {
		return err
	}
	var err error
	if f.Time, err = r.ReadFloat(); err != nil {
		return err
	}
	if f.RollAngle, err = r.ReadFloat(); err != nil {
		return err
	}
	if f.FOVScale, err = r.ReadFloat(); err != nil {
		return err
	}
	motionVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	f.MotionType = CameraMotion(motionVal)
	motionFOVVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	f.MotionTypeFOV = CameraMotion(motionFOVVal)
	motionRollVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	f.MotionTypeRoll = CameraMotion(motionRollVal)
	motionTimeVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	f.MotionTypeTimeScale = CameraMotion(motionTimeVal)
	if f.Tension, err = r.ReadFloat(); err != nil {
		return err
	}
	if f.Bias, err = r.ReadFloat(); err != nil {
		return err
	}
	if f.Continuity, err = r.ReadFloat(); err != nil {
		return err
	}
	if f.TimeScale, err = r.ReadFloat(); err != nil {
		return err
	}
	if f.TimeFixed, err = r.ReadBool(); err != nil {
		return err
	}

	raw, err := r.ReadRaw(4 * 4 * 4)
	if err != nil {
		return err
	}
	buf := stream.OpenMemory(raw)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			v, err := buf.ReadF32()
			if err != nil {
				return err
			}
			f.OriginalPose[row][col] = v
		}
	}
	return nil
}

func (f *CameraTrajectoryFrame) Save(w archive.Writer, version archive.GameVersion) error {
	if err := f.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := w.WriteFloat("time", f.Time); err != nil {
		return err
	}
	if err := w.WriteFloat("angleRollDeg", f.RollAngle); err != nil {
		return err
	}
	if err := w.WriteFloat("camFOVScale", f.FOVScale); err != nil {
		return err
	}
	if err := w.WriteEnum("motionType", uint32(f.MotionType)); err != nil {
		return err
	}
	if err := w.WriteEnum("motionTypeFOV", uint32(f.MotionTypeFOV)); err != nil {
		return err
	}
	if err := w.WriteEnum("motionTypeRoll", uint32(f.MotionTypeRoll)); err != nil {
		return err
	}
	if err := w.WriteEnum("motionTypeTimeScale", uint32(f.MotionTypeTimeScale)); err != nil {
		return err
	}
	if err := w.WriteFloat("tension", f.Tension); err != nil {
		return err
	}
	if err := w.WriteFloat("bias", f.Bias); err != nil {
		return err
	}
	if err := w.WriteFloat("continuity", f.Continuity); err != nil {
		return err
	}
	if err := w.WriteFloat("timeScale", f.TimeScale); err != nil {
		return err
	}
	if err := w.WriteBool("timeIsFixed", f.TimeFixed); err != nil {
		return err
	}

	buf := stream.OpenMemory(nil)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			if err := buf.WriteF32(f.OriginalPose[row][col]); err != nil {
				return err
			}
		}
	}
	if _, err := buf.Seek(0, stream.Begin); err != nil {
		return err
	}
	raw, err := buf.ReadBlock(int(buf.Len()))
	if err != nil {
		return err
	}
	return w.WriteRaw("originalPose", raw)
}

// CutsceneCamera is zCCSCamera.
type CutsceneCamera struct {
	VirtualObject

	TrajectoryFor       CameraCoordinateReference
	TargetTrajectoryFor CameraCoordinateReference
	LoopMode            CameraLoop
	LerpMode            CameraLerpType
	IgnoreFORRotationCam    bool
	IgnoreFORRotationTarget bool
	Adapt                   bool
	EaseFirst               bool
	EaseLast                bool
	TotalDuration           float32
	AutoFocusVob            string
	AutoPlayerMovable       bool
	AutoUntriggerLast       bool
	AutoUntriggerLastDelay  float32
	PositionCount           int32
	TargetCount             int32

	TrajectoryFrames []*CameraTrajectoryFrame
	TargetFrames     []*CameraTrajectoryFrame

	Paused       bool
	Started      bool
	GotoTimeMode bool
	CSTime       float32
}

func (c *CutsceneCamera) ClassName() string { return "zCCSCamera:zCVob" }

func (c *CutsceneCamera) Load(r archive.Reader, version archive.GameVersion) error {
	if err := c.LoadBase(r, version); err != nil {
		return err
	}

	var err error
	forVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	c.TrajectoryFor = CameraCoordinateReference(forVal)
	targetForVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	c.TargetTrajectoryFor = CameraCoordinateReference(targetForVal)
	loopVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	c.LoopMode = CameraLoop(loopVal)
	lerpVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	c.LerpMode = CameraLerpType(lerpVal)
	if c.IgnoreFORRotationCam, err = r.ReadBool(); err != nil {
		return err
	}
	if c.IgnoreFORRotationTarget, err = r.ReadBool(); err != nil {
		return err
	}
	if c.Adapt, err = r.ReadBool(); err != nil {
		return err
	}
	if c.EaseFirst, err = r.ReadBool(); err != nil {
		return err
	}
	if c.EaseLast, err = r.ReadBool(); err != nil {
		return err
	}
	if c.TotalDuration, err = r.ReadFloat(); err != nil {
		return err
	}
	if c.AutoFocusVob, err = r.ReadString(); err != nil {
		return err
	}
	if c.AutoPlayerMovable, err = r.ReadBool(); err != nil {
		return err
	}
	if c.AutoUntriggerLast, err = r.ReadBool(); err != nil {
		return err
	}
	if c.AutoUntriggerLastDelay, err = r.ReadFloat(); err != nil {
		return err
	}
	if c.PositionCount, err = r.ReadInt(); err != nil {
		return err
	}
	if c.TargetCount, err = r.ReadInt(); err != nil {
		return err
	}

	for i := int32(0); i < c.PositionCount; i++ {
		obj, err := r.ReadObject(version)
		if err != nil {
			return err
		}
		if frame, ok := obj.(*CameraTrajectoryFrame); ok {
			c.TrajectoryFrames = append(c.TrajectoryFrames, frame)
		}
	}
	for i := int32(0); i < c.TargetCount; i++ {
		obj, err := r.ReadObject(version)
		if err != nil {
			return err
		}
		if frame, ok := obj.(*CameraTrajectoryFrame); ok {
			c.TargetFrames = append(c.TargetFrames, frame)
		}
	}

	if r.Header().Save && version == archive.Gothic2 {
		if c.Paused, err = r.ReadBool(); err != nil {
			return err
		}
		if c.Started, err = r.ReadBool(); err != nil {
			return err
		}
		if c.GotoTimeMode, err = r.ReadBool(); err != nil {
			return err
		}
		if c.CSTime, err = r.ReadFloat(); err != nil {
			return err
		}
	}
	return nil
}

func (c *CutsceneCamera) Save(w archive.Writer, version archive.GameVersion) error {
	if err := c.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := w.WriteEnum("camTrjFOR", uint32(c.TrajectoryFor)); err != nil {
		return err
	}
	if err := w.WriteEnum("targetTrjFOR", uint32(c.TargetTrajectoryFor)); err != nil {
		return err
	}
	if err := w.WriteEnum("loopMode", uint32(c.LoopMode)); err != nil {
		return err
	}
	if err := w.WriteEnum("splLerpMode", uint32(c.LerpMode)); err != nil {
		return err
	}
	if err := w.WriteBool("ignoreFORVobRotCam", c.IgnoreFORRotationCam); err != nil {
		return err
	}
	if err := w.WriteBool("ignoreFORVobRotTarget", c.IgnoreFORRotationTarget); err != nil {
		return err
	}
	if err := w.WriteBool("adaptToSurroundings", c.Adapt); err != nil {
		return err
	}
	if err := w.WriteBool("easeToFirstKey", c.EaseFirst); err != nil {
		return err
	}
	if err := w.WriteBool("easeFromLastKey", c.EaseLast); err != nil {
		return err
	}
	if err := w.WriteFloat("totalTime", c.TotalDuration); err != nil {
		return err
	}
	if err := w.WriteString("autoCamFocusVobName", c.AutoFocusVob); err != nil {
		return err
	}
	if err := w.WriteBool("autoCamPlayerMovable", c.AutoPlayerMovable); err != nil {
		return err
	}
	if err := w.WriteBool("autoCamUntriggerOnLastKey", c.AutoUntriggerLast); err != nil {
		return err
	}
	if err := w.WriteFloat("autoCamUntriggerOnLastKeyDelay", c.AutoUntriggerLastDelay); err != nil {
		return err
	}
	if err := w.WriteInt("numPos", int32(len(c.TrajectoryFrames))); err != nil {
		return err
	}
	if err := w.WriteInt("numTargets", int32(len(c.TargetFrames))); err != nil {
		return err
	}

	for _, frame := range c.TrajectoryFrames {
		if err := archive.WriteObject(w, "", frame.ClassName(), version, frame); err != nil {
			return err
		}
	}
	for _, frame := range c.TargetFrames {
		if err := archive.WriteObject(w, "", frame.ClassName(), version, frame); err != nil {
			return err
		}
	}

	if w.Header().Save && version == archive.Gothic2 {
		if err := w.WriteBool("paused", c.Paused); err != nil {
			return err
		}
		if err := w.WriteBool("started", c.Started); err != nil {
			return err
		}
		if err := w.WriteBool("gotoTimeMode", c.GotoTimeMode); err != nil {
			return err
		}
		if err := w.WriteFloat("csTime", c.CSTime); err != nil {
			return err
		}
	}
	return nil
}
