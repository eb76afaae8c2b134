package vob

import "github.com/gothicgo/zengin/archive"

// AlphaFunction selects a decal's blend mode against the framebuffer.
type AlphaFunction uint32

const (
	AlphaDefault AlphaFunction = iota
	AlphaNone
	AlphaBlend
	AlphaAdd
	AlphaSubtract
	AlphaMultiply
	AlphaMultiplyAlt
)

func init() {
	archive.Register("zCDecal:zCVisual", func() archive.Persistable { return &VisualDecal{} }, 0, 0)

	registerEmptyVisual("zCMesh", VisualMeshType)
	registerEmptyVisual("zCProgMeshProto", VisualMultiResolutionMeshType)
	registerEmptyVisual("zCParticleFX", VisualParticleEffectType)
	registerEmptyVisual("zCAICamera", VisualAiCameraType)
	registerEmptyVisual("zCModel", VisualModelType)
	registerEmptyVisual("zCMorphMesh", VisualMorphMeshType)
}

func registerEmptyVisual(className string, typ VisualType) {
	archive.Register(className, func() archive.Persistable {
		return &emptyVisual{visualBase: visualBase{typ: typ}, className: className}
	}, 0, 0)
}

// emptyVisual backs every Visual subtype the reader doesn't decode fields
// for: the wire class name alone distinguishes a
// mesh from a model from a particle effect, nothing else is read.
type emptyVisual struct {
	visualBase
	className string
}

func (e *emptyVisual) ClassName() string { return e.className }

func (e *emptyVisual) Load(archive.Reader, archive.GameVersion) error { return nil }
func (e *emptyVisual) Save(archive.Writer, archive.GameVersion) error { return nil }

// VisualDecal is the one Visual subtype with encoded fields
type VisualDecal struct {
	visualBase

	Name           string
	DimensionX     float32
	DimensionY     float32
	OffsetX        float32
	OffsetY        float32
	TwoSided       bool
	AlphaFunc      AlphaFunction
	TexAnimFPS     float32
	AlphaWeight    uint8
	IgnoreDaylight bool
}

func (d *VisualDecal) ClassName() string { return "zCDecal:zCVisual" }
func (d *VisualDecal) Type() VisualType  { return VisualDecalType }

func (d *VisualDecal) Load(r archive.Reader, version archive.GameVersion) error {
	var err error
	if d.Name, err = r.ReadString(); err != nil {
		return err
	}
	if d.DimensionX, err = r.ReadFloat(); err != nil {
		return err
	}
	if d.DimensionY, err = r.ReadFloat(); err != nil {
		return err
	}
	if d.OffsetX, err = r.ReadFloat(); err != nil {
		return err
	}
	if d.OffsetY, err = r.ReadFloat(); err != nil {
		return err
	}
	if d.TwoSided, err = r.ReadBool(); err != nil {
		return err
	}
	alphaVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	d.AlphaFunc = AlphaFunction(alphaVal)
	if d.TexAnimFPS, err = r.ReadFloat(); err != nil {
		return err
	}

	if version == archive.Gothic2 {
		if d.AlphaWeight, err = r.ReadByte(); err != nil {
			return err
		}
		if d.IgnoreDaylight, err = r.ReadBool(); err != nil {
			return err
		}
	}
	return nil
}

func (d *VisualDecal) Save(w archive.Writer, version archive.GameVersion) error {
	if err := w.WriteString("name", d.Name); err != nil {
		return err
	}
	if err := w.WriteFloat("decalDim.x", d.DimensionX); err != nil {
		return err
	}
	if err := w.WriteFloat("decalDim.y", d.DimensionY); err != nil {
		return err
	}
	if err := w.WriteFloat("decalOffset.x", d.OffsetX); err != nil {
		return err
	}
	if err := w.WriteFloat("decalOffset.y", d.OffsetY); err != nil {
		return err
	}
	if err := w.WriteBool("decal2Sided", d.TwoSided); err != nil {
		return err
	}
	if err := w.WriteEnum("decalAlphaFunc", uint32(d.AlphaFunc)); err != nil {
		return err
	}
	if err := w.WriteFloat("decalTexAniFPS", d.TexAnimFPS); err != nil {
		return err
	}

	if version == archive.Gothic2 {
		if err := w.WriteByte("decalAlphaWeight", d.AlphaWeight); err != nil {
			return err
		}
		if err := w.WriteBool("ignoreDayLight", d.IgnoreDaylight); err != nil {
			return err
		}
	}
	return nil
}
