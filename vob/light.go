package vob

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gothicgo/zengin/archive"
	"github.com/gothicgo/zengin/stream"
)

// LightType selects the emission shape of a light source.
type LightType uint32

const (
	LightPoint LightType = iota
	LightSpot
	lightReserved0
	lightReserved1
)

// LightQuality trades render cost for fidelity.
type LightQuality uint32

const (
	LightQualityHigh LightQuality = iota
	LightQualityMedium
	LightQualityLow
)

func init() {
	archive.Register("zCVobLight:zCVob", func() archive.Persistable { return &Light{} }, 12289, 52224)
}

// Light is zCVobLight. The dynamic fields
// (rangeAniScale, colorAniList, canMove) are only present when IsStatic is
// false, and canMove only under Gothic 2.
type Light struct {
	VirtualObject

	Preset     string
	Type       LightType
	Range      float32
	Color      stream.Color
	ConeAngle  float32
	IsStatic   bool
	Quality    LightQuality
	LensflareFX string

	On                   bool
	RangeAnimationScale  []float32
	RangeAnimationFPS    float32
	RangeAnimationSmooth bool
	ColorAnimationList   []stream.Color
	ColorAnimationFPS    float32
	ColorAnimationSmooth bool
	CanMove              bool
}

func (l *Light) ClassName() string { return "zCVobLight:zCVob" }

func (l *Light) Load(r archive.Reader, version archive.GameVersion) error {
	if err := l.LoadBase(r, version); err != nil {
		return err
	}

	var err error
	if l.Preset, err = r.ReadString(); err != nil {
		return err
	}
	typeVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	l.Type = LightType(typeVal)
	if l.Range, err = r.ReadFloat(); err != nil {
		return err
	}
	if l.Color, err = r.ReadColor(); err != nil {
		return err
	}
	if l.ConeAngle, err = r.ReadFloat(); err != nil {
		return err
	}
	if l.IsStatic, err = r.ReadBool(); err != nil {
		return err
	}
	qualityVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	l.Quality = LightQuality(qualityVal)
	if l.LensflareFX, err = r.ReadString(); err != nil {
		return err
	}

	if l.IsStatic {
		return nil
	}

	if l.On, err = r.ReadBool(); err != nil {
		return err
	}
	rangeScale, err := r.ReadString()
	if err != nil {
		return err
	}
	l.RangeAnimationScale = parseFloatList(rangeScale)
	if l.RangeAnimationFPS, err = r.ReadFloat(); err != nil {
		return err
	}
	if l.RangeAnimationSmooth, err = r.ReadBool(); err != nil {
		return err
	}
	colorList, err := r.ReadString()
	if err != nil {
		return err
	}
	l.ColorAnimationList, err = parseColorAniList(colorList)
	if err != nil {
		return err
	}
	if l.ColorAnimationFPS, err = r.ReadFloat(); err != nil {
		return err
	}
	if l.ColorAnimationSmooth, err = r.ReadBool(); err != nil {
		return err
	}

	if version == archive.Gothic2 {
		if l.CanMove, err = r.ReadBool(); err != nil {
			return err
		}
	}
	return nil
}

func (l *Light) Save(w archive.Writer, version archive.GameVersion) error {
	if err := l.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}

	if err := w.WriteString("lightPresetInUse", l.Preset); err != nil {
		return err
	}
	if err := w.WriteEnum("lightType", uint32(l.Type)); err != nil {
		return err
	}
	if err := w.WriteFloat("range", l.Range); err != nil {
		return err
	}
	if err := w.WriteColor("color", l.Color); err != nil {
		return err
	}
	if err := w.WriteFloat("spotConeAngle", l.ConeAngle); err != nil {
		return err
	}
	if err := w.WriteBool("lightStatic", l.IsStatic); err != nil {
		return err
	}
	if err := w.WriteEnum("lightQuality", uint32(l.Quality)); err != nil {
		return err
	}
	if err := w.WriteString("lensflareFX", l.LensflareFX); err != nil {
		return err
	}

	if l.IsStatic {
		return nil
	}

	if err := w.WriteBool("turnedOn", l.On); err != nil {
		return err
	}
	if err := w.WriteString("rangeAniScale", formatFloatList(l.RangeAnimationScale)); err != nil {
		return err
	}
	if err := w.WriteFloat("rangeAniFPS", l.RangeAnimationFPS); err != nil {
		return err
	}
	if err := w.WriteBool("rangeAniSmooth", l.RangeAnimationSmooth); err != nil {
		return err
	}
	if err := w.WriteString("colorAniList", formatColorAniList(l.ColorAnimationList)); err != nil {
		return err
	}
	if err := w.WriteFloat("colorAniFPS", l.ColorAnimationFPS); err != nil {
		return err
	}
	if err := w.WriteBool("colorAniSmooth", l.ColorAnimationSmooth); err != nil {
		return err
	}

	if version == archive.Gothic2 {
		return w.WriteBool("canMove", l.CanMove)
	}
	return nil
}

func parseFloatList(s string) []float32 {
	fields := strings.Fields(s)
	out := make([]float32, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			continue
		}
		out = append(out, float32(v))
	}
	return out
}

func formatFloatList(vals []float32) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return strings.Join(parts, " ")
}

// parseColorAniList decodes a hand-rolled grammar: a whitespace-separated
// sequence of either a bare greyscale scalar or a "(r g b)" triple, each
// producing one opaque RGBA entry.
func parseColorAniList(s string) ([]stream.Color, error) {
	var out []stream.Color
	fields := strings.Fields(s)
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if strings.HasPrefix(f, "(") {
			r, rest := splitParen(f)
			gStr := rest
			if gStr == "" {
				i++
				if i >= len(fields) {
					return out, fmt.Errorf("colorAniList: truncated triple")
				}
				gStr = fields[i]
			}
			i++
			if i >= len(fields) {
				return out, fmt.Errorf("colorAniList: truncated triple")
			}
			bStr := strings.TrimSuffix(fields[i], ")")
			rv, _ := strconv.Atoi(strings.TrimPrefix(r, "("))
			gv, _ := strconv.Atoi(gStr)
			bv, _ := strconv.Atoi(bStr)
			out = append(out, stream.Color{R: uint8(rv), G: uint8(gv), B: uint8(bv), A: 255})
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		out = append(out, stream.Color{R: uint8(v), G: uint8(v), B: uint8(v), A: 255})
	}
	return out, nil
}

func splitParen(tok string) (string, string) {
	if idx := strings.Index(tok, ")"); idx >= 0 && idx != len(tok)-1 {
		return tok[:idx+1], tok[idx+1:]
	}
	return tok, ""
}

func formatColorAniList(colors []stream.Color) string {
	parts := make([]string, 0, len(colors))
	for _, c := range colors {
		if c.R == c.G && c.G == c.B {
			parts = append(parts, strconv.Itoa(int(c.R)))
			continue
		}
		parts = append(parts, fmt.Sprintf("(%d %d %d)", c.R, c.G, c.B))
	}
	return strings.Join(parts, " ")
}
