package vob

import "github.com/gothicgo/zengin/archive"

func init() {
	archive.Register("zCVob", func() archive.Persistable { return &VirtualObject{} }, 12289, 52224)
}

// ClassName satisfies Named for the base VOb type itself: zCVobLevelCompo,
// zCVobStartpoint, zCVobStair and zCVobSpot are plain zCVob instances (same
// struct, distinguished only by the wire class name they were read under),
// so a bare VirtualObject always reports "zCVob".
func (v *VirtualObject) ClassName() string { return "zCVob" }

func (v *VirtualObject) Load(r archive.Reader, version archive.GameVersion) error {
	return v.LoadBase(r, version)
}

func (v *VirtualObject) Save(w archive.Writer, version archive.GameVersion) error {
	return v.SaveBase(w, version, w.Header().Save)
}
