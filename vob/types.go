// Package vob implements the VOb (Virtual Object) class graph: the
// polymorphic world-tree node hierarchy serialized through the archive
// subsystem. Every concrete type registers itself with the archive
// package's object registry from an init function, a name-to-constructor
// dispatch pattern.
package vob

import (
	"github.com/gothicgo/zengin/archive"
	"github.com/gothicgo/zengin/internal/zlog"
	"github.com/gothicgo/zengin/stream"
)

var log = zlog.Default()

// Named is implemented by every concrete object the vob package writes back
// out through archive.WriteObject, so the generic VirtualObject/child-list
// code never needs a type switch to recover a wire class name.
type Named interface {
	ClassName() string
}

// classNameOf recovers the wire class name of a value being serialized as a
// child or attached sub-object. Every concrete vob type registered in this
// package implements Named; anything else is a programming error, not a
// recoverable runtime condition.
func classNameOf(p archive.Persistable) string {
	if n, ok := p.(Named); ok {
		return n.ClassName()
	}
	panic("vob: value does not implement Named")
}

// SpriteAlignment controls how a billboarded visual faces the camera.
type SpriteAlignment uint8

const (
	SpriteAlignNone SpriteAlignment = iota
	SpriteAlignYaw
	SpriteAlignFull
)

// ShadowType selects the dynamic shadow technique applied to a VOb.
type ShadowType uint8

const (
	ShadowNone ShadowType = iota
	ShadowBlob
)

// AnimationType selects how a visual's idle animation is driven.
type AnimationType uint8

const (
	AnimNone AnimationType = iota
	AnimWind
	AnimWind2
)

// VisualType tags which concrete Visual subtype a VOb's attached visual is.
type VisualType int

const (
	VisualUnknown VisualType = iota
	VisualDecalType
	VisualMeshType
	VisualMultiResolutionMeshType
	VisualParticleEffectType
	VisualAiCameraType
	VisualModelType
	VisualMorphMeshType
)

// Visual is any object attachable to a VirtualObject's visual slot.
type Visual interface {
	VisualName() string
	SetVisualName(string)
	Type() VisualType
}

// visualBase is embedded by every concrete Visual so Name/Type bookkeeping
// isn't repeated in each subtype.
type visualBase struct {
	name string
	typ  VisualType
}

func (v *visualBase) VisualName() string     { return v.name }
func (v *visualBase) SetVisualName(n string) { v.name = n }
func (v *visualBase) Type() VisualType       { return v.typ }

// RigidBody is the save-game-only physics sub-record attached to a VOb when
// physics is enabled under Gothic 2
type RigidBody struct {
	Velocity       stream.Vec3
	Mode           uint8
	GravityEnabled bool
	GravityScale   float32
	SlideDirection stream.Vec3
}

// AI is the opaque AI sub-object a VOb may own; concrete AI state lives in
// the daedalus package's instance model, so this core only round-trips it
// as a generic Persistable via the registry.
type AI interface{}

// EventManager is the optional save-game sub-object tracking a VOb's
// queued/triggered script events.
type EventManager struct {
	Cleared bool
	Active  bool
}
