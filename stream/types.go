package stream

// Vec3 is a 3D vector, stored in the order the wire format writes it: x, y, z.
type Vec3 struct {
	X, Y, Z float32
}

// Mat3 is a row-major 3x3 matrix, used for VOb rotations.
type Mat3 [3][3]float32

// Mat4 is a row-major 4x4 matrix, used for camera trajectory poses.
type Mat4 [4][4]float32

// Color is RGBA in memory, independent of how a given back-end orders the
// bytes on the wire (BINSAFE stores BGRA; ASCII stores four decimal bytes).
type Color struct {
	R, G, B, A uint8
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec3
}
