// Package domain holds the core types shared by the protocol, the
// registries and the persistence gateway: identifiers, the published
// avatar state of a connection, chat messages and room metadata.
package domain

// ConnectionID is the opaque token minted when a connection is accepted.
// It is never reused for the lifetime of the process.
type ConnectionID string

// RoomID is the caller-supplied name of a room. A room exists as soon as
// it has one member and disappears when the last member leaves.
type RoomID string

// Vec3 is a position or velocity vector, serialized as a JSON array.
type Vec3 [3]float64

// Quat is a rotation quaternion in w, x, y, z order.
type Quat [4]float64

// IdentityRotation is the neutral orientation assigned on join.
var IdentityRotation = Quat{1, 0, 0, 0}

// PlayerState is the latest avatar state published by one connection
// within its room. It is replaced wholesale on every update; there is no
// partial field merge.
type PlayerState struct {
	Name      string  `json:"name" validate:"required,min=1,max=50"`
	Color     string  `json:"color" validate:"required,hexrgb"`
	Position  Vec3    `json:"position" validate:"bounded3"`
	Rotation  Quat    `json:"rotation" validate:"unitquat"`
	Animation string  `json:"animation,omitempty"`
	Velocity  *Vec3   `json:"velocity,omitempty" validate:"omitempty,bounded3"`
	ModelURL  string  `json:"modelUrl,omitempty"`
}

// NewPlayerState returns the default state for a player that just joined:
// at the origin, identity rotation, no animation.
func NewPlayerState(name, color string) PlayerState {
	return PlayerState{
		Name:     name,
		Color:    color,
		Position: Vec3{},
		Rotation: IdentityRotation,
	}
}
