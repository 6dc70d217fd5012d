package systems

import (
	"math"

	"github.com/pthm-cable/arenasim/components"
	"github.com/pthm-cable/arenasim/geometry"
)

// InitialBearing is the starting direction of travel: the arena's +y axis.
const InitialBearing = math.Pi / 2

// Advance translates the agent one frame along its bearing at its current speed.
func Advance(pose *components.Pose, kin components.Kinematics) {
	pose.X += kin.Speed * math.Cos(pose.Bearing)
	pose.Y += kin.Speed * math.Sin(pose.Bearing)
}

// BodyTransform returns the world placement of an agent body at pose.
func BodyTransform(pose components.Pose) geometry.Transform {
	return geometry.Transform{X: pose.X, Y: pose.Y, Z: pose.Z, Yaw: pose.Heading}
}

// PlaceBody commits the agent body to world space at pose.
func PlaceBody(body components.Body, pose components.Pose) (geometry.Prism, error) {
	return body.Shape.Place(BodyTransform(pose))
}
