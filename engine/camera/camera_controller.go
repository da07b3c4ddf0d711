package camera

// CameraController drives a Camera's eye and target from user input.
// The eye sits on a sphere around the target described by radius, azimuth (around +Y) and
// elevation (above the XZ plane). Orbit methods move the eye on that sphere; pan methods
// translate eye and target together along the camera's local axes.
type CameraController interface {
	// Position returns the controller's eye position.
	//
	// Returns:
	//   - [3]float32: the eye position
	Position() [3]float32

	// Target returns the point the controller orbits around.
	//
	// Returns:
	//   - [3]float32: the orbit target
	Target() [3]float32

	// SetTarget moves the orbit target, keeping the spherical offset.
	//
	// Parameters:
	//   - x, y, z: the new target
	SetTarget(x, y, z float32)

	// Orbit rotates the eye around the target.
	//
	// Parameters:
	//   - dAzimuth: change in azimuth, in orbit steps
	//   - dElevation: change in elevation, in orbit steps
	Orbit(dAzimuth, dElevation float32)

	// Drag rotates the eye by a mouse movement in pixels.
	//
	// Parameters:
	//   - dx, dy: cursor delta in pixels
	Drag(dx, dy float64)

	// Zoom moves the eye towards (positive) or away from (negative) the target.
	// The radius is clamped to the configured bounds.
	//
	// Parameters:
	//   - delta: zoom amount, typically a scroll wheel offset
	Zoom(delta float32)

	// Pan translates eye and target along the camera's right and up axes.
	//
	// Parameters:
	//   - right: movement along the right axis
	//   - up: movement along the up axis
	Pan(right, up float32)

	// Radius returns the eye's distance from the target.
	Radius() float32

	// Azimuth returns the horizontal angle around the Y axis in radians.
	Azimuth() float32

	// Elevation returns the vertical angle above the XZ plane in radians.
	Elevation() float32

	// Reset restores the spherical coordinates and target the controller was built with.
	Reset()
}
