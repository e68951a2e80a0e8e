// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

// Config holds the renderer tunables. DefaultConfig returns the values
// the renderer was validated with; zero-value fields passed to
// NewRenderer are replaced by their defaults.
type Config struct {
	// MaxDepth bounds portal-in-portal recursion. Level 0 is the
	// player's own view, so MaxDepth 4 shows portals nested four deep.
	MaxDepth int

	// MaxDistance culls portals farther than this from the camera.
	MaxDistance float64

	// ForwardSlack culls portals whose center lies more than this far
	// behind the camera plane, measured along the camera forward axis.
	// A little slack keeps portals visible while walking through them.
	ForwardSlack float64

	// ClipOffset pulls the oblique clip plane slightly toward the
	// camera so geometry exactly on the portal plane is not clipped.
	ClipOffset float64

	// DegenerateZ is the minimum |view-space Z| of the clip-plane
	// normal for oblique clipping to stay numerically sound. Below it
	// the renderer falls back to a pushed-out conventional near plane.
	DegenerateZ float64

	// NearScale scales the portal distance into the fallback near
	// plane when oblique clipping is unusable.
	NearScale float64

	// MinPortalDistance aborts the fallback when the portal is closer
	// than this; the pushed-out near plane would clip the whole view.
	MinPortalDistance float64

	// FarPlane is the far distance of rebuilt fallback projections.
	FarPlane float64
}

// DefaultConfig returns the standard renderer configuration.
func DefaultConfig() Config {
	return Config{
		MaxDepth:          4,
		MaxDistance:       100,
		ForwardSlack:      1.0,
		ClipOffset:        0.01,
		DegenerateZ:       0.05,
		NearScale:         0.9,
		MinPortalDistance: 0.1,
		FarPlane:          100,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxDepth == 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.MaxDistance == 0 {
		c.MaxDistance = d.MaxDistance
	}
	if c.ForwardSlack == 0 {
		c.ForwardSlack = d.ForwardSlack
	}
	if c.ClipOffset == 0 {
		c.ClipOffset = d.ClipOffset
	}
	if c.DegenerateZ == 0 {
		c.DegenerateZ = d.DegenerateZ
	}
	if c.NearScale == 0 {
		c.NearScale = d.NearScale
	}
	if c.MinPortalDistance == 0 {
		c.MinPortalDistance = d.MinPortalDistance
	}
	if c.FarPlane == 0 {
		c.FarPlane = d.FarPlane
	}
	return c
}
