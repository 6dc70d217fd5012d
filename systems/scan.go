package systems

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/arenasim/components"
	"github.com/pthm-cable/arenasim/config"
	"github.com/pthm-cable/arenasim/geometry"
)

// ErrScanFailed wraps any overlap query failure during a probe.
var ErrScanFailed = errors.New("scan failed")

// Scanner tests an agent's scan disc against obstacles and peer bodies.
type Scanner struct {
	overlap      geometry.Overlapper
	segments     int
	discOffset   float64 // disc bottom relative to the agent's base
	discDepth    float64
	includePeers bool
}

// NewScanner creates a scanner from navigation config. A nil overlapper
// selects geometry.Exact.
func NewScanner(cfg config.NavigationConfig, overlap geometry.Overlapper) *Scanner {
	if overlap == nil {
		overlap = geometry.Exact{}
	}
	return &Scanner{
		overlap:      overlap,
		segments:     cfg.DiscSegments,
		discOffset:   cfg.DiscHeight - cfg.DiscDepth/2,
		discDepth:    cfg.DiscDepth,
		includePeers: cfg.IncludePeers,
	}
}

// IncludesPeers reports whether peer bodies take part in probes.
func (s *Scanner) IncludesPeers() bool {
	return s.includePeers
}

// Disc builds the flat scan disc under the agent at pose with the given
// radius. Its centre sits DiscHeight above the agent's base, so agents spawned
// at different heights each scan their own plane. The disc is already in
// world space, so it is tested under the identity.
func (s *Scanner) Disc(pose components.Pose, radius float64) (geometry.Prism, error) {
	shape := geometry.RegularPolygon(radius, s.segments, s.discDepth)
	return shape.Place(geometry.Transform{X: pose.X, Y: pose.Y, Z: pose.Z + s.discOffset})
}

// Probe reports whether the agent's current scan disc overlaps any obstacle
// or, when peers are included, any of the given peer bodies. Obstacles are
// tested first, in registry order; the first hit returns immediately.
func (s *Scanner) Probe(pose components.Pose, kin components.Kinematics, obstacles *ObstacleRegistry, peers []geometry.Prism) (bool, error) {
	disc, err := s.Disc(pose, kin.ScanRadius)
	if err != nil {
		return false, fmt.Errorf("%w: building disc: %w", ErrScanFailed, err)
	}

	for i := 0; i < obstacles.Len(); i++ {
		hit, err := s.overlap.Overlaps(disc, obstacles.Prism(i))
		if err != nil {
			return false, fmt.Errorf("%w: obstacle %d: %w", ErrScanFailed, i, err)
		}
		if hit {
			return true, nil
		}
	}

	if !s.includePeers {
		return false, nil
	}
	for i, body := range peers {
		hit, err := s.overlap.Overlaps(disc, body)
		if err != nil {
			return false, fmt.Errorf("%w: peer %d: %w", ErrScanFailed, i, err)
		}
		if hit {
			return true, nil
		}
	}
	return false, nil
}
