package playback

import "github.com/ejhong/om/internal/notation"

// GroupVolumes maps preset group names (not section letters) to volume
// scalars in [0,1]. Groups absent from the map play at full volume. A zero
// entry silences the group: VelocityFor returns exactly 0 and callers skip
// playback entirely.
type GroupVolumes map[string]float64

const (
	baseVelocity     = 0.6
	trajVelocityGain = 0.2
	minVelocity      = 0.1
)

// VelocityFor derives the playback velocity for a note from its trajectory
// magnitude and the configured volume of its group.
func VelocityFor(n notation.Note, volumes GroupVolumes) float64 {
	volume := 1.0
	if volumes != nil {
		if v, ok := volumes[n.Group]; ok {
			volume = v
		}
	}
	if volume == 0 {
		return 0
	}
	traj := absFloat(n.TrajStart)
	if e := absFloat(n.TrajEnd); e > traj {
		traj = e
	}
	vel := (baseVelocity + traj*trajVelocityGain) * volume
	return clampFloat(vel, minVelocity, 1.0)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
