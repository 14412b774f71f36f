package sim

import "github.com/cory-johannsen/sidearm/internal/game/host"

// sensor is a trigger sphere that reports candidate bodies crossing it.
type sensor struct {
	center   host.Vec3
	radius   float64
	listener host.SensorListener
	inside   map[host.EntityID]bool
}

// AttachSensor adds a trigger sphere reporting to listener.
func (w *World) AttachSensor(center host.Vec3, radius float64, listener host.SensorListener) {
	w.sensors = append(w.sensors, &sensor{
		center:   center,
		radius:   radius,
		listener: listener,
		inside:   make(map[host.EntityID]bool),
	})
}

// ScanSensors reports enter and exit crossings for candidate bodies. A body
// destroyed while inside is forgotten without an exit.
func (w *World) ScanSensors() {
	for _, s := range w.sensors {
		for _, id := range w.BodyIDs() {
			b, ok := w.bodies[id]
			if !ok {
				continue
			}
			c, ok := b.Domain.(host.Candidate)
			if !ok {
				continue
			}
			in := b.Pose.Position.Sub(s.center).Len() <= s.radius
			switch {
			case in && !s.inside[id]:
				s.inside[id] = true
				s.listener.OnCandidateDetected(c)
			case !in && s.inside[id]:
				delete(s.inside, id)
				s.listener.OnCandidateExit(c)
			}
		}
		for id := range s.inside {
			if _, ok := w.bodies[id]; !ok {
				delete(s.inside, id)
			}
		}
	}
}
