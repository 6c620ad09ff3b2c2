package statsd

import (
	"sync"
	"time"
)

// Point is one metric captured by Recorder.
type Point struct {
	Kind  string
	Name  string
	Value float64
	Tags  map[string]string
}

// Recorder is an in-memory Sink for tests and dev introspection.
type Recorder struct {
	mu     sync.Mutex
	points []Point
}

var _ Sink = (*Recorder)(nil)

func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(Point{Kind: "c", Name: name, Value: float64(value), Tags: cleanTags(tags)})
}

func (r *Recorder) Gauge(name string, value float64, tags map[string]string) {
	r.add(Point{Kind: "g", Name: name, Value: value, Tags: cleanTags(tags)})
}

func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(Point{Kind: "ms", Name: name, Value: float64(value) / float64(time.Millisecond), Tags: cleanTags(tags)})
}

func (r *Recorder) add(p Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, p)
}

// Named returns the captured points called name, in emission order.
func (r *Recorder) Named(name string) []Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Point
	for _, p := range r.points {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}
