// Package metrics holds the observability hooks for progress persistence.
//
// Components take a Recorder and default to NoopRecorder, so nothing needs a
// nil check. The Prometheus implementation is swapped in by cmd/server when
// metrics are enabled.
package metrics

// LoadOutcome classifies a load of the saved envelope.
type LoadOutcome string

const (
	LoadMissing   LoadOutcome = "missing"
	LoadOK        LoadOutcome = "ok"
	LoadRecovered LoadOutcome = "recovered"
	LoadFailed    LoadOutcome = "failed"
)

type Recorder interface {
	IncSave(ok bool)
	IncLoad(outcome LoadOutcome)
	IncClear(ok bool)
	IncAction(name string)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncSave(bool) {}
func (NoopRecorder) IncLoad(LoadOutcome) {}
func (NoopRecorder) IncClear(bool) {}
func (NoopRecorder) IncAction(string) {}
