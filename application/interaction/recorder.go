package interaction

// Auto-connect outcomes
const (
	AutoConnectNone    = "none"
	AutoConnectCreated = "created"
	AutoConnectKnown   = "known"
	AutoConnectFailed  = "failed"
)

// Recorder receives interaction metrics. *observability.Metrics implements it.
type Recorder interface {
	RecordGesture(kind string, err error)
	RecordAutoConnect(outcome string)
	RecordReload(err error, nodes int)
}

type nopRecorder struct{}

func (nopRecorder) RecordGesture(string, error) {}
func (nopRecorder) RecordAutoConnect(string)    {}
func (nopRecorder) RecordReload(error, int)     {}
