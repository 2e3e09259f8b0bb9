package port

// GalleryMetrics records gallery-level counters. Implemented by the Prometheus
// registry; NopMetrics is used when metrics are not wired (tests).
type GalleryMetrics interface {
	// ObserveAdmission counts one evaluated batch by outcome
	ObserveAdmission(outcome string, admitted, rejected int)

	// ObserveRotation counts one rotation by direction and outcome
	ObserveRotation(direction, outcome string)

	// ObservePersistence counts a snapshot load or save by outcome
	ObservePersistence(op, outcome string)

	// SetCollectionSize reports the current number of images
	SetCollectionSize(n int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) ObserveAdmission(string, int, int) {}
func (NopMetrics) ObserveRotation(string, string)    {}
func (NopMetrics) ObservePersistence(string, string) {}
func (NopMetrics) SetCollectionSize(int)             {}
