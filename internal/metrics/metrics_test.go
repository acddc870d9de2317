package metrics

import "testing"

func TestNoopImplementsRecorder(t *testing.T) {
	var r Recorder = Noop{}
	r.IncRequest("signed_url", "200")
	r.IncGeneration("hit")
	r.ObserveGenerationSeconds(1.5)
	r.IncPresignFailure()
}

func TestPromRecords(t *testing.T) {
	p := NewProm("media_service_test")
	p.IncRequest("signed_url", "200")
	p.IncGeneration("generated")
	p.ObserveGenerationSeconds(12)
	p.IncPresignFailure()
}
