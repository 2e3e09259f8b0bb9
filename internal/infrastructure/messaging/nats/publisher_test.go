package nats

import "testing"

func TestStreamName(t *testing.T) {
	tests := map[string]string{
		"gallery":      "GALLERY",
		"acme.gallery": "ACME_GALLERY",
	}
	for prefix, want := range tests {
		if got := streamName(prefix); got != want {
			t.Fatalf("streamName(%q) = %q, want %q", prefix, got, want)
		}
	}
}
