package service

import (
	"bytes"
	"errors"
	"testing"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/apperr"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/valueobject"
)

func candidate(name, mime string, size int) Candidate {
	return Candidate{Name: name, MimeType: mime, Payload: bytes.Repeat([]byte{1}, size)}
}

func TestAdmissionPolicy_Evaluate(t *testing.T) {
	policy := NewAdmissionPolicy(AdmissionConfig{})

	tests := []struct {
		name         string
		current      int
		batch        []Candidate
		wantAdmitted int
		wantFormat   bool
		wantCapacity bool
		wantMessage  string
	}{
		{
			name:         "all valid and fits",
			current:      0,
			batch:        []Candidate{candidate("a.png", "image/png", 10), candidate("b.jpg", "image/jpeg", 10), candidate("c.png", "image/png", 500*1024)},
			wantAdmitted: 3,
		},
		{
			name:         "over capacity admits nothing even if a subset fits",
			current:      3,
			batch:        []Candidate{candidate("a.png", "image/png", 10), candidate("b.png", "image/png", 10), candidate("c.png", "image/png", 10)},
			wantAdmitted: 0,
			wantCapacity: true,
			wantMessage:  "You can only upload up to 5 images.",
		},
		{
			name:         "invalid members are dropped and reported",
			current:      1,
			batch:        []Candidate{candidate("a.png", "image/png", 10), candidate("b.gif", "image/gif", 10), candidate("big.png", "image/png", 500*1024+1)},
			wantAdmitted: 1,
			wantFormat:   true,
			wantMessage:  "Only JPG and PNG files under 500KB are allowed.",
		},
		{
			name:         "both diagnostics keep independent fields, format is reported last",
			current:      5,
			batch:        []Candidate{candidate("a.png", "image/png", 10), candidate("b.bmp", "image/bmp", 10)},
			wantAdmitted: 0,
			wantFormat:   true,
			wantCapacity: true,
			wantMessage:  "Only JPG and PNG files under 500KB are allowed.",
		},
		{
			name:         "mime parameters and case are normalized",
			current:      0,
			batch:        []Candidate{candidate("a.jpg", "IMAGE/JPEG; charset=binary", 10)},
			wantAdmitted: 1,
		},
		{
			name:         "empty payload is not an image",
			current:      0,
			batch:        []Candidate{candidate("empty.png", "image/png", 0)},
			wantAdmitted: 0,
			wantFormat:   true,
			wantMessage:  "Only JPG and PNG files under 500KB are allowed.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := policy.Evaluate(tc.current, tc.batch)

			if len(decision.Admitted) != tc.wantAdmitted {
				t.Fatalf("expected %d admitted, got %d", tc.wantAdmitted, len(decision.Admitted))
			}
			if (decision.FormatError != nil) != tc.wantFormat {
				t.Fatalf("format error = %v, want %v", decision.FormatError, tc.wantFormat)
			}
			if (decision.CapacityError != nil) != tc.wantCapacity {
				t.Fatalf("capacity error = %v, want %v", decision.CapacityError, tc.wantCapacity)
			}
			if decision.Accepted() == tc.wantCapacity {
				t.Fatalf("Accepted() inconsistent with capacity error")
			}
			if decision.Message() != tc.wantMessage {
				t.Fatalf("Message() = %q, want %q", decision.Message(), tc.wantMessage)
			}
		})
	}
}

func TestAdmissionPolicy_PreservesArrivalOrder(t *testing.T) {
	policy := NewAdmissionPolicy(AdmissionConfig{})
	batch := []Candidate{
		candidate("1.png", "image/png", 1),
		candidate("skip.txt", "text/plain", 1),
		candidate("2.jpg", "image/jpeg", 1),
		candidate("3.png", "image/png", 1),
	}

	decision := policy.Evaluate(0, batch)
	want := []string{"1.png", "2.jpg", "3.png"}
	for i, c := range decision.Admitted {
		if c.Name != want[i] {
			t.Fatalf("admitted[%d] = %s, want %s", i, c.Name, want[i])
		}
	}
}

func TestAdmissionDecision_Err(t *testing.T) {
	policy := NewAdmissionPolicy(AdmissionConfig{MaxImages: 1})
	decision := policy.Evaluate(1, []Candidate{candidate("a.png", "image/png", 1), candidate("b.gif", "image/gif", 1)})

	err := decision.Err()
	if err == nil {
		t.Fatalf("expected joined error")
	}
	var admissionErr *apperr.AdmissionError
	if !errors.As(err, &admissionErr) {
		t.Fatalf("expected AdmissionError inside joined error, got %v", err)
	}
	if admissionErr.Kind != apperr.AdmissionCapacity {
		t.Fatalf("expected capacity to be raised first, got %s", admissionErr.Kind)
	}

	if NewAdmissionPolicy(AdmissionConfig{}).Evaluate(0, nil).Err() != nil {
		t.Fatalf("expected nil error for empty batch")
	}
}

func TestAdmissionPolicy_ConfiguredWhitelistIgnoresUnsupportedTypes(t *testing.T) {
	policy := NewAdmissionPolicy(AdmissionConfig{
		MaxImages:     2,
		MaxImageBytes: 10,
		AllowedMimes:  []valueobject.MimeType{valueobject.PNG, "image/gif"},
	})

	if policy.IsValid(candidate("a.gif", "image/gif", 1)) {
		t.Fatalf("gif has no codec and must never be admitted")
	}
	if policy.IsValid(candidate("a.jpg", "image/jpeg", 1)) {
		t.Fatalf("jpeg is not in the configured whitelist")
	}
	if !policy.IsValid(candidate("a.png", "image/png", 10)) {
		t.Fatalf("png within size must be valid")
	}
	if policy.IsValid(candidate("a.png", "image/png", 11)) {
		t.Fatalf("png over size must be invalid")
	}
}
