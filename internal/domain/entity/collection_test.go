package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/apperr"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/valueobject"
)

func mustAsset(t *testing.T, name string) *ImageAsset {
	t.Helper()
	asset, err := NewImageAsset(name, valueobject.PNG, []byte(name))
	if err != nil {
		t.Fatalf("NewImageAsset() error = %v", err)
	}
	return asset
}

func names(c *Collection) []string {
	out := make([]string, 0, c.Len())
	for _, a := range c.List() {
		out = append(out, a.Name())
	}
	return out
}

func equalNames(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestCollection_InsertAllOrNothing(t *testing.T) {
	c := NewCollection(5)
	if err := c.Insert(mustAsset(t, "a"), mustAsset(t, "b"), mustAsset(t, "c")); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	err := c.Insert(mustAsset(t, "d"), mustAsset(t, "e"), mustAsset(t, "f"))
	if err == nil {
		t.Fatalf("expected capacity error")
	}
	var admissionErr *apperr.AdmissionError
	if !errors.As(err, &admissionErr) || admissionErr.Kind != apperr.AdmissionCapacity {
		t.Fatalf("expected capacity AdmissionError, got %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("expected collection unchanged, got len %d", c.Len())
	}

	if err := c.Insert(mustAsset(t, "d"), mustAsset(t, "e")); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if !equalNames(names(c), []string{"a", "b", "c", "d", "e"}) {
		t.Fatalf("unexpected order: %v", names(c))
	}
	if c.Remaining() != 0 {
		t.Fatalf("expected full collection")
	}
}

func TestCollection_DeleteAtPreservesOrder(t *testing.T) {
	c := NewCollection(5)
	_ = c.Insert(mustAsset(t, "a"), mustAsset(t, "b"), mustAsset(t, "c"), mustAsset(t, "d"))

	tests := []struct {
		index int
		want  []string
	}{
		{index: 1, want: []string{"a", "c", "d"}},
		{index: 2, want: []string{"a", "c"}},
		{index: 0, want: []string{"c"}},
	}

	for _, tc := range tests {
		before := c.Len()
		if _, err := c.DeleteAt(tc.index); err != nil {
			t.Fatalf("DeleteAt(%d) error = %v", tc.index, err)
		}
		if c.Len() != before-1 {
			t.Fatalf("expected len %d, got %d", before-1, c.Len())
		}
		if !equalNames(names(c), tc.want) {
			t.Fatalf("DeleteAt(%d): got %v, want %v", tc.index, names(c), tc.want)
		}
	}

	for _, bad := range []int{-1, 1, 10} {
		if _, err := c.DeleteAt(bad); !errors.Is(err, apperr.ErrIndexOutOfRange) {
			t.Fatalf("DeleteAt(%d): expected ErrIndexOutOfRange, got %v", bad, err)
		}
	}
}

func TestCollection_ReplaceAtChecksExpectedID(t *testing.T) {
	c := NewCollection(5)
	a, b := mustAsset(t, "a"), mustAsset(t, "b")
	_ = c.Insert(a, b)

	replacement := mustAsset(t, "a2")
	if _, err := c.ReplaceAt(0, b.ID(), replacement); !errors.Is(err, apperr.ErrStaleAsset) {
		t.Fatalf("expected ErrStaleAsset, got %v", err)
	}

	previous, err := c.ReplaceAt(0, a.ID(), replacement)
	if err != nil {
		t.Fatalf("ReplaceAt() error = %v", err)
	}
	if previous.ID() != a.ID() {
		t.Fatalf("expected previous to be a")
	}
	if !equalNames(names(c), []string{"a2", "b"}) {
		t.Fatalf("unexpected contents: %v", names(c))
	}
}

func TestCollection_ResetTruncatesToCapacity(t *testing.T) {
	c := NewCollection(2)
	dropped := c.Reset([]*ImageAsset{mustAsset(t, "a"), nil, mustAsset(t, "b"), mustAsset(t, "c")})
	if dropped != 1 {
		t.Fatalf("expected 1 dropped, got %d", dropped)
	}
	if !equalNames(names(c), []string{"a", "b"}) {
		t.Fatalf("unexpected contents: %v", names(c))
	}
}

func TestImageAsset_Immutable(t *testing.T) {
	payload := []byte{1, 2, 3}
	asset, err := NewImageAsset("  cat.png ", valueobject.PNG, payload)
	if err != nil {
		t.Fatalf("NewImageAsset() error = %v", err)
	}
	payload[0] = 9
	got := asset.Payload()
	got[1] = 9

	if asset.Payload()[0] != 1 || asset.Payload()[1] != 2 {
		t.Fatalf("asset payload was mutated from outside")
	}
	if asset.Name() != "cat.png" {
		t.Fatalf("expected trimmed name, got %q", asset.Name())
	}
	if asset.SizeBytes() != 3 {
		t.Fatalf("expected size 3, got %d", asset.SizeBytes())
	}

	next, err := asset.WithPayload([]byte{4, 5})
	if err != nil {
		t.Fatalf("WithPayload() error = %v", err)
	}
	if next.ID() == asset.ID() || next.Name() != asset.Name() || next.MimeType() != asset.MimeType() {
		t.Fatalf("successor must keep name and mime but get a new id")
	}

	if _, err := NewImageAsset("x.gif", valueobject.MimeType("image/gif"), payload); err == nil {
		t.Fatalf("expected unsupported mime error")
	}
}

func TestReconstruct_MetadataOnly(t *testing.T) {
	asset := Reconstruct("id-1", "a.png", valueobject.PNG, nil, 1234, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	if asset.HasPayload() {
		t.Fatalf("expected no payload")
	}
	if asset.SizeBytes() != 1234 {
		t.Fatalf("expected persisted size to survive, got %d", asset.SizeBytes())
	}
}
