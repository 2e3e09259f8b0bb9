package service

import (
	"errors"
	"fmt"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/apperr"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/entity"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/valueobject"
)

const DefaultMaxImageBytes int64 = 500 * 1024

// Candidate is a file offered for admission (picker or drag-drop).
type Candidate struct {
	Name     string
	MimeType string
	// Size is the declared size; when Payload is present its length wins.
	Size    int64
	Payload []byte
}

// ByteSize returns the size admission is judged on.
func (c Candidate) ByteSize() int64 {
	if c.Payload != nil {
		return int64(len(c.Payload))
	}
	return c.Size
}

// AdmissionDecision результат проверки пакета кандидатов.
// FormatError и CapacityError независимы: могут быть установлены оба.
type AdmissionDecision struct {
	Valid         []Candidate
	Invalid       []Candidate
	Admitted      []Candidate
	FormatError   *apperr.AdmissionError
	CapacityError *apperr.AdmissionError
}

// Accepted reports whether the batch passed the capacity gate.
func (d AdmissionDecision) Accepted() bool {
	return d.CapacityError == nil
}

// Message returns the single diagnostic line a one-slot presentation would
// show: the format diagnostic is raised last, so it wins over capacity.
func (d AdmissionDecision) Message() string {
	if d.FormatError != nil {
		return d.FormatError.Message
	}
	if d.CapacityError != nil {
		return d.CapacityError.Message
	}
	return ""
}

// Err joins the raised diagnostics in the order they were raised.
func (d AdmissionDecision) Err() error {
	var errs []error
	if d.CapacityError != nil {
		errs = append(errs, d.CapacityError)
	}
	if d.FormatError != nil {
		errs = append(errs, d.FormatError)
	}
	return errors.Join(errs...)
}

type AdmissionConfig struct {
	MaxImages     int
	MaxImageBytes int64
	AllowedMimes  []valueobject.MimeType
}

// AdmissionPolicy проверяет кандидатов (Domain Service)
type AdmissionPolicy struct {
	maxImages     int
	maxImageBytes int64
	allowed       map[valueobject.MimeType]struct{}
}

func NewAdmissionPolicy(cfg AdmissionConfig) *AdmissionPolicy {
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = entity.DefaultCapacity
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}
	if len(cfg.AllowedMimes) == 0 {
		cfg.AllowedMimes = valueobject.AllMimeTypes()
	}

	allowed := make(map[valueobject.MimeType]struct{}, len(cfg.AllowedMimes))
	for _, mime := range cfg.AllowedMimes {
		// Только типы, для которых есть кодек
		if mime.Validate() == nil {
			allowed[mime] = struct{}{}
		}
	}

	return &AdmissionPolicy{
		maxImages:     cfg.MaxImages,
		maxImageBytes: cfg.MaxImageBytes,
		allowed:       allowed,
	}
}

func (p *AdmissionPolicy) MaxImages() int {
	return p.maxImages
}

// IsValid is the per-file admission predicate: whitelisted mime and size cap.
func (p *AdmissionPolicy) IsValid(c Candidate) bool {
	if _, ok := p.allowed[valueobject.ParseMimeType(c.MimeType)]; !ok {
		return false
	}
	size := c.ByteSize()
	return size > 0 && size <= p.maxImageBytes
}

// Evaluate partitions batch and applies the all-or-nothing capacity rule:
// either every valid candidate is admitted or none is.
func (p *AdmissionPolicy) Evaluate(currentCount int, batch []Candidate) AdmissionDecision {
	var decision AdmissionDecision

	for _, candidate := range batch {
		if p.IsValid(candidate) {
			decision.Valid = append(decision.Valid, candidate)
		} else {
			decision.Invalid = append(decision.Invalid, candidate)
		}
	}

	if currentCount+len(decision.Valid) <= p.maxImages {
		decision.Admitted = decision.Valid
	} else {
		decision.CapacityError = &apperr.AdmissionError{
			Kind:    apperr.AdmissionCapacity,
			Message: fmt.Sprintf("You can only upload up to %d images.", p.maxImages),
		}
	}

	if len(decision.Invalid) > 0 {
		decision.FormatError = &apperr.AdmissionError{
			Kind:    apperr.AdmissionFormat,
			Message: p.formatMessage(),
		}
	}

	return decision
}

func (p *AdmissionPolicy) formatMessage() string {
	return fmt.Sprintf("Only JPG and PNG files under %dKB are allowed.", p.maxImageBytes/1024)
}
