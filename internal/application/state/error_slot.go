package state

import (
	"sync"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/apperr"
)

// ErrorSlot holds the admission diagnostics of the latest upload. Format and
// capacity are independent fields; last holds the kind raised last.
type ErrorSlot struct {
	mu       sync.RWMutex
	format   string
	capacity string
	last     string
}

func NewErrorSlot() *ErrorSlot {
	return &ErrorSlot{}
}

// Clear удаляет обе диагностики
func (s *ErrorSlot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.format, s.capacity, s.last = "", "", ""
}

// Raise records err under its kind; the latest raise becomes the message.
func (s *ErrorSlot) Raise(err *apperr.AdmissionError) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch err.Kind {
	case apperr.AdmissionFormat:
		s.format = err.Message
	case apperr.AdmissionCapacity:
		s.capacity = err.Message
	}
	s.last = err.Message
}

func (s *ErrorSlot) Snapshot() dto.AdmissionErrorsDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dto.AdmissionErrorsDTO{
		Format:   s.format,
		Capacity: s.capacity,
		Message:  s.last,
	}
}
