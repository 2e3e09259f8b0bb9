package usecase

import (
	"errors"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/apperr"
)

func asAdmissionError(err error) (*apperr.AdmissionError, bool) {
	var admissionErr *apperr.AdmissionError
	if errors.As(err, &admissionErr) {
		return admissionErr, true
	}
	return nil, false
}

// galleryBroadcaster pushes the gallery state after a mutation.
type galleryBroadcaster interface {
	Broadcast()
}

func broadcast(g galleryBroadcaster) {
	if g != nil {
		g.Broadcast()
	}
}
