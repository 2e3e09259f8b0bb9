package usecase

import (
	"context"
	"fmt"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/dto"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/state"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/entity"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/service"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/domain/valueobject"
	"github.com/AlirezaQolamian-dev/img-uploader/pkg/logger"
)

const (
	admissionAccepted = "accepted"
	admissionPartial  = "partial"
	admissionRejected = "rejected"
	admissionEmpty    = "empty"
)

// AddImagesCommand is one candidate batch (picker selection or drop).
type AddImagesCommand struct {
	Candidates []service.Candidate
}

// AddImagesUseCase применяет правила допуска и добавляет изображения (Admission Controller)
type AddImagesUseCase struct {
	store         *CollectionStore
	policy        *service.AdmissionPolicy
	errors        *state.ErrorSlot
	notifications *state.NotificationSlot
	gallery       galleryBroadcaster
	events        *EventEmitter
	metrics       port.GalleryMetrics
	logger        *logger.Logger
}

func NewAddImagesUseCase(
	store *CollectionStore,
	policy *service.AdmissionPolicy,
	errors *state.ErrorSlot,
	notifications *state.NotificationSlot,
	gallery galleryBroadcaster,
	events *EventEmitter,
	metrics port.GalleryMetrics,
	logger *logger.Logger,
) *AddImagesUseCase {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &AddImagesUseCase{
		store:         store,
		policy:        policy,
		errors:        errors,
		notifications: notifications,
		gallery:       gallery,
		events:        events,
		metrics:       metrics,
		logger:        logger,
	}
}

// Execute evaluates the batch against the current count and commits the
// admitted images. Admission diagnostics are not Go errors: they are
// reported in the result and in the error slot. An error is returned only
// when the store refused the commit.
func (uc *AddImagesUseCase) Execute(ctx context.Context, cmd AddImagesCommand) (*dto.AddImagesResultDTO, error) {
	if len(cmd.Candidates) == 0 {
		uc.metrics.ObserveAdmission(admissionEmpty, 0, 0)
		return &dto.AddImagesResultDTO{Accepted: true, Errors: uc.errors.Snapshot()}, nil
	}

	// 1. Решение о допуске
	decision := uc.policy.Evaluate(uc.store.Len(), cmd.Candidates)

	// 2. Материализуем assets в порядке поступления
	assets := make([]*entity.ImageAsset, 0, len(decision.Admitted))
	for _, candidate := range decision.Admitted {
		asset, err := entity.NewImageAsset(candidate.Name, valueobject.ParseMimeType(candidate.MimeType), candidate.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to create image %q: %w", candidate.Name, err)
		}
		assets = append(assets, asset)
	}

	// 3. Коммит. Между Evaluate и Insert могла пройти другая мутация;
	// Insert повторно проверяет емкость, и тогда это ошибка емкости.
	start := 0
	if len(assets) > 0 {
		var err error
		if start, err = uc.store.Insert(ctx, assets...); err != nil {
			capacityErr, ok := asAdmissionError(err)
			if !ok {
				return nil, fmt.Errorf("failed to insert images: %w", err)
			}
			decision.Admitted = nil
			decision.CapacityError = capacityErr
			assets = nil
		}
	}

	// 4. Диагностика: сначала очищаем, потом capacity, потом format
	uc.errors.Clear()
	uc.errors.Raise(decision.CapacityError)
	uc.errors.Raise(decision.FormatError)

	result := &dto.AddImagesResultDTO{
		Admitted: make([]*dto.ImageDTO, 0, len(assets)),
		Accepted: decision.CapacityError == nil,
		Errors:   uc.errors.Snapshot(),
	}
	for _, rejected := range decision.Invalid {
		result.Rejected = append(result.Rejected, rejected.Name)
	}

	if len(assets) > 0 {
		for i, asset := range assets {
			result.Admitted = append(result.Admitted, dto.FromAsset(start+i, asset))
		}

		result.Message = fmt.Sprintf("%d images uploaded successfully.", len(assets))
		uc.notifications.Emit(result.Message, valueobject.SeveritySuccess)

		ids := make([]string, len(assets))
		for i, asset := range assets {
			ids[i] = asset.ID()
		}
		uc.events.Emit(ctx, port.GalleryEvent{
			Type:     port.EventImageAdded,
			AssetIDs: ids,
			Index:    start,
			Count:    len(assets),
		})
	}

	uc.metrics.ObserveAdmission(admissionOutcome(decision), len(assets), len(decision.Invalid))
	uc.logger.Info("Image batch evaluated",
		"offered", len(cmd.Candidates),
		"admitted", len(assets),
		"rejected", len(decision.Invalid),
		"capacity_refused", decision.CapacityError != nil,
	)

	broadcast(uc.gallery)
	return result, nil
}

func admissionOutcome(d service.AdmissionDecision) string {
	switch {
	case d.CapacityError != nil:
		return admissionRejected
	case d.FormatError != nil:
		return admissionPartial
	default:
		return admissionAccepted
	}
}
