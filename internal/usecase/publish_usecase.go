package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"postgate/internal/account"
	"postgate/internal/entity"
	"postgate/internal/idempotency"
	"postgate/internal/media"
	"postgate/internal/platform"
	"postgate/pkg/config"
	"postgate/pkg/logger"
)

// PublishUseCase is the top-level orchestrator. It never returns an error:
// every outcome, including exhausted retries and timeouts, is an envelope.
type PublishUseCase interface {
	Publish(ctx context.Context, req *entity.PostRequest) *entity.Envelope
	Preview(ctx context.Context, req *entity.PostRequest) *entity.Envelope
}

type publishUseCase struct {
	resolver *account.Resolver
	registry *platform.Registry
	store    idempotency.Store
	common   config.CommonConfig
	logger   *logger.Logger
}

func NewPublishUseCase(
	resolver *account.Resolver,
	registry *platform.Registry,
	store idempotency.Store,
	common config.CommonConfig,
	logger *logger.Logger,
) PublishUseCase {
	return &publishUseCase{
		resolver: resolver,
		registry: registry,
		store:    store,
		common:   common,
		logger:   logger,
	}
}

// Publish runs the pipeline: idempotency check, account resolution, type
// detection, retry-wrapped dispatch, then finalization.
func (uc *publishUseCase) Publish(ctx context.Context, req *entity.PostRequest) *entity.Envelope {
	requestID := uuid.New().String()
	req.Normalize()

	key := idempotency.BuildKey(req)
	ttl := time.Duration(uc.common.IdempotencyTTLMinutes) * time.Minute
	acquired := false

	if key != "" {
		acquisition, err := uc.store.TryAcquire(ctx, key, ttl)
		switch {
		case err != nil:
			// Best-effort: a failing store must never fail the publish.
			uc.logger.Warn("idempotency acquire failed, proceeding without: %v", err)
		case acquisition.Acquired:
			acquired = true
		case acquisition.Status == idempotency.StatusCompleted && len(acquisition.Response) > 0:
			replayed, replayErr := entity.ReplayEnvelope(acquisition.Response)
			if replayErr == nil {
				uc.logger.Info("idempotency hit, replaying cached response (request %s)", requestID)
				return replayed
			}
			uc.logger.Warn("cached idempotency response corrupted, proceeding: %v", replayErr)
			acquired = true
		default:
			return entity.NewErrorEnvelope(&entity.ErrorResult{
				Code:      entity.CodeConflict,
				Message:   "a request with this idempotency key is already being processed",
				RequestID: requestID,
			})
		}
	}

	envelope := uc.execute(ctx, req, requestID)

	// Only the call that actually holds the processing record may complete
	// it; conflicts and cache replays above returned before this point.
	if acquired {
		raw, err := json.Marshal(envelope)
		if err == nil {
			err = uc.store.Complete(ctx, key, raw, ttl)
		}
		if err != nil {
			uc.logger.Warn("idempotency complete failed: %v", err)
		}
	}
	return envelope
}

func (uc *publishUseCase) execute(ctx context.Context, req *entity.PostRequest, requestID string) *entity.Envelope {
	adapter, ok := uc.registry.Get(req.Platform)
	if !ok {
		return uc.errorEnvelope(entity.NewValidationError("unsupported platform %q", req.Platform), requestID)
	}

	resolved, err := uc.resolver.Resolve(req, adapter)
	if err != nil {
		return uc.errorEnvelope(err, requestID)
	}

	input := &platform.PublishInput{Request: req, Account: resolved}
	input.Type, input.Warnings = uc.effectiveType(req)

	warnings, err := adapter.Validate(input)
	if err != nil {
		return uc.errorEnvelope(err, requestID)
	}
	for _, warning := range warnings {
		uc.logger.Warn("request %s: %s", requestID, warning)
	}

	retr := newRetrier(RetryOptions{
		MaxAttempts:     uc.common.RetryAttempts,
		BaseDelay:       time.Duration(uc.common.RetryDelayMs) * time.Millisecond,
		RequestTimeout:  time.Duration(uc.common.RequestTimeoutSecs) * time.Second,
		ProviderTimeout: time.Duration(uc.common.ProviderTimeoutSecs) * time.Second,
	}, uc.logger)

	result, err := retr.Do(ctx, func(attemptCtx context.Context) (*entity.PublishResult, error) {
		return adapter.Publish(attemptCtx, input)
	})
	if err != nil {
		return uc.errorEnvelope(err, requestID)
	}

	result.Platform = adapter.Name()
	result.Type = input.Type
	result.PublishedAt = time.Now().UTC().Format(time.RFC3339)
	result.RequestID = requestID
	return entity.NewSuccessEnvelope(result)
}

// Preview validates without side effects; it reuses the exact type detection
// the publish path uses, so its output matches what publish would send. It
// never raises: invalid requests come back as valid=false payloads.
func (uc *publishUseCase) Preview(_ context.Context, req *entity.PostRequest) *entity.Envelope {
	req.Normalize()

	adapter, ok := uc.registry.Get(req.Platform)
	if !ok {
		return entity.NewPreviewErrorEnvelope(&entity.PreviewData{
			Errors:   []string{"unsupported platform \"" + req.Platform + "\""},
			Warnings: []string{},
		})
	}

	input := &platform.PublishInput{Request: req}
	input.Type, input.Warnings = uc.effectiveType(req)

	warnings, err := adapter.Validate(input)
	if warnings == nil {
		warnings = []string{}
	}
	if err != nil {
		return entity.NewPreviewErrorEnvelope(&entity.PreviewData{
			Errors:   []string{entity.Classify(err).Message},
			Warnings: warnings,
		})
	}

	data := adapter.Preview(input)
	data.Warnings = warnings
	return entity.NewSuccessEnvelope(data)
}

// effectiveType resolves auto to the media-implied type; an explicit type is
// taken as-is with no suppression warnings.
func (uc *publishUseCase) effectiveType(req *entity.PostRequest) (entity.PostType, []string) {
	if req.Type != entity.TypeAuto {
		return req.Type, nil
	}
	detected, suppressed := media.ResolveType(req)
	warnings := make([]string, 0, len(suppressed))
	for _, field := range suppressed {
		warnings = append(warnings, field+" is ignored: a higher-priority media field determines the post type")
	}
	return detected, warnings
}

func (uc *publishUseCase) errorEnvelope(err error, requestID string) *entity.Envelope {
	appErr := entity.Classify(err)
	uc.logger.Error("request %s failed: %v", requestID, appErr)
	return entity.NewErrorEnvelope(&entity.ErrorResult{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		Raw:       appErr.Raw,
		RequestID: requestID,
	})
}
