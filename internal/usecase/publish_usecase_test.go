package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"postgate/internal/account"
	"postgate/internal/entity"
	"postgate/internal/idempotency"
	"postgate/internal/platform"
	"postgate/pkg/config"
	"postgate/pkg/logger"
)

// MockAdapter is a mock implementation of platform.Adapter
type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) Name() string {
	return "telegram"
}

func (m *MockAdapter) Supports(postType entity.PostType) bool {
	args := m.Called(postType)
	return args.Bool(0)
}

func (m *MockAdapter) ValidateAuth(auth map[string]string) []string {
	args := m.Called(auth)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockAdapter) Validate(input *platform.PublishInput) ([]string, error) {
	args := m.Called(input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAdapter) Publish(ctx context.Context, input *platform.PublishInput) (*entity.PublishResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PublishResult), args.Error(1)
}

func (m *MockAdapter) Preview(input *platform.PublishInput) *entity.PreviewData {
	args := m.Called(input)
	return args.Get(0).(*entity.PreviewData)
}

var _ platform.Adapter = (*MockAdapter)(nil)

type fakeProvider struct{}

func (p *fakeProvider) GetAccount(name string) (*entity.AccountConfig, bool) {
	if name != "main" {
		return nil, false
	}
	return &entity.AccountConfig{
		Platform: "telegram",
		Auth:     map[string]string{"botToken": "123:abc", "chatId": "@c"},
	}, true
}

func testCommon() config.CommonConfig {
	return config.CommonConfig{
		RetryAttempts:         3,
		RetryDelayMs:          1,
		IdempotencyTTLMinutes: 10,
		RequestTimeoutSecs:    5,
	}
}

func newUseCase(adapter platform.Adapter, store idempotency.Store) PublishUseCase {
	log := logger.New()
	resolver := account.NewResolver(&fakeProvider{}, log)
	registry := platform.NewRegistry(adapter)
	return NewPublishUseCase(resolver, registry, store, testCommon(), log)
}

func publishRequest() *entity.PostRequest {
	return &entity.PostRequest{
		Platform: "telegram",
		Body:     "hello",
		Account:  "main",
	}
}

func TestPublish_Success(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("ValidateAuth", mock.Anything).Return(nil)
	adapter.On("Validate", mock.Anything).Return([]string{}, nil)
	adapter.On("Publish", mock.Anything, mock.Anything).Return(&entity.PublishResult{PostID: "100", URL: "https://t.me/c/100"}, nil)

	uc := newUseCase(adapter, idempotency.NewMemoryStore())
	envelope := uc.Publish(context.Background(), publishRequest())

	require.True(t, envelope.Success)
	result := envelope.DecodePublishResult()
	require.NotNil(t, result)
	assert.Equal(t, "100", result.PostID)
	assert.Equal(t, "telegram", result.Platform)
	assert.Equal(t, entity.TypePost, result.Type)
	assert.NotEmpty(t, result.RequestID)
	assert.NotEmpty(t, result.PublishedAt)

	_, err := time.Parse(time.RFC3339, result.PublishedAt)
	assert.NoError(t, err, "publishedAt must be ISO-8601")
}

// With type omitted the adapter must receive the media-implied type and the
// suppressed-field warnings.
func TestPublish_AutoDetectsTypeAndWarns(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("ValidateAuth", mock.Anything).Return(nil)

	var captured *platform.PublishInput
	adapter.On("Validate", mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(0).(*platform.PublishInput)
	}).Return([]string{}, nil)
	adapter.On("Publish", mock.Anything, mock.Anything).Return(&entity.PublishResult{PostID: "1"}, nil)

	req := publishRequest()
	req.Audio = &entity.MediaSlot{URL: "https://x/a.mp3"}
	req.Video = &entity.MediaSlot{URL: "https://x/v.mp4"}

	envelope := newUseCase(adapter, idempotency.NewMemoryStore()).Publish(context.Background(), req)
	require.True(t, envelope.Success)

	require.NotNil(t, captured)
	assert.Equal(t, entity.TypeAudio, captured.Type, "audio outranks video")
	require.Len(t, captured.Warnings, 1)
	assert.Contains(t, captured.Warnings[0], "video")
}

func TestPublish_ValidationErrorBypassesDispatch(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("ValidateAuth", mock.Anything).Return(nil)
	adapter.On("Validate", mock.Anything).Return(nil, entity.NewValidationError("type image requires cover"))

	req := publishRequest()
	req.Type = entity.TypeImage

	envelope := newUseCase(adapter, idempotency.NewMemoryStore()).Publish(context.Background(), req)

	require.False(t, envelope.Success)
	result := envelope.DecodeError()
	require.NotNil(t, result)
	assert.Equal(t, entity.CodeValidation, result.Code)
	assert.Contains(t, result.Message, "cover")
	adapter.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestPublish_UnsupportedPlatform(t *testing.T) {
	adapter := new(MockAdapter)

	req := publishRequest()
	req.Platform = "friendster"

	envelope := newUseCase(adapter, idempotency.NewMemoryStore()).Publish(context.Background(), req)

	require.False(t, envelope.Success)
	assert.Equal(t, entity.CodeValidation, envelope.DecodeError().Code)
	assert.Contains(t, envelope.DecodeError().Message, "friendster")
}

func TestPublish_UnknownAccount(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("ValidateAuth", mock.Anything).Return(nil)

	req := publishRequest()
	req.Account = "ghost"

	envelope := newUseCase(adapter, idempotency.NewMemoryStore()).Publish(context.Background(), req)

	require.False(t, envelope.Success)
	assert.Equal(t, entity.CodeValidation, envelope.DecodeError().Code)
	assert.Contains(t, envelope.DecodeError().Message, "ghost")
	adapter.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

// A second identical request replays the cached response; the adapter is
// invoked exactly once.
func TestPublish_IdempotentDuplicate(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("ValidateAuth", mock.Anything).Return(nil)
	adapter.On("Validate", mock.Anything).Return([]string{}, nil)
	adapter.On("Publish", mock.Anything, mock.Anything).Return(&entity.PublishResult{PostID: "100"}, nil).Once()

	uc := newUseCase(adapter, idempotency.NewMemoryStore())

	first := publishRequest()
	first.IdempotencyKey = "k1"
	firstEnvelope := uc.Publish(context.Background(), first)
	require.True(t, firstEnvelope.Success)
	assert.Equal(t, "100", firstEnvelope.DecodePublishResult().PostID)

	second := publishRequest()
	second.IdempotencyKey = "k1"
	secondEnvelope := uc.Publish(context.Background(), second)
	require.True(t, secondEnvelope.Success)
	assert.Equal(t, "100", secondEnvelope.DecodePublishResult().PostID)
	assert.Equal(t, firstEnvelope.DecodePublishResult().RequestID, secondEnvelope.DecodePublishResult().RequestID,
		"the cached response is replayed verbatim")

	adapter.AssertNumberOfCalls(t, "Publish", 1)
}

func TestPublish_ReplayIsVerbatim(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("ValidateAuth", mock.Anything).Return(nil)
	adapter.On("Validate", mock.Anything).Return([]string{}, nil)
	adapter.On("Publish", mock.Anything, mock.Anything).Return(&entity.PublishResult{PostID: "100"}, nil).Once()

	uc := newUseCase(adapter, idempotency.NewMemoryStore())

	first := publishRequest()
	first.IdempotencyKey = "k1"
	firstBytes, err := json.Marshal(uc.Publish(context.Background(), first))
	require.NoError(t, err)

	second := publishRequest()
	second.IdempotencyKey = "k1"
	secondBytes, err := json.Marshal(uc.Publish(context.Background(), second))
	require.NoError(t, err)

	assert.Equal(t, firstBytes, secondBytes)
}

func TestPublish_ConflictWhileProcessing(t *testing.T) {
	adapter := new(MockAdapter)
	store := idempotency.NewMemoryStore()
	uc := newUseCase(adapter, store)

	req := publishRequest()
	req.IdempotencyKey = "k1"

	// Simulate the first request still being in flight.
	req.Normalize()
	key := idempotency.BuildKey(req)
	held, err := store.TryAcquire(context.Background(), key, time.Minute)
	require.NoError(t, err)
	require.True(t, held.Acquired)

	envelope := uc.Publish(context.Background(), req)

	require.False(t, envelope.Success)
	assert.Equal(t, entity.CodeConflict, envelope.DecodeError().Code)
	adapter.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)

	// The conflicting call must not complete a lock it never held.
	after, err := store.TryAcquire(context.Background(), key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, idempotency.StatusProcessing, after.Status)
}

// Error outcomes are cached exactly like successes.
func TestPublish_ErrorResponseIsCached(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("ValidateAuth", mock.Anything).Return(nil)
	adapter.On("Validate", mock.Anything).Return([]string{}, nil)
	adapter.On("Publish", mock.Anything, mock.Anything).Return(nil, entity.NewPlatformError(400, "chat not found", nil)).Once()

	uc := newUseCase(adapter, idempotency.NewMemoryStore())

	req := publishRequest()
	req.IdempotencyKey = "k1"
	first := uc.Publish(context.Background(), req)
	require.False(t, first.Success)

	repeat := publishRequest()
	repeat.IdempotencyKey = "k1"
	second := uc.Publish(context.Background(), repeat)
	require.False(t, second.Success)
	assert.Equal(t, first.DecodeError().RequestID, second.DecodeError().RequestID)

	adapter.AssertNumberOfCalls(t, "Publish", 1)
}

// Same idempotencyKey, different payload: two distinct keys, two dispatches.
func TestPublish_PayloadSensitivity(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("ValidateAuth", mock.Anything).Return(nil)
	adapter.On("Validate", mock.Anything).Return([]string{}, nil)
	adapter.On("Publish", mock.Anything, mock.Anything).Return(&entity.PublishResult{PostID: "1"}, nil)

	uc := newUseCase(adapter, idempotency.NewMemoryStore())

	first := publishRequest()
	first.IdempotencyKey = "k1"
	uc.Publish(context.Background(), first)

	second := publishRequest()
	second.IdempotencyKey = "k1"
	second.Body = "different body"
	uc.Publish(context.Background(), second)

	adapter.AssertNumberOfCalls(t, "Publish", 2)
}

func TestPublish_RetriesTransientFailures(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("ValidateAuth", mock.Anything).Return(nil)
	adapter.On("Validate", mock.Anything).Return([]string{}, nil)
	adapter.On("Publish", mock.Anything, mock.Anything).Return(nil, entity.NewPlatformError(502, "bad gateway", nil)).Twice()
	adapter.On("Publish", mock.Anything, mock.Anything).Return(&entity.PublishResult{PostID: "3"}, nil).Once()

	envelope := newUseCase(adapter, idempotency.NewMemoryStore()).Publish(context.Background(), publishRequest())

	require.True(t, envelope.Success)
	assert.Equal(t, "3", envelope.DecodePublishResult().PostID)
	adapter.AssertNumberOfCalls(t, "Publish", 3)
}

func TestPublish_ExhaustedRetriesBecomeEnvelope(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("ValidateAuth", mock.Anything).Return(nil)
	adapter.On("Validate", mock.Anything).Return([]string{}, nil)
	adapter.On("Publish", mock.Anything, mock.Anything).Return(nil, entity.NewPlatformError(429, "slow down", nil))

	envelope := newUseCase(adapter, idempotency.NewMemoryStore()).Publish(context.Background(), publishRequest())

	require.False(t, envelope.Success)
	assert.Equal(t, entity.CodeRateLimit, envelope.DecodeError().Code)
	adapter.AssertNumberOfCalls(t, "Publish", 3)
}

func TestPreview_Valid(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("Validate", mock.Anything).Return([]string{"telegram ignores tags"}, nil)
	adapter.On("Preview", mock.Anything).Return(&entity.PreviewData{
		Valid:               true,
		DetectedType:        entity.TypePost,
		ConvertedBody:       "hello",
		TargetFormat:        "none",
		ConvertedBodyLength: 5,
	})

	req := publishRequest()
	req.Tags = []string{"x"}
	envelope := newUseCase(adapter, idempotency.NewMemoryStore()).Preview(context.Background(), req)

	require.True(t, envelope.Success)

	var data entity.PreviewData
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.True(t, data.Valid)
	assert.Equal(t, entity.TypePost, data.DetectedType)
	assert.Equal(t, []string{"telegram ignores tags"}, data.Warnings)
}

func TestPreview_InvalidNeverThrows(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("Validate", mock.Anything).Return(nil, entity.NewValidationError("type image requires cover"))

	req := publishRequest()
	req.Type = entity.TypeImage
	envelope := newUseCase(adapter, idempotency.NewMemoryStore()).Preview(context.Background(), req)

	require.False(t, envelope.Success)

	var data entity.PreviewData
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.False(t, data.Valid)
	require.Len(t, data.Errors, 1)
	assert.Contains(t, data.Errors[0], "cover")
	assert.NotNil(t, data.Warnings)
}
