package entity

import "encoding/json"

// PublishResult is the success payload of a publish call.
type PublishResult struct {
	PostID      string          `json:"postId"`
	URL         string          `json:"url,omitempty"`
	Platform    string          `json:"platform"`
	Type        PostType        `json:"type"`
	PublishedAt string          `json:"publishedAt"`
	Raw         json.RawMessage `json:"raw,omitempty"`
	RequestID   string          `json:"requestId"`
}

// ErrorResult is the failure payload of a publish call.
type ErrorResult struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Details   string          `json:"details,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
	RequestID string          `json:"requestId"`
}

// PreviewData is the payload of a preview call; Valid=false carries the
// validation errors instead of a top-level error envelope.
type PreviewData struct {
	Valid               bool     `json:"valid"`
	DetectedType        PostType `json:"detectedType,omitempty"`
	ConvertedBody       string   `json:"convertedBody,omitempty"`
	TargetFormat        string   `json:"targetFormat,omitempty"`
	ConvertedBodyLength int      `json:"convertedBodyLength,omitempty"`
	Errors              []string `json:"errors,omitempty"`
	Warnings            []string `json:"warnings"`
}

// Envelope is the single wire-level response shape: errors are data, the
// transport status is always OK. Data and Error are kept as raw JSON so a
// cached response replays byte-identically.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

func NewSuccessEnvelope(data interface{}) *Envelope {
	raw, _ := json.Marshal(data)
	return &Envelope{Success: true, Data: raw}
}

func NewErrorEnvelope(result *ErrorResult) *Envelope {
	raw, _ := json.Marshal(result)
	return &Envelope{Success: false, Error: raw}
}

// NewPreviewErrorEnvelope wraps an invalid preview; per contract the invalid
// payload still travels under "data".
func NewPreviewErrorEnvelope(data *PreviewData) *Envelope {
	raw, _ := json.Marshal(data)
	return &Envelope{Success: false, Data: raw}
}

// ReplayEnvelope rebuilds an envelope from its stored JSON form.
func ReplayEnvelope(raw []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// DecodeError extracts the error payload, or nil for successes.
func (e *Envelope) DecodeError() *ErrorResult {
	if e.Success || len(e.Error) == 0 {
		return nil
	}
	var result ErrorResult
	if err := json.Unmarshal(e.Error, &result); err != nil {
		return nil
	}
	return &result
}

// DecodePublishResult extracts the success payload, or nil for failures.
func (e *Envelope) DecodePublishResult() *PublishResult {
	if !e.Success || len(e.Data) == 0 {
		return nil
	}
	var result PublishResult
	if err := json.Unmarshal(e.Data, &result); err != nil {
		return nil
	}
	return &result
}
