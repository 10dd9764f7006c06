package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"postgate/internal/entity"
)

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *apiParameters  `json:"parameters"`
}

type apiParameters struct {
	RetryAfter int `json:"retry_after"`
}

// call performs one Bot API request. Transport failures come back retryable;
// API failures are mapped onto the error taxonomy by status code.
func (a *Adapter) call(ctx context.Context, token, method string, payload map[string]interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", a.baseURL, token, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			// Surface the deadline/cancel, not the wrapped transport error.
			return nil, ctx.Err()
		}
		return nil, entity.NewNetworkError(err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, entity.NewNetworkError(err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, entity.NewPlatformError(httpResp.StatusCode, "telegram returned a non-JSON response", respBody)
	}

	if !parsed.OK {
		status := parsed.ErrorCode
		if status == 0 {
			status = httpResp.StatusCode
		}
		appErr := entity.NewPlatformError(status, parsed.Description, respBody)
		if parsed.Parameters != nil && parsed.Parameters.RetryAfter > 0 {
			appErr.Details = fmt.Sprintf("retry after %ds", parsed.Parameters.RetryAfter)
		}
		return nil, appErr
	}

	return parsed.Result, nil
}

// firstMessageID handles both single-message results and the array that
// sendMediaGroup returns.
func firstMessageID(raw json.RawMessage) (int64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, fmt.Errorf("empty result")
	}

	type message struct {
		MessageID int64 `json:"message_id"`
	}

	if trimmed[0] == '[' {
		var messages []message
		if err := json.Unmarshal(trimmed, &messages); err != nil {
			return 0, err
		}
		if len(messages) == 0 {
			return 0, fmt.Errorf("empty message list")
		}
		return messages[0].MessageID, nil
	}

	var msg message
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return 0, err
	}
	if msg.MessageID == 0 {
		return 0, fmt.Errorf("missing message_id")
	}
	return msg.MessageID, nil
}
