// Package telegram implements the Telegram platform adapter: structural
// validation, type detection support, content mapping and the outbound Bot
// API calls.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"postgate/internal/convert"
	"postgate/internal/entity"
	"postgate/internal/media"
	"postgate/internal/platform"
	"postgate/pkg/logger"
)

const (
	defaultBaseURL = "https://api.telegram.org"

	// Telegram message limits. Captions on media posts are shorter than
	// plain text messages.
	maxBodyText    = 4096
	maxBodyCaption = 1024
)

var supportedTypes = map[entity.PostType]struct{}{
	entity.TypePost:     {},
	entity.TypeImage:    {},
	entity.TypeVideo:    {},
	entity.TypeAudio:    {},
	entity.TypeDocument: {},
	entity.TypeAlbum:    {},
}

// Fields the platform has no slot for; their presence is a warning, not an
// error.
var ignoredFields = []string{"title", "description", "tags", "postLanguage", "mode", "scheduledAt"}

// Config carries the adapter wiring; zero values fall back to the real Bot
// API endpoint and a timeout-free client (timeouts come from the caller's
// context).
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

type Adapter struct {
	baseURL   string
	client    *http.Client
	converter *convert.Converter
	logger    *logger.Logger
}

func New(cfg Config, converter *convert.Converter, log *logger.Logger) *Adapter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Adapter{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		converter: converter,
		logger:    log,
	}
}

func (a *Adapter) Name() string { return "telegram" }

func (a *Adapter) Supports(postType entity.PostType) bool {
	_, ok := supportedTypes[postType]
	return ok
}

func (a *Adapter) ValidateAuth(auth map[string]string) []string {
	var missing []string
	if auth["botToken"] == "" {
		missing = append(missing, "botToken is required")
	}
	return missing
}

// Validate applies the platform rules in order: supported type, type-specific
// required fields, media URL shape, then the non-blocking warnings.
func (a *Adapter) Validate(input *platform.PublishInput) ([]string, error) {
	req := input.Request

	if !a.Supports(input.Type) {
		return nil, entity.NewValidationError("telegram does not support post type %q", input.Type)
	}

	if err := a.validateRequiredMedia(input.Type, req); err != nil {
		return nil, err
	}

	if input.Account != nil && chatTarget(input.Account) == "" {
		return nil, entity.NewValidationError("chat target is required: set auth.chatId or the account channelId")
	}

	for _, slot := range presentSlots(req) {
		if err := media.ValidateURL(slot.value); err != nil {
			return nil, entity.NewValidationError("%s: %v", slot.name, err)
		}
	}

	if limit := a.bodyLimit(input); utf8.RuneCountInString(req.Body) > limit {
		return nil, entity.NewValidationError("body exceeds the %d character limit for type %s", limit, input.Type)
	}

	warnings := append([]string(nil), input.Warnings...)
	for _, field := range ignoredFields {
		if fieldPresent(req, field) {
			warnings = append(warnings, fmt.Sprintf("telegram ignores %s", field))
		}
	}
	return warnings, nil
}

func (a *Adapter) validateRequiredMedia(postType entity.PostType, req *entity.PostRequest) error {
	switch postType {
	case entity.TypePost:
		if req.HasAnyMedia() {
			return entity.NewValidationError("type post does not accept media fields")
		}
	case entity.TypeImage:
		if req.Cover == nil {
			return entity.NewValidationError("type image requires cover")
		}
	case entity.TypeVideo:
		if req.Video == nil {
			return entity.NewValidationError("type video requires video")
		}
	case entity.TypeAudio:
		if req.Audio == nil {
			return entity.NewValidationError("type audio requires audio")
		}
	case entity.TypeDocument:
		if req.Document == nil {
			return entity.NewValidationError("type document requires document")
		}
	case entity.TypeAlbum:
		if len(req.Media) == 0 {
			return entity.NewValidationError("type album requires a non-empty media list")
		}
	}
	return nil
}

func (a *Adapter) Publish(ctx context.Context, input *platform.PublishInput) (*entity.PublishResult, error) {
	token := input.Account.Auth["botToken"]
	chatID := chatTarget(input.Account)

	method, payload := a.buildPayload(input, chatID)
	a.logger.Info("telegram: %s to %s (type %s)", method, chatID, input.Type)

	raw, err := a.call(ctx, token, method, payload)
	if err != nil {
		return nil, err
	}

	messageID, err := firstMessageID(raw)
	if err != nil {
		return nil, &entity.AppError{Code: entity.CodePlatform, Message: fmt.Sprintf("unexpected telegram response: %v", err), Raw: raw}
	}

	return &entity.PublishResult{
		PostID: strconv.FormatInt(messageID, 10),
		URL:    postURL(chatID, messageID),
		Raw:    raw,
	}, nil
}

// Preview reports what a publish would send. The body is rendered with the
// same renderBody used by the publish path, so convertedBody is exactly the
// transmitted body.
func (a *Adapter) Preview(input *platform.PublishInput) *entity.PreviewData {
	req := input.Request
	mode := a.parseMode(req)
	target := mode
	if target == "" {
		target = "none"
	}

	body := a.renderBody(req)

	return &entity.PreviewData{
		Valid:               true,
		DetectedType:        input.Type,
		ConvertedBody:       body,
		TargetFormat:        target,
		ConvertedBodyLength: utf8.RuneCountInString(body),
	}
}

// renderBody returns the body exactly as it will be transmitted: HTML is
// sanitized, everything else passes through unmodified. Preview and publish
// share this so a previewed body always matches the sent one.
func (a *Adapter) renderBody(req *entity.PostRequest) string {
	if strings.EqualFold(req.BodyFormat, "html") {
		return a.converter.Sanitize(req.Body)
	}
	return req.Body
}

// parseMode derives the Telegram parse mode from bodyFormat. Unknown format
// strings pass through unchanged so platform-specific values (MarkdownV2)
// keep working, and an explicit override in options always wins.
func (a *Adapter) parseMode(req *entity.PostRequest) string {
	if override := optionString(req.Options, "parseMode"); override != "" {
		return override
	}
	if override := optionString(req.Options, "parse_mode"); override != "" {
		return override
	}
	switch strings.ToLower(req.BodyFormat) {
	case "", "text":
		return ""
	case "html":
		return "HTML"
	case "md":
		return "Markdown"
	default:
		return req.BodyFormat
	}
}

func (a *Adapter) bodyLimit(input *platform.PublishInput) int {
	if input.Request.MaxBody > 0 {
		return input.Request.MaxBody
	}
	if input.Account != nil && input.Account.MaxBody > 0 {
		return input.Account.MaxBody
	}
	if input.Type == entity.TypePost {
		return maxBodyText
	}
	return maxBodyCaption
}

func (a *Adapter) buildPayload(input *platform.PublishInput, chatID string) (string, map[string]interface{}) {
	req := input.Request
	payload := map[string]interface{}{"chat_id": chatID}
	if req.DisableNotification {
		payload["disable_notification"] = true
	}
	mode := a.parseMode(req)
	body := a.renderBody(req)

	withCaption := func(payload map[string]interface{}) {
		payload["caption"] = body
		if mode != "" {
			payload["parse_mode"] = mode
		}
	}

	switch input.Type {
	case entity.TypeImage:
		payload["photo"] = req.Cover.URL
		payload["has_spoiler"] = req.Cover.Spoiler
		withCaption(payload)
		return "sendPhoto", payload
	case entity.TypeVideo:
		payload["video"] = req.Video.URL
		payload["has_spoiler"] = req.Video.Spoiler
		withCaption(payload)
		return "sendVideo", payload
	case entity.TypeAudio:
		payload["audio"] = req.Audio.URL
		withCaption(payload)
		return "sendAudio", payload
	case entity.TypeDocument:
		payload["document"] = req.Document.URL
		withCaption(payload)
		return "sendDocument", payload
	case entity.TypeAlbum:
		items := make([]map[string]interface{}, 0, len(req.Media))
		for i, slot := range req.Media {
			item := map[string]interface{}{
				"type":  albumItemType(slot),
				"media": slot.URL,
			}
			if slot.Spoiler {
				item["has_spoiler"] = true
			}
			// Telegram renders the album caption from the first item only.
			if i == 0 {
				item["caption"] = body
				if mode != "" {
					item["parse_mode"] = mode
				}
			}
			items = append(items, item)
		}
		payload["media"] = items
		return "sendMediaGroup", payload
	default:
		payload["text"] = body
		if mode != "" {
			payload["parse_mode"] = mode
		}
		return "sendMessage", payload
	}
}

func albumItemType(slot entity.MediaSlot) string {
	if slot.Type != "" {
		return slot.Type
	}
	return "photo"
}

func chatTarget(account *entity.ResolvedAccountConfig) string {
	if chatID := account.Auth["chatId"]; chatID != "" {
		return chatID
	}
	return account.ChannelID
}

// postURL builds a public permalink for @channel targets; private chats have
// no stable public URL.
func postURL(chatID string, messageID int64) string {
	if !strings.HasPrefix(chatID, "@") {
		return ""
	}
	return fmt.Sprintf("https://t.me/%s/%d", strings.TrimPrefix(chatID, "@"), messageID)
}

type presentSlot struct {
	name  string
	value string
}

func presentSlots(req *entity.PostRequest) []presentSlot {
	var slots []presentSlot
	add := func(name string, slot *entity.MediaSlot) {
		if slot != nil {
			slots = append(slots, presentSlot{name, slot.URL})
		}
	}
	add("cover", req.Cover)
	add("video", req.Video)
	add("audio", req.Audio)
	add("document", req.Document)
	for i, item := range req.Media {
		slots = append(slots, presentSlot{fmt.Sprintf("media[%d]", i), item.URL})
	}
	return slots
}

func fieldPresent(req *entity.PostRequest, field string) bool {
	switch field {
	case "title":
		return req.Title != ""
	case "description":
		return req.Description != ""
	case "tags":
		return len(req.Tags) > 0
	case "postLanguage":
		return req.PostLanguage != ""
	case "mode":
		return req.Mode != ""
	case "scheduledAt":
		return req.ScheduledAt != ""
	}
	return false
}

func optionString(options map[string]interface{}, key string) string {
	if options == nil {
		return ""
	}
	if value, ok := options[key].(string); ok {
		return value
	}
	return ""
}
