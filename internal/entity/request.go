package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PostType is the effective kind of content a request publishes.
type PostType string

const (
	TypeAuto     PostType = "auto"
	TypePost     PostType = "post"
	TypeImage    PostType = "image"
	TypeVideo    PostType = "video"
	TypeAudio    PostType = "audio"
	TypeDocument PostType = "document"
	TypeAlbum    PostType = "album"
)

// MediaSlot is a single media attachment. On the wire it is either a bare
// URL/file-token string or an object with per-item flags.
type MediaSlot struct {
	URL     string `json:"url"`
	Spoiler bool   `json:"spoiler,omitempty"`
	Type    string `json:"type,omitempty"`
}

func (m *MediaSlot) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return err
		}
		m.URL = url
		return nil
	}

	type mediaSlot MediaSlot
	var slot mediaSlot
	if err := json.Unmarshal(data, &slot); err != nil {
		return fmt.Errorf("media slot must be a URL string or an object: %w", err)
	}
	*m = MediaSlot(slot)
	return nil
}

// PostRequest is the platform-agnostic publish request.
type PostRequest struct {
	Platform   string   `json:"platform" binding:"required"`
	Body       string   `json:"body" binding:"required"`
	Type       PostType `json:"type"`
	BodyFormat string   `json:"bodyFormat"`

	Title       string `json:"title"`
	Description string `json:"description"`

	Cover    *MediaSlot  `json:"cover"`
	Video    *MediaSlot  `json:"video"`
	Audio    *MediaSlot  `json:"audio"`
	Document *MediaSlot  `json:"document"`
	Media    []MediaSlot `json:"media"`

	Account string            `json:"account"`
	Auth    map[string]string `json:"auth"`

	Options             map[string]interface{} `json:"options"`
	DisableNotification bool                   `json:"disableNotification"`
	Tags                []string               `json:"tags"`
	ScheduledAt         string                 `json:"scheduledAt"`
	PostLanguage        string                 `json:"postLanguage"`
	Mode                string                 `json:"mode"`

	IdempotencyKey string `json:"idempotencyKey"`
	MaxBody        int    `json:"maxBody"`
}

// Normalize fills the documented defaults in place.
func (r *PostRequest) Normalize() {
	r.Platform = strings.TrimSpace(r.Platform)
	if r.Type == "" {
		r.Type = TypeAuto
	}
	if r.BodyFormat == "" {
		r.BodyFormat = "text"
	}
}

// HasAnyMedia reports whether any media field is set.
func (r *PostRequest) HasAnyMedia() bool {
	return len(r.Media) > 0 || r.Document != nil || r.Audio != nil || r.Video != nil || r.Cover != nil
}
