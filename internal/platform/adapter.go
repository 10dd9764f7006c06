// Package platform defines the contract a publishing adapter implements and
// the registry the orchestrator dispatches through.
package platform

import (
	"context"

	"postgate/internal/entity"
)

// PublishInput is the fully resolved unit of work handed to an adapter: the
// original request, the merged credentials, the effective post type and any
// warnings accumulated upstream (priority-suppressed media fields).
type PublishInput struct {
	Request  *entity.PostRequest
	Account  *entity.ResolvedAccountConfig
	Type     entity.PostType
	Warnings []string
}

// Adapter abstracts one external platform that can publish content.
type Adapter interface {
	Name() string

	// Supports reports whether the adapter can publish the given type.
	Supports(postType entity.PostType) bool

	// ValidateAuth returns the missing/invalid required auth fields.
	ValidateAuth(auth map[string]string) []string

	// Validate checks the input against platform rules, returning
	// non-blocking warnings and the first blocking error.
	Validate(input *PublishInput) ([]string, error)

	// Publish performs the outbound call. It must honor ctx cancellation.
	Publish(ctx context.Context, input *PublishInput) (*entity.PublishResult, error)

	// Preview reports what Publish would send without side effects. It is
	// only called with an input Validate accepted.
	Preview(input *PublishInput) *entity.PreviewData
}
