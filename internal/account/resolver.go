// Package account resolves a request's target account and merged auth map.
package account

import (
	"strings"

	"postgate/internal/entity"
	"postgate/pkg/logger"
)

// ConfigProvider supplies named account records. Implemented by the config
// layer; a false second return means the account is not configured.
type ConfigProvider interface {
	GetAccount(name string) (*entity.AccountConfig, bool)
}

// AuthValidator checks a merged auth map against a platform's required
// shape, returning the list of missing or invalid fields.
type AuthValidator interface {
	ValidateAuth(auth map[string]string) []string
}

type Resolver struct {
	config ConfigProvider
	logger *logger.Logger
}

func NewResolver(config ConfigProvider, logger *logger.Logger) *Resolver {
	return &Resolver{config: config, logger: logger}
}

// Resolve produces the per-request credential set. Request auth fields
// override the stored account's auth key-by-key, never wholesale. Every
// failure here is a non-retryable validation error.
func (r *Resolver) Resolve(req *entity.PostRequest, validator AuthValidator) (*entity.ResolvedAccountConfig, error) {
	if req.Platform == "" {
		return nil, entity.NewValidationError("platform is required")
	}

	var base *entity.AccountConfig
	source := entity.SourceInline

	if req.Account != "" {
		stored, ok := r.config.GetAccount(req.Account)
		if !ok {
			return nil, entity.NewValidationError("account %q is not configured", req.Account)
		}
		base = stored
		source = entity.SourceAccount
	} else if len(req.Auth) > 0 {
		base = &entity.AccountConfig{Platform: req.Platform, Auth: map[string]string{}}
	} else {
		return nil, entity.NewValidationError("either account or auth must be provided")
	}

	merged := make(map[string]string, len(base.Auth)+len(req.Auth))
	for key, value := range base.Auth {
		merged[key] = value
	}
	for key, value := range req.Auth {
		merged[key] = value
	}

	if !strings.EqualFold(base.Platform, req.Platform) {
		return nil, entity.NewValidationError(
			"account platform %q does not match requested platform %q", base.Platform, req.Platform)
	}

	if missing := validator.ValidateAuth(merged); len(missing) > 0 {
		return nil, entity.NewValidationError("invalid auth for %s: %s", req.Platform, strings.Join(missing, "; "))
	}

	return &entity.ResolvedAccountConfig{
		AccountConfig: entity.AccountConfig{
			Platform:  base.Platform,
			Auth:      merged,
			ChannelID: base.ChannelID,
			MaxBody:   base.MaxBody,
		},
		Name:   req.Account,
		Source: source,
	}, nil
}
