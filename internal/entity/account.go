package entity

// AccountSource tells where a resolved credential set came from.
type AccountSource string

const (
	SourceAccount AccountSource = "account"
	SourceInline  AccountSource = "inline"
)

// AccountConfig is a named credential+platform binding owned by the config
// collaborator. Immutable for the lifetime of a request.
type AccountConfig struct {
	Platform  string
	Auth      map[string]string
	ChannelID string
	MaxBody   int
}

// ResolvedAccountConfig is the per-request merge of an account (or inline
// auth) with request-level auth overrides. Never persisted.
type ResolvedAccountConfig struct {
	AccountConfig
	Name   string
	Source AccountSource
}
