package nntp

import (
	"context"

	"github.com/datallboy/yencore/internal/yenc"
)

// ProviderConfig is a Usenet server's connection and auth parameters.
type ProviderConfig struct {
	ID            string
	Host          string
	Port          int
	Username      string
	Password      string
	TLS           bool
	MaxConnection int
	Priority      int
}

// Provider is the contract for a single Usenet server connection. Fetch
// hands raw BODY bytes to the core decoder directly rather than returning
// an io.Reader, so the core — not textproto — performs status-line
// classification and terminator detection for the article stream.
type Provider interface {
	ID() string
	Priority() int
	MaxConnection() int
	Fetch(ctx context.Context, msgID string) (*yenc.Response, error)
	Close() error
}
