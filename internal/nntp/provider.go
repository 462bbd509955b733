package nntp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strings"
	"time"

	"github.com/datallboy/yencore/internal/config"
	"github.com/datallboy/yencore/internal/yenc"
)

type nntpProvider struct {
	conf ProviderConfig
	conn *textproto.Conn
}

func NewNNTPProvider(c config.ServerConfig) Provider {
	return &nntpProvider{
		conf: ProviderConfig{
			ID:            c.ID,
			Host:          c.Host,
			Port:          c.Port,
			Username:      c.Username,
			Password:      c.Password,
			TLS:           c.TLS,
			MaxConnection: c.MaxConnection,
			Priority:      c.Priority,
		},
	}
}

// Interface implementation: ID
func (p *nntpProvider) ID() string { return p.conf.ID }

// Interface implementation: Priority
func (p *nntpProvider) Priority() int { return p.conf.Priority }

// Interface implementation: MaxConnection
func (p *nntpProvider) MaxConnection() int { return p.conf.MaxConnection }

// Fetch issues BODY for msgID, then streams the raw connection bytes
// straight into a fresh yenc.Decoder instead of reading them through
// textproto.DotReader first. The decoder recognizes the status line,
// dot-stuffing, and the trailing "." terminator on its own, so this never
// builds an intermediate buffer of the whole article.
func (p *nntpProvider) Fetch(ctx context.Context, msgID string) (*yenc.Response, error) {
	if err := p.ensureConnected(); err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	formattedID := msgID
	if !strings.HasPrefix(formattedID, "<") {
		formattedID = "<" + formattedID + ">"
	}

	if _, err := p.conn.Cmd("BODY %s", formattedID); err != nil {
		return nil, err
	}

	dec := yenc.NewDecoder()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if resp, ok := dec.Next(); ok {
			return resp, nil
		}

		n, err := p.conn.R.Read(dec.Writable())
		if n > 0 {
			if cerr := dec.Commit(n); cerr != nil {
				return nil, cerr
			}
			if resp, ok := dec.Next(); ok {
				return resp, nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("connection closed before response completed")
			}
			return nil, err
		}
	}
}

func (p *nntpProvider) Close() error {
	if p.conn != nil {
		// Send the NNTP QUIT command so the server can release
		// the connection slot immediately.
		p.conn.Cmd("QUIT")
		return p.conn.Close()
	}
	return nil
}

// handle connection and auth
func (p *nntpProvider) ensureConnected() error {
	if p.conn != nil {
		return nil // already connected
	}

	addr := fmt.Sprintf("%s:%d", p.conf.Host, p.conf.Port)

	var conn io.ReadWriteCloser
	var err error

	if p.conf.TLS {
		tlsConfig := &tls.Config{
			ServerName: p.conf.Host,
			MinVersion: tls.VersionTLS12,
		}
		conn, err = tls.Dial("tcp", addr, tlsConfig)
	} else {
		conn, err = net.DialTimeout("tcp", addr, 10*time.Second)
	}
	if err != nil {
		return err
	}

	p.conn = textproto.NewConn(conn)

	// Usenet servers usually greet with a 200 or 201
	if _, _, err := p.conn.ReadCodeLine(200); err != nil {
		// Fallback to 201 (posting not allowed, but fine for downloading)
		if _, _, err := p.conn.ReadCodeLine(201); err != nil {
			return err
		}
	}

	return p.authenticate()
}

func (p *nntpProvider) authenticate() error {
	if p.conf.Username == "" {
		return nil
	}

	// AUTHINFO USER
	if _, err := p.conn.Cmd("AUTHINFO USER %s", p.conf.Username); err != nil {
		return err
	}
	if _, _, err := p.conn.ReadCodeLine(381); err != nil { // 381: Password required
		return err
	}

	// AUTHINFO PASS
	if _, err := p.conn.Cmd("AUTHINFO PASS %s", p.conf.Password); err != nil {
		return err
	}
	_, _, err := p.conn.ReadCodeLine(281) // 281: Authentication accepted
	return err
}
