package nntp

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/datallboy/yencore/internal/config"
	"github.com/datallboy/yencore/internal/domain"
	"github.com/datallboy/yencore/internal/logger"
	"github.com/datallboy/yencore/internal/yenc"
)

var FETCH_RETRY_COUNT = 3

type managedProvider struct {
	Provider
	semaphore chan struct{}
}

// Manager load-balances article fetches across a priority-ordered list of
// providers, gating concurrency per provider with a semaphore sized from
// its configured MaxConnection, and failing over to the next provider on
// a 430 (article not found on that server).
type Manager struct {
	log       *logger.Logger
	providers []*managedProvider
}

func NewManager(servers []config.ServerConfig, log *logger.Logger) (*Manager, error) {
	var managed []*managedProvider

	for _, cfg := range servers {
		p := NewNNTPProvider(cfg)
		managed = append(managed, &managedProvider{
			Provider:  p,
			semaphore: make(chan struct{}, p.MaxConnection()),
		})
	}

	if len(managed) == 0 {
		return nil, fmt.Errorf("no servers configured")
	}

	// Sort providers by priority (0 = highest)
	sort.Slice(managed, func(i, j int) bool {
		return managed[i].Priority() < managed[j].Priority()
	})
	return &Manager{log: log, providers: managed}, nil
}

// Fetch retrieves seg, trying providers in priority order. It mutates
// seg.MissingFrom as providers report 430, so repeated Fetch calls for the
// same segment never retry a provider that has already confirmed the
// article is gone.
func (m *Manager) Fetch(ctx context.Context, seg *domain.Segment) (*yenc.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if seg.MissingFrom == nil {
		seg.MissingFrom = make(map[string]bool)
	}

	var lastErr error

	for _, mp := range m.providers {
		if seg.MissingFrom[mp.ID()] {
			continue
		}

		if len(seg.MissingFrom) > 0 {
			m.log.Debug("[Failover] Segment %s missing on %d providers, trying %s (Priority %d)",
				seg.MessageID, len(seg.MissingFrom), mp.ID(), mp.Priority())
		}

		select {
		case mp.semaphore <- struct{}{}:
			m.log.Debug("Segment %s: Attempting fetch from %s", seg.MessageID, mp.ID())
			resp, err := mp.Fetch(ctx, seg.MessageID)
			<-mp.semaphore

			if err != nil {
				m.log.Debug("Failover: %s error: %v", mp.ID(), err)
				lastErr = err
				continue
			}
			if resp.Status() == yenc.StatusNotFound {
				m.log.Debug("Provider %s: 430 Missing, marking as missing for segment %s...", mp.ID(), seg.MessageID)
				seg.MissingFrom[mp.ID()] = true
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return resp, nil
		default:
			// Provider is at MaxConnections, skip for now
			continue
		}
	}

	if len(seg.MissingFrom) == len(m.providers) {
		return nil, domain.ErrArticleNotFound
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, domain.ErrProviderBusy
}

// TotalCapacity returns the maximum number of concurrent connections
// allowed across all configured providers.
func (m *Manager) TotalCapacity() int {
	total := 0
	for _, mp := range m.providers {
		total += cap(mp.semaphore)
	}
	return total
}
