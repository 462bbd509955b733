package nntp

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datallboy/yencore/internal/domain"
	"github.com/datallboy/yencore/internal/logger"
	"github.com/datallboy/yencore/internal/yenc"
)

// fakeProvider is a Provider stand-in driven entirely by canned responses,
// so Manager's failover logic can be tested without a real NNTP server.
type fakeProvider struct {
	id       string
	priority int
	maxConn  int
	resp     *yenc.Response
	err      error
	calls    int
}

func (f *fakeProvider) ID() string          { return f.id }
func (f *fakeProvider) Priority() int       { return f.priority }
func (f *fakeProvider) MaxConnection() int  { return f.maxConn }
func (f *fakeProvider) Close() error        { return nil }
func (f *fakeProvider) Fetch(ctx context.Context, msgID string) (*yenc.Response, error) {
	f.calls++
	return f.resp, f.err
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(filepath.Join(t.TempDir(), "test.log"), logger.LevelDebug, false)
	require.NoError(t, err)
	return l
}

func managerWith(t *testing.T, providers ...*fakeProvider) *Manager {
	t.Helper()
	managed := make([]*managedProvider, len(providers))
	for i, p := range providers {
		managed[i] = &managedProvider{Provider: p, semaphore: make(chan struct{}, p.maxConn)}
	}
	return &Manager{log: newTestLogger(t), providers: managed}
}

func successResponse() *yenc.Response {
	return &yenc.Response{Done: true, Body: true, StatusCode: 222, Format: yenc.FormatYEnc, FileName: "a.bin"}
}

func notFoundResponse() *yenc.Response {
	return &yenc.Response{Done: true, StatusCode: 430}
}

func TestManagerFetchSucceedsOnFirstProvider(t *testing.T) {
	p := &fakeProvider{id: "a", priority: 1, maxConn: 1, resp: successResponse()}
	m := managerWith(t, p)

	seg := &domain.Segment{MessageID: "<msg@a>"}
	resp, err := m.Fetch(context.Background(), seg)

	require.NoError(t, err)
	assert.Equal(t, yenc.StatusSuccess, resp.Status())
	assert.Equal(t, 1, p.calls)
}

func TestManagerFetchFailsOverOn430(t *testing.T) {
	p1 := &fakeProvider{id: "a", priority: 1, maxConn: 1, resp: notFoundResponse()}
	p2 := &fakeProvider{id: "b", priority: 2, maxConn: 1, resp: successResponse()}
	m := managerWith(t, p1, p2)

	seg := &domain.Segment{MessageID: "<msg@a>"}
	resp, err := m.Fetch(context.Background(), seg)

	require.NoError(t, err)
	assert.Equal(t, yenc.StatusSuccess, resp.Status())
	assert.True(t, seg.MissingFrom["a"])
	assert.False(t, seg.MissingFrom["b"])
}

func TestManagerFetchReturnsArticleNotFoundWhenAllMissing(t *testing.T) {
	p1 := &fakeProvider{id: "a", priority: 1, maxConn: 1, resp: notFoundResponse()}
	p2 := &fakeProvider{id: "b", priority: 2, maxConn: 1, resp: notFoundResponse()}
	m := managerWith(t, p1, p2)

	seg := &domain.Segment{MessageID: "<msg@a>"}
	_, err := m.Fetch(context.Background(), seg)

	assert.ErrorIs(t, err, domain.ErrArticleNotFound)
}

func TestManagerFetchReturnsProviderBusyWhenAllSemaphoresHeld(t *testing.T) {
	p := &fakeProvider{id: "a", priority: 1, maxConn: 1, resp: successResponse()}
	m := managerWith(t, p)
	m.providers[0].semaphore <- struct{}{} // occupy the only slot

	seg := &domain.Segment{MessageID: "<msg@a>"}
	_, err := m.Fetch(context.Background(), seg)

	assert.ErrorIs(t, err, domain.ErrProviderBusy)
	assert.Equal(t, 0, p.calls)
}

func TestManagerFetchPropagatesTransportError(t *testing.T) {
	wantErr := errors.New("connection reset")
	p := &fakeProvider{id: "a", priority: 1, maxConn: 1, err: wantErr}
	m := managerWith(t, p)

	seg := &domain.Segment{MessageID: "<msg@a>"}
	_, err := m.Fetch(context.Background(), seg)

	assert.ErrorIs(t, err, wantErr)
}

func TestManagerTotalCapacitySumsProviders(t *testing.T) {
	p1 := &fakeProvider{id: "a", priority: 1, maxConn: 3}
	p2 := &fakeProvider{id: "b", priority: 2, maxConn: 5}
	m := managerWith(t, p1, p2)

	assert.Equal(t, 8, m.TotalCapacity())
}

func TestManagerFetchSkipsAlreadyMissingProvider(t *testing.T) {
	p1 := &fakeProvider{id: "a", priority: 1, maxConn: 1, resp: successResponse()}
	m := managerWith(t, p1)

	seg := &domain.Segment{MessageID: "<msg@a>", MissingFrom: map[string]bool{"a": true}}
	_, err := m.Fetch(context.Background(), seg)

	assert.ErrorIs(t, err, domain.ErrArticleNotFound)
	assert.Equal(t, 0, p1.calls)
}
