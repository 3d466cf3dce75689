package worklog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/final0920/mcp-worklog/internal/digest"
	"github.com/final0920/mcp-worklog/internal/model"
	"github.com/final0920/mcp-worklog/internal/session"
	"github.com/final0920/mcp-worklog/internal/shardqueue"
)

// memStorage keeps rendered digests in memory, so every load goes through the
// text format exactly like the file store.
type memStorage struct {
	mu    sync.Mutex
	texts map[string]string
	saves int
}

func newMemStorage() *memStorage {
	return &memStorage{texts: map[string]string{}}
}

func (m *memStorage) Save(ctx context.Context, d *model.Digest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[d.DateString()] = digest.Format(d)
	m.saves++
	return "mem://" + d.DateString(), nil
}

func (m *memStorage) Load(ctx context.Context, date time.Time) (*model.Digest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.texts[date.Format(model.DateLayout)]
	if !ok {
		return nil, model.ErrNotFound
	}
	return digest.Parse(text, date), nil
}

func (m *memStorage) Exists(ctx context.Context, date time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.texts[date.Format(model.DateLayout)]
	return ok, nil
}

func (m *memStorage) text(date string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.texts[date]
	return t, ok
}

type stubCollector struct {
	source   model.Source
	sessions []model.Session
}

func (s stubCollector) Source() model.Source { return s.source }
func (s stubCollector) Collect(context.Context, time.Time) []model.Session {
	return s.sessions
}

var fixedNow = time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, store Storage, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{
		WithLocation(time.UTC),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	svc, err := NewService(store, opts...)
	require.NoError(t, err)
	return svc
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestAppend_CreatesDigestAndNumbers(t *testing.T) {
	store := newMemStorage()
	svc := newTestService(t, store)
	ctx := context.Background()

	first, err := svc.Append(ctx, "  wrote design doc  ")
	require.NoError(t, err)
	second, err := svc.Append(ctx, "paired on parser")
	require.NoError(t, err)

	assert.Equal(t, 1, first.EntryNumber)
	assert.Equal(t, 2, second.EntryNumber)
	assert.Equal(t, "2025-07-14", second.Date)
	assert.Equal(t, "mem://2025-07-14", second.Location)
	assert.Equal(t, "Added entry #2 to 2025-07-14", second.Message)

	text, ok := store.text("2025-07-14")
	require.True(t, ok)
	assert.Equal(t, "2025-07-14\n\n1. wrote design doc\n2. paired on parser", text)
}

func TestAppend_PreservesPriorContent(t *testing.T) {
	store := newMemStorage()
	svc := newTestService(t, store)
	ctx := context.Background()

	prior := []string{"a", "b", "c", "b"}
	for _, p := range prior {
		_, err := svc.Append(ctx, p)
		require.NoError(t, err)
	}

	res, err := svc.Append(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, len(prior)+1, res.EntryNumber)

	q, err := svc.Query(ctx, time.Time{})
	require.NoError(t, err)
	parsed := digest.Parse(q.Content, fixedNow)
	assert.Equal(t, append(prior, "d"), parsed.Contents())
}

func TestAppend_RejectsBlank(t *testing.T) {
	store := newMemStorage()
	svc := newTestService(t, store)

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := svc.Append(context.Background(), in)
		assert.ErrorIs(t, err, model.ErrEmptyInput)
	}
	assert.Zero(t, store.saves)
}

func TestAppend_FoldsLineBreaks(t *testing.T) {
	store := newMemStorage()
	svc := newTestService(t, store)

	_, err := svc.Append(context.Background(), "first line\nsecond line")
	require.NoError(t, err)

	q, err := svc.Query(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2025-07-14\n\n1. first line second line", q.Content)
}

func TestAppend_UsesConfiguredTimeZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	late := time.Date(2025, 7, 14, 20, 0, 0, 0, time.UTC) // already the 15th in Tokyo
	store := newMemStorage()
	svc := newTestService(t, store, WithLocation(tokyo), WithClock(func() time.Time { return late }))

	res, err := svc.Append(context.Background(), "late night fix")
	require.NoError(t, err)
	assert.Equal(t, "2025-07-15", res.Date)
}

func TestQuery_NotFoundIsNotAnError(t *testing.T) {
	svc := newTestService(t, newMemStorage())

	res, err := svc.Query(context.Background(), mustDate(t, "2024-01-01"))

	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, "2024-01-01", res.Date)
	assert.Zero(t, res.EntryCount)
}

func TestQuery_ExistingEmptyDigestIsFound(t *testing.T) {
	store := newMemStorage()
	_, err := store.Save(context.Background(), model.EmptyDigest(mustDate(t, "2024-01-01")))
	require.NoError(t, err)
	svc := newTestService(t, store)

	res, err := svc.Query(context.Background(), mustDate(t, "2024-01-01"))

	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Zero(t, res.EntryCount)
	assert.Equal(t, "2024-01-01\n", res.Content)
}

func TestQuery_Fidelity(t *testing.T) {
	store := newMemStorage()
	svc := newTestService(t, store)
	date := mustDate(t, "2025-02-03")
	d, err := digest.Rewrite(date, []string{"one", "two", "three"})
	require.NoError(t, err)
	_, err = store.Save(context.Background(), d)
	require.NoError(t, err)

	res, err := svc.Query(context.Background(), date)

	require.NoError(t, err)
	assert.Equal(t, d.Count(), res.EntryCount)
	assert.Equal(t, digest.Format(d), res.Content)
}

func TestPolish_DedupsAndSaves(t *testing.T) {
	store := newMemStorage()
	svc := newTestService(t, store)
	ctx := context.Background()
	for _, e := range []string{"a", "b", "a", "c", "b"} {
		_, err := svc.Append(ctx, e)
		require.NoError(t, err)
	}

	res, err := svc.Polish(ctx, time.Time{})

	require.NoError(t, err)
	assert.Equal(t, 5, res.OriginalCount)
	assert.Equal(t, 3, res.PolishedCount)
	assert.Equal(t, "2025-07-14\n\n1. a\n2. b\n3. c", res.Content)
	text, _ := store.text("2025-07-14")
	assert.Equal(t, res.Content, text)
}

func TestPolish_NotFound(t *testing.T) {
	store := newMemStorage()
	svc := newTestService(t, store)

	res, err := svc.Polish(context.Background(), mustDate(t, "2023-03-03"))

	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, "2023-03-03", res.Date)
	assert.Zero(t, store.saves)
}

func TestRewrite_ReplacesWholesale(t *testing.T) {
	store := newMemStorage()
	svc := newTestService(t, store)
	ctx := context.Background()
	_, err := svc.Append(ctx, "old entry")
	require.NoError(t, err)

	res, err := svc.Rewrite(ctx, time.Time{}, []string{"merged summary", "  ", "second item"})

	require.NoError(t, err)
	assert.True(t, res.Replaced)
	assert.Equal(t, 2, res.EntryCount)
	assert.Equal(t, "2025-07-14\n\n1. merged summary\n2. second item", res.Content)
}

func TestRewrite_NewDateNotReplaced(t *testing.T) {
	svc := newTestService(t, newMemStorage())

	res, err := svc.Rewrite(context.Background(), mustDate(t, "2025-01-01"), []string{"x"})

	require.NoError(t, err)
	assert.False(t, res.Replaced)
	assert.Equal(t, "2025-01-01", res.Date)
}

func TestRewrite_EmptyRejectedAndStoredDigestUntouched(t *testing.T) {
	store := newMemStorage()
	svc := newTestService(t, store)
	ctx := context.Background()
	_, err := svc.Append(ctx, "keep me")
	require.NoError(t, err)
	before, _ := store.text("2025-07-14")
	saves := store.saves

	for _, in := range [][]string{{}, {"  "}} {
		_, err := svc.Rewrite(ctx, time.Time{}, in)
		assert.ErrorIs(t, err, model.ErrEmptyInput)
	}

	after, _ := store.text("2025-07-14")
	assert.Equal(t, before, after)
	assert.Equal(t, saves, store.saves)
}

func TestCollectSessions_PaginatesDedupedFeed(t *testing.T) {
	var msgs []string
	for i := 0; i < 70; i++ {
		msgs = append(msgs, fmt.Sprintf("message %d", i))
	}
	claude := stubCollector{source: model.SourceClaudeCode, sessions: []model.Session{
		{Source: model.SourceClaudeCode, SessionID: "c1", StartTime: fixedNow.Add(time.Hour), Title: "later", MessageCount: 70, Messages: msgs},
	}}
	kiro := stubCollector{source: model.SourceKiro, sessions: []model.Session{
		{Source: model.SourceKiro, SessionID: "k1", StartTime: fixedNow, MessageCount: 60, Messages: append(msgs[:10:10], "kiro only")},
	}}
	svc := newTestService(t, newMemStorage(), WithCollectors(claude, kiro))

	page1, err := svc.CollectSessions(context.Background(), time.Time{}, 1)
	require.NoError(t, err)
	require.True(t, page1.Found)
	require.Len(t, page1.Sessions, 2)
	assert.Equal(t, "k1", page1.Sessions[0].SessionID)
	assert.Equal(t, "[kiro] untitled (60 messages)", page1.Sessions[0].Summary)
	assert.Equal(t, 71, page1.Page.TotalMessages)
	assert.Equal(t, 2, page1.Page.TotalPages)
	assert.True(t, page1.Page.HasMore)
	assert.Equal(t, "message 0", page1.Page.Messages[0])
	assert.Equal(t, "kiro only", page1.Page.Messages[10])

	page2, err := svc.CollectSessions(context.Background(), time.Time{}, 2)
	require.NoError(t, err)
	assert.Len(t, page2.Page.Messages, 21)
	assert.False(t, page2.Page.HasMore)

	page3, err := svc.CollectSessions(context.Background(), time.Time{}, 3)
	require.NoError(t, err)
	assert.True(t, page3.Page.OutOfRange)
	assert.Empty(t, page3.Page.Messages)
}

func TestCollectSessions_NoSources(t *testing.T) {
	svc := newTestService(t, newMemStorage())

	res, err := svc.CollectSessions(context.Background(), mustDate(t, "2025-01-01"), 1)

	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Empty(t, res.Sessions)
	assert.Zero(t, res.Page.TotalMessages)
}

func TestCollectSessions_PageSizeOption(t *testing.T) {
	c := stubCollector{source: model.SourceKiro, sessions: []model.Session{
		{Source: model.SourceKiro, SessionID: "k", StartTime: fixedNow, Messages: []string{"a", "b", "c"}},
	}}
	svc := newTestService(t, newMemStorage(), WithCollectors(c), WithPageSize(2))

	res, err := svc.CollectSessions(context.Background(), time.Time{}, 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Page.Messages)
	assert.True(t, res.Page.HasMore)
}

func TestAppend_ConcurrentCallsWithSerializerLoseNothing(t *testing.T) {
	exec := shardqueue.NewShardExecutor(shardqueue.Config{Shards: 2, QueueSize: 64})
	defer exec.Stop()
	store := newMemStorage()
	svc := newTestService(t, store, WithSerializer(exec))

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Append(context.Background(), fmt.Sprintf("entry %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	q, err := svc.Query(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, n, q.EntryCount)
}

type failingStorage struct{ *memStorage }

func (f *failingStorage) Save(context.Context, *model.Digest) (string, error) {
	return "", errors.New("disk full")
}

func TestAppend_PropagatesSaveError(t *testing.T) {
	svc := newTestService(t, &failingStorage{memStorage: newMemStorage()})

	_, err := svc.Append(context.Background(), "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)

	_, err = NewService(newMemStorage(), WithPageSize(0))
	assert.Error(t, err)

	_, err = NewService(newMemStorage(), WithCollectors(session.Collector(stubCollector{})))
	assert.NoError(t, err)
}
