package recognition

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"receipts/internal/cache"
	"receipts/internal/core"
)

type mockRecognizer struct {
	mock.Mock
}

func (m *mockRecognizer) Recognize(ctx context.Context, data []byte, mimeType string) (core.Extraction, error) {
	args := m.Called(ctx, data, mimeType)
	return args.Get(0).(core.Extraction), args.Error(1)
}

func TestDecodeExtraction(t *testing.T) {
	ex, err := DecodeExtraction(`{"date":"2025-01-02","amount":12.5,"currency":"EUR","category":"Meal","merchant":"Cafe"}`)
	require.NoError(t, err)
	assert.Equal(t, core.Extraction{Date: "2025-01-02", Amount: 12.5, Currency: "EUR", Category: "Meal", Merchant: "Cafe"}, ex)

	ex, err = DecodeExtraction("```json\n{\"amount\": 3}\n```")
	require.NoError(t, err)
	assert.Equal(t, 3.0, ex.Amount)

	for _, bad := range []string{"", "  ", "null", "not json", `{"amount":"many"}`} {
		_, err := DecodeExtraction(bad)
		assert.ErrorIs(t, err, core.ErrExtractionFailed, "input %q", bad)
	}
}

func TestDisabledFailsAsExtraction(t *testing.T) {
	_, err := Disabled{}.Recognize(context.Background(), []byte("x"), "image/png")
	assert.ErrorIs(t, err, core.ErrExtractionFailed)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestCachedReusesSuccessfulExtraction(t *testing.T) {
	next := &mockRecognizer{}
	want := core.Extraction{Amount: 9, Currency: "USD"}
	next.On("Recognize", mock.Anything, []byte("receipt"), "image/jpeg").Return(want, nil).Once()

	c := NewCached(next, cache.NewLRUCache[core.Extraction](8, time.Minute), time.Minute)
	for i := 0; i < 3; i++ {
		got, err := c.Recognize(context.Background(), []byte("receipt"), "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	next.AssertExpectations(t)
	assert.Equal(t, int64(2), c.Stats().Hits)
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	next := &mockRecognizer{}
	boom := errors.New("model unavailable")
	next.On("Recognize", mock.Anything, mock.Anything, mock.Anything).Return(core.Extraction{}, boom).Twice()

	c := NewCached(next, cache.NewLRUCache[core.Extraction](8, time.Minute), time.Minute)
	for i := 0; i < 2; i++ {
		_, err := c.Recognize(context.Background(), []byte("receipt"), "image/png")
		assert.ErrorIs(t, err, boom)
	}
	next.AssertExpectations(t)
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestCachedKeyIncludesMimeType(t *testing.T) {
	assert.NotEqual(t, Key([]byte("x"), "image/png"), Key([]byte("x"), "application/pdf"))
	assert.Equal(t, Key([]byte("x"), "image/png"), Key([]byte("x"), "image/png"))
}

type slowRecognizer struct {
	calls   atomic.Int32
	release chan struct{}
}

func (s *slowRecognizer) Recognize(context.Context, []byte, string) (core.Extraction, error) {
	s.calls.Add(1)
	<-s.release
	return core.Extraction{Amount: 1}, nil
}

func TestCachedCollapsesConcurrentUploads(t *testing.T) {
	next := &slowRecognizer{release: make(chan struct{})}
	c := NewCached(next, cache.NewLRUCache[core.Extraction](8, time.Minute), time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Recognize(context.Background(), []byte("same"), "image/png")
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(next.release)
	wg.Wait()

	assert.Equal(t, int32(1), next.calls.Load())
}

type blockingRecognizer struct {
	started chan struct{}
	release chan struct{}
	ctxErr  atomic.Value
}

func (b *blockingRecognizer) Recognize(ctx context.Context, _ []byte, _ string) (core.Extraction, error) {
	close(b.started)
	<-b.release
	if err := ctx.Err(); err != nil {
		b.ctxErr.Store(err)
		return core.Extraction{}, err
	}
	return core.Extraction{Amount: 3}, nil
}

func TestCachedSharedCallSurvivesFirstCallerCancel(t *testing.T) {
	next := &blockingRecognizer{started: make(chan struct{}), release: make(chan struct{})}
	c := NewCached(next, cache.NewLRUCache[core.Extraction](8, time.Minute), time.Minute)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Recognize(firstCtx, []byte("same"), "image/png")
		firstErr <- err
	}()
	<-next.started

	second := make(chan core.Extraction, 1)
	go func() {
		ex, err := c.Recognize(context.Background(), []byte("same"), "image/png")
		assert.NoError(t, err)
		second <- ex
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(next.release)
	assert.Equal(t, 3.0, (<-second).Amount)
	assert.Nil(t, next.ctxErr.Load())

	// the result was cached even though the first caller left
	ex, err := c.Recognize(context.Background(), []byte("same"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, 3.0, ex.Amount)
}

func TestExtractionSchemaEnumerations(t *testing.T) {
	s := ExtractionSchema()
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Len(t, s.Properties["currency"].Enum, 9)
	assert.Equal(t, "Unknown", s.Properties["category"].Enum[5])
	assert.ElementsMatch(t, []string{"date", "amount", "currency", "category", "merchant"}, s.Required)
}

func TestPrompt(t *testing.T) {
	p := Prompt(2031)
	assert.Contains(t, p, "assume 2031")
	assert.Contains(t, p, "USD, EUR, GBP, JPY, CAD, AUD, CNY, SGD, HKD")
	assert.False(t, strings.Contains(p, "'Unknown',"), "unknown is not offered as a choice")
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), " ", "", time.Second)
	assert.Error(t, err)
}
