package cards

import (
	"agentic_report/pkg/models"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	mu       sync.Mutex
	calls    map[string]int
	released []string
	failFor  int // number of leading ErrTargetNotReady results per id
	err      error
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{calls: make(map[string]int)}
}

func (f *fakeRenderer) Render(_ context.Context, req RenderRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[req.ID]++
	if f.err != nil {
		return f.err
	}
	if f.calls[req.ID] <= f.failFor {
		return ErrTargetNotReady
	}
	return nil
}

func (f *fakeRenderer) Release(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, id)
}

func (f *fakeRenderer) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeRenderer) releasedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

func tableCard(id, title string) *models.VisualizationCard {
	return &models.VisualizationCard{
		ID:   id,
		Type: models.CardFinancialTable,
		Data: &models.FinancialTable{Title: title, Headers: []string{"指标", "本期"}},
	}
}

func ids(cards []*models.VisualizationCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func TestStoreAppendIsIdempotent(t *testing.T) {
	s := NewStore()

	assert.True(t, s.Append(tableCard("a", "资产负债表")))
	assert.True(t, s.Append(tableCard("b", "利润表")))
	assert.False(t, s.Append(tableCard("a", "资产负债表")))
	assert.False(t, s.Append(&models.VisualizationCard{Type: models.CardChart}))
	assert.False(t, s.Append(nil))

	assert.Equal(t, []string{"a", "b"}, ids(s.Cards()))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("b"))

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "资产负债表", got.Table().Title)
}

func TestStoreVisibleHidesConfiguredTitles(t *testing.T) {
	s := NewStore()
	s.Append(tableCard("retail", "零售银行业务指标（2024）"))
	s.Append(tableCard("corp", "公司银行业务指标"))
	s.Append(&models.VisualizationCard{ID: "chart", Type: models.CardChart, Data: &models.ChartSpec{}})

	assert.Equal(t, []string{"corp", "chart"}, ids(s.Visible()))
	assert.Equal(t, 3, s.Len(), "hidden cards stay in the store")

	custom := NewStore(WithHiddenTitles("公司银行"))
	custom.Append(tableCard("retail", "零售银行业务指标"))
	custom.Append(tableCard("corp", "公司银行业务指标"))
	assert.Equal(t, []string{"retail"}, ids(custom.Visible()))
}

func TestStoreFilterByType(t *testing.T) {
	s := NewStore()
	s.Append(tableCard("t1", "表"))
	s.Append(&models.VisualizationCard{ID: "c1", Type: models.CardChart, Data: &models.ChartSpec{}})
	s.Append(tableCard("t2", "表二"))

	assert.Equal(t, []string{"t1", "t2"}, ids(s.Filter(OfType(models.CardFinancialTable))))
	assert.Equal(t, []string{"c1"}, ids(s.Filter(Not(OfType(models.CardFinancialTable)))))
}

func TestStoreEvictionReleasesResources(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	renderer := newFakeRenderer()
	rec := NewReconciler(renderer, ReconcilerConfig{Attempts: 1, Interval: time.Millisecond}, nil, metrics)
	s := NewStore(WithCapacity(2), WithReconciler(rec), WithMetrics(metrics))

	s.Append(tableCard("a", "A"))
	s.Append(tableCard("b", "B"))
	s.Append(tableCard("c", "C"))
	rec.Wait()

	assert.Equal(t, []string{"b", "c"}, ids(s.Cards()))
	assert.Equal(t, []string{"a"}, renderer.releasedIDs())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.evicted))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.appended.WithLabelValues(string(models.CardFinancialTable))))
}

func TestStoreReappendsEvictedCard(t *testing.T) {
	s := NewStore(WithCapacity(2))

	s.Append(tableCard("a", "A"))
	s.Append(tableCard("b", "B"))
	s.Append(tableCard("c", "C"))
	require.False(t, s.Has("a"))

	assert.True(t, s.Append(tableCard("a", "A")), "an evicted id is no longer known")
	assert.Equal(t, []string{"c", "a"}, ids(s.Cards()))
}

func TestStoreUpdateKeepsOrderAndRenders(t *testing.T) {
	renderer := newFakeRenderer()
	rec := NewReconciler(renderer, ReconcilerConfig{Attempts: 1, Interval: time.Millisecond}, nil, nil)
	s := NewStore(WithReconciler(rec))

	s.Append(tableCard("a", "A"))
	s.Append(tableCard("b", "B"))
	rec.Wait()

	require.True(t, s.Update("a", &models.FinancialTable{Title: "A2"}))
	rec.Wait()

	assert.Equal(t, []string{"a", "b"}, ids(s.Cards()))
	card, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A2", card.Table().Title)
	assert.Equal(t, 2, renderer.callCount("a"))
	assert.Equal(t, 1, renderer.callCount("b"))

	assert.False(t, s.Update("missing", nil))
	assert.Equal(t, 2, s.Len())
}

func TestStoreRemoveAndClear(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	renderer := newFakeRenderer()
	rec := NewReconciler(renderer, ReconcilerConfig{Attempts: 1, Interval: time.Millisecond}, nil, metrics)
	s := NewStore(WithReconciler(rec), WithMetrics(metrics))

	s.Append(tableCard("a", "A"))
	s.Append(tableCard("b", "B"))
	s.Append(tableCard("c", "C"))
	s.Append(tableCard("a", "A"))
	rec.Wait()

	assert.True(t, s.Remove("b"))
	assert.False(t, s.Remove("b"))
	assert.Equal(t, []string{"b"}, renderer.releasedIDs())

	s.Clear()
	assert.Zero(t, s.Len())
	assert.ElementsMatch(t, []string{"a", "b", "c"}, renderer.releasedIDs())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.evicted), "explicit removal is not eviction")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.duplicates))
}

func TestReconcilerGivesUpAfterAttempts(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	renderer := newFakeRenderer()
	renderer.failFor = 100
	rec := NewReconciler(renderer, ReconcilerConfig{Attempts: 3, Interval: time.Millisecond}, nil, metrics)

	err := rec.Render(context.Background(), tableCard("x", "X"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRenderGaveUp)
	assert.ErrorIs(t, err, ErrTargetNotReady)
	assert.Equal(t, 3, renderer.callCount("x"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.renders.WithLabelValues("gave_up")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.renders.WithLabelValues("not_ready")))
}

func TestReconcilerRetriesUntilReady(t *testing.T) {
	renderer := newFakeRenderer()
	renderer.failFor = 2
	rec := NewReconciler(renderer, ReconcilerConfig{Attempts: 5, Interval: time.Millisecond}, nil, nil)

	require.NoError(t, rec.Render(context.Background(), tableCard("x", "X")))
	assert.Equal(t, 3, renderer.callCount("x"))
}

func TestReconcilerDoesNotRetryOtherErrors(t *testing.T) {
	renderer := newFakeRenderer()
	renderer.err = errors.New("boom")
	rec := NewReconciler(renderer, ReconcilerConfig{Attempts: 5, Interval: time.Millisecond}, nil, nil)

	err := rec.Render(context.Background(), tableCard("x", "X"))
	assert.ErrorIs(t, err, ErrRenderGaveUp)
	assert.Equal(t, 1, renderer.callCount("x"))
}

func TestReconcilerRenderAsync(t *testing.T) {
	renderer := newFakeRenderer()
	renderer.failFor = 1
	rec := NewReconciler(renderer, ReconcilerConfig{Attempts: 3, Interval: time.Millisecond}, nil, nil)

	rec.RenderAsync(tableCard("x", "X"))
	rec.Wait()
	assert.Equal(t, 2, renderer.callCount("x"))
}

func TestNewRenderRequestAdaptsCharts(t *testing.T) {
	card := &models.VisualizationCard{
		ID:   "chart-1",
		Type: models.CardChart,
		Data: &models.ChartSpec{
			Traces: []models.Trace{{Type: models.TracePie, Text: []string{"零售", "公司"}, Y: []float64{60, 40}}},
			Layout: models.Layout{Title: "结构"},
		},
	}

	req := NewRenderRequest(card)
	require.Len(t, req.Traces, 1)
	assert.Equal(t, "pie", req.Traces[0]["type"])
	assert.Equal(t, []string{"零售", "公司"}, req.Traces[0]["labels"])
	assert.Nil(t, req.Data)

	tbl := NewRenderRequest(tableCard("t", "T"))
	assert.Nil(t, tbl.Traces)
	assert.NotNil(t, tbl.Data)
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewMetrics(reg)
	second := NewMetrics(reg)
	first.incDuplicate()
	assert.Equal(t, 1.0, testutil.ToFloat64(second.duplicates))
}
