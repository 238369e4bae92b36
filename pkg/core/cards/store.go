package cards

import (
	"agentic_report/pkg/models"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	// DefaultCapacity bounds the store when no capacity is configured.
	DefaultCapacity = 500
	// DefaultHiddenTitle is the table title hidden from the rendered list.
	DefaultHiddenTitle = "零售银行业务指标"
)

// Predicate selects cards in Filter.
type Predicate func(*models.VisualizationCard) bool

// Option configures a Store.
type Option func(*Store)

// WithCapacity bounds the number of cards kept; the oldest card is evicted first.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithHiddenTitles replaces the hidden-title list used by Visible.
func WithHiddenTitles(titles ...string) Option {
	return func(s *Store) {
		s.hidden = append([]string(nil), titles...)
	}
}

// WithReconciler renders appended cards and releases removed ones.
func WithReconciler(r *Reconciler) Option {
	return func(s *Store) { s.reconciler = r }
}

// WithMetrics counts appends, duplicates and evictions.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

type dropped struct {
	id       string
	explicit bool
}

// Store is an ordered, id-keyed collection of visualization cards.
// Appending an id that is already present is a no-op.
type Store struct {
	mu         sync.RWMutex
	cache      *lru.Cache[string, *models.VisualizationCard]
	capacity   int
	hidden     []string
	reconciler *Reconciler
	metrics    *Metrics
	logger     *zap.Logger

	// set while Remove or Clear runs so the evict callback can tell
	// explicit removal from capacity eviction
	removing bool
	drops    []dropped
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		capacity: DefaultCapacity,
		hidden:   []string{DefaultHiddenTitle},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("cards")

	cache, err := lru.NewWithEvict[string, *models.VisualizationCard](s.capacity, s.onEvict)
	if err != nil {
		// only reachable with a non-positive size, which WithCapacity rejects
		panic(err)
	}
	s.cache = cache
	return s
}

// onEvict runs with s.mu held.
func (s *Store) onEvict(id string, _ *models.VisualizationCard) {
	s.drops = append(s.drops, dropped{id: id, explicit: s.removing})
}

// takeDrops must be called with s.mu held.
func (s *Store) takeDrops() []dropped {
	d := s.drops
	s.drops = nil
	return d
}

func (s *Store) release(drops []dropped) {
	for _, d := range drops {
		if !d.explicit {
			s.metrics.incEvicted()
			s.logger.Debug("evicted card", zap.String("id", d.id), zap.Int("capacity", s.capacity))
		}
		if s.reconciler != nil {
			s.reconciler.Release(d.id)
		}
	}
}

// Append adds card and requests its rendering. It reports false when the card
// has no id or an equal id is already stored.
func (s *Store) Append(card *models.VisualizationCard) bool {
	if card == nil || card.ID == "" {
		return false
	}

	s.mu.Lock()
	if s.cache.Contains(card.ID) {
		s.mu.Unlock()
		s.metrics.incDuplicate()
		s.logger.Debug("duplicate card ignored", zap.String("id", card.ID))
		return false
	}
	s.cache.Add(card.ID, card)
	drops := s.takeDrops()
	s.mu.Unlock()

	s.metrics.incAppended(string(card.Type))
	s.release(drops)
	if s.reconciler != nil {
		s.reconciler.RenderAsync(card)
	}
	return true
}

// Update replaces the data of a stored card in place and renders it again.
// The card keeps its position. It reports false when id is not stored.
func (s *Store) Update(id string, data any) bool {
	s.mu.Lock()
	card, ok := s.cache.Peek(id)
	if ok {
		card.Data = data
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	s.logger.Debug("card updated", zap.String("id", id))
	if s.reconciler != nil {
		s.reconciler.RenderAsync(card)
	}
	return true
}

// Remove deletes the card and releases any render resource bound to its id.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	s.removing = true
	ok := s.cache.Remove(id)
	s.removing = false
	drops := s.takeDrops()
	s.mu.Unlock()

	s.release(drops)
	return ok
}

// Clear drops every card, as on a session reset.
func (s *Store) Clear() {
	s.mu.Lock()
	s.removing = true
	s.cache.Purge()
	s.removing = false
	drops := s.takeDrops()
	s.mu.Unlock()

	s.release(drops)
}

// Get returns the card without affecting eviction order.
func (s *Store) Get(id string) (*models.VisualizationCard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.Peek(id)
}

// Has reports whether id is stored.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.Contains(id)
}

// Len returns the number of stored cards.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.Len()
}

// Cards returns every card in insertion order.
func (s *Store) Cards() []*models.VisualizationCard {
	return s.Filter(nil)
}

// Filter returns the cards matching pred in insertion order. A nil pred
// matches everything. The store itself is not modified.
func (s *Store) Filter(pred Predicate) []*models.VisualizationCard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.cache.Keys()
	out := make([]*models.VisualizationCard, 0, len(keys))
	for _, k := range keys {
		card, ok := s.cache.Peek(k)
		if !ok {
			continue
		}
		if pred == nil || pred(card) {
			out = append(out, card)
		}
	}
	return out
}

// Visible returns the cards that are not hidden by title.
func (s *Store) Visible() []*models.VisualizationCard {
	return s.Filter(Not(TitleContains(s.hidden...)))
}

// TitleContains matches table cards whose title contains any of titles.
func TitleContains(titles ...string) Predicate {
	return func(card *models.VisualizationCard) bool {
		t := card.Table()
		if t == nil {
			return false
		}
		for _, h := range titles {
			if h != "" && strings.Contains(t.Title, h) {
				return true
			}
		}
		return false
	}
}

// OfType matches cards of the given type.
func OfType(typ models.CardType) Predicate {
	return func(card *models.VisualizationCard) bool { return card.Type == typ }
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(card *models.VisualizationCard) bool { return !p(card) }
}
