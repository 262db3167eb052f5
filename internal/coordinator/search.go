package coordinator

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/rollen/internal/errmsg"
	"github.com/llehouerou/rollen/internal/gateway"
)

const searchDebounce = 500 * time.Millisecond

// SearchState holds the last query and its results.
type SearchState struct {
	Status  Status
	Err     string
	Query   string
	Results []gateway.Track
}

func (s SearchState) clone() SearchState {
	s.Results = slices.Clone(s.Results)
	return s
}

// Search runs catalog searches. SetQuery debounces typed input for
// interactive front ends that search as the user types; Search runs
// immediately and backs the CLI.
type Search struct {
	searcher Searcher
	log      zerolog.Logger
	feed     *Feed[SearchState]

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	last    string // last query sent to the server
	pending string
}

// NewSearch creates a Search coordinator.
func NewSearch(searcher Searcher, log zerolog.Logger) *Search {
	return &Search{
		searcher: searcher,
		log:      log,
		feed:     newFeed(SearchState{}, SearchState.clone),
	}
}

// State returns the current state.
func (s *Search) State() SearchState { return s.feed.Get() }

// Subscribe streams state changes.
func (s *Search) Subscribe() (<-chan SearchState, func()) { return s.feed.Subscribe() }

// Search queries the catalog. A blank query clears the results.
func (s *Search) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		s.clear()
		return nil
	}

	s.feed.update(func(st *SearchState) {
		st.Query = query
		st.Status = StatusLoading
		st.Err = ""
	})

	results, err := s.searcher.Search(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		msg := errmsg.FormatWith(errmsg.OpSearch, query, err)
		s.log.Warn().Err(err).Str("query", query).Msg("search")
		s.feed.update(func(st *SearchState) {
			if st.Query != query {
				return
			}
			st.Status = StatusError
			st.Err = msg
		})
		return err
	}

	s.feed.update(func(st *SearchState) {
		if st.Query != query {
			return
		}
		st.Results = results
		st.Status = StatusReady
	})
	return nil
}

// SetQuery records typed input and searches once it has been stable for a
// short while. Repeating the last searched query does nothing; a newer
// query cancels an in-flight one.
func (s *Search) SetQuery(query string) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = query

	if query == "" {
		s.cancelLocked()
		s.last = ""
		s.clear()
		return
	}

	s.timer = time.AfterFunc(searchDebounce, s.fire)
}

func (s *Search) fire() {
	s.mu.Lock()
	query := s.pending
	if query == s.last {
		s.mu.Unlock()
		return
	}
	s.cancelLocked()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.last = query
	s.mu.Unlock()

	_ = s.Search(ctx, query)
}

// Close cancels pending and in-flight searches.
func (s *Search) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.cancelLocked()
}

func (s *Search) cancelLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Search) clear() {
	s.feed.update(func(st *SearchState) { *st = SearchState{} })
}
