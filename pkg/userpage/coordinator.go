package userpage

import (
	"context"
	"sync"

	"github.com/Sternrassler/userfeed/pkg/feed"
	"github.com/Sternrassler/userfeed/pkg/logging"
	"github.com/Sternrassler/userfeed/pkg/pagination"
	"github.com/rs/zerolog"
)

// LoadingPlaceholders is the number of placeholder cards shown while the
// first page of a listing loads.
const LoadingPlaceholders = 4

// Config holds the initial coordinator inputs.
type Config struct {
	UserID string
	Tab    Tab
	Filter feed.Filter

	// Logger overrides the component logger (optional)
	Logger *zerolog.Logger
}

// View is what the profile listing shows at one instant.
type View struct {
	Tab    Tab
	Filter feed.Filter
	UserID string

	// Posts or Comments holds the items of the active tab; the other is nil.
	Posts    []feed.Post
	Comments []feed.Comment

	State pagination.State

	// LoadingPlaceholders is non-zero only while the first page loads.
	LoadingPlaceholders int

	// FetchingMore asks for one inline placeholder after the items.
	FetchingMore bool

	HasNextPage bool

	// Empty is set once a listing finished without items and without error.
	Empty        bool
	EmptyMessage string

	// Err is the last fetch error of the active stream.
	Err error
}

// Coordinator drives the two listings of a profile page. All methods are
// safe for concurrent use; stream updates arrive on fetch goroutines.
type Coordinator struct {
	source  Source
	logger  zerolog.Logger
	trigger *pagination.Trigger

	mu            sync.Mutex
	tab           Tab
	filter        feed.Filter
	userID        string
	reachedBottom bool
	openErr       error
	posts         *slot[feed.Post]
	comments      *slot[feed.Comment]
	closed        bool

	subs    map[int]func(View)
	nextSub int

	// publishMu orders deliveries: a View is built and delivered before
	// the next one is built, so the last View seen is the current one.
	publishMu sync.Mutex
}

// New creates a coordinator and opens the listings of cfg.UserID.
// Without a user ID no stream is opened until SetUserID.
func New(source Source, cfg Config) *Coordinator {
	if cfg.Tab == "" {
		cfg.Tab = TabPosts
	}
	if cfg.Filter == "" {
		cfg.Filter = feed.FilterAll
	}

	logger := logging.NewLogger(logging.ComponentCoordinator)
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	c := &Coordinator{
		source: source,
		logger: logger,
		tab:    cfg.Tab,
		filter: cfg.Filter,
		userID: cfg.UserID,
		subs:   make(map[int]func(View)),
	}
	c.trigger = pagination.NewTrigger(c.OnScrollTriggerChanged)

	c.mu.Lock()
	c.openLocked()
	c.mu.Unlock()

	return c
}

// Trigger returns the scroll trigger. Renderers report the bottom marker's
// visibility to it as often as they like; only changes reach the coordinator.
func (c *Coordinator) Trigger() *pagination.Trigger {
	return c.trigger
}

// Subscribe registers fn to receive a View after every change.
// fn may be called from fetch goroutines. Views arrive in order, one at a
// time; fn must not block or call back into the coordinator.
func (c *Coordinator) Subscribe(fn func(View)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// SetTab activates tab. The previously active stream is disabled and the
// current trigger value is applied to the new one.
func (c *Coordinator) SetTab(tab Tab) {
	c.mu.Lock()
	if c.closed || c.tab == tab {
		c.mu.Unlock()
		return
	}
	c.tab = tab
	tabSwitchesTotal.WithLabelValues(string(tab)).Inc()
	c.logger.Debug().Str("tab", string(tab)).Msg("Tab changed")

	if inactive := c.inactiveLocked(); inactive != nil {
		inactive.setEnabled(false)
	}
	if active := c.activeLocked(); active != nil {
		active.setEnabled(true)
		if c.reachedBottom {
			c.fetchNextLocked(active)
		}
	}
	c.mu.Unlock()

	c.publish()
}

// SetFilter restarts both listings with filter, from their first page.
func (c *Coordinator) SetFilter(filter feed.Filter) {
	c.mu.Lock()
	if c.closed || c.filter == filter {
		c.mu.Unlock()
		return
	}
	c.logger.Debug().Str("filter", string(filter)).Msg("Filter changed")
	c.releaseLocked()
	c.filter = filter
	c.openLocked()
	c.mu.Unlock()

	c.publish()
}

// SetUserID restarts both listings for another user. The empty user ID
// closes them.
func (c *Coordinator) SetUserID(userID string) {
	c.mu.Lock()
	if c.closed || c.userID == userID {
		c.mu.Unlock()
		return
	}
	c.logger.Debug().Str("user_id", userID).Msg("User changed")
	c.releaseLocked()
	c.userID = userID
	c.openLocked()
	c.mu.Unlock()

	c.publish()
}

// OnScrollTriggerChanged handles a change of the bottom marker's visibility.
// Becoming visible fetches the next page of the active listing if it has one
// and no fetch is in flight; otherwise the event is dropped.
func (c *Coordinator) OnScrollTriggerChanged(reachedBottom bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.reachedBottom = reachedBottom
	if !reachedBottom {
		return
	}
	if active := c.activeLocked(); active != nil {
		c.fetchNextLocked(active)
	}
}

// Retry reloads the active listing after its first page failed.
func (c *Coordinator) Retry() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	active := c.activeLocked()
	if c.closed || active == nil {
		return false
	}
	return active.retry()
}

// Refresh drops the cached pages of the active listing and reloads it.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.userID == "" {
		c.mu.Unlock()
		return nil
	}
	tab, userID, filter := c.tab, c.userID, c.filter
	c.mu.Unlock()

	return c.source.Refresh(ctx, tab, userID, filter)
}

// VisiblePosts returns the loaded posts, or nil when the posts tab is inactive.
func (c *Coordinator) VisiblePosts() []feed.Post {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tab != TabPosts || c.posts == nil {
		return nil
	}
	return c.posts.items()
}

// VisibleComments returns the loaded comments, or nil when the comments tab
// is inactive.
func (c *Coordinator) VisibleComments() []feed.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tab != TabComments || c.comments == nil {
		return nil
	}
	return c.comments.items()
}

// EmptyState reports whether the active listing finished without items.
func (c *Coordinator) EmptyState() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked().Empty
}

// LoadingPlaceholderCount returns how many placeholders to show instead of items.
func (c *Coordinator) LoadingPlaceholderCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked().LoadingPlaceholders
}

// FetchingMore reports whether the active listing is fetching its next page.
func (c *Coordinator) FetchingMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked().FetchingMore
}

// View returns the current view.
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Close releases both listings. The coordinator ignores every later call.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.releaseLocked()
	c.closed = true
	c.subs = make(map[int]func(View))
}

func (c *Coordinator) activeLocked() activeSlot {
	if c.tab == TabComments {
		if c.comments != nil {
			return c.comments
		}
		return nil
	}
	if c.posts != nil {
		return c.posts
	}
	return nil
}

func (c *Coordinator) inactiveLocked() activeSlot {
	if c.tab == TabComments {
		if c.posts != nil {
			return c.posts
		}
		return nil
	}
	if c.comments != nil {
		return c.comments
	}
	return nil
}

func (c *Coordinator) fetchNextLocked(active activeSlot) {
	if active.fetchNext() {
		scrollTriggersTotal.WithLabelValues(string(c.tab), "fetched").Inc()
		c.logger.Debug().Str("tab", string(c.tab)).Msg("Fetching next page")
		return
	}
	scrollTriggersTotal.WithLabelValues(string(c.tab), "ignored").Inc()
}

// openLocked opens both streams of the current user and filter and
// enables the active one.
func (c *Coordinator) openLocked() {
	c.openErr = nil
	if c.userID == "" {
		return
	}

	posts, err := c.source.Posts(c.userID, c.filter)
	if err != nil {
		c.openFailedLocked(err)
		return
	}
	comments, err := c.source.Comments(c.userID, c.filter)
	if err != nil {
		c.source.Release(TabPosts, c.userID, c.filter)
		c.openFailedLocked(err)
		return
	}

	c.posts = newSlot(posts, c.onStreamChange)
	c.comments = newSlot(comments, c.onStreamChange)

	c.inactiveLocked().setEnabled(false)
	c.activeLocked().setEnabled(true)

	c.logger.Debug().
		Str("user_id", c.userID).
		Str("filter", string(c.filter)).
		Str("tab", string(c.tab)).
		Msg("Listings opened")
}

func (c *Coordinator) openFailedLocked(err error) {
	c.openErr = err
	c.logger.Error().Err(err).Str("user_id", c.userID).Msg("Failed to open listings")
}

// releaseLocked closes both slots and gives their streams back.
func (c *Coordinator) releaseLocked() {
	if c.posts != nil {
		c.posts.close()
		c.posts = nil
	}
	if c.comments != nil {
		c.comments.close()
		c.comments = nil
	}
	if c.userID != "" && c.openErr == nil {
		c.source.Release(TabPosts, c.userID, c.filter)
		c.source.Release(TabComments, c.userID, c.filter)
	}
	c.openErr = nil
}

// onStreamChange runs on fetch goroutines.
func (c *Coordinator) onStreamChange() {
	c.publish()
}

func (c *Coordinator) publish() {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.mu.Lock()
	if c.closed || len(c.subs) == 0 {
		c.mu.Unlock()
		return
	}
	view := c.viewLocked()
	fns := make([]func(View), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(view)
	}
}

func (c *Coordinator) viewLocked() View {
	v := View{
		Tab:    c.tab,
		Filter: c.filter,
		UserID: c.userID,
		State:  pagination.StateIdle,
		Err:    c.openErr,
	}

	active := c.activeLocked()
	if active == nil {
		return v
	}

	st := active.status()
	v.State = st.State
	v.HasNextPage = st.HasNextPage
	v.Err = st.Err
	v.FetchingMore = st.State == pagination.StateFetchingNext
	if st.State == pagination.StateLoading {
		v.LoadingPlaceholders = LoadingPlaceholders
	}

	if c.tab == TabComments {
		v.Comments = c.comments.items()
	} else {
		v.Posts = c.posts.items()
	}

	// Idle and failed listings are not known to be empty
	settled := st.State == pagination.StateLoaded
	if settled && st.Items == 0 && !st.HasNextPage && st.Err == nil {
		v.Empty = true
		v.EmptyMessage = c.tab.EmptyMessage()
	}
	return v
}
