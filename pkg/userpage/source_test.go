package userpage

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/userfeed/internal/testutil"
	"github.com/Sternrassler/userfeed/pkg/client"
	"github.com/Sternrassler/userfeed/pkg/feed"
	"github.com/Sternrassler/userfeed/pkg/pagination"
	"github.com/Sternrassler/userfeed/pkg/query"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuerySource(t *testing.T, mock *testutil.MockAPI) *QuerySource {
	t.Helper()

	api, err := client.New(client.DefaultConfig(mock.URL(), "userpage-test/1.0"))
	require.NoError(t, err)
	api.SetRetryPolicy(func(client.ErrorClass) client.RetryConfig {
		return client.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 1}
	})

	logger := zerolog.Nop()
	cfg := query.DefaultConfig()
	cfg.Logger = &logger
	queries := query.NewClient(cfg)
	t.Cleanup(func() {
		queries.Close()
		api.Close()
	})

	return NewQuerySource(queries, api)
}

func waitView(t *testing.T, c *Coordinator, cond func(View) bool) View {
	t.Helper()
	require.Eventually(t, func() bool { return cond(c.View()) }, 2*time.Second, 5*time.Millisecond)
	return c.View()
}

func TestQuerySource_ScrollThroughPosts(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	user := mock.SeedUser("ada", 6, 2)

	c := newTestCoordinator(t, newQuerySource(t, mock), Config{UserID: user.ID})

	view := waitView(t, c, func(v View) bool { return v.State == pagination.StateLoaded })
	require.Len(t, view.Posts, feed.DefaultPageLimit)
	assert.True(t, view.HasNextPage)
	assert.Equal(t, "Post 1", view.Posts[0].Title)

	c.Trigger().Set(true)
	view = waitView(t, c, func(v View) bool { return v.State == pagination.StateLoaded && len(v.Posts) == 6 })
	assert.False(t, view.HasNextPage)
	assert.Equal(t, "Post 6", view.Posts[5].Title)

	assert.Equal(t, 2, mock.CallCount("posts.posts"))
	assert.Zero(t, mock.CallCount("comments.user-comments"), "inactive tab never calls the API")

	c.SetTab(TabComments)
	view = waitView(t, c, func(v View) bool { return v.Tab == TabComments && v.State == pagination.StateLoaded })
	assert.Len(t, view.Comments, 2)
	assert.Equal(t, 1, mock.CallCount("comments.user-comments"))
}

func TestQuerySource_EmptyUser(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	user := mock.SeedUser("quiet", 0, 0)

	c := newTestCoordinator(t, newQuerySource(t, mock), Config{UserID: user.ID, Tab: TabComments})

	view := waitView(t, c, func(v View) bool { return v.Empty })
	assert.Equal(t, TabComments.EmptyMessage(), view.EmptyMessage)
	assert.Zero(t, mock.CallCount("posts.posts"))
}

func TestQuerySource_FirstPageFailureThenRetry(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	user := mock.SeedUser("ada", 2, 0)
	mock.FailNext("posts.posts", 2, 500)

	c := newTestCoordinator(t, newQuerySource(t, mock), Config{UserID: user.ID})

	view := waitView(t, c, func(v View) bool { return v.State == pagination.StateFailed })
	assert.ErrorIs(t, view.Err, client.ErrRetryExhausted)
	assert.False(t, view.Empty)

	require.True(t, c.Retry())
	view = waitView(t, c, func(v View) bool { return v.State == pagination.StateLoaded })
	assert.Len(t, view.Posts, 2)
	assert.NoError(t, view.Err)
}

func TestQuerySource_FilterChangeSendsNewQuery(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	user := mock.SeedUser("ada", 5, 0)

	c := newTestCoordinator(t, newQuerySource(t, mock), Config{UserID: user.ID})
	waitView(t, c, func(v View) bool { return v.State == pagination.StateLoaded })

	c.SetFilter(feed.FilterOldest)
	view := waitView(t, c, func(v View) bool {
		return v.Filter == feed.FilterOldest && v.State == pagination.StateLoaded
	})
	assert.Equal(t, "Post 5", view.Posts[0].Title)

	inputs := mock.Inputs("posts.posts")
	require.Len(t, inputs, 2)
	assert.Contains(t, inputs[1], `"filter":"oldest"`)
	assert.NotContains(t, inputs[1], "cursor", "a new filter starts without a cursor")
}

func TestQuerySource_Refresh(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	user := mock.SeedUser("ada", 3, 0)

	c := newTestCoordinator(t, newQuerySource(t, mock), Config{UserID: user.ID})
	waitView(t, c, func(v View) bool { return v.State == pagination.StateLoaded })

	require.NoError(t, c.Refresh(context.Background()))
	require.Eventually(t, func() bool {
		return mock.CallCount("posts.posts") == 2 && c.View().State == pagination.StateLoaded
	}, 2*time.Second, 5*time.Millisecond)
}

func TestQuerySource_CoordinatorsShareListings(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	user := mock.SeedUser("ada", 6, 2)

	src := newQuerySource(t, mock)
	a := newTestCoordinator(t, src, Config{UserID: user.ID})
	b := newTestCoordinator(t, src, Config{UserID: user.ID})

	loaded := func(v View) bool { return v.State == pagination.StateLoaded }
	waitView(t, a, loaded)
	waitView(t, b, loaded)
	assert.Equal(t, 1, mock.CallCount("posts.posts"), "one query serves both pages")

	// A moves away from the shared listings
	a.SetTab(TabComments)
	a.SetFilter(feed.FilterNewest)
	waitView(t, a, func(v View) bool { return v.Filter == feed.FilterNewest && loaded(v) })

	b.Trigger().Set(true)
	view := waitView(t, b, func(v View) bool { return loaded(v) && len(v.Posts) == 6 })
	assert.False(t, view.HasNextPage)
	assert.NoError(t, view.Err)

	a.Close()
	b.Trigger().Set(false)
	require.NoError(t, b.Refresh(context.Background()))
	waitView(t, b, func(v View) bool { return loaded(v) && len(v.Posts) == feed.DefaultPageLimit })
}
