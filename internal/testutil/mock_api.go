// Package testutil provides a mock feed API server for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/userfeed/pkg/feed"
	"github.com/google/uuid"
)

// RPCPrefix is the path the mock serves procedures under.
const RPCPrefix = "/api/trpc/"

// MockAPI is an in-memory feed API serving cursor-paginated listings.
type MockAPI struct {
	server *httptest.Server

	mu           sync.RWMutex
	handlers     map[string]http.HandlerFunc
	users        map[string]feed.User
	posts        map[string][]feed.Post    // by user, newest first
	comments     map[string][]feed.Comment // by user, newest first
	postComments map[string][]feed.Comment // by post, oldest first
	failures     map[string]failure
	calls        map[string]int
	inputs       map[string][]string
	delay        time.Duration

	// RateLimitRemaining is reported in X-RateLimit-Remaining.
	RateLimitRemaining int
	LastRequestHeader  http.Header
}

type failure struct {
	remaining int
	status    int
}

// NewMockAPI starts a mock API server.
func NewMockAPI() *MockAPI {
	m := &MockAPI{
		handlers:           make(map[string]http.HandlerFunc),
		users:              make(map[string]feed.User),
		posts:              make(map[string][]feed.Post),
		comments:           make(map[string][]feed.Comment),
		postComments:       make(map[string][]feed.Comment),
		failures:           make(map[string]failure),
		calls:              make(map[string]int),
		inputs:             make(map[string][]string),
		RateLimitRemaining: 100,
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears call tracking and injected failures.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
	m.inputs = make(map[string][]string)
	m.failures = make(map[string]failure)
	m.LastRequestHeader = nil
}

// SetHandler overrides the handler of a procedure.
func (m *MockAPI) SetHandler(procedure string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[procedure] = handler
}

// SetDelay delays every response.
func (m *MockAPI) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// FailNext makes the next n calls of procedure fail with status.
func (m *MockAPI) FailNext(procedure string, n, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[procedure] = failure{remaining: n, status: status}
}

// CallCount returns how many times procedure was called.
func (m *MockAPI) CallCount(procedure string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[procedure]
}

// Inputs returns the raw inputs procedure was called with, in order.
func (m *MockAPI) Inputs(procedure string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.inputs[procedure])
}

// SeedUser creates a user with numbered posts and comments, newest first:
// "Post 1" is the most recent post.
func (m *MockAPI) SeedUser(name string, posts, comments int) feed.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Second)
	user := feed.User{ID: uuid.NewString(), Name: name, CreatedAt: now.Add(-24 * time.Hour)}
	m.users[user.ID] = user

	for i := 1; i <= posts; i++ {
		created := now.Add(-time.Duration(i) * time.Minute)
		m.posts[user.ID] = append(m.posts[user.ID], feed.Post{
			ID:        uuid.NewString(),
			Title:     fmt.Sprintf("Post %d", i),
			Body:      fmt.Sprintf("Body of post %d", i),
			UserID:    user.ID,
			User:      &user,
			Likes:     i % 3,
			CreatedAt: created,
			UpdatedAt: created,
		})
	}
	for i := 1; i <= comments; i++ {
		created := now.Add(-time.Duration(i) * time.Minute)
		m.comments[user.ID] = append(m.comments[user.ID], feed.Comment{
			ID:        uuid.NewString(),
			Body:      fmt.Sprintf("Comment %d", i),
			PostID:    uuid.NewString(),
			UserID:    user.ID,
			User:      &user,
			CreatedAt: created,
			UpdatedAt: created,
		})
	}
	return user
}

// Posts returns the seeded posts of userID, newest first.
func (m *MockAPI) Posts(userID string) []feed.Post {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.posts[userID])
}

// AddPostComments appends comments to the comment section of postID.
func (m *MockAPI) AddPostComments(postID string, comments ...feed.Comment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range comments {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.PostID = postID
		m.postComments[postID] = append(m.postComments[postID], c)
	}
}

// TagPost files the post postID under tag.
func (m *MockAPI) TagPost(postID string, tag feed.Tag) {
	m.updatePost(postID, func(p *feed.Post) {
		if tag.ID == "" {
			tag.ID = uuid.NewString()
		}
		p.Tags = append(p.Tags, tag)
	})
}

// AddAttachments uploads files to the post postID.
func (m *MockAPI) AddAttachments(postID string, attachments ...feed.Attachment) {
	m.updatePost(postID, func(p *feed.Post) {
		for _, a := range attachments {
			if a.ID == "" {
				a.ID = uuid.NewString()
			}
			a.PostID = postID
			p.Attachments = append(p.Attachments, a)
		}
	})
}

func (m *MockAPI) updatePost(postID string, fn func(p *feed.Post)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, posts := range m.posts {
		for i := range posts {
			if posts[i].ID == postID {
				fn(&posts[i])
				return
			}
		}
	}
}

func (m *MockAPI) serve(w http.ResponseWriter, r *http.Request) {
	procedure := strings.TrimPrefix(r.URL.Path, RPCPrefix)
	input := r.URL.Query().Get("input")

	m.mu.Lock()
	m.calls[procedure]++
	m.inputs[procedure] = append(m.inputs[procedure], input)
	m.LastRequestHeader = r.Header.Clone()
	handler := m.handlers[procedure]
	delay := m.delay
	remaining := m.RateLimitRemaining
	fail, failing := m.failures[procedure]
	if failing {
		fail.remaining--
		if fail.remaining <= 0 {
			delete(m.failures, procedure)
		} else {
			m.failures[procedure] = fail
		}
	}
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", "60")

	if !strings.HasPrefix(r.URL.Path, RPCPrefix) {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "no such path")
		return
	}
	if failing {
		WriteError(w, fail.status, codeForStatus(fail.status), "injected failure")
		return
	}
	if handler != nil {
		handler(w, r)
		return
	}

	switch procedure {
	case "posts.posts":
		m.servePosts(w, input)
	case "comments.user-comments":
		m.serveUserComments(w, input)
	case "comments.all-comments":
		m.servePostComments(w, input)
	case "posts.single-post":
		m.serveSinglePost(w, input)
	case "users.single-user":
		m.serveSingleUser(w, input)
	case "posts.posts-by-tags":
		m.servePostsByTags(w)
	case "attachments.get-post-attachments":
		m.serveAttachments(w, input)
	default:
		WriteError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("No query-procedure on path %q", procedure))
	}
}

func (m *MockAPI) servePosts(w http.ResponseWriter, raw string) {
	var in feed.UserListInput
	if !decodeInput(w, raw, &in) {
		return
	}

	m.mu.RLock()
	posts := slices.Clone(m.posts[in.UserID])
	m.mu.RUnlock()

	switch in.Filter {
	case feed.FilterOldest:
		slices.Reverse(posts)
	case feed.FilterLiked:
		posts = slices.DeleteFunc(posts, func(p feed.Post) bool { return p.Likes == 0 })
	}

	items, next := paginate(posts, func(p feed.Post) string { return p.ID }, in.Cursor, in.Limit)
	WriteResult(w, feed.PostsPage{Posts: items, NextCursor: next})
}

func (m *MockAPI) serveUserComments(w http.ResponseWriter, raw string) {
	var in feed.UserListInput
	if !decodeInput(w, raw, &in) {
		return
	}

	m.mu.RLock()
	comments := slices.Clone(m.comments[in.UserID])
	m.mu.RUnlock()

	if in.Filter == feed.FilterOldest {
		slices.Reverse(comments)
	}

	items, next := paginate(comments, func(c feed.Comment) string { return c.ID }, in.Cursor, in.Limit)
	WriteResult(w, feed.CommentsPage{Comments: items, NextCursor: next})
}

func (m *MockAPI) servePostComments(w http.ResponseWriter, raw string) {
	var in feed.PostInput
	if !decodeInput(w, raw, &in) {
		return
	}

	m.mu.RLock()
	comments := slices.Clone(m.postComments[in.PostID])
	m.mu.RUnlock()

	if comments == nil {
		comments = []feed.Comment{}
	}
	WriteResult(w, comments)
}

func (m *MockAPI) serveSinglePost(w http.ResponseWriter, raw string) {
	var in feed.PostInput
	if !decodeInput(w, raw, &in) {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, posts := range m.posts {
		for _, p := range posts {
			if p.ID == in.PostID {
				WriteResult(w, p)
				return
			}
		}
	}
	WriteError(w, http.StatusNotFound, "NOT_FOUND", "Post not found")
}

func (m *MockAPI) serveSingleUser(w http.ResponseWriter, raw string) {
	var in feed.UserInput
	if !decodeInput(w, raw, &in) {
		return
	}

	m.mu.RLock()
	user, ok := m.users[in.UserID]
	m.mu.RUnlock()

	if !ok {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	WriteResult(w, user)
}

// servePostsByTags groups every post by tag name.
func (m *MockAPI) servePostsByTags(w http.ResponseWriter) {
	m.mu.RLock()
	byName := make(map[string]*feed.TagPosts)
	for _, posts := range m.posts {
		for _, p := range posts {
			for _, tag := range p.Tags {
				group, ok := byName[tag.Name]
				if !ok {
					group = &feed.TagPosts{Tag: tag, Posts: []feed.TaggedPost{}}
					byName[tag.Name] = group
				}
				group.Posts = append(group.Posts, feed.TaggedPost{
					ID:          p.ID,
					Title:       p.Title,
					Body:        p.Body,
					Slug:        p.Slug,
					UserID:      p.UserID,
					User:        p.User,
					Attachments: p.Attachments,
					Likes:       p.Likes,
					CreatedAt:   p.CreatedAt,
				})
			}
		}
	}
	m.mu.RUnlock()

	groups := make([]feed.TagPosts, 0, len(byName))
	for _, g := range byName {
		slices.SortFunc(g.Posts, func(a, b feed.TaggedPost) int { return b.CreatedAt.Compare(a.CreatedAt) })
		groups = append(groups, *g)
	}
	slices.SortFunc(groups, func(a, b feed.TagPosts) int { return strings.Compare(a.Name, b.Name) })
	WriteResult(w, groups)
}

func (m *MockAPI) serveAttachments(w http.ResponseWriter, raw string) {
	var in feed.PostInput
	if !decodeInput(w, raw, &in) {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, posts := range m.posts {
		for _, p := range posts {
			if p.ID == in.PostID {
				attachments := slices.Clone(p.Attachments)
				if attachments == nil {
					attachments = []feed.Attachment{}
				}
				WriteResult(w, attachments)
				return
			}
		}
	}
	WriteError(w, http.StatusNotFound, "NOT_FOUND", "Post not found")
}

func decodeInput(w http.ResponseWriter, raw string, v any) bool {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid input: "+err.Error())
		return false
	}
	return true
}

// paginate returns the page of items starting at the item whose id is
// cursor, and the id of the item after it.
func paginate[T any](items []T, id func(T) string, cursor string, limit int) ([]T, string) {
	if limit <= 0 {
		limit = feed.DefaultPageLimit
	}

	start := 0
	if cursor != "" {
		start = slices.IndexFunc(items, func(item T) bool { return id(item) == cursor })
		if start < 0 {
			return []T{}, ""
		}
	}

	end := min(start+limit, len(items))
	page := slices.Clone(items[start:end])
	if page == nil {
		page = []T{}
	}
	if end < len(items) {
		return page, id(items[end])
	}
	return page, ""
}

// WriteResult writes a successful procedure response.
func WriteResult(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":     nil,
		"result": map[string]any{"type": "data", "data": data},
	})
}

// WriteError writes a failed procedure response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"id": nil,
		"error": map[string]any{
			"message": message,
			"code":    -32603,
			"data":    map[string]any{"code": code, "httpStatus": status},
		},
	})
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case status == http.StatusNotFound:
		return "NOT_FOUND"
	case status >= 500:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "BAD_REQUEST"
	}
}
