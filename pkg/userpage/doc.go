// Package userpage coordinates the two infinitely scrolled listings of a
// user profile page.
//
// The page has two tabs, posts and comments, each backed by its own
// cursor-paginated stream. Only the active tab's stream is enabled; the
// other one stays idle and never touches the network. Both streams share
// the selected filter and a single scroll trigger: when the bottom marker
// becomes visible the coordinator fetches the next page of the active
// stream, unless it is exhausted or already fetching.
//
// A Coordinator publishes a View after every change. The View carries the
// flattened items of the active tab and what to show around them: loading
// placeholders on first load, an inline placeholder while the next page
// loads, the empty message, or the last fetch error.
package userpage
