package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/userfeed/pkg/feed"
	"github.com/Sternrassler/userfeed/pkg/pagination"
	"github.com/Sternrassler/userfeed/pkg/userpage"
	"github.com/spf13/cobra"
)

type listOptions struct {
	tab         string
	filter      string
	pages       int
	interactive bool
	wait        time.Duration
}

func newListCmd(root *rootOptions) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list <userId>",
		Short: "List a user's posts or comments with infinite scroll",
		Long: `Lists the posts or comments of a user, four at a time.

Interactive keys (followed by Enter):
  <empty>     scroll to the bottom (loads the next page)
  p, c        switch to the posts or comments tab
  f <filter>  change the filter (all, newest, oldest, liked, following)
  r           retry after a failed load
  R           drop cached pages and reload
  q           quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := userpage.ParseTab(opts.tab)
			if err != nil {
				return err
			}
			filter, err := feed.ParseFilter(opts.filter)
			if err != nil {
				return err
			}

			a, err := root.load()
			if err != nil {
				return err
			}
			defer a.Close()

			coord := userpage.New(userpage.NewQuerySource(a.queries, a.api), userpage.Config{
				UserID: args[0],
				Tab:    tab,
				Filter: filter,
			})
			defer coord.Close()

			if opts.interactive {
				return runInteractive(cmd.Context(), coord, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			return runBatch(cmd.Context(), coord, cmd.OutOrStdout(), opts.pages, opts.wait)
		},
	}

	cmd.Flags().StringVar(&opts.tab, "tab", "posts", "posts or comments")
	cmd.Flags().StringVar(&opts.filter, "filter", "all", "all, newest, oldest, liked or following")
	cmd.Flags().IntVar(&opts.pages, "pages", 1, "pages to load before printing (non-interactive)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "scroll interactively")
	cmd.Flags().DurationVar(&opts.wait, "timeout", 30*time.Second, "give up waiting for a page after this long")
	return cmd
}

// settled reports whether no fetch is running for the view.
func settled(v userpage.View) bool {
	return v.State != pagination.StateLoading && v.State != pagination.StateFetchingNext
}

// waitSettled blocks until the coordinator has no fetch in flight.
func waitSettled(ctx context.Context, coord *userpage.Coordinator, timeout time.Duration) (userpage.View, error) {
	changed := make(chan struct{}, 1)
	unsubscribe := coord.Subscribe(func(userpage.View) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	if ctx == nil {
		ctx = context.Background()
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if v := coord.View(); settled(v) {
			return v, nil
		}
		select {
		case <-changed:
		case <-deadline.C:
			return coord.View(), fmt.Errorf("timed out after %s waiting for the listing", timeout)
		case <-ctx.Done():
			return coord.View(), ctx.Err()
		}
	}
}

// scroll reports the bottom marker leaving and re-entering the viewport.
func scroll(coord *userpage.Coordinator) {
	coord.Trigger().Set(false)
	coord.Trigger().Set(true)
}

func runBatch(ctx context.Context, coord *userpage.Coordinator, out io.Writer, pages int, timeout time.Duration) error {
	v, err := waitSettled(ctx, coord, timeout)
	if err != nil {
		return err
	}
	for loaded := 1; loaded < pages && v.HasNextPage && v.Err == nil; loaded++ {
		scroll(coord)
		if v, err = waitSettled(ctx, coord, timeout); err != nil {
			return err
		}
	}

	renderView(out, v)
	if v.Err != nil {
		return v.Err
	}
	return nil
}

func runInteractive(ctx context.Context, coord *userpage.Coordinator, in io.Reader, out io.Writer) error {
	var mu sync.Mutex
	show := func(v userpage.View) {
		mu.Lock()
		defer mu.Unlock()
		renderView(out, v)
		fmt.Fprint(out, "> ")
	}
	say := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, format+"\n", args...)
	}

	unsubscribe := coord.Subscribe(show)
	defer unsubscribe()
	show(coord.View())

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			scroll(coord)
		case line == "q":
			return nil
		case line == "r":
			coord.Retry()
		case line == "R":
			if err := coord.Refresh(ctx); err != nil {
				say("refresh failed: %v", err)
			}
		case line == "p" || line == "c":
			tab, _ := userpage.ParseTab(line)
			coord.SetTab(tab)
		case strings.HasPrefix(line, "f "):
			filter, err := feed.ParseFilter(strings.TrimPrefix(line, "f "))
			if err != nil {
				say("%v", err)
				continue
			}
			coord.SetFilter(filter)
		default:
			say("unknown command %q", line)
		}
	}
	return scanner.Err()
}
