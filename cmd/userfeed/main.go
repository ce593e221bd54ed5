// Command userfeed browses a user's posts and comments from the terminal.
//
//	userfeed list <userId> [--tab posts|comments] [--filter all|newest|oldest|liked|following]
//	userfeed comments <postId>
//
// Configuration is read from USERFEED_* environment variables; see
// internal/config.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
