package main

import (
	"github.com/Sternrassler/userfeed/pkg/comments"
	"github.com/spf13/cobra"
)

func newCommentsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <postId>",
		Short: "Show the comment section of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.load()
			if err != nil {
				return err
			}
			defer a.Close()

			section, err := comments.NewLoader(a.api).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderSection(cmd.OutOrStdout(), section)
			return nil
		},
	}
}

func newTagsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List posts grouped by tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.load()
			if err != nil {
				return err
			}
			defer a.Close()

			groups, err := comments.NewLoader(a.api).Tagged(cmd.Context())
			if err != nil {
				return err
			}
			renderTags(cmd.OutOrStdout(), groups)
			return nil
		},
	}
}
