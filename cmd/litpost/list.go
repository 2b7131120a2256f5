package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/jwtly10/litpost"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "List posts, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runList,
	}

	cmd.Flags().BoolP("recursive", "r", false, "Include posts in subdirectories")
	cmd.Flags().Bool("drafts", false, "Include posts marked as drafts")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	posts, err := litpost.LoadPosts(os.DirFS(cfg.Posts), cfg.LoadOptions())
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s no posts in %s\n", warningStyle.Render("!"), cfg.Posts)
		return nil
	}

	tbl := table.New("Slug", "Date", "Title", "Format", "Tags").
		WithHeaderFormatter(tableHeader).
		WithFirstColumnFormatter(tableKey).
		WithWriter(cmd.OutOrStdout())

	for _, post := range posts {
		date := "-"
		if t, ok := post.Date(cfg.DateFormat); ok {
			date = t.Format("2006-01-02")
		}
		title := post.Title()
		if post.Metadata.Draft {
			title += " (draft)"
		}
		tbl.AddRow(post.Slug, date, title, post.Format, strings.Join(post.Metadata.Tags, ", "))
	}
	tbl.Print()

	return nil
}
