// Command client drives a single bulletin-board operation against one
// server, non-interactively. It speaks the same wire protocol as an
// interactive client but skips the menu/prompt loop entirely in favor of
// one subcommand per operation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khitir/bulletin-board/internal/bbclient"
	"github.com/khitir/bulletin-board/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var serverAddr string
	var mode string

	root := &cobra.Command{
		Use:   "client",
		Short: "Issue bulletin-board operations against one server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch config.Model(mode) {
			case config.Sequential, config.ReadYourWrites, config.Quorum:
				return nil
			default:
				return fmt.Errorf("unknown consistency model %q", mode)
			}
		},
	}
	root.PersistentFlags().StringVar(&serverAddr, "server", "127.0.0.1:9001", "server address (host:port)")
	root.PersistentFlags().StringVar(&mode, "mode", string(config.Sequential), "consistency model: sequential|read_your_writes|quorum")

	newClient := func() (*bbclient.Client, error) {
		c := bbclient.New(serverAddr, config.Model(mode))
		if err := c.Connect(); err != nil {
			return nil, err
		}
		return c, nil
	}

	post := &cobra.Command{
		Use:   "post <title> <content>",
		Args:  cobra.ExactArgs(2),
		Short: "Post a root article",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			id, err := c.PostArticle(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("posted article %d\n", id)
			return nil
		},
	}

	var parentID int64
	reply := &cobra.Command{
		Use:   "reply <title> <content>",
		Args:  cobra.ExactArgs(2),
		Short: "Reply to an existing article",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			id, err := c.ReplyArticle(parentID, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("posted reply %d\n", id)
			return nil
		},
	}
	reply.Flags().Int64Var(&parentID, "parent", 0, "parent article id")
	reply.MarkFlagRequired("parent")

	list := &cobra.Command{
		Use:   "list",
		Short: "List known articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			articles, err := c.ReadArticles()
			if err != nil {
				return err
			}
			for _, a := range articles {
				parent := "-"
				if a.ParentID != nil {
					parent = fmt.Sprintf("%d", *a.ParentID)
				}
				fmt.Printf("%d\t%s\t%s\n", a.ID, parent, a.Title)
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <article_id>",
		Args:  cobra.ExactArgs(1),
		Short: "Print one article's title and content",
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid article id %q", args[0])
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			content, err := c.ReadArticleContent(id)
			if err != nil {
				return err
			}
			fmt.Printf("ID: %d\nTitle: %s\nContent: %s\n", content.Article.ID, content.Article.Title, content.Article.Content)
			return nil
		},
	}

	root.AddCommand(post, reply, list, show)
	return root
}
