package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	wpsync "github.com/wpasc/wpasc/internal/sync"
	"github.com/wpasc/wpasc/internal/ui"
	"github.com/wpasc/wpasc/internal/wordpress"
)

var postCmd = &cobra.Command{
	Use:     "post",
	GroupID: "posts",
	Short:   "Create, pull and push posts",
	Long: `Work with the posts of a blog (--blog, or the default blog).

Typical flow:
  wpasc post pull 120-140        fetch metadata for existing posts
  wpasc post edit -i 131         edit posts/131/content.adoc
  wpasc post changed -i 131      check whether the HTML changed
  wpasc post push -i 131         send the rendered HTML`,
}

var postNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a remote post from AsciiDoc",
	Long: `Create a post on the blog and set up its local directory.

The content comes from --content, from --file, or from stdin with --file -.
Without --title, a leading "//title: ..." line of the content is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		title, _ := flags.GetString("title")
		excerpt, _ := flags.GetString("excerpt")
		content, _ := flags.GetString("content")
		file, _ := flags.GetString("file")
		status, _ := flags.GetString("status")
		dateStr, _ := flags.GetString("date")

		if file != "" {
			data, err := readContentFile(file)
			if err != nil {
				return err
			}
			content = data
		}

		var date time.Time
		if dateStr != "" {
			var err error
			if date, err = parseDate(dateStr, time.Now()); err != nil {
				return err
			}
		}

		engine, closeEngine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		res, err := engine.Create(cmd.Context(), wpsync.NewPost{
			Title:   title,
			Excerpt: excerpt,
			Content: content,
			Status:  status,
			Date:    date,
		})
		if err != nil {
			return err
		}

		fmt.Printf("%s Created post %d: %s\n", ui.RenderPass("✓"), res.Post.ID, res.Post.Title)
		fmt.Printf("   %s\n", engine.Store().ContentPath(res.Post.ID))
		return nil
	},
}

var postListCmd = &cobra.Command{
	Use:   "list",
	Short: "List remote posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		number, _ := cmd.Flags().GetInt("number")
		offset, _ := cmd.Flags().GetInt("offset")
		status, _ := cmd.Flags().GetString("status")

		engine, closeEngine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		posts, err := engine.List(cmd.Context(), number, offset, status)
		if err != nil {
			return err
		}
		for _, p := range posts {
			fmt.Printf("%-6d %s\n", p.ID, p.Title)
		}
		return nil
	},
}

var postListLocalCmd = &cobra.Command{
	Use:   "listLocal",
	Short: "List posts known locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeEngine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		posts, err := engine.ListLocal(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range posts {
			fmt.Printf("%-6d %-39s %-9s %s\n",
				p.ID, truncate(p.Title, 39), ui.RenderStatus(p.Status), ui.RenderMuted(humanize.Time(p.UpdatedAt)))
		}
		return nil
	},
}

var postPullCmd = &cobra.Command{
	Use:   "pull ID|FROM-TO...",
	Short: "Pull post metadata",
	Long: `Pull title, excerpt and status of posts into the registry and post.json.

Ranges are inclusive. A failure on one post does not stop the others.
Revisions, auto-drafts and trashed posts are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := wpsync.ParseIDs(args)
		if err != nil {
			return err
		}

		engine, closeEngine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		res := engine.PullRange(cmd.Context(), ids)
		for _, r := range res.Pulled {
			fmt.Printf("%s %-6d %s\n", ui.RenderPass("✓"), r.Post.ID, r.Post.Title)
		}
		for _, id := range res.Skipped {
			fmt.Printf("%s %-6d skipped\n", ui.RenderMuted("-"), id)
		}
		for _, id := range res.Failed {
			fmt.Printf("%s %-6d failed (see log)\n", ui.RenderWarn("⚠"), id)
		}

		if len(res.Pulled) == 0 && len(res.Failed) > 0 {
			return fmt.Errorf("all %d pulls failed", len(res.Failed))
		}
		return nil
	},
}

var postContentCmd = &cobra.Command{
	Use:   "content",
	Short: "Print the remote post content",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt("id")

		engine, closeEngine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		content, err := engine.Content(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Println(content)
		return nil
	},
}

var postRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the HTML a push would send",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt("id")

		engine, closeEngine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		html, err := engine.Render(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Println(html)
		return nil
	},
}

var postUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change post metadata",
	Long: `Change the title, excerpt, status or date of a post, then pull it.

Content is never sent by update; use push for that.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		id, _ := flags.GetInt("id")

		var edit wordpress.Edit
		stringFlag := func(name string) *string {
			if !flags.Changed(name) {
				return nil
			}
			s, _ := flags.GetString(name)
			return &s
		}
		edit.Title = stringFlag("title")
		edit.Excerpt = stringFlag("excerpt")
		edit.Status = stringFlag("status")
		if dateStr := stringFlag("date"); dateStr != nil {
			date, err := parseDate(*dateStr, time.Now())
			if err != nil {
				return err
			}
			edit.Date = &date
		}

		engine, closeEngine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		res, err := engine.Update(cmd.Context(), id, edit)
		if err != nil {
			return err
		}
		fmt.Printf("%s Updated post %d: %s (%s)\n",
			ui.RenderPass("✓"), id, res.Post.Title, ui.RenderStatus(res.Post.Status))
		return nil
	},
}

var postChangedCmd = &cobra.Command{
	Use:   "changed",
	Short: "Report whether the rendered content changed since the last push",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt("id")

		engine, closeEngine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		changed, err := engine.Changed(cmd.Context(), id)
		if err != nil {
			return err
		}
		if changed {
			fmt.Println(ui.RenderWarn("yes"))
		} else {
			fmt.Println(ui.RenderPass("no"))
		}
		return nil
	},
}

var postPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push rendered content",
	Long: `Render content.adoc and send the HTML to the blog.

Nothing is sent when the HTML is the same as at the last push, unless
--force is given. Posts below the blog's minimum post id are never pushed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt("id")
		force, _ := cmd.Flags().GetBool("force")

		engine, closeEngine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		if err := engine.Push(cmd.Context(), id, force); err != nil {
			return err
		}
		fmt.Printf("%s Pushed post %d\n", ui.RenderPass("✓"), id)
		return nil
	},
}

var postEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open content.adoc in your editor",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt("id")

		engine, closeEngine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		return engine.Edit(cmd.Context(), cfg.Editor, id)
	},
}

var postForgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Drop a post from the local listing",
	Long: `Mark the registry record of a post as deleted so listLocal no longer
shows it. Files under posts/<id>/ and the remote post are kept; pulling
the post again restores the record.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt("id")

		engine, closeEngine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		if err := engine.Forget(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("%s Forgot post %d\n", ui.RenderPass("✓"), id)
		return nil
	},
}

// readContentFile reads post content from path, or stdin for "-".
func readContentFile(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func addIDFlag(cmd *cobra.Command) {
	cmd.Flags().IntP("id", "i", 0, "post id")
	_ = cmd.MarkFlagRequired("id")
}

func init() {
	postNewCmd.Flags().StringP("title", "t", "", "post title")
	postNewCmd.Flags().StringP("excerpt", "e", "", "post excerpt")
	postNewCmd.Flags().StringP("content", "c", "", "AsciiDoc content")
	postNewCmd.Flags().String("file", "", "read AsciiDoc content from a file (- for stdin)")
	postNewCmd.Flags().String("status", "draft", "post status")
	postNewCmd.Flags().String("date", "", `publish date, RFC3339 or e.g. "tomorrow 9am"`)
	postNewCmd.MarkFlagsMutuallyExclusive("content", "file")

	postListCmd.Flags().IntP("number", "n", 10, "number of posts (0 for all)")
	postListCmd.Flags().IntP("offset", "o", 0, "skip this many posts")
	postListCmd.Flags().StringP("status", "s", "", "only posts with this status (draft, pending, publish, private)")

	for _, cmd := range []*cobra.Command{postContentCmd, postRenderCmd, postUpdateCmd, postChangedCmd, postPushCmd, postEditCmd, postForgetCmd} {
		addIDFlag(cmd)
	}

	postUpdateCmd.Flags().String("title", "", "new title")
	postUpdateCmd.Flags().String("excerpt", "", "new excerpt")
	postUpdateCmd.Flags().String("status", "", "new status (draft, pending, publish, private)")
	postUpdateCmd.Flags().String("date", "", "new publish date")

	postPushCmd.Flags().BoolP("force", "f", false, "push even if the rendered content did not change")

	postCmd.AddCommand(postNewCmd, postListCmd, postListLocalCmd, postPullCmd, postContentCmd,
		postRenderCmd, postUpdateCmd, postChangedCmd, postPushCmd, postEditCmd, postForgetCmd)
	rootCmd.AddCommand(postCmd)
}
