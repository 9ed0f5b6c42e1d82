package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wpasc/wpasc/internal/schema"
	"github.com/wpasc/wpasc/internal/ui"
)

var blogCmd = &cobra.Command{
	Use:     "blog",
	GroupID: "blogs",
	Short:   "Manage registered blogs",
	Long: `Register the WordPress blogs wpasc syncs with.

A blog records the site URL, the XML-RPC credentials and the local
directory holding its posts. One blog can be the default; commands use it
when --blog is not given.`,
}

var blogAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Register a blog",
	Long: `Register a blog.

The password is asked for interactively when --password is not given.
--min-post-id protects older posts: pushes to ids below it are refused.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		blog := &schema.Blog{Name: args[0]}
		blog.URL, _ = flags.GetString("url")
		blog.Username, _ = flags.GetString("username")
		blog.Password, _ = flags.GetString("password")
		blog.MinPostID, _ = flags.GetInt("min-post-id")
		blog.Dir, _ = flags.GetString("dir")
		blog.Append, _ = flags.GetString("append")
		blog.Default, _ = flags.GetBool("default")

		if blog.Dir == "" {
			blog.Dir = blog.Name
		}
		dir, err := filepath.Abs(blog.Dir)
		if err != nil {
			return err
		}
		blog.Dir = dir

		if blog.Password == "" {
			if !isTerminal() {
				return fmt.Errorf("--password is required when stdin is not a terminal")
			}
			err := huh.NewInput().
				Title(fmt.Sprintf("Password for %s@%s", blog.Username, blog.URL)).
				EchoMode(huh.EchoModePassword).
				Value(&blog.Password).
				Run()
			if err != nil {
				return err
			}
		}

		if err := reg.CreateBlog(cmd.Context(), blog); err != nil {
			return err
		}
		if err := os.MkdirAll(blog.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create blog directory: %w", err)
		}

		fmt.Printf("%s Added blog %s (%s)\n", ui.RenderPass("✓"), blog.Name, blog.Dir)
		return nil
	},
}

var blogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered blogs",
	RunE: func(cmd *cobra.Command, args []string) error {
		blogs, err := reg.ListBlogs(cmd.Context())
		if err != nil {
			return err
		}
		if len(blogs) == 0 {
			fmt.Printf("No blogs registered. Run 'wpasc blog add NAME --url URL --username USER'\n")
			return nil
		}

		for _, b := range blogs {
			marker := " "
			if b.Default {
				marker = ui.RenderAccent("*")
			}
			count, err := reg.GetPostCount(cmd.Context(), b.Name)
			if err != nil {
				return err
			}
			guard := ""
			if b.MinPostID > 0 {
				guard = ui.RenderMuted(fmt.Sprintf(" (min post id %d)", b.MinPostID))
			}
			fmt.Printf("%s %-16s %s %s%s\n", marker, b.Name, b.URL,
				ui.RenderMuted(fmt.Sprintf("[%d posts]", count)), guard)
		}
		return nil
	},
}

var blogUpdateCmd = &cobra.Command{
	Use:   "update NAME",
	Short: "Change blog settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var patch schema.BlogPatch

		stringFlag := func(name string) *string {
			if !flags.Changed(name) {
				return nil
			}
			s, _ := flags.GetString(name)
			return &s
		}
		patch.URL = stringFlag("url")
		patch.Username = stringFlag("username")
		patch.Password = stringFlag("password")
		patch.Append = stringFlag("append")
		if dir := stringFlag("dir"); dir != nil {
			abs, err := filepath.Abs(*dir)
			if err != nil {
				return err
			}
			patch.Dir = &abs
		}
		if flags.Changed("min-post-id") {
			n, _ := flags.GetInt("min-post-id")
			patch.MinPostID = &n
		}
		if flags.Changed("default") {
			d, _ := flags.GetBool("default")
			patch.Default = &d
		}

		blog, err := reg.UpdateBlog(cmd.Context(), args[0], patch)
		if err != nil {
			return err
		}
		fmt.Printf("%s Updated blog %s\n", ui.RenderPass("✓"), blog.Name)
		return nil
	},
}

var blogShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show blog settings (without the password)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blog, err := reg.GetBlog(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(blog.Sanitized())
		if err != nil {
			return fmt.Errorf("failed to encode blog: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

var blogRmCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Unregister a blog",
	Long: `Unregister a blog and forget its post records.

The blog's directory and the remote posts are left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		yes, _ := cmd.Flags().GetBool("yes")

		if !yes {
			if !isTerminal() {
				return fmt.Errorf("refusing to remove blog %s without --yes", name)
			}
			err := huh.NewConfirm().
				Title(fmt.Sprintf("Remove blog %s and its post records?", name)).
				Value(&yes).
				Run()
			if err != nil {
				return err
			}
			if !yes {
				fmt.Println("Aborted")
				return nil
			}
		}

		if err := reg.DeleteBlog(cmd.Context(), name); err != nil {
			return err
		}
		fmt.Printf("%s Removed blog %s\n", ui.RenderPass("✓"), name)
		return nil
	},
}

func addBlogFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", "", "site URL, e.g. https://example.com")
	cmd.Flags().String("username", "", "XML-RPC user")
	cmd.Flags().String("password", "", "XML-RPC password (prompted when omitted)")
	cmd.Flags().Int("min-post-id", 0, "refuse pushes to posts below this id")
	cmd.Flags().String("dir", "", "local directory for posts (default ./NAME)")
	cmd.Flags().String("append", "", `attributes of a hidden div carrying the AsciiDoc source, e.g. 'style="display:none"'`)
	cmd.Flags().Bool("default", false, "make this the default blog")
}

func init() {
	addBlogFlags(blogAddCmd)
	_ = blogAddCmd.MarkFlagRequired("url")
	_ = blogAddCmd.MarkFlagRequired("username")
	addBlogFlags(blogUpdateCmd)
	blogRmCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	blogCmd.AddCommand(blogAddCmd, blogListCmd, blogUpdateCmd, blogShowCmd, blogRmCmd)
	rootCmd.AddCommand(blogCmd)
}
