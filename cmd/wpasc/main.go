package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wpasc/wpasc/internal/config"
	"github.com/wpasc/wpasc/internal/registry"
	"github.com/wpasc/wpasc/internal/render"
	"github.com/wpasc/wpasc/internal/schema"
	"github.com/wpasc/wpasc/internal/store"
	wpsync "github.com/wpasc/wpasc/internal/sync"
	"github.com/wpasc/wpasc/internal/ui"
	"github.com/wpasc/wpasc/internal/wordpress"
)

var (
	cfgFile  string
	blogName string

	v   = viper.New()
	cfg *config.Config
	reg *registry.DB

	logFile *lumberjack.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wpasc",
	Short: "Write WordPress posts in AsciiDoc",
	Long: `wpasc keeps AsciiDoc posts on disk in sync with WordPress blogs.

Each blog has a directory with one subdirectory per post:

  <dir>/posts/<id>/content.adoc   the AsciiDoc you edit
  <dir>/posts/<id>/post.json      title and excerpt from the last pull

Posts are rendered to HTML locally and pushed over XML-RPC. A push is
skipped when the rendered HTML has not changed since the last one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			return err
		}

		logFile = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
		}

		reg, err = registry.Open(cfg.DB)
		if err != nil {
			return err
		}
		return reg.InitSchemaContext(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logFile != nil {
			_ = logFile.Close()
		}
		if reg != nil {
			return reg.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.wpasc.yaml)")
	rootCmd.PersistentFlags().String("db", "", "registry database (default $HOME/.wp-asciidoc.db)")
	rootCmd.PersistentFlags().StringVarP(&blogName, "blog", "b", "", "blog name (default: the default blog)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "also log to stderr")

	_ = v.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = v.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddGroup(
		&cobra.Group{ID: "blogs", Title: "Blogs:"},
		&cobra.Group{ID: "posts", Title: "Posts:"},
	)
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderWarn("Warning:"), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("Error:"), err)
		if reg != nil {
			_ = reg.Close()
		}
		os.Exit(1)
	}
}

// newLogger returns a logger writing to the rotated log file, and to
// stderr as well when verbose is set or tee is true.
func newLogger(prefix string, tee bool) *log.Logger {
	var w io.Writer = logFile
	if cfg.Verbose || tee {
		w = io.MultiWriter(logFile, os.Stderr)
	}
	return log.New(w, prefix, log.LstdFlags)
}

// resolveBlog returns the blog named by --blog, or the default blog.
func resolveBlog(ctx context.Context) (*schema.Blog, error) {
	if blogName != "" {
		return reg.GetBlog(ctx, blogName)
	}
	blog, err := reg.GetDefaultBlog(ctx)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, fmt.Errorf("no default blog: pass --blog or run 'wpasc blog update NAME --default'")
	}
	return blog, err
}

// newEngine wires the sync engine for the selected blog. The returned
// close function releases the remote connection.
func newEngine(ctx context.Context) (*wpsync.Engine, func(), error) {
	blog, err := resolveBlog(ctx)
	if err != nil {
		return nil, nil, err
	}

	attrs, err := render.LoadAttributes(cfg.Asciidoc, blog.Dir)
	if err != nil {
		return nil, nil, err
	}

	client, err := wordpress.NewClient(blog.URL, blog.Username, blog.Password, nil)
	if err != nil {
		return nil, nil, err
	}

	engine, err := wpsync.NewWithConfig(blog, reg, client, render.NewAsciidoc(), store.NewOS(blog.Dir), &wpsync.Config{
		PullDelay:  cfg.PullDelay,
		PageSize:   cfg.PageSize,
		Attributes: attrs,
		Logger:     newLogger("[sync] ", false),
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	return engine, func() { _ = client.Close() }, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
