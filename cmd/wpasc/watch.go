package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wpasc/wpasc/internal/ui"
	"github.com/wpasc/wpasc/internal/watch"
)

var postWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Push posts automatically when content.adoc changes",
	Long: `Watch the blog's post directories and push a post whenever its
content.adoc is saved and the rendered HTML changed.

Saves are debounced (watch_debounce, default 500ms). Posts below the blog's
minimum post id are never pushed. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeEngine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEngine()

		w, err := watch.NewWithConfig(engine, engine.Store(), &watch.Config{
			Debounce: cfg.WatchDebounce,
			Logger:   newLogger("[watch] ", true),
		})
		if err != nil {
			return err
		}

		fmt.Printf("%s Watching %s (Ctrl-C to stop)\n", ui.RenderAccent("👀"), engine.Store().PostsDir())
		return w.Run(cmd.Context())
	},
}

func init() {
	postCmd.AddCommand(postWatchCmd)
}
