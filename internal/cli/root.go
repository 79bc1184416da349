// Package cli implements the vidqa command line: process a video, then ask,
// summarize or quiz against it without running the HTTP server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"vidqa/internal/app"
	"vidqa/internal/config"

	"github.com/spf13/cobra"
)

// BuildFunc wires the services a command runs against.
type BuildFunc func(ctx context.Context, cfg config.Config) (*app.App, error)

type options struct {
	format string
	quiet  bool
	build  BuildFunc
}

// NewRootCmd returns the vidqa command tree. A nil build uses app.Build.
func NewRootCmd(build BuildFunc) *cobra.Command {
	if build == nil {
		build = func(ctx context.Context, cfg config.Config) (*app.App, error) {
			return app.Build(ctx, cfg, nil)
		}
	}
	o := &options{build: build}
	root := &cobra.Command{
		Use:           "vidqa",
		Short:         "Ask questions about a YouTube video",
		Long:          "Transcribe a YouTube video, then chat with it, summarize it or quiz yourself on it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&o.format, "format", "f", "text", "Output format: text or json")
	root.PersistentFlags().BoolVarP(&o.quiet, "quiet", "q", false, "Hide the progress spinner")

	root.AddCommand(
		newProcessCmd(o),
		newAskCmd(o),
		newSummaryCmd(o),
		newQuizCmd(o),
		newVideosCmd(o),
	)
	return root
}

// open loads configuration from the environment and builds the services.
// Inline processing is forced; the CLI never hands work to a worker.
func (o *options) open(ctx context.Context) (*app.App, error) {
	cfg := config.Load()
	cfg.ProcessMode = config.ProcessModeInline
	return o.build(ctx, cfg)
}

func (o *options) print(w io.Writer, v any, text func(io.Writer)) error {
	if o.format == "json" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	text(w)
	return nil
}
