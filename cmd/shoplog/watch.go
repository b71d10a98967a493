package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgao/shoplog/internal/watch"
)

var (
	debounce    time.Duration
	watchUpload bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <logfile> <output>",
	Short: "Re-run convert every time the log file changes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchUpload && uploader == "" {
			return fmt.Errorf("--upload needs --uploader")
		}
		logfile, output := args[0], args[1]
		out := cmd.OutOrStdout()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		w, err := watch.New(logfile, func(ctx context.Context, path string) error {
			written, err := convertFile(path, output, withXLSX)
			if err != nil {
				return reportInvalid(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(out, "%s converted to %d files\n", time.Now().Format(time.TimeOnly), len(written))
			if !watchUpload {
				return nil
			}
			return uploadFile(ctx, cmd, path)
		}, watch.Config{Debounce: debounce, Initial: true}, nil)
		if err != nil {
			return err
		}

		if err := w.Start(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "watching %s, Ctrl-C to stop\n", w.Path())
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return w.Stop(stopCtx)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-running")
	watchCmd.Flags().BoolVar(&watchUpload, "upload", false, "also upload after each conversion")
	watchCmd.Flags().StringVar(&uploader, "uploader", "", "uploader id used with --upload")
	watchCmd.Flags().BoolVar(&withXLSX, "xlsx", false, "also write <output>.xlsx")
}
