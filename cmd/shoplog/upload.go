package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgao/shoplog/internal/client"
)

var (
	serverURL string
	uploader  string
	timeout   time.Duration
)

var uploadCmd = &cobra.Command{
	Use:   "upload <input>",
	Short: "Send the shops in a log to an indexer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return uploadFile(cmd.Context(), cmd, args[0])
	},
}

func uploadFile(ctx context.Context, cmd *cobra.Command, input string) error {
	records, err := loadRecords(input)
	if err != nil {
		return reportInvalid(cmd.ErrOrStderr(), err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := newClient().UploadRecords(ctx, uploader, records)
	if err != nil {
		return reportAPIError(cmd, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records as %s (index version %d, %d keys changed)\n",
		resp.Message, resp.Receipt.Records, resp.Receipt.Key, resp.Receipt.Version, len(resp.Receipt.Changed))
	return nil
}

func init() {
	uploadCmd.Flags().StringVar(&uploader, "uploader", "", "uploader id sent as X-Uploader-ID")
	uploadCmd.MarkFlagRequired("uploader")
	for _, c := range []*cobra.Command{uploadCmd, indexCmd, watchCmd} {
		c.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "indexer base URL")
		c.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	}
}

func newClient() *client.Client {
	return client.New(serverURL, client.WithTimeout(timeout))
}

// reportAPIError prints the server's per-record messages, if any.
func reportAPIError(cmd *cobra.Command, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		for _, msg := range apiErr.Errors {
			fmt.Fprintln(cmd.ErrOrStderr(), msg)
		}
	}
	return err
}
