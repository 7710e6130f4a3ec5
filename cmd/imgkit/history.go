package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/imgkit/ledger"
	"github.com/kbukum/imgkit/storage"
)

func newHistoryCommand(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and edit the local upload history",
	}

	var provider string
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded uploads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p storage.Provider
			if provider != "" {
				parsed, err := storage.ParseProvider(provider)
				if err != nil {
					return err
				}
				p = parsed
			}
			return printJSON(cmd.OutOrStdout(), get().svc.History(p))
		},
	}
	list.Flags().StringVarP(&provider, "provider", "p", "", "only show s3compatible or imgla records")

	var id ledger.Identity
	del := &cobra.Command{
		Use:   "delete",
		Short: "Drop history entries without touching the remote copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			removed, err := get().svc.DeleteHistory(id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{"removed": removed})
		},
	}
	del.Flags().StringVar(&id.Bucket, "bucket", "", "bucket of the S3 record")
	del.Flags().StringVarP(&id.Key, "key", "k", "", "key of the S3 record")
	del.Flags().StringVar(&id.PublicURL, "public-url", "", "also require this public URL")
	del.Flags().Int64Var(&id.RemoteKey, "remote-key", 0, "ImgLa image id")

	cmd.AddCommand(list, del)
	return cmd
}
