package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/storage"
	"github.com/kbukum/imgkit/uploader"
)

func newUploadCommand(get func() *app) *cobra.Command {
	var (
		key         string
		contentType string
		provider    string
		albumID     int64
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file and record it in the history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.InvalidInput("file", err.Error())
			}
			target, err := a.cfg.Uploader.Target(provider)
			if err != nil {
				return err
			}
			res, err := a.svc.Upload(cmd.Context(), uploader.UploadRequest{
				Target:      target,
				Key:         key,
				FileName:    filepath.Base(args[0]),
				ContentType: contentType,
				Data:        data,
				AlbumID:     albumID,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&key, "key", "k", "", "object key (S3 only; default renders the key template)")
	cmd.Flags().StringVarP(&contentType, "content-type", "t", "", "content type (default: sniffed)")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "s3compatible or imgla (default: configured)")
	cmd.Flags().Int64Var(&albumID, "album", 0, "ImgLa album id (default: configured)")
	return cmd
}

func newPresignCommand(get func() *app) *cobra.Command {
	var expires int
	cmd := &cobra.Command{
		Use:   "presign <key>",
		Short: "Print a presigned PUT URL and the public URL for key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			res, err := a.svc.Presign(a.cfg.Uploader.S3, args[0], expires)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVarP(&expires, "expires", "e", storage.DefaultPresignExpiry, "lifetime in seconds (S3 accepts at most 604800)")
	return cmd
}

func newDeleteCommand(get func() *app) *cobra.Command {
	var (
		key       string
		remoteKey int64
		provider  string
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a remote image and drop it from the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if provider == "" && remoteKey != 0 {
				provider = string(storage.ProviderImgLa)
			}
			target, err := a.cfg.Uploader.Target(provider)
			if err != nil {
				return err
			}
			res, err := a.svc.Delete(cmd.Context(), uploader.DeleteRequest{
				Target:    target,
				Key:       key,
				RemoteKey: remoteKey,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&key, "key", "k", "", "S3 object key")
	cmd.Flags().Int64Var(&remoteKey, "remote-key", 0, "ImgLa image id")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "s3compatible or imgla (default: imgla with --remote-key, else configured)")
	cmd.MarkFlagsMutuallyExclusive("key", "remote-key")
	cmd.MarkFlagsOneRequired("key", "remote-key")
	return cmd
}

func newFetchCommand(get func() *app) *cobra.Command {
	var useProxy bool
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download a file, falling back between direct and proxy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if !cmd.Flags().Changed("proxy") {
				useProxy = a.cfg.Download.UseProxy
			}
			p, err := a.fetcher.Fetch(cmd.Context(), args[0], useProxy)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"path": p})
		},
	}
	cmd.Flags().BoolVar(&useProxy, "proxy", false, "try the mirror proxy first")
	return cmd
}
