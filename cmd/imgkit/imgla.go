package main

import (
	"github.com/spf13/cobra"
)

func newImgLaCommand(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imgla",
		Short: "Query the configured ImgLa instance",
	}

	albums := &cobra.Command{
		Use:   "albums",
		Short: "List albums",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			out, err := a.svc.ListAlbums(cmd.Context(), a.cfg.Uploader.ImgLa)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	strategies := &cobra.Command{
		Use:   "strategies",
		Short: "List storage strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			out, err := a.svc.ListStrategies(cmd.Context(), a.cfg.Uploader.ImgLa)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	var (
		page    int
		albumID int64
	)
	images := &cobra.Command{
		Use:   "images",
		Short: "List one page of remote images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			out, err := a.svc.ListImages(cmd.Context(), a.cfg.Uploader.ImgLa, page, albumID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	images.Flags().IntVar(&page, "page", 1, "page number")
	images.Flags().Int64Var(&albumID, "album", 0, "only images in this album")

	cmd.AddCommand(albums, strategies, images)
	return cmd
}
