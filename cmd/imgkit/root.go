package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/imgkit/version"
)

func newRootCommand() *cobra.Command {
	var (
		flags globalFlags
		a     *app
	)

	root := &cobra.Command{
		Use:   "imgkit",
		Short: "Upload, list and delete hosted images",
		Long: `imgkit stores images on S3-compatible buckets (AWS, R2, MinIO) or on
ImgLa/Lsky instances and keeps a local history of every upload.

Credentials come from config.yml, .env or IMGKIT_* environment variables,
for example IMGKIT_UPLOADER_S3_BUCKET or IMGKIT_UPLOADER_IMGLA_TOKEN.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = newApp(cmd.Context(), flags)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a != nil {
				a.close(cmd.Context())
			}
		},
	}

	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (default: search ./, ./config, user config dir)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", ".env file to load")
	root.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "debug logging")

	get := func() *app { return a }
	root.AddCommand(
		newUploadCommand(get),
		newPresignCommand(get),
		newDeleteCommand(get),
		newHistoryCommand(get),
		newImgLaCommand(get),
		newFetchCommand(get),
		newServeCommand(get),
	)
	return root
}
