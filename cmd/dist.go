package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shakfu/makefilegen/pkg"
)

var distCmd = &cobra.Command{
	Use:   "dist OUT INPUT...",
	Short: "Pack build artifacts into a compressed archive",
	Long: `Collects the given files and directories into a tar archive compressed
with xz (default) or brotli.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("compression")
		compression, err := pkg.ParseCompression(name)
		if err != nil {
			return err
		}

		pkg.PrintTask("Packing " + args[0])
		if err := pkg.WriteArchive(args[0], args[1:], compression); err != nil {
			return err
		}
		pkg.PrintTask("Done")
		return nil
	},
}

func init() {
	distCmd.Flags().String("compression", "xz", "archive compression (xz or br)")

	rootCmd.AddCommand(distCmd)
}
