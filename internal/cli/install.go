package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/reponimous/internal/engine"
	"github.com/danieljhkim/reponimous/internal/manifest"
)

var (
	installConfig string
	installPath   string
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Merge the configured repositories into a directory",
	Long: `Fetch every repository of the Reponimous file, merge them and move the
result to --path.

The installed tree is made of links into the fetch cache. --path must not
exist; missing parent directories are created.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManifest(installConfig)
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.Install(cmd.Context(), &engine.InstallRequest{
			Repos: m.Repos,
			Path:  installPath,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSuccess(fmt.Sprintf("Installed %s to %s", PrintCount(result.Links, "link", "links"), result.Path))
		PrintList(repositoryList(m.Repos), 1)
		if result.Copied {
			PrintWarning("The merge root was on another device; files were copied instead of linked")
		}
		return nil
	},
}

func init() {
	installCmd.Flags().StringVarP(&installConfig, "config", "c", manifest.DefaultFileName, "Path to the Reponimous file")
	installCmd.Flags().StringVarP(&installPath, "path", "p", "", "Directory to install into (must not exist)")
	_ = installCmd.MarkFlagRequired("path")
}
