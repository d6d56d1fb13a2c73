package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/reponimous/internal/engine"
	"github.com/danieljhkim/reponimous/internal/manifest"
)

var (
	archiveConfig string
	archivePath   string
	archiveName   string
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Merge the configured repositories into a tarball",
	Long: `Fetch every repository of the Reponimous file, merge them and pack the
result into a gzip-compressed tarball.

Links are dereferenced, so the archive holds real file contents. The archive
is named reponimous-<timestamp>.tgz unless --name is given, and is written to
--path (default: the current directory).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManifest(archiveConfig)
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.Archive(cmd.Context(), &engine.ArchiveRequest{
			Repos: m.Repos,
			Dir:   archivePath,
			Name:  archiveName,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSuccess(fmt.Sprintf("Archived reponimous to %s", result.Path))
		PrintLabelValue("SHA-256", result.Digest)
		PrintLabelValue("Links", fmt.Sprintf("%d", result.Links))
		PrintList(repositoryList(m.Repos), 1)
		return nil
	},
}

func init() {
	archiveCmd.Flags().StringVarP(&archiveConfig, "config", "c", manifest.DefaultFileName, "Path to the Reponimous file")
	archiveCmd.Flags().StringVarP(&archivePath, "path", "p", "", "Directory to write the archive to (default: current directory)")
	archiveCmd.Flags().StringVarP(&archiveName, "name", "n", "", "Archive file name (.tgz is appended when missing)")
}
