package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/reponimous/internal/engine"
	"github.com/danieljhkim/reponimous/internal/manifest"
)

var planConfig string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the links a merge would create",
	Long: `Fetch every repository of the Reponimous file and list, per repository,
each link of the merged tree and its target.

Nothing is installed or archived; only the fetch cache is updated.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManifest(planConfig)
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.Plan(cmd.Context(), &engine.PlanRequest{Repos: m.Repos})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		for _, repo := range result.Repositories {
			PrintSection(fmt.Sprintf("%s@%s (%s)", repo.Git, repo.Ref, repo.Mode))
			if len(repo.Links) == 0 {
				PrintEmptyState("No links")
				continue
			}
			rows := make([][]string, 0, len(repo.Links))
			for _, l := range repo.Links {
				rows = append(rows, []string{l.Location, l.Kind, l.Target})
			}
			PrintTable([]string{"Location", "Kind", "Target"}, rows)
		}

		PrintSeparator()
		PrintInfo(fmt.Sprintf("%s from %s",
			PrintCount(result.Links(), "link", "links"),
			PrintCount(len(result.Repositories), "repository", "repositories")))
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planConfig, "config", "c", manifest.DefaultFileName, "Path to the Reponimous file")
}
