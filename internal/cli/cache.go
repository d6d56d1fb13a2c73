package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/reponimous/internal/hash"
)

var cacheCleanAll bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and prune the fetch cache",
	Long: `The fetch cache keeps one clone per repository and ref. Clones are reused
by later runs; branches are pulled, tags and commits are left as they are.`,
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached clones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := newCache()
		if err != nil {
			return err
		}

		entries, err := cache.List(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(entries)
		}

		PrintSection("Fetch Cache")
		PrintLabelValue("Directory", cache.Dir())
		fmt.Println()
		if len(entries) == 0 {
			PrintEmptyState("No cached clones")
			return nil
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				e.Name,
				e.Origin,
				hash.Short(e.Head, 12),
				e.ModTime.Format("2006-01-02 15:04"),
			})
		}
		PrintTable([]string{"Entry", "Origin", "Head", "Updated"}, rows)
		return nil
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean [entry]",
	Short: "Remove one cached clone, or all of them with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cacheCleanAll == (len(args) == 1) {
			return errors.New("specify exactly one of an entry name or --all")
		}

		cache, err := newCache()
		if err != nil {
			return err
		}

		if cacheCleanAll {
			removed, err := cache.Clean()
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(map[string]int{"removed": removed})
			}
			PrintSuccess(fmt.Sprintf("Removed %s", PrintCount(removed, "cached clone", "cached clones")))
			return nil
		}

		if err := cache.Remove(args[0]); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(map[string]string{"removed": args[0]})
		}
		PrintSuccess(fmt.Sprintf("Removed %s", args[0]))
		return nil
	},
}

func init() {
	cacheCleanCmd.Flags().BoolVar(&cacheCleanAll, "all", false, "Remove every cached clone")

	cacheCmd.AddCommand(cacheLsCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
}
