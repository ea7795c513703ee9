package cli

import (
	"github.com/spf13/cobra"

	"github.com/montrey/ftpseek/store"
)

func newHistoryCommand(a *app) *cobra.Command {
	var (
		limit int
		known string
		host  string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches or where a file was found before",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			db, err := a.openStore()
			if err != nil {
				return err
			}

			if known != "" {
				locations, err := store.GetKnownLocations(db, host, known)
				if err != nil {
					return err
				}
				printLocations(cmd.OutOrStdout(), known, locations)
				return nil
			}

			records, err := store.GetRecentSearches(db, limit)
			if err != nil {
				return err
			}
			printSearches(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of searches to show")
	cmd.Flags().StringVar(&known, "known", "", "list directories where this file was found")
	cmd.Flags().StringVar(&host, "host", "", "restrict --known to one host")
	return cmd
}
