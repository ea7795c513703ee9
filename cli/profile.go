package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/montrey/ftpseek/remote"
	"github.com/montrey/ftpseek/store"
)

// newProfileCommand creates the 'ftpseek profile' parent command
func newProfileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage saved connection profiles",
		Long: `Profiles remember a server's host, port, user and TLS setting.
Passwords are never saved; use FTPSEEK_PASSWORD or --password.`,
	}

	cmd.AddCommand(newProfileAddCommand(a))
	cmd.AddCommand(newProfileListCommand(a))
	cmd.AddCommand(newProfileRemoveCommand(a))
	cmd.AddCommand(newProfileUseCommand(a))

	return cmd
}

func newProfileAddCommand(a *app) *cobra.Command {
	p := store.Profile{}
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Save or replace a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			db, err := a.openStore()
			if err != nil {
				return err
			}
			p.Name = args[0]
			if err := store.SaveProfile(db, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %s (%s@%s:%d)\n", p.Name, p.User, p.Host, p.Port)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Host, "host", "", "FTP server")
	cmd.Flags().IntVar(&p.Port, "port", remote.DefaultPort, "FTP control port")
	cmd.Flags().StringVarP(&p.User, "user", "u", "anonymous", "login user")
	cmd.Flags().BoolVar(&p.TLS, "tls", false, "use explicit FTPS")
	_ = cmd.MarkFlagRequired("host")
	return cmd
}

func newProfileListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved profiles; * marks the default",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			db, err := a.openStore()
			if err != nil {
				return err
			}
			profiles, err := store.ListProfiles(db)
			if err != nil {
				return err
			}
			def, err := store.GetSetting(db, store.SettingDefaultProfile)
			if err != nil {
				return err
			}
			printProfiles(cmd.OutOrStdout(), profiles, def)
			return nil
		},
	}
}

func newProfileRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a profile",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			db, err := a.openStore()
			if err != nil {
				return err
			}
			if err := store.RemoveProfile(db, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed profile %s\n", args[0])
			return nil
		},
	}
}

func newProfileUseCommand(a *app) *cobra.Command {
	var unset bool
	cmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Make a profile the default for find",
		Args: func(cmd *cobra.Command, args []string) error {
			if unset {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			db, err := a.openStore()
			if err != nil {
				return err
			}
			if unset {
				if err := store.DeleteSetting(db, store.SettingDefaultProfile); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cleared default profile")
				return nil
			}
			if _, err := store.GetProfile(db, args[0]); err != nil {
				return err
			}
			if err := store.SetSetting(db, store.SettingDefaultProfile, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default profile is now %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&unset, "clear", false, "unset the default profile")
	return cmd
}
