package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"skipdetect/internal/blacklist"
)

func newBlacklistCommand(ctx *commandContext) *cobra.Command {
	blacklistCmd := &cobra.Command{
		Use:         "blacklist",
		Short:       "Inspect and edit the no-result memory",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}

	blacklistCmd.AddCommand(newBlacklistListCommand(ctx))
	blacklistCmd.AddCommand(newBlacklistRemoveCommand(ctx))
	blacklistCmd.AddCommand(newBlacklistResetCommand(ctx))

	return blacklistCmd
}

func (c *commandContext) openBlacklist() (*blacklist.Store, error) {
	cfg, err := c.loadOrDefault()
	if err != nil {
		return nil, err
	}
	if !cfg.Blacklist.Enabled {
		return nil, fmt.Errorf("the blacklist is disabled in the configuration")
	}
	return blacklist.Open(cfg.BlacklistDBPath(), true)
}

func newBlacklistListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every blacklisted item",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openBlacklist()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "The blacklist is empty")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				created := ""
				if !entry.CreatedAt.IsZero() {
					created = entry.CreatedAt.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{
					entry.Name,
					modeLabel(entry.Mode),
					entry.ItemID.String(),
					created,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Mode", "Item", "Added"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newBlacklistRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove every entry for one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid item id %q: %w", args[0], err)
			}
			store, err := ctx.openBlacklist()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			if err := store.DeleteItem(cmd.Context(), itemID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed blacklist entries for %s\n", itemID)
			return nil
		},
	}
}

func newBlacklistResetCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every blacklist entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to clear the blacklist without --force")
			}
			store, err := ctx.openBlacklist()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			if err := store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Blacklist cleared; the next run re-analyzes everything")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm clearing the blacklist")
	return cmd
}
