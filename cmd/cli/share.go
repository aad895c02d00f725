package main

import (
	"github.com/spf13/cobra"
)

var shareCanEdit bool

var shareCmd = &cobra.Command{
	Use:   "share [id] [email]",
	Short: "Share a note with another user, sharing again updates the grant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		share, err := c.ShareNote(ctx, id, args[1], shareCanEdit)
		if err != nil {
			return err
		}

		printf(cmd, "Share created: %d\n", share.ID)
		return nil
	},
}

var sharesCmd = &cobra.Command{
	Use:   "shares [id]",
	Short: "List who a note is shared with",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		shares, err := c.ListShares(ctx, id)
		if err != nil {
			return err
		}

		for _, share := range shares {
			access := "read"
			if share.CanEdit {
				access = "edit"
			}

			email := ""
			if share.SharedWith != nil {
				email = share.SharedWith.Email
			}
			printf(cmd, "%d\t%s\t%s\n", share.ID, access, email)
		}
		return nil
	},
}

var unshareCmd = &cobra.Command{
	Use:   "unshare [share-id]",
	Short: "Revoke a share",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		if err := c.RevokeShare(ctx, id); err != nil {
			return err
		}

		printf(cmd, "Share revoked: %d\n", id)
		return nil
	},
}

func init() {
	shareCmd.Flags().BoolVar(&shareCanEdit, "edit", false, "Allow the recipient to edit the note")

	rootCmd.AddCommand(shareCmd, sharesCmd, unshareCmd)
}
