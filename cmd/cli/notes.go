package main

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/workspace"
)

var (
	listFilter string
	listJSON   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your notes, most recently updated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listNotes(cmd, (*workspace.Workspace).Owned)
	},
}

var sharedCmd = &cobra.Command{
	Use:   "shared",
	Short: "List the notes other users shared with you",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listNotes(cmd, (*workspace.Workspace).Shared)
	},
}

func listNotes(cmd *cobra.Command, pick func(*workspace.Workspace) []*contract.NoteResponse) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	ws := workspace.New(c)
	ws.SetFilter(listFilter)

	// A failing list still lets the other one print, so only report the error.
	reloadErr := ws.Reload(ctx)
	notes := pick(ws)

	if listJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(notes); err != nil {
			return errors.Wrap(err, "encoding notes")
		}
		return reloadErr
	}

	for _, note := range notes {
		printNoteLine(cmd, note)
	}
	return reloadErr
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a note",
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

		note, err := c.GetNote(ctx, id)
		if err != nil {
			return err
		}

		printNoteLine(cmd, note)
		printf(cmd, "updated %s\n\n%s\n", note.UpdatedAt, note.Content)
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a note, an empty title becomes the default one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		title := ""
		if len(args) == 1 {
			title = args[0]
		}

		note, err := workspace.New(c).Create(ctx, title)
		if note == nil {
			return err
		}

		printf(cmd, "Note created: %d\n", note.ID)
		return err
	},
}

var publicCmd = &cobra.Command{
	Use:       "public [id] [on|off]",
	Short:     "Make a note public or private",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		var isPublic bool
		switch args[1] {
		case "on":
			isPublic = true
		case "off":
		default:
			return errors.Errorf("expected on or off, got %q", args[1])
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		note, err := c.SetVisibility(ctx, id, isPublic)
		if err != nil {
			return err
		}

		printNoteLine(cmd, note)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note and every share of it",
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

		if err := c.DeleteNote(ctx, id); err != nil {
			return err
		}

		printf(cmd, "Note deleted: %d\n", id)
		return nil
	},
}

func printNoteLine(cmd *cobra.Command, note *contract.NoteResponse) {
	visibility := "private"
	if note.IsPublic {
		visibility = "public"
	}
	printf(cmd, "%d\t%s\t%s\n", note.ID, visibility, note.Title)
}

func init() {
	for _, cmd := range []*cobra.Command{listCmd, sharedCmd} {
		cmd.Flags().StringVarP(&listFilter, "filter", "f", "", "Only show notes whose title contains this text")
		cmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	}

	rootCmd.AddCommand(listCmd, sharedCmd, showCmd, createCmd, publicCmd, deleteCmd)
}
