package main

import (
	"bufio"
	"context"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/editor"
)

var (
	editTitle    string
	editAppend   bool
	editDebounce = editor.DefaultDebounce
)

var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Stream edits of a note from stdin with autosave",
	Long: `edit reads stdin line by line. Each line replaces the note content,
or is appended to it with --append. Saves are debounced, so a fast stream
ends up as a few requests. Pending edits are saved when stdin closes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		loadCtx, cancel := requestContext(cmd)
		note, err := c.GetNote(loadCtx, id)
		cancel()
		if err != nil {
			return err
		}

		session := editor.New(c, editor.Options{
			Debounce:    editDebounce,
			SaveTimeout: timeout,
			Listener:    &printListener{cmd: cmd},
		})
		session.Open(note)

		if cmd.Flags().Changed("title") {
			if err := session.EditTitle(editTitle); err != nil {
				return err
			}
		}

		content := note.Content
		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Buffer(make([]byte, 0, 64*1024), contract.MaxNoteContentLength)
		for scanner.Scan() {
			line := scanner.Text()
			if editAppend {
				if content != "" && !strings.HasSuffix(content, "\n") {
					content += "\n"
				}
				content += line
			} else {
				content = line
			}

			if err := session.EditContent(content); err != nil {
				return err
			}
		}
		scanErr := scanner.Err()

		closeCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := session.Close(closeCtx); err != nil {
			return err
		}
		if scanErr != nil {
			return errors.Wrap(scanErr, "reading stdin")
		}
		return nil
	},
}

// printListener reports autosave outcomes on the command output.
type printListener struct {
	cmd *cobra.Command
}

func (l *printListener) OnSaved(note *contract.NoteResponse) {
	printf(l.cmd, "saved %d at %s\n", note.ID, note.UpdatedAt)
}

func (l *printListener) OnError(noteID int64, err error) {
	log.Warnf("saving note %d failed: %v", noteID, err)
}

func init() {
	editCmd.Flags().StringVar(&editTitle, "title", "", "Also rename the note")
	editCmd.Flags().BoolVarP(&editAppend, "append", "a", false, "Append each line instead of replacing the content")
	editCmd.Flags().DurationVar(&editDebounce, "debounce", editor.DefaultDebounce, "Quiet period before edits are saved")

	rootCmd.AddCommand(editCmd)
}
