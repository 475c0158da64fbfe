package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

func newNotesCmd(a *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage notes",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			return a.requireSession()
		},
	}

	var output string
	list := &cobra.Command{
		Use:   "list",
		Short: "List notes, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.FetchNotes(cmd.Context()); err != nil {
				return a.fail(err, "Failed to fetch notes")
			}
			items := a.store.State().Notes.Items
			switch output {
			case "json":
				return writeJSON(cmd.OutOrStdout(), items)
			case "table", "":
				renderNotes(cmd.OutOrStdout(), items)
				return nil
			default:
				return fmt.Errorf("unknown output format %q", output)
			}
		},
	}
	list.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.store.FetchNote(cmd.Context(), args[0])
			if err != nil {
				return a.fail(err, "Failed to fetch note")
			}
			printNote(cmd.OutOrStdout(), n)
			return nil
		},
	}

	var addTitle, addContent string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := contentArg(cmd, addContent)
			if err != nil {
				return err
			}
			n, err := a.store.CreateNote(cmd.Context(), models.NoteInput{Title: addTitle, Content: content})
			if err != nil {
				return a.fail(err, "Failed to create note")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Created note", n.ID)
			return nil
		},
	}
	add.Flags().StringVarP(&addTitle, "title", "t", "", "note title")
	add.Flags().StringVarP(&addContent, "content", "c", "", "note content, - reads stdin")

	var editTitle, editContent string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update a note; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			current, err := a.store.FetchNote(cmd.Context(), id)
			if err != nil {
				return a.fail(err, "Failed to fetch note")
			}
			in := models.NoteInput{Title: current.Title, Content: current.Content}
			if cmd.Flags().Changed("title") {
				in.Title = editTitle
			}
			if cmd.Flags().Changed("content") {
				if in.Content, err = contentArg(cmd, editContent); err != nil {
					return err
				}
			}
			n, err := a.store.UpdateNote(cmd.Context(), id, in)
			if err != nil {
				return a.fail(err, "Failed to update note")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Updated note", n.ID)
			return nil
		},
	}
	edit.Flags().StringVarP(&editTitle, "title", "t", "", "new title")
	edit.Flags().StringVarP(&editContent, "content", "c", "", "new content, - reads stdin")

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.DeleteNote(cmd.Context(), args[0]); err != nil {
				return a.fail(err, "Failed to delete note")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted note", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, get, add, edit, del)
	return cmd
}

func contentArg(cmd *cobra.Command, v string) (string, error) {
	if v != "-" {
		return v, nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

func renderNotes(w io.Writer, notes []models.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notes yet")
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"ID", "Title", "Updated"})
	for _, n := range notes {
		tw.AppendRow(table.Row{n.ID, n.Title, n.UpdatedAt.Local().Format(time.DateTime)})
	}
	tw.Render()
}

func printNote(w io.Writer, n models.Note) {
	fmt.Fprintf(w, "%s\n%s\n\ncreated %s, updated %s\nid %s\n",
		n.Title, n.Content,
		n.CreatedAt.Local().Format(time.DateTime), n.UpdatedAt.Local().Format(time.DateTime), n.ID)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
