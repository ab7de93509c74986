package main

import (
	"fmt"
	"io"

	"github.com/bashbros/cli/internal/output"
	"github.com/bashbros/cli/internal/undo"
	"github.com/spf13/cobra"
)

var flagUndoList bool

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Reverse the most recent tracked file change, or list the undo stack",
	Args:  cobra.NoArgs,
	RunE:  runUndo,
}

func init() {
	undoCmd.Flags().BoolVar(&flagUndoList, "list", false, "list the undo stack instead of popping it")
}

func newUndoStack() (*undo.Stack, error) {
	dir, err := undoDir()
	if err != nil {
		return nil, fmt.Errorf("bashbros: resolve undo dir: %w", err)
	}
	return undo.NewStack(dir)
}

func runUndo(cmd *cobra.Command, args []string) error {
	stack, err := newUndoStack()
	if err != nil {
		return err
	}

	if flagUndoList {
		entries := stack.Entries()
		return output.Write(cmd.OutOrStdout(), output.ParseFormat(GetOutput()), entries, func(w io.Writer) error {
			return renderUndoTable(w, entries)
		})
	}

	entry, err := stack.Undo()
	if err != nil {
		return fmt.Errorf("bashbros: undo: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "undid %s: %s\n", entry.Operation, entry.Path)
	return nil
}

func renderUndoTable(w io.Writer, entries []undo.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "undo stack is empty")
		return nil
	}
	tw := output.NewTabWriter(w)
	fmt.Fprintf(tw, "ID\tOP\tPATH\tCOMMAND\n")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Operation, e.Path, e.Command)
	}
	return tw.Flush()
}
