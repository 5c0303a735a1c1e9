package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/diarist/internal/annotate"
	"github.com/dgallion1/diarist/internal/document"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "diaryctl",
		Short:        "Inspect diary text and annotation offsets",
		SilenceUsage: true,
	}
	root.AddCommand(newTokenizeCmd(), newLocateCmd(), newReconcileCmd(), newTranslateCmd())
	return root
}

func newTokenizeCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tokenize FILE",
		Short: "List whitespace tokens with their UTF-16 offsets",
		Long: `Splits the file on whitespace the way feedback word indices are counted.

Examples:
  diaryctl tokenize entry.txt
  diaryctl tokenize entry.txt --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			tokens := doc.Tokens()
			out := cmd.OutOrStdout()
			if asJSON {
				type tokenJSON struct {
					Index int    `json:"index"`
					Text  string `json:"text"`
					Start int    `json:"start"`
					End   int    `json:"end"`
				}
				list := make([]tokenJSON, 0, len(tokens))
				for i, t := range tokens {
					list = append(list, tokenJSON{Index: i, Text: t.Text, Start: t.Start, End: t.End})
				}
				return writeIndented(out, list)
			}
			for i, t := range tokens {
				fmt.Fprintf(out, "%d\t%d\t%d\t%s\n", i, t.Start, t.End, t.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of tab-separated rows")
	return cmd
}

func newLocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate OLD NEW",
		Short: "Find the single edit between two versions of a text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldDoc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			newDoc, err := readDocument(args[1])
			if err != nil {
				return err
			}
			edit := annotate.LocateEdit(oldDoc, newDoc)
			return writeIndented(cmd.OutOrStdout(), map[string]any{
				"edit":     edit,
				"delta":    edit.Delta(),
				"deleted":  oldDoc.SliceRange(edit.Deleted()),
				"inserted": newDoc.SliceRange(edit.Inserted()),
			})
		},
	}
}

func newReconcileCmd() *cobra.Command {
	var (
		annotationsPath string
		confirm         bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile OLD NEW",
		Short: "Carry stored annotations across an edit",
		Long: `Loads annotations (stored JSON form) against OLD, applies the edit that
turns OLD into NEW and prints the resulting annotations. Edits that would
delete highlights are refused unless --confirm is given.

Examples:
  diaryctl reconcile --annotations ann.json before.txt after.txt
  diaryctl reconcile --annotations ann.json --confirm before.txt after.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldDoc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			newDoc, err := readDocument(args[1])
			if err != nil {
				return err
			}
			data := []byte(`{"comments":[],"highlights":[]}`)
			if annotationsPath != "" {
				if data, err = os.ReadFile(annotationsPath); err != nil {
					return fmt.Errorf("read annotations: %w", err)
				}
			}

			stderr := cmd.ErrOrStderr()
			store, dropped, err := annotate.Unmarshal(oldDoc, data)
			if err != nil {
				return err
			}
			for _, d := range dropped {
				fmt.Fprintf(stderr, "dropped on load: %v\n", d)
			}

			edit := annotate.LocateEdit(oldDoc, newDoc)
			res := annotate.Reconcile(store.All(), edit, newDoc)
			if w := res.Warning(); w != nil && !confirm {
				return fmt.Errorf("%w; rerun with --confirm to apply", w)
			}
			for _, c := range res.OverlappingComments() {
				fmt.Fprintf(stderr, "removed comment %s %s\n", c.ID, c.Range)
			}
			for _, d := range res.Dropped {
				fmt.Fprintf(stderr, "dropped by edit: %v\n", d)
			}
			for _, d := range store.Apply(newDoc, res.Kept) {
				fmt.Fprintf(stderr, "dropped on apply: %v\n", d)
			}
			return writeIndented(cmd.OutOrStdout(), annotate.Encode(store))
		},
	}
	cmd.Flags().StringVarP(&annotationsPath, "annotations", "a", "", "annotations JSON file")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "apply edits that delete highlights")
	return cmd
}

func newTranslateCmd() *cobra.Command {
	var (
		start, end  int
		terminators string
	)
	cmd := &cobra.Command{
		Use:   "translate FILE",
		Short: "Convert a feedback word span into a character range",
		Long: `Maps word indices, as returned by the feedback collaborator, onto the
file's text. The end snaps forward to the next sentence terminator.

Examples:
  diaryctl translate entry.txt --start 0 --end 2
  diaryctl translate entry.txt --start 3 --end 3 --terminators ".,다"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			var terms []string
			for _, t := range strings.Split(terminators, ",") {
				if t = strings.TrimSpace(t); t != "" {
					terms = append(terms, t)
				}
			}
			r, err := annotate.NewTranslator(terms...).WordSpanToCharRange(doc, annotate.WordIndexSpan{StartWord: start, EndWord: end})
			if err != nil {
				return err
			}
			return writeIndented(cmd.OutOrStdout(), map[string]any{
				"start":   r.Start,
				"end":     r.End,
				"excerpt": doc.SliceRange(r),
			})
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "first word index")
	cmd.Flags().IntVar(&end, "end", 0, "last word index (inclusive)")
	cmd.Flags().StringVar(&terminators, "terminators", strings.Join(annotate.DefaultTerminators, ","), "comma-separated sentence terminators")
	return cmd
}

func readDocument(path string) (document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return document.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return document.New(string(data)), nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
