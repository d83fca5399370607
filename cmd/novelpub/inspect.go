package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/simp-lee/novelpub"
)

func runInspect(args []string, stdout, stderr io.Writer) error {
	_, positional, err := parseInspectFlags(args, stderr)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: inspect expects one ePub file, got %d arguments", ErrUsage, len(positional))
	}
	rep, err := novelpub.Inspect(positional[0])
	if err != nil {
		return err
	}
	printReport(stdout, positional[0], rep)
	return nil
}

func printReport(w io.Writer, name string, rep *novelpub.Report) {
	fmt.Fprintf(w, "%s (ePub %s)\n", name, rep.Version)
	fmt.Fprintf(w, "  Title:    %s\n", strings.Join(rep.Titles, "; "))
	fmt.Fprintf(w, "  Author:   %s\n", strings.Join(rep.Authors, "; "))
	fmt.Fprintf(w, "  Language: %s\n", strings.Join(rep.Languages, "; "))
	for _, id := range rep.Identifiers {
		fmt.Fprintf(w, "  ID:       %s\n", id)
	}

	fmt.Fprintf(w, "Spine (%d items, %d words)\n", len(rep.Chapters), totalWords(rep))
	for i, c := range rep.Chapters {
		title := c.Title
		if title == "" {
			title = "(" + c.ID + ")"
		}
		fmt.Fprintf(w, "  %3d. %-40s %6d words  %s\n", i+1, title, c.Words, c.Href)
	}

	if len(rep.Warnings) > 0 {
		fmt.Fprintf(w, "Warnings (%d)\n", len(rep.Warnings))
		for _, warning := range rep.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}
