package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ymatrosov/linkstash/internal/client/api"
)

var errUsage = errors.New("usage: command requires a link id")

// AddLink interactively saves a new bookmark. Title and notes may be left
// empty, in which case the server applies its defaults.
func (a *App) AddLink(ctx context.Context) error {
	rawURL, err := getSimpleText(a.reader, "Enter URL", os.Stdout)
	if err != nil {
		return err
	}

	title, err := getOptionalText(a.reader, "Enter title", os.Stdout)
	if err != nil {
		return err
	}

	notes, err := getOptionalText(a.reader, "Enter notes", os.Stdout)
	if err != nil {
		return err
	}

	link, err := a.api.CreateLink(ctx, rawURL, title, notes)
	if err != nil {
		return err
	}

	printlnFn("Saved:")
	printLink(link)
	return nil
}

// List prints links newest first. A leading "-archived" argument restricts
// the listing to archived links; any remaining arguments form the search
// query.
func (a *App) List(ctx context.Context, args []string) error {
	var archived *bool
	if len(args) > 0 && args[0] == "-archived" {
		v := true
		archived = &v
		args = args[1:]
	}
	search := strings.Join(args, " ")

	links, err := a.api.ListLinks(ctx, search, archived)
	if err != nil {
		return err
	}

	if len(links) == 0 {
		printlnFn("No links found.")
		return nil
	}
	for _, l := range links {
		printLink(l)
	}
	return nil
}

// Show prints a single link by id.
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	link, err := a.api.GetLink(ctx, args[0])
	if err != nil {
		return err
	}
	printLink(link)
	if link.Notes != "" {
		printlnFn("  notes:", link.Notes)
	}
	return nil
}

// Edit interactively changes the title and/or notes of a link. Prompts left
// empty keep the current values.
func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	title, err := getOptionalText(a.reader, "New title", os.Stdout)
	if err != nil {
		return err
	}

	notes, err := getOptionalText(a.reader, "New notes", os.Stdout)
	if err != nil {
		return err
	}

	link, err := a.api.UpdateLink(ctx, args[0], title, notes)
	if err != nil {
		return err
	}

	printlnFn("Updated:")
	printLink(link)
	return nil
}

// Random asks the server for a uniformly random link from the active pool,
// or from the archive when called with "archived".
func (a *App) Random(ctx context.Context, args []string) error {
	archived := len(args) > 0 && args[0] == "archived"

	link, err := a.api.RandomLink(ctx, archived)
	if err != nil {
		return err
	}
	if link == nil {
		printlnFn("Nothing to pick from.")
		return nil
	}
	printLink(link)
	return nil
}

// Archive moves a link into the archive.
func (a *App) Archive(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	link, err := a.api.ArchiveLink(ctx, args[0])
	if err != nil {
		return err
	}
	printlnFn("Archived:")
	printLink(link)
	return nil
}

// Unarchive moves a link back to the active set.
func (a *App) Unarchive(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	link, err := a.api.UnarchiveLink(ctx, args[0])
	if err != nil {
		return err
	}
	printlnFn("Restored:")
	printLink(link)
	return nil
}

// Delete removes a link permanently.
func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	if err := a.api.DeleteLink(ctx, args[0]); err != nil {
		return err
	}
	printlnFn("Deleted.")
	return nil
}

// printLink renders one listing line.
func printLink(l *api.Link) {
	marker := ""
	if l.ArchivedAt != nil {
		marker = " [archived]"
	}
	printlnFn(fmt.Sprintf("%s  %s  %s (%s)%s", l.ID, l.Title, l.URL, l.Host, marker))
}
