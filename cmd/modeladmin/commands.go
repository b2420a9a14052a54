package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-modeladmin/pkg/catalog"
	"github.com/goliatone/go-modeladmin/pkg/client"
	"github.com/goliatone/go-modeladmin/pkg/form"
	"github.com/goliatone/go-modeladmin/pkg/listing"
	"github.com/goliatone/go-modeladmin/pkg/render"
	"github.com/goliatone/go-modeladmin/pkg/renderers/tui"
	"github.com/goliatone/go-modeladmin/pkg/session"
)

var errUsage = errors.New("invalid arguments")

type command func(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error

var commands = map[string]command{
	"login":  cmdLogin,
	"logout": cmdLogout,
	"status": cmdStatus,
	"models": cmdModels,
	"list":   cmdList,
	"create": cmdCreate,
	"edit":   cmdEdit,
	"delete": cmdDelete,
	"export": cmdExport,
	"import": cmdImport,
}

// parseArgs parses flags placed before, between or after exactly n
// positional arguments.
func parseArgs(fs *flag.FlagSet, args []string, n int) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
	if len(positional) != n {
		return nil, fmt.Errorf("%w: %s expects %d argument(s), got %d", errUsage, fs.Name(), n, len(positional))
	}
	return positional, nil
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New(form.RequiredMessage)
	}
	return nil
}

func cmdLogin(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	username := fs.String("username", "", "account name, prompted when empty")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	user := *username
	if user == "" {
		var err error
		if user, err = a.driver.Input(ctx, tui.InputConfig{Message: "Username", Validator: required}); err != nil {
			return err
		}
	}
	password, err := a.driver.Password(ctx, tui.InputConfig{Message: "Password", Validator: required})
	if err != nil {
		return err
	}
	sess, err := a.admin.Client.SignIn(ctx, user, password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	fmt.Fprintf(a.stdout, "Signed in as %s.\n", sess.Username)
	return nil
}

func cmdLogout(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	if err := a.admin.Client.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Signed out.")
	return nil
}

func cmdStatus(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	sess, err := a.admin.Client.Session(ctx)
	if errors.Is(err, session.ErrNoSession) {
		fmt.Fprintln(a.stdout, "Not signed in.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Signed in as %s at %s\n", orDash(sess.Username), a.admin.Client.BaseURL())
	switch {
	case sess.Expiry.IsZero():
		fmt.Fprintln(a.stdout, "Access token expiry unknown")
	case sess.Expired(time.Now()):
		fmt.Fprintf(a.stdout, "Access token expired at %s\n", sess.Expiry.Format(time.RFC3339))
	default:
		fmt.Fprintf(a.stdout, "Access token valid until %s\n", sess.Expiry.Format(time.RFC3339))
	}
	if !sess.CanRefresh() {
		fmt.Fprintln(a.stdout, "No refresh token; sign in again when the access token expires.")
	}
	return nil
}

type outputFlags struct {
	format *string
	output *string
}

func addOutputFlags(fs *flag.FlagSet) outputFlags {
	return outputFlags{
		format: fs.String("format", "table", "output format: table, csv, json or xlsx"),
		output: fs.String("o", "", "write to file instead of stdout"),
	}
}

func (a *app) write(ctx context.Context, out outputFlags, table render.Table, sheet string) error {
	data, _, err := a.admin.Renderers.Render(ctx, *out.format, table, render.RenderOptions{SheetName: sheet})
	if err != nil {
		return err
	}
	return a.emit(data, *out.output)
}

func (a *app) emit(data []byte, path string) error {
	if path == "" {
		_, err := a.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(a.stdout, "Written to %s\n", path)
	return nil
}

func cmdModels(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	out := addOutputFlags(fs)
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	models, err := a.admin.Orchestrator.Models(ctx)
	if err != nil {
		return err
	}
	table := render.Table{
		Title: "Models",
		Columns: []render.Column{
			{Key: "key", Label: "Key"},
			{Key: "name", Label: "Name"},
			{Key: "count", Label: "Items"},
		},
		Page:       1,
		TotalPages: 1,
		Total:      len(models),
	}
	for _, m := range models {
		table.Rows = append(table.Rows, []string{m.Key, render.PlainText(m.Name), strconv.Itoa(m.Count)})
	}
	if len(models) == 0 {
		table.Message = "No models registered"
	}
	return a.write(ctx, out, table, "Models")
}

func cmdList(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	out := addOutputFlags(fs)
	page := fs.Int("page", 1, "page number")
	search := fs.String("search", "", "filter with the model's search fields")
	ordering := fs.String("ordering", "", "ordering, e.g. -created_at")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	var opts []listing.Option
	if *search != "" {
		opts = append(opts, listing.WithSearch(*search))
	}
	if *ordering != "" {
		opts = append(opts, listing.WithOrdering(*ordering))
	}
	return a.showList(ctx, out, pos[0], *page, opts...)
}

func (a *app) showList(ctx context.Context, out outputFlags, key string, page int, opts ...listing.Option) error {
	l, err := a.admin.Orchestrator.List(ctx, key, opts...)
	if err != nil {
		return err
	}
	defer a.admin.Orchestrator.Release(l)
	if page > 1 {
		moved, err := l.GoTo(ctx, page)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("%w: page %d is outside 1..%d", errUsage, page, l.TotalPages())
		}
	}
	view := l.View()
	return a.write(ctx, out, view.Table(), view.Title)
}

func cmdCreate(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	f, err := a.admin.Orchestrator.CreateForm(ctx, pos[0])
	if err != nil {
		return err
	}
	return a.fillAndSubmit(ctx, f)
}

func cmdEdit(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	pos, err := parseArgs(fs, args, 2)
	if err != nil {
		return err
	}
	f, err := a.admin.Orchestrator.EditForm(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	return a.fillAndSubmit(ctx, f)
}

// fillAndSubmit prompts for every field, then submits. Rejected submissions
// keep the entered values and re-prompt only the fields with errors.
func (a *app) fillAndSubmit(ctx context.Context, f *form.Form) error {
	defer f.Close()
	filler := tui.NewFiller(tui.WithPromptDriver(a.driver))
	if err := filler.Fill(ctx, f); err != nil {
		return err
	}
	for {
		_, err := f.Submit(ctx, a.admin.Client)
		if err == nil {
			break
		}
		if !retryable(err) {
			return err
		}
		again, cerr := a.driver.Confirm(ctx, tui.ConfirmConfig{Message: "Fix the errors and try again?", Default: true})
		if cerr != nil {
			return cerr
		}
		if !again {
			return err
		}
		if err := filler.FillErrors(ctx, f); err != nil {
			return err
		}
	}

	if key, ok := a.navigate.Load().(string); ok && key != "" {
		return a.showList(ctx, addOutputFlags(flag.NewFlagSet("list", flag.ContinueOnError)), key, 1)
	}
	return nil
}

func retryable(err error) bool {
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		return true
	}
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 400
}

func cmdDelete(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	pos, err := parseArgs(fs, args, 2)
	if err != nil {
		return err
	}
	var opts []listing.Option
	if *yes {
		opts = append(opts, listing.WithConfirmer(listing.ConfirmerFunc(func(context.Context, string) (bool, error) {
			return true, nil
		})))
	}
	l, err := a.admin.Orchestrator.List(ctx, pos[0], opts...)
	if err != nil {
		return err
	}
	defer a.admin.Orchestrator.Release(l)
	if _, err := l.Delete(ctx, pos[1]); err != nil {
		if errors.Is(err, listing.ErrNoConfirmer) {
			return fmt.Errorf("deleting %s items is not permitted", pos[0])
		}
		return err
	}
	return nil
}

func cmdExport(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	format := fs.String("format", client.FormatCSV, "export format: csv or json")
	output := fs.String("o", "", "write to file instead of stdout")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	desc, err := a.admin.Orchestrator.Catalog().Descriptor(ctx, pos[0])
	if err != nil {
		return err
	}
	data, err := a.admin.Client.Export(ctx, desc.ListURL, *format)
	if err != nil {
		return err
	}
	return a.emit(data, *output)
}

func cmdImport(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	file := fs.String("file", "", "CSV or JSON file to upload")
	format := fs.String("format", "", "file format, inferred from the extension when empty")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("%w: -file is required", errUsage)
	}
	content, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	if *format == "" {
		*format = strings.TrimPrefix(strings.ToLower(filepath.Ext(*file)), ".")
	}
	desc, err := a.admin.Orchestrator.Catalog().Descriptor(ctx, pos[0])
	if err != nil {
		return err
	}
	count, err := a.admin.Client.Import(ctx, desc.ListURL, *format, filepath.Base(*file), content)
	if err != nil {
		return err
	}
	a.admin.Orchestrator.Invalidate(catalog.ItemsKey(pos[0]), catalog.AdminConfigKey)
	fmt.Fprintf(a.stdout, "Imported %d items.\n", count)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
