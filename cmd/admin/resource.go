package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/anikmoz/green-firm-house/internal/admin"
	"github.com/anikmoz/green-firm-house/internal/crud"

	"github.com/spf13/cobra"
)

type controllerOf[T crud.Entity] func(*admin.Registry) *crud.Controller[T]

type writeOp[T crud.Entity] func(c *crud.Controller[T]) func(ctx context.Context, rec T) error

const dataUsage = `record as JSON, "@file" to read a file, or "-" to read stdin`

// newResourceCmd builds the list/get/create/update/patch/delete subcommands
// of one entity.
func newResourceCmd[T crud.Entity](a *app, use, short string, ctl controllerOf[T], view admin.View[T]) *cobra.Command {
	cmd := &cobra.Command{Use: use, Short: short}
	get := func() *crud.Controller[T] { return ctl(a.reg) }
	noun := strings.ToLower(view.Name)

	// list
	var page, size int
	var sort string
	list := &cobra.Command{
		Use:   "list",
		Short: "List " + strings.ToLower(view.Title),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := get()
			defer watch(a, cmd, c)()
			err := c.List(cmd.Context(), crud.ListParams{Page: page, Size: size, Sort: sort})
			if verr := view.List(cmd.OutOrStdout(), c.State()); verr != nil {
				return verr
			}
			return err
		},
	}
	list.Flags().IntVar(&page, "page", 0, "zero-based page (used with --sort)")
	list.Flags().IntVar(&size, "size", 20, "page size (used with --sort)")
	list.Flags().StringVar(&sort, "sort", "", `"field,asc|desc"; without it the collection is fetched unsorted`)

	// get
	show := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c := get()
			defer watch(a, cmd, c)()
			err = c.Get(cmd.Context(), id)
			if verr := view.Detail(cmd.OutOrStdout(), c.State(), err); verr != nil {
				return verr
			}
			if crud.IsNotFound(err) {
				return nil
			}
			return err
		},
	}

	// create
	var data string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a " + noun + " from JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := decodeRecord[T](cmd.InOrStdin(), data, nil)
			if err != nil {
				return err
			}
			c := get()
			c.Reset()
			defer watch(a, cmd, c)()
			return afterWrite(cmd, c, view, c.Create(cmd.Context(), rec))
		},
	}
	create.Flags().StringVarP(&data, "data", "d", "-", dataUsage)

	update := newWriteCmd(a, "update", "Replace a "+noun, get, view,
		func(c *crud.Controller[T]) func(context.Context, T) error { return c.Update })
	patch := newWriteCmd(a, "patch", "Change only the given fields of a "+noun, get, view,
		func(c *crud.Controller[T]) func(context.Context, T) error { return c.PartialUpdate })

	// delete
	var yes bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			prompt := fmt.Sprintf("Are you sure you want to delete %s %d? [y/N] ", view.Name, id)
			if !yes && !confirm(cmd, prompt) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			c := get()
			defer watch(a, cmd, c)()
			return afterWrite(cmd, c, view, c.Delete(cmd.Context(), id))
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(list, show, create, update, patch, del)
	return cmd
}

func newWriteCmd[T crud.Entity](a *app, use, short string, get func() *crud.Controller[T], view admin.View[T], op writeOp[T]) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := decodeRecord[T](cmd.InOrStdin(), data, &id)
			if err != nil {
				return err
			}
			c := get()
			defer watch(a, cmd, c)()
			return afterWrite(cmd, c, view, op(c)(cmd.Context(), rec))
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "-", dataUsage)
	return cmd
}

// afterWrite reports a mutation the way the edit screen does: on success
// the saved record and the refreshed list are shown.
func afterWrite[T crud.Entity](cmd *cobra.Command, c *crud.Controller[T], view admin.View[T], err error) error {
	out := cmd.OutOrStdout()
	if err != nil {
		return err
	}
	s := c.State()
	if !s.UpdateSuccess {
		return fmt.Errorf("%s was not saved", view.Name)
	}
	fmt.Fprintln(out, "Done.")
	if s.Entity.GetID() != nil {
		// ErrorMessage can only come from the list refresh here.
		saved := s
		saved.ErrorMessage = ""
		if err := view.Detail(out, saved, nil); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	if s.HasError() {
		_, err := fmt.Fprintf(out, "List refresh failed: %s\n", s.ErrorMessage)
		return err
	}
	return view.List(out, s)
}

// watch prints every state transition to stderr while --trace is set. The
// returned func stops watching and waits for the printer to finish.
func watch[T crud.Entity](a *app, cmd *cobra.Command, c *crud.Controller[T]) func() {
	if !a.trace {
		return func() {}
	}
	updates, cancel := c.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for s := range updates {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s] loading=%t updating=%t updateSuccess=%t total=%d error=%q\n",
				c.Resource().Name, s.Loading, s.Updating, s.UpdateSuccess, s.TotalItems, s.ErrorMessage)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// decodeRecord reads a JSON record from data ("-" reads r). With id set,
// the record's id is overwritten.
func decodeRecord[T crud.Entity](r io.Reader, data string, id *int64) (T, error) {
	var rec T
	raw := []byte(data)
	if data == "-" {
		var err error
		if raw, err = io.ReadAll(r); err != nil {
			return rec, fmt.Errorf("read stdin: %w", err)
		}
	} else if strings.HasPrefix(data, "@") {
		var err error
		if raw, err = os.ReadFile(strings.TrimPrefix(data, "@")); err != nil {
			return rec, err
		}
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return rec, fmt.Errorf("invalid record JSON: %w", err)
	}
	if id != nil {
		fields["id"] = json.RawMessage(strconv.FormatInt(*id, 10))
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(merged, &rec); err != nil {
		return rec, fmt.Errorf("invalid record JSON: %w", err)
	}
	return rec, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
