package cli

import (
	"context"
	"fmt"
)

// Queue lists pending submissions in upload order.
func (a *App) Queue(ctx context.Context) error {
	items, err := a.submissions.Pending(ctx)
	if err != nil {
		a.log.Error(ctx, "listing pending submissions", "error", err)
		return err
	}

	if len(items) == 0 {
		fmt.Fprintln(a.out, "No pending submissions.")
		return nil
	}

	fmt.Fprintf(a.out, "%d pending:\n", len(items))
	for _, item := range items {
		fmt.Fprintf(a.out, "  %s  %-20s  %s\n", item.ID, item.Doctype, item.EnqueuedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// Drain uploads pending submissions oldest-first, stopping at the first item
// that cannot be delivered.
func (a *App) Drain(ctx context.Context) error {
	sent, err := a.submissions.Drain(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "Uploaded %d, then stopped: %v\n", sent, err)
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %d pending submission(s).\n", sent)
	return nil
}

// Unqueue drops one pending submission by id.
func (a *App) Unqueue(ctx context.Context, id string) error {
	if err := a.submissions.Remove(ctx, id); err != nil {
		a.log.Error(ctx, "removing pending submission", "id", id, "error", err)
		return err
	}
	fmt.Fprintln(a.out, "Removed.")
	return nil
}
