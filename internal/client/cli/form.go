package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/fieldentry/internal/client/models"
)

// Form resolves the schema graph rooted at doctype and prints the form's
// visible fields. Reference fields whose target schema could not be resolved
// offline are flagged so the user knows the form will render degraded.
func (a *App) Form(ctx context.Context, doctype string) error {

	res, err := a.resolver.Ensure(ctx, doctype, a.isOnline())
	if err != nil {
		a.log.Error(ctx, "resolving schema graph", "doctype", doctype, "error", err)
		return err
	}

	for _, re := range res.Errors {
		fmt.Fprintf(a.out, "warning: could not fetch %s: %v\n", re.Doctype, re.Err)
	}

	schema, _, err := a.repos.Schemas.Get(ctx, doctype)
	if err != nil {
		a.log.Error(ctx, "loading schema", "doctype", doctype, "error", err)
		return err
	}
	if schema == nil {
		fmt.Fprintf(a.out, "No schema for %s is available offline.\n", doctype)
		return nil
	}

	skipped := make(map[string]struct{}, len(res.Skipped))
	for _, name := range res.Skipped {
		skipped[name] = struct{}{}
	}

	fmt.Fprintf(a.out, "Form %s:\n", schema.Name)
	for _, f := range schema.Fields {
		if f.Hidden {
			continue
		}
		note := ""
		if f.IsReference() {
			if _, ok := skipped[strings.TrimSpace(f.Options)]; ok {
				note = "  [target schema unavailable offline]"
			}
		}
		fmt.Fprintf(a.out, "  %-24s %-8s%s\n", labelOf(f), f.Fieldtype, note)
	}
	return nil
}

func labelOf(f models.FieldDefinition) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Fieldname
}
