package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/fieldentry/internal/client/models"
)

// Fill walks the user through the visible fields of a doctype and submits the
// resulting document. When the backend is unreachable the document is queued
// instead, preserving entry order.
func (a *App) Fill(ctx context.Context, doctype string) error {

	if _, err := a.resolver.Ensure(ctx, doctype, a.isOnline()); err != nil {
		a.log.Error(ctx, "resolving schema graph", "doctype", doctype, "error", err)
		return err
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

	doc, err := a.promptDocument(ctx, schema)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	queued, err := a.submissions.Submit(ctx, doctype, payload, a.isOnline())
	if err != nil {
		a.log.Error(ctx, "submitting document", "doctype", doctype, "error", err)
		return err
	}
	if queued {
		fmt.Fprintln(a.out, "Backend unreachable; document queued for later upload.")
	} else {
		fmt.Fprintln(a.out, "Document submitted.")
	}
	return nil
}

// promptDocument collects one value per visible field. Empty input leaves the
// field out of the document.
func (a *App) promptDocument(ctx context.Context, schema *models.DocTypeSchema) (map[string]any, error) {
	doc := make(map[string]any)

	for _, f := range schema.Fields {
		if f.Hidden {
			continue
		}

		value, err := a.promptField(ctx, f)
		if err != nil {
			return nil, err
		}
		if value != nil {
			doc[f.Fieldname] = value
		}
	}
	return doc, nil
}

func (a *App) promptField(ctx context.Context, f models.FieldDefinition) (any, error) {
	switch f.Fieldtype {

	case models.FieldTypeSelect:
		choices := f.SelectChoices()
		if len(choices) > 0 {
			fmt.Fprintf(a.out, "Choices: %s\n", strings.Join(choices, ", "))
		}
		return a.promptText(f)

	case models.FieldTypeLink:
		if a.isOnline() {
			opts, err := a.api.GetLinkOptions(ctx, strings.TrimSpace(f.Options))
			if err != nil {
				a.log.Warn(ctx, "fetching link options", "doctype", f.Options, "error", err)
			} else if len(opts) > 0 {
				fmt.Fprintf(a.out, "Options: %s\n", strings.Join(opts, ", "))
			}
		}
		return a.promptText(f)

	case models.FieldTypeInt:
		raw, err := GetSimpleText(a.reader, promptFor(f), a.out)
		if err != nil || raw == "" {
			return nil, err
		}
		n, convErr := strconv.Atoi(raw)
		if convErr != nil {
			fmt.Fprintf(a.out, "Not a whole number, skipping %s.\n", f.Fieldname)
			return nil, nil
		}
		return n, nil

	case models.FieldTypeFloat:
		raw, err := GetSimpleText(a.reader, promptFor(f), a.out)
		if err != nil || raw == "" {
			return nil, err
		}
		x, convErr := strconv.ParseFloat(raw, 64)
		if convErr != nil {
			fmt.Fprintf(a.out, "Not a number, skipping %s.\n", f.Fieldname)
			return nil, nil
		}
		return x, nil

	case models.FieldTypeTable:
		return a.promptRows(ctx, f)

	default: // Data, Text, Date
		return a.promptText(f)
	}
}

func (a *App) promptText(f models.FieldDefinition) (any, error) {
	raw, err := GetSimpleText(a.reader, promptFor(f), a.out)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	return raw, nil
}

// promptRows collects child documents for a Table field, one row at a time,
// until the user declines to add another.
func (a *App) promptRows(ctx context.Context, f models.FieldDefinition) (any, error) {
	child := strings.TrimSpace(f.Options)

	childSchema, _, err := a.repos.Schemas.Get(ctx, child)
	if err != nil {
		return nil, err
	}
	if childSchema == nil {
		fmt.Fprintf(a.out, "Rows for %s unavailable offline, skipping.\n", child)
		return nil, nil
	}

	var rows []map[string]any
	for {
		answer, err := GetSimpleText(a.reader, fmt.Sprintf("Add a %s row? (y/n)", child), a.out)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(answer, "y") {
			break
		}
		row, err := a.promptDocument(ctx, childSchema)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows, nil
}

func promptFor(f models.FieldDefinition) string {
	return fmt.Sprintf("%s (%s)", labelOf(f), f.Fieldtype)
}
