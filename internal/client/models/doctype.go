// Package models defines client-side data models used by the fieldentry CLI.
package models

import "strings"

// FieldType classifies a doctype field.
type FieldType string

const (
	FieldTypeData   FieldType = "Data"
	FieldTypeSelect FieldType = "Select"
	FieldTypeText   FieldType = "Text"
	FieldTypeInt    FieldType = "Int"
	FieldTypeFloat  FieldType = "Float"
	FieldTypeLink   FieldType = "Link"
	FieldTypeDate   FieldType = "Date"
	FieldTypeTable  FieldType = "Table"
)

// FieldDefinition describes one field of a doctype schema.
//
// Options is free-form: for Select fields it holds the newline-delimited
// choices; for Link and Table fields it names the referenced doctype.
type FieldDefinition struct {
	Fieldname    string    `json:"fieldname"`
	Label        string    `json:"label"`
	Fieldtype    FieldType `json:"fieldtype"`
	Options      string    `json:"options,omitempty"`
	Hidden       bool      `json:"hidden,omitempty"`
	PrintHidden  bool      `json:"print_hidden,omitempty"`
	ReportHidden bool      `json:"report_hidden,omitempty"`
}

// IsReference reports whether the field contributes an edge to the schema
// graph. Only Link and Table fields reference other doctypes.
func (f FieldDefinition) IsReference() bool {
	return f.Fieldtype == FieldTypeLink || f.Fieldtype == FieldTypeTable
}

// SelectChoices splits the newline-delimited Options of a Select field.
// Blank lines are dropped.
func (f FieldDefinition) SelectChoices() []string {
	var out []string
	for _, line := range strings.Split(f.Options, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// DocTypeSchema is a server-defined form schema: a named, ordered sequence of
// field definitions. Fieldnames are unique within a schema.
type DocTypeSchema struct {
	Name   string            `json:"name"`
	Fields []FieldDefinition `json:"fields"`
}

// LinkedDoctypes returns the names of doctypes referenced by Link and Table
// fields, deduplicated, in field order. A schema may reference itself.
func (s *DocTypeSchema) LinkedDoctypes() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range s.Fields {
		if !f.IsReference() {
			continue
		}
		name := strings.TrimSpace(f.Options)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// ErpSystem is one entry of the systems list on the home screen.
type ErpSystem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FormCount int    `json:"formCount"`
}
