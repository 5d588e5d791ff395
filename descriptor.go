package skemaforge

import "strings"

// FieldDescriptor is the editable description of one record field.
//
// DefaultLiteral is free text and only meaningful when HasDefault is set.
// Descriptors carry no identity beyond their position and Name.
type FieldDescriptor struct {
	Name           string `json:"name" yaml:"name"`
	TypeLabel      string `json:"type_label" yaml:"type_label"`
	Optional       bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	HasDefault     bool   `json:"has_default,omitempty" yaml:"has_default,omitempty"`
	DefaultLiteral string `json:"default_literal,omitempty" yaml:"default_literal,omitempty"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Blank reports whether the descriptor has no usable name.
func (d FieldDescriptor) Blank() bool { return strings.TrimSpace(d.Name) == "" }
