// Package catalogbuilder is the one-shot operation-descriptor builder the
// Design Notes call for (see DESIGN.md, "Operation-descriptor builder"): it collects every
// reflection-based property discovery into a single startup pass, so that
// afterward the generated executors never reflect again. Grounded on the
// teacher's internal/catalog.Catalog — a live, continuously-refreshed
// struct registry — restructured here into a Build that runs exactly once.
package catalogbuilder

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/blueprintapi/blueprint/pkg/models"
)

// OperationSpec is the host-supplied declaration of one operation, the
// "catalog of declared API operations" spec.md §1 describes. Everything
// except Properties is taken as given; Properties is discovered by Build
// from PayloadType's exported fields and their struct tags.
type OperationSpec struct {
	Name                string
	PayloadType         reflect.Type
	Responses           []models.ResponseDescriptor
	Features            models.FeatureBag
	RequiresReturnValue bool
	Links               []string
}

// Build runs the one-shot reflection pass over every spec's PayloadType and
// returns the resulting, immutable OperationDescriptor catalog. Properties
// are discovered from exported struct fields: the property name is the
// field's `json` tag name if present, else the field name; the source part
// comes from a `source:"header|query|cookie|body|route"` tag, defaulting
// to SourceBody; a pointer field type is nullable.
func Build(specs []OperationSpec) ([]*models.OperationDescriptor, error) {
	descriptors := make([]*models.OperationDescriptor, 0, len(specs))
	for _, spec := range specs {
		d, err := buildOne(spec)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func buildOne(spec OperationSpec) (*models.OperationDescriptor, error) {
	if spec.Name == "" {
		return nil, &models.Error{
			Kind:    models.ErrCompilationError,
			Message: "operation spec has no Name",
		}
	}

	t := spec.PayloadType
	if t == nil {
		return nil, &models.Error{
			Kind:      models.ErrCompilationError,
			Operation: spec.Name,
			Message:   "operation spec has no PayloadType",
		}
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &models.Error{
			Kind:      models.ErrCompilationError,
			Operation: spec.Name,
			Message:   fmt.Sprintf("PayloadType must be a struct, got %s", t.Kind()),
		}
	}

	properties := make([]models.PropertyDescriptor, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		properties = append(properties, models.PropertyDescriptor{
			Name:     propertyName(field),
			Type:     field.Type,
			Nullable: field.Type.Kind() == reflect.Ptr,
			Source:   sourcePart(field),
		})
	}

	return &models.OperationDescriptor{
		Name:                spec.Name,
		PayloadType:         spec.PayloadType,
		Properties:          properties,
		Responses:           spec.Responses,
		Features:            spec.Features,
		RequiresReturnValue: spec.RequiresReturnValue,
		Links:               spec.Links,
	}, nil
}

func propertyName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		name := strings.SplitN(tag, ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

func sourcePart(field reflect.StructField) models.SourcePart {
	switch strings.ToLower(field.Tag.Get("source")) {
	case "header":
		return models.SourceHeader
	case "query":
		return models.SourceQuery
	case "cookie":
		return models.SourceCookie
	case "route":
		return models.SourceRoute
	default:
		return models.SourceBody
	}
}
