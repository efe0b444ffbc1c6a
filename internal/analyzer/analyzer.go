// Package analyzer extracts the labelled-field contract a template
// spreadsheet declares.
package analyzer

import (
	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/internal/sheet"
)

// AnalyzeFile reads template bytes and analyzes the first sheet
func AnalyzeFile(data []byte) (*entity.TemplateAnalysis, error) {
	g, err := sheet.Read(data)
	if err != nil {
		return nil, err
	}
	a := Analyze(g)
	return &a, nil
}

// Analyze looks up every catalog label independently. Metadata and total
// labels count only when they carry a value; line-item labels count when the
// label itself is present, since they are table headers.
func Analyze(g *sheet.Grid) entity.TemplateAnalysis {
	a := entity.TemplateAnalysis{
		Fields:          []entity.TemplateField{},
		MetadataFields:  []entity.TemplateField{},
		LineItemColumns: []entity.TemplateField{},
		TotalFields:     []entity.TemplateField{},
	}

	for _, label := range sheet.TemplateMetadataLabels {
		if f, ok := valueField(g, label, entity.FieldTypeMetadata); ok {
			a.MetadataFields = append(a.MetadataFields, f)
			a.Fields = append(a.Fields, f)
		}
	}

	for _, label := range sheet.TemplateLineItemLabels {
		at, ok := g.FindLabel(label)
		if !ok {
			continue
		}
		sample, _, found := g.FindValue(label)
		if !found {
			sample = label
		}
		f := entity.TemplateField{
			Label:       label,
			Location:    at.String(),
			SampleValue: sample,
			FieldType:   entity.FieldTypeLineItem,
		}
		a.LineItemColumns = append(a.LineItemColumns, f)
		a.Fields = append(a.Fields, f)
	}

	for _, label := range sheet.TemplateTotalLabels {
		if f, ok := valueField(g, label, entity.FieldTypeTotal); ok {
			a.TotalFields = append(a.TotalFields, f)
			a.Fields = append(a.Fields, f)
		}
	}

	return a
}

// valueField reports the label's location as the first cell that contains
// it, which may differ from the cell the value was read next to
func valueField(g *sheet.Grid, label string, ft entity.FieldType) (entity.TemplateField, bool) {
	value, _, ok := g.FindValue(label)
	if !ok {
		return entity.TemplateField{}, false
	}
	at, _ := g.FindLabel(label)
	return entity.TemplateField{
		Label:       label,
		Location:    at.String(),
		SampleValue: value,
		FieldType:   ft,
	}, true
}
