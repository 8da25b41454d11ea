package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
)

// lowerKeyword indexes the whole field value as one lowercased term, so
// criteria compare against the full value case-insensitively.
const lowerKeyword = "lower_keyword"

// buildIndexMapping creates the Bleve index mapping for file documents.
//
// String criteria fields use lowerKeyword, tag ids use the plain keyword
// analyzer, numbers and dates are numeric, and "text" carries an English
// full-text copy of name, comments and metadata for free-text search.
func buildIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(lowerKeyword, map[string]any{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, err
	}

	// Metadata fields are dynamic; they get the same treatment as the
	// named string fields.
	indexMapping.DefaultAnalyzer = lowerKeyword

	docMapping := bleve.NewDocumentMapping()

	for _, field := range []string{fieldName, fieldAbsolutePath, fieldExtension, fieldComments} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = lowerKeyword
		fm.Store = field == fieldName || field == fieldExtension
		docMapping.AddFieldMappingsAt(field, fm)
	}

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(fieldID, idFieldMapping)

	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(fieldTags, tagsFieldMapping)

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = en.AnalyzerName
	textFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(fieldText, textFieldMapping)

	for _, field := range []string{fieldSize, fieldWidth, fieldHeight, fieldDateAdded} {
		fm := bleve.NewNumericFieldMapping()
		fm.Store = field == fieldSize || field == fieldDateAdded
		docMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)
	indexMapping.DefaultMapping = docMapping

	return indexMapping, nil
}
