package rag

import (
	"regexp"

	"pdf-rag/internal/models"
)

// Classifier picks the retrieval strategy for a question.
type Classifier func(question string) models.RetrievalStrategy

var summarizeIntent = regexp.MustCompile(models.SummarizeIntentRegex)

// KeywordClassifier routes summary and overview style questions to whole
// document context and everything else to semantic search.
func KeywordClassifier(question string) models.RetrievalStrategy {
	if summarizeIntent.MatchString(question) {
		return models.StrategyWholeDocument
	}
	return models.StrategySemantic
}
