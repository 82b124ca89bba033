package models

const (
	// SummarizeIntentRegex matches questions that ask about the whole document.
	SummarizeIntentRegex = `(?i)\b(summariz(e|e this|e the|e the pdf)|what is this document about|overview|abstract|tl;dr)\b`
	ContextSeparator     = "\n\n"

	FallbackAnswer = "I don't know based on the provided files."
	NoIndexMessage = "No index found. Please upload PDFs first (Ingest)."

	CorpusDirName    = "corpus"
	MetadataFileName = "args.json"
	DocStoreFileName = "docstore.gob"
	CollectionName   = "pdf_chunks"

	DefaultStorageDir      = ".vector_store"
	DefaultChunkSize       = 1000
	DefaultChunkOverlap    = 200
	DefaultTopK            = 6
	DefaultMaxContextChars = 15000
	DefaultMaxFiles        = 5
	DefaultMaxFileBytes    = 50 << 20
)

var (
	SystemPrompt = `You are a helpful assistant.
Use ONLY the provided context. If the context is empty or insufficient, reply exactly:
"` + FallbackAnswer + `"
Always include citations like (File p.Page). Never invent a citation.`

	PromptTemplate = `%s

Question: %s

Context:
%s

Answer with citations.`
)
