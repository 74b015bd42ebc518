package config

// Fixed model identifiers reported in responses and status output.
const (
	DefaultLLMModel       = "gpt-3.5-turbo"
	DefaultEmbeddingModel = "text-embedding-ada-002"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/nyaya/data/db/corpus.db"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/nyaya/data/indices/vectors"
	}
	if cfg.Storage.KeywordIndexPath == "" {
		cfg.Storage.KeywordIndexPath = "/usr/local/var/nyaya/data/indices/bleve"
	}
	if cfg.Corpus.Directory == "" {
		cfg.Corpus.Directory = "/usr/local/var/nyaya/documents"
	}
	if cfg.Corpus.Extensions == nil {
		cfg.Corpus.Extensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx"}
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = DefaultEmbeddingModel
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 500
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = 1000
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = 200
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.ScoreThreshold == 0 {
		cfg.Retrieval.ScoreThreshold = 0.7
	}
	if cfg.Retrieval.CollectionName == "" {
		cfg.Retrieval.CollectionName = "legal_documents"
	}
	if cfg.Lookup.KeywordWeight == 0 && cfg.Lookup.SemanticWeight == 0 {
		cfg.Lookup.KeywordWeight = 0.5
		cfg.Lookup.SemanticWeight = 0.5
	}
	if cfg.Lookup.DefaultLimit == 0 {
		cfg.Lookup.DefaultLimit = 10
	}
	if cfg.Lookup.MaxLimit == 0 {
		cfg.Lookup.MaxLimit = 50
	}
	if cfg.Session.TimeoutHours == 0 {
		cfg.Session.TimeoutHours = 24
	}
}
