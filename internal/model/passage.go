package model

type RetrievedPassage struct {
	ID             string  `json:"id"`
	Text           string  `json:"text"`
	Similarity     float64 `json:"similarity"`
	SourceDocument string  `json:"source_document"`
	SourceSection  string  `json:"source_section"`
	Page           int     `json:"page,omitempty"`
	ChunkIndex     int     `json:"chunk_index"`
}

type SearchResult struct {
	Passages []RetrievedPassage `json:"passages"`
}
