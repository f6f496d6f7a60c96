package docstore

import (
	"time"
)

// Document represents a scanned source document
type Document struct {
	ID           string     `json:"id"`
	Path         string     `json:"path"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Metadata     *Metadata  `json:"metadata"`
	Sections     []*Section `json:"sections"`
	LastModified time.Time  `json:"last_modified"`
	Size         int64      `json:"size"`
	Hash         string     `json:"hash"`
}

// Section represents a document chunk used as a retrieval unit
type Section struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Heading    string `json:"heading"`
	Content    string `json:"content"`
	Level      int    `json:"level"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	WordCount  int    `json:"word_count"`
}

// Metadata holds frontmatter metadata for documents
type Metadata struct {
	Tags     []string               `json:"tags"`
	Author   string                 `json:"author"`
	Date     *time.Time             `json:"date"`
	Custom   map[string]interface{} `json:"custom"`
	Language string                 `json:"language"`
	Format   string                 `json:"format"`
}

// EmbedText returns the text submitted to the embedding backend for a
// section. The heading is prepended so retrieval can match on it.
func (s *Section) EmbedText() string {
	if s.Heading == "" {
		return s.Content
	}
	return s.Heading + "\n" + s.Content
}
