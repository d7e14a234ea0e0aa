package store

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Document is one entry of the knowledge-base file.
type Document struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

// LoadKnowledgeFile reads a JSON array of documents from path.
func LoadKnowledgeFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read knowledge file %s", path)
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, errors.Wrapf(err, "failed to parse knowledge file %s", path)
	}
	return docs, nil
}

// SplitText slices content into overlapping rune windows. Each chunk is at
// most size runes; consecutive chunks share overlap runes. Empty content
// yields no chunks.
func SplitText(content string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(content)
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// ChunkDocuments splits documents into store chunks carrying title and
// category metadata.
func ChunkDocuments(docs []Document, size, overlap int) []*Chunk {
	var chunks []*Chunk
	for _, doc := range docs {
		for seq, text := range SplitText(doc.Content, size, overlap) {
			metadata := map[string]string{"title": doc.Title}
			if doc.Category != "" {
				metadata["category"] = doc.Category
			}
			chunks = append(chunks, &Chunk{
				DocID:    doc.ID,
				Seq:      seq,
				Content:  text,
				Metadata: metadata,
			})
		}
	}
	return chunks
}
