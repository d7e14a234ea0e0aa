package sqlite

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/hadasco/deskrag/store"
)

// ReplaceChunks swaps the indexed chunks in one transaction.
func (d *DB) ReplaceChunks(ctx context.Context, chunks []*store.Chunk) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM knowledge_chunk`); err != nil {
		return errors.Wrap(err, "failed to clear chunks")
	}

	stmt := `
		INSERT INTO knowledge_chunk (doc_id, seq, content, metadata, embedding, created_ts)
		VALUES (?, ?, ?, ?, ?, ?)`

	now := time.Now().Unix()
	for _, chunk := range chunks {
		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return errors.Wrap(err, "failed to marshal chunk metadata")
		}
		embedding, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return errors.Wrap(err, "failed to marshal chunk embedding")
		}
		_, err = tx.ExecContext(ctx, stmt,
			chunk.DocID, chunk.Seq, chunk.Content, string(metadata), string(embedding), now)
		if err != nil {
			return errors.Wrap(err, "failed to insert chunk")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit chunk replacement")
}

// VectorSearch scans every chunk and ranks by cosine distance.
func (d *DB) VectorSearch(ctx context.Context, vector []float32, limit int) ([]*store.SearchResult, error) {
	if limit <= 0 {
		limit = 3
	}

	rows, err := d.db.QueryContext(ctx, `SELECT content, metadata, embedding FROM knowledge_chunk`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan chunks")
	}
	defer rows.Close()

	results := []*store.SearchResult{}
	for rows.Next() {
		var content, metadataJSON, embeddingJSON string
		if err := rows.Scan(&content, &metadataJSON, &embeddingJSON); err != nil {
			return nil, errors.Wrap(err, "failed to scan chunk")
		}

		var embedding []float32
		if err := json.Unmarshal([]byte(embeddingJSON), &embedding); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal chunk embedding")
		}
		var metadata map[string]string
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal chunk metadata")
		}

		results = append(results, &store.SearchResult{
			Content:  content,
			Metadata: metadata,
			Distance: cosineDistance(vector, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CountChunks reports the size of the index.
func (d *DB) CountChunks(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_chunk`).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count chunks")
	}
	return count, nil
}

// cosineDistance returns 1 - cosine similarity, matching the pgvector <=>
// operator. Mismatched or zero-norm vectors get the maximum distance so
// they rank last.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
