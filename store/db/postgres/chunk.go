package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hadasco/deskrag/store"
)

// ReplaceChunks swaps the indexed chunks in one transaction so concurrent
// searches see either the previous index or the new one.
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
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` +
		placeholder(4) + `, ` + placeholder(5) + `, ` + placeholder(6) + `)`

	now := time.Now().Unix()
	for _, chunk := range chunks {
		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return errors.Wrap(err, "failed to marshal chunk metadata")
		}
		_, err = tx.ExecContext(ctx, stmt,
			chunk.DocID,
			chunk.Seq,
			chunk.Content,
			metadata,
			pgvector.NewVector(chunk.Embedding),
			now,
		)
		if err != nil {
			return errors.Wrap(err, "failed to insert chunk")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit chunk replacement")
}

// VectorSearch returns the closest chunks by cosine distance. The <=>
// operator computes cosine distance, so ascending order is most similar
// first.
func (d *DB) VectorSearch(ctx context.Context, vector []float32, limit int) ([]*store.SearchResult, error) {
	if limit <= 0 {
		limit = 3
	}

	query := `
		SELECT content, metadata, embedding <=> ` + placeholder(1) + ` AS distance
		FROM knowledge_chunk
		ORDER BY embedding <=> ` + placeholder(2) + `
		LIMIT ` + placeholder(3)

	v := pgvector.NewVector(vector)
	rows, err := d.db.QueryContext(ctx, query, v, v, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	results := []*store.SearchResult{}
	for rows.Next() {
		var result store.SearchResult
		var metadataBytes []byte
		if err := rows.Scan(&result.Content, &metadataBytes, &result.Distance); err != nil {
			return nil, errors.Wrap(err, "failed to scan search result")
		}
		if len(metadataBytes) > 0 {
			if err := json.Unmarshal(metadataBytes, &result.Metadata); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal chunk metadata")
			}
		}
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
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
