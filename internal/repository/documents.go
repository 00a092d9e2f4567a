package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

// Document is one stored JSON record inside a partition.
type Document struct {
	ID        string
	Body      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// dialect holds the SQL fragments that differ between drivers. Both drivers
// accept $N placeholders.
type dialect struct {
	bodyType string // column type
	bodyIn   string // bind expression for a JSON argument
	bodyOut  string // select expression yielding JSON text
	merge    string // top-level merge of $3 into body
}

var dialects = map[string]dialect{
	DriverPostgres: {
		bodyType: "JSONB",
		bodyIn:   "$3::jsonb",
		bodyOut:  "body::text",
		merge:    "body || $3::jsonb",
	},
	DriverSQLite: {
		bodyType: "TEXT",
		bodyIn:   "json($3)",
		bodyOut:  "body",
		merge:    "json_patch(body, $3)",
	},
}

// DocumentRepo is a partitioned JSON document store over database/sql.
type DocumentRepo struct {
	db  *sql.DB
	d   dialect
	now func() time.Time
}

func NewDocumentRepo(db *sql.DB, driver string) (*DocumentRepo, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
	repo := &DocumentRepo{db: db, d: d, now: time.Now}

	err := repo.CreateTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("could not initialize table: %w", err)
	}

	return repo, nil
}

func (r *DocumentRepo) CreateTable(ctx context.Context) error {
	createTableQuery := `CREATE TABLE IF NOT EXISTS documents(
		partition_key TEXT NOT NULL,
		id TEXT NOT NULL,
		body ` + r.d.bodyType + ` NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (partition_key, id)
	);`
	_, err := r.db.ExecContext(ctx, createTableQuery)
	return err
}

// Write stores record under partition/id, replacing any previous body.
// The creation time of an existing document is kept.
func (r *DocumentRepo) Write(ctx context.Context, partition, id string, record any) error {
	body, err := encodeKey(partition, id, record)
	if err != nil {
		return err
	}
	query := `INSERT INTO documents (partition_key, id, body, created_at, updated_at)
		VALUES ($1, $2, ` + r.d.bodyIn + `, $4, $4)
		ON CONFLICT (partition_key, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, partition, id, body, r.stamp()); err != nil {
		return fmt.Errorf("write %s/%s: %w", partition, id, err)
	}
	return nil
}

// Create stores record only if partition/id is free.
func (r *DocumentRepo) Create(ctx context.Context, partition, id string, record any) error {
	body, err := encodeKey(partition, id, record)
	if err != nil {
		return err
	}
	query := `INSERT INTO documents (partition_key, id, body, created_at, updated_at)
		VALUES ($1, $2, ` + r.d.bodyIn + `, $4, $4)
		ON CONFLICT (partition_key, id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, partition, id, body, r.stamp())
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", partition, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", partition, id, err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Update merges the top-level fields of partial into an existing document.
func (r *DocumentRepo) Update(ctx context.Context, partition, id string, partial any) error {
	body, err := encodeKey(partition, id, partial)
	if err != nil {
		return err
	}
	query := `UPDATE documents SET body = ` + r.d.merge + `, updated_at = $4
		WHERE partition_key = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, partition, id, body, r.stamp())
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", partition, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", partition, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) Get(ctx context.Context, partition, id string) (Document, error) {
	query := `SELECT id, ` + r.d.bodyOut + `, created_at, updated_at FROM documents
		WHERE partition_key = $1 AND id = $2`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, partition, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", partition, id, err)
	}
	return doc, nil
}

// ListAll returns every document of the partition, oldest first.
func (r *DocumentRepo) ListAll(ctx context.Context, partition string) ([]Document, error) {
	query := `SELECT id, ` + r.d.bodyOut + `, created_at, updated_at FROM documents
		WHERE partition_key = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, partition)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", partition, err)
	}
	defer rows.Close() //close the cursor in the end

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", partition, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", partition, err)
	}
	return docs, nil
}

func (r *DocumentRepo) stamp() int64 {
	return r.now().UTC().UnixMilli()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc              Document
		body             string
		created, updated int64
	)
	if err := row.Scan(&doc.ID, &body, &created, &updated); err != nil {
		return Document{}, err
	}
	doc.Body = json.RawMessage(body)
	doc.CreatedAt = time.UnixMilli(created).UTC()
	doc.UpdatedAt = time.UnixMilli(updated).UTC()
	return doc, nil
}

func encodeKey(partition, id string, record any) (string, error) {
	if strings.TrimSpace(partition) == "" || strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("partition and id are required")
	}
	b, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode %s/%s: %w", partition, id, err)
	}
	return string(b), nil
}
