// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/comicrewriter/internal/platform/database/schema"
	"github.com/taibuivan/comicrewriter/internal/platform/dberr"
)

// postgresRepository implements [Repository] using pgx.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed history store.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

/*
Insert stores one attempt.

Parameters:
  - context: context.Context
  - entry: *Entry (ID and CreatedAt must be set)

Returns:
  - error: Execution errors
*/
func (repository *postgresRepository) Insert(ctx context.Context, entry *Entry) error {
	table := schema.RewritePageResult
	columns := table.Columns()

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		table.Table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	_, err := repository.pool.Exec(ctx, query,
		entry.ID, entry.BatchID, entry.ChapterID, entry.PageID, entry.PageName, entry.PagePath,
		entry.Status, entry.Result, entry.Error, entry.Language, entry.DurationMs, entry.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres: failed to insert page result: %w", err), "insert_page_result")
	}
	return nil
}

/*
List returns entries newest first.

Returns:
  - []*Entry: One page of entries
  - int: Total matching entries
  - error: Execution errors
*/
func (repository *postgresRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, int, error) {
	table := schema.RewritePageResult

	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE TRUE
	`, strings.Join(table.Columns(), ", "), table.Table))

	// Optional filters
	conditions := []struct {
		column string
		value  string
	}{
		{table.BatchID, filter.BatchID},
		{table.PageID, filter.PageID},
		{table.Status, filter.Status},
	}
	for _, condition := range conditions {
		if condition.value == "" {
			continue
		}
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", condition.column, argID))
		args = append(args, condition.value)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s DESC, %s DESC", table.CreatedAt, table.ID))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(fmt.Errorf("postgres: failed to list page results: %w", err), "list_page_results")
	}
	defer rows.Close()

	entries := []*Entry{}
	var totalCount int

	for rows.Next() {
		var entry Entry
		err := rows.Scan(
			&entry.ID,
			&entry.BatchID,
			&entry.ChapterID,
			&entry.PageID,
			&entry.PageName,
			&entry.PagePath,
			&entry.Status,
			&entry.Result,
			&entry.Error,
			&entry.Language,
			&entry.DurationMs,
			&entry.CreatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan page result: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_page_results")
	}

	return entries, totalCount, nil
}
