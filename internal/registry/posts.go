package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wpasc/wpasc/internal/schema"
)

const postColumns = `blog, id, title, hash, status, created_at, updated_at, deleted_at`

// CreatePost inserts a new post record. It fails if the record exists.
func (db *DB) CreatePost(ctx context.Context, post *schema.Post) error {
	if err := post.Validate(); err != nil {
		return fmt.Errorf("invalid post: %w", err)
	}
	post.SetDefaults()

	query := `INSERT INTO posts (` + postColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.ExecContext(ctx, query,
		post.Blog,
		post.ID,
		post.Title,
		nullString(post.Hash),
		nullString(post.Status),
		formatTime(post.CreatedAt),
		formatTime(post.UpdatedAt),
		timeToNullString(post.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create post %d: %w", post.ID, err)
	}
	return nil
}

// UpsertPost inserts or updates a post record keyed by (blog, id).
//
// Only title, status and timestamps are written: the stored hash belongs
// to the push path and survives a pull.
func (db *DB) UpsertPost(ctx context.Context, post *schema.Post) error {
	if err := post.Validate(); err != nil {
		return fmt.Errorf("invalid post: %w", err)
	}
	post.SetDefaults()

	query := `
	INSERT INTO posts (blog, id, title, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(blog, id) DO UPDATE SET
		title = excluded.title,
		status = excluded.status,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		deleted_at = NULL
	`

	_, err := db.conn.ExecContext(ctx, query,
		post.Blog,
		post.ID,
		post.Title,
		nullString(post.Status),
		formatTime(post.CreatedAt),
		formatTime(post.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert post %d: %w", post.ID, err)
	}
	return nil
}

// UpdatePostHash records the digest of the content last pushed for a post.
// Returns ErrNotFound if the record does not exist.
func (db *DB) UpdatePostHash(ctx context.Context, blog string, id int, hash string) error {
	query := `UPDATE posts SET hash = ?, updated_at = ? WHERE blog = ? AND id = ?`
	res, err := db.conn.ExecContext(ctx, query, hash, formatTime(time.Now()), blog, id)
	if err != nil {
		return fmt.Errorf("failed to update hash of post %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeletePost soft-deletes a post record by setting deleted_at. The row is
// hidden from ListPosts until a later UpsertPost revives it.
// Returns ErrNotFound if no live record exists.
func (db *DB) DeletePost(ctx context.Context, blog string, id int) error {
	query := `UPDATE posts SET deleted_at = ? WHERE blog = ? AND id = ? AND deleted_at IS NULL`
	res, err := db.conn.ExecContext(ctx, query, formatTime(time.Now()), blog, id)
	if err != nil {
		return fmt.Errorf("failed to delete post %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetPost retrieves a single post record.
// Returns ErrNotFound if the record does not exist.
func (db *DB) GetPost(ctx context.Context, blog string, id int) (*schema.Post, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE blog = ? AND id = ?`, blog, id)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return post, nil
}

// ListPosts returns the live post records of a blog ordered by id.
func (db *DB) ListPosts(ctx context.Context, blog string) ([]*schema.Post, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE blog = ? AND deleted_at IS NULL ORDER BY id ASC`, blog)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*schema.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

// GetPostCount returns the number of live post records of a blog.
func (db *DB) GetPostCount(ctx context.Context, blog string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE blog = ? AND deleted_at IS NULL`, blog).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get post count: %w", err)
	}
	return count, nil
}

func scanPost(s scanner) (*schema.Post, error) {
	var post schema.Post
	var hash, status, deletedAt sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(
		&post.Blog,
		&post.ID,
		&post.Title,
		&hash,
		&status,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	post.Hash = hash.String
	post.Status = status.String
	post.CreatedAt = parseTime(createdAt)
	post.UpdatedAt = parseTime(updatedAt)
	post.DeletedAt = nullStringToTime(deletedAt)
	return &post, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
