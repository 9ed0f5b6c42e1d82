package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wpasc/wpasc/internal/schema"
)

const blogColumns = `name, url, username, password, min_post_id, dir, append, is_default, created_at, updated_at`

// CreateBlog inserts a new blog.
//
// If the blog is marked default, the previous default is cleared in the
// same transaction.
func (db *DB) CreateBlog(ctx context.Context, blog *schema.Blog) error {
	if err := blog.Validate(); err != nil {
		return fmt.Errorf("invalid blog: %w", err)
	}

	now := time.Now().UTC()
	if blog.CreatedAt.IsZero() {
		blog.CreatedAt = now
	}
	blog.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if blog.Default {
		if err := clearDefault(ctx, tx); err != nil {
			return err
		}
	}

	query := `INSERT INTO blogs (` + blogColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		blog.Name,
		blog.URL,
		blog.Username,
		blog.Password,
		blog.MinPostID,
		blog.Dir,
		blog.Append,
		boolToInt(blog.Default),
		formatTime(blog.CreatedAt),
		formatTime(blog.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create blog %s: %w", blog.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBlog retrieves a blog by name.
// Returns ErrNotFound if the blog does not exist.
func (db *DB) GetBlog(ctx context.Context, name string) (*schema.Blog, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blogs WHERE name = ?`, name)
	blog, err := scanBlog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blog %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blog %s: %w", name, err)
	}
	return blog, nil
}

// GetDefaultBlog retrieves the blog marked default.
// Returns ErrNotFound if no blog is marked default.
func (db *DB) GetDefaultBlog(ctx context.Context) (*schema.Blog, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blogs WHERE is_default = 1`)
	blog, err := scanBlog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("default blog: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default blog: %w", err)
	}
	return blog, nil
}

// ListBlogs returns all blogs ordered by name.
func (db *DB) ListBlogs(ctx context.Context) ([]*schema.Blog, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+blogColumns+` FROM blogs ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	defer rows.Close()

	var blogs []*schema.Blog
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		blogs = append(blogs, blog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blogs: %w", err)
	}
	return blogs, nil
}

// UpdateBlog applies patch to the named blog and returns the updated row.
//
// Returns ErrNothingToChange for an empty patch and ErrNotFound if the blog
// does not exist. Setting Default to true clears the previous default in
// the same transaction.
func (db *DB) UpdateBlog(ctx context.Context, name string, patch schema.BlogPatch) (*schema.Blog, error) {
	if patch.Empty() {
		return nil, ErrNothingToChange
	}
	if patch.MinPostID != nil && *patch.MinPostID < 0 {
		return nil, fmt.Errorf("invalid blog: min post id must not be negative (got %d)", *patch.MinPostID)
	}

	var sets []string
	var args []interface{}
	add := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.URL != nil {
		add("url", *patch.URL)
	}
	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.Password != nil {
		add("password", *patch.Password)
	}
	if patch.MinPostID != nil {
		add("min_post_id", *patch.MinPostID)
	}
	if patch.Dir != nil {
		add("dir", *patch.Dir)
	}
	if patch.Append != nil {
		add("append", *patch.Append)
	}
	if patch.Default != nil {
		add("is_default", boolToInt(*patch.Default))
	}
	add("updated_at", formatTime(time.Now()))
	args = append(args, name)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if patch.Default != nil && *patch.Default {
		if err := clearDefault(ctx, tx); err != nil {
			return nil, err
		}
	}

	query := `UPDATE blogs SET ` + strings.Join(sets, ", ") + ` WHERE name = ?`
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update blog %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("blog %s: %w", name, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return db.GetBlog(ctx, name)
}

// DeleteBlog removes a blog and, by cascade, its post records.
// Returns ErrNotFound if the blog does not exist.
func (db *DB) DeleteBlog(ctx context.Context, name string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM blogs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete blog %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("blog %s: %w", name, ErrNotFound)
	}
	return nil
}

func clearDefault(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `UPDATE blogs SET is_default = 0 WHERE is_default = 1`); err != nil {
		return fmt.Errorf("failed to clear default blog: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBlog(s scanner) (*schema.Blog, error) {
	var blog schema.Blog
	var isDefault int
	var createdAt, updatedAt string

	err := s.Scan(
		&blog.Name,
		&blog.URL,
		&blog.Username,
		&blog.Password,
		&blog.MinPostID,
		&blog.Dir,
		&blog.Append,
		&isDefault,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	blog.Default = isDefault == 1
	blog.CreatedAt = parseTime(createdAt)
	blog.UpdatedAt = parseTime(updatedAt)
	return &blog, nil
}
