// Package sync keeps local AsciiDoc posts and a WordPress site in step.
//
// Pull copies remote metadata into the registry and the post directory.
// Push renders content.adoc, compares the digest with the one recorded at
// the last push and sends the HTML only when it changed. Create makes a new
// remote post from local content and pulls it back.
package sync

import (
	"context"

	"github.com/wpasc/wpasc/internal/schema"
	"github.com/wpasc/wpasc/internal/wordpress"
)

// Remote is the blogging service the engine synchronizes with.
// wordpress.Client implements it.
type Remote interface {
	// NewPost creates a post and returns its id.
	NewPost(ctx context.Context, post *wordpress.NewPost) (int, error)

	// GetPost reads a post, optionally restricted to fields.
	GetPost(ctx context.Context, id int, fields ...string) (*wordpress.Post, error)

	// GetPosts reads one page of posts.
	GetPosts(ctx context.Context, filter wordpress.Filter) ([]*wordpress.Post, error)

	// EditPost updates a post and reports whether the site applied it.
	EditPost(ctx context.Context, id int, edit wordpress.Edit) (bool, error)
}

// Registry is the local record store. registry.DB implements it.
type Registry interface {
	CreatePost(ctx context.Context, post *schema.Post) error
	UpsertPost(ctx context.Context, post *schema.Post) error
	UpdatePostHash(ctx context.Context, blog string, id int, hash string) error
	DeletePost(ctx context.Context, blog string, id int) error
	GetPost(ctx context.Context, blog string, id int) (*schema.Post, error)
	ListPosts(ctx context.Context, blog string) ([]*schema.Post, error)
}
