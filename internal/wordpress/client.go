package wordpress

import (
	"context"
	"fmt"
	"net/http"
	"net/rpc"
	"strconv"
	"strings"

	"github.com/kolo/xmlrpc"
)

// Client calls the wp.* XML-RPC methods of one site.
//
// Calls are not retried: remote failures are returned to the caller as is.
type Client struct {
	rpc      *xmlrpc.Client
	blogID   int
	username string
	password string
}

// Endpoint returns the XML-RPC endpoint for a site URL.
func Endpoint(siteURL string) string {
	u := strings.TrimRight(siteURL, "/")
	if strings.HasSuffix(u, "/xmlrpc.php") {
		return u
	}
	return u + "/xmlrpc.php"
}

// NewClient creates a client for the site at siteURL. transport may be nil
// to use http.DefaultTransport.
func NewClient(siteURL, username, password string, transport http.RoundTripper) (*Client, error) {
	c, err := xmlrpc.NewClient(Endpoint(siteURL), transport)
	if err != nil {
		return nil, fmt.Errorf("failed to create xmlrpc client: %w", err)
	}
	return &Client{
		rpc:      c,
		username: username,
		password: password,
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.rpc.Close()
}

// NewPost creates a post and returns the id assigned by the site.
func (c *Client) NewPost(ctx context.Context, post *NewPost) (int, error) {
	var id string
	if err := c.call(ctx, "wp.newPost", &id, post.fields()); err != nil {
		return 0, fmt.Errorf("failed to create post: %w", err)
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("unexpected post id %q: %w", id, err)
	}
	return n, nil
}

// GetPost fetches a post. fields optionally restricts the returned fields.
func (c *Client) GetPost(ctx context.Context, id int, fields ...string) (*Post, error) {
	args := []interface{}{id}
	if len(fields) > 0 {
		args = append(args, fields)
	}

	var raw rawPost
	if err := c.call(ctx, "wp.getPost", &raw, args...); err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	post, err := raw.toPost()
	if err != nil {
		return nil, fmt.Errorf("unexpected post id %q: %w", raw.PostID, err)
	}
	return post, nil
}

// GetPosts fetches one page of posts. Number is capped by the site.
func (c *Client) GetPosts(ctx context.Context, filter Filter) ([]*Post, error) {
	var raws []rawPost
	if err := c.call(ctx, "wp.getPosts", &raws, filter.fields()); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts := make([]*Post, 0, len(raws))
	for i := range raws {
		post, err := raws[i].toPost()
		if err != nil {
			return nil, fmt.Errorf("unexpected post id %q: %w", raws[i].PostID, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// EditPost updates a post. The boolean is the site's report of success.
func (c *Client) EditPost(ctx context.Context, id int, edit Edit) (bool, error) {
	var ok bool
	if err := c.call(ctx, "wp.editPost", &ok, id, edit.fields()); err != nil {
		return false, fmt.Errorf("failed to edit post %d: %w", id, err)
	}
	return ok, nil
}

// call prefixes the blog id and credentials every wp.* method takes and
// waits for the reply or for ctx to end.
func (c *Client) call(ctx context.Context, method string, reply interface{}, args ...interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := append([]interface{}{c.blogID, c.username, c.password}, args...)

	call := c.rpc.Go(method, params, reply, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case done := <-call.Done:
		return done.Error
	}
}
