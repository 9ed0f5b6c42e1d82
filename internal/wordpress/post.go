// Package wordpress talks to a WordPress site over its XML-RPC API.
package wordpress

import (
	"strconv"
	"time"
)

// PageSize is the number of posts the service returns per request.
const PageSize = 100

// Post is a remote post as returned by the service.
type Post struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Excerpt  string    `json:"excerpt,omitempty"`
	Content  string    `json:"content,omitempty"`
	Status   string    `json:"status"`
	Type     string    `json:"type"`
	Date     time.Time `json:"date"`
	Modified time.Time `json:"modified"`
}

// NewPost carries the fields of a post to create.
type NewPost struct {
	Title   string
	Excerpt string
	Content string
	Status  string
	Date    time.Time
}

// Filter selects a page of posts.
type Filter struct {
	Number     int
	Offset     int
	PostType   string
	PostStatus string
}

// Edit carries the fields of a post update. Nil fields are left unchanged.
type Edit struct {
	Title   *string
	Excerpt *string
	Content *string
	Status  *string
	Date    *time.Time
}

// Empty reports whether the edit changes nothing.
func (e Edit) Empty() bool {
	return e.Title == nil && e.Excerpt == nil && e.Content == nil && e.Status == nil && e.Date == nil
}

// rawPost mirrors the XML-RPC struct returned by wp.getPost and wp.getPosts.
type rawPost struct {
	PostID       string    `xmlrpc:"post_id"`
	PostTitle    string    `xmlrpc:"post_title"`
	PostExcerpt  string    `xmlrpc:"post_excerpt"`
	PostContent  string    `xmlrpc:"post_content"`
	PostStatus   string    `xmlrpc:"post_status"`
	PostType     string    `xmlrpc:"post_type"`
	PostDate     time.Time `xmlrpc:"post_date"`
	PostModified time.Time `xmlrpc:"post_modified"`
}

func (r *rawPost) toPost() (*Post, error) {
	id, err := strconv.Atoi(r.PostID)
	if err != nil {
		return nil, err
	}
	return &Post{
		ID:       id,
		Title:    r.PostTitle,
		Excerpt:  r.PostExcerpt,
		Content:  r.PostContent,
		Status:   r.PostStatus,
		Type:     r.PostType,
		Date:     r.PostDate,
		Modified: r.PostModified,
	}, nil
}

func (n *NewPost) fields() map[string]interface{} {
	f := map[string]interface{}{
		"post_type":    "post",
		"post_title":   n.Title,
		"post_content": n.Content,
	}
	if n.Excerpt != "" {
		f["post_excerpt"] = n.Excerpt
	}
	if n.Status != "" {
		f["post_status"] = n.Status
	}
	if !n.Date.IsZero() {
		f["post_date_gmt"] = n.Date.UTC()
	}
	return f
}

func (e *Edit) fields() map[string]interface{} {
	f := map[string]interface{}{}
	if e.Title != nil {
		f["post_title"] = *e.Title
	}
	if e.Excerpt != nil {
		f["post_excerpt"] = *e.Excerpt
	}
	if e.Content != nil {
		f["post_content"] = *e.Content
	}
	if e.Status != nil {
		f["post_status"] = *e.Status
	}
	if e.Date != nil {
		f["post_date_gmt"] = e.Date.UTC()
	}
	return f
}

func (f *Filter) fields() map[string]interface{} {
	out := map[string]interface{}{
		"number": f.Number,
		"offset": f.Offset,
	}
	if f.PostType != "" {
		out["post_type"] = f.PostType
	}
	if f.PostStatus != "" {
		out["post_status"] = f.PostStatus
	}
	return out
}
