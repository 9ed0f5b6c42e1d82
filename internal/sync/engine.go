package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wpasc/wpasc/internal/registry"
	"github.com/wpasc/wpasc/internal/render"
	"github.com/wpasc/wpasc/internal/schema"
	"github.com/wpasc/wpasc/internal/store"
	"github.com/wpasc/wpasc/internal/wordpress"
)

// Config holds engine settings.
type Config struct {
	// PullDelay is the pause between remote reads of a batch pull.
	PullDelay time.Duration

	// PageSize bounds each remote list request.
	PageSize int

	// Attributes are the AsciiDoc attributes passed to the renderer.
	Attributes map[string]interface{}

	// Logger for engine activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PullDelay: 100 * time.Millisecond,
		PageSize:  wordpress.PageSize,
		Logger:    log.New(os.Stderr, "[sync] ", log.LstdFlags),
	}
}

// Engine synchronizes the posts of one blog.
type Engine struct {
	blog     *schema.Blog
	db       Registry
	remote   Remote
	renderer render.Renderer
	store    *store.Store
	config   *Config
}

// New creates an engine with the default configuration.
func New(blog *schema.Blog, db Registry, remote Remote, renderer render.Renderer, contentStore *store.Store) (*Engine, error) {
	return NewWithConfig(blog, db, remote, renderer, contentStore, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(blog *schema.Blog, db Registry, remote Remote, renderer render.Renderer, contentStore *store.Store, config *Config) (*Engine, error) {
	if blog == nil {
		return nil, fmt.Errorf("blog cannot be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if remote == nil {
		return nil, fmt.Errorf("remote cannot be nil")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer cannot be nil")
	}
	if contentStore == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &Engine{
		blog:     blog,
		db:       db,
		remote:   remote,
		renderer: renderer,
		store:    contentStore,
		config:   config,
	}, nil
}

// Blog returns the blog this engine serves.
func (e *Engine) Blog() *schema.Blog {
	return e.blog
}

// Store returns the content store of the blog.
func (e *Engine) Store() *store.Store {
	return e.store
}

// NewPost is the input of Create.
type NewPost struct {
	Title   string
	Excerpt string
	Content string
	Status  string
	Date    time.Time
}

// PullResult describes the local state written by a pull.
type PullResult struct {
	Post *schema.Post
	Meta *schema.PostMeta

	// Skipped is set for items that are not posts or are in a garbage
	// state (auto-draft, inherit, trash). Nothing was written for them.
	Skipped bool
}

// BatchResult collects the outcome of a range pull.
type BatchResult struct {
	Pulled  []*PullResult
	Skipped []int
	Failed  []int
}

// Create makes a new remote post from raw AsciiDoc and sets up its local
// directory and registry record.
//
// The source is wrapped with a //title: line and rendered; the raw source
// is appended when the blog has an append block configured. After the site
// assigns an id, the registry record and the post directory are created,
// content.adoc receives the unwrapped source and its digest is recorded.
// The call ends with a Pull of the new id.
//
// Without a title, a leading //title: line of the content supplies it and
// is dropped from the stored source.
//
// If the remote post was created but a local step failed, the error wraps
// ErrPartialCreate and names the id; the remote post is left in place.
func (e *Engine) Create(ctx context.Context, req NewPost) (*PullResult, error) {
	if strings.TrimSpace(req.Title) == "" {
		if title, rest, ok := store.ParseTitle(req.Content); ok {
			req.Title, req.Content = title, rest
		}
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}
	if req.Status != "" && !schema.ValidStatus(req.Status) {
		return nil, fmt.Errorf("unknown status %q", req.Status)
	}

	html, err := e.renderPost(store.WrapTitle(req.Title, req.Content), req.Content)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	id, err := e.remote.NewPost(ctx, &wordpress.NewPost{
		Title:   req.Title,
		Excerpt: req.Excerpt,
		Content: html,
		Status:  req.Status,
		Date:    date,
	})
	if err != nil {
		return nil, err
	}
	e.config.Logger.Printf("Created post %d (%s)", id, req.Title)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.db.CreatePost(gctx, &schema.Post{ID: id, Blog: e.blog.Name, Title: req.Title, Status: req.Status})
	})
	g.Go(func() error {
		return e.store.EnsurePostDir(id)
	})
	if err := g.Wait(); err != nil {
		return nil, e.partial(id, err)
	}

	if err := e.store.WriteContent(id, req.Content); err != nil {
		return nil, e.partial(id, err)
	}

	stored, err := e.renderPost(req.Content, req.Content)
	if err != nil {
		return nil, e.partial(id, err)
	}
	if err := e.db.UpdatePostHash(ctx, e.blog.Name, id, render.Digest(stored)); err != nil {
		return nil, e.partial(id, err)
	}

	res, err := e.Pull(ctx, id)
	if err != nil {
		return nil, e.partial(id, err)
	}
	return res, nil
}

func (e *Engine) partial(id int, err error) error {
	e.config.Logger.Printf("WARNING: post %d exists remotely but local setup failed: %v", id, err)
	return fmt.Errorf("%w (post %d, run pull %d to repair): %w", ErrPartialCreate, id, id, err)
}

// Pull copies a remote post's metadata into the registry and post.json.
//
// The post directory is created first. Items that are not posts or whose
// status is auto-draft, inherit or trash are reported as skipped and
// nothing is written for them.
func (e *Engine) Pull(ctx context.Context, id int) (*PullResult, error) {
	if err := e.store.EnsurePostDir(id); err != nil {
		return nil, err
	}

	remote, err := e.remote.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if remote.Type != schema.PostTypePost || schema.Skippable(remote.Status) {
		e.config.Logger.Printf("Skipping post %d (type=%s, status=%s)", id, remote.Type, remote.Status)
		return &PullResult{
			Post:    &schema.Post{ID: id, Blog: e.blog.Name, Title: remote.Title, Status: remote.Status},
			Skipped: true,
		}, nil
	}

	post := &schema.Post{
		ID:        id,
		Blog:      e.blog.Name,
		Title:     remote.Title,
		Status:    remote.Status,
		CreatedAt: remote.Date,
		UpdatedAt: remote.Modified,
	}
	if err := e.db.UpsertPost(ctx, post); err != nil {
		return nil, err
	}

	meta := &schema.PostMeta{ID: id, Title: remote.Title, Excerpt: remote.Excerpt}
	if err := e.store.WriteMeta(meta); err != nil {
		return nil, err
	}

	stored, err := e.db.GetPost(ctx, e.blog.Name, id)
	if err != nil {
		return nil, err
	}

	e.config.Logger.Printf("Pulled post %d (%s)", id, remote.Title)
	return &PullResult{Post: stored, Meta: meta}, nil
}

// PullRange pulls ids one at a time, pausing PullDelay between requests.
//
// A failure on one id is logged and does not stop the batch. Pulled
// results keep the order of ids.
func (e *Engine) PullRange(ctx context.Context, ids []int) *BatchResult {
	result := &BatchResult{}

	for i, id := range ids {
		if i > 0 && e.config.PullDelay > 0 {
			select {
			case <-ctx.Done():
				result.Failed = append(result.Failed, ids[i:]...)
				return result
			case <-time.After(e.config.PullDelay):
			}
		}

		res, err := e.Pull(ctx, id)
		if err != nil {
			e.config.Logger.Printf("WARNING: Failed to pull post %d: %v", id, err)
			result.Failed = append(result.Failed, id)
			continue
		}
		if res.Skipped {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		result.Pulled = append(result.Pulled, res)
	}

	e.config.Logger.Printf("Batch pull complete: pulled=%d skipped=%d failed=%d",
		len(result.Pulled), len(result.Skipped), len(result.Failed))
	return result
}

// Push sends the rendered content of a post to the site.
//
// In order: ids below the blog's minimum post id are refused before any
// rendering; content.adoc is rendered and digested; a digest equal to the
// stored hash is refused unless force is set; the remote edit is issued;
// only after it succeeds is the stored hash replaced.
func (e *Engine) Push(ctx context.Context, id int, force bool) error {
	if e.blog.Guarded(id) {
		return fmt.Errorf("%w: post %d is below the minimum post id %d of blog %s",
			ErrWontClobber, id, e.blog.MinPostID, e.blog.Name)
	}

	html, err := e.renderLocal(id)
	if err != nil {
		return err
	}
	digest := render.Digest(html)

	post, err := e.db.GetPost(ctx, e.blog.Name, id)
	if errors.Is(err, registry.ErrNotFound) {
		return fmt.Errorf("post %d is not in the registry, pull it first: %w", id, err)
	}
	if err != nil {
		return err
	}

	if post.Hash == digest && !force {
		return fmt.Errorf("post %d: %w", id, ErrNoChange)
	}

	ok, err := e.remote.EditPost(ctx, id, wordpress.Edit{Content: &html})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("post %d: %w", id, ErrNotUpdated)
	}

	if err := e.db.UpdatePostHash(ctx, e.blog.Name, id, digest); err != nil {
		return err
	}

	e.config.Logger.Printf("Pushed post %d (force=%t)", id, force)
	return nil
}

// Update changes post metadata (title, excerpt, status, date) and pulls the
// result back. Content is never sent and no guard applies.
func (e *Engine) Update(ctx context.Context, id int, edit wordpress.Edit) (*PullResult, error) {
	edit.Content = nil
	if edit.Empty() {
		return nil, ErrNothingToChange
	}
	if edit.Status != nil && !schema.ValidStatus(*edit.Status) {
		return nil, fmt.Errorf("unknown status %q", *edit.Status)
	}

	ok, err := e.remote.EditPost(ctx, id, edit)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, ErrNotUpdated)
	}

	e.config.Logger.Printf("Updated post %d", id)
	return e.Pull(ctx, id)
}

// Changed reports whether the rendered local content differs from what was
// last pushed. A post with no registry record counts as changed.
// Nothing is written.
func (e *Engine) Changed(ctx context.Context, id int) (bool, error) {
	html, err := e.renderLocal(id)
	if err != nil {
		return false, err
	}

	post, err := e.db.GetPost(ctx, e.blog.Name, id)
	if errors.Is(err, registry.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return post.Hash != render.Digest(html), nil
}

// Render returns the HTML a push of id would send.
func (e *Engine) Render(ctx context.Context, id int) (string, error) {
	return e.renderLocal(id)
}

// Content returns the remote post content.
func (e *Engine) Content(ctx context.Context, id int) (string, error) {
	post, err := e.remote.GetPost(ctx, id, "post_content")
	if err != nil {
		return "", err
	}
	return post.Content, nil
}

// List returns up to number remote posts starting at offset, restricted to
// status when it is not empty.
//
// Pages of at most PageSize are requested with increasing offsets until
// number posts are collected or a page comes back short. A number of zero
// or less lists everything.
func (e *Engine) List(ctx context.Context, number, offset int, status string) ([]*wordpress.Post, error) {
	if status != "" && !schema.ValidStatus(status) {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	var posts []*wordpress.Post

	for {
		want := e.config.PageSize
		if number > 0 {
			remaining := number - len(posts)
			if remaining <= 0 {
				break
			}
			if remaining < want {
				want = remaining
			}
		}

		page, err := e.remote.GetPosts(ctx, wordpress.Filter{
			Number:     want,
			Offset:     offset + len(posts),
			PostType:   schema.PostTypePost,
			PostStatus: status,
		})
		if err != nil {
			return nil, err
		}
		posts = append(posts, page...)

		if len(page) < want {
			break
		}
	}

	if number > 0 && len(posts) > number {
		posts = posts[:number]
	}
	return posts, nil
}

// Forget soft-deletes the registry record of a post so ListLocal no longer
// shows it. The post directory and the remote post are left alone; a later
// Pull of the id brings the record back.
func (e *Engine) Forget(ctx context.Context, id int) error {
	if err := e.db.DeletePost(ctx, e.blog.Name, id); err != nil {
		return err
	}
	e.config.Logger.Printf("Forgot post %d", id)
	return nil
}

// ListLocal returns the registry records of the blog.
func (e *Engine) ListLocal(ctx context.Context) ([]*schema.Post, error) {
	return e.db.ListPosts(ctx, e.blog.Name)
}

// Edit opens content.adoc of a post in editor and waits for it to exit.
// editor may carry arguments, e.g. "code --wait".
func (e *Engine) Edit(ctx context.Context, editor string, id int) error {
	args := strings.Fields(editor)
	if len(args) == 0 {
		return ErrNoEditor
	}
	if err := e.store.EnsurePostDir(id); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], e.store.ContentPath(id))...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %s failed: %w", args[0], err)
	}
	return nil
}

func (e *Engine) renderLocal(id int) (string, error) {
	raw, err := e.store.ReadContent(id)
	if err != nil {
		return "", err
	}
	return e.renderPost(raw, raw)
}

// renderPost renders source and appends raw when the blog carries its
// source along.
func (e *Engine) renderPost(source, raw string) (string, error) {
	html, err := e.renderer.Render(source, e.config.Attributes)
	if err != nil {
		return "", err
	}
	return render.AppendSource(html, e.blog.Append, raw), nil
}
