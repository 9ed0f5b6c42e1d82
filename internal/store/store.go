// Package store implements the on-disk layout of a blog's posts:
// one directory per post id holding the AsciiDoc source and the last
// pulled metadata snapshot.
//
//	<dir>/posts/<id>/content.adoc
//	<dir>/posts/<id>/post.json
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/wpasc/wpasc/internal/schema"
)

const (
	// ContentFile is the authoritative local AsciiDoc source.
	ContentFile = "content.adoc"

	// MetaFile is the JSON snapshot of remote metadata.
	MetaFile = "post.json"

	postsDir = "posts"

	titlePrefix = "//title:"
)

// ErrNoContent is returned when a post has no local content.adoc.
var ErrNoContent = errors.New("no local content")

// Store reads and writes post artifacts under a blog root directory.
type Store struct {
	fs   afero.Fs
	root string
}

// New creates a Store rooted at root on the given filesystem.
func New(fsys afero.Fs, root string) *Store {
	return &Store{fs: fsys, root: root}
}

// NewOS creates a Store on the operating system filesystem.
func NewOS(root string) *Store {
	return New(afero.NewOsFs(), root)
}

// Root returns the blog root directory.
func (s *Store) Root() string {
	return s.root
}

// PostsDir returns the directory holding all post directories.
func (s *Store) PostsDir() string {
	return filepath.Join(s.root, postsDir)
}

// PostDir returns the directory of a single post.
func (s *Store) PostDir(id int) string {
	return filepath.Join(s.PostsDir(), strconv.Itoa(id))
}

// ContentPath returns the path of a post's content.adoc.
func (s *Store) ContentPath(id int) string {
	return filepath.Join(s.PostDir(id), ContentFile)
}

// MetaPath returns the path of a post's post.json.
func (s *Store) MetaPath(id int) string {
	return filepath.Join(s.PostDir(id), MetaFile)
}

// EnsurePostsDir creates the posts directory if it does not exist.
func (s *Store) EnsurePostsDir() error {
	if err := s.fs.MkdirAll(s.PostsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create posts directory: %w", err)
	}
	return nil
}

// HasContent reports whether content.adoc exists for a post.
func (s *Store) HasContent(id int) bool {
	ok, err := afero.Exists(s.fs, s.ContentPath(id))
	return err == nil && ok
}

// EnsurePostDir creates the post directory if it does not exist.
func (s *Store) EnsurePostDir(id int) error {
	if err := s.fs.MkdirAll(s.PostDir(id), 0755); err != nil {
		return fmt.Errorf("failed to create post directory %d: %w", id, err)
	}
	return nil
}

// ReadContent returns the raw AsciiDoc source of a post.
// Returns ErrNoContent if content.adoc does not exist.
func (s *Store) ReadContent(id int) (string, error) {
	data, err := afero.ReadFile(s.fs, s.ContentPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("post %d: %w", id, ErrNoContent)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content of post %d: %w", id, err)
	}
	return string(data), nil
}

// WriteContent stores the raw AsciiDoc source of a post.
func (s *Store) WriteContent(id int, raw string) error {
	if err := s.EnsurePostDir(id); err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, s.ContentPath(id), []byte(raw), 0644); err != nil {
		return fmt.Errorf("failed to write content of post %d: %w", id, err)
	}
	return nil
}

// WriteMeta writes the post.json snapshot.
func (s *Store) WriteMeta(meta *schema.PostMeta) error {
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("cannot write invalid metadata: %w", err)
	}
	data, err := meta.Marshal()
	if err != nil {
		return err
	}
	if err := s.EnsurePostDir(meta.ID); err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, s.MetaPath(meta.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata of post %d: %w", meta.ID, err)
	}
	return nil
}

// ReadMeta reads the post.json snapshot.
func (s *Store) ReadMeta(id int) (*schema.PostMeta, error) {
	data, err := afero.ReadFile(s.fs, s.MetaPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata of post %d: %w", id, err)
	}
	return schema.UnmarshalPostMeta(data)
}

// ListLocal returns the ids of all post directories in ascending order.
// Entries that are not numeric directories are ignored.
func (s *Store) ListLocal() ([]int, error) {
	entries, err := afero.ReadDir(s.fs, s.PostsDir())
	if errors.Is(err, fs.ErrNotExist) {
		return []int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read posts directory: %w", err)
	}

	ids := []int{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := strconv.Atoi(entry.Name())
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// IDFromPath extracts the post id from a path inside the posts directory,
// e.g. <dir>/posts/42/content.adoc. ok is false for any other path.
func (s *Store) IDFromPath(path string) (id int, ok bool) {
	rel, err := filepath.Rel(s.PostsDir(), path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return 0, false
	}
	first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
	id, err = strconv.Atoi(first)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// WrapTitle prefixes raw with a //title: comment so the source carries
// its own title.
func WrapTitle(title, raw string) string {
	return fmt.Sprintf("%s %s\n%s", titlePrefix, title, raw)
}

// ParseTitle returns the title from a leading //title: line and the
// remaining source. ok is false when there is no such line.
func ParseTitle(source string) (title, rest string, ok bool) {
	if !strings.HasPrefix(source, titlePrefix) {
		return "", source, false
	}
	line, rest, _ := strings.Cut(source, "\n")
	return strings.TrimSpace(strings.TrimPrefix(line, titlePrefix)), rest, true
}
