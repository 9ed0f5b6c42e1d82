package schema

import (
	"fmt"
	"time"
)

// Blog is a configured remote site plus its local sync settings.
type Blog struct {
	Name     string `json:"name" yaml:"name"`
	URL      string `json:"url" yaml:"url"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// MinPostID is the floor below which content pushes are refused.
	// Zero disables the guard.
	MinPostID int `json:"min_post_id" yaml:"min_post_id"`

	// Dir is the local root holding posts/<id>/ directories.
	Dir string `json:"dir" yaml:"dir"`

	// Append holds the attributes of the hidden block that carries the raw
	// AsciiDoc source after the rendered HTML. Empty disables it.
	Append string `json:"append,omitempty" yaml:"append,omitempty"`

	Default bool `json:"default" yaml:"default"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Validate checks if the Blog has valid field values.
func (b *Blog) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("name is required")
	}
	if b.URL == "" {
		return fmt.Errorf("url is required")
	}
	if b.Username == "" {
		return fmt.Errorf("username is required")
	}
	if b.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	if b.MinPostID < 0 {
		return fmt.Errorf("min post id must not be negative (got %d)", b.MinPostID)
	}
	return nil
}

// Guarded reports whether pushing content to id is forbidden.
func (b *Blog) Guarded(id int) bool {
	return b.MinPostID > 0 && id < b.MinPostID
}

// Sanitized returns a copy safe to print: the password is dropped.
func (b *Blog) Sanitized() Blog {
	c := *b
	c.Password = ""
	return c
}

// BlogPatch carries the fields of a blog update. Nil fields are unchanged.
type BlogPatch struct {
	URL       *string
	Username  *string
	Password  *string
	MinPostID *int
	Dir       *string
	Append    *string
	Default   *bool
}

// Empty reports whether the patch changes nothing.
func (p BlogPatch) Empty() bool {
	return p.URL == nil && p.Username == nil && p.Password == nil &&
		p.MinPostID == nil && p.Dir == nil && p.Append == nil && p.Default == nil
}
