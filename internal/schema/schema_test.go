package schema

import (
	"strings"
	"testing"
)

func TestPost_Validate(t *testing.T) {
	tests := []struct {
		name    string
		post    Post
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid post",
			post: Post{ID: 12, Blog: "main", Title: "Hello", Status: StatusPublish},
		},
		{
			name: "status may be empty",
			post: Post{ID: 12, Blog: "main"},
		},
		{
			name:    "zero id",
			post:    Post{Blog: "main"},
			wantErr: true,
			errMsg:  "id must be positive",
		},
		{
			name:    "missing blog",
			post:    Post{ID: 3},
			wantErr: true,
			errMsg:  "blog is required",
		},
		{
			name:    "unknown status",
			post:    Post{ID: 3, Blog: "main", Status: "published"},
			wantErr: true,
			errMsg:  "unknown status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.post.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSkippable(t *testing.T) {
	for _, s := range []string{StatusAutoDraft, StatusInherit, StatusTrash} {
		if !Skippable(s) {
			t.Errorf("expected %q to be skippable", s)
		}
	}
	for _, s := range []string{StatusDraft, StatusPending, StatusPublish, StatusFuture, StatusPrivate} {
		if Skippable(s) {
			t.Errorf("expected %q not to be skippable", s)
		}
	}
}

func TestBlog_Guarded(t *testing.T) {
	b := Blog{MinPostID: 100}
	if !b.Guarded(50) {
		t.Error("expected id 50 to be guarded")
	}
	if b.Guarded(100) {
		t.Error("expected id 100 not to be guarded")
	}
	if b.Guarded(150) {
		t.Error("expected id 150 not to be guarded")
	}

	open := Blog{}
	if open.Guarded(1) {
		t.Error("expected no guard when MinPostID is zero")
	}
}

func TestBlog_ValidateAndSanitize(t *testing.T) {
	b := Blog{Name: "main", URL: "https://example.com", Username: "me", Password: "secret", Dir: "/tmp/blog"}
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	s := b.Sanitized()
	if s.Password != "" {
		t.Errorf("expected sanitized password to be empty, got %q", s.Password)
	}
	if b.Password != "secret" {
		t.Error("Sanitized must not modify the original")
	}

	b.Dir = ""
	if err := b.Validate(); err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestBlogPatch_Empty(t *testing.T) {
	if !(BlogPatch{}).Empty() {
		t.Error("expected zero patch to be empty")
	}
	def := true
	if (BlogPatch{Default: &def}).Empty() {
		t.Error("expected patch with default to be non-empty")
	}
}

func TestPostMeta_RoundTrip(t *testing.T) {
	m := &PostMeta{ID: 7, Title: "Seven", Excerpt: "short"}
	data, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := "{\n  \"id\": 7,\n  \"title\": \"Seven\",\n  \"excerpt\": \"short\"\n}"
	if string(data) != want {
		t.Errorf("unexpected JSON:\n%s\nwant:\n%s", data, want)
	}

	if _, err := UnmarshalPostMeta([]byte(`{"id": 0}`)); err == nil {
		t.Error("expected error for zero id")
	}
}
