package wordpress

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const responseFmt = `<?xml version="1.0"?>
<methodResponse><params><param><value>%s</value></param></params></methodResponse>`

const postStruct = `<struct>
<member><name>post_id</name><value><string>%d</string></value></member>
<member><name>post_title</name><value><string>Title %d</string></value></member>
<member><name>post_status</name><value><string>publish</string></value></member>
<member><name>post_type</name><value><string>post</string></value></member>
<member><name>post_excerpt</name><value><string>Excerpt</string></value></member>
<member><name>post_content</name><value><string>&lt;p&gt;hi&lt;/p&gt;</string></value></member>
<member><name>post_date</name><value><dateTime.iso8601>20170312T10:22:33</dateTime.iso8601></value></member>
<member><name>post_modified</name><value><dateTime.iso8601>20170313T08:00:00</dateTime.iso8601></value></member>
</struct>`

// fakeSite answers wp.* calls and records the request bodies.
type fakeSite struct {
	bodies []string
}

func (f *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	body := string(data)
	f.bodies = append(f.bodies, body)

	w.Header().Set("Content-Type", "text/xml")
	switch {
	case strings.Contains(body, "<methodName>wp.newPost</methodName>"):
		fmt.Fprintf(w, responseFmt, "<string>321</string>")
	case strings.Contains(body, "<methodName>wp.getPost</methodName>"):
		fmt.Fprintf(w, responseFmt, fmt.Sprintf(postStruct, 7, 7))
	case strings.Contains(body, "<methodName>wp.getPosts</methodName>"):
		items := "<value>" + fmt.Sprintf(postStruct, 1, 1) + "</value>" +
			"<value>" + fmt.Sprintf(postStruct, 2, 2) + "</value>"
		fmt.Fprintf(w, responseFmt, "<array><data>"+items+"</data></array>")
	case strings.Contains(body, "<methodName>wp.editPost</methodName>"):
		fmt.Fprintf(w, responseFmt, "<boolean>1</boolean>")
	default:
		http.Error(w, "unknown method", http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeSite) {
	t.Helper()

	site := &fakeSite{}
	srv := httptest.NewServer(site)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "admin", "secret", nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, site
}

func TestEndpoint(t *testing.T) {
	tests := map[string]string{
		"https://blog.example.com":            "https://blog.example.com/xmlrpc.php",
		"https://blog.example.com/":           "https://blog.example.com/xmlrpc.php",
		"https://blog.example.com/xmlrpc.php": "https://blog.example.com/xmlrpc.php",
		"https://example.com/blog":            "https://example.com/blog/xmlrpc.php",
	}
	for in, want := range tests {
		if got := Endpoint(in); got != want {
			t.Errorf("Endpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClient_NewPost(t *testing.T) {
	c, site := newTestClient(t)

	id, err := c.NewPost(context.Background(), &NewPost{Title: "Hello", Content: "<p>x</p>"})
	if err != nil {
		t.Fatalf("NewPost failed: %v", err)
	}
	if id != 321 {
		t.Errorf("expected id 321, got %d", id)
	}

	body := site.bodies[0]
	for _, want := range []string{"admin", "secret", "post_title", "Hello"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected request to contain %q:\n%s", want, body)
		}
	}
}

func TestClient_GetPost(t *testing.T) {
	c, _ := newTestClient(t)

	post, err := c.GetPost(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if post.ID != 7 || post.Title != "Title 7" || post.Status != "publish" || post.Type != "post" {
		t.Errorf("unexpected post: %+v", post)
	}
	if post.Content != "<p>hi</p>" {
		t.Errorf("unexpected content %q", post.Content)
	}
	if post.Date.Year() != 2017 || post.Date.Month() != 3 || post.Date.Day() != 12 {
		t.Errorf("unexpected date %v", post.Date)
	}
}

func TestClient_GetPosts(t *testing.T) {
	c, site := newTestClient(t)

	posts, err := c.GetPosts(context.Background(), Filter{Number: 2, Offset: 10})
	if err != nil {
		t.Fatalf("GetPosts failed: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != 1 || posts[1].ID != 2 {
		t.Fatalf("unexpected posts: %+v", posts)
	}
	if !strings.Contains(site.bodies[0], "offset") {
		t.Errorf("expected filter in request:\n%s", site.bodies[0])
	}
}

func TestClient_EditPost(t *testing.T) {
	c, site := newTestClient(t)

	title := "New title"
	ok, err := c.EditPost(context.Background(), 7, Edit{Title: &title})
	if err != nil {
		t.Fatalf("EditPost failed: %v", err)
	}
	if !ok {
		t.Error("expected edit to report success")
	}
	if strings.Contains(site.bodies[0], "post_content") {
		t.Error("expected only the edited fields to be sent")
	}
}

func TestClient_Cancelled(t *testing.T) {
	c, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.GetPost(ctx, 1); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestEdit_Empty(t *testing.T) {
	if !(Edit{}).Empty() {
		t.Error("expected zero edit to be empty")
	}
	s := "draft"
	if (Edit{Status: &s}).Empty() {
		t.Error("expected edit with status to be non-empty")
	}
}
