package render

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// AttributesFile is the optional per-blog attribute file in the blog root.
const AttributesFile = "asciidoc.toml"

// LoadAttributes merges the globally configured attributes with those in
// <dir>/asciidoc.toml. Per-blog values win. A missing file is not an error.
//
// Example asciidoc.toml:
//
//	source-highlighter = "rouge"
//	icons = "font"
//	sectanchors = ""
func LoadAttributes(globals map[string]interface{}, dir string) (map[string]interface{}, error) {
	attrs := copyAttributes(globals)
	if dir == "" {
		return attrs, nil
	}

	path := filepath.Join(dir, AttributesFile)
	var local map[string]interface{}
	if _, err := toml.DecodeFile(path, &local); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return attrs, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for k, v := range local {
		attrs[k] = v
	}
	return attrs, nil
}
