// Package blob stores uploaded attachments and hands back a public URL for
// each stored object.
package blob

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type Object struct {
	URL         string `json:"url"`
	Pathname    string `json:"pathname"`
	ContentType string `json:"contentType"`
}

type ObjectStore interface {
	Backend() string
	Put(ctx context.Context, filename, contentType string, data []byte) (Object, error)
}

var filenameSanitizer = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// storedName sanitizes the client-supplied filename and appends a random
// suffix so two uploads of the same name never collide.
func storedName(raw string) string {
	base := strings.TrimSpace(path.Base(raw))
	if base == "" || base == "." || base == "/" {
		base = "file"
	}

	extension := strings.ToLower(path.Ext(base))
	extension = filenameSanitizer.ReplaceAllString(extension, "")
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	namePart := strings.TrimSuffix(base, path.Ext(base))
	namePart = filenameSanitizer.ReplaceAllString(namePart, "_")
	namePart = strings.Trim(namePart, "._")
	if namePart == "" {
		namePart = "file"
	}

	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s-%s%s", namePart, suffix, extension)
}
