// internal/template/template.go
// Package template renders the placeholder grammar used by destinations,
// rename templates, exec fields and log messages.
package template

import (
	"path/filepath"
	"strings"
	"time"
)

// Render substitutes the supported placeholders against path. Date and
// time placeholders are UTC. Unknown braces are left as-is.
//
//	{filename} full file name        {name} file stem
//	{ext}      extension, no dot     {parent} parent directory
//	{path}     full path
//	{date} {time} {datetime}         YYYY-MM-DD, HH:MM:SS, YYYY-MM-DD_HH:MM:SS
func Render(tmpl, path string) string {
	now := time.Now().UTC()

	filename := filepath.Base(path)
	ext := filepath.Ext(filename)
	name := filename
	if ext != "" && ext != filename {
		name = strings.TrimSuffix(filename, ext)
	}
	if ext == filename {
		// dotfile: the whole name is the stem
		ext = ""
	}
	ext = strings.TrimPrefix(ext, ".")

	r := strings.NewReplacer(
		"{datetime}", now.Format("2006-01-02_15:04:05"),
		"{date}", now.Format("2006-01-02"),
		"{time}", now.Format("15:04:05"),
		"{filename}", filename,
		"{name}", name,
		"{ext}", ext,
		"{parent}", filepath.Dir(path),
		"{path}", path,
	)
	return r.Replace(tmpl)
}

// IsTemplated reports whether s contains any placeholder braces. Config
// validation uses this to decide whether a destination can be checked
// against the filesystem at load time.
func IsTemplated(s string) bool {
	return strings.Contains(s, "{") || strings.Contains(s, "}")
}
