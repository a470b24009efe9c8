package storage

import (
	"net/url"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

// CleanFilename normalizes an uploaded file name to NFC and strips any
// directory part, so names typed on different platforms map to one path.
func CleanFilename(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", errors.ValidationError("invalid file name").WithContext("filename", name).Build()
	}
	return name, nil
}

// CleanPath validates a repository-relative path.
func CleanPath(p string) (string, error) {
	p = norm.NFC.String(strings.TrimSpace(p))
	cleaned := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.Contains(p, "..") {
		return "", errors.ValidationError("invalid path").WithContext("path", p).Build()
	}
	return cleaned, nil
}

// MediaPath joins a media folder and an uploaded file name.
func MediaPath(folder, filename string) (string, error) {
	name, err := CleanFilename(filename)
	if err != nil {
		return "", err
	}
	if strings.Trim(folder, "/ ") == "" {
		return name, nil
	}
	dir, err := CleanPath(folder)
	if err != nil {
		return "", err
	}
	return path.Join(dir, name), nil
}

// PublicURL joins a base URL and a stored media path, escaping path segments.
func PublicURL(baseURL, mediaPath string) (string, error) {
	if baseURL == "" {
		return "/" + mediaPath, nil
	}
	u, err := url.JoinPath(baseURL, strings.Split(mediaPath, "/")...)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryConfig, "invalid media base URL").
			WithContext("base_url", baseURL).
			Build()
	}
	return u, nil
}
