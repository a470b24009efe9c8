package forge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/logfields"
	"git.home.luguber.info/inful/mdcms/internal/storage"
)

const defaultAPIURL = "https://api.github.com"

// GitHubClient implements storage.Store on a GitHub repository.
type GitHubClient struct {
	config     Config
	httpClient *http.Client
	apiURL     string
	logger     *slog.Logger
}

var _ storage.Store = (*GitHubClient)(nil)

// NewGitHubClient creates a new GitHub client
func NewGitHubClient(cfg Config, logger *slog.Logger) (*GitHubClient, error) {
	if cfg.Token == "" {
		return nil, ErrAuthRequired
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, ErrRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &GitHubClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     cfg.APIURL,
		logger:     logger,
	}
	if client.apiURL == "" {
		client.apiURL = defaultAPIURL
	}
	return client, nil
}

// GetFile loads a file through the contents API.
func (c *GitHubClient) GetFile(ctx context.Context, p string) (*storage.File, error) {
	clean, err := storage.CleanPath(p)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if c.config.Branch != "" {
		query.Set("ref", c.config.Branch)
	}
	req, err := c.newRequest(ctx, http.MethodGet, c.contentsEndpoint(clean), query, nil)
	if err != nil {
		return nil, err
	}

	var content contentResponse
	if err := c.doRequest(req, &content); err != nil {
		if storage.IsNotFound(err) {
			return nil, storage.NotFound(clean)
		}
		return nil, err
	}
	if content.Type != "" && content.Type != "file" {
		return nil, ErrNotAFile
	}

	data, err := decodeContent(content)
	if err != nil {
		return nil, err
	}
	return &storage.File{Path: clean, Content: data, SHA: content.SHA}, nil
}

// PutFile commits content to path. An empty sha creates the file; GitHub
// answers a stale sha with 409 or 422, reported as a conflict.
func (c *GitHubClient) PutFile(ctx context.Context, p string, content []byte, sha, message string) (string, error) {
	clean, err := storage.CleanPath(p)
	if err != nil {
		return "", err
	}

	resp, err := c.putContent(ctx, clean, content, sha, message)
	if err != nil {
		if storage.IsConflict(err) {
			return "", storage.Conflict(clean)
		}
		return "", err
	}
	c.logger.Info("Committed content", logfields.Path(clean), slog.String("commit", resp.Commit.SHA))
	return resp.Content.SHA, nil
}

// UploadImage creates folder/filename as a new blob and returns its
// download URL.
func (c *GitHubClient) UploadImage(ctx context.Context, data []byte, filename, folder string) (string, error) {
	mediaPath, err := storage.MediaPath(folder, filename)
	if err != nil {
		return "", err
	}

	resp, err := c.putContent(ctx, mediaPath, data, "", "Upload "+path.Base(mediaPath))
	switch {
	case storage.IsConflict(err):
		return "", errors.UploadError("an image with this name already exists").
			WithContext("path", mediaPath).
			WithCause(err).
			Build()
	case err != nil:
		return "", errors.WrapError(err, errors.CategoryUpload, "image upload to GitHub failed").
			WithContext("path", mediaPath).
			Build()
	case resp.Content.DownloadURL == "":
		return "", errors.UploadError("GitHub returned no download URL").WithContext("path", mediaPath).Build()
	}
	c.logger.Info("Uploaded image", logfields.Path(mediaPath), slog.Int("bytes", len(data)))
	return resp.Content.DownloadURL, nil
}

func (c *GitHubClient) putContent(ctx context.Context, p string, content []byte, sha, message string) (*putContentResponse, error) {
	body := putContentRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
		Branch:  c.config.Branch,
	}
	if body.Message == "" {
		body.Message = "Update " + p
	}
	if c.config.CommitterName != "" && c.config.CommitterEmail != "" {
		body.Committer = &committer{Name: c.config.CommitterName, Email: c.config.CommitterEmail}
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.contentsEndpoint(p), nil, body)
	if err != nil {
		return nil, err
	}
	var resp putContentResponse
	if err := c.doRequest(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GitHubClient) contentsEndpoint(p string) string {
	return path.Join("/repos", c.config.Owner, c.config.Repo, "contents", p)
}

func decodeContent(content contentResponse) ([]byte, error) {
	if content.Encoding != "" && content.Encoding != "base64" {
		return nil, errors.ForgeError("unsupported content encoding").
			WithContext("encoding", content.Encoding).
			Build()
	}
	cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(content.Content)
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryForge, "decode file content").Build()
	}
	return data, nil
}

func (c *GitHubClient) newRequest(ctx context.Context, method, endpoint string, query url.Values, body any) (*http.Request, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid GitHub API URL").Build()
	}
	u.Path = path.Join(u.Path, endpoint)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryInternal, "encode request body").Build()
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "build request").Build()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "mdcms/1.0")
	return req, nil
}

func (c *GitHubClient) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "GitHub request failed").
			WithContext("method", req.Method).
			Retryable().
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return errors.WrapError(err, errors.CategoryForge, "decode GitHub response").Build()
		}
	}
	return nil
}

func statusError(resp *http.Response) error {
	var apiErr apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&apiErr)
	msg := apiErr.Message
	if msg == "" {
		msg = resp.Status
	}

	var b *errors.ErrorBuilder
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		b = errors.AuthError(fmt.Sprintf("GitHub rejected credentials: %s", msg))
	case http.StatusNotFound:
		b = errors.NotFoundError("not found on GitHub")
	case http.StatusConflict, http.StatusUnprocessableEntity:
		b = errors.ConflictError(fmt.Sprintf("GitHub reported a conflict: %s", msg))
	default:
		b = errors.ForgeError(fmt.Sprintf("GitHub API error: %s", msg))
	}
	return b.WithContext("status", resp.StatusCode).Build()
}
