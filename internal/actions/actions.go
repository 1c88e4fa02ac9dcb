// Package actions performs document actions against the resume builder.
package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/rbright/dictaform/internal/form"
	"github.com/rbright/dictaform/internal/version"
)

// Action names one document action.
type Action string

const (
	Save       Action = "save"
	Preview    Action = "preview"
	ExportPDF  Action = "export_pdf"
	ExportDOCX Action = "export_docx"
)

var (
	// ErrMissingResumeID means the builder page URL carries no resume id.
	ErrMissingResumeID = errors.New("could not find resume id")
	// ErrNoDestination means neither a builder nor a local store is configured.
	ErrNoDestination = errors.New("no save destination configured")
)

var resumeIDPattern = regexp.MustCompile(`/r/(\d+)/`)

// ResumeIDFromURL extracts the numeric resume id from a builder page URL.
func ResumeIDFromURL(raw string) (string, bool) {
	m := resumeIDPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Config binds the client to one builder page and an export directory.
type Config struct {
	EditURL   string
	ExportDir string
	Token     string
	Timeout   time.Duration
}

// Result describes a completed action.
type Result struct {
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Client runs document actions. It is safe for concurrent use.
type Client struct {
	cfg    Config
	base   *url.URL
	id     string
	http   *http.Client
	fs     afero.Fs
	store  *form.Store
	logger *slog.Logger
}

// New constructs a client. store, when set, receives a local copy on every save.
func New(cfg Config, fsys afero.Fs, store *form.Store, logger *slog.Logger) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		fs:     fsys,
		store:  store,
		logger: logger,
	}

	if raw := strings.TrimSpace(cfg.EditURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse edit url %q: %w", raw, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("edit url %q must be absolute", raw)
		}
		c.base = &url.URL{Scheme: u.Scheme, Host: u.Host}
		c.id, _ = ResumeIDFromURL(u.Path)
	}
	return c, nil
}

// Check reports whether action can run with the current configuration.
func (c *Client) Check(action Action) error {
	switch action {
	case Save:
		if c.base == nil {
			if c.store == nil {
				return ErrNoDestination
			}
			return nil
		}
	case Preview, ExportPDF, ExportDOCX:
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	if c.base == nil || c.id == "" {
		return ErrMissingResumeID
	}
	return nil
}

// Run executes action for resume.
func (c *Client) Run(ctx context.Context, action Action, resume form.Resume) (Result, error) {
	if err := c.Check(action); err != nil {
		return Result{}, err
	}

	switch action {
	case Save:
		return c.save(ctx, resume)
	case Preview:
		return c.preview(ctx, resume)
	case ExportPDF:
		return c.export(ctx, "pdf")
	default:
		return c.export(ctx, "docx")
	}
}

func (c *Client) save(ctx context.Context, resume form.Resume) (Result, error) {
	var local string
	if c.store != nil {
		if err := c.store.Save(resume); err != nil {
			return Result{}, err
		}
		local = c.store.Path()
	}
	if c.base == nil {
		return Result{Message: "Saved resume locally.", Path: local}, nil
	}

	if err := c.submit(ctx, resume, "save"); err != nil {
		return Result{}, err
	}
	return Result{Message: "Saved resume.", Path: local, URL: c.pageURL("edit")}, nil
}

func (c *Client) preview(ctx context.Context, resume form.Resume) (Result, error) {
	if err := c.submit(ctx, resume, "preview"); err != nil {
		return Result{}, err
	}
	u := c.pageURL("preview")
	return Result{Message: "Preview ready at " + u + ".", URL: u}, nil
}

func (c *Client) export(ctx context.Context, format string) (Result, error) {
	u := c.pageURL("export/" + format)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build export request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("export %s: %w", format, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("export %s: unexpected status %s", format, resp.Status)
	}

	dir := c.cfg.ExportDir
	if dir == "" {
		dir = "."
	}
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create export dir %q: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("resume-%s.%s", c.id, format))
	f, err := c.fs.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("create export file %q: %w", path, err)
	}
	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return Result{}, fmt.Errorf("write export file %q: %w", path, err)
	}

	c.logger.Info("resume exported", "format", format, "path", path, "bytes", n)
	return Result{Message: fmt.Sprintf("Exported %s to %s.", strings.ToUpper(format), path), Path: path, URL: u}, nil
}

// submit posts the edit form the way the builder page does, hidden JSON
// fields included.
func (c *Client) submit(ctx context.Context, resume form.Resume, action string) error {
	values := url.Values{}
	values.Set("action", action)
	values.Set("title", resume.Title)
	values.Set("full_name", resume.FullName)
	values.Set("email", resume.Email)
	values.Set("phone", resume.Phone)
	values.Set("location", resume.Location)
	values.Set("linkedin", resume.LinkedIn)
	values.Set("github", resume.GitHub)
	values.Set("summary", resume.Summary)

	for name, v := range map[string]any{
		"education_json":  orEmpty(resume.Education),
		"experience_json": orEmpty(resume.Experience),
		"projects_json":   orEmpty(resume.Projects),
		"skills_json":     orEmpty(resume.Skills),
	} {
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		values.Set(name, string(encoded))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pageURL("edit"), strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s resume: %w", action, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s resume: unexpected status %s", action, resp.Status)
	}
	return nil
}

func (c *Client) pageURL(suffix string) string {
	u := *c.base
	u.Path = fmt.Sprintf("/builder/r/%s/%s/", c.id, suffix)
	return u.String()
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("User-Agent", version.UserAgent())
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Token "+c.cfg.Token)
	}
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
