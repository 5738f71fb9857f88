package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"postdirectory/app/models"
)

// PayloadMode selects how create and update bodies are encoded.
type PayloadMode string

const (
	// PayloadMultipart sends multipart/form-data and supports image uploads.
	PayloadMultipart PayloadMode = "multipart"
	// PayloadJSON sends plain JSON bodies without image support.
	PayloadJSON PayloadMode = "json"

	// PostsPath is the resource path of the posts API.
	PostsPath = "/api/posts"

	DefaultBaseURL = "http://localhost:3000"
	DefaultTimeout = 30 * time.Second
)

// HTTPConfig configures an HTTPPostRemote.
type HTTPConfig struct {
	// BaseURL is the scheme and host of the posts API (default: http://localhost:3000).
	BaseURL string
	// Payload selects the create/update body encoding (default: multipart).
	Payload PayloadMode
	// Client is the HTTP client to use. If nil, one with DefaultTimeout is created.
	Client *http.Client
	// Logger falls back to slog.Default() if nil.
	Logger *slog.Logger
}

// HTTPPostRemote implements PostRemote over REST/JSON and multipart form data.
type HTTPPostRemote struct {
	baseURL string
	payload PayloadMode
	client  *http.Client
	log     *slog.Logger
}

var _ PostRemote = (*HTTPPostRemote)(nil)

// NewHTTPPostRemote creates a remote for the posts API at cfg.BaseURL.
func NewHTTPPostRemote(cfg HTTPConfig) *HTTPPostRemote {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Payload == "" {
		cfg.Payload = PayloadMultipart
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: DefaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPPostRemote{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		payload: cfg.Payload,
		client:  cfg.Client,
		log:     logger.WithGroup("remote"),
	}
}

// Payload reports the configured body encoding.
func (r *HTTPPostRemote) Payload() PayloadMode {
	return r.payload
}

type createResponse struct {
	Message string `json:"message"`
	Post    *struct {
		ID        string `json:"id"`
		RawID     string `json:"_id"`
		ImagePath string `json:"imagePath"`
	} `json:"post"`
	PostID string `json:"postId"`
}

type updateResponse struct {
	Message string `json:"message"`
	Post    *struct {
		ImagePath string `json:"imagePath"`
	} `json:"post"`
}

// jsonPost is the JSON body of create and update calls. ID is null for new posts.
type jsonPost struct {
	ID        *string `json:"id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	ImagePath string  `json:"imagePath,omitempty"`
}

// List fetches every post in server order.
func (r *HTTPPostRemote) List(ctx context.Context) ([]models.RemotePost, error) {
	var body models.PostList
	if err := r.do(ctx, "list", http.MethodGet, r.postsURL(""), nil, "", &body); err != nil {
		return nil, err
	}
	return body.Posts, nil
}

// Get fetches one post. The server returns the raw record directly.
func (r *HTTPPostRemote) Get(ctx context.Context, id string) (*models.RemotePost, error) {
	var post models.RemotePost
	if err := r.do(ctx, "get", http.MethodGet, r.postsURL(id), nil, "", &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Create submits a new post and returns it with the server-assigned fields.
func (r *HTTPPostRemote) Create(ctx context.Context, draft Draft) (*models.Post, error) {
	body, contentType, err := r.encodeCreate(draft)
	if err != nil {
		return nil, err
	}

	var res createResponse
	if err := r.do(ctx, "create", http.MethodPost, r.postsURL(""), body, contentType, &res); err != nil {
		return nil, err
	}

	post := &models.Post{Title: draft.Title, Content: draft.Content}
	switch {
	case res.Post != nil && res.Post.ID != "":
		post.ID = res.Post.ID
		post.ImagePath = res.Post.ImagePath
	case res.Post != nil && res.Post.RawID != "":
		post.ID = res.Post.RawID
		post.ImagePath = res.Post.ImagePath
	default:
		post.ID = res.PostID
	}
	if post.ID == "" {
		return nil, &RemoteCallError{
			Op:     "create",
			Method: http.MethodPost,
			URL:    r.postsURL(""),
			Err:    fmt.Errorf("response carries no post id"),
		}
	}
	return post, nil
}

// Update replaces a post and returns the record the client should mirror.
func (r *HTTPPostRemote) Update(ctx context.Context, id string, draft Draft) (*models.Post, error) {
	var (
		body        io.Reader
		contentType string
		err         error
		post        = &models.Post{ID: id, Title: draft.Title, Content: draft.Content}
	)

	switch img := draft.Image.(type) {
	case models.WithImage:
		if r.payload != PayloadMultipart {
			return nil, ErrImageUnsupported
		}
		if img.Data == nil {
			return nil, ErrImageEmpty
		}
		body, contentType, err = encodeMultipart(map[string]string{
			"id":      id,
			"title":   draft.Title,
			"content": draft.Content,
		}, draft.Title, &img)
	case models.ImagePathOnly:
		post.ImagePath = img.Path
		body, contentType, err = encodeJSON(jsonPost{ID: &id, Title: draft.Title, Content: draft.Content, ImagePath: img.Path})
	default:
		body, contentType, err = encodeJSON(jsonPost{ID: &id, Title: draft.Title, Content: draft.Content})
	}
	if err != nil {
		return nil, err
	}

	var res updateResponse
	if err := r.do(ctx, "update", http.MethodPut, r.postsURL(id), body, contentType, &res); err != nil {
		return nil, err
	}
	if res.Post != nil && res.Post.ImagePath != "" {
		post.ImagePath = res.Post.ImagePath
	}
	return post, nil
}

// Delete removes a post.
func (r *HTTPPostRemote) Delete(ctx context.Context, id string) error {
	return r.do(ctx, "delete", http.MethodDelete, r.postsURL(id), nil, "", nil)
}

func (r *HTTPPostRemote) encodeCreate(draft Draft) (io.Reader, string, error) {
	img, hasUpload := draft.Image.(models.WithImage)
	if r.payload == PayloadJSON {
		if hasUpload {
			return nil, "", ErrImageUnsupported
		}
		return encodeJSON(jsonPost{Title: draft.Title, Content: draft.Content})
	}

	fields := map[string]string{"title": draft.Title, "content": draft.Content}
	if hasUpload && img.Data == nil {
		return nil, "", ErrImageEmpty
	}
	if hasUpload {
		return encodeMultipart(fields, draft.Title, &img)
	}
	return encodeMultipart(fields, draft.Title, nil)
}

func (r *HTTPPostRemote) postsURL(id string) string {
	if id == "" {
		return r.baseURL + PostsPath
	}
	return r.baseURL + PostsPath + "/" + url.PathEscape(id)
}

// do issues one request and decodes a 2xx JSON response into out.
func (r *HTTPPostRemote) do(ctx context.Context, op, method, target string, body io.Reader, contentType string, out interface{}) error {
	fail := func(status int, err error) error {
		return &RemoteCallError{Op: op, Method: method, URL: target, StatusCode: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	r.log.Debug("request completed", "op", op, "method", method, "url", target,
		"status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fail(resp.StatusCode, fmt.Errorf("%s", bytes.TrimSpace(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(0, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func encodeJSON(v interface{}) (io.Reader, string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// encodeMultipart writes the text fields in a stable order followed by the
// optional image part, named after the post title.
func encodeMultipart(fields map[string]string, title string, img *models.WithImage) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, name := range []string{"id", "title", "content"} {
		value, ok := fields[name]
		if !ok {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write %s field: %w", name, err)
		}
	}

	if img != nil {
		filename := title
		if filename == "" {
			filename = img.Name
		}
		part, err := w.CreateFormFile("image", filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create image part: %w", err)
		}
		if _, err := io.Copy(part, img.Data); err != nil {
			return nil, "", fmt.Errorf("failed to copy image data: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
