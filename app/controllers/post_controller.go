package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"postdirectory/app/models"
	"postdirectory/app/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// ImagesPath is the URL prefix uploaded images are served under.
const ImagesPath = "/images/"

// PostController handles HTTP requests for the posts API
type PostController struct {
	repo      repositories.PostRepository
	images    *repositories.ImageStore
	publicURL string
	log       *slog.Logger
}

// ControllerConfig configures a PostController.
type ControllerConfig struct {
	// PublicURL prefixes image paths. If empty it is derived from the request host.
	PublicURL string
	// Logger falls back to slog.Default() if nil.
	Logger *slog.Logger
}

// NewPostController creates a new PostController. images may be nil, in
// which case uploads are rejected.
func NewPostController(repo repositories.PostRepository, images *repositories.ImageStore, cfg ControllerConfig) *PostController {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PostController{
		repo:      repo,
		images:    images,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		log:       logger.WithGroup("posts"),
	}
}

// postInput is the body of create and update requests, JSON or multipart.
type postInput struct {
	ID        *string `json:"id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	ImagePath string  `json:"imagePath"`
}

// Index handles listing all posts
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.repo.List()
	if err != nil {
		pc.sendError(w, "Fetching posts failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	pc.sendJSON(w, http.StatusOK, models.PostList{
		Message: "Posts fetched successfully!",
		Posts:   posts,
	})
}

// Show returns the raw record for a single post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	post, err := pc.repo.GetByID(mux.Vars(r)["id"])
	if errors.Is(err, repositories.ErrNotFound) {
		pc.sendError(w, "Post not found!", http.StatusNotFound)
		return
	}
	if err != nil {
		pc.sendError(w, "Fetching post failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	pc.sendJSON(w, http.StatusOK, post)
}

// Create handles creating a new post
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	input, imagePath, status, err := pc.readInput(r)
	if err != nil {
		pc.sendError(w, err.Error(), status)
		return
	}

	post := &models.RemotePost{
		Title:     input.Title,
		Content:   input.Content,
		ImagePath: imagePath,
	}
	if err := post.ValidateDraft(); err != nil {
		pc.sendError(w, "Invalid post: "+describe(err), http.StatusBadRequest)
		return
	}

	if err := pc.repo.Create(post); err != nil {
		pc.sendError(w, "Creating a post failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	pc.log.Info("post created", "id", post.ID)

	created := post.Post()
	pc.sendJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Post added successfully",
		"post":    created,
		"postId":  created.ID,
	})
}

// Edit handles replacing an existing post
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	input, imagePath, status, err := pc.readInput(r)
	if err != nil {
		pc.sendError(w, err.Error(), status)
		return
	}
	if input.ID != nil && *input.ID != "" && *input.ID != id {
		pc.sendError(w, "Post id does not match the request path", http.StatusBadRequest)
		return
	}
	if imagePath == "" {
		imagePath = input.ImagePath
	}

	post := &models.RemotePost{ID: id, Title: input.Title, Content: input.Content, ImagePath: imagePath}
	if err := post.Validate(); err != nil {
		pc.sendError(w, "Invalid post: "+describe(err), http.StatusBadRequest)
		return
	}

	err = pc.repo.Update(post)
	if errors.Is(err, repositories.ErrNotFound) {
		pc.sendError(w, "Post not found!", http.StatusNotFound)
		return
	}
	if err != nil {
		pc.sendError(w, "Couldn't update post: "+err.Error(), http.StatusInternalServerError)
		return
	}
	pc.log.Info("post updated", "id", post.ID)

	pc.sendJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Update successful!",
		"post":    post.Post(),
	})
}

// Delete handles deleting a post
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := pc.repo.Delete(id)
	if errors.Is(err, repositories.ErrNotFound) {
		pc.sendError(w, "Post not found!", http.StatusNotFound)
		return
	}
	if err != nil {
		pc.sendError(w, "Deleting post failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	pc.log.Info("post deleted", "id", id)

	pc.sendJSON(w, http.StatusOK, map[string]string{"message": "Post deleted!"})
}

// readInput decodes a JSON or multipart body. For multipart bodies carrying
// an image part the stored image's public path is returned as well.
func (pc *PostController) readInput(r *http.Request) (postInput, string, int, error) {
	var input postInput

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			return input, "", http.StatusBadRequest, fmt.Errorf("Invalid JSON: %v", err)
		}
		return input, "", 0, nil
	}

	if err := r.ParseMultipartForm(repositories.MaxImageSize); err != nil {
		return input, "", http.StatusBadRequest, fmt.Errorf("Failed to parse form: %v", err)
	}
	input.Title = r.FormValue("title")
	input.Content = r.FormValue("content")
	input.ImagePath = r.FormValue("imagePath")
	if id := r.FormValue("id"); id != "" {
		input.ID = &id
	}

	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return input, "", 0, nil
	}
	if err != nil {
		return input, "", http.StatusBadRequest, fmt.Errorf("Failed to read image: %v", err)
	}
	defer file.Close()

	if pc.images == nil {
		return input, "", http.StatusBadRequest, errors.New("Image uploads are disabled")
	}
	name, err := pc.images.Save(file)
	switch {
	case errors.Is(err, repositories.ErrUnsupportedImage), errors.Is(err, repositories.ErrImageTooLarge):
		return input, "", http.StatusBadRequest, fmt.Errorf("Invalid image: %v", err)
	case err != nil:
		return input, "", http.StatusInternalServerError, fmt.Errorf("Storing image failed: %v", err)
	}
	return input, pc.baseURL(r) + ImagesPath + name, 0, nil
}

func (pc *PostController) baseURL(r *http.Request) string {
	if pc.publicURL != "" {
		return pc.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// describe flattens validator errors into a readable list.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" is "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}

// Helper methods for consistent response handling

func (pc *PostController) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		pc.log.Error("failed to encode response", "err", err)
	}
}

func (pc *PostController) sendError(w http.ResponseWriter, message string, status int) {
	pc.sendJSON(w, status, map[string]string{"error": message})
}
