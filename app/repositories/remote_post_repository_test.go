package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"postdirectory/app/models"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	method      string
	path        string
	contentType string
	fields      map[string]string
	image       string
	imageName   string
	json        map[string]interface{}
}

// newTestAPI serves canned responses and records the last request body.
func newTestAPI(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *capturedRequest) {
	captured := &capturedRequest{}
	router := mux.NewRouter()
	router.PathPrefix(PostsPath).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.contentType = r.Header.Get("Content-Type")

		switch {
		case strings.HasPrefix(captured.contentType, "multipart/form-data"):
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			captured.fields = map[string]string{}
			for name, values := range r.MultipartForm.Value {
				captured.fields[name] = values[0]
			}
			if file, header, err := r.FormFile("image"); err == nil {
				data, _ := io.ReadAll(file)
				file.Close()
				captured.image = string(data)
				captured.imageName = header.Filename
			}
		case captured.contentType == "application/json":
			captured.json = map[string]interface{}{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured.json))
		}

		handler(w, r)
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, captured
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestHTTPPostRemoteList(t *testing.T) {
	server, captured := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Posts fetched successfully!",
			"posts": []map[string]string{
				{"_id": "1", "title": "A", "content": "x"},
				{"_id": "2", "title": "B", "content": "y", "imagePath": "http://img/b.png"},
			},
		})
	})
	remote := NewHTTPPostRemote(HTTPConfig{BaseURL: server.URL})

	posts, err := remote.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, captured.method)
	assert.Equal(t, "/api/posts", captured.path)
	require.Len(t, posts, 2)
	assert.Equal(t, models.RemotePost{ID: "1", Title: "A", Content: "x"}, posts[0])
	assert.Equal(t, "http://img/b.png", posts[1].ImagePath)
}

func TestHTTPPostRemoteGet(t *testing.T) {
	server, captured := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"_id": "abc", "title": "A", "content": "x"})
	})
	remote := NewHTTPPostRemote(HTTPConfig{BaseURL: server.URL + "/"})

	post, err := remote.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "/api/posts/abc", captured.path)
	assert.Equal(t, "abc", post.ID)
	assert.Equal(t, "A", post.Title)
}

func TestHTTPPostRemoteCreateMultipart(t *testing.T) {
	server, captured := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "Post added successfully",
			"post":    map[string]string{"id": "9", "title": "T", "content": "C", "imagePath": "http://img/t.png"},
		})
	})
	remote := NewHTTPPostRemote(HTTPConfig{BaseURL: server.URL, Payload: PayloadMultipart})

	post, err := remote.Create(context.Background(), Draft{
		Title:   "T",
		Content: "C",
		Image:   models.WithImage{Name: "cover.png", Data: strings.NewReader("png-bytes")},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, map[string]string{"title": "T", "content": "C"}, captured.fields)
	assert.Equal(t, "png-bytes", captured.image)
	assert.Equal(t, "T", captured.imageName)
	assert.Equal(t, &models.Post{ID: "9", Title: "T", Content: "C", ImagePath: "http://img/t.png"}, post)
}

func TestHTTPPostRemoteCreateJSON(t *testing.T) {
	server, captured := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Post added successfully", "postId": "2"})
	})
	remote := NewHTTPPostRemote(HTTPConfig{BaseURL: server.URL, Payload: PayloadJSON})

	post, err := remote.Create(context.Background(), Draft{Title: "T", Content: "C"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", captured.contentType)
	assert.Contains(t, captured.json, "id")
	assert.Nil(t, captured.json["id"])
	assert.Equal(t, "T", captured.json["title"])
	assert.Equal(t, "C", captured.json["content"])
	assert.Equal(t, &models.Post{ID: "2", Title: "T", Content: "C"}, post)
}

func TestHTTPPostRemoteCreateJSONRejectsImage(t *testing.T) {
	called := false
	server, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	remote := NewHTTPPostRemote(HTTPConfig{BaseURL: server.URL, Payload: PayloadJSON})

	_, err := remote.Create(context.Background(), Draft{
		Title: "T", Content: "C",
		Image: models.WithImage{Data: strings.NewReader("x")},
	})
	assert.ErrorIs(t, err, ErrImageUnsupported)
	assert.False(t, called)
}

func TestHTTPPostRemoteCreateWithoutID(t *testing.T) {
	server, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]string{"message": "ok"})
	})
	remote := NewHTTPPostRemote(HTTPConfig{BaseURL: server.URL, Payload: PayloadJSON})

	_, err := remote.Create(context.Background(), Draft{Title: "T", Content: "C"})
	assert.ErrorIs(t, err, ErrRemoteCallFailed)
}

func TestHTTPPostRemoteUpdate(t *testing.T) {
	t.Run("upload uses multipart", func(t *testing.T) {
		server, captured := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"message": "Update successful!",
				"post":    map[string]string{"imagePath": "http://img/new.png"},
			})
		})
		remote := NewHTTPPostRemote(HTTPConfig{BaseURL: server.URL})

		post, err := remote.Update(context.Background(), "1", Draft{
			Title: "T2", Content: "C2",
			Image: models.WithImage{Data: strings.NewReader("new")},
		})
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, captured.method)
		assert.Equal(t, "/api/posts/1", captured.path)
		assert.Equal(t, map[string]string{"id": "1", "title": "T2", "content": "C2"}, captured.fields)
		assert.Equal(t, "new", captured.image)
		assert.Equal(t, "http://img/new.png", post.ImagePath)
	})

	t.Run("image path uses json", func(t *testing.T) {
		server, captured := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "Update successful!"})
		})
		remote := NewHTTPPostRemote(HTTPConfig{BaseURL: server.URL})

		post, err := remote.Update(context.Background(), "1", Draft{
			Title: "T2", Content: "C2",
			Image: models.ImagePathOnly{Path: "http://img/old.png"},
		})
		require.NoError(t, err)
		assert.Equal(t, "application/json", captured.contentType)
		assert.Equal(t, "1", captured.json["id"])
		assert.Equal(t, "http://img/old.png", captured.json["imagePath"])
		assert.Equal(t, &models.Post{ID: "1", Title: "T2", Content: "C2", ImagePath: "http://img/old.png"}, post)
	})

	t.Run("upload without data is rejected", func(t *testing.T) {
		called := false
		server, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})
		remote := NewHTTPPostRemote(HTTPConfig{BaseURL: server.URL})

		_, err := remote.Update(context.Background(), "1", Draft{
			Title: "T", Content: "C",
			Image: models.WithImage{Name: "pic.png"},
		})
		assert.ErrorIs(t, err, ErrImageEmpty)

		_, err = remote.Create(context.Background(), Draft{
			Title: "T", Content: "C",
			Image: models.WithImage{Name: "pic.png"},
		})
		assert.ErrorIs(t, err, ErrImageEmpty)
		assert.False(t, called)
	})

	t.Run("json mode rejects upload", func(t *testing.T) {
		remote := NewHTTPPostRemote(HTTPConfig{BaseURL: "http://127.0.0.1:0", Payload: PayloadJSON})
		_, err := remote.Update(context.Background(), "1", Draft{
			Title: "T", Content: "C",
			Image: models.WithImage{Data: strings.NewReader("x")},
		})
		assert.ErrorIs(t, err, ErrImageUnsupported)
	})
}

func TestHTTPPostRemoteDelete(t *testing.T) {
	server, captured := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted!"})
	})
	remote := NewHTTPPostRemote(HTTPConfig{BaseURL: server.URL})

	require.NoError(t, remote.Delete(context.Background(), "1"))
	assert.Equal(t, http.MethodDelete, captured.method)
	assert.Equal(t, "/api/posts/1", captured.path)
}

func TestHTTPPostRemoteFailures(t *testing.T) {
	server, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	})
	remote := NewHTTPPostRemote(HTTPConfig{BaseURL: server.URL})

	_, err := remote.List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteCallFailed)

	var callErr *RemoteCallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, "list", callErr.Op)
	assert.Equal(t, http.StatusInternalServerError, callErr.StatusCode)

	err = remote.Delete(context.Background(), "1")
	assert.ErrorIs(t, err, ErrRemoteCallFailed)

	unreachable := NewHTTPPostRemote(HTTPConfig{BaseURL: "http://127.0.0.1:1"})
	_, err = unreachable.Get(context.Background(), "1")
	assert.ErrorIs(t, err, ErrRemoteCallFailed)
}
