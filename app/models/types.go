package models

import "io"

// Post is the client-side record mirrored by the post directory.
type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImagePath string `json:"imagePath,omitempty"`
}

// RemotePost is the raw record exchanged with the posts API.
type RemotePost struct {
	ID        string `json:"_id" validate:"required"`
	Title     string `json:"title" validate:"required,max=200"`
	Content   string `json:"content" validate:"required"`
	ImagePath string `json:"imagePath,omitempty"`
}

// PostList is the body returned by GET /api/posts.
type PostList struct {
	Message string       `json:"message"`
	Posts   []RemotePost `json:"posts"`
}

// Image selects how an image accompanies a create or update call.
// A nil Image means the post carries no image.
type Image interface {
	isImage()
}

// WithImage uploads new image bytes. It always produces a multipart payload.
type WithImage struct {
	Name string
	Data io.Reader
}

// ImagePathOnly keeps an image the server already stores.
type ImagePathOnly struct {
	Path string
}

func (WithImage) isImage()     {}
func (ImagePathOnly) isImage() {}
