package repositories

import (
	"context"

	"postdirectory/app/models"
)

// PostRemote is the client side of the posts API.
type PostRemote interface {
	List(ctx context.Context) ([]models.RemotePost, error)
	Get(ctx context.Context, id string) (*models.RemotePost, error)
	Create(ctx context.Context, draft Draft) (*models.Post, error)
	Update(ctx context.Context, id string, draft Draft) (*models.Post, error)
	Delete(ctx context.Context, id string) error
}

// PostRepository defines the storage behind the reference posts API.
type PostRepository interface {
	Create(post *models.RemotePost) error
	GetByID(id string) (*models.RemotePost, error)
	List() ([]models.RemotePost, error)
	Update(post *models.RemotePost) error
	Delete(id string) error
}

// Draft carries the user-supplied fields of a create or update call.
type Draft struct {
	Title   string
	Content string
	Image   models.Image
}
