package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"postdirectory/app/models"
	"postdirectory/app/repositories"

	"github.com/samber/lo"
)

// RootRoute is the route requested after a successful create or update.
const RootRoute = "/"

// ErrPostNotFound is returned when an update targets an id that is not in
// the local list.
var ErrPostNotFound = errors.New("post not found in directory")

// Navigator is invoked with a route after a successful create or update.
type Navigator func(route string)

// DirectoryConfig configures a PostDirectory.
type DirectoryConfig struct {
	// Navigate is called with RootRoute after a successful create or update.
	// Nil disables navigation.
	Navigate Navigator

	// Logger for failed calls. Falls back to slog.Default() if nil.
	Logger *slog.Logger
}

// PostDirectory mirrors the posts held by the remote API and publishes the
// list to subscribers whenever it changes. The mirror is never authoritative:
// it is replaced by List and patched only after a mutating call succeeds.
type PostDirectory struct {
	remote   repositories.PostRemote
	navigate Navigator
	log      *slog.Logger

	mu      sync.Mutex
	posts   []models.Post
	version uint64

	updates broadcaster
}

// NewPostDirectory creates a PostDirectory backed by remote.
func NewPostDirectory(remote repositories.PostRemote, cfg DirectoryConfig) *PostDirectory {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PostDirectory{
		remote:   remote,
		navigate: cfg.Navigate,
		log:      logger.WithGroup("directory"),
		posts:    []models.Post{},
	}
}

// Subscribe registers fn for every future list change. Nothing is replayed:
// call List to prime new subscribers.
func (d *PostDirectory) Subscribe(fn UpdateHandler) *Subscription {
	return d.updates.subscribe(fn)
}

// Posts returns a copy of the current list.
func (d *PostDirectory) Posts() []models.Post {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Post{}, d.posts...)
}

// List fetches every post, replaces the local list and publishes it.
func (d *PostDirectory) List(ctx context.Context) error {
	raw, err := d.remote.List(ctx)
	if err != nil {
		d.log.Error("failed to fetch posts", "err", err)
		return err
	}

	posts := lo.Map(raw, func(p models.RemotePost, _ int) models.Post {
		return p.Post()
	})

	d.mu.Lock()
	version := d.commit(posts)
	d.mu.Unlock()

	d.updates.publish(version, posts)
	return nil
}

// Get fetches one post and returns the server's record without touching
// the local list.
func (d *PostDirectory) Get(ctx context.Context, id string) (*models.RemotePost, error) {
	if err := models.ValidateID(id); err != nil {
		return nil, err
	}
	post, err := d.remote.Get(ctx, id)
	if err != nil {
		d.log.Error("failed to fetch post", "id", id, "err", err)
		return nil, err
	}
	return post, nil
}

// Create submits a new post. On success the post is appended to the list,
// the list is published and navigation to the root route is requested.
func (d *PostDirectory) Create(ctx context.Context, title, content string, image models.Image) (*models.Post, error) {
	created, err := d.remote.Create(ctx, repositories.Draft{Title: title, Content: content, Image: image})
	if err != nil {
		d.log.Error("failed to create post", "title", title, "err", err)
		return nil, err
	}

	post := models.Post{ID: created.ID, Title: title, Content: content, ImagePath: created.ImagePath}

	d.mu.Lock()
	posts := append(append([]models.Post{}, d.posts...), post)
	version := d.commit(posts)
	d.mu.Unlock()

	d.updates.publish(version, posts)
	d.requestNavigation()
	return &post, nil
}

// Update replaces the post with the given id. The id must already be in the
// local list; otherwise ErrPostNotFound is returned and no request is made.
func (d *PostDirectory) Update(ctx context.Context, id, title, content string, image models.Image) (*models.Post, error) {
	if err := models.ValidateID(id); err != nil {
		return nil, err
	}
	if d.indexOf(id) < 0 {
		d.log.Warn("refusing to update unknown post", "id", id)
		return nil, fmt.Errorf("update %s: %w", id, ErrPostNotFound)
	}

	updated, err := d.remote.Update(ctx, id, repositories.Draft{Title: title, Content: content, Image: image})
	if err != nil {
		d.log.Error("failed to update post", "id", id, "err", err)
		return nil, err
	}

	d.mu.Lock()
	_, idx, ok := lo.FindIndexOf(d.posts, func(p models.Post) bool { return p.ID == id })
	if !ok {
		// A concurrent List or Delete dropped the entry while the request ran.
		d.mu.Unlock()
		d.log.Warn("updated post no longer in directory", "id", id)
		return nil, fmt.Errorf("update %s: %w", id, ErrPostNotFound)
	}
	posts := append([]models.Post{}, d.posts...)
	posts[idx] = *updated
	version := d.commit(posts)
	d.mu.Unlock()

	d.updates.publish(version, posts)
	d.requestNavigation()
	return updated, nil
}

// Delete removes the post remotely, then drops it from the list and
// publishes the result.
func (d *PostDirectory) Delete(ctx context.Context, id string) error {
	if err := models.ValidateID(id); err != nil {
		return err
	}
	if err := d.remote.Delete(ctx, id); err != nil {
		d.log.Error("failed to delete post", "id", id, "err", err)
		return err
	}

	d.mu.Lock()
	posts := lo.Filter(d.posts, func(p models.Post, _ int) bool { return p.ID != id })
	version := d.commit(posts)
	d.mu.Unlock()

	d.updates.publish(version, posts)
	return nil
}

// commit installs posts as the current list and returns its version.
// d.mu must be held.
func (d *PostDirectory) commit(posts []models.Post) uint64 {
	d.posts = posts
	d.version++
	return d.version
}

func (d *PostDirectory) indexOf(id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, idx, _ := lo.FindIndexOf(d.posts, func(p models.Post) bool { return p.ID == id })
	return idx
}

func (d *PostDirectory) requestNavigation() {
	if d.navigate != nil {
		d.navigate(RootRoute)
	}
}
