package mock

import (
	"context"
	"strconv"
	"sync"

	"postdirectory/app/models"
	"postdirectory/app/repositories"
)

// PostRemote is an in-memory stand-in for the posts API. Setting Err makes
// every call fail with a remote-call error.
type PostRemote struct {
	mutex  sync.Mutex
	posts  []models.RemotePost
	nextID int
	calls  []string

	Err error
}

var _ repositories.PostRemote = (*PostRemote)(nil)

func NewPostRemote(posts ...models.RemotePost) *PostRemote {
	return &PostRemote{
		posts:  append([]models.RemotePost(nil), posts...),
		nextID: len(posts) + 1,
	}
}

// Calls returns the operations issued so far, in order.
func (m *PostRemote) Calls() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string(nil), m.calls...)
}

// Seed replaces the server-side records.
func (m *PostRemote) Seed(posts ...models.RemotePost) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = append([]models.RemotePost(nil), posts...)
}

func (m *PostRemote) fail(op string) error {
	m.calls = append(m.calls, op)
	if m.Err == nil {
		return nil
	}
	return &repositories.RemoteCallError{Op: op, Err: m.Err}
}

func (m *PostRemote) List(ctx context.Context) ([]models.RemotePost, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.fail("list"); err != nil {
		return nil, err
	}
	return append([]models.RemotePost(nil), m.posts...), nil
}

func (m *PostRemote) Get(ctx context.Context, id string) (*models.RemotePost, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.fail("get"); err != nil {
		return nil, err
	}
	for _, post := range m.posts {
		if post.ID == id {
			found := post
			return &found, nil
		}
	}
	return nil, &repositories.RemoteCallError{Op: "get", StatusCode: 404, Err: repositories.ErrNotFound}
}

func (m *PostRemote) Create(ctx context.Context, draft repositories.Draft) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.fail("create"); err != nil {
		return nil, err
	}
	post := models.RemotePost{
		ID:      strconv.Itoa(m.nextID),
		Title:   draft.Title,
		Content: draft.Content,
	}
	m.nextID++
	if _, ok := draft.Image.(models.WithImage); ok {
		post.ImagePath = "/images/" + post.ID
	}
	m.posts = append(m.posts, post)

	created := post.Post()
	return &created, nil
}

func (m *PostRemote) Update(ctx context.Context, id string, draft repositories.Draft) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.fail("update"); err != nil {
		return nil, err
	}
	updated := models.Post{ID: id, Title: draft.Title, Content: draft.Content}
	switch img := draft.Image.(type) {
	case models.WithImage:
		updated.ImagePath = "/images/" + id
	case models.ImagePathOnly:
		updated.ImagePath = img.Path
	}
	for i := range m.posts {
		if m.posts[i].ID == id {
			m.posts[i] = updated.Remote()
		}
	}
	return &updated, nil
}

func (m *PostRemote) Delete(ctx context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.fail("delete"); err != nil {
		return err
	}
	kept := m.posts[:0]
	for _, post := range m.posts {
		if post.ID != id {
			kept = append(kept, post)
		}
	}
	m.posts = kept
	return nil
}
