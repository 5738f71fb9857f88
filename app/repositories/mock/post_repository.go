package mock

import (
	"strconv"
	"sync"

	"postdirectory/app/models"
	"postdirectory/app/repositories"
)

// PostRepository is an in-memory PostRepository. Setting Err makes every
// call fail with it.
type PostRepository struct {
	posts  []models.RemotePost
	nextID int
	mutex  sync.RWMutex

	Err error
}

var _ repositories.PostRepository = (*PostRepository)(nil)

func NewPostRepository() *PostRepository {
	return &PostRepository{nextID: 1}
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = nil
	m.nextID = 1
}

func (m *PostRepository) Create(post *models.RemotePost) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.Err != nil {
		return m.Err
	}
	post.ID = strconv.Itoa(m.nextID)
	m.nextID++
	m.posts = append(m.posts, *post)
	return nil
}

func (m *PostRepository) GetByID(id string) (*models.RemotePost, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	for _, post := range m.posts {
		if post.ID == id {
			found := post
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *PostRepository) List() ([]models.RemotePost, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.RemotePost{}, m.posts...), nil
}

func (m *PostRepository) Update(post *models.RemotePost) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.Err != nil {
		return m.Err
	}
	for i := range m.posts {
		if m.posts[i].ID == post.ID {
			m.posts[i] = *post
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (m *PostRepository) Delete(id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.Err != nil {
		return m.Err
	}
	for i := range m.posts {
		if m.posts[i].ID == id {
			m.posts = append(m.posts[:i], m.posts[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}
