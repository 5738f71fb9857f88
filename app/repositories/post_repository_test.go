package repositories

import (
	"testing"

	"postdirectory/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *BadgerPostRepository {
	db, err := OpenStore("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBadgerPostRepository(db)
}

func TestPostRepository(t *testing.T) {
	repo := newTestRepository(t)

	t.Run("create and get post", func(t *testing.T) {
		post := &models.RemotePost{Title: "Test Post", Content: "This is a test post content"}

		err := repo.Create(post)
		require.NoError(t, err)
		assert.NotEmpty(t, post.ID)

		retrieved, err := repo.GetByID(post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.Title, retrieved.Title)
		assert.Equal(t, post.Content, retrieved.Content)
	})

	t.Run("update post", func(t *testing.T) {
		post := &models.RemotePost{Title: "Original Title", Content: "Original content"}
		require.NoError(t, repo.Create(post))

		post.Title = "Updated Title"
		post.Content = "Updated content"
		post.ImagePath = "http://localhost:3000/images/a.png"
		require.NoError(t, repo.Update(post))

		updated, err := repo.GetByID(post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Updated Title", updated.Title)
		assert.Equal(t, "Updated content", updated.Content)
		assert.Equal(t, "http://localhost:3000/images/a.png", updated.ImagePath)
	})

	t.Run("update missing post", func(t *testing.T) {
		err := repo.Update(&models.RemotePost{ID: "missing", Title: "T", Content: "C"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete post", func(t *testing.T) {
		post := &models.RemotePost{Title: "Post to Delete", Content: "This post will be deleted"}
		require.NoError(t, repo.Create(post))

		require.NoError(t, repo.Delete(post.ID))

		_, err := repo.GetByID(post.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.Delete(post.ID), ErrNotFound)
	})
}

func TestPostRepositoryListKeepsInsertionOrder(t *testing.T) {
	repo := newTestRepository(t)

	posts, err := repo.List()
	require.NoError(t, err)
	assert.Empty(t, posts)

	var ids []string
	for _, title := range []string{"first", "second", "third", "fourth"} {
		post := &models.RemotePost{Title: title, Content: "body"}
		require.NoError(t, repo.Create(post))
		ids = append(ids, post.ID)
	}

	posts, err = repo.List()
	require.NoError(t, err)
	require.Len(t, posts, 4)
	for i, post := range posts {
		assert.Equal(t, ids[i], post.ID)
	}
	assert.Equal(t, "first", posts[0].Title)
	assert.Equal(t, "fourth", posts[3].Title)
}
