package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennytong915/Japan-Ramen-Database/internal/storage"
)

func TestStorage_UploadAndGetURL(t *testing.T) {
	s := New("http://localhost:8080")

	result, err := s.Upload(context.Background(), &storage.UploadInput{
		Key:         "comments/user-1/comment-1/photo.jpg",
		ContentType: "image/jpeg",
		Size:        1024,
		Data:        strings.NewReader("fake image bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "comments/user-1/comment-1/photo.jpg", result.Key)
	assert.Equal(t, "http://localhost:8080/photos/comments/user-1/comment-1/photo.jpg", result.URL)

	url, err := s.GetURL(context.Background(), result.Key)
	require.NoError(t, err)
	assert.Equal(t, result.URL, url)
	assert.Equal(t, 1, s.Len())
}

func TestStorage_GetURL_NotFound(t *testing.T) {
	s := New("http://localhost:8080")

	url, err := s.GetURL(context.Background(), "missing-key")
	assert.Error(t, err)
	assert.Empty(t, url)
}

func TestStorage_Delete(t *testing.T) {
	s := New("http://localhost:8080")

	_, err := s.Upload(context.Background(), &storage.UploadInput{
		Key:         "comments/user-1/comment-1/photo.jpg",
		ContentType: "image/jpeg",
		Size:        512,
		Data:        strings.NewReader("bytes"),
	})
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), "comments/user-1/comment-1/photo.jpg"))
	assert.Equal(t, 0, s.Len())

	err = s.Delete(context.Background(), "comments/user-1/comment-1/photo.jpg")
	assert.Error(t, err)
}

func TestPhotoKey(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 30, 45, 0, time.UTC)

	key := storage.PhotoKey("user-1", "comment-1", "Ramen Bowl.JPG", now)

	assert.True(t, strings.HasPrefix(key, "comments/user-1/comment-1/20250615_123045_"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	// Random suffix keeps identical uploads from colliding.
	other := storage.PhotoKey("user-1", "comment-1", "Ramen Bowl.JPG", now)
	assert.NotEqual(t, key, other)
}
