package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.signup(t, "author@gitam.edu", "password123")
	reader, _ := env.signup(t, "reader@gitam.edu", "password123")
	env.createTale(t, author, map[string]string{"title": "Discussable", "category": "Travel"})

	t.Run("whitespace-only content rejected without a row", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/tales/1/comments", reader, map[string]string{
			"content": "   \n  ",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = env.request(t, http.MethodGet, "/api/tales/1/comments", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Comments []struct{} `json:"comments"`
		}
		decodeBody(t, resp, &body)
		assert.Empty(t, body.Comments)
	})

	t.Run("thread stays oldest-first", func(t *testing.T) {
		for _, content := range []string{"first!", "second", "third"} {
			resp := env.request(t, http.MethodPost, "/api/tales/1/comments", reader, map[string]string{
				"content": content,
			})
			require.Equal(t, http.StatusCreated, resp.StatusCode)
		}

		resp := env.request(t, http.MethodGet, "/api/tales/1/comments", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Comments []struct {
				Content string `json:"content"`
				Profile struct {
					DisplayName string `json:"full_name"`
				} `json:"profile"`
			} `json:"comments"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Comments, 3)
		assert.Equal(t, "first!", body.Comments[0].Content)
		assert.Equal(t, "third", body.Comments[2].Content)
	})

	t.Run("comment count derived on the tale", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/tales/1", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var tale taleBody
		decodeBody(t, resp, &tale)
		assert.Equal(t, 3, tale.CommentCount)
	})

	t.Run("only the commenter can delete", func(t *testing.T) {
		resp := env.request(t, http.MethodDelete, "/api/tales/1/comments/1", author, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = env.request(t, http.MethodDelete, "/api/tales/1/comments/1", reader, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = env.request(t, http.MethodGet, "/api/tales/1/comments", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Comments []struct{} `json:"comments"`
		}
		decodeBody(t, resp, &body)
		assert.Len(t, body.Comments, 2)
	})

	t.Run("comment on missing tale is 404", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/tales/999/comments", reader, map[string]string{
			"content": "hello?",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
