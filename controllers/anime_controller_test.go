package controllers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"animelog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryForm(title string) url.Values {
	return url.Values{
		"title":    {title},
		"episodes": {"24"},
		"rating":   {"9.5"},
		"status":   {"Watched"},
		"genre":    {"Action"},
		"note":     {"rewatch soon"},
	}
}

func TestAddEntry(t *testing.T) {
	t.Run("Unauthorized without session", func(t *testing.T) {
		app := setupApp(t)
		w := app.postForm("/animelist/add", entryForm("Bleach"), nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Unauthorized")
	})

	t.Run("Success returns the created entry", func(t *testing.T) {
		app := setupApp(t)
		user := app.registerUser(t, "testuser", "test@example.com")

		w := app.postForm("/animelist/add", entryForm("Bleach"), app.sessionCookie(t, user))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool          `json:"success"`
			Anime   EntryResponse `json:"anime"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "Bleach", resp.Anime.Title)
		assert.Equal(t, 24, resp.Anime.Episodes)
		assert.Equal(t, 9.5, resp.Anime.Rating)
	})

	t.Run("Missing title is a 400", func(t *testing.T) {
		app := setupApp(t)
		user := app.registerUser(t, "testuser", "test@example.com")

		w := app.postForm("/animelist/add", entryForm("   "), app.sessionCookie(t, user))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Title is required")
	})

	t.Run("Non-numeric episodes stored as zero", func(t *testing.T) {
		app := setupApp(t)
		user := app.registerUser(t, "testuser", "test@example.com")

		form := entryForm("Bleach")
		form.Set("episodes", "abc")
		w := app.postForm("/animelist/add", form, app.sessionCookie(t, user))
		require.Equal(t, http.StatusOK, w.Code)

		var stored models.Anime
		require.NoError(t, app.db.Where("title = ?", "Bleach").First(&stored).Error)
		assert.Equal(t, 0, stored.Episodes)
	})
}

func TestEditEntry(t *testing.T) {
	t.Run("Empty title keeps the original", func(t *testing.T) {
		app := setupApp(t)
		user := app.registerUser(t, "testuser", "test@example.com")
		cookie := app.sessionCookie(t, user)

		w := app.postForm("/animelist/add", entryForm("Bleach"), cookie)
		require.Equal(t, http.StatusOK, w.Code)
		var created struct {
			Anime EntryResponse `json:"anime"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

		form := entryForm("")
		form.Set("episodes", "26")
		w = app.postForm("/animelist/edit/"+itoa(created.Anime.ID), form, cookie)
		require.Equal(t, http.StatusOK, w.Code)

		var stored models.Anime
		require.NoError(t, app.db.First(&stored, created.Anime.ID).Error)
		assert.Equal(t, "Bleach", stored.Title)
		assert.Equal(t, 26, stored.Episodes)
	})

	t.Run("Another user's entry is not found", func(t *testing.T) {
		app := setupApp(t)
		owner := app.registerUser(t, "owner", "owner@example.com")
		intruder := app.registerUser(t, "intruder", "intruder@example.com")

		w := app.postForm("/animelist/add", entryForm("Bleach"), app.sessionCookie(t, owner))
		require.Equal(t, http.StatusOK, w.Code)
		var created struct {
			Anime EntryResponse `json:"anime"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

		w = app.postForm("/animelist/edit/"+itoa(created.Anime.ID), entryForm("Hijacked"), app.sessionCookie(t, intruder))
		assert.Equal(t, http.StatusNotFound, w.Code)

		var stored models.Anime
		require.NoError(t, app.db.First(&stored, created.Anime.ID).Error)
		assert.Equal(t, "Bleach", stored.Title)
	})
}

func TestDeleteEntry(t *testing.T) {
	t.Run("Missing entry is a 404", func(t *testing.T) {
		app := setupApp(t)
		user := app.registerUser(t, "testuser", "test@example.com")

		w := app.postForm("/animelist/delete/999", url.Values{}, app.sessionCookie(t, user))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Deletes the row and its image file", func(t *testing.T) {
		app := setupApp(t)
		user := app.registerUser(t, "testuser", "test@example.com")
		cookie := app.sessionCookie(t, user)

		w := app.multipartAdd(t, "Bleach", "cover.png", cookie)
		require.Equal(t, http.StatusOK, w.Code)
		var created struct {
			Anime EntryResponse `json:"anime"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		require.NotEmpty(t, created.Anime.Image)

		w = app.postForm("/animelist/delete/"+itoa(created.Anime.ID), url.Values{}, cookie)
		require.Equal(t, http.StatusOK, w.Code)

		var count int64
		app.db.Unscoped().Model(&models.Anime{}).Count(&count)
		assert.Equal(t, int64(0), count)

		_, err := os.Stat(filepath.Join(app.store.Dir(), created.Anime.Image))
		assert.True(t, os.IsNotExist(err), "orphaned image should be removed")
	})
}

func TestAPIList(t *testing.T) {
	t.Run("Unauthorized without session", func(t *testing.T) {
		app := setupApp(t)
		w := app.get("/api/animelist", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Round trip through add", func(t *testing.T) {
		app := setupApp(t)
		user := app.registerUser(t, "testuser", "test@example.com")
		cookie := app.sessionCookie(t, user)

		w := app.postForm("/animelist/add", entryForm("Bleach"), cookie)
		require.Equal(t, http.StatusOK, w.Code)

		w = app.get("/api/animelist", cookie)
		require.Equal(t, http.StatusOK, w.Code)

		var resp CatalogResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Animes, 1)

		entry := resp.Animes[0]
		assert.Equal(t, "Bleach", entry.Title)
		assert.Equal(t, 24, entry.WatchedEpisodes)
		assert.False(t, entry.Favorite)
		assert.Nil(t, entry.Image)
	})

	t.Run("Only the caller's catalog is listed", func(t *testing.T) {
		app := setupApp(t)
		owner := app.registerUser(t, "owner", "owner@example.com")
		other := app.registerUser(t, "other", "other@example.com")

		w := app.postForm("/animelist/add", entryForm("Bleach"), app.sessionCookie(t, owner))
		require.Equal(t, http.StatusOK, w.Code)

		w = app.get("/api/animelist", app.sessionCookie(t, other))
		require.Equal(t, http.StatusOK, w.Code)

		var resp CatalogResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Animes)
	})
}

func TestAnimelistDashboard(t *testing.T) {
	app := setupApp(t)
	user := app.registerUser(t, "testuser", "test@example.com")
	cookie := app.sessionCookie(t, user)

	w := app.postForm("/animelist/add", entryForm("Bleach"), cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.get("/animelist", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Bleach")
	assert.Contains(t, body, "Total entries: 1")
	assert.Contains(t, body, "Average rating: 9.5")
	// 24 episodes * 24 minutes.
	assert.Contains(t, body, "576 minutes")
}

// multipartAdd posts an add request with an attached image file.
func (app *testApp) multipartAdd(t *testing.T, title, imageName string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return app.postMultipart(t, "/animelist/add", func(mw *multipart.Writer) {
		require.NoError(t, mw.WriteField("title", title))
		require.NoError(t, mw.WriteField("status", "Watched"))
		fw, err := mw.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}, cookie)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
