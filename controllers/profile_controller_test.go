package controllers

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"animelog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadProfilePic(t *testing.T) {
	t.Run("Missing file part", func(t *testing.T) {
		app := setupApp(t)
		user := app.registerUser(t, "testuser", "test@example.com")

		w := app.postMultipart(t, "/upload_profile_pic", func(mw *multipart.Writer) {
			require.NoError(t, mw.WriteField("unrelated", "field"))
		}, app.sessionCookie(t, user))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/home", w.Header().Get("Location"))
		assert.Equal(t, "No file part in the request.", flashMessage(t, w))
	})

	t.Run("Disallowed extension", func(t *testing.T) {
		app := setupApp(t)
		user := app.registerUser(t, "testuser", "test@example.com")

		w := app.postMultipart(t, "/upload_profile_pic", func(mw *multipart.Writer) {
			fw, err := mw.CreateFormFile("profile_pic", "avatar.webp")
			require.NoError(t, err)
			_, err = fw.Write([]byte("not-an-image"))
			require.NoError(t, err)
		}, app.sessionCookie(t, user))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Contains(t, flashMessage(t, w), "allowed image types")

		// Nothing stored on rejection.
		var stored models.User
		require.NoError(t, app.db.First(&stored, user.ID).Error)
		assert.Empty(t, stored.ProfilePic)
	})

	t.Run("Success stores the picture", func(t *testing.T) {
		app := setupApp(t)
		user := app.registerUser(t, "testuser", "test@example.com")

		w := app.postMultipart(t, "/upload_profile_pic", func(mw *multipart.Writer) {
			fw, err := mw.CreateFormFile("profile_pic", "avatar.png")
			require.NoError(t, err)
			_, err = fw.Write([]byte("image-bytes"))
			require.NoError(t, err)
		}, app.sessionCookie(t, user))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/home", w.Header().Get("Location"))
		assert.Equal(t, "Profile picture updated successfully!", flashMessage(t, w))

		var stored models.User
		require.NoError(t, app.db.First(&stored, user.ID).Error)
		assert.True(t, strings.HasSuffix(stored.ProfilePic, "_avatar.png"))

		_, err := os.Stat(filepath.Join(app.store.Dir(), stored.ProfilePic))
		assert.NoError(t, err)
	})
}
