package controllers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"animelog/auth"
	"animelog/models"
	"animelog/repositories"
	"animelog/services"
	"animelog/uploads"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBCounter atomic.Int64

// testApp wires the full HTTP surface against a fresh in-memory database and
// a temp upload directory.
type testApp struct {
	container    *restful.Container
	db           *gorm.DB
	store        *uploads.Store
	gate         *auth.SessionGate
	userService  services.UserService
	animeService services.AnimeService
}

func setupApp(t *testing.T) *testApp {
	dsn := fmt.Sprintf("file:controllers_test_%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Anime{}))

	store, err := uploads.NewStore(t.TempDir(), []string{"png", "jpg", "jpeg", "gif"}, zap.NewNop())
	require.NoError(t, err)

	userRepo := repositories.NewUserRepository(db)
	animeRepo := repositories.NewAnimeRepository(db)
	userService := services.NewUserService(userRepo)
	animeService := services.NewAnimeService(animeRepo)
	gate := auth.NewSessionGate([]byte("test-secret"), time.Hour, userRepo)

	container := restful.NewContainer()

	pagesWS := new(restful.WebService)
	pagesWS.Path("/")
	NewAuthController(userService, gate).RegisterRoutes(pagesWS)
	NewProfileController(userService, store, gate).RegisterRoutes(pagesWS)
	container.Add(pagesWS)

	animeController := NewAnimeController(animeService, store, gate)
	animeWS := new(restful.WebService)
	animeController.RegisterRoutes(animeWS)
	container.Add(animeWS)

	apiWS := new(restful.WebService)
	animeController.RegisterAPIRoutes(apiWS)
	container.Add(apiWS)

	return &testApp{
		container:    container,
		db:           db,
		store:        store,
		gate:         gate,
		userService:  userService,
		animeService: animeService,
	}
}

// registerUser creates an account directly through the service layer.
func (app *testApp) registerUser(t *testing.T, username, email string) *models.User {
	user, err := app.userService.Register(&services.RegisterInput{
		Name:     "Test " + username,
		Username: username,
		Email:    email,
		Password: "Passw0rd@",
	})
	require.NoError(t, err)
	return user
}

// sessionCookie returns a valid session cookie for the user.
func (app *testApp) sessionCookie(t *testing.T, user *models.User) *http.Cookie {
	token, err := app.gate.GenerateToken(user)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.SessionCookieName, Value: token}
}

// postForm issues an x-www-form-urlencoded POST, optionally authenticated.
func (app *testApp) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.container.ServeHTTP(w, req)
	return w
}

// postMultipart issues a multipart/form-data POST with a body built by fn.
func (app *testApp) postMultipart(t *testing.T, path string, fn func(mw *multipart.Writer), cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fn(mw)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.container.ServeHTTP(w, req)
	return w
}

// flashMessage decodes the notice cookie queued on the response.
func flashMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	for _, c := range w.Result().Cookies() {
		if c.Name == "animelog_flash" && c.Value != "" {
			decoded, err := url.QueryUnescape(c.Value)
			require.NoError(t, err)
			_, message, _ := strings.Cut(decoded, "|")
			return message
		}
	}
	return ""
}

func (app *testApp) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.container.ServeHTTP(w, req)
	return w
}
