package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"animelog/auth"
	"animelog/models"
	"animelog/services"
	"animelog/uploads"
	"animelog/web"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

// AnimeController serves the catalog dashboard page and the catalog JSON
// endpoints.
type AnimeController struct {
	animeService services.AnimeService
	store        *uploads.Store
	gate         *auth.SessionGate
}

// NewAnimeController creates a new AnimeController instance
func NewAnimeController(animeService services.AnimeService, store *uploads.Store, gate *auth.SessionGate) *AnimeController {
	return &AnimeController{animeService: animeService, store: store, gate: gate}
}

// EntryResponse is the JSON shape of a catalog entry returned by the add
// endpoint.
type EntryResponse struct {
	ID       uint    `json:"id"`
	Title    string  `json:"title"`
	Episodes int     `json:"episodes"`
	Note     string  `json:"note"`
	Rating   float64 `json:"rating"`
	Status   string  `json:"status"`
	Genre    string  `json:"genre"`
	Image    string  `json:"image"`
}

// CatalogEntryResponse is the JSON shape of /api/animelist items.
type CatalogEntryResponse struct {
	ID              uint    `json:"id"`
	Title           string  `json:"title"`
	Genre           string  `json:"genre"`
	Status          string  `json:"status"`
	Episodes        int     `json:"episodes"`
	WatchedEpisodes int     `json:"watchedEpisodes"`
	Rating          float64 `json:"rating"`
	Note            string  `json:"note"`
	Favorite        bool    `json:"favorite"`
	Image           *string `json:"image"`
}

// CatalogResponse wraps the full catalog dump.
type CatalogResponse struct {
	Animes []CatalogEntryResponse `json:"animes"`
}

// RegisterRoutes sets up the /animelist routes: the rendered dashboard plus
// the mutating JSON endpoints.
func (ctl *AnimeController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/animelist")

	ws.Route(ws.GET("").Filter(ctl.gate.PageFilter()).To(ctl.dashboardHandler).
		Doc("Catalog dashboard with stats").
		Produces("text/html"))

	ws.Route(ws.POST("/add").Filter(ctl.gate.APIFilter()).To(ctl.addHandler).
		Doc("Create a catalog entry").
		Metadata(restfulspec.KeyOpenAPITags, []string{"animelist"}).
		Consumes("multipart/form-data", "application/x-www-form-urlencoded").
		Produces(restful.MIME_JSON).
		Returns(http.StatusOK, "Entry created", nil).
		Returns(http.StatusBadRequest, "Title is required", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.POST("/edit/{id}").Filter(ctl.gate.APIFilter()).To(ctl.editHandler).
		Doc("Update a catalog entry").
		Param(ws.PathParameter("id", "entry identifier").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"animelist"}).
		Consumes("multipart/form-data", "application/x-www-form-urlencoded").
		Produces(restful.MIME_JSON).
		Returns(http.StatusOK, "Entry updated", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusNotFound, "Entry not found or access denied", nil))

	ws.Route(ws.POST("/delete/{id}").Filter(ctl.gate.APIFilter()).To(ctl.deleteHandler).
		Doc("Delete a catalog entry").
		Param(ws.PathParameter("id", "entry identifier").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"animelist"}).
		Produces(restful.MIME_JSON).
		Returns(http.StatusOK, "Entry deleted", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusNotFound, "Entry not found or access denied", nil))
}

// RegisterAPIRoutes sets up the read-only /api routes.
func (ctl *AnimeController) RegisterAPIRoutes(ws *restful.WebService) {
	ws.Path("/api")

	ws.Route(ws.GET("/animelist").Filter(ctl.gate.APIFilter()).To(ctl.listHandler).
		Doc("Full catalog dump for the authenticated user").
		Metadata(restfulspec.KeyOpenAPITags, []string{"animelist"}).
		Produces(restful.MIME_JSON).
		Writes(CatalogResponse{}).
		Returns(http.StatusOK, "Catalog listed", CatalogResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))
}

func (ctl *AnimeController) dashboardHandler(req *restful.Request, resp *restful.Response) {
	user, _ := auth.UserFrom(req)

	dashboard, err := ctl.animeService.Dashboard(user.ID)
	if err != nil {
		web.SetFlash(resp, web.FlashError, "Could not load your anime list.")
		http.Redirect(resp, req.Request, "/home", http.StatusSeeOther)
		return
	}

	type bucket struct {
		Status string
		Animes []models.Anime
	}
	_ = web.Render(resp, http.StatusOK, "animelist.html", map[string]interface{}{
		"Title":            "Anime list",
		"Flash":            web.PopFlash(resp, req.Request),
		"User":             user,
		"TotalAnimes":      dashboard.Stats.Total,
		"AvgRating":        dashboard.Stats.AvgRating,
		"TotalTimeWatched": dashboard.Stats.TotalTimeWatched,
		"Buckets": []bucket{
			{models.StatusWatched, dashboard.Watched},
			{models.StatusFavorite, dashboard.Favorite},
			{models.StatusPlanToWatch, dashboard.PlanToWatch},
			{models.StatusDropped, dashboard.Dropped},
		},
	})
}

func (ctl *AnimeController) addHandler(req *restful.Request, resp *restful.Response) {
	user, _ := auth.UserFrom(req)

	input, ok := ctl.readEntryInput(req, resp)
	if !ok {
		return
	}

	anime, err := ctl.animeService.Add(user.ID, input)
	if err != nil {
		ctl.store.Remove(input.Image)
		writeServiceError(resp, err)
		return
	}

	_ = resp.WriteHeaderAndJson(http.StatusOK, map[string]interface{}{
		"success": true,
		"anime": EntryResponse{
			ID:       anime.ID,
			Title:    anime.Title,
			Episodes: anime.Episodes,
			Note:     anime.Note,
			Rating:   anime.Rating,
			Status:   anime.Status,
			Genre:    anime.Genre,
			Image:    anime.Image,
		},
	}, restful.MIME_JSON)
}

func (ctl *AnimeController) editHandler(req *restful.Request, resp *restful.Response) {
	user, _ := auth.UserFrom(req)

	entryID, ok := ctl.entryID(req, resp)
	if !ok {
		return
	}
	input, ok := ctl.readEntryInput(req, resp)
	if !ok {
		return
	}

	_, replaced, err := ctl.animeService.Edit(user.ID, entryID, input)
	if err != nil {
		ctl.store.Remove(input.Image)
		writeServiceError(resp, err)
		return
	}
	ctl.store.Remove(replaced)

	_ = resp.WriteHeaderAndJson(http.StatusOK, map[string]bool{"success": true}, restful.MIME_JSON)
}

func (ctl *AnimeController) deleteHandler(req *restful.Request, resp *restful.Response) {
	user, _ := auth.UserFrom(req)

	entryID, ok := ctl.entryID(req, resp)
	if !ok {
		return
	}

	removed, err := ctl.animeService.Delete(user.ID, entryID)
	if err != nil {
		writeServiceError(resp, err)
		return
	}
	ctl.store.Remove(removed)

	_ = resp.WriteHeaderAndJson(http.StatusOK, map[string]bool{"success": true}, restful.MIME_JSON)
}

func (ctl *AnimeController) listHandler(req *restful.Request, resp *restful.Response) {
	user, _ := auth.UserFrom(req)

	animes, err := ctl.animeService.ListAll(user.ID)
	if err != nil {
		_ = resp.WriteHeaderAndJson(http.StatusInternalServerError, map[string]string{"error": "Could not load catalog"}, restful.MIME_JSON)
		return
	}

	out := CatalogResponse{Animes: make([]CatalogEntryResponse, 0, len(animes))}
	for _, a := range animes {
		entry := CatalogEntryResponse{
			ID:       a.ID,
			Title:    a.Title,
			Genre:    a.Genre,
			Status:   a.Status,
			Episodes: a.Episodes,
			Rating:   a.Rating,
			Note:     a.Note,
			Favorite: a.Status == models.StatusFavorite,
		}
		if a.Status == models.StatusWatched {
			entry.WatchedEpisodes = a.Episodes
		}
		if a.Image != "" {
			image := a.Image
			entry.Image = &image
		}
		out.Animes = append(out.Animes, entry)
	}

	_ = resp.WriteHeaderAndJson(http.StatusOK, out, restful.MIME_JSON)
}

// readEntryInput extracts the typed entry fields from the form, storing the
// optional image along the way. A file with a disallowed extension is skipped
// silently, matching the add/edit leniency for bad numeric input; an IO
// failure while storing rejects the request.
func (ctl *AnimeController) readEntryInput(req *restful.Request, resp *restful.Response) (*services.EntryInput, bool) {
	input := &services.EntryInput{
		Title:    req.Request.FormValue("title"),
		Episodes: req.Request.FormValue("episodes"),
		Note:     req.Request.FormValue("note"),
		Rating:   req.Request.FormValue("rating"),
		Status:   req.Request.FormValue("status"),
		Genre:    req.Request.FormValue("genre"),
	}

	if _, header, err := req.Request.FormFile("image"); err == nil && header.Filename != "" && ctl.store.Allowed(header.Filename) {
		stored, err := ctl.store.Save(header)
		if err != nil {
			_ = resp.WriteHeaderAndJson(http.StatusBadRequest, map[string]string{"error": uploads.Reason(err)}, restful.MIME_JSON)
			return nil, false
		}
		input.Image = stored
	}
	return input, true
}

func (ctl *AnimeController) entryID(req *restful.Request, resp *restful.Response) (uint, bool) {
	id, err := strconv.ParseUint(req.PathParameter("id"), 10, 32)
	if err != nil {
		_ = resp.WriteHeaderAndJson(http.StatusNotFound, map[string]string{"error": "Anime not found or access denied"}, restful.MIME_JSON)
		return 0, false
	}
	return uint(id), true
}

// writeServiceError maps service errors onto the JSON failure shapes.
func writeServiceError(resp *restful.Response, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrDuplicate):
		status = http.StatusBadRequest
	}
	message := services.Message(err)
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	_ = resp.WriteHeaderAndJson(status, map[string]string{"error": message}, restful.MIME_JSON)
}
