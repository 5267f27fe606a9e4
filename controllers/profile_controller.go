package controllers

import (
	"net/http"
	"strings"

	"animelog/auth"
	"animelog/services"
	"animelog/uploads"
	"animelog/web"

	restful "github.com/emicklei/go-restful/v3"
)

// ProfileController serves the authenticated profile pages: dashboard,
// profile editing and the dedicated picture upload.
type ProfileController struct {
	userService services.UserService
	store       *uploads.Store
	gate        *auth.SessionGate
}

// NewProfileController creates a new ProfileController instance
func NewProfileController(userService services.UserService, store *uploads.Store, gate *auth.SessionGate) *ProfileController {
	return &ProfileController{userService: userService, store: store, gate: gate}
}

// RegisterRoutes sets up the protected profile routes on the root WebService.
func (ctl *ProfileController) RegisterRoutes(ws *restful.WebService) {
	ws.Route(ws.GET("/home").Filter(ctl.gate.PageFilter()).To(ctl.homeHandler).
		Doc("Profile dashboard").
		Produces("text/html"))

	ws.Route(ws.POST("/upload_profile_pic").Filter(ctl.gate.PageFilter()).To(ctl.uploadProfilePicHandler).
		Doc("Set the profile picture").
		Consumes("multipart/form-data").
		Produces("text/html"))

	ws.Route(ws.GET("/edit_profile").Filter(ctl.gate.PageFilter()).To(ctl.editProfilePageHandler).
		Doc("Profile edit form").
		Produces("text/html"))
	ws.Route(ws.POST("/edit_profile").Filter(ctl.gate.PageFilter()).To(ctl.editProfileHandler).
		Doc("Update profile, password and picture").
		Consumes("application/x-www-form-urlencoded", "multipart/form-data").
		Produces("text/html"))
}

func (ctl *ProfileController) homeHandler(req *restful.Request, resp *restful.Response) {
	user, _ := auth.UserFrom(req)
	_ = web.Render(resp, http.StatusOK, "home.html", map[string]interface{}{
		"Title": "Home",
		"Flash": web.PopFlash(resp, req.Request),
		"User":  user,
	})
}

// uploadProfilePicHandler handles the dedicated picture route. Success and
// failure both land back on /home with a notice.
func (ctl *ProfileController) uploadProfilePicHandler(req *restful.Request, resp *restful.Response) {
	user, _ := auth.UserFrom(req)

	_, header, err := req.Request.FormFile("profile_pic")
	if err != nil {
		web.SetFlash(resp, web.FlashError, "No file part in the request.")
		http.Redirect(resp, req.Request, "/home", http.StatusSeeOther)
		return
	}
	if header.Filename == "" {
		web.SetFlash(resp, web.FlashError, "No file selected.")
		http.Redirect(resp, req.Request, "/home", http.StatusSeeOther)
		return
	}

	stored, err := ctl.store.Save(header)
	if err != nil {
		web.SetFlash(resp, web.FlashError, uploads.Reason(err))
		http.Redirect(resp, req.Request, "/home", http.StatusSeeOther)
		return
	}

	oldPic := user.ProfilePic
	_, err = ctl.userService.UpdateProfile(user.ID, &services.UpdateProfileInput{
		Name:       user.Name,
		Username:   user.Username,
		Email:      user.Email,
		ProfilePic: stored,
	})
	if err != nil {
		ctl.store.Remove(stored)
		web.SetFlash(resp, web.FlashError, services.Message(err))
		http.Redirect(resp, req.Request, "/home", http.StatusSeeOther)
		return
	}
	ctl.store.Remove(oldPic)

	web.SetFlash(resp, web.FlashSuccess, "Profile picture updated successfully!")
	http.Redirect(resp, req.Request, "/home", http.StatusSeeOther)
}

func (ctl *ProfileController) editProfilePageHandler(req *restful.Request, resp *restful.Response) {
	user, _ := auth.UserFrom(req)
	ctl.renderEditProfile(req, resp, web.PopFlash(resp, req.Request), user)
}

func (ctl *ProfileController) editProfileHandler(req *restful.Request, resp *restful.Response) {
	user, _ := auth.UserFrom(req)

	input := &services.UpdateProfileInput{
		Name:            strings.TrimSpace(req.Request.FormValue("name")),
		Username:        strings.TrimSpace(req.Request.FormValue("username")),
		Email:           strings.TrimSpace(req.Request.FormValue("email")),
		CurrentPassword: req.Request.FormValue("current_password"),
		NewPassword:     req.Request.FormValue("new_password"),
	}

	// Optional new picture; invalid uploads reject the whole edit.
	if _, header, err := req.Request.FormFile("profile_pic"); err == nil && header.Filename != "" {
		stored, err := ctl.store.Save(header)
		if err != nil {
			ctl.renderEditProfile(req, resp, &web.Flash{Kind: web.FlashError, Message: uploads.Reason(err)}, user)
			return
		}
		input.ProfilePic = stored
	}

	oldPic := user.ProfilePic
	if _, err := ctl.userService.UpdateProfile(user.ID, input); err != nil {
		if input.ProfilePic != "" {
			ctl.store.Remove(input.ProfilePic)
		}
		ctl.renderEditProfile(req, resp, &web.Flash{Kind: web.FlashError, Message: services.Message(err)}, user)
		return
	}
	if input.ProfilePic != "" {
		ctl.store.Remove(oldPic)
	}

	web.SetFlash(resp, web.FlashSuccess, "Profile updated successfully!")
	http.Redirect(resp, req.Request, "/home", http.StatusSeeOther)
}

func (ctl *ProfileController) renderEditProfile(req *restful.Request, resp *restful.Response, flash *web.Flash, user interface{}) {
	_ = web.Render(resp, http.StatusOK, "edit_profile.html", map[string]interface{}{
		"Title": "Edit profile",
		"Flash": flash,
		"User":  user,
	})
}
