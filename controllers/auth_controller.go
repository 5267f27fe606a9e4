package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"animelog/auth"
	"animelog/services"
	"animelog/web"

	restful "github.com/emicklei/go-restful/v3"
)

// AuthController serves the public pages: index, signup, login, logout.
type AuthController struct {
	userService services.UserService
	gate        *auth.SessionGate
}

// NewAuthController creates a new AuthController instance
func NewAuthController(userService services.UserService, gate *auth.SessionGate) *AuthController {
	return &AuthController{userService: userService, gate: gate}
}

// RegisterRoutes sets up the public routes on the root WebService.
func (ctl *AuthController) RegisterRoutes(ws *restful.WebService) {
	ws.Route(ws.GET("/").To(ctl.indexHandler).
		Doc("Landing page").
		Produces("text/html"))

	ws.Route(ws.GET("/signup").To(ctl.signupPageHandler).
		Doc("Signup form").
		Produces("text/html"))
	ws.Route(ws.POST("/signup").To(ctl.signupHandler).
		Doc("Create an account").
		Consumes("application/x-www-form-urlencoded", "multipart/form-data").
		Produces("text/html"))

	ws.Route(ws.GET("/login").To(ctl.loginPageHandler).
		Doc("Login form").
		Produces("text/html"))
	ws.Route(ws.POST("/login").To(ctl.loginHandler).
		Doc("Authenticate and start a session").
		Consumes("application/x-www-form-urlencoded", "multipart/form-data").
		Produces("text/html"))

	ws.Route(ws.GET("/logout").To(ctl.logoutHandler).
		Doc("End the session").
		Produces("text/html"))
}

func (ctl *AuthController) indexHandler(req *restful.Request, resp *restful.Response) {
	_ = web.Render(resp, http.StatusOK, "index.html", map[string]interface{}{
		"Title": "Welcome",
		"Flash": web.PopFlash(resp, req.Request),
	})
}

func (ctl *AuthController) signupPageHandler(req *restful.Request, resp *restful.Response) {
	ctl.renderSignup(req, resp, nil, &services.RegisterInput{})
}

func (ctl *AuthController) signupHandler(req *restful.Request, resp *restful.Response) {
	input := &services.RegisterInput{
		Name:     strings.TrimSpace(req.Request.FormValue("name")),
		Username: strings.TrimSpace(req.Request.FormValue("username")),
		Email:    strings.TrimSpace(req.Request.FormValue("email")),
		Password: req.Request.FormValue("password"),
	}

	if _, err := ctl.userService.Register(input); err != nil {
		ctl.renderSignup(req, resp, &web.Flash{Kind: web.FlashError, Message: services.Message(err)}, input)
		return
	}

	web.SetFlash(resp, web.FlashSuccess, "Signup successful! You can now log in.")
	http.Redirect(resp, req.Request, "/login", http.StatusSeeOther)
}

func (ctl *AuthController) loginPageHandler(req *restful.Request, resp *restful.Response) {
	ctl.renderLogin(req, resp, web.PopFlash(resp, req.Request), "")
}

func (ctl *AuthController) loginHandler(req *restful.Request, resp *restful.Response) {
	identifier := strings.TrimSpace(req.Request.FormValue("username"))
	password := req.Request.FormValue("password")

	user, err := ctl.userService.Authenticate(identifier, password)
	if err != nil {
		ctl.renderLogin(req, resp, &web.Flash{Kind: web.FlashError, Message: "Invalid username/email or password."}, identifier)
		return
	}

	if err := ctl.gate.Establish(resp, user); err != nil {
		ctl.renderLogin(req, resp, &web.Flash{Kind: web.FlashError, Message: "Could not start session."}, identifier)
		return
	}

	web.SetFlash(resp, web.FlashSuccess, fmt.Sprintf("Welcome back, %s!", user.Name))
	http.Redirect(resp, req.Request, "/home", http.StatusSeeOther)
}

func (ctl *AuthController) logoutHandler(req *restful.Request, resp *restful.Response) {
	ctl.gate.Clear(resp)
	web.SetFlash(resp, web.FlashSuccess, "You have been logged out.")
	http.Redirect(resp, req.Request, "/login", http.StatusSeeOther)
}

func (ctl *AuthController) renderSignup(req *restful.Request, resp *restful.Response, flash *web.Flash, input *services.RegisterInput) {
	if flash == nil {
		flash = web.PopFlash(resp, req.Request)
	}
	_ = web.Render(resp, http.StatusOK, "signup.html", map[string]interface{}{
		"Title":    "Sign up",
		"Flash":    flash,
		"Name":     input.Name,
		"Username": input.Username,
		"Email":    input.Email,
	})
}

func (ctl *AuthController) renderLogin(req *restful.Request, resp *restful.Response, flash *web.Flash, identifier string) {
	_ = web.Render(resp, http.StatusOK, "login.html", map[string]interface{}{
		"Title":      "Log in",
		"Flash":      flash,
		"Identifier": identifier,
	})
}
