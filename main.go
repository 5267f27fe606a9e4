package main

import (
	"fmt"
	"net/http"
	"time"

	"animelog/auth"
	"animelog/config"
	"animelog/controllers"
	"animelog/database"
	"animelog/repositories"
	"animelog/services"
	"animelog/uploads"
	"animelog/web"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"go.uber.org/zap"
)

// requestLogFilter logs every request after it completes.
func requestLogFilter(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		start := time.Now()
		chain.ProcessFilter(req, resp)
		logger.Info("Request",
			zap.String("client_ip", req.Request.RemoteAddr),
			zap.String("method", req.Request.Method),
			zap.String("path", req.Request.URL.Path),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", req.Request.UserAgent()),
		)
	}
}

func main() {
	// Initialize configs
	config.InitConfig()

	var logger *zap.Logger
	switch config.AppConfig.LogLevel {
	case "debug":
		logger, _ = zap.NewDevelopment()
	default:
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync() // Make sure the buffer is flushed before the program exits

	db := database.InitDB()

	store, err := uploads.NewStore(config.AppConfig.UploadDir, config.AppConfig.AllowedExts, logger)
	if err != nil {
		logger.Fatal("Failed to initialize upload store", zap.Error(err))
	}

	userRepo := repositories.NewUserRepository(db)
	animeRepo := repositories.NewAnimeRepository(db)

	userService := services.NewUserService(userRepo)
	animeService := services.NewAnimeService(animeRepo)

	gate := auth.NewSessionGate(
		[]byte(config.AppConfig.SessionSecret),
		time.Duration(config.AppConfig.SessionTTLHours)*time.Hour,
		userRepo,
	)

	authController := controllers.NewAuthController(userService, gate)
	profileController := controllers.NewProfileController(userService, store, gate)
	animeController := controllers.NewAnimeController(animeService, store, gate)

	container := restful.NewContainer()
	container.Filter(requestLogFilter(logger))
	container.RecoverHandler(func(reason interface{}, w http.ResponseWriter) {
		logger.Error("Panic while handling request", zap.Any("reason", reason))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	})
	// Unmapped paths render the error page instead of the default plain 404.
	container.ServiceErrorHandler(func(serviceErr restful.ServiceError, req *restful.Request, resp *restful.Response) {
		if serviceErr.Code == http.StatusNotFound {
			_ = web.Render(resp, http.StatusNotFound, "404.html", map[string]interface{}{
				"Title": "Not found",
				"Flash": (*web.Flash)(nil),
			})
			return
		}
		resp.WriteHeader(serviceErr.Code)
		_, _ = resp.Write([]byte(serviceErr.Message))
	})

	pagesWS := new(restful.WebService)
	pagesWS.Path("/")
	authController.RegisterRoutes(pagesWS)
	profileController.RegisterRoutes(pagesWS)
	container.Add(pagesWS)

	animeWS := new(restful.WebService)
	animeController.RegisterRoutes(animeWS)
	container.Add(animeWS)

	apiWS := new(restful.WebService)
	animeController.RegisterAPIRoutes(apiWS)
	container.Add(apiWS)

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
		PostBuildSwaggerObjectHandler: func(s *spec.Swagger) {
			s.Info = &spec.Info{InfoProps: spec.InfoProps{
				Title:       "AnimeLog",
				Description: "Personal anime catalog",
				Version:     "1.0.0",
			}}
		},
	}))

	mux := http.NewServeMux()
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(store.Dir()))))
	mux.Handle("/", container)

	addr := fmt.Sprintf(":%d", config.AppConfig.HTTPPort)
	logger.Info("Starting server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
