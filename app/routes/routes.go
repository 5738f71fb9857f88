package routes

import (
	"io/fs"
	"log/slog"
	"net/http"

	"postdirectory/app/controllers"
	"postdirectory/app/middleware"
	"postdirectory/app/repositories"

	"github.com/gorilla/mux"
)

// Config wires the reference posts API.
type Config struct {
	Repository repositories.PostRepository
	// Images stores uploads. Nil disables image uploads and /images/.
	Images    *repositories.ImageStore
	PublicURL string
	Logger    *slog.Logger
}

// SetupAPIRoutes defines the posts API routes and returns a router.
func SetupAPIRoutes(cfg Config) *mux.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.Logger(logger.WithGroup("http")))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.CORS)
	router.Use(middleware.ContentTypeJSON)

	postController := controllers.NewPostController(cfg.Repository, cfg.Images, controllers.ControllerConfig{
		PublicURL: cfg.PublicURL,
		Logger:    logger,
	})

	if cfg.Images != nil {
		router.PathPrefix(controllers.ImagesPath).Methods("GET").Handler(
			http.StripPrefix(controllers.ImagesPath, http.FileServer(imageFS{http.Dir(cfg.Images.Dir())})),
		)
	}

	// Posts API endpoints
	posts := router.PathPrefix(repositories.PostsPath).Subrouter()
	posts.HandleFunc("", postController.Index).Methods("GET")
	posts.HandleFunc("", postController.Create).Methods("POST")
	posts.HandleFunc("/{id}", postController.Show).Methods("GET")
	posts.HandleFunc("/{id}", postController.Edit).Methods("PUT")
	posts.HandleFunc("/{id}", postController.Delete).Methods("DELETE")

	// Preflight requests are answered by the CORS middleware.
	router.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	return router
}

// imageFS serves stored images only; directories are reported as missing so
// the upload directory is never listed.
type imageFS struct {
	root http.FileSystem
}

func (f imageFS) Open(name string) (http.File, error) {
	file, err := f.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
