package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"postdirectory/app/config"
	"postdirectory/app/feed"
	"postdirectory/app/models"
	"postdirectory/app/repositories"
	"postdirectory/app/routes"
	"postdirectory/app/services"
)

const cliVersion = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := strings.ToLower(os.Args[1])
	args := os.Args[2:]
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("postdirectory version %s\n", cliVersion)
	case "serve":
		err = serve(ctx, cfg, logger, args)
	case "list", "get", "create", "update", "delete", "feed":
		err = runClient(ctx, cfg, logger, cmd, args)
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	helpText := `Usage: postdirectory <command> [options]
Commands:
  help                                   Display this help message.
  version                                Show version information.
  serve  [--addr :3000] [--data dir]     Run the reference posts API.
  list                                   Print every post.
  get    <id>                            Print the server record of one post.
  create --title T --content C [--image file]
                                         Create a post.
  update <id> --title T --content C [--image file | --image-path path]
                                         Replace a post.
  delete <id>                            Delete a post.
  feed   [--atom] [--link url]           Print the posts as an RSS (or Atom) feed.

Environment:
  POSTS_API_URL, POSTS_PAYLOAD (multipart|json), POSTS_HTTP_TIMEOUT,
  POSTS_ADDR, POSTS_DATA_DIR, POSTS_PUBLIC_URL, POSTS_LOG_LEVEL
`
	fmt.Println(helpText)
}

// serve runs the reference posts API until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Addr, "listen address")
	dataDir := fs.String("data", cfg.DataDir, "directory for the store and uploaded images")
	publicURL := fs.String("public-url", cfg.PublicURL, "URL prefix for image paths")
	fs.Parse(args)

	db, err := repositories.OpenStore(filepath.Join(*dataDir, "badger"))
	if err != nil {
		return err
	}
	defer db.Close()

	images, err := repositories.NewImageStore(filepath.Join(*dataDir, "images"))
	if err != nil {
		return err
	}

	router := routes.SetupAPIRoutes(routes.Config{
		Repository: repositories.NewBadgerPostRepository(db),
		Images:     images,
		PublicURL:  *publicURL,
		Logger:     logger,
	})

	server := &http.Server{
		Addr:              *addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting posts API", "addr", *addr, "data", *dataDir)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("posts API server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down posts API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runClient drives a PostDirectory for one CLI command.
func runClient(ctx context.Context, cfg *config.Config, logger *slog.Logger, cmd string, args []string) error {
	remote := repositories.NewHTTPPostRemote(repositories.HTTPConfig{
		BaseURL: cfg.APIURL,
		Payload: cfg.Payload,
		Client:  &http.Client{Timeout: cfg.Timeout},
		Logger:  logger,
	})
	dir := services.NewPostDirectory(remote, services.DirectoryConfig{
		Navigate: func(route string) { logger.Debug("navigation requested", "route", route) },
		Logger:   logger,
	})

	switch cmd {
	case "list":
		if err := dir.List(ctx); err != nil {
			return err
		}
		return printJSON(dir.Posts())

	case "get":
		if len(args) < 1 {
			return errors.New("get requires a post id")
		}
		post, err := dir.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(post)

	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		title := fs.String("title", "", "post title")
		content := fs.String("content", "", "post content")
		imageFile := fs.String("image", "", "image file to upload")
		fs.Parse(args)

		image, closeImage, err := openImage(*imageFile, "")
		if err != nil {
			return err
		}
		defer closeImage()

		post, err := dir.Create(ctx, *title, *content, image)
		if err != nil {
			return err
		}
		return printJSON(post)

	case "update":
		if len(args) < 1 {
			return errors.New("update requires a post id")
		}
		id := args[0]
		fs := flag.NewFlagSet("update", flag.ExitOnError)
		title := fs.String("title", "", "post title")
		content := fs.String("content", "", "post content")
		imageFile := fs.String("image", "", "image file to upload")
		imagePath := fs.String("image-path", "", "keep an existing image path")
		fs.Parse(args[1:])

		image, closeImage, err := openImage(*imageFile, *imagePath)
		if err != nil {
			return err
		}
		defer closeImage()

		// Updates only apply to posts the directory already mirrors.
		if err := dir.List(ctx); err != nil {
			return err
		}
		post, err := dir.Update(ctx, id, *title, *content, image)
		if err != nil {
			return err
		}
		return printJSON(post)

	case "delete":
		if len(args) < 1 {
			return errors.New("delete requires a post id")
		}
		if err := dir.List(ctx); err != nil {
			return err
		}
		if err := dir.Delete(ctx, args[0]); err != nil {
			return err
		}
		return printJSON(dir.Posts())

	case "feed":
		fs := flag.NewFlagSet("feed", flag.ExitOnError)
		atom := fs.Bool("atom", false, "write Atom instead of RSS")
		link := fs.String("link", cfg.APIURL, "site link used for the channel and items")
		title := fs.String("title", "Posts", "channel title")
		fs.Parse(args)

		view := feed.NewView(feed.Config{Title: *title, Link: *link, Description: "Posts from " + cfg.APIURL})
		view.Attach(dir)
		defer view.Detach()

		if err := dir.List(ctx); err != nil {
			return err
		}
		if *atom {
			return view.WriteAtom(os.Stdout)
		}
		return view.WriteRSS(os.Stdout)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// openImage picks the image variant for a create or update call.
func openImage(file, path string) (models.Image, func(), error) {
	noop := func() {}
	switch {
	case file != "" && path != "":
		return nil, noop, errors.New("--image and --image-path are mutually exclusive")
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open image: %w", err)
		}
		return models.WithImage{Name: filepath.Base(file), Data: f}, func() { f.Close() }, nil
	case path != "":
		return models.ImagePathOnly{Path: path}, noop, nil
	}
	return nil, noop, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
