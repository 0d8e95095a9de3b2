package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appanalysis "github.com/bryanwahyu/imagesense/internal/application/analysis"
	"github.com/bryanwahyu/imagesense/internal/config"
	"github.com/bryanwahyu/imagesense/internal/infra/httpserver"
	"github.com/bryanwahyu/imagesense/internal/infra/logsink"
	"github.com/bryanwahyu/imagesense/internal/watch"
)

const version = "1.0.0"

const usage = `ImageSense Analyzer v%s

Usage:
  imagesense analyze <image>...   analyze the given files and append to the CSV
  imagesense watch                analyze every image dropped into the inbox directory
  imagesense serve                accept drops over HTTP (POST /v1/batches)

Flags:
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("imagesense: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("imagesense", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath(), "path to config.yaml")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), usage, version)
		fs.PrintDefaults()
	}
	if len(args) == 0 {
		fs.Usage()
		return errors.New("missing command")
	}
	cmd := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := logsink.New(os.Stderr, "[imagesense] ")
	sink.Log(fmt.Sprintf("ImageSense Analyzer v%s", version))

	switch cmd {
	case "analyze":
		if fs.NArg() == 0 {
			return errors.New("analyze: no files given")
		}
		a, err := newApp(ctx, cfg, sink)
		if err != nil {
			return err
		}
		defer a.Close()
		return analyze(ctx, a, fs.Args())
	case "watch":
		a, err := newApp(ctx, cfg, sink)
		if err != nil {
			return err
		}
		defer a.Close()
		return watchInbox(ctx, a, cfg)
	case "serve":
		a, err := newApp(ctx, cfg, sink)
		if err != nil {
			return err
		}
		defer a.Close()
		return serve(ctx, a, cfg)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "config.yaml"
}

// analyze treats the argument list as one drop.
func analyze(ctx context.Context, a *app, paths []string) error {
	sum, err := a.session.ProcessBatchUntilDone(ctx, paths)
	if err != nil {
		return err
	}
	if sum.Successful < sum.Processed {
		return fmt.Errorf("%d of %d images could not be saved", sum.Processed-sum.Successful, sum.Processed)
	}
	return nil
}

func watchInbox(ctx context.Context, a *app, cfg *config.Config) error {
	w := watch.New(cfg.Watch.Dir, a.session)
	if cfg.Watch.Backfill {
		if err := w.Backfill(ctx); err != nil && !errors.Is(err, appanalysis.ErrNoImages) {
			return err
		}
	}
	return w.Run(ctx)
}

func serve(ctx context.Context, a *app, cfg *config.Config) error {
	handler := httpserver.NewRouter(a.session, httpserver.Options{
		ResultsPath:    a.store.Path(),
		Token:          cfg.Server.Token,
		Checkers:       a.checkers,
		DropsPerMinute: 30,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // a drop blocks until every image is done
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	return nil
}
