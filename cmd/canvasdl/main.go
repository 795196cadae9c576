package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/coursetools/canvasdl/internal/archive"
	"github.com/coursetools/canvasdl/internal/canvas"
	"github.com/coursetools/canvasdl/internal/config"
	"github.com/coursetools/canvasdl/internal/progress"
)

// Exit codes
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitInvalidConfig = 2
	ExitAuthError     = 3
	ExitNotFound      = 4
	ExitTransport     = 5
	ExitStorageError  = 6
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("canvasdl", flag.ContinueOnError)

	configPath := fs.String("config", "", "Path to YAML config file")
	course := fs.String("course", "", "Course ID (overrides CANVAS_COURSE_ID)")
	bucketURL := fs.String("bucket", "", "Archive bucket URL (default "+config.DefaultBucketURL+")")
	workers := fs.Int("workers", 0, "Number of parallel download workers")
	all := fs.Bool("all", false, "Archive every submission version, not just the latest")
	exclude := fs.String("exclude", "", "Comma-separated extensions to skip, e.g. .mp4,.mov")
	assignmentDirs := fs.Bool("assignment-dirs", false, "Lay out the archive one directory per assignment")
	showProgress := fs.Bool("progress", false, "Show live download progress")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: canvasdl [options]

Archive assignment submissions from a Canvas course to local storage or an
object-store bucket. Credentials come from CANVAS_API_URL, CANVAS_API_KEY,
and CANVAS_COURSE_ID; flags override environment and config file.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidConfig
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidConfig
		}
		cfg = loaded
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidConfig
	}
	cfg = cfg.Merge(config.Config{
		CourseID:       *course,
		Bucket:         *bucketURL,
		Workers:        *workers,
		IncludeAll:     *all,
		ExcludedExts:   splitExts(*exclude),
		AssignmentDirs: *assignmentDirs,
		Progress:       *showProgress,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidConfig
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[canvasdl] Received interrupt, shutting down...")
		cancel()
	}()

	bucket, err := blob.OpenBucket(ctx, cfg.Bucket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bucket.Close()

	client := canvas.NewClient(canvas.Options{
		BaseURL: cfg.APIURL,
		Token:   cfg.APIKey,
		Timeout: cfg.Timeout,
	})

	opts := archive.Options{
		Workers:        cfg.Workers,
		IncludeAll:     cfg.IncludeAll,
		ExcludedExts:   cfg.ExcludedSet(),
		AssignmentDirs: cfg.AssignmentDirs,
		Log:            os.Stderr,
	}
	if cfg.Progress {
		opts.Progress = progress.NewReporter(progress.Options{
			Workers: cfg.Workers,
			Course:  cfg.CourseID,
		})
	}

	summary, err := archive.Run(ctx, client, bucket, cfg.CourseID, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCodeFor(err)
	}

	fmt.Fprintf(os.Stderr, "[canvasdl] Run %s complete: %d written | %d skipped | %d failed | %s\n",
		summary.RunID, summary.Written, summary.Skipped, summary.Failed,
		progress.FormatBytes(summary.Bytes))
	if summary.Failed > 0 {
		fmt.Fprintf(os.Stderr, "[canvasdl] See %s in the archive for details\n", archive.ReportKey)
	}

	return ExitSuccess
}

// exitCodeFor maps a fatal run error to a process exit code.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, canvas.ErrUnauthorized), errors.Is(err, canvas.ErrForbidden):
		return ExitAuthError
	case errors.Is(err, canvas.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, canvas.ErrTransient):
		return ExitTransport
	case errors.Is(err, context.Canceled):
		return ExitGeneralError
	default:
		return ExitGeneralError
	}
}

func splitExts(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
