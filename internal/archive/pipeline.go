package archive

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"gocloud.dev/blob"

	"github.com/coursetools/canvasdl/internal/canvas"
	"github.com/coursetools/canvasdl/internal/progress"
)

// Options configures an archive run.
type Options struct {
	// Workers is the number of parallel download workers.
	Workers int

	// IncludeAll archives every submission version instead of only the
	// latest one with attachments.
	IncludeAll bool

	// ExcludedExts is the set of lowercase extensions (with leading dot)
	// whose attachments are skipped.
	ExcludedExts map[string]bool

	// AssignmentDirs lays the archive out one directory per assignment.
	AssignmentDirs bool

	// Progress is an optional progress reporter.
	Progress *progress.Reporter

	// Log is where lifecycle messages are written. Default: discarded.
	Log io.Writer
}

// Outcome is the terminal state of a download task.
type Outcome int

const (
	// OutcomeWritten means the attachment bytes were fetched and persisted.
	OutcomeWritten Outcome = iota
	// OutcomeSkipped means the extension filter excluded the attachment,
	// or the attachment had no retrievable URL.
	OutcomeSkipped
	// OutcomeFailed means the fetch or the write failed; a FailureRecord
	// was produced and the run continued.
	OutcomeFailed
)

// Task is one fully self-describing unit of download work: a single
// attachment of a single submission version. Tasks share no mutable state
// with each other.
type Task struct {
	CourseID     string
	Assignment   canvas.Assignment
	StudentID    int64
	StudentName  string
	Version      canvas.Version
	AttemptCount int
	Attachment   canvas.Attachment
}

// Result is the outcome of one executed task.
type Result struct {
	Task    Task
	Outcome Outcome
	Key     string
	Bytes   int64
	Err     error
}

// Summary describes a completed run.
type Summary struct {
	RunID   string
	Written int
	Skipped int
	Failed  int
	Bytes   int64
}

// Run archives all submissions of a course into the bucket.
//
// The listing phase is sequential: assignments, then submissions per
// assignment, building the full task queue. Any listing error is fatal
// and returns before a single task is dispatched. The download phase
// drains the queue through a fixed pool of opts.Workers workers; a failed
// task is recorded and never stops the batch. The failure report is
// written to the bucket at the end of a run that produced failures.
func Run(ctx context.Context, client *canvas.Client, bucket *blob.Bucket, courseID string, opts Options) (Summary, error) {
	if opts.Workers <= 0 {
		opts.Workers = 10
	}
	if opts.Log == nil {
		opts.Log = io.Discard
	}

	summary := Summary{RunID: uuid.NewString()}

	tasks, err := buildTasks(ctx, client, courseID, opts)
	if err != nil {
		return summary, err
	}

	if opts.Progress != nil {
		opts.Progress.Start(len(tasks))
		defer opts.Progress.Stop()
	}

	jobs := make(chan Task)
	results := make(chan Result)
	var wg sync.WaitGroup

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range jobs {
				results <- runTask(ctx, client, bucket, task, opts)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, task := range tasks {
			select {
			case jobs <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var failures []FailureRecord
	for r := range results {
		switch r.Outcome {
		case OutcomeWritten:
			summary.Written++
			summary.Bytes += r.Bytes
		case OutcomeSkipped:
			summary.Skipped++
		case OutcomeFailed:
			summary.Failed++
			failures = append(failures, FailureRecord{
				Student:    r.Task.StudentName,
				StudentID:  r.Task.StudentID,
				Assignment: r.Task.Assignment.Name,
				Attempt:    r.Task.Version.Attempt,
				Attachment: r.Task.Attachment.Filename,
				Reason:     r.Err.Error(),
			})
		}
	}

	if len(failures) > 0 {
		if err := WriteReport(ctx, bucket, summary.RunID, failures); err != nil {
			return summary, err
		}
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// buildTasks lists assignments and submissions sequentially and expands
// them into the download queue. Listing errors abort the run.
func buildTasks(ctx context.Context, client *canvas.Client, courseID string, opts Options) ([]Task, error) {
	assignments, err := client.ListAssignments(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	var tasks []Task
	for _, a := range assignments {
		fmt.Fprintf(opts.Log, "[canvasdl] Processing assignment: %s (ID: %d)\n", a.Name, a.ID)

		subs, err := client.ListSubmissions(ctx, courseID, a.ID)
		if err != nil {
			return nil, fmt.Errorf("list submissions for assignment %d: %w", a.ID, err)
		}

		for _, sub := range subs {
			for _, v := range SelectVersions(sub, opts.IncludeAll) {
				for _, att := range v.Attachments {
					tasks = append(tasks, Task{
						CourseID:     courseID,
						Assignment:   a,
						StudentID:    sub.UserID,
						StudentName:  sub.UserName,
						Version:      v,
						AttemptCount: len(sub.Versions),
						Attachment:   att,
					})
				}
			}
		}
	}

	return tasks, nil
}

// runTask executes one download task to its terminal state. Errors are
// converted to a Failed result and never propagate past the worker.
func runTask(ctx context.Context, client *canvas.Client, bucket *blob.Bucket, task Task, opts Options) Result {
	res := Result{Task: task}

	if task.Attachment.URL == "" || ExcludedExt(task.Attachment.Filename, opts.ExcludedExts) {
		res.Outcome = OutcomeSkipped
		if opts.Progress != nil {
			opts.Progress.FileStarted()
			opts.Progress.FileSkipped()
		}
		return res
	}

	name := BuildFilename(task.StudentName, task.StudentID, task.Version,
		task.AttemptCount, opts.IncludeAll, task.Attachment.Filename)
	if opts.AssignmentDirs {
		res.Key = AssignmentDir(task.Assignment.Name, task.Assignment.ID) + "/" + name
	} else {
		res.Key = name
	}

	if opts.Progress != nil {
		opts.Progress.FileStarted()
	}

	n, err := fetchToBucket(ctx, client, bucket, task.Attachment, res.Key)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		if opts.Progress != nil {
			opts.Progress.FileFailed()
		}
		return res
	}

	res.Outcome = OutcomeWritten
	res.Bytes = n
	if opts.Progress != nil {
		opts.Progress.FileWritten(n)
	}
	return res
}

// fetchToBucket streams one attachment from the API into the bucket.
// An existing object under the same key is overwritten.
func fetchToBucket(ctx context.Context, client *canvas.Client, bucket *blob.Bucket, att canvas.Attachment, key string) (int64, error) {
	body, err := client.FetchAttachment(ctx, att.URL)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", att.Filename, err)
	}
	defer body.Close()

	wopts := &blob.WriterOptions{}
	if att.ContentType != "" {
		wopts.ContentType = att.ContentType
	}

	w, err := bucket.NewWriter(ctx, key, wopts)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", key, err)
	}

	n, err := io.Copy(w, body)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write %s: %w", key, err)
	}

	return n, nil
}
