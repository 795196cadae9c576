package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gocloud.dev/blob"
)

// ReportKey is the object key of the failure report within the archive
// bucket. Rewritten on every run that produces failures.
const ReportKey = "failed_downloads.txt"

// FailureRecord captures one download that failed. Failures are reported,
// never fatal to the run.
type FailureRecord struct {
	Student    string
	StudentID  int64
	Assignment string
	Attempt    int
	Attachment string
	Reason     string
}

func (r FailureRecord) String() string {
	return fmt.Sprintf("Failed: %s (ID: %d), assignment %q, attempt %d, file %q: %s",
		r.Student, r.StudentID, r.Assignment, r.Attempt, r.Attachment, r.Reason)
}

// WriteReport renders the failure records as a human-readable report and
// writes it to the bucket, overwriting any report from a previous run.
func WriteReport(ctx context.Context, bucket *blob.Bucket, runID string, records []FailureRecord) error {
	var b strings.Builder
	now := time.Now().UTC().Format("2006-01-02 15:04:05")

	fmt.Fprintf(&b, "# canvasdl run %s: %d failed download(s)\n", runID, len(records))
	for _, r := range records {
		fmt.Fprintf(&b, "[%s] %s\n", now, r)
	}

	opts := &blob.WriterOptions{ContentType: "text/plain; charset=utf-8"}
	if err := bucket.WriteAll(ctx, ReportKey, []byte(b.String()), opts); err != nil {
		return fmt.Errorf("write failure report: %w", err)
	}
	return nil
}
