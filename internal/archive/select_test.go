package archive

import (
	"testing"
	"time"

	"github.com/coursetools/canvasdl/internal/canvas"
)

func version(attempt int, attachments ...string) canvas.Version {
	v := canvas.Version{
		Attempt:     attempt,
		SubmittedAt: time.Date(2025, 3, attempt, 10, 0, 0, 0, time.UTC),
	}
	for _, name := range attachments {
		v.Attachments = append(v.Attachments, canvas.Attachment{Filename: name, URL: "https://files/" + name})
	}
	return v
}

func TestSelectVersionsLatest(t *testing.T) {
	sub := canvas.Submission{
		UserID:   1,
		Versions: []canvas.Version{version(1, "draft.txt"), version(2, "final.pdf")},
	}

	got := SelectVersions(sub, false)
	if len(got) != 1 {
		t.Fatalf("expected 1 version, got %d", len(got))
	}
	if got[0].Attempt != 2 {
		t.Errorf("expected attempt 2, got %d", got[0].Attempt)
	}
}

func TestSelectVersionsLatestSkipsEmptyAttempt(t *testing.T) {
	// The final attempt has no attachments; an earlier attempt with a real
	// file must win.
	sub := canvas.Submission{
		UserID:   1,
		Versions: []canvas.Version{version(1, "work.pdf"), version(2)},
	}

	got := SelectVersions(sub, false)
	if len(got) != 1 {
		t.Fatalf("expected 1 version, got %d", len(got))
	}
	if got[0].Attempt != 1 {
		t.Errorf("expected fallback to attempt 1, got %d", got[0].Attempt)
	}
}

func TestSelectVersionsNoneWithAttachments(t *testing.T) {
	sub := canvas.Submission{
		UserID:   1,
		Versions: []canvas.Version{version(1), version(2)},
	}

	if got := SelectVersions(sub, false); len(got) != 0 {
		t.Errorf("expected no versions, got %d", len(got))
	}
	if got := SelectVersions(sub, true); len(got) != 0 {
		t.Errorf("expected no versions with includeAll, got %d", len(got))
	}
}

func TestSelectVersionsIncludeAll(t *testing.T) {
	sub := canvas.Submission{
		UserID: 1,
		Versions: []canvas.Version{
			version(1, "a.txt"),
			version(2),
			version(3, "b.txt"),
		},
	}

	got := SelectVersions(sub, true)
	if len(got) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(got))
	}
	if got[0].Attempt != 1 || got[1].Attempt != 3 {
		t.Errorf("expected attempts [1 3] in ascending order, got [%d %d]", got[0].Attempt, got[1].Attempt)
	}
}

func TestSelectVersionsEmptySubmission(t *testing.T) {
	if got := SelectVersions(canvas.Submission{UserID: 1}, false); got != nil {
		t.Errorf("expected nil for submission without versions, got %v", got)
	}
}
