package canvas

import (
	"fmt"
	"sort"
	"time"
)

// Assignment is a course assignment as returned by the assignments listing.
type Assignment struct {
	ID              int64
	Name            string
	Published       bool
	SubmissionTypes []string
}

// IsQuiz reports whether the assignment is an online quiz. Quizzes carry
// no downloadable attachments and are filtered out of listings.
func (a Assignment) IsQuiz() bool {
	for _, st := range a.SubmissionTypes {
		if st == "online_quiz" {
			return true
		}
	}
	return false
}

// Attachment is one file belonging to a submission version. An attachment
// with an empty URL cannot be retrieved and is skipped by callers.
type Attachment struct {
	ID          int64
	Filename    string
	DisplayName string
	URL         string
	ContentType string
	Size        int64
}

// Version is one submitted revision of a student's work, numbered by
// attempt. SubmittedAt is zero when the API reports no timestamp.
type Version struct {
	Attempt     int
	SubmittedAt time.Time
	Attachments []Attachment
}

// Submission is a student's work on one assignment, with the full version
// history in ascending attempt order.
type Submission struct {
	UserID   int64
	UserName string
	Versions []Version
}

// Wire representations. Decoded leniently, then converted with strict
// validation so malformed records fail fast instead of producing partial
// downloads.

type assignmentJSON struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Published       bool     `json:"published"`
	SubmissionTypes []string `json:"submission_types"`
}

type attachmentJSON struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
	ContentType string `json:"content-type"`
	Size        int64  `json:"size"`
}

type userJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type versionJSON struct {
	Attempt     int              `json:"attempt"`
	SubmittedAt string           `json:"submitted_at"`
	Attachments []attachmentJSON `json:"attachments"`
}

type submissionJSON struct {
	UserID      int64            `json:"user_id"`
	Attempt     int              `json:"attempt"`
	SubmittedAt string           `json:"submitted_at"`
	Attachments []attachmentJSON `json:"attachments"`
	History     []versionJSON    `json:"submission_history"`
	User        *userJSON        `json:"user"`
}

func (a assignmentJSON) toAssignment() (Assignment, error) {
	if a.ID == 0 {
		return Assignment{}, fmt.Errorf("canvas: assignment missing id")
	}
	if a.Name == "" {
		return Assignment{}, fmt.Errorf("canvas: assignment %d missing name", a.ID)
	}
	return Assignment{
		ID:              a.ID,
		Name:            a.Name,
		Published:       a.Published,
		SubmissionTypes: a.SubmissionTypes,
	}, nil
}

func (a attachmentJSON) toAttachment() Attachment {
	name := a.Filename
	if name == "" {
		name = a.DisplayName
	}
	return Attachment{
		ID:          a.ID,
		Filename:    name,
		DisplayName: a.DisplayName,
		URL:         a.URL,
		ContentType: a.ContentType,
		Size:        a.Size,
	}
}

func (s submissionJSON) toSubmission() (Submission, error) {
	if s.UserID == 0 {
		return Submission{}, fmt.Errorf("canvas: submission missing user_id")
	}

	sub := Submission{UserID: s.UserID}
	if s.User != nil {
		sub.UserName = s.User.Name
	}
	if sub.UserName == "" {
		sub.UserName = fmt.Sprintf("user_%d", s.UserID)
	}

	for _, v := range s.History {
		ver, err := v.toVersion()
		if err != nil {
			return Submission{}, fmt.Errorf("canvas: submission for user %d: %w", s.UserID, err)
		}
		sub.Versions = append(sub.Versions, ver)
	}

	// The API omits submission_history on some older records; fall back to
	// the submission's own attempt and attachments.
	if len(sub.Versions) == 0 && len(s.Attachments) > 0 {
		ver, err := versionJSON{
			Attempt:     s.Attempt,
			SubmittedAt: s.SubmittedAt,
			Attachments: s.Attachments,
		}.toVersion()
		if err != nil {
			return Submission{}, fmt.Errorf("canvas: submission for user %d: %w", s.UserID, err)
		}
		sub.Versions = append(sub.Versions, ver)
	}

	sort.Slice(sub.Versions, func(i, j int) bool {
		return sub.Versions[i].Attempt < sub.Versions[j].Attempt
	})

	return sub, nil
}

func (v versionJSON) toVersion() (Version, error) {
	ver := Version{Attempt: v.Attempt}
	if ver.Attempt == 0 {
		ver.Attempt = 1
	}
	if v.SubmittedAt != "" {
		t, err := time.Parse(time.RFC3339, v.SubmittedAt)
		if err != nil {
			return Version{}, fmt.Errorf("parse submitted_at %q: %w", v.SubmittedAt, err)
		}
		ver.SubmittedAt = t
	}
	for _, a := range v.Attachments {
		ver.Attachments = append(ver.Attachments, a.toAttachment())
	}
	return ver, nil
}
