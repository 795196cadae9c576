package canvas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListAssignmentsFiltersUnpublishedAndQuizzes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("expected bearer token, got %q", got)
		}
		fmt.Fprint(w, `[
			{"id": 1, "name": "HW1", "published": true, "submission_types": ["online_upload"]},
			{"id": 2, "name": "Draft", "published": false, "submission_types": ["online_upload"]},
			{"id": 3, "name": "Quiz 1", "published": true, "submission_types": ["online_quiz"]}
		]`)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Token: "test-token"})
	assignments, err := client.ListAssignments(context.Background(), "101")
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}

	if len(assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(assignments))
	}
	if assignments[0].ID != 1 || assignments[0].Name != "HW1" {
		t.Errorf("expected HW1 (id 1), got %+v", assignments[0])
	}
}

func TestListAssignmentsPagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("per_page") == "" {
			t.Error("expected per_page parameter")
		}
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s%s?page=2&per_page=100>; rel="next", <%s%s?page=1&per_page=100>; rel="current"`,
				server.URL, r.URL.Path, server.URL, r.URL.Path))
			fmt.Fprint(w, `[{"id": 1, "name": "HW1", "published": true}]`)
		case "2":
			fmt.Fprint(w, `[{"id": 2, "name": "HW2", "published": true}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Token: "tok"})
	assignments, err := client.ListAssignments(context.Background(), "101")
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}

	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignments across pages, got %d", len(assignments))
	}
	if assignments[0].ID != 1 || assignments[1].ID != 2 {
		t.Errorf("expected ids [1 2], got [%d %d]", assignments[0].ID, assignments[1].ID)
	}
}

func TestListAssignmentsUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Token: "bad-token"})
	_, err := client.ListAssignments(context.Background(), "101")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestListAssignmentsMissingName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 7, "published": true}]`)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Token: "tok"})
	_, err := client.ListAssignments(context.Background(), "101")
	if err == nil {
		t.Error("expected error for assignment missing name")
	}
}

func TestListSubmissionsHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		includes := r.URL.Query()["include[]"]
		if len(includes) != 2 {
			t.Errorf("expected 2 include[] values, got %v", includes)
		}
		fmt.Fprint(w, `[{
			"user_id": 555,
			"user": {"id": 555, "name": "Jane Doe"},
			"attempt": 2,
			"submitted_at": "2025-03-02T10:00:00Z",
			"submission_history": [
				{"attempt": 2, "submitted_at": "2025-03-02T10:00:00Z", "attachments": [
					{"id": 21, "filename": "final.pdf", "url": "https://files/21", "content-type": "application/pdf", "size": 2048}
				]},
				{"attempt": 1, "submitted_at": "2025-03-01T10:00:00Z", "attachments": [
					{"id": 11, "filename": "draft.txt", "url": "https://files/11"}
				]}
			]
		}]`)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Token: "tok"})
	subs, err := client.ListSubmissions(context.Background(), "101", 1)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}

	if len(subs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(subs))
	}

	sub := subs[0]
	if sub.UserID != 555 || sub.UserName != "Jane Doe" {
		t.Errorf("expected Jane Doe (555), got %s (%d)", sub.UserName, sub.UserID)
	}
	if len(sub.Versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(sub.Versions))
	}
	// History arrives newest-first; versions are sorted ascending by attempt
	if sub.Versions[0].Attempt != 1 || sub.Versions[1].Attempt != 2 {
		t.Errorf("expected attempts [1 2], got [%d %d]", sub.Versions[0].Attempt, sub.Versions[1].Attempt)
	}

	att := sub.Versions[1].Attachments[0]
	if att.Filename != "final.pdf" || att.ContentType != "application/pdf" || att.Size != 2048 {
		t.Errorf("unexpected attachment: %+v", att)
	}

	want := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	if !sub.Versions[1].SubmittedAt.Equal(want) {
		t.Errorf("expected submitted_at %v, got %v", want, sub.Versions[1].SubmittedAt)
	}
}

func TestListSubmissionsSynthesizesVersion(t *testing.T) {
	// Older records sometimes come back without submission_history; the
	// submission's own attempt and attachments stand in for one version.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{
			"user_id": 700,
			"attempt": 1,
			"submitted_at": "2025-02-01T08:30:00Z",
			"attachments": [{"id": 5, "filename": "essay.docx", "url": "https://files/5"}]
		}]`)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Token: "tok"})
	subs, err := client.ListSubmissions(context.Background(), "101", 1)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}

	if len(subs) != 1 || len(subs[0].Versions) != 1 {
		t.Fatalf("expected 1 submission with 1 synthesized version, got %+v", subs)
	}
	if subs[0].UserName != "user_700" {
		t.Errorf("expected fallback user name user_700, got %q", subs[0].UserName)
	}
	if len(subs[0].Versions[0].Attachments) != 1 {
		t.Errorf("expected 1 attachment in synthesized version")
	}
}

func TestListSubmissionsMissingUserID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"attempt": 1}]`)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Token: "tok"})
	_, err := client.ListSubmissions(context.Background(), "101", 1)
	if err == nil {
		t.Error("expected error for submission missing user_id")
	}
}

func TestFetchAttachment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer token on file fetch, got %q", got)
		}
		w.Write([]byte("file-bytes"))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Token: "tok"})
	body, err := client.FetchAttachment(context.Background(), server.URL+"/files/1")
	if err != nil {
		t.Fatalf("FetchAttachment: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "file-bytes" {
		t.Errorf("expected file-bytes, got %q", data)
	}
}

func TestFetchAttachmentServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Token: "tok"})
	_, err := client.FetchAttachment(context.Background(), server.URL+"/files/1")
	if !errors.Is(err, ErrTransient) {
		t.Errorf("expected ErrTransient, got %v", err)
	}
}

func TestCheckStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{200, nil},
		{201, nil},
		{401, ErrUnauthorized},
		{403, ErrForbidden},
		{404, ErrNotFound},
		{429, ErrTransient},
		{500, ErrTransient},
		{503, ErrTransient},
	}

	for _, tt := range tests {
		err := checkStatusCode(tt.code)
		if tt.want == nil {
			if err != nil {
				t.Errorf("checkStatusCode(%d) = %v, want nil", tt.code, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("checkStatusCode(%d) = %v, want %v", tt.code, err, tt.want)
		}
	}
}

func TestParseNextLink(t *testing.T) {
	tests := []struct {
		header   string
		expected string
	}{
		{`<https://c.edu/api?page=2>; rel="next"`, "https://c.edu/api?page=2"},
		{`<https://c.edu/api?page=1>; rel="current", <https://c.edu/api?page=2>; rel="next"`, "https://c.edu/api?page=2"},
		{`<https://c.edu/api?page=1>; rel="current", <https://c.edu/api?page=1>; rel="last"`, ""},
		{"", ""},
	}

	for _, tt := range tests {
		result := parseNextLink(tt.header)
		if result != tt.expected {
			t.Errorf("parseNextLink(%q) = %q, want %q", tt.header, result, tt.expected)
		}
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(Options{BaseURL: server.URL, Token: "tok"})
	_, err := client.ListAssignments(ctx, "101")
	if err == nil {
		t.Error("expected error due to context cancellation")
	}
}
