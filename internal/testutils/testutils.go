//go:build integration

// Package testutils provides shared test infrastructure for integration tests.
package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gocloud.dev/blob"
)

// FixtureAttachment is one downloadable file in a course fixture.
type FixtureAttachment struct {
	ID   int64
	Name string
	Data []byte
}

// FixtureVersion is one submission attempt in a course fixture.
type FixtureVersion struct {
	Attempt     int
	SubmittedAt string
	Attachments []FixtureAttachment
}

// FixtureSubmission is one student's submission in a course fixture.
type FixtureSubmission struct {
	UserID   int64
	UserName string
	Versions []FixtureVersion
}

// FixtureAssignment is one assignment with its submissions.
type FixtureAssignment struct {
	ID          int64
	Name        string
	Published   bool
	Submissions []FixtureSubmission
}

// StartCanvasServer starts a fake Canvas API serving one course. Requests
// must carry the given bearer token; attachment bytes are served under
// /files/<attachment id>.
func StartCanvasServer(t *testing.T, courseID, token string, assignments []FixtureAssignment) *httptest.Server {
	t.Helper()

	files := make(map[string][]byte)
	for _, a := range assignments {
		for _, s := range a.Submissions {
			for _, v := range s.Versions {
				for _, att := range v.Attachments {
					files[fmt.Sprintf("/files/%d", att.ID)] = att.Data
				}
			}
		}
	}

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if data, ok := files[r.URL.Path]; ok {
			w.Write(data)
			return
		}

		if r.URL.Path == fmt.Sprintf("/api/v1/courses/%s/assignments", courseID) {
			writeJSON(t, w, assignmentsJSON(assignments))
			return
		}

		for _, a := range assignments {
			if r.URL.Path == fmt.Sprintf("/api/v1/courses/%s/assignments/%d/submissions", courseID, a.ID) {
				writeJSON(t, w, submissionsJSON(server.URL, a))
				return
			}
		}

		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode fixture: %v", err)
	}
}

func assignmentsJSON(assignments []FixtureAssignment) []map[string]any {
	out := make([]map[string]any, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, map[string]any{
			"id":               a.ID,
			"name":             a.Name,
			"published":        a.Published,
			"submission_types": []string{"online_upload"},
		})
	}
	return out
}

func submissionsJSON(baseURL string, a FixtureAssignment) []map[string]any {
	out := make([]map[string]any, 0, len(a.Submissions))
	for _, s := range a.Submissions {
		history := make([]map[string]any, 0, len(s.Versions))
		for _, v := range s.Versions {
			atts := make([]map[string]any, 0, len(v.Attachments))
			for _, att := range v.Attachments {
				atts = append(atts, map[string]any{
					"id":       att.ID,
					"filename": att.Name,
					"url":      fmt.Sprintf("%s/files/%d", baseURL, att.ID),
				})
			}
			history = append(history, map[string]any{
				"attempt":      v.Attempt,
				"submitted_at": v.SubmittedAt,
				"attachments":  atts,
			})
		}
		out = append(out, map[string]any{
			"user_id":            s.UserID,
			"user":               map[string]any{"id": s.UserID, "name": s.UserName},
			"submission_history": history,
		})
	}
	return out
}

// MinioEnv contains connection information for a Minio test environment.
type MinioEnv struct {
	Container testcontainers.Container
	BucketURL string
}

// Close terminates the Minio container.
func (e *MinioEnv) Close(ctx context.Context) error {
	if e.Container != nil {
		return e.Container.Terminate(ctx)
	}
	return nil
}

// OpenBucket opens a gocloud bucket connection to the Minio environment.
func (e *MinioEnv) OpenBucket(ctx context.Context) (*blob.Bucket, error) {
	return blob.OpenBucket(ctx, e.BucketURL)
}

// StartMinioContainer starts a Minio container with a pre-created bucket.
func StartMinioContainer(t *testing.T, ctx context.Context, bucketName string) *MinioEnv {
	t.Helper()

	const (
		accessKey = "minioadmin"
		secretKey = "minioadmin"
	)

	networkName := fmt.Sprintf("canvasdl-test-net-%d", time.Now().UnixNano())
	network, err := testcontainers.GenericNetwork(ctx, testcontainers.GenericNetworkRequest{
		NetworkRequest: testcontainers.NetworkRequest{Name: networkName},
	})
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	t.Cleanup(func() { network.Remove(ctx) })

	minioReq := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Networks:     []string{networkName},
		NetworkAliases: map[string][]string{
			networkName: {"minio"},
		},
		Env: map[string]string{
			"MINIO_ROOT_USER":     accessKey,
			"MINIO_ROOT_PASSWORD": secretKey,
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/ready").WithPort("9000"),
	}

	minioContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: minioReq,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start minio container: %v", err)
	}

	createBucketWithMC(t, ctx, networkName, accessKey, secretKey, bucketName)

	host, err := minioContainer.Host(ctx)
	if err != nil {
		t.Fatalf("get container host: %v", err)
	}
	port, err := minioContainer.MappedPort(ctx, "9000")
	if err != nil {
		t.Fatalf("get container port: %v", err)
	}

	bucketURL := fmt.Sprintf("s3://%s?endpoint=http://%s:%s&use_path_style=true&disable_https=true&region=us-east-1",
		bucketName, host, port.Port())

	// gocloud reads AWS credentials from the environment
	t.Setenv("AWS_ACCESS_KEY_ID", accessKey)
	t.Setenv("AWS_SECRET_ACCESS_KEY", secretKey)

	return &MinioEnv{
		Container: minioContainer,
		BucketURL: bucketURL,
	}
}

// createBucketWithMC creates a bucket using a one-shot minio/mc container.
func createBucketWithMC(t *testing.T, ctx context.Context, networkName, accessKey, secretKey, bucketName string) {
	t.Helper()

	mcReq := testcontainers.ContainerRequest{
		Image:      "minio/mc:latest",
		Networks:   []string{networkName},
		Entrypoint: []string{"/bin/sh", "-c"},
		Cmd: []string{
			strings.Join([]string{
				fmt.Sprintf("/usr/bin/mc config host add myminio http://minio:9000 %s %s", accessKey, secretKey),
				fmt.Sprintf("/usr/bin/mc mb myminio/%s", bucketName),
				"exit 0",
			}, " && "),
		},
		WaitingFor: wait.ForExit(),
	}

	mcContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: mcReq,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mc container: %v", err)
	}
	defer mcContainer.Terminate(ctx)
}
