// Package canvas provides a typed client for the Canvas course API.
//
// This package handles:
//   - Bearer-token authentication on every request
//   - Link-header pagination, aggregated into in-memory listings
//   - Strict decoding into Assignment, Submission, Version, and
//     Attachment records that fail fast on missing required fields
//   - An error taxonomy the pipeline dispatches on: ErrUnauthorized,
//     ErrForbidden, ErrNotFound, ErrTransient
//
// The client deliberately does not retry. Rate limits (429) and server
// errors surface as ErrTransient; the caller decides whether that is
// fatal (listing phase) or just recorded (download phase).
//
// # Usage
//
//	client := canvas.NewClient(canvas.Options{
//	    BaseURL: "https://school.instructure.com",
//	    Token:   apiKey,
//	})
//
//	assignments, err := client.ListAssignments(ctx, courseID)
//	subs, err := client.ListSubmissions(ctx, courseID, assignments[0].ID)
//	body, err := client.FetchAttachment(ctx, attachment.URL)
package canvas
