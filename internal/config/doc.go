// Package config defines configuration structures for the canvasdl CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (CANVAS_API_URL, CANVAS_API_KEY,
//     CANVAS_COURSE_ID, MAX_WORKERS, INCLUDE_ALL_SUBMISSIONS,
//     EXCLUDED_EXTENSIONS, ...)
//   - YAML configuration file
//
// Precedence is flags over environment over file over defaults; the
// caller builds that chain with [Config.Merge].
package config
