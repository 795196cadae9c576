// Package progress provides progress reporting for archive runs.
//
// The reporter outputs a periodically refreshed status line with
// written/skipped/failed counts and transfer speed.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    Workers: 10,
//	    Course:  courseID,
//	})
//
//	reporter.Start(totalFiles)
//	defer reporter.Stop()
//
//	// Update as downloads finish
//	reporter.FileWritten(size)
//
// # Output Format
//
//	[canvasdl] Archiving course 10464: 312 files | Workers: 10
//	[canvasdl] Progress: 120/312 files | 117 written | 2 skipped | 1 failed | 10 in-flight | 3.41 MB/s
//	[canvasdl] Done: 305 written | 4 skipped | 3 failed | 1.92 GB total
package progress
