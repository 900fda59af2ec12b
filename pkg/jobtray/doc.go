// Package jobtray classifies batch-job notification text into lifecycle
// states and pulls out job identifiers.
//
// Quick start:
//
//	status := jobtray.Classify("Job 4821 failed: OOM")   // jobtray.Failed
//	id, ok := jobtray.ExtractJobID("Job 4821 failed")   // "4821", true
//
//	event := jobtray.NewEvent("Job 4821 finished", "")
//	fmt.Println(event.Status, event.JobID) // finished 4821
//
// Use New with options to change the keyword rules or identifier patterns.
// A Jobtray instance is safe for concurrent use. History is a bounded,
// concurrency-safe event log for callers that keep their own list of
// recent events.
package jobtray
