// Package unfollow drives bulk unfollow runs on a following list
//
// A Controller owns the run lifecycle: it starts and pauses runs, arms
// the self-reload timer and resumes a RUNNING run after the page is
// reloaded. Each run is walked by a Driver, a small state machine that
// scans the rendered rows, scrolls for more and detects the end of the
// list. The Filter decides which rows are candidates and the Executor
// performs the two-step unfollow for each of them, at most once per run
//
// All waiting goes through a Clock so tests can run against FakeClock
// and page.FakePage without a browser
package unfollow
