//go:build e2e

// Package e2e drives a real Chrome against the playground page.
//
// These tests are isolated from the standard test suite via build tags.
// They require a Chrome browser (auto-downloaded by Rod if not present)
// and are intended for CI pipelines or explicit local testing.
//
// Running E2E tests against the bundled fixture server:
//
//	go test -tags=e2e ./e2e/...
//
// Running them against a live application:
//
//	PLAYGROUND_URL=http://localhost:3000 go test -tags=e2e ./e2e/...
//
// Every test runs once per browser backend (rod and chromedp) and launches
// its own browser instance. The fixture server is shared by the package.
package e2e
