// ABOUTME: Test entry point for the chat package
// ABOUTME: Fails the run if any test leaks a goroutine
package chat

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
