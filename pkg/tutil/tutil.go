package tutil

import (
	"os"
	"strings"
	"testing"
)

func IsIntegrationTest() bool {
	testType := os.Getenv("D2_TEST")
	return strings.ToLower(testType) == "integration"
}

// SkipUnlessIntegration skips tests that need a live DHIS2 server.
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if !IsIntegrationTest() {
		t.Skipf("D2_TEST not set to integration")
	}
}
