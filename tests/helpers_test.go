package tests_test

import (
	"fmt"
	"strings"

	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"
)

// expectContains returns a comparator verifying the output contains a substring.
func expectContains(substr string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if !strings.Contains(stdout, substr) {
			testing.Log(fmt.Sprintf("expected substring %q not found in output:\n%s", substr, stdout))
			testing.Fail()
		}
	}
}

// expectOfficialDR returns a comparator verifying the printed official_dr value.
func expectOfficialDR(value string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		pattern := fmt.Sprintf("official_dr: %s", value)

		if !strings.Contains(stdout, pattern) {
			testing.Log(fmt.Sprintf("expected %q not found in output:\n%s", pattern, stdout))
			testing.Fail()
		}
	}
}
