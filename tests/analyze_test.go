package tests_test

import (
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/drmeter/tests/testutils"
)

func TestAnalyzeCLI(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "analyze without arguments fails",
			Command:     test.Command("analyze", "--sample-rate", "44100"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "analyze without --sample-rate fails",
			Command:     test.Command("analyze", "-"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "analyze rejects an invalid bit depth",
			Command:     test.Command("analyze", "--sample-rate", "44100", "--bit-depth", "17", "-"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "analyze nonexistent file fails",
			Command:     test.Command("analyze", "--sample-rate", "44100", "/nonexistent/path/file.pcm"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
	}

	testCase.Run(t)
}
