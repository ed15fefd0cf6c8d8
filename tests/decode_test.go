package tests_test

import (
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/agar/pkg/agar"

	"github.com/farcloser/drmeter/tests/testutils"
)

func TestDecodeCLI(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "decode without arguments fails",
			Command:     test.Command("decode"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "decode nonexistent file fails",
			Command:     test.Command("decode", "/nonexistent/path/file.flac"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "excellent dynamics decode and report an official DR",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.DynamicsExcellent(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("decode", data.Labels().Get("file"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expectContains("official_dr"),
				}
			},
		},
		{
			Description: "brickwalled audio decodes and reports an official DR",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.DynamicsFucked(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("decode", data.Labels().Get("file"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expectContains("official_dr"),
				}
			},
		},
		{
			Description: "genuine source decodes cleanly at both stream index 0 and json format",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.Genuine16bit44k(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("decode", "--format", "json", "--stream", "0", data.Labels().Get("file"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expectContains("official_dr"),
				}
			},
		},
	}

	testCase.Run(t)
}
