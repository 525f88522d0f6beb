package scenario

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTestdataScenariosPass(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	results, err := RunFiles(paths...)
	require.NoError(t, err)
	for _, r := range results {
		require.True(t, r.OK(), r.String())
	}
}

func TestBytesForms(t *testing.T) {
	scripts, err := Load(strings.NewReader(`
name: forms
steps:
  - rx: 0x41
  - rx: "hi"
  - rx: [1, "z", 0xff]
`))
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	steps := scripts[0].Steps
	require.Equal(t, Bytes{0x41}, steps[0].RX)
	require.Equal(t, Bytes("hi"), steps[1].RX)
	require.Equal(t, Bytes{1, 'z', 0xff}, steps[2].RX)
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"empty":         ``,
		"unknown field": "name: x\nsteps:\n  - jump: 1\n",
		"byte range":    "name: x\nsteps:\n  - rx: 256\n",
		"nested list":   "name: x\nsteps:\n  - rx: [[1]]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc))
			require.Error(t, err)
		})
	}
}

func TestRunReportsMismatch(t *testing.T) {
	wire := Bytes("B")
	res := Run(Script{
		Name: "wrong",
		Steps: []Step{
			{RX: Bytes("A"), Shift: 1},
			{Expect: &Expect{Wire: &wire}},
		},
	})
	require.False(t, res.OK())
	require.Len(t, res.Failures, 1)
	require.Contains(t, res.Failures[0], "step 2: wire")
	require.Equal(t, []byte("A"), res.Wire)
}

func TestRunRejectsUnknownPolicy(t *testing.T) {
	res := Run(Script{Name: "bad", Policy: "fifo"})
	require.False(t, res.OK())
}

func TestRunUnknownLineError(t *testing.T) {
	res := Run(Script{Name: "bad", Steps: []Step{{Errors: []string{"gremlins"}}}})
	require.False(t, res.OK())
	require.Contains(t, res.String(), `unknown line error "gremlins"`)
}
