// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simConfig = `
registry {
  timeout = "1s"
}

logging {
  level = "error"
}

simulation {
  set "webservers" {
    index  = 7
    family = ipv4
  }
  set "mail" {
    index  = 8
    family = unspec
  }
  domain_set "ads" {
    index = 3
  }
}
`

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ebtset.hcl")
	require.NoError(t, os.WriteFile(path, []byte(simConfig), 0o644))

	var stdout, stderr bytes.Buffer
	code := run(append([]string{"-config", path, "-simulate"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestParseCommand(t *testing.T) {
	code, out, errOut := runCLI(t, "parse", "--match-set-src", "webservers", "--packets-gt", "100")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "--match-set-src webservers packets-gt 100\n", out)
}

func TestParseCommandMatchSelector(t *testing.T) {
	code, out, errOut := runCLI(t, "parse", "-m", "set-src", "--match-set-src", "webservers")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "--match-set-src webservers\n", out)

	code, out, errOut = runCLI(t, "parse", "--", "--match-set-dst", "webservers", "--bytes-lt", "10")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "--match-set-dst webservers bytes-lt 10\n", out)
}

func TestParseCommandDeprecatedAlias(t *testing.T) {
	code, out, errOut := runCLI(t, "parse", "--set-dst", "webservers")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "--match-set-dst webservers\n", out)
	assert.Contains(t, errOut, "--set-dst option deprecated, please use --match-set-dst",
		"shown even though the config logs only errors")
}

func TestParseFlags(t *testing.T) {
	verbose, rest := parseFlags([]string{"-v", "--", "-m", "dset"})
	assert.True(t, verbose)
	assert.Equal(t, []string{"-m", "dset"}, rest)

	verbose, rest = parseFlags([]string{"--match-set-src", "x", "-v"})
	assert.False(t, verbose)
	assert.Equal(t, []string{"--match-set-src", "x", "-v"}, rest)
}

func TestParseCommandQuotedRule(t *testing.T) {
	code, out, errOut := runCLI(t, "parse", "-v", `--match-dset ads --comment "dns filter"`)
	require.Equal(t, 0, code, errOut)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "--match-dset ads --comment dns filter", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "dset rev 0: 0300"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "comment rev 0: "), lines[2])
}

func TestParseCommandError(t *testing.T) {
	code, _, errOut := runCLI(t, "parse", "--match-set-src", "nosuch")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "[not_found]")
	assert.Contains(t, errOut, "Set nosuch doesn't exist.")

	code, _, errOut = runCLI(t, "parse", "--bytes-eq", "1", "--bytes-gt", "2")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "[usage]")
	assert.Contains(t, errOut, "only one of the --bytes-[eq|lt|gt] is allowed")
}

func TestCompareCommand(t *testing.T) {
	code, out, errOut := runCLI(t, "compare",
		"--match-set-src webservers --comment a",
		"--comment a --match-set-src ! webservers")
	assert.Equal(t, 1, code, errOut)
	assert.Contains(t, out, "-"+"--match-set-src webservers")
	assert.Contains(t, out, "+"+"--match-set-src ! webservers")

	code, out, errOut = runCLI(t, "compare",
		"--match-set-src webservers --packets-eq 1",
		"--match-set-src webservers packets-eq 1")
	assert.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "equal")
}

func TestListAndHelp(t *testing.T) {
	code, out, _ := runCLI(t, "list")
	require.Equal(t, 0, code)
	for _, name := range []string{"set-src", "set-dst", "dset", "comment"} {
		assert.Contains(t, out, name)
	}

	code, out, _ = runCLI(t, "help", "set-dst")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "--match-set-dst name")

	code, _, errOut := runCLI(t, "help", "limit")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `no match named "limit"`)
}

func TestSetsCommand(t *testing.T) {
	code, out, errOut := runCLI(t, "sets")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "webservers")
	assert.Contains(t, out, "sim:ipset")
	assert.Contains(t, out, "ads")
}

func TestMetricsCommand(t *testing.T) {
	code, out, errOut := runCLI(t, "metrics", "--match-set-src", "webservers")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `ebtset_registry_requests_total{op="get_byname_family",protocol="ipset",result="ok"} 1`)
	assert.Contains(t, out, `ebtset_sessions_open{protocol="ipset"} 0`)
	assert.Contains(t, out, "ebtset_rules_parsed_total 1")
}

func TestUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage: ebtset")

	stdout.Reset()
	assert.Equal(t, 0, run([]string{"-h"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "-simulate")

	code, _, errOut := runCLI(t, "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown command: frobnicate")
}
