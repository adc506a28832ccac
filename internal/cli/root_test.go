package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "xtd/internal/db/extractors"
	"xtd/internal/introspect"
)

const shopDoc = `<shop>
  <order id="1" paid="true"><line qty="2">Pen</line><line qty="1">Ink</line></order>
  <order id="2" paid="false"><line qty="5">Pad</line></order>
</shop>`

// execute runs the root command with args and stdin, returning stdout,
// stderr and the exit code.
func execute(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), GetExitCode(err)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "xtd", cmd.Use)
	assert.Contains(t, cmd.Long, "foreign key")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"apply", "verify", "serve"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	for name, short := range map[string]string{"no-attributes": "a", "no-disambiguation": "b", "input": "i", "output": "o"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, short, flag.Shorthand)
	}
	assert.Equal(t, "g", cmd.Flags().Lookup("relations").Shorthand)
	assert.Equal(t, "ddl", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestInferDDL(t *testing.T) {
	out, _, code := execute(t, `<r xmlns="urn:x"><c a="1"/></r>`, "--header", "hdr")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "--hdr\n\n"+
		"CREATE TABLE r(\n  prk_r_id INT PRIMARY KEY,\n  c_id INT\n);\n\n"+
		"CREATE TABLE c(\n  prk_c_id INT PRIMARY KEY,\n  a BIT\n);\n\n", out)
}

func TestInferFilesAndFormats(t *testing.T) {
	in := writeFile(t, "shop.xml", shopDoc)
	outPath := filepath.Join(t.TempDir(), "shop.json")

	_, _, code := execute(t, "", "--input", in, "--output", outPath, "--format", "json", "-g")
	require.Equal(t, ExitSuccess, code)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var s introspect.Schema
	require.NoError(t, json.Unmarshal(data, &s))
	require.Len(t, s.Tables, 3)
	assert.NotEmpty(t, s.Relations)

	out, _, code := execute(t, "", "-i", in, "-g")
	require.Equal(t, ExitSuccess, code)
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<relation to="order" relation_type="N:1" />`)

	out, _, code = execute(t, "", "-i", in, "--dialect", "postgres", "-a")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, `CREATE TABLE "line" ("prk_line_id" INTEGER PRIMARY KEY, "value" TEXT);`)
}

func TestExitCodes(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.xml")
	valid := writeFile(t, "valid.xml", `<shop><order id="3"><line/><line/></order><order/></shop>`)
	wider := writeFile(t, "wider.xml", `<shop><order id="three"><line/><line/></order><order/></shop>`)
	broken := writeFile(t, "broken.xml", `<shop>`)

	var tests = []struct {
		name  string
		stdin string
		args  []string
		code  int
	}{
		{"ok", shopDoc, nil, ExitSuccess},
		{"unknown flag", shopDoc, []string{"--nope"}, ExitOptions},
		{"etc with -b", shopDoc, []string{"--etc", "1", "-b"}, ExitOptions},
		{"negative etc", shopDoc, []string{"--etc=-1"}, ExitOptions},
		{"bad format", shopDoc, []string{"--format", "yaml"}, ExitOptions},
		{"bad log level", shopDoc, []string{"--log-level", "loud"}, ExitOptions},
		{"missing input", "", []string{"--input", missing}, ExitInput},
		{"missing config", shopDoc, []string{"--config", missing}, ExitInput},
		{"output in missing dir", shopDoc, []string{"--output", filepath.Join(missing, "out.sql")}, ExitOutput},
		{"not well-formed", "<shop>", nil, ExitMalformed},
		{"junk after root", "<a/><b/>", nil, ExitMalformed},
		{"collision", `<r line_id="1"><line/></r>`, nil, ExitCollision},
		{"relation conflict", `<a><b><a/></b></a>`, []string{"--etc", "0"}, ExitCollision},
		{"isvalid ok", shopDoc, []string{"--isvalid", valid}, ExitSuccess},
		{"isvalid wider", shopDoc, []string{"--isvalid", wider}, ExitIncompatible},
		{"isvalid missing", shopDoc, []string{"--isvalid", missing}, ExitInput},
		{"isvalid broken", shopDoc, []string{"--isvalid", broken}, ExitMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stderr, code := execute(t, tt.stdin, tt.args...)
			assert.Equal(t, tt.code, code, "stderr: %s", stderr)
			if code != ExitSuccess {
				assert.Empty(t, out, "no partial output")
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	cfg := writeFile(t, "xtd.yaml", "inference:\n  no_attributes: true\n  header: from config\n")

	out, _, code := execute(t, `<r a="1"/>`, "--config", cfg)
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "--from config\n\nCREATE TABLE r(\n  prk_r_id INT PRIMARY KEY\n);\n\n", out)

	// flags win over the file
	out, _, code = execute(t, `<r a="1"/>`, "--config", cfg, "--header", "flag", "-a=false")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "--flag\n\nCREATE TABLE r(\n  prk_r_id INT PRIMARY KEY,\n  a BIT\n);\n\n", out)

	bad := writeFile(t, "bad.yaml", "inference: [")
	_, _, code = execute(t, `<r/>`, "--config", bad)
	assert.Equal(t, ExitOptions, code)
}

func TestLogging(t *testing.T) {
	_, stderr, code := execute(t, shopDoc, "--log-level", "info")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "inferred 3 tables")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitOptions, GetExitCode(assert.AnError))
	assert.Equal(t, 91, GetExitCode(WrapExitError(ExitIncompatible, "x", assert.AnError)))
	assert.Equal(t, "x: "+assert.AnError.Error(), WrapExitError(3, "x", assert.AnError).Error())
	assert.Equal(t, "y", NewExitError(2, "y").Error())
}
