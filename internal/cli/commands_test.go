/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"libinventory/internal/domain"
	"libinventory/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command against an isolated data file and config.
func runCLI(t *testing.T, dir string, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd, a := newRoot()
	defer a.close()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	base := []string{
		"--file", filepath.Join(dir, "books.json"),
		"--config", filepath.Join(dir, "config.yaml"),
		"--log-file", filepath.Join(dir, "library.log"),
	}
	cmd.SetArgs(append(base, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestAddIssueReturnCommands(t *testing.T) {
	dir := t.TempDir()

	out, _, err := runCLI(t, dir, "", "add", "--title", "Dune", "--author", "Herbert", "--isbn", "111")
	require.NoError(t, err)
	assert.Equal(t, msgAdded+"\n", out)

	out, _, err = runCLI(t, dir, "", "add", "--title", "Other", "--isbn", "111")
	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, msgDuplicate+"\n", out)

	out, _, err = runCLI(t, dir, "", "issue", "111")
	require.NoError(t, err)
	assert.Equal(t, msgIssued+"\n", out)

	out, _, err = runCLI(t, dir, "", "issue", "111")
	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, msgAlreadyIssued+"\n", out)

	out, _, err = runCLI(t, dir, "", "return", "111")
	require.NoError(t, err)
	assert.Equal(t, msgReturned+"\n", out)

	out, _, err = runCLI(t, dir, "", "return", "111")
	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, msgNotIssued+"\n", out)

	out, _, err = runCLI(t, dir, "", "return", "404")
	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, msgNotFound+"\n", out)

	logs, err := os.ReadFile(filepath.Join(dir, "library.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logs), "added book")
	assert.Contains(t, string(logs), "level=INFO")
}

func TestListAndSearchCommands(t *testing.T) {
	dir := t.TempDir()

	out, _, err := runCLI(t, dir, "", "list")
	require.NoError(t, err)
	assert.Equal(t, msgEmpty+"\n", out)

	_, _, err = runCLI(t, dir, "", "add", "--title", "War and Peace", "--author", "Tolstoy", "--isbn", "1")
	require.NoError(t, err)
	_, _, err = runCLI(t, dir, "", "add", "--title", "Brave New World", "--author", "Huxley", "--isbn", "2")
	require.NoError(t, err)

	out, _, err = runCLI(t, dir, "", "list")
	require.NoError(t, err)
	assert.Equal(t, "War and Peace by Tolstoy, ISBN: 1, Status: available\nBrave New World by Huxley, ISBN: 2, Status: available\n", out)

	out, _, err = runCLI(t, dir, "", "search", "--title", "WAR")
	require.NoError(t, err)
	assert.Equal(t, "War and Peace by Tolstoy, ISBN: 1, Status: available\n", out)

	out, _, err = runCLI(t, dir, "", "search", "--title", "dune")
	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, msgNoMatches+"\n", out)

	out, _, err = runCLI(t, dir, "", "search", "--isbn", "2")
	require.NoError(t, err)
	assert.Equal(t, "Brave New World by Huxley, ISBN: 2, Status: available\n", out)

	out, _, err = runCLI(t, dir, "", "search", "--isbn", "3")
	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, msgNotFound+"\n", out)

	_, _, err = runCLI(t, dir, "", "search")
	assert.Error(t, err)
	_, _, err = runCLI(t, dir, "", "search", "--title", "a", "--isbn", "1")
	assert.Error(t, err)
}

func TestRootRunsMenu(t *testing.T) {
	dir := t.TempDir()
	out, _, err := runCLI(t, dir, "1\nEmma\nAusten\n222\n7\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Library Inventory Menu:")
	assert.Contains(t, out, msgAdded)
	assert.True(t, strings.HasSuffix(out, msgGoodbye+"\n"))

	out, _, err = runCLI(t, dir, "", "list")
	require.NoError(t, err)
	assert.Equal(t, "Emma by Austen, ISBN: 222, Status: available\n", out)
}

func TestMalformedFileWarnsAndStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.json"), []byte("{broken"), 0o644))

	out, errOut, err := runCLI(t, dir, "", "list")
	require.NoError(t, err)
	assert.Equal(t, msgEmpty+"\n", out)
	assert.Contains(t, errOut, "Warning: malformed inventory")

	matches, _ := filepath.Glob(filepath.Join(dir, "books.json.corrupt-*"))
	assert.Len(t, matches, 1)
}

func TestVerboseLogsToStderr(t *testing.T) {
	dir := t.TempDir()
	_, errOut, err := runCLI(t, dir, "", "--verbose", "add", "--title", "T", "--isbn", "9")
	require.NoError(t, err)
	assert.Contains(t, errOut, "added book")
}

func TestExportPDFCommand(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runCLI(t, dir, "", "add", "--title", "Dune", "--author", "Herbert", "--isbn", "111")
	require.NoError(t, err)

	target := filepath.Join(dir, "out", "inventory.pdf")
	out, _, err := runCLI(t, dir, "", "export", "pdf", target)
	require.NoError(t, err)
	assert.Equal(t, "Exported 1 book(s) to "+target+"\n", out)
	_, err = os.Stat(target)
	assert.NoError(t, err)
}

func TestSchemaCommand(t *testing.T) {
	out, _, err := runCLI(t, t.TempDir(), "", "schema")
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "array", m["type"])
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LIBINV_LOG_LEVEL", "debug")

	out, _, err := runCLI(t, dir, "", "config", "init")
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+filepath.Join(dir, "config.yaml")+"\n", out)

	_, _, err = runCLI(t, dir, "", "config", "init")
	assert.ErrorContains(t, err, "already exists")

	_, _, err = runCLI(t, dir, "", "config", "init", "--force")
	require.NoError(t, err)

	out, _, err = runCLI(t, dir, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "data_file: "+filepath.Join(dir, "books.json"))
	assert.Contains(t, out, "level: debug")
	assert.Contains(t, out, "# logging.level set by LIBINV_LOG_LEVEL")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, t.TempDir(), "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "libinventory "))
}

func TestExecuteClosesLogAfterRejection(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "library.log")
	cmd, a := newRoot()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{
		"--file", filepath.Join(dir, "books.json"),
		"--config", filepath.Join(dir, "config.yaml"),
		"--log-file", logFile,
		"--log-level", "debug",
		"issue", "404",
	})

	assert.Equal(t, 1, execute(cmd, a))
	assert.Equal(t, msgNotFound+"\n", out.String())
	assert.Empty(t, errOut.String())
	assert.Nil(t, a.closeLog, "log sink must be closed")
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "start")
}

func TestCommandsRunUnderCrashHandler(t *testing.T) {
	var handled *storage.Inventory
	var recovered any
	orig := recoverPanic
	recoverPanic = func(inv *storage.Inventory, _ *slog.Logger) {
		if r := recover(); r != nil {
			handled, recovered = inv, r
		}
	}
	t.Cleanup(func() { recoverPanic = orig })

	dir := t.TempDir()
	cmd, a := newRoot()
	defer a.close()
	require.NoError(t, cmd.ParseFlags([]string{
		"--file", filepath.Join(dir, "books.json"),
		"--config", filepath.Join(dir, "config.yaml"),
		"--log-file", "",
	}))

	err := a.withInventory(cmd, func(inv *storage.Inventory) error {
		require.NoError(t, inv.Add(domain.NewBook("Dune", "Herbert", "111")))
		panic("boom")
	})
	require.NoError(t, err)
	assert.Equal(t, "boom", recovered)
	require.NotNil(t, handled)
	assert.Equal(t, filepath.Join(dir, "books.json"), handled.Path())
	assert.Equal(t, 1, handled.Len())
}
