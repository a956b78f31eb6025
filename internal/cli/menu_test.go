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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"libinventory/internal/domain"
	applog "libinventory/internal/log"
	"libinventory/internal/storage"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMenuInventory(t *testing.T) *storage.Inventory {
	t.Helper()
	inv := storage.NewInventory(filepath.Join(t.TempDir(), "books.json"), nil)
	require.NoError(t, inv.Load())
	return inv
}

// TestMenuSessionGolden replays a scripted session covering every menu
// choice and compares the full transcript.
func TestMenuSessionGolden(t *testing.T) {
	input, err := os.ReadFile(filepath.Join("testdata", "menu_session.txt"))
	require.NoError(t, err)

	inv := newMenuInventory(t)
	var out bytes.Buffer
	require.NoError(t, runMenu(inv, bytes.NewReader(input), &out, applog.Discard()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "menu_session", out.Bytes())

	fresh := storage.NewInventory(inv.Path(), nil)
	require.NoError(t, fresh.Load())
	assert.Equal(t, []string{
		"Dune by Herbert, ISBN: 111, Status: available",
		"Emma by Austen, ISBN: 222, Status: available",
	}, fresh.List())
}

func TestMenuEndOfInputExits(t *testing.T) {
	inv := newMenuInventory(t)
	var out bytes.Buffer
	require.NoError(t, runMenu(inv, strings.NewReader("4\n"), &out, applog.Discard()))

	s := out.String()
	assert.Contains(t, s, "Enter your choice (1-7): No books in inventory.\n")
	assert.True(t, strings.HasSuffix(s, "Enter your choice (1-7): \n"+msgGoodbye+"\n"), "got %q", s)
}

func TestMenuEndOfInputMidDialogue(t *testing.T) {
	inv := newMenuInventory(t)
	var out bytes.Buffer
	require.NoError(t, runMenu(inv, strings.NewReader("1\nOnly a title\n"), &out, applog.Discard()))

	assert.True(t, strings.HasSuffix(out.String(), "Enter author: \n"+msgGoodbye+"\n"))
	assert.Equal(t, 0, inv.Len())
}

func TestMenuTrimsInput(t *testing.T) {
	inv := newMenuInventory(t)
	var out bytes.Buffer
	in := " 1 \n  Dune  \n Herbert\n111  \n\t6\n 111 \n7\n"
	require.NoError(t, runMenu(inv, strings.NewReader(in), &out, applog.Discard()))

	b, ok := inv.SearchByISBN("111")
	require.True(t, ok)
	assert.Equal(t, domain.NewBook("Dune", "Herbert", "111"), b)
	assert.Contains(t, out.String(), "Enter ISBN to search: Dune by Herbert, ISBN: 111, Status: available\n")
}

func TestMenuAcceptsLongLines(t *testing.T) {
	inv := newMenuInventory(t)
	title := strings.Repeat("x", 70000)
	var out bytes.Buffer
	in := "1\n" + title + "\nA\n1\n4\n7\n"
	require.NoError(t, runMenu(inv, strings.NewReader(in), &out, applog.Discard()))

	b, ok := inv.SearchByISBN("1")
	require.True(t, ok)
	assert.Equal(t, title, b.Title)
	assert.Contains(t, out.String(), msgAdded)
	assert.True(t, strings.HasSuffix(out.String(), "Enter your choice (1-7): "+msgGoodbye+"\n"))
}

func TestMenuLastLineWithoutNewline(t *testing.T) {
	inv := newMenuInventory(t)
	var out bytes.Buffer
	require.NoError(t, runMenu(inv, strings.NewReader("4\n7"), &out, applog.Discard()))

	assert.True(t, strings.HasSuffix(out.String(), "Enter your choice (1-7): "+msgGoodbye+"\n"))
}

func TestMenuWarnsWhenSaveFails(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	inv := storage.NewInventory(filepath.Join(blocker, "books.json"), nil)

	var out bytes.Buffer
	require.NoError(t, runMenu(inv, strings.NewReader("1\nT\nA\n1\n2\n1\n7\n"), &out, applog.Discard()))

	s := out.String()
	assert.Contains(t, s, msgAdded+"\nWarning: changes could not be saved to ")
	assert.Contains(t, s, msgIssued+"\nWarning: changes could not be saved to ")
	b, _ := inv.SearchByISBN("1")
	assert.Equal(t, domain.StatusIssued, b.Status)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("tty gone") }

func TestMenuReportsReadError(t *testing.T) {
	inv := newMenuInventory(t)
	var out bytes.Buffer
	err := runMenu(inv, failingReader{}, &out, applog.Discard())
	assert.ErrorContains(t, err, "tty gone")
	assert.Contains(t, out.String(), msgGoodbye)
}
