/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"libinventory/internal/domain"
	applog "libinventory/internal/log"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// fileIndent keeps the file readable and diff-friendly by hand.
const fileIndent = "    "

// Inventory is the ordered collection of books backed by a single JSON file.
// It is not safe for concurrent use, and two processes sharing a file will
// overwrite each other's changes.
type Inventory struct {
	path  string
	books []domain.Book
	log   *slog.Logger
}

// NewInventory returns an empty inventory bound to path. Call Load to read
// existing records. A nil logger discards records.
func NewInventory(path string, logger *slog.Logger) *Inventory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Inventory{
		path: path,
		log:  applog.WithComponent(logger, "storage").With(slog.String("file", path)),
	}
}

// Path returns the backing file path.
func (inv *Inventory) Path() string { return inv.path }

// Len returns the number of books.
func (inv *Inventory) Len() int { return len(inv.books) }

// Load replaces the in-memory books with the file contents. A missing file
// yields an empty inventory and no error. On a read failure (ErrRead) or
// malformed content (ErrMalformed) the failure is logged and the inventory is
// left empty; a malformed file is first copied aside so the next Save does not
// destroy it.
func (inv *Inventory) Load() error {
	l := applog.WithOperation(inv.log, "load")
	inv.books = nil

	data, err := os.ReadFile(inv.path)
	if errors.Is(err, fs.ErrNotExist) {
		l.Debug("no inventory file, starting empty")
		return nil
	}
	if err != nil {
		l.Error("error loading books", slog.Any("err", err))
		return fmt.Errorf("%w: %w", ErrRead, err)
	}

	books, err := decodeBooks(data)
	if err != nil {
		l.Error("error loading books", slog.Any("err", err))
		if kept, cerr := preserveCorrupt(inv.path); cerr != nil {
			l.Error("could not preserve malformed file", slog.Any("err", cerr))
		} else {
			l.Warn("malformed file preserved", slog.String("copy", kept))
		}
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	inv.books = books
	l.Debug("inventory loaded", slog.Int("books", len(books)))
	return nil
}

// Save rewrites the whole file from the in-memory books. The new content is
// written to a temp file in the same directory, synced, then renamed over the
// target. Failures are logged and returned wrapped in ErrWrite; the in-memory
// state is left as is.
func (inv *Inventory) Save() error {
	l := applog.WithOperation(inv.log, "save")
	if err := inv.save(); err != nil {
		l.Error("error saving books", slog.Any("err", err))
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func (inv *Inventory) save() error {
	if strings.TrimSpace(inv.path) == "" {
		return errors.New("inventory path is empty")
	}
	data, err := encodeBooks(inv.books)
	if err != nil {
		return fmt.Errorf("marshal inventory: %w", err)
	}
	dir := filepath.Dir(inv.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(inv.path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(temp, inv.path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace inventory: %w", err)
	}
	return nil
}

// Add appends b and persists the inventory. An empty status is stored as
// available; any other unknown status is rejected with ErrInvalidStatus. A
// book whose ISBN is already present is rejected with ErrDuplicateISBN and
// nothing changes. If only the save fails, b stays in memory and the ErrWrite
// error is returned.
func (inv *Inventory) Add(b domain.Book) error {
	if b.Status == "" {
		b.Status = domain.StatusAvailable
	}
	if !b.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, b.Status)
	}
	if inv.indexOf(b.ISBN) >= 0 {
		return ErrDuplicateISBN
	}
	inv.books = append(inv.books, b)
	applog.WithOperation(inv.log, "add").Info("added book",
		slog.String("title", b.Title), slog.String("isbn", b.ISBN))
	return inv.Save()
}

// SearchByTitle returns every book whose title contains substr, ignoring
// case, in inventory order. An empty substr matches all books.
func (inv *Inventory) SearchByTitle(substr string) []domain.Book {
	folder := cases.Fold()
	needle := folder.String(norm.NFC.String(substr))
	out := []domain.Book{}
	for _, b := range inv.books {
		if strings.Contains(folder.String(norm.NFC.String(b.Title)), needle) {
			out = append(out, b)
		}
	}
	return out
}

// SearchByISBN returns the first book with exactly this ISBN.
func (inv *Inventory) SearchByISBN(isbn string) (domain.Book, bool) {
	if i := inv.indexOf(isbn); i >= 0 {
		return inv.books[i], true
	}
	return domain.Book{}, false
}

// IssueByISBN marks the book as issued and persists the change. It returns
// ErrNotFound or ErrAlreadyIssued without touching the file.
func (inv *Inventory) IssueByISBN(isbn string) error {
	return inv.transition(isbn, "issue", (*domain.Book).Issue, ErrAlreadyIssued)
}

// ReturnByISBN marks an issued book as available and persists the change. It
// returns ErrNotFound or ErrNotIssued without touching the file.
func (inv *Inventory) ReturnByISBN(isbn string) error {
	return inv.transition(isbn, "return", (*domain.Book).Return, ErrNotIssued)
}

func (inv *Inventory) transition(isbn, op string, apply func(*domain.Book) bool, refused error) error {
	i := inv.indexOf(isbn)
	if i < 0 {
		return ErrNotFound
	}
	if !apply(&inv.books[i]) {
		return refused
	}
	applog.WithOperation(inv.log, op).Info("status changed",
		slog.String("isbn", isbn), slog.String("status", string(inv.books[i].Status)))
	return inv.Save()
}

// Books returns a copy of all books in inventory order.
func (inv *Inventory) Books() []domain.Book {
	out := make([]domain.Book, len(inv.books))
	copy(out, inv.books)
	return out
}

// List returns the display line of every book in inventory order. It is
// empty, never nil, when the inventory has no books.
func (inv *Inventory) List() []string {
	out := make([]string, 0, len(inv.books))
	for _, b := range inv.books {
		out = append(out, b.String())
	}
	return out
}

func (inv *Inventory) indexOf(isbn string) int {
	for i := range inv.books {
		if inv.books[i].ISBN == isbn {
			return i
		}
	}
	return -1
}

func decodeBooks(data []byte) ([]domain.Book, error) {
	if err := validateShape(data); err != nil {
		return nil, err
	}
	var entries []domain.Entry
	if err := codec.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	books := make([]domain.Book, 0, len(entries))
	for _, e := range entries {
		books = append(books, domain.FromEntry(e))
	}
	return books, nil
}

func encodeBooks(books []domain.Book) ([]byte, error) {
	entries := make([]domain.Entry, 0, len(books))
	for _, b := range books {
		entries = append(entries, b.Entry())
	}
	data, err := codec.MarshalIndent(entries, "", fileIndent)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// preserveCorrupt copies a malformed inventory file next to itself with a
// timestamp suffix and returns the copy's path.
func preserveCorrupt(path string) (string, error) {
	dst := fmt.Sprintf("%s.corrupt-%s", path, time.Now().Format("20060102-150405"))
	return dst, copyFile(path, dst)
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
