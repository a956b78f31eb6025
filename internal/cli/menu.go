/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"libinventory/internal/domain"
	applog "libinventory/internal/log"
	"libinventory/internal/storage"
)

// User-facing messages shared by the menu and the one-shot commands.
const (
	msgAdded         = "Book added successfully."
	msgDuplicate     = "Error: Book with this ISBN already exists."
	msgNotFound      = "Book not found."
	msgIssued        = "Book issued successfully."
	msgAlreadyIssued = "Book is already issued."
	msgReturned      = "Book returned successfully."
	msgNotIssued     = "Book was not issued."
	msgEmpty         = "No books in inventory."
	msgNoMatches     = "No matching books found."
	msgGoodbye       = "Exiting library inventory manager. Goodbye!"
	msgInvalidChoice = "Invalid choice. Please enter a number from 1 to 7."
)

var menuLines = []string{
	"1. Add Book",
	"2. Issue Book",
	"3. Return Book",
	"4. View All Books",
	"5. Search by Title",
	"6. Search by ISBN",
	"7. Exit",
}

// menu is the interactive prompt loop. It owns no state besides the
// inventory it drives; every answer is read as one trimmed line.
type menu struct {
	inv *storage.Inventory
	in  *bufio.Reader
	out io.Writer
	log *slog.Logger
	err error
}

func newMenu(inv *storage.Inventory, r io.Reader, w io.Writer, logger *slog.Logger) *menu {
	return &menu{
		inv: inv,
		in:  bufio.NewReader(r),
		out: w,
		log: applog.WithComponent(logger, "menu"),
	}
}

// run loops until the user picks Exit or input ends.
func (m *menu) run() error {
	for {
		fmt.Fprintln(m.out, "\nLibrary Inventory Menu:")
		for _, line := range menuLines {
			fmt.Fprintln(m.out, line)
		}
		choice, ok := m.prompt("Enter your choice (1-7): ")
		if !ok {
			return m.quit()
		}
		m.log.Debug("menu choice", slog.String("choice", choice))

		var done bool
		switch choice {
		case "1":
			done = m.add()
		case "2":
			done = m.issue()
		case "3":
			done = m.giveBack()
		case "4":
			writeList(m.out, m.inv.List(), msgEmpty)
		case "5":
			done = m.searchTitle()
		case "6":
			done = m.searchISBN()
		case "7":
			fmt.Fprintln(m.out, msgGoodbye)
			return nil
		default:
			fmt.Fprintln(m.out, msgInvalidChoice)
		}
		if done {
			return m.quit()
		}
	}
}

// prompt prints label and reads one line of any length. ok is false once
// input is exhausted; a final line without newline still counts.
func (m *menu) prompt(label string) (answer string, ok bool) {
	fmt.Fprint(m.out, label)
	line, err := m.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			m.err = err
		}
		if line == "" || m.err != nil {
			return "", false
		}
	}
	return strings.TrimSpace(line), true
}

// quit handles end of input like the Exit choice.
func (m *menu) quit() error {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, msgGoodbye)
	return m.err
}

// The action methods below return true when input ended mid-dialogue.

func (m *menu) add() bool {
	title, ok := m.prompt("Enter title: ")
	if !ok {
		return true
	}
	author, ok := m.prompt("Enter author: ")
	if !ok {
		return true
	}
	isbn, ok := m.prompt("Enter ISBN: ")
	if !ok {
		return true
	}
	reportAdd(m.out, m.inv, domain.NewBook(title, author, isbn))
	return false
}

func (m *menu) issue() bool {
	isbn, ok := m.prompt("Enter ISBN of book to issue: ")
	if !ok {
		return true
	}
	reportTransition(m.out, m.inv, m.inv.IssueByISBN(isbn), msgIssued)
	return false
}

func (m *menu) giveBack() bool {
	isbn, ok := m.prompt("Enter ISBN of book to return: ")
	if !ok {
		return true
	}
	reportTransition(m.out, m.inv, m.inv.ReturnByISBN(isbn), msgReturned)
	return false
}

func (m *menu) searchTitle() bool {
	title, ok := m.prompt("Enter title to search: ")
	if !ok {
		return true
	}
	writeList(m.out, render(m.inv.SearchByTitle(title)), msgNoMatches)
	return false
}

func (m *menu) searchISBN() bool {
	isbn, ok := m.prompt("Enter ISBN to search: ")
	if !ok {
		return true
	}
	if b, found := m.inv.SearchByISBN(isbn); found {
		fmt.Fprintln(m.out, b)
	} else {
		fmt.Fprintln(m.out, msgNotFound)
	}
	return false
}

// reportAdd adds b and prints the outcome. It reports whether the book was
// accepted.
func reportAdd(w io.Writer, inv *storage.Inventory, b domain.Book) bool {
	err := inv.Add(b)
	switch {
	case errors.Is(err, storage.ErrDuplicateISBN):
		fmt.Fprintln(w, msgDuplicate)
		return false
	case errors.Is(err, storage.ErrInvalidStatus):
		fmt.Fprintln(w, "Error:", err)
		return false
	case err != nil:
		fmt.Fprintln(w, msgAdded)
		warnUnsaved(w, inv)
	default:
		fmt.Fprintln(w, msgAdded)
	}
	return true
}

// reportTransition prints the outcome of an issue or return. It reports
// whether the status changed.
func reportTransition(w io.Writer, inv *storage.Inventory, err error, success string) bool {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fmt.Fprintln(w, msgNotFound)
	case errors.Is(err, storage.ErrAlreadyIssued):
		fmt.Fprintln(w, msgAlreadyIssued)
	case errors.Is(err, storage.ErrNotIssued):
		fmt.Fprintln(w, msgNotIssued)
	case err != nil:
		fmt.Fprintln(w, success)
		warnUnsaved(w, inv)
		return true
	default:
		fmt.Fprintln(w, success)
		return true
	}
	return false
}

func warnUnsaved(w io.Writer, inv *storage.Inventory) {
	fmt.Fprintf(w, "Warning: changes could not be saved to %s.\n", inv.Path())
}

func writeList(w io.Writer, lines []string, empty string) {
	if len(lines) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

func render(books []domain.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.String())
	}
	return out
}
