/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain defines the book record kept by the inventory and the
// plain entry shape it is persisted as.
package domain

import "fmt"

// Status is the lending state of a book.
type Status string

const (
	StatusAvailable Status = "available"
	StatusIssued    Status = "issued"
)

// Valid reports whether s is one of the two known states.
func (s Status) Valid() bool {
	return s == StatusAvailable || s == StatusIssued
}

// Book is one inventory record. The ISBN identifies it within an inventory.
type Book struct {
	Title  string
	Author string
	ISBN   string
	Status Status
}

// NewBook returns an available book. Field contents are not validated.
func NewBook(title, author, isbn string) Book {
	return Book{Title: title, Author: author, ISBN: isbn, Status: StatusAvailable}
}

// Issue marks the book as issued. It returns false and leaves the book
// unchanged if it was already issued.
func (b *Book) Issue() bool {
	if b.Status != StatusAvailable {
		return false
	}
	b.Status = StatusIssued
	return true
}

// Return marks an issued book as available again. It returns false and leaves
// the book unchanged if it was not issued.
func (b *Book) Return() bool {
	if b.Status != StatusIssued {
		return false
	}
	b.Status = StatusAvailable
	return true
}

func (b Book) IsAvailable() bool { return b.Status == StatusAvailable }

func (b Book) String() string {
	return fmt.Sprintf("%s by %s, ISBN: %s, Status: %s", b.Title, b.Author, b.ISBN, b.Status)
}

// Entry is the persisted form of a Book, one object of the inventory file.
// Status may be absent in hand-written files and then means available.
type Entry struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
	Status Status `json:"status,omitempty" jsonschema:"enum=available,enum=issued"`
}

// Entry maps the book to its persisted form.
func (b Book) Entry() Entry {
	return Entry{Title: b.Title, Author: b.Author, ISBN: b.ISBN, Status: b.Status}
}

// FromEntry rebuilds a Book from its persisted form.
func FromEntry(e Entry) Book {
	st := e.Status
	if st == "" {
		st = StatusAvailable
	}
	return Book{Title: e.Title, Author: e.Author, ISBN: e.ISBN, Status: st}
}
