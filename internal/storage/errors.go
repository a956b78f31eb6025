/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import "errors"

// Lookup and transition outcomes.
var (
	ErrNotFound      = errors.New("book not found")
	ErrDuplicateISBN = errors.New("book with this ISBN already exists")
	ErrAlreadyIssued = errors.New("book is already issued")
	ErrNotIssued     = errors.New("book was not issued")
	ErrInvalidStatus = errors.New("invalid book status")
)

// Persistence failure kinds. Load and Save wrap the underlying cause with one
// of these so callers can match with errors.Is.
var (
	ErrRead      = errors.New("read inventory")
	ErrMalformed = errors.New("malformed inventory")
	ErrWrite     = errors.New("write inventory")
)
