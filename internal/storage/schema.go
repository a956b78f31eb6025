/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"libinventory/internal/domain"

	"github.com/invopop/jsonschema"
	gojsonschema "github.com/xeipuuv/gojsonschema"
)

const schemaDraft = "http://json-schema.org/draft-07/schema#"

// FileSchema returns the JSON Schema of the inventory file: an array of
// domain.Entry objects with no extra keys.
func FileSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	item := r.Reflect(&domain.Entry{})
	item.Version = ""
	return &jsonschema.Schema{
		Version:     schemaDraft,
		Title:       "Library inventory",
		Description: "Book records in insertion order.",
		Type:        "array",
		Items:       item,
	}
}

// SchemaJSON returns FileSchema rendered as indented JSON. The schema type
// carries its own MarshalJSON built on encoding/json.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(FileSchema(), "", "  ")
}

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	b, err := json.Marshal(FileSchema())
	if err != nil {
		return nil, err
	}
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
})

// validateShape checks raw file bytes against the inventory schema.
func validateShape(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return errors.New(strings.Join(msgs, "; "))
}
