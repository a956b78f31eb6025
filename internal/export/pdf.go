/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders the inventory into printable documents.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"libinventory/internal/domain"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions controls PDF export behavior.
// Units are millimetres on an A4 portrait page; the built-in Helvetica keeps
// the file small and needs no font embedding.
type PDFOptions struct {
	Title string    // defaults to "Library Inventory"
	Now   time.Time // generation timestamp printed in the header; zero means time.Now()
}

// column widths in mm, summing to the A4 text width with 15mm margins
var (
	pdfHeaders = []string{"Title", "Author", "ISBN", "Status"}
	pdfWidths  = []float64{75, 50, 35, 20}
)

const (
	pdfMargin    = 15.0
	pdfRowHeight = 7.0
)

// ExportInventoryPDF writes books as a table to a single PDF at outPath.
// Missing parent directories are created.
func ExportInventoryPDF(books []domain.Book, outPath string, opt PDFOptions) error {
	if outPath == "" {
		return fmt.Errorf("output path is empty")
	}
	title := opt.Title
	if title == "" {
		title = "Library Inventory"
	}
	now := opt.Now
	if now.IsZero() {
		now = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("libinventory", false)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	// core fonts are cp1252; translate so accented titles survive
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range pdfHeaders {
			pdf.CellFormat(pdfWidths[i], pdfRowHeight, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin + 5)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s - %d book(s), %d issued",
		now.Format("2006-01-02 15:04"), len(books), countIssued(books)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	header()
	if len(books) == 0 {
		pdf.CellFormat(sum(pdfWidths), pdfRowHeight, "No books in inventory.", "1", 1, "C", false, 0, "")
	}
	for _, b := range books {
		cells := []string{b.Title, b.Author, b.ISBN, string(b.Status)}
		for i, c := range cells {
			pdf.CellFormat(pdfWidths[i], pdfRowHeight, fit(pdf, tr(c), pdfWidths[i]), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fit shortens s with an ellipsis until it fits the cell width. s is
// already translated to the single-byte core font encoding, so it is cut by byte.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	const pad = 2.0
	if pdf.GetStringWidth(s) <= width-pad {
		return s
	}
	n := len(s)
	for n > 0 && pdf.GetStringWidth(s[:n]+"...") > width-pad {
		n--
	}
	return s[:n] + "..."
}

func countIssued(books []domain.Book) int {
	n := 0
	for _, b := range books {
		if b.Status == domain.StatusIssued {
			n++
		}
	}
	return n
}

func sum(xs []float64) float64 {
	var t float64
	for _, x := range xs {
		t += x
	}
	return t
}
