// Package export renders list pages into files: CSV, JSON and XLSX. Each
// renderer satisfies render.Renderer and is looked up by name.
package export
