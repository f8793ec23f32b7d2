// Package core provides the service layer for coverage reporting.
//
// It sits between the transports (HTTP handlers and the CLI) and the
// coverage analyzer, and holds no transport-specific code.
//
// # Architecture
//
//   - Service: the workbook registry and the entry point for report building.
//   - Upload limiter: bounds how many workbooks are parsed at once.
//   - Snapshot store: optional PostgreSQL persistence for generated reports.
//
// # Workbooks
//
// Each uploaded workbook is parsed once into a [coverage.Analyzer] and kept
// under a generated id. The workbook named by WORKBOOK_PATH is registered at
// startup under [DefaultWorkbookID]:
//
//	svc := core.NewService(core.Options{Keywords: cfg.KeywordSet()})
//	info, err := svc.OpenWorkbook(ctx, "march.xlsx", file, "Sheet1")
//	report, err := svc.BuildReport(ctx, info.ID, []string{"Delta"})
//
// # Reports
//
// [Service.BuildReport] runs every query for one term list and records the
// charts the analyzer draws. Queries run against the cached sheet, so a
// report never re-reads the workbook.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - LOAD001-LOAD004: Workbook errors (unreadable, sheet, columns, numbers)
//   - FILE001-FILE005: File errors (size, format, empty)
//   - DATE001, WB001: Query errors
//   - SNAP001-SNAP002: Snapshot errors
package core
