package core

// error_messages.go maps technical errors to user-facing messages with
// support codes.
//
// # Workbook Errors (LOAD001-LOAD099)
//
//	LOAD001 - Workbook unreadable: the file is not a valid workbook
//	LOAD002 - Sheet missing: the configured sheet is not in the workbook
//	LOAD003 - Column missing: a required coverage column is absent
//	LOAD004 - Invalid number: Reach or AVE holds text
//
// # Query Errors (DATE001, WB001)
//
//	DATE001 - Invalid date: a Date cell does not match "02-Jan-2006 03:04PM"
//	WB001   - Workbook not found: the workbook id is unknown or was removed
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE004 - No file provided
//	FILE005 - Empty file
//
// # Service Errors
//
//	UPL002  - Too many uploads in progress
//	SNAP001 - Snapshots disabled: no database configured
//	SNAP002 - Snapshot not found
//	DB004   - Database connection refused
//	RATE001 - Rate limited
//	ERR000  - Unknown error; check the server log for the technical error
//
// Sentinel errors are matched with errors.Is first, then the error text is
// matched case-insensitively against known patterns (first pattern wins).
// Load errors that match neither fall back to LOAD001.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/coverage/internal/coverage"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgSheetMissing = UserMessage{
		Message: "The sheet was not found in the workbook",
		Action:  "Check the sheet name or upload a workbook containing it",
		Code:    "LOAD002",
	}
	msgColumnMissing = UserMessage{
		Message: "A required coverage column is missing",
		Action:  "Export the report with Date, Headline, Keywords, Source, Influencer, Reach, AVE, Sentiment, Opening Text and Hit Sentence columns",
		Code:    "LOAD003",
	}
	msgInvalidNumber = UserMessage{
		Message: "Reach or AVE contains a value that is not a number",
		Action:  "Remove text from the Reach and AVE columns",
		Code:    "LOAD004",
	}
	msgWorkbookUnreadable = UserMessage{
		Message: "The workbook could not be read",
		Action:  "Upload an .xlsx or .csv coverage export",
		Code:    "LOAD001",
	}
	msgBadDate = UserMessage{
		Message: "A Date value does not match the expected format",
		Action:  "Use dates like 15-Jan-2024 03:45PM",
		Code:    "DATE001",
	}
	msgWorkbookNotFound = UserMessage{
		Message: "Workbook not found",
		Action:  "The workbook may have been removed. Please upload it again",
		Code:    "WB001",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the export into smaller date ranges",
		Code:    "FILE001",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a workbook to upload",
		Code:    "FILE004",
	}
	msgBusy = UserMessage{
		Message: "Too many uploads in progress",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgSnapshotsDisabled = UserMessage{
		Message: "Report snapshots are not enabled",
		Action:  "Configure DATABASE_URL to store snapshots",
		Code:    "SNAP001",
	}
	msgSnapshotNotFound = UserMessage{
		Message: "Snapshot not found",
		Action:  "Verify the snapshot id",
		Code:    "SNAP002",
	}
)

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{coverage.ErrSheetNotFound, msgSheetMissing},
	{coverage.ErrMissingColumn, msgColumnMissing},
	{coverage.ErrInvalidNumber, msgInvalidNumber},
	{coverage.ErrBadDate, msgBadDate},
	{ErrWorkbookNotFound, msgWorkbookNotFound},
	{ErrFileTooLarge, msgTooLarge},
	{ErrNoFile, msgNoFile},
	{ErrTooManyUploads, msgBusy},
	{ErrSnapshotsDisabled, msgSnapshotsDisabled},
	{ErrSnapshotNotFound, msgSnapshotNotFound},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that arrive without a sentinel, such as driver errors.
var errorPatterns = []errorPattern{
	{pattern: "invalid csv", msg: UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with consistent columns",
		Code:    "FILE002",
	}},
	{pattern: "empty file", msg: UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a coverage export with data rows",
		Code:    "FILE005",
	}},
	{pattern: "connection refused", msg: UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{pattern: "rate limit", msg: UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	if errors.Is(err, coverage.ErrLoad) {
		return msgWorkbookUnreadable
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
