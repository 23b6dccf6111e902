// Package errors provides the structured error type shared by the merge
// pipeline, the linker and the site writer.
//
// Every error raised while merging a page carries the page identifier, the
// offending project and, when available, a compact JSON snapshot of the
// fragment that triggered it, so the bad source file can be located without
// re-running the build.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeMerge    ErrorType = "merge"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeRender   ErrorType = "render"
	ErrorTypeInternal ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeMissingName        = "ERR_MISSING_NAME"
	ErrCodeMissingField       = "ERR_MISSING_FIELD"
	ErrCodeNoContributor      = "ERR_NO_CONTRIBUTOR"
	ErrCodeDuplicateName      = "ERR_DUPLICATE_NAME"
	ErrCodeUnreadablePage     = "ERR_UNREADABLE_PAGE"
	ErrCodeMissingProject     = "ERR_MISSING_PROJECT"
	ErrCodeUnreadableConfig   = "ERR_UNREADABLE_CONFIG"
	ErrCodeUnreadableHomepage = "ERR_UNREADABLE_HOMEPAGE"
	ErrCodeManifestInvalid    = "ERR_MANIFEST_INVALID"
	ErrCodeConfigInvalid      = "ERR_CONFIG_INVALID"
	ErrCodeRenderFailed       = "ERR_RENDER_FAILED"
	ErrCodeWriteFailed        = "ERR_WRITE_FAILED"
	ErrCodeInternalError      = "ERR_INTERNAL"
)

// Sentinels for errors.Is comparisons. Only Type and Code take part in the match.
var (
	ErrMissingName    = &DocError{Type: ErrorTypeMerge, Code: ErrCodeMissingName}
	ErrMissingField   = &DocError{Type: ErrorTypeMerge, Code: ErrCodeMissingField}
	ErrNoContributor  = &DocError{Type: ErrorTypeMerge, Code: ErrCodeNoContributor}
	ErrDuplicateName  = &DocError{Type: ErrorTypeMerge, Code: ErrCodeDuplicateName}
	ErrUnreadablePage = &DocError{Type: ErrorTypeIO, Code: ErrCodeUnreadablePage}
	ErrMissingProject = &DocError{Type: ErrorTypeIO, Code: ErrCodeMissingProject}
)

// DocError is a structured error type with page and project context.
type DocError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	Context  map[string]interface{}
	Page     string
	Project  string
	FilePath string
	// Snapshot is the serialized fragment that caused the error, if any.
	Snapshot string
}

// Error implements the error interface.
func (e *DocError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Page != "" {
		parts = append(parts, "page:"+e.Page)
	}
	if e.Project != "" {
		parts = append(parts, "project:"+e.Project)
	}
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Snapshot != "" {
		result += " Raw output: " + e.Snapshot
	}
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *DocError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *DocError) Is(target error) bool {
	var t *DocError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *DocError) WithContext(key string, value interface{}) *DocError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPage sets the page identifier the error belongs to.
func (e *DocError) WithPage(page string) *DocError {
	e.Page = page

	return e
}

// WithProject sets the project that contributed the offending fragment.
func (e *DocError) WithProject(project string) *DocError {
	e.Project = project

	return e
}

// WithFile records the source file path.
func (e *DocError) WithFile(path string) *DocError {
	e.FilePath = path

	return e
}

// WithCause sets the underlying error.
func (e *DocError) WithCause(cause error) *DocError {
	e.Cause = cause

	return e
}

// WithSnapshot attaches the serialized offending fragment.
func (e *DocError) WithSnapshot(snapshot string) *DocError {
	e.Snapshot = snapshot

	return e
}

// Error creation functions

// NewMergeError creates a merge error. Merge errors abort the page being merged.
func NewMergeError(code, message string) *DocError {
	return &DocError{
		Type:    ErrorTypeMerge,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *DocError {
	return &DocError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *DocError {
	return &DocError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewRenderError creates a rendering error.
func NewRenderError(code, message string, cause error) *DocError {
	return &DocError{
		Type:    ErrorTypeRender,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *DocError {
	return &DocError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsMergeError checks if an error was raised by the merge pipeline.
func IsMergeError(err error) bool {
	var de *DocError
	if errors.As(err, &de) {
		return de.Type == ErrorTypeMerge
	}

	return false
}

// IsIOError checks if an error is I/O related.
func IsIOError(err error) bool {
	var de *DocError
	if errors.As(err, &de) {
		return de.Type == ErrorTypeIO
	}

	return false
}

// PageOf returns the page identifier recorded on err, or "".
func PageOf(err error) string {
	var de *DocError
	if errors.As(err, &de) {
		return de.Page
	}

	return ""
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level chosen from its type.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var de *DocError
	if !errors.As(err, &de) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch de.Type {
	case ErrorTypeMerge:
		h.logger.Warn(ctx, err, "Page merge failed",
			"type", de.Type,
			"code", de.Code,
			"page", de.Page,
			"project", de.Project)
	case ErrorTypeIO:
		h.logger.Error(ctx, err, "I/O error occurred",
			"type", de.Type,
			"code", de.Code,
			"file", de.FilePath)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", de.Type,
			"code", de.Code)
	}
}
