package process

// error_codes.go maps failures to stable support codes.
//
// Every definition run that stops is logged and reported with one of these
// codes, so an operator can search logs and metrics for a class of failure
// without parsing messages.
//
// # Definition Errors (DEF001-DEF099)
//
//	DEF001 - Malformed input: the definitions document is unreadable or not
//	         shaped as {"file_definitions": [...]}
//	DEF002 - Validation: a definition entry is missing or has a bad property
//
// # Parse Errors (PRS001-PRS099)
//
//	PRS001 - Unsupported variant: no parser for the file_type
//	PRS002 - Format mismatch: delimited line has the wrong number of values
//	PRS003 - Out of range: fixed-width field runs past the end of a line
//	PRS004 - Attribute not found: XML record element lacks a field element
//	PRS005 - Malformed document: XML input is not well formed
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Transport: destination unreachable, rejected or unconfirmed
//	EXP002 - Persistence: database, file or object store write failed
//	EXP003 - Unsupported export: unknown export_type or database scheme
//
// # Filesystem Errors (FS001-FS099)
//
//	FS001 - Filesystem: input discovery, read or archive move failed
//
// # Default Error (ERR000)
//
// Fallback when nothing more specific matches. Check the logged error.
//
// # Matching
//
// Kinds are matched with errors.Is against the package sentinels, in catalogue
// order, so wrapped errors classify the same as bare ones. Filesystem errors
// are recognised last because export errors may wrap them.

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/fileripper/internal/definition"
	"github.com/JonMunkholm/fileripper/internal/export"
	"github.com/JonMunkholm/fileripper/internal/record"
)

// ErrorInfo describes a classified failure.
type ErrorInfo struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorKind struct {
	target error
	info   ErrorInfo
}

var errorKinds = []errorKind{
	{definition.ErrMalformedInput, ErrorInfo{Code: "DEF001", Kind: "malformed_input"}},
	{definition.ErrValidation, ErrorInfo{Code: "DEF002", Kind: "validation"}},
	{record.ErrUnsupportedVariant, ErrorInfo{Code: "PRS001", Kind: "unsupported_variant"}},
	{record.ErrFormatMismatch, ErrorInfo{Code: "PRS002", Kind: "format_mismatch"}},
	{record.ErrOutOfRange, ErrorInfo{Code: "PRS003", Kind: "out_of_range"}},
	{record.ErrAttributeNotFound, ErrorInfo{Code: "PRS004", Kind: "attribute_not_found"}},
	{record.ErrMalformedDocument, ErrorInfo{Code: "PRS005", Kind: "malformed_document"}},
	{export.ErrTransport, ErrorInfo{Code: "EXP001", Kind: "transport"}},
	{export.ErrPersistence, ErrorInfo{Code: "EXP002", Kind: "persistence"}},
	{export.ErrUnsupportedExport, ErrorInfo{Code: "EXP003", Kind: "unsupported_export"}},
}

var (
	filesystemInfo = ErrorInfo{Code: "FS001", Kind: "filesystem"}
	defaultInfo    = ErrorInfo{Code: "ERR000", Kind: "unknown"}
)

// Classify returns the support code for err. A nil error has no code.
func Classify(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{}
	}

	info := defaultInfo
	if kind, ok := matchKind(err); ok {
		info = kind
	} else if isFilesystem(err) {
		info = filesystemInfo
	}
	info.Message = err.Error()
	return info
}

func matchKind(err error) (ErrorInfo, bool) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.info, true
		}
	}
	return ErrorInfo{}, false
}

func isFilesystem(err error) bool {
	var pathErr *fs.PathError
	var linkErr *os.LinkError
	return errors.As(err, &pathErr) || errors.As(err, &linkErr) || errors.Is(err, filepath.ErrBadPattern)
}
