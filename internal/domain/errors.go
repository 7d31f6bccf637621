package domain

import "errors"

var (
	// ErrHeaderNotFound is returned when a cross-tab sheet has none of the expected header labels
	ErrHeaderNotFound = errors.New("cross-tab header not found")

	// ErrEmptyUpload is returned when an uploaded file has no content
	ErrEmptyUpload = errors.New("empty upload")

	// ErrConversionFailed is returned when the external spreadsheet converter produced no output
	ErrConversionFailed = errors.New("spreadsheet conversion failed")

	// ErrSofficeNotFound is returned when no LibreOffice executable can be resolved
	ErrSofficeNotFound = errors.New("soffice executable not found")

	// ErrDetailNotFound is returned when a dataset detail document reports success=false
	ErrDetailNotFound = errors.New("dataset detail not found")

	// ErrNoURL is returned when a resource has neither a download nor an access URL
	ErrNoURL = errors.New("resource has no url")
)
