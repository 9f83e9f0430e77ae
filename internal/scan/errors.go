package scan

import "errors"

// Sentinel errors returned by TriggerScan. The gateway maps these onto HTTP
// status codes.
var (
	// ErrRepoNotFound means the repository does not exist.
	ErrRepoNotFound = errors.New("repository not found")
	// ErrForbidden means the requesting user does not own the repository.
	ErrForbidden = errors.New("unauthorized access to repository")
	// ErrScanInProgress means the repository already has an active scan.
	ErrScanInProgress = errors.New("a scan is already running for this repository")
	// ErrTooManyScans means the global concurrency cap is reached.
	ErrTooManyScans = errors.New("maximum number of concurrent scans reached, please try again later")
)

// errNoScannableFiles fails a scan whose repository tree yields nothing to
// analyse. The message is surfaced verbatim in the scan record.
var errNoScannableFiles = errors.New("No scannable files found in repository")
