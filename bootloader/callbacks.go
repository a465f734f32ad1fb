package bootloader

import "time"

// Phases reported through Progress during a flash operation.
const (
	// PhaseErase means flash sectors are being erased.
	PhaseErase = "erasing"

	// PhaseWrite means image data is being written.
	PhaseWrite = "writing"

	// PhaseVerify means the written image is being checked against its CRC.
	PhaseVerify = "verifying"

	// PhaseComplete means the operation finished successfully.
	PhaseComplete = "complete"
)

// Progress contains information about an ongoing flash operation. Passed
// to ProgressCallback as the operation advances.
type Progress struct {
	// Phase is the current operation phase, one of the Phase constants.
	Phase string

	// BytesWritten is the number of image bytes written so far.
	BytesWritten int

	// TotalBytes is the size of the image being flashed.
	TotalBytes int

	// Percentage is the completion percentage of the current phase
	// (0.0 to 100.0).
	Percentage float64

	// ElapsedTime is the time elapsed since the operation started.
	ElapsedTime time.Duration
}

// ProgressCallback is called periodically during flashing to report
// progress. Implementations should return quickly to avoid stalling the
// serial exchange.
//
// Example:
//
//	fl := bootloader.New(dev,
//	    bootloader.WithProgress(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %.1f%%\n", p.Phase, p.Percentage)
//	    }),
//	)
type ProgressCallback func(Progress)

// progressState tracks one flash operation for callback reporting.
type progressState struct {
	started time.Time
	total   int
	written int
}

func newProgressState(total int) *progressState {
	return &progressState{started: time.Now(), total: total}
}

func (ps *progressState) snapshot(phase string, pct float64) Progress {
	return Progress{
		Phase:        phase,
		BytesWritten: ps.written,
		TotalBytes:   ps.total,
		Percentage:   pct,
		ElapsedTime:  time.Since(ps.started),
	}
}
