package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadBands Phase = iota
	FetchPreviews
	ImportBands
	ExportBands
)

func (p Phase) String() string {
	switch p {
	case LoadBands:
		return "load_bands"
	case FetchPreviews:
		return "fetch_previews"
	case ImportBands:
		return "import_bands"
	case ExportBands:
		return "export_bands"
	default:
		return ""
	}
}

func loadingBandsUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: LoadBands, Step: 1, Total: 1, Message: "Loading bands..."}
}

func previewFetchedUpdate(step, total int, res WarmResult) ProgressUpdate {
	status := "no preview"
	if res.OK {
		status = "cached"
	}
	return ProgressUpdate{
		Phase:   FetchPreviews,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s: %s", res.URL, status),
		Data:    res,
	}
}

func importRowUpdate(step, total int, res ImportRowResult) ProgressUpdate {
	msg := fmt.Sprintf("%s: %s", res.Name, res.Status)
	if res.Error != nil {
		msg = fmt.Sprintf("%s: %s (%v)", res.Name, res.Status, res.Error)
	}
	return ProgressUpdate{Phase: ImportBands, Step: step, Total: total, Message: msg, Data: res}
}

func exportFileUpdate(step, total int, file ExportFile) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportBands,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Wrote %d bands to %s", file.Count, file.Path),
		Data:    file,
	}
}
