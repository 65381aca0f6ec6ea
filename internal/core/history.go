package core

import (
	"context"
	"time"
)

// ImportRun is the history entry written after every commit.
type ImportRun struct {
	ID              string          `json:"id"`
	FileName        string          `json:"fileName"`
	Kind            FileKind        `json:"kind"`
	FormatBreakdown FormatBreakdown `json:"formatBreakdown"`
	State           ExecState       `json:"state"`
	Success         int             `json:"success"`
	Failed          int             `json:"failed"`
	Attempts        int             `json:"attempts"`
	DroppedColumns  []Field         `json:"droppedColumns,omitempty"`
	ClientIP        string          `json:"clientIp,omitempty"`
	UserAgent       string          `json:"userAgent,omitempty"`
	StartedAt       time.Time       `json:"startedAt"`
	FinishedAt      time.Time       `json:"finishedAt"`
}

// RunRecorder is implemented by stores that keep import history. A
// FlightStore that also satisfies RunRecorder gets every commit recorded.
type RunRecorder interface {
	RecordImportRun(ctx context.Context, run ImportRun) error
	ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error)
}

// DefaultHistoryLimit bounds History when the caller passes no limit.
const DefaultHistoryLimit = 50

func newImportRun(ctx context.Context, id, fileName string, kind FileKind, report ParseReport, result *ImportResult, started time.Time) ImportRun {
	ip, ua := ClientFromContext(ctx)
	return ImportRun{
		ID:              id,
		FileName:        fileName,
		Kind:            kind,
		FormatBreakdown: report.FormatBreakdown,
		State:           result.State,
		Success:         result.Success,
		Failed:          result.Failed,
		Attempts:        result.Attempts,
		DroppedColumns:  result.DroppedColumns,
		ClientIP:        ip,
		UserAgent:       ua,
		StartedAt:       started.UTC(),
		FinishedAt:      time.Now().UTC(),
	}
}

// recordRun writes the history entry. Failures are logged, never returned.
func (s *Service) recordRun(ctx context.Context, run ImportRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.RecordImportRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("import history not recorded", "import_id", run.ID, "error", err)
	}
}

// History returns the most recent import runs, newest first. Stores without
// history support yield an empty list.
func (s *Service) History(ctx context.Context, limit int) ([]ImportRun, error) {
	if s.runs == nil {
		return []ImportRun{}, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.runs.ListImportRuns(ctx, limit)
}
