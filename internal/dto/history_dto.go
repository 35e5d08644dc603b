package dto

// HistoryRequest filters a student's own attendance history.
type HistoryRequest struct {
	StudentID uint
	DateFrom  string `validate:"omitempty,datetime=2006-01-02"`
	DateTo    string `validate:"omitempty,datetime=2006-01-02"`
	Page      int
	PageSize  int
}

// HistoryItem is one attendance row enriched with resolved names.
type HistoryItem struct {
	AttendanceID uint   `json:"attendance_id"`
	SessionID    string `json:"session_id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Status       string `json:"status"`
	IsLocked     bool   `json:"is_locked"`
	SubjectID    uint   `json:"subject_id"`
	SubjectName  string `json:"subject_name"`
	BatchID      uint   `json:"batch_id"`
	BatchName    string `json:"batch_name"`
}

// HistoryResponse pairs a page of history items with pagination metadata.
type HistoryResponse struct {
	Items      []HistoryItem `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// SubjectSummary aggregates one subject's attendance counts for a student.
type SubjectSummary struct {
	SubjectID   uint    `json:"subject_id"`
	SubjectName string  `json:"subject_name"`
	Present     int     `json:"present"`
	Absent      int     `json:"absent"`
	Late        int     `json:"late"`
	Total       int     `json:"total"`
	Percent     float64 `json:"percent"`
}

// SummaryResponse is a student's aggregated attendance overview.
type SummaryResponse struct {
	Subjects []SubjectSummary `json:"subjects"`
	Overall  SubjectSummary   `json:"overall"`
}
