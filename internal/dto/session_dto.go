package dto

// Pagination carries page metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
}

// SessionListRequest filters the aggregated session listing.
type SessionListRequest struct {
	TeacherID uint
	BatchID   uint
	SubjectID uint
	Date      string `validate:"omitempty,datetime=2006-01-02"`
	Subject   string
	Page      int
	PageSize  int
}

// SessionResponse is one logical session derived from flat attendance rows.
type SessionResponse struct {
	SessionID    string `json:"session_id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	BatchID      uint   `json:"batch_id"`
	BatchName    string `json:"batch_name"`
	SubjectID    uint   `json:"subject_id"`
	SubjectName  string `json:"subject_name"`
	StudentCount int    `json:"student_count"`
}

// SessionListResponse pairs the page of sessions with pagination metadata.
type SessionListResponse struct {
	Items      []SessionResponse `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

// SessionRosterResponse lists the per-student rows of one session.
type SessionRosterResponse struct {
	Session SessionResponse     `json:"session"`
	Rows    []SessionRosterItem `json:"rows"`
}

// SessionRosterItem is one student's mark with the resolved name.
type SessionRosterItem struct {
	AttendanceID uint   `json:"attendance_id"`
	StudentID    uint   `json:"student_id"`
	StudentName  string `json:"student_name"`
	Status       string `json:"status"`
	IsLocked     bool   `json:"is_locked"`
}
