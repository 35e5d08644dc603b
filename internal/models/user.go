package models

import "time"

// Role values recognised by the API. The set is closed; anything else in a
// token is rejected at the middleware boundary.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User represents a staff account (admin or teacher). Identity and
// credentials live with the external auth provider; we only keep the
// subject reference and the role used for authorization.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	AuthSubject string    `gorm:"size:128;index" json:"auth_subject"`
	Role        string    `gorm:"size:32;not null;default:teacher" json:"role"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Subjects []Subject `gorm:"many2many:subject_teachers" json:"-"`
}

// CanTakeAttendance reports whether the user may record a session.
func (u User) CanTakeAttendance() bool {
	return u.Active && (u.Role == RoleTeacher || u.Role == RoleAdmin)
}
