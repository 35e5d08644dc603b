package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/noah-isme/attendly-go-api/internal/models"
	"github.com/noah-isme/attendly-go-api/internal/repository"
)

// In-memory repository fakes shared by the service tests. They implement
// just enough of the real behaviour, including the sentinel errors the
// GORM-backed repositories surface.

type fakeAttendanceRepo struct {
	rows   []models.Attendance
	nextID uint
}

func (f *fakeAttendanceRepo) CreateSession(_ context.Context, rows []models.Attendance) error {
	for i := range rows {
		f.nextID++
		rows[i].ID = f.nextID
		f.rows = append(f.rows, rows[i])
	}
	return nil
}

func (f *fakeAttendanceRepo) ListBySession(_ context.Context, sessionID string) ([]models.Attendance, error) {
	var out []models.Attendance
	for _, row := range f.rows {
		if row.SessionID == sessionID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (f *fakeAttendanceRepo) GetByIDs(_ context.Context, ids []uint) ([]models.Attendance, error) {
	wanted := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []models.Attendance
	for _, row := range f.rows {
		if _, ok := wanted[row.ID]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) ApplyStatusUpdates(_ context.Context, updates []repository.StatusUpdate) error {
	for _, update := range updates {
		applied := false
		for i := range f.rows {
			if f.rows[i].ID == update.AttendanceID && !f.rows[i].IsLocked {
				f.rows[i].Status = update.Status
				applied = true
			}
		}
		if !applied {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

func (f *fakeAttendanceRepo) ListSessions(_ context.Context, filter repository.SessionFilter) ([]repository.SessionRow, error) {
	type key struct {
		date, time string
		batch, sub uint
	}
	groups := make(map[key]*repository.SessionRow)
	var order []key
	for _, row := range f.rows {
		if filter.TeacherID != 0 && row.TeacherID != filter.TeacherID {
			continue
		}
		if filter.BatchID != 0 && row.BatchID != filter.BatchID {
			continue
		}
		if filter.SubjectID != 0 && row.SubjectID != filter.SubjectID {
			continue
		}
		if filter.Date != "" && row.Date != filter.Date {
			continue
		}
		k := key{row.Date, row.Time, row.BatchID, row.SubjectID}
		group, ok := groups[k]
		if !ok {
			groups[k] = &repository.SessionRow{
				SessionID: row.SessionID,
				Date:      row.Date,
				Time:      row.Time,
				BatchID:   row.BatchID,
				SubjectID: row.SubjectID,
			}
			group = groups[k]
			order = append(order, k)
		}
		if row.SessionID < group.SessionID {
			group.SessionID = row.SessionID
		}
		group.StudentCount++
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].date != order[j].date {
			return order[i].date > order[j].date
		}
		return order[i].time > order[j].time
	})

	out := make([]repository.SessionRow, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	return out, nil
}

func (f *fakeAttendanceRepo) ListByStudent(_ context.Context, filter repository.HistoryFilter) ([]models.Attendance, int64, error) {
	var matched []models.Attendance
	for _, row := range f.rows {
		if row.StudentID != filter.StudentID {
			continue
		}
		if filter.DateFrom != "" && row.Date < filter.DateFrom {
			continue
		}
		if filter.DateTo != "" && row.Date > filter.DateTo {
			continue
		}
		matched = append(matched, row)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[i].Date > matched[j].Date
		}
		return matched[i].Time > matched[j].Time
	})

	total := int64(len(matched))
	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start >= len(matched) {
			return nil, total, nil
		}
		end := start + filter.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (f *fakeAttendanceRepo) SummaryByStudent(_ context.Context, studentID uint) ([]repository.StatusCount, error) {
	type key struct {
		sub    uint
		status models.AttendanceStatus
	}
	counts := make(map[key]int)
	var order []key
	for _, row := range f.rows {
		if row.StudentID != studentID {
			continue
		}
		k := key{row.SubjectID, row.Status}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	out := make([]repository.StatusCount, 0, len(order))
	for _, k := range order {
		out = append(out, repository.StatusCount{SubjectID: k.sub, Status: k.status, Count: counts[k]})
	}
	return out, nil
}

func (f *fakeAttendanceRepo) SessionForStudentDate(_ context.Context, studentID uint, date string) (string, error) {
	for _, row := range f.rows {
		if row.StudentID == studentID && row.Date == date {
			return row.SessionID, nil
		}
	}
	return "", gorm.ErrRecordNotFound
}

type fakeExceptionRepo struct {
	exceptions []models.AttendanceException
	nextID     uint
	attendance *fakeAttendanceRepo
}

func (f *fakeExceptionRepo) Create(_ context.Context, exception *models.AttendanceException) error {
	f.nextID++
	exception.ID = f.nextID
	f.exceptions = append(f.exceptions, *exception)
	return nil
}

func (f *fakeExceptionRepo) GetByID(_ context.Context, id uint) (models.AttendanceException, error) {
	for _, exception := range f.exceptions {
		if exception.ID == id {
			return exception, nil
		}
	}
	return models.AttendanceException{}, gorm.ErrRecordNotFound
}

func (f *fakeExceptionRepo) List(_ context.Context, filter repository.ExceptionFilter) ([]models.AttendanceException, int64, error) {
	var matched []models.AttendanceException
	for _, exception := range f.exceptions {
		if filter.StudentID != 0 && exception.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && exception.Status != filter.Status {
			continue
		}
		matched = append(matched, exception)
	}
	total := int64(len(matched))
	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start >= len(matched) {
			return nil, total, nil
		}
		end := start + filter.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (f *fakeExceptionRepo) RejectedByDate(_ context.Context, date string) ([]models.AttendanceException, error) {
	var out []models.AttendanceException
	for _, exception := range f.exceptions {
		if exception.Date == date && exception.Status == models.ExceptionStatusRejected {
			out = append(out, exception)
		}
	}
	return out, nil
}

func (f *fakeExceptionRepo) Review(_ context.Context, exception *models.AttendanceException, rowStatus models.AttendanceStatus) error {
	for i := range f.exceptions {
		if f.exceptions[i].ID == exception.ID {
			f.exceptions[i] = *exception
		}
	}
	if exception.SessionID == nil || f.attendance == nil {
		return nil
	}
	for i := range f.attendance.rows {
		row := &f.attendance.rows[i]
		if row.SessionID == *exception.SessionID && row.StudentID == exception.StudentID {
			row.Status = rowStatus
			row.IsLocked = true
		}
	}
	return nil
}

type fakeAbsenceRepo struct {
	records map[uint]*models.AbsenceNotification
}

func newFakeAbsenceRepo() *fakeAbsenceRepo {
	return &fakeAbsenceRepo{records: make(map[uint]*models.AbsenceNotification)}
}

func (f *fakeAbsenceRepo) RecordAbsence(_ context.Context, studentID uint, date string) error {
	record, ok := f.records[studentID]
	if !ok {
		f.records[studentID] = &models.AbsenceNotification{
			StudentID:       studentID,
			ConsecutiveDays: 1,
			LastAbsenceDate: date,
		}
		return nil
	}
	record.ConsecutiveDays++
	record.LastAbsenceDate = date
	record.Notified = false
	return nil
}

func (f *fakeAbsenceRepo) ResetStreak(_ context.Context, studentID uint) error {
	if record, ok := f.records[studentID]; ok {
		record.ConsecutiveDays = 0
	}
	return nil
}

func (f *fakeAbsenceRepo) ListAtRisk(_ context.Context, threshold int) ([]models.AbsenceNotification, error) {
	var out []models.AbsenceNotification
	for _, record := range f.records {
		if record.ConsecutiveDays >= threshold && !record.Notified {
			out = append(out, *record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConsecutiveDays > out[j].ConsecutiveDays })
	return out, nil
}

type fakeStudentRepo struct {
	students map[uint]models.Student
	nextID   uint
}

func newFakeStudentRepo(students ...models.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: make(map[uint]models.Student)}
	for _, student := range students {
		repo.students[student.ID] = student
		if student.ID > repo.nextID {
			repo.nextID = student.ID
		}
	}
	return repo
}

func (f *fakeStudentRepo) List(_ context.Context, filter repository.StudentFilter) ([]models.Student, int64, error) {
	var out []models.Student
	for _, student := range f.students {
		if filter.Active != nil && student.Active != *filter.Active {
			continue
		}
		out = append(out, student)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (f *fakeStudentRepo) GetByID(_ context.Context, id uint) (models.Student, error) {
	if student, ok := f.students[id]; ok {
		return student, nil
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (f *fakeStudentRepo) GetByIDs(_ context.Context, ids []uint) ([]models.Student, error) {
	var out []models.Student
	for _, id := range ids {
		if student, ok := f.students[id]; ok {
			out = append(out, student)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) GetByEmail(_ context.Context, email string) (models.Student, error) {
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, student := range f.students {
		if strings.ToLower(student.Email) == needle {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (f *fakeStudentRepo) Create(_ context.Context, student *models.Student) error {
	f.nextID++
	student.ID = f.nextID
	f.students[student.ID] = *student
	return nil
}

func (f *fakeStudentRepo) Update(_ context.Context, student *models.Student) error {
	if _, ok := f.students[student.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.students[student.ID] = *student
	return nil
}

func (f *fakeStudentRepo) Deactivate(_ context.Context, id uint) error {
	student, ok := f.students[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	student.Active = false
	f.students[id] = student
	return nil
}

type fakeUserRepo struct {
	users map[uint]models.User
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uint]models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) List(_ context.Context, _ repository.UserFilter) ([]models.User, int64, error) {
	var out []models.User
	for _, user := range f.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uint) (models.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, user := range f.users {
		if strings.ToLower(user.Email) == needle {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = uint(len(f.users) + 1)
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) Deactivate(_ context.Context, id uint) error {
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Active = false
	f.users[id] = user
	return nil
}

type fakeBatchRepo struct {
	batches  map[uint]models.Batch
	members  map[uint][]uint
	students *fakeStudentRepo
}

func newFakeBatchRepo(batches ...models.Batch) *fakeBatchRepo {
	repo := &fakeBatchRepo{batches: make(map[uint]models.Batch), members: make(map[uint][]uint)}
	for _, batch := range batches {
		repo.batches[batch.ID] = batch
	}
	return repo
}

func (f *fakeBatchRepo) List(_ context.Context) ([]models.Batch, error) {
	var out []models.Batch
	for _, batch := range f.batches {
		out = append(out, batch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeBatchRepo) GetByID(_ context.Context, id uint) (models.Batch, error) {
	if batch, ok := f.batches[id]; ok {
		return batch, nil
	}
	return models.Batch{}, gorm.ErrRecordNotFound
}

func (f *fakeBatchRepo) GetByName(_ context.Context, name string) (models.Batch, error) {
	for _, batch := range f.batches {
		if batch.Name == name {
			return batch, nil
		}
	}
	return models.Batch{}, gorm.ErrRecordNotFound
}

func (f *fakeBatchRepo) NamesByIDs(_ context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	for _, id := range ids {
		if batch, ok := f.batches[id]; ok {
			names[id] = batch.Name
		}
	}
	return names, nil
}

func (f *fakeBatchRepo) Create(_ context.Context, batch *models.Batch) error {
	batch.ID = uint(len(f.batches) + 1)
	f.batches[batch.ID] = *batch
	return nil
}

func (f *fakeBatchRepo) Update(_ context.Context, batch *models.Batch) error {
	if _, ok := f.batches[batch.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.batches[batch.ID] = *batch
	return nil
}

func (f *fakeBatchRepo) Delete(_ context.Context, id uint) error {
	if _, ok := f.batches[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.batches, id)
	return nil
}

func (f *fakeBatchRepo) AddStudent(_ context.Context, batchID, studentID uint) error {
	for _, existing := range f.members[batchID] {
		if existing == studentID {
			return nil
		}
	}
	f.members[batchID] = append(f.members[batchID], studentID)
	return nil
}

func (f *fakeBatchRepo) RemoveStudent(_ context.Context, batchID, studentID uint) error {
	members := f.members[batchID]
	for i, existing := range members {
		if existing == studentID {
			f.members[batchID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeBatchRepo) AddSubject(_ context.Context, _, _ uint) error    { return nil }
func (f *fakeBatchRepo) RemoveSubject(_ context.Context, _, _ uint) error { return nil }

func (f *fakeBatchRepo) ListStudents(_ context.Context, batchID uint) ([]models.Student, error) {
	var out []models.Student
	if f.students == nil {
		return out, nil
	}
	for _, id := range f.members[batchID] {
		if student, ok := f.students.students[id]; ok {
			out = append(out, student)
		}
	}
	return out, nil
}

type fakeSubjectRepo struct {
	subjects map[uint]models.Subject
}

func newFakeSubjectRepo(subjects ...models.Subject) *fakeSubjectRepo {
	repo := &fakeSubjectRepo{subjects: make(map[uint]models.Subject)}
	for _, subject := range subjects {
		repo.subjects[subject.ID] = subject
	}
	return repo
}

func (f *fakeSubjectRepo) List(_ context.Context) ([]models.Subject, error) {
	var out []models.Subject
	for _, subject := range f.subjects {
		out = append(out, subject)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeSubjectRepo) GetByID(_ context.Context, id uint) (models.Subject, error) {
	if subject, ok := f.subjects[id]; ok {
		return subject, nil
	}
	return models.Subject{}, gorm.ErrRecordNotFound
}

func (f *fakeSubjectRepo) GetByCode(_ context.Context, code string) (models.Subject, error) {
	for _, subject := range f.subjects {
		if subject.Code == code {
			return subject, nil
		}
	}
	return models.Subject{}, gorm.ErrRecordNotFound
}

func (f *fakeSubjectRepo) NamesByIDs(_ context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	for _, id := range ids {
		if subject, ok := f.subjects[id]; ok {
			names[id] = subject.Name
		}
	}
	return names, nil
}

func (f *fakeSubjectRepo) Create(_ context.Context, subject *models.Subject) error {
	subject.ID = uint(len(f.subjects) + 1)
	f.subjects[subject.ID] = *subject
	return nil
}

func (f *fakeSubjectRepo) Update(_ context.Context, subject *models.Subject) error {
	if _, ok := f.subjects[subject.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.subjects[subject.ID] = *subject
	return nil
}

func (f *fakeSubjectRepo) Delete(_ context.Context, id uint) error {
	if _, ok := f.subjects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.subjects, id)
	return nil
}

func (f *fakeSubjectRepo) AddTeacher(_ context.Context, _, _ uint) error    { return nil }
func (f *fakeSubjectRepo) RemoveTeacher(_ context.Context, _, _ uint) error { return nil }

type fakeImportJobRepo struct {
	jobs []models.ImportJob
}

func (f *fakeImportJobRepo) Create(_ context.Context, job *models.ImportJob) error {
	job.ID = uint(len(f.jobs) + 1)
	f.jobs = append(f.jobs, *job)
	return nil
}

// stubMailer records notices and can be told to fail for given recipients.
type stubMailer struct {
	mu        sync.Mutex
	absences  []string
	welcomes  []string
	failFor   map[string]struct{}
	failAll   bool
	failError error
}

func newStubMailer() *stubMailer {
	return &stubMailer{failFor: make(map[string]struct{}), failError: errors.New("smtp unavailable")}
}

func (m *stubMailer) SendAbsenceNotice(_ context.Context, recipient, _, _, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, fail := m.failFor[recipient]; fail || m.failAll {
		return m.failError
	}
	m.absences = append(m.absences, recipient)
	return nil
}

func (m *stubMailer) SendWelcome(_ context.Context, recipient, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, fail := m.failFor[recipient]; fail || m.failAll {
		return m.failError
	}
	m.welcomes = append(m.welcomes, recipient)
	return nil
}

type stubUploader struct {
	url string
	err error
}

func (u *stubUploader) Upload(_ context.Context, _ string, _ io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}
