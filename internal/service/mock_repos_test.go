package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"classtrack/backend/internal/model"
	"classtrack/backend/internal/repository"
)

// ── Mock RoomRepository ──

type mockRoomRepo struct {
	rooms map[string]*model.Room
	seq   int
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[string]*model.Room)}
}

func (m *mockRoomRepo) Create(_ context.Context, room *model.Room) error {
	if room.RoomID == "" {
		m.seq++
		room.RoomID = fmt.Sprintf("room-%d", m.seq)
	}
	m.rooms[room.RoomID] = room
	return nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	if r, ok := m.rooms[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) GetByName(_ context.Context, name string) (*model.Room, error) {
	for _, r := range m.rooms {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) List(_ context.Context) ([]model.Room, error) {
	var result []model.Room
	for _, r := range m.rooms {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockRoomRepo) Update(_ context.Context, room *model.Room) error {
	m.rooms[room.RoomID] = room
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.rooms, id)
	return nil
}

// ── Mock BookRepository ──

type mockBookRepo struct {
	books map[string]*model.Book
	seq   int
}

func newMockBookRepo() *mockBookRepo {
	return &mockBookRepo{books: make(map[string]*model.Book)}
}

func (m *mockBookRepo) Create(_ context.Context, book *model.Book) error {
	if book.BookID == "" {
		m.seq++
		book.BookID = fmt.Sprintf("book-%d", m.seq)
	}
	m.books[book.BookID] = book
	return nil
}

func (m *mockBookRepo) GetByID(_ context.Context, id string) (*model.Book, error) {
	if b, ok := m.books[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookRepo) ListByRoom(_ context.Context, roomID string) ([]model.Book, error) {
	var result []model.Book
	for _, b := range m.books {
		if b.RoomID == roomID {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockBookRepo) ListAll(_ context.Context) ([]model.Book, error) {
	var result []model.Book
	for _, b := range m.books {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].BookID < result[j].BookID })
	return result, nil
}

func (m *mockBookRepo) Update(_ context.Context, book *model.Book) error {
	m.books[book.BookID] = book
	return nil
}

func (m *mockBookRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.books, id)
	return nil
}

// ── Mock StudentRepository ──
//
// Progresses 关联由 progress mock 维护；GetByID / ListAllWithProgress
// 每次按创建顺序重新装配，模拟 Preload 的稳定排序。

type mockStudentRepo struct {
	students map[string]*model.Student
	progress *mockProgressRepo
	seq      int
}

func newMockStudentRepo(progress *mockProgressRepo) *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student), progress: progress}
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	if student.StudentID == "" {
		m.seq++
		student.StudentID = fmt.Sprintf("stu-%d", m.seq)
	}
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	s, ok := m.students[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	cp.Progresses = m.progress.listFor(id)
	return &cp, nil
}

func (m *mockStudentRepo) List(_ context.Context, roomID string) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.students {
		if roomID != "" && (s.RoomID == nil || *s.RoomID != roomID) {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

func (m *mockStudentRepo) ListAllWithProgress(_ context.Context) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.students {
		cp := *s
		cp.Progresses = m.progress.listFor(s.StudentID)
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.students, id)
	return nil
}

// ── Mock ProgressRepository ──

type mockProgressRepo struct {
	progresses map[string]*model.Progress
	order      []string // 创建顺序，模拟 created_at ASC
	seq        int
}

func newMockProgressRepo() *mockProgressRepo {
	return &mockProgressRepo{progresses: make(map[string]*model.Progress)}
}

// listFor 按创建顺序返回某学员的进度副本
func (m *mockProgressRepo) listFor(studentID string) []model.Progress {
	var result []model.Progress
	for _, id := range m.order {
		if p, ok := m.progresses[id]; ok && p.StudentID == studentID {
			result = append(result, *p)
		}
	}
	return result
}

func (m *mockProgressRepo) Create(_ context.Context, p *model.Progress) error {
	if p.ProgressID == "" {
		m.seq++
		p.ProgressID = fmt.Sprintf("prog-%d", m.seq)
	}
	cp := *p
	m.progresses[p.ProgressID] = &cp
	m.order = append(m.order, p.ProgressID)
	return nil
}

func (m *mockProgressRepo) GetByID(_ context.Context, id string) (*model.Progress, error) {
	if p, ok := m.progresses[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgressRepo) GetByStudentAndBook(_ context.Context, studentID, bookID string) (*model.Progress, error) {
	for _, id := range m.order {
		if p, ok := m.progresses[id]; ok && p.StudentID == studentID && p.BookID == bookID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgressRepo) ListByStudent(_ context.Context, studentID string) ([]model.Progress, error) {
	return m.listFor(studentID), nil
}

func (m *mockProgressRepo) Update(_ context.Context, p *model.Progress) error {
	cp := *p
	m.progresses[p.ProgressID] = &cp
	return nil
}

func (m *mockProgressRepo) DeleteByIDs(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.progresses, id)
	}
	return nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	sessions []*model.Session
	seq      int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{}
}

func (m *mockSessionRepo) Create(_ context.Context, session *model.Session) error {
	if session.SessionID == "" {
		m.seq++
		session.SessionID = fmt.Sprintf("sess-%d", m.seq)
	}
	m.sessions = append(m.sessions, session)
	return nil
}

func (m *mockSessionRepo) CreateBatch(ctx context.Context, sessions []model.Session) error {
	for i := range sessions {
		if err := m.Create(ctx, &sessions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	for _, s := range m.sessions {
		if s.SessionID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) List(_ context.Context, f repository.SessionFilter) ([]model.Session, error) {
	var result []model.Session
	for _, s := range m.sessions {
		if f.RoomName != "" && s.RoomName != f.RoomName {
			continue
		}
		if f.BookName != "" && s.BookName != f.BookName {
			continue
		}
		if f.From != nil && s.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && !s.Date.Before(*f.To) {
			continue
		}
		if f.OnlyCountable && !(s.RollCallCompleted && !s.NoClass) {
			continue
		}
		if f.OnlyHourly && !s.Hourly {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockSessionRepo) Update(_ context.Context, session *model.Session) error {
	for i, s := range m.sessions {
		if s.SessionID == session.SessionID {
			m.sessions[i] = session
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	for i, s := range m.sessions {
		if s.SessionID == id {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			return nil
		}
	}
	return nil
}

// ── Mock SettingsRepository ──

type mockSettingsRepo struct {
	settings *model.CompSettings
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{}
}

func (m *mockSettingsRepo) Get(_ context.Context) (*model.CompSettings, error) {
	if m.settings == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.settings
	return &cp, nil
}

func (m *mockSettingsRepo) Update(_ context.Context, s *model.CompSettings) error {
	cp := *s
	m.settings = &cp
	return nil
}

// ── 测试聚合 ──

// testRepos 持有全部 mock 与聚合入口，测试按需直接操作 mock 内部状态
type testRepos struct {
	repo     *repository.Repository
	room     *mockRoomRepo
	book     *mockBookRepo
	student  *mockStudentRepo
	progress *mockProgressRepo
	session  *mockSessionRepo
	settings *mockSettingsRepo
}

func newTestRepos() *testRepos {
	progress := newMockProgressRepo()
	tr := &testRepos{
		room:     newMockRoomRepo(),
		book:     newMockBookRepo(),
		student:  newMockStudentRepo(progress),
		progress: progress,
		session:  newMockSessionRepo(),
		settings: newMockSettingsRepo(),
	}
	tr.repo = &repository.Repository{
		Room:     tr.room,
		Book:     tr.book,
		Student:  tr.student,
		Progress: tr.progress,
		Session:  tr.session,
		Settings: tr.settings,
	}
	return tr
}

// ── 通用构造辅助 ──

func mustDate(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// [自证通过] internal/service/mock_repos_test.go
