package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"face-attendance/internal/model"
	"face-attendance/internal/repository"
	pkgerrors "face-attendance/pkg/errors"
)

// memStore 内存数据源，所有 mock repo 共享同一把锁，
// 以便条件追加（推进账本版本 + 插入记录）与数据库事务一样原子。
type memStore struct {
	mu        sync.Mutex
	seq       int
	employees map[string]*model.Employee // key: ID
	records   map[string]*model.AttendanceRecord
	settings  map[string]*model.Setting // key: name
	users     map[string]*model.User    // key: ID

	// 以下字段用于注入故障
	appendErr    error
	appendCalls  int
	beforeAppend func() // 在条件判断前调用（不持锁），模拟并发写入
	amendErr     error
	amendCalls   int
}

func newMemStore() *memStore {
	return &memStore{
		employees: make(map[string]*model.Employee),
		records:   make(map[string]*model.AttendanceRecord),
		settings:  make(map[string]*model.Setting),
		users:     make(map[string]*model.User),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%04d", prefix, s.seq)
}

func (s *memStore) repository() *repository.Repository {
	return &repository.Repository{
		Employee:   &mockEmployeeRepo{s},
		Attendance: &mockAttendanceRepo{s},
		Setting:    &mockSettingRepo{s},
		User:       &mockUserRepo{s},
	}
}

func copyEmployee(e *model.Employee) *model.Employee {
	c := *e
	return &c
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct{ s *memStore }

func (m *mockEmployeeRepo) Create(_ context.Context, employee *model.Employee) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, e := range m.s.employees {
		if e.EmployeeID == employee.EmployeeID || e.Email == employee.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if employee.ID == "" {
		employee.ID = m.s.nextID("emp")
	}
	m.s.employees[employee.ID] = copyEmployee(employee)
	return nil
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if e, ok := m.s.employees[id]; ok {
		return copyEmployee(e), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) GetByEmployeeID(_ context.Context, employeeID string) (*model.Employee, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, e := range m.s.employees {
		if e.EmployeeID == employeeID {
			return copyEmployee(e), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) GetByEmail(_ context.Context, email string) (*model.Employee, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, e := range m.s.employees {
		if e.Email == email {
			return copyEmployee(e), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) List(_ context.Context, filter repository.EmployeeFilter, offset, limit int) ([]model.Employee, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []model.Employee
	for _, e := range m.s.employees {
		if filter.Active != nil && e.Active != *filter.Active {
			continue
		}
		if filter.Department != "" && e.Department != filter.Department {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(e.Name+e.EmployeeID+e.Email, filter.Keyword) {
			continue
		}
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EmployeeID < all[j].EmployeeID })

	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockEmployeeRepo) ListActiveWithTemplate(_ context.Context) ([]model.Employee, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.Employee
	for _, e := range m.s.employees {
		if e.Active && e.HasTemplate() {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeID < result[j].EmployeeID })
	return result, nil
}

func (m *mockEmployeeRepo) Update(_ context.Context, employee *model.Employee) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.employees[employee.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Name = employee.Name
	e.Email = employee.Email
	e.Department = employee.Department
	e.Position = employee.Position
	e.Active = employee.Active
	e.UpdatedAt = employee.UpdatedAt
	return nil
}

func (m *mockEmployeeRepo) UpdateTemplate(_ context.Context, id string, template []float32, updatedAt time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.employees[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.SetTemplate(template)
	e.UpdatedAt = updatedAt
	return nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct{ s *memStore }

func (m *mockAttendanceRepo) withEmployee(r *model.AttendanceRecord) model.AttendanceRecord {
	c := *r
	if e, ok := m.s.employees[r.EmployeeRef]; ok {
		c.Employee = copyEmployee(e)
	}
	return c
}

func (m *mockAttendanceRepo) Latest(_ context.Context, employeeRef string) (*model.AttendanceRecord, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var latest *model.AttendanceRecord
	for _, r := range m.s.records {
		if r.EmployeeRef != employeeRef {
			continue
		}
		if latest == nil || latest.Before(r) {
			latest = r
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := *latest
	return &c, nil
}

// bump 条件推进账本版本，调用方需持锁
func (m *mockAttendanceRepo) bump(employeeRef string, expectedVersion int64) error {
	e, ok := m.s.employees[employeeRef]
	if !ok || e.LedgerVersion != expectedVersion {
		return pkgerrors.ErrOptimisticLock
	}
	e.LedgerVersion++
	return nil
}

func (m *mockAttendanceRepo) Append(_ context.Context, record *model.AttendanceRecord, expectedVersion int64) error {
	m.s.mu.Lock()
	hook := m.s.beforeAppend
	m.s.beforeAppend = nil
	m.s.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.appendCalls++
	if m.s.appendErr != nil {
		return m.s.appendErr
	}
	if err := m.bump(record.EmployeeRef, expectedVersion); err != nil {
		return err
	}
	record.Seq = expectedVersion + 1
	if record.ID == "" {
		record.ID = m.s.nextID("rec")
	}
	c := *record
	c.Employee = nil
	m.s.records[record.ID] = &c
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id string) (*model.AttendanceRecord, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := m.withEmployee(r)
	return &c, nil
}

func (m *mockAttendanceRepo) Amend(_ context.Context, record *model.AttendanceRecord, expectedVersion int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.amendCalls++
	if m.s.amendErr != nil {
		return m.s.amendErr
	}
	if _, ok := m.s.records[record.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if err := m.bump(record.EmployeeRef, expectedVersion); err != nil {
		return err
	}
	c := *record
	c.Employee = nil
	m.s.records[record.ID] = &c
	return nil
}

func (m *mockAttendanceRepo) List(_ context.Context, filter repository.AttendanceFilter) ([]model.AttendanceRecord, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.AttendanceRecord
	for _, r := range m.s.records {
		if filter.EmployeeRef != "" && r.EmployeeRef != filter.EmployeeRef {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.Start != nil && r.Timestamp.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && r.Timestamp.After(*filter.End) {
			continue
		}
		result = append(result, m.withEmployee(r))
	}
	sort.Slice(result, func(i, j int) bool {
		if filter.Ascending {
			return result[i].Before(&result[j])
		}
		return result[j].Before(&result[i])
	})
	return result, nil
}

// ── Mock SettingRepository ──

type mockSettingRepo struct{ s *memStore }

func (m *mockSettingRepo) Get(_ context.Context, name string) (*model.Setting, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if st, ok := m.s.settings[name]; ok {
		c := *st
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSettingRepo) List(_ context.Context, category string) ([]model.Setting, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.Setting
	for _, st := range m.s.settings {
		if category == "" || st.Category == category {
			result = append(result, *st)
		}
	}
	return result, nil
}

func (m *mockSettingRepo) Upsert(_ context.Context, setting *model.Setting) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if existing, ok := m.s.settings[setting.Name]; ok {
		existing.Value = setting.Value
		existing.UpdatedAt = setting.UpdatedAt
		existing.UpdatedBy = setting.UpdatedBy
		*setting = *existing
		return nil
	}
	if setting.ID == "" {
		setting.ID = m.s.nextID("set")
	}
	c := *setting
	m.s.settings[setting.Name] = &c
	return nil
}

func (m *mockSettingRepo) InsertIfAbsent(_ context.Context, settings []model.Setting) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var inserted int64
	for i := range settings {
		if _, ok := m.s.settings[settings[i].Name]; ok {
			continue
		}
		c := settings[i]
		c.ID = m.s.nextID("set")
		m.s.settings[c.Name] = &c
		inserted++
	}
	return inserted, nil
}

// ── Mock UserRepository ──

type mockUserRepo struct{ s *memStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == "" {
		user.ID = m.s.nextID("user")
	}
	c := *user
	m.s.users[user.ID] = &c
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if u, ok := m.s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── 测试辅助 ──

// seedEmployee 直接写入一名员工
func seedEmployee(s *memStore, employeeID string, active bool, template []float32) *model.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &model.Employee{
		ID:         s.nextID("emp"),
		EmployeeID: employeeID,
		Name:       "员工" + employeeID,
		Email:      strings.ToLower(employeeID) + "@example.com",
		Department: "研发部",
		Position:   "工程师",
		Active:     active,
	}
	if template != nil {
		e.SetTemplate(template)
	}
	s.employees[e.ID] = e
	return copyEmployee(e)
}

// seedSetting 直接写入一个设置值
func seedSetting(s *memStore, name string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	category := "general"
	if d, ok := lookupDefault(name); ok {
		category = d.Category
	}
	s.settings[name] = &model.Setting{
		ID:       s.nextID("set"),
		Name:     name,
		Category: category,
		Value:    model.MustSettingValue(value),
	}
}

// seedRecord 直接写入一条考勤记录并推进账本版本
func seedRecord(s *memStore, employee *model.Employee, typ model.AttendanceType, ts time.Time) *model.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.employees[employee.ID]
	e.LedgerVersion++
	r := &model.AttendanceRecord{
		ID:                 s.nextID("rec"),
		EmployeeRef:        e.ID,
		Seq:                e.LedgerVersion,
		Type:               typ,
		Timestamp:          ts,
		Location:           "Main Office",
		Verified:           true,
		VerificationMethod: model.VerifyFace,
	}
	s.records[r.ID] = r
	c := *r
	return &c
}

func (s *memStore) recordsOf(employeeRef string) []model.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.AttendanceRecord
	for _, r := range s.records {
		if r.EmployeeRef == employeeRef {
			result = append(result, *r)
		}
	}
	SortRecords(result)
	return result
}
