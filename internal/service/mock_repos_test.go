package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"gatepass/backend/internal/model"
	"gatepass/backend/internal/notify"
	"gatepass/backend/internal/repository"
	pkgerrors "gatepass/backend/pkg/errors"
)

// ── 内存存储 ──
// 与数据库相同的语义：条件更新影响 0 行返回 ErrOptimisticLock，
// token 与 visit_logs.visit_request_id 唯一

var errDuplicateKey = errors.New("duplicate key value violates unique constraint")

type memStore struct {
	mu        sync.Mutex
	employees map[string]model.Employee
	visitors  map[string]model.Visitor
	visits    map[string]model.VisitRequest
	logs      map[string]model.VisitLog // key: visit_request_id
	events    []model.VisitStatusEvent

	failWith error // 非 nil 时所有读写返回该错误
}

func newMemStore() *memStore {
	return &memStore{
		employees: make(map[string]model.Employee),
		visitors:  make(map[string]model.Visitor),
		visits:    make(map[string]model.VisitRequest),
		logs:      make(map[string]model.VisitLog),
	}
}

func (s *memStore) repository() *repository.Repository {
	return &repository.Repository{
		Employee:     &mockEmployeeRepo{s},
		Visitor:      &mockVisitorRepo{s},
		VisitRequest: &mockVisitRequestRepo{s},
		VisitLog:     &mockVisitLogRepo{s},
		StatusEvent:  &mockStatusEventRepo{s},
	}
}

// hydrate 模拟 Preload，调用方需持有锁
func (s *memStore) hydrate(v model.VisitRequest) model.VisitRequest {
	v.Visitor, v.Host, v.Log = nil, nil, nil
	if v.VisitorID != nil {
		if visitor, ok := s.visitors[*v.VisitorID]; ok {
			v.Visitor = &visitor
		}
	}
	if host, ok := s.employees[v.HostID]; ok {
		v.Host = &host
	}
	if log, ok := s.logs[v.VisitRequestID]; ok {
		log.Visitor = nil
		if visitor, ok := s.visitors[log.VisitorID]; ok {
			log.Visitor = &visitor
		}
		v.Log = &log
	}
	return v
}

func (s *memStore) visit(id string) model.VisitRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits[id]
}

func (s *memStore) logCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

func (s *memStore) eventsFor(id string) []model.VisitStatusEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.VisitStatusEvent
	for _, e := range s.events {
		if e.VisitRequestID == id {
			out = append(out, e)
		}
	}
	return out
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct{ s *memStore }

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}
	if e, ok := m.s.employees[id]; ok {
		return &e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) Upsert(_ context.Context, employee *model.Employee) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.employees[employee.EmployeeID] = *employee
	return nil
}

// ── Mock VisitorRepository ──

type mockVisitorRepo struct{ s *memStore }

func (m *mockVisitorRepo) Create(_ context.Context, visitor *model.Visitor) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return m.s.failWith
	}
	m.s.visitors[visitor.VisitorID] = *visitor
	return nil
}

func (m *mockVisitorRepo) GetByID(_ context.Context, id string) (*model.Visitor, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}
	if v, ok := m.s.visitors[id]; ok {
		return &v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock VisitRequestRepository ──

type mockVisitRequestRepo struct{ s *memStore }

func (m *mockVisitRequestRepo) Create(_ context.Context, visit *model.VisitRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return m.s.failWith
	}
	for _, v := range m.s.visits {
		if v.Token == visit.Token {
			return errDuplicateKey
		}
	}
	stored := *visit
	stored.Visitor, stored.Host, stored.Log = nil, nil, nil
	m.s.visits[visit.VisitRequestID] = stored
	return nil
}

func (m *mockVisitRequestRepo) GetByID(_ context.Context, id string) (*model.VisitRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}
	v, ok := m.s.visits[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	v = m.s.hydrate(v)
	return &v, nil
}

func (m *mockVisitRequestRepo) GetByToken(_ context.Context, token string) (*model.VisitRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}
	for _, v := range m.s.visits {
		if v.Token == token {
			v = m.s.hydrate(v)
			return &v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVisitRequestRepo) List(_ context.Context, f repository.VisitFilter, offset, limit int) ([]model.VisitRequest, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, 0, m.s.failWith
	}

	var result []model.VisitRequest
	for _, v := range m.s.visits {
		if f.HostID != "" && v.HostID != f.HostID {
			continue
		}
		if f.VisitorID != "" && (v.VisitorID == nil || *v.VisitorID != f.VisitorID) {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, v.Status) {
			continue
		}
		if f.ScheduledFrom != nil && v.ScheduledTime.Before(*f.ScheduledFrom) {
			continue
		}
		if f.ScheduledTo != nil && !v.ScheduledTime.Before(*f.ScheduledTo) {
			continue
		}
		if f.HasVisitor != nil && v.HasVisitor() != *f.HasVisitor {
			continue
		}
		result = append(result, m.s.hydrate(v))
	}

	sort.Slice(result, func(i, j int) bool {
		if f.Descending {
			return result[i].ScheduledTime.After(result[j].ScheduledTime)
		}
		return result[i].ScheduledTime.Before(result[j].ScheduledTime)
	})

	total := int64(len(result))
	if offset > 0 {
		if offset >= len(result) {
			return []model.VisitRequest{}, total, nil
		}
		result = result[offset:]
	}
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, total, nil
}

func (m *mockVisitRequestRepo) UpdateStatus(_ context.Context, id string, from, to model.VisitStatus, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return m.s.failWith
	}
	v, ok := m.s.visits[id]
	if !ok || v.Status != from {
		return pkgerrors.ErrOptimisticLock
	}
	v.Status = to
	v.UpdatedAt = at
	v.Version++
	m.s.visits[id] = v
	return nil
}

func (m *mockVisitRequestRepo) AttachVisitor(_ context.Context, id, visitorID string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return m.s.failWith
	}
	v, ok := m.s.visits[id]
	if !ok || v.HasVisitor() || v.Status != model.VisitStatusPending {
		return pkgerrors.ErrOptimisticLock
	}
	v.VisitorID = &visitorID
	v.UpdatedAt = at
	v.Version++
	m.s.visits[id] = v
	return nil
}

func (m *mockVisitRequestRepo) UpdateDetails(_ context.Context, visit *model.VisitRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return m.s.failWith
	}
	v, ok := m.s.visits[visit.VisitRequestID]
	if !ok || v.Version != visit.Version || v.Status != model.VisitStatusPending {
		return pkgerrors.ErrOptimisticLock
	}
	v.Purpose = visit.Purpose
	v.ScheduledTime = visit.ScheduledTime
	v.UpdatedAt = visit.UpdatedAt
	v.Version++
	m.s.visits[v.VisitRequestID] = v
	visit.Version = v.Version
	return nil
}

func (m *mockVisitRequestRepo) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return 0, m.s.failWith
	}
	var n int64
	for id, v := range m.s.visits {
		if v.Status == model.VisitStatusPending && v.ScheduledTime.Before(now) {
			v.Status = model.VisitStatusExpired
			v.UpdatedAt = now
			v.Version++
			m.s.visits[id] = v
			n++
		}
	}
	return n, nil
}

func (m *mockVisitRequestRepo) CountOverdue(_ context.Context, now time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return 0, m.s.failWith
	}
	var n int64
	for _, v := range m.s.visits {
		if v.Status == model.VisitStatusPending && v.ScheduledTime.Before(now) {
			n++
		}
	}
	return n, nil
}

func containsStatus(list []model.VisitStatus, s model.VisitStatus) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// ── Mock VisitLogRepository ──

type mockVisitLogRepo struct{ s *memStore }

func (m *mockVisitLogRepo) CreateIfAbsent(_ context.Context, log *model.VisitLog) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return false, m.s.failWith
	}
	if _, ok := m.s.logs[log.VisitRequestID]; ok {
		return false, nil
	}
	stored := *log
	stored.Visitor = nil
	m.s.logs[log.VisitRequestID] = stored
	return true, nil
}

func (m *mockVisitLogRepo) GetByVisitRequest(_ context.Context, visitRequestID string) (*model.VisitLog, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}
	if l, ok := m.s.logs[visitRequestID]; ok {
		if visitor, ok := m.s.visitors[l.VisitorID]; ok {
			l.Visitor = &visitor
		}
		return &l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVisitLogRepo) GetOpenByVisitor(_ context.Context, visitorID string) (*model.VisitLog, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}
	var found *model.VisitLog
	for _, l := range m.s.logs {
		if l.VisitorID != visitorID || l.CheckInTime == nil || l.CheckOutTime != nil {
			continue
		}
		if found == nil || l.CheckInTime.Before(*found.CheckInTime) {
			l := l
			found = &l
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

func (m *mockVisitLogRepo) MarkCheckedIn(_ context.Context, visitRequestID string, at time.Time, by, notes string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return m.s.failWith
	}
	l, ok := m.s.logs[visitRequestID]
	if !ok || l.CheckInTime != nil {
		return pkgerrors.ErrOptimisticLock
	}
	l.CheckInTime = &at
	l.CheckedInBy = &by
	if notes != "" {
		l.Notes = notes
	}
	l.UpdatedAt = at
	m.s.logs[visitRequestID] = l
	return nil
}

func (m *mockVisitLogRepo) MarkCheckedOut(_ context.Context, logID string, at time.Time, by, notes string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return m.s.failWith
	}
	for key, l := range m.s.logs {
		if l.VisitLogID != logID {
			continue
		}
		if l.CheckInTime == nil || l.CheckOutTime != nil {
			return pkgerrors.ErrOptimisticLock
		}
		l.CheckOutTime = &at
		l.CheckedOutBy = &by
		l.Notes = notes
		l.UpdatedAt = at
		m.s.logs[key] = l
		return nil
	}
	return pkgerrors.ErrOptimisticLock
}

// ── Mock VisitStatusEventRepository ──

type mockStatusEventRepo struct{ s *memStore }

func (m *mockStatusEventRepo) Create(_ context.Context, event *model.VisitStatusEvent) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return m.s.failWith
	}
	m.s.events = append(m.s.events, *event)
	return nil
}

func (m *mockStatusEventRepo) ListByVisitRequest(_ context.Context, visitRequestID string) ([]model.VisitStatusEvent, error) {
	return m.s.eventsFor(visitRequestID), nil
}

// ── Mock 通知网关 ──

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []notify.Notification
	ctxs  []context.Context
	fail  error
	calls int
}

func (r *recordingNotifier) Send(ctx context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.ctxs = append(r.ctxs, ctx)
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Kind, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Kind)
	}
	return out
}

func (r *recordingNotifier) last() (notify.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return notify.Notification{}, false
	}
	return r.sent[len(r.sent)-1], true
}

// ── Mock 扫描锁 ──

type fakeLocker struct {
	mu    sync.Mutex
	held  bool
	err   error
	tries int
}

func (f *fakeLocker) TryLock(_ context.Context, _ string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tries++
	if f.err != nil {
		return false, f.err
	}
	return !f.held, nil
}

func (f *fakeLocker) attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tries
}
