package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"procureflow-data/internal/auth"
	"procureflow-data/internal/domain"
	"procureflow-data/internal/repository"
	"procureflow-data/internal/store"
)

// ============================================
// 测试替身（内存实现）
// ============================================

type fakeVerifier struct{}

func (fakeVerifier) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }
func (fakeVerifier) Verify(plaintext, digest string) bool  { return digest == "hashed:"+plaintext }
func (fakeVerifier) Issue(userID string) (string, error)   { return "token-" + userID, nil }
func (fakeVerifier) Validate(token string) (*auth.Claims, error) {
	return &auth.Claims{UserID: strings.TrimPrefix(token, "token-")}, nil
}

type fakeUsersRepo struct {
	users   map[string]*domain.User // keyed by user_id
	taken   map[string]bool         // email/phone 占用表
	nextID  int
	created []*domain.User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*domain.User{}, taken: map[string]bool{}}
}

func (f *fakeUsersRepo) add(user *domain.User) *domain.User {
	f.users[user.UserID] = user
	if user.Email != "" {
		f.taken[strings.ToLower(user.Email)] = true
	}
	if user.Phone != "" {
		f.taken[user.Phone] = true
	}
	return user
}

func (f *fakeUsersRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	if user, ok := f.users[userID]; ok && !user.IsDeleted {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsersRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) && !user.IsDeleted {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsersRepo) GetUserByPhone(_ context.Context, phone string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Phone == phone && !user.IsDeleted {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsersRepo) ExistsByEmailOrPhone(_ context.Context, email, phone string) (bool, error) {
	return f.taken[strings.ToLower(email)] || (phone != "" && f.taken[phone]), nil
}

func (f *fakeUsersRepo) ExistsByRole(_ context.Context, role domain.Role) (bool, error) {
	for _, user := range f.users {
		if user.Role == role && !user.IsDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsersRepo) ExistsByIDAndRole(_ context.Context, userID string, role domain.Role) (bool, error) {
	user, ok := f.users[userID]
	return ok && !user.IsDeleted && user.Role == role, nil
}

func (f *fakeUsersRepo) CreateUser(_ context.Context, user *domain.User) (string, error) {
	f.nextID++
	user.UserID = fmt.Sprintf("user-%d", f.nextID)
	f.add(user)
	f.created = append(f.created, user)
	return user.UserID, nil
}

func (f *fakeUsersRepo) SetProcurementManager(_ context.Context, userID string, managerID sql.NullString) error {
	user, ok := f.users[userID]
	if !ok || user.IsDeleted {
		return sql.ErrNoRows
	}
	user.ProcurementManagerID = managerID
	return nil
}

func (f *fakeUsersRepo) ListUsers(_ context.Context, filters repository.UserFilters) ([]*domain.User, error) {
	var out []*domain.User
	for _, user := range f.users {
		if user.IsDeleted {
			continue
		}
		if filters.Role != 0 && user.Role != filters.Role {
			continue
		}
		if filters.ProcurementManagerID != "" &&
			(!user.ProcurementManagerID.Valid || user.ProcurementManagerID.String != filters.ProcurementManagerID) {
			continue
		}
		out = append(out, user)
	}
	return out, nil
}

var _ repository.UsersRepository = (*fakeUsersRepo)(nil)

type fakeChecklistsRepo struct {
	checklists      map[string]*domain.Checklist
	versions        map[string]map[int]*domain.ChecklistVersion
	nextID          int
	getVersionCalls int
}

func newFakeChecklistsRepo() *fakeChecklistsRepo {
	return &fakeChecklistsRepo{
		checklists: map[string]*domain.Checklist{},
		versions:   map[string]map[int]*domain.ChecklistVersion{},
	}
}

func (f *fakeChecklistsRepo) CreateChecklist(_ context.Context, checklist *domain.Checklist) (string, error) {
	f.nextID++
	checklist.ChecklistID = fmt.Sprintf("cl-%d", f.nextID)
	checklist.Version = 1
	f.checklists[checklist.ChecklistID] = checklist
	return checklist.ChecklistID, nil
}

func (f *fakeChecklistsRepo) GetChecklist(_ context.Context, checklistID string) (*domain.Checklist, error) {
	checklist, ok := f.checklists[checklistID]
	if !ok || checklist.IsDeleted {
		return nil, sql.ErrNoRows
	}
	copied := *checklist
	return &copied, nil
}

func (f *fakeChecklistsRepo) ExistsOwned(_ context.Context, clientID, checklistID string) (bool, error) {
	checklist, ok := f.checklists[checklistID]
	return ok && !checklist.IsDeleted && checklist.ClientID == clientID, nil
}

func (f *fakeChecklistsRepo) UpdateWithArchive(_ context.Context, checklistID, title string, questions []domain.Question, updatedBy string) (*domain.Checklist, error) {
	checklist, ok := f.checklists[checklistID]
	if !ok || checklist.IsDeleted {
		return nil, sql.ErrNoRows
	}
	if f.versions[checklistID] == nil {
		f.versions[checklistID] = map[int]*domain.ChecklistVersion{}
	}
	f.versions[checklistID][checklist.Version] = &domain.ChecklistVersion{
		VersionID:   fmt.Sprintf("ver-%s-%d", checklistID, checklist.Version),
		ChecklistID: checklistID,
		Version:     checklist.Version,
		Questions:   checklist.Questions,
		CreatedBy:   updatedBy,
		CreatedAt:   time.Now(),
	}
	checklist.Title = title
	checklist.Questions = questions
	checklist.Version++
	copied := *checklist
	return &copied, nil
}

func (f *fakeChecklistsRepo) GetVersion(_ context.Context, checklistID string, version int) (*domain.ChecklistVersion, error) {
	f.getVersionCalls++
	if cv, ok := f.versions[checklistID][version]; ok {
		return cv, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeChecklistsRepo) ListChecklists(_ context.Context, filters repository.ChecklistFilters, page, size int) ([]*domain.Checklist, int, error) {
	var out []*domain.Checklist
	for _, checklist := range f.checklists {
		if checklist.IsDeleted {
			continue
		}
		if filters.ClientID != "" && checklist.ClientID != filters.ClientID {
			continue
		}
		out = append(out, checklist)
	}
	return out, len(out), nil
}

var _ repository.ChecklistsRepository = (*fakeChecklistsRepo)(nil)

type fakeOrdersRepo struct {
	orders  map[string]*domain.Order
	answers map[string]*domain.OrderChecklistAnswer
	nextID  int
}

func newFakeOrdersRepo() *fakeOrdersRepo {
	return &fakeOrdersRepo{
		orders:  map[string]*domain.Order{},
		answers: map[string]*domain.OrderChecklistAnswer{},
	}
}

func (f *fakeOrdersRepo) CreateOrder(_ context.Context, order *domain.Order) (string, error) {
	f.nextID++
	order.OrderID = fmt.Sprintf("ord-%d", f.nextID)
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	f.orders[order.OrderID] = order
	return order.OrderID, nil
}

func (f *fakeOrdersRepo) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrdersRepo) UpdateOrder(_ context.Context, orderID string, patch repository.OrderPatch) error {
	order, ok := f.orders[orderID]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.ChecklistID != nil {
		order.ChecklistID = sql.NullString{String: *patch.ChecklistID, Valid: true}
	}
	if patch.ChecklistVersion != nil {
		order.ChecklistVersion = *patch.ChecklistVersion
	}
	if patch.InspectionManagerID != nil {
		order.InspectionManagerID = sql.NullString{String: *patch.InspectionManagerID, Valid: true}
	}
	if patch.Status != nil {
		order.Status = *patch.Status
	}
	return nil
}

func (f *fakeOrdersRepo) GetAnswer(_ context.Context, orderID string) (*domain.OrderChecklistAnswer, error) {
	answer, ok := f.answers[orderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *answer
	return &copied, nil
}

func (f *fakeOrdersRepo) SaveAnswer(_ context.Context, answer *domain.OrderChecklistAnswer) (*domain.OrderChecklistAnswer, error) {
	order, ok := f.orders[answer.OrderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if order.Status == domain.OrderStatusCompleted {
		return nil, repository.ErrOrderCompleted
	}
	answer.AnswerID = "ans-" + answer.OrderID
	f.answers[answer.OrderID] = answer
	order.Status = domain.OrderStatusDone
	copied := *answer
	return &copied, nil
}

func (f *fakeOrdersRepo) ListOrders(_ context.Context, filters repository.OrderFilters, page, size int) ([]*domain.Order, int, error) {
	var out []*domain.Order
	for _, order := range f.orders {
		if filters.ClientID != "" && order.ClientID != filters.ClientID {
			continue
		}
		out = append(out, order)
	}
	return out, len(out), nil
}

var _ repository.OrdersRepository = (*fakeOrdersRepo)(nil)

// fakeActivitiesRepo 活动写入由后台 goroutine 触发，必须加锁
type fakeActivitiesRepo struct {
	mu       sync.Mutex
	inserted []*domain.OrderActivity
}

func (f *fakeActivitiesRepo) InsertActivity(_ context.Context, activity *domain.OrderActivity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, activity)
	return nil
}

func (f *fakeActivitiesRepo) ListActivities(_ context.Context, orderID string, page, size int) ([]*domain.OrderActivity, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.OrderActivity
	for _, activity := range f.inserted {
		if activity.OrderID == orderID {
			out = append(out, activity)
		}
	}
	return out, len(out), nil
}

var _ repository.ActivitiesRepository = (*fakeActivitiesRepo)(nil)

type fakeKV struct {
	data map[string]string
	sets int
	gets int
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.gets++
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", store.ErrMiss
}

func (f *fakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.sets++
	f.data[key] = value
	return nil
}

var _ store.KV = (*fakeKV)(nil)

type fakeBlobStore struct {
	stored []string
}

func (f *fakeBlobStore) Store(_ context.Context, orderID string, questionID int, ext string, _ []byte) (string, error) {
	name := fmt.Sprintf("%s-%d%s", orderID, questionID, ext)
	f.stored = append(f.stored, name)
	return "https://blob.local/" + name, nil
}
