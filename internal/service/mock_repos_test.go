package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"mokki/backend/internal/model"
	"mokki/backend/internal/repository"
	pkgerrors "mokki/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return pkgerrors.ErrUniqueViolation
		}
	}
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock HouseRepository ──

type mockHouseRepo struct {
	houses map[string]*model.House
}

func newMockHouseRepo() *mockHouseRepo {
	return &mockHouseRepo{houses: make(map[string]*model.House)}
}

func (m *mockHouseRepo) Create(_ context.Context, house *model.House) error {
	if house.HouseID == "" {
		house.HouseID = "house-" + house.Name
	}
	m.houses[house.HouseID] = house
	return nil
}

func (m *mockHouseRepo) GetByID(_ context.Context, id string) (*model.House, error) {
	if h, ok := m.houses[id]; ok {
		return h, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock HouseMemberRepository ──

type mockMemberRepo struct {
	members map[string]*model.HouseMember
	users   *mockUserRepo
	seq     int
}

func newMockMemberRepo(users *mockUserRepo) *mockMemberRepo {
	return &mockMemberRepo{members: make(map[string]*model.HouseMember), users: users}
}

func (m *mockMemberRepo) Create(_ context.Context, member *model.HouseMember) error {
	for _, mb := range m.members {
		if mb.HouseID == member.HouseID && mb.UserID == member.UserID {
			return pkgerrors.ErrUniqueViolation
		}
	}
	if member.MemberID == "" {
		m.seq++
		member.MemberID = fmt.Sprintf("member-%d", m.seq)
	}
	m.members[member.MemberID] = member
	return nil
}

func (m *mockMemberRepo) GetByHouseAndUser(_ context.Context, houseID, userID string) (*model.HouseMember, error) {
	for _, mb := range m.members {
		if mb.HouseID == houseID && mb.UserID == userID {
			return mb, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMemberRepo) ListByHouse(_ context.Context, houseID string) ([]model.HouseMember, error) {
	var result []model.HouseMember
	for _, mb := range m.members {
		if mb.HouseID != houseID {
			continue
		}
		cp := *mb
		if m.users != nil {
			if u, ok := m.users.users[mb.UserID]; ok {
				cp.User = u
			}
		}
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockMemberRepo) UpdateRole(_ context.Context, memberID, role, _ string) error {
	if mb, ok := m.members[memberID]; ok {
		mb.Role = role
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── Mock RoomRepository ──

type mockRoomRepo struct {
	rooms map[string]*model.Room
	beds  *mockBedRepo
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[string]*model.Room)}
}

func (m *mockRoomRepo) Create(_ context.Context, room *model.Room) error {
	if room.RoomID == "" {
		room.RoomID = "room-" + room.Name
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

func (m *mockRoomRepo) ListByHouse(_ context.Context, houseID string) ([]model.Room, error) {
	var result []model.Room
	for _, r := range m.rooms {
		if r.HouseID != houseID {
			continue
		}
		cp := *r
		if m.beds != nil {
			for _, b := range m.beds.beds {
				if b.RoomID == r.RoomID {
					cp.Beds = append(cp.Beds, *b)
				}
			}
			sort.Slice(cp.Beds, func(i, j int) bool {
				return cp.Beds[i].DisplayOrder < cp.Beds[j].DisplayOrder
			})
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DisplayOrder < result[j].DisplayOrder
	})
	return result, nil
}

func (m *mockRoomRepo) Update(_ context.Context, room *model.Room) error {
	m.rooms[room.RoomID] = room
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id string) error {
	delete(m.rooms, id)
	return nil
}

// ── Mock BedRepository ──

type mockBedRepo struct {
	beds  map[string]*model.Bed
	rooms *mockRoomRepo
}

func newMockBedRepo(rooms *mockRoomRepo) *mockBedRepo {
	b := &mockBedRepo{beds: make(map[string]*model.Bed), rooms: rooms}
	if rooms != nil {
		rooms.beds = b
	}
	return b
}

func (m *mockBedRepo) Create(_ context.Context, bed *model.Bed) error {
	if bed.BedID == "" {
		bed.BedID = "bed-" + bed.Name
	}
	m.beds[bed.BedID] = bed
	return nil
}

func (m *mockBedRepo) GetByID(_ context.Context, id string) (*model.Bed, error) {
	b, ok := m.beds[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	if m.rooms != nil {
		if r, ok := m.rooms.rooms[b.RoomID]; ok {
			cp.Room = r
		}
	}
	return &cp, nil
}

func (m *mockBedRepo) ListByHouse(_ context.Context, houseID string) ([]model.Bed, error) {
	var result []model.Bed
	for _, b := range m.beds {
		if b.HouseID == houseID {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBedRepo) CountByHouse(_ context.Context, houseID string) (int64, error) {
	var count int64
	for _, b := range m.beds {
		if b.HouseID == houseID {
			count++
		}
	}
	return count, nil
}

func (m *mockBedRepo) Update(_ context.Context, bed *model.Bed) error {
	m.beds[bed.BedID] = bed
	return nil
}

func (m *mockBedRepo) Delete(_ context.Context, id string) error {
	delete(m.beds, id)
	return nil
}

// ── Mock SignupWindowRepository ──

type mockWindowRepo struct {
	mu      sync.Mutex
	windows map[string]*model.SignupWindow
	claims  *mockClaimRepo
	seq     int
}

func newMockWindowRepo() *mockWindowRepo {
	return &mockWindowRepo{windows: make(map[string]*model.SignupWindow)}
}

func (m *mockWindowRepo) Create(_ context.Context, window *model.SignupWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.windows {
		if w.HouseID == window.HouseID && w.TargetWeekendStart.Equal(window.TargetWeekendStart) {
			return pkgerrors.ErrUniqueViolation
		}
	}
	if window.WindowID == "" {
		m.seq++
		window.WindowID = fmt.Sprintf("window-%d", m.seq)
	}
	if window.Status == "" {
		window.Status = model.WindowStatusScheduled
	}
	m.windows[window.WindowID] = window
	return nil
}

func (m *mockWindowRepo) GetByID(_ context.Context, id string) (*model.SignupWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.windows[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWindowRepo) GetActiveByHouse(_ context.Context, houseID string) (*model.SignupWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.windows {
		if w.HouseID == houseID && w.Status == model.WindowStatusOpen {
			cp := *w
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWindowRepo) GetNextScheduledByHouse(_ context.Context, houseID string, after time.Time) (*model.SignupWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var next *model.SignupWindow
	for _, w := range m.windows {
		if w.HouseID != houseID || w.Status != model.WindowStatusScheduled {
			continue
		}
		if w.TargetWeekendStart.Before(after) {
			continue
		}
		if next == nil || w.TargetWeekendStart.Before(next.TargetWeekendStart) {
			next = w
		}
	}
	if next == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *next
	return &cp, nil
}

func (m *mockWindowRepo) ListDueScheduled(_ context.Context, now time.Time) ([]model.SignupWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.SignupWindow
	for _, w := range m.windows {
		if w.Status == model.WindowStatusScheduled && !w.OpensAt.After(now) {
			result = append(result, *w)
		}
	}
	return result, nil
}

func (m *mockWindowRepo) ListClosedByHouse(_ context.Context, houseID string, limit int) ([]model.SignupWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.SignupWindow
	for _, w := range m.windows {
		if w.HouseID != houseID || w.Status != model.WindowStatusClosed {
			continue
		}
		cp := *w
		if m.claims != nil {
			cp.Claims = m.claims.claimsOfWindow(w.WindowID)
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TargetWeekendStart.After(result[j].TargetWeekendStart)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockWindowRepo) MarkOpen(_ context.Context, windowID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[windowID]
	if !ok {
		return false, nil
	}
	if w.Status != model.WindowStatusScheduled || w.OpensAt.After(now) {
		return false, nil
	}
	// 部分唯一索引：同 house 至多一个 open 窗口
	for _, other := range m.windows {
		if other.HouseID == w.HouseID && other.Status == model.WindowStatusOpen {
			return false, pkgerrors.ErrUniqueViolation
		}
	}
	w.Status = model.WindowStatusOpen
	return true, nil
}

func (m *mockWindowRepo) MarkClosed(_ context.Context, windowID, reason string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[windowID]
	if !ok {
		return false, nil
	}
	if w.Status == model.WindowStatusClosed {
		return false, nil
	}
	w.Status = model.WindowStatusClosed
	w.CloseReason = reason
	w.ClosedAt = &now
	return true, nil
}

// ── Mock BedClaimRepository ──
// 用互斥锁模拟数据库唯一约束的仲裁行为，支撑并发抢床测试

type mockClaimRepo struct {
	mu     sync.Mutex
	claims map[string]*model.BedClaim
	order  []string
	beds   *mockBedRepo
	users  *mockUserRepo
	seq    int
}

func newMockClaimRepo(beds *mockBedRepo, users *mockUserRepo) *mockClaimRepo {
	return &mockClaimRepo{claims: make(map[string]*model.BedClaim), beds: beds, users: users}
}

func (m *mockClaimRepo) Create(_ context.Context, claim *model.BedClaim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.claims {
		if c.WindowID == claim.WindowID && (c.BedID == claim.BedID || c.UserID == claim.UserID) {
			return pkgerrors.ErrUniqueViolation
		}
	}
	if claim.ClaimID == "" {
		m.seq++
		claim.ClaimID = fmt.Sprintf("claim-%d", m.seq)
	}
	claim.CreatedAt = time.Now()
	m.claims[claim.ClaimID] = claim
	m.order = append(m.order, claim.ClaimID)
	return nil
}

func (m *mockClaimRepo) GetByID(_ context.Context, id string) (*model.BedClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.preload(c)
	return &cp, nil
}

func (m *mockClaimRepo) GetByWindowAndUser(_ context.Context, windowID, userID string) (*model.BedClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.claims {
		if c.WindowID == windowID && c.UserID == userID {
			cp := m.preload(c)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClaimRepo) GetByWindowAndBed(_ context.Context, windowID, bedID string) (*model.BedClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.claims {
		if c.WindowID == windowID && c.BedID == bedID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClaimRepo) ListByWindow(_ context.Context, windowID string) ([]model.BedClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claimsOfWindow(windowID), nil
}

func (m *mockClaimRepo) CountByWindow(_ context.Context, windowID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, c := range m.claims {
		if c.WindowID == windowID {
			count++
		}
	}
	return count, nil
}

func (m *mockClaimRepo) AttachCoClaimerIfEligible(_ context.Context, claimID, windowID, coClaimerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.claims {
		if c.WindowID == windowID && c.UserID == coClaimerID {
			return false, nil
		}
	}
	c, ok := m.claims[claimID]
	if !ok {
		return false, nil
	}
	c.CoClaimerID = &coClaimerID
	return true, nil
}

func (m *mockClaimRepo) UpdateStayRef(_ context.Context, claimID string, stayID *string, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.claims[claimID]; ok {
		c.StayID = stayID
	}
	return nil
}

func (m *mockClaimRepo) UpdateCoClaimer(_ context.Context, claimID string, coClaimerID *string, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.claims[claimID]; ok {
		c.CoClaimerID = coClaimerID
	}
	return nil
}

func (m *mockClaimRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, id)
	for i, cid := range m.order {
		if cid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// claimsOfWindow 调用方必须持有 m.mu
func (m *mockClaimRepo) claimsOfWindow(windowID string) []model.BedClaim {
	var result []model.BedClaim
	for _, id := range m.order {
		c, ok := m.claims[id]
		if !ok || c.WindowID != windowID {
			continue
		}
		result = append(result, m.preload(c))
	}
	return result
}

// preload 模拟 Bed/Room/User 关联加载，调用方必须持有 m.mu
func (m *mockClaimRepo) preload(c *model.BedClaim) model.BedClaim {
	cp := *c
	if m.beds != nil {
		if b, ok := m.beds.beds[c.BedID]; ok {
			bedCp := *b
			if m.beds.rooms != nil {
				if r, ok := m.beds.rooms.rooms[b.RoomID]; ok {
					bedCp.Room = r
				}
			}
			cp.Bed = &bedCp
		}
	}
	if m.users != nil {
		if u, ok := m.users.users[c.UserID]; ok {
			cp.User = u
		}
		if c.CoClaimerID != nil {
			if u, ok := m.users.users[*c.CoClaimerID]; ok {
				cp.CoClaimer = u
			}
		}
	}
	return cp
}

// ── Mock StayRepository ──

type mockStayRepo struct {
	stays  map[string]*model.Stay
	claims *mockClaimRepo
	seq    int
}

func newMockStayRepo(claims *mockClaimRepo) *mockStayRepo {
	return &mockStayRepo{stays: make(map[string]*model.Stay), claims: claims}
}

func (m *mockStayRepo) Create(_ context.Context, stay *model.Stay) error {
	if stay.StayID == "" {
		m.seq++
		stay.StayID = fmt.Sprintf("stay-%d", m.seq)
	}
	m.stays[stay.StayID] = stay
	return nil
}

func (m *mockStayRepo) GetByID(_ context.Context, id string) (*model.Stay, error) {
	s, ok := m.stays[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	if s.BedClaimID != nil && m.claims != nil {
		m.claims.mu.Lock()
		if c, ok := m.claims.claims[*s.BedClaimID]; ok {
			claimCp := *c
			cp.BedClaim = &claimCp
		}
		m.claims.mu.Unlock()
	}
	return &cp, nil
}

func (m *mockStayRepo) ListByHouse(_ context.Context, houseID string) ([]model.Stay, error) {
	var result []model.Stay
	for _, s := range m.stays {
		if s.HouseID == houseID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CheckIn.Before(result[j].CheckIn)
	})
	return result, nil
}

func (m *mockStayRepo) ListByUser(_ context.Context, userID string) ([]model.Stay, error) {
	var result []model.Stay
	for _, s := range m.stays {
		if s.UserID == userID || (s.CoBookerID != nil && *s.CoBookerID == userID) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CheckIn.Before(result[j].CheckIn)
	})
	return result, nil
}

func (m *mockStayRepo) Update(_ context.Context, stay *model.Stay) error {
	if _, ok := m.stays[stay.StayID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.stays[stay.StayID] = stay
	return nil
}

func (m *mockStayRepo) Delete(_ context.Context, id string) error {
	delete(m.stays, id)
	return nil
}

func (m *mockStayRepo) ClearClaimRef(_ context.Context, claimID string) error {
	for _, s := range m.stays {
		if s.BedClaimID != nil && *s.BedClaimID == claimID {
			s.BedClaimID = nil
		}
	}
	return nil
}

// ── 测试夹具：把所有 mock 组装成 Repository 聚合 ──

type testRepos struct {
	users    *mockUserRepo
	houses   *mockHouseRepo
	members  *mockMemberRepo
	rooms    *mockRoomRepo
	beds     *mockBedRepo
	windows  *mockWindowRepo
	claims   *mockClaimRepo
	stays    *mockStayRepo
	expenses *mockExpenseRepo
	repo     *repository.Repository
}

func newTestRepos() *testRepos {
	users := newMockUserRepo()
	houses := newMockHouseRepo()
	members := newMockMemberRepo(users)
	rooms := newMockRoomRepo()
	beds := newMockBedRepo(rooms)
	claims := newMockClaimRepo(beds, users)
	windows := newMockWindowRepo()
	windows.claims = claims
	stays := newMockStayRepo(claims)
	expenses := newMockExpenseRepo()

	return &testRepos{
		users:    users,
		houses:   houses,
		members:  members,
		rooms:    rooms,
		beds:     beds,
		windows:  windows,
		claims:   claims,
		stays:    stays,
		expenses: expenses,
		repo: &repository.Repository{
			User:    users,
			House:   houses,
			Member:  members,
			Room:    rooms,
			Bed:     beds,
			Window:  windows,
			Claim:   claims,
			Stay:    stays,
			Expense: expenses,
		},
	}
}

// ── 造数辅助 ──

func (tr *testRepos) addUser(id, name string) {
	tr.users.users[id] = &model.User{UserID: id, Name: name, Email: id + "@example.com"}
}

func (tr *testRepos) addHouse(id, name string) {
	tr.houses.houses[id] = &model.House{HouseID: id, Name: name}
}

func (tr *testRepos) addMember(houseID, userID, role string) {
	tr.members.seq++
	id := fmt.Sprintf("member-%d", tr.members.seq)
	tr.members.members[id] = &model.HouseMember{MemberID: id, HouseID: houseID, UserID: userID, Role: role}
}

func (tr *testRepos) addRoom(id, houseID, name string) {
	tr.rooms.rooms[id] = &model.Room{RoomID: id, HouseID: houseID, Name: name, RoomType: model.RoomTypeBedroom}
}

func (tr *testRepos) addBed(id, roomID, houseID, name string, premium bool) {
	tr.beds.beds[id] = &model.Bed{BedID: id, RoomID: roomID, HouseID: houseID, Name: name, BedType: "queen", IsPremium: premium}
}

func (tr *testRepos) addWindow(id, houseID, status string, weekendStart time.Time) {
	tr.windows.windows[id] = &model.SignupWindow{
		WindowID:           id,
		HouseID:            houseID,
		TargetWeekendStart: weekendStart,
		OpensAt:            weekendStart.AddDate(0, 0, -7),
		Status:             status,
	}
}

// ── Mock ExpenseRepository ──

type mockExpenseRepo struct {
	expenses map[string]*model.Expense
	seq      int
}

func newMockExpenseRepo() *mockExpenseRepo {
	return &mockExpenseRepo{expenses: make(map[string]*model.Expense)}
}

func (m *mockExpenseRepo) Create(_ context.Context, expense *model.Expense) error {
	if expense.ExpenseID == "" {
		m.seq++
		expense.ExpenseID = fmt.Sprintf("expense-%d", m.seq)
	}
	m.expenses[expense.ExpenseID] = expense
	return nil
}

func (m *mockExpenseRepo) GetByID(_ context.Context, id string) (*model.Expense, error) {
	if e, ok := m.expenses[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExpenseRepo) Delete(_ context.Context, id string) error {
	delete(m.expenses, id)
	return nil
}
