// Hand-written gomock-style mock of ledger.Querier
// (internal/store/ledger/ledger.go).

package mock

import (
	context "context"
	reflect "reflect"

	ledger "github.com/geodemo/popsynth/internal/store/ledger"
	gomock "github.com/golang/mock/gomock"
)

// MockQuerier is a mock of the ledger.Querier interface.
type MockQuerier struct {
	ctrl     *gomock.Controller
	recorder *MockQuerierMockRecorder
}

// MockQuerierMockRecorder is the mock recorder for MockQuerier.
type MockQuerierMockRecorder struct {
	mock *MockQuerier
}

// NewMockQuerier creates a new mock instance.
func NewMockQuerier(ctrl *gomock.Controller) *MockQuerier {
	mock := &MockQuerier{ctrl: ctrl}
	mock.recorder = &MockQuerierMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockQuerier) EXPECT() *MockQuerierMockRecorder {
	return m.recorder
}

func (m *MockQuerier) CreateRun(ctx context.Context, arg ledger.CreateRunParams) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateRun", ctx, arg)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockQuerierMockRecorder) CreateRun(ctx, arg any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateRun", reflect.TypeOf((*MockQuerier)(nil).CreateRun), ctx, arg)
}

func (m *MockQuerier) ClaimPendingRun(ctx context.Context, arg ledger.ClaimPendingRunParams) (ledger.Run, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ClaimPendingRun", ctx, arg)
	ret0, _ := ret[0].(ledger.Run)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockQuerierMockRecorder) ClaimPendingRun(ctx, arg any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ClaimPendingRun", reflect.TypeOf((*MockQuerier)(nil).ClaimPendingRun), ctx, arg)
}

func (m *MockQuerier) FinishRun(ctx context.Context, runID, finishedAt string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FinishRun", ctx, runID, finishedAt)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockQuerierMockRecorder) FinishRun(ctx, runID, finishedAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FinishRun", reflect.TypeOf((*MockQuerier)(nil).FinishRun), ctx, runID, finishedAt)
}

func (m *MockQuerier) FailRun(ctx context.Context, runID, finishedAt string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FailRun", ctx, runID, finishedAt)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockQuerierMockRecorder) FailRun(ctx, runID, finishedAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FailRun", reflect.TypeOf((*MockQuerier)(nil).FailRun), ctx, runID, finishedAt)
}

func (m *MockQuerier) GetRun(ctx context.Context, runID string) (ledger.Run, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetRun", ctx, runID)
	ret0, _ := ret[0].(ledger.Run)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockQuerierMockRecorder) GetRun(ctx, runID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetRun", reflect.TypeOf((*MockQuerier)(nil).GetRun), ctx, runID)
}

func (m *MockQuerier) ListRuns(ctx context.Context) ([]ledger.Run, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListRuns", ctx)
	ret0, _ := ret[0].([]ledger.Run)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockQuerierMockRecorder) ListRuns(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListRuns", reflect.TypeOf((*MockQuerier)(nil).ListRuns), ctx)
}

func (m *MockQuerier) ClaimTile(ctx context.Context, arg ledger.ClaimTileParams) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ClaimTile", ctx, arg)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockQuerierMockRecorder) ClaimTile(ctx, arg any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ClaimTile", reflect.TypeOf((*MockQuerier)(nil).ClaimTile), ctx, arg)
}

func (m *MockQuerier) CompleteTile(ctx context.Context, arg ledger.CompleteTileParams) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CompleteTile", ctx, arg)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockQuerierMockRecorder) CompleteTile(ctx, arg any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CompleteTile", reflect.TypeOf((*MockQuerier)(nil).CompleteTile), ctx, arg)
}

func (m *MockQuerier) GetTileRun(ctx context.Context, runID, tileID string) (ledger.TileRun, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetTileRun", ctx, runID, tileID)
	ret0, _ := ret[0].(ledger.TileRun)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockQuerierMockRecorder) GetTileRun(ctx, runID, tileID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetTileRun", reflect.TypeOf((*MockQuerier)(nil).GetTileRun), ctx, runID, tileID)
}

func (m *MockQuerier) ListTileRuns(ctx context.Context, runID string) ([]ledger.TileRun, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListTileRuns", ctx, runID)
	ret0, _ := ret[0].([]ledger.TileRun)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockQuerierMockRecorder) ListTileRuns(ctx, runID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListTileRuns", reflect.TypeOf((*MockQuerier)(nil).ListTileRuns), ctx, runID)
}

func (m *MockQuerier) ListDoneTileIDs(ctx context.Context, runID string) ([]string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListDoneTileIDs", ctx, runID)
	ret0, _ := ret[0].([]string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockQuerierMockRecorder) ListDoneTileIDs(ctx, runID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListDoneTileIDs", reflect.TypeOf((*MockQuerier)(nil).ListDoneTileIDs), ctx, runID)
}

var _ ledger.Querier = (*MockQuerier)(nil)
