package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-bookstore/pkg/api"
	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/notify"
)

const (
	ordTestToken = "tok-admin"
	ordTestID    = "o1"
	ordTestNote  = "left warehouse"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

// fakeBackend keeps one order and appends history on status updates.
type fakeBackend struct {
	mu        sync.Mutex
	order     bookstore.Order
	mine      []bookstore.Order
	page      *bookstore.OrderPage
	getErr    error
	updateErr error
	updates   []bookstore.StatusUpdate
}

func (f *fakeBackend) MyOrders(context.Context, string) ([]bookstore.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return append([]bookstore.Order(nil), f.mine...), nil
}

func (f *fakeBackend) ListOrders(context.Context, string, int) (*bookstore.OrderPage, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.page, nil
}

func (f *fakeBackend) GetOrder(_ context.Context, _, id string) (*bookstore.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	o := f.order
	o.ID = id
	o.StatusHistory = append([]bookstore.StatusEntry(nil), f.order.StatusHistory...)
	return &o, nil
}

func (f *fakeBackend) UpdateOrderStatus(_ context.Context, _, _ string, u bookstore.StatusUpdate) (*bookstore.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.order.OrderStatus = u.Status
	f.order.StatusHistory = append(f.order.StatusHistory, bookstore.StatusEntry{Status: u.Status, Note: u.Note, UpdatedAt: &now})
	o := f.order
	o.StatusHistory = append([]bookstore.StatusEntry(nil), f.order.StatusHistory...)
	return &o, nil
}

func pendingOrder() bookstore.Order {
	return bookstore.Order{
		ID:            ordTestID,
		OrderStatus:   string(StatusPending),
		StatusHistory: []bookstore.StatusEntry{{Status: string(StatusPending)}},
		TotalPrice:    120000,
	}
}

func TestStatus_Labels(t *testing.T) {
	want := map[Status]string{
		StatusPending:    "Chờ xác nhận",
		StatusProcessing: "Đang xử lý",
		StatusShipping:   "Đang giao",
		StatusDelivered:  "Đã giao",
		StatusCancelled:  "Đã hủy",
	}
	for s, label := range want {
		assert.True(t, s.Valid())
		assert.Equal(t, label, s.Label())
	}
	assert.False(t, Status("refunded").Valid())
	assert.Equal(t, LabelUnknown, Status("refunded").Label())
	assert.Len(t, AllStatuses(), len(want))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("  Shipping ")
	require.NoError(t, err)
	assert.Equal(t, StatusShipping, s)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStatusOf_DefaultsToPending(t *testing.T) {
	assert.Equal(t, StatusPending, StatusOf(bookstore.Order{}))
	assert.Equal(t, StatusDelivered, StatusOf(bookstore.Order{OrderStatus: "delivered"}))
}

func TestService_History(t *testing.T) {
	backend := &fakeBackend{mine: []bookstore.Order{{ID: "a"}, {ID: "b", OrderStatus: "delivered"}}}
	svc := NewService(backend, staticToken(ordTestToken))

	list, err := svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "pending", list[0].OrderStatus)
	assert.Equal(t, "delivered", list[1].OrderStatus)

	_, err = NewService(backend, staticToken("")).History(context.Background())
	assert.ErrorIs(t, err, ErrAuthRequired)

	backend.getErr = errors.New("down")
	_, err = svc.History(context.Background())
	assert.Error(t, err)
}

func TestService_ListAndGet(t *testing.T) {
	backend := &fakeBackend{
		order: bookstore.Order{},
		page:  &bookstore.OrderPage{Orders: []bookstore.Order{{ID: "x"}}, Page: 1, Pages: 3},
	}
	svc := NewService(backend, staticToken(ordTestToken))

	page, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, "pending", page.Orders[0].OrderStatus)

	order, err := svc.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "pending", order.OrderStatus)

	_, err = NewService(backend, staticToken("")).List(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestDetail_UpdateStatusAppendsHistory(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{order: pendingOrder()}
	rec := notify.NewRecorder(0, nil)
	d := NewDetail(backend, staticToken(ordTestToken), WithNotifier(rec))

	_, err := d.Load(ctx, ordTestID)
	require.NoError(t, err)
	before := len(d.Order().StatusHistory)

	updated, err := d.UpdateStatus(ctx, StatusShipping, ordTestNote)
	require.NoError(t, err)
	assert.Equal(t, updated, d.Order())
	assert.Equal(t, "shipping", d.Order().OrderStatus)
	require.Len(t, d.Order().StatusHistory, before+1)
	last := d.Order().StatusHistory[before]
	assert.Equal(t, "shipping", last.Status)
	assert.Equal(t, ordTestNote, last.Note)

	assert.Equal(t, []bookstore.StatusUpdate{{Status: "shipping", Note: ordTestNote}}, backend.updates)
	assert.Equal(t, MsgStatusUpdated, rec.Notices()[0].Message)
}

func TestDetail_UpdateFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{order: pendingOrder()}
	rec := notify.NewRecorder(0, nil)
	d := NewDetail(backend, staticToken(ordTestToken), WithNotifier(rec))
	_, err := d.Load(ctx, ordTestID)
	require.NoError(t, err)
	shown := d.Order()

	backend.updateErr = errors.New("conflict")
	_, err = d.UpdateStatus(ctx, StatusDelivered, "")
	assert.Error(t, err)
	assert.Equal(t, shown, d.Order())
	assert.Equal(t, MsgUpdateFailed, rec.Notices()[0].Message)

	backend.updateErr = &api.APIError{StatusCode: 400, Message: "Không thể chuyển trạng thái"}
	_, err = d.UpdateStatus(ctx, StatusDelivered, "")
	assert.Error(t, err)
	assert.Equal(t, "Không thể chuyển trạng thái", rec.Notices()[1].Message)
}

func TestDetail_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid status", func(t *testing.T) {
		backend := &fakeBackend{order: pendingOrder()}
		d := NewDetail(backend, staticToken(ordTestToken), WithNotifier(notify.NewRecorder(0, nil)))
		_, err := d.Load(ctx, ordTestID)
		require.NoError(t, err)

		_, err = d.UpdateStatus(ctx, Status("lost"), "")
		assert.ErrorIs(t, err, ErrInvalidStatus)
		assert.Empty(t, backend.updates)
	})

	t.Run("nothing loaded", func(t *testing.T) {
		backend := &fakeBackend{}
		d := NewDetail(backend, staticToken(ordTestToken), WithNotifier(notify.NewRecorder(0, nil)))
		_, err := d.UpdateStatus(ctx, StatusShipping, "")
		assert.ErrorIs(t, err, ErrNotLoaded)
	})

	t.Run("anonymous", func(t *testing.T) {
		d := NewDetail(&fakeBackend{}, staticToken(""), WithNotifier(notify.NewRecorder(0, nil)))
		_, err := d.Load(ctx, ordTestID)
		assert.ErrorIs(t, err, ErrAuthRequired)
		_, err = d.UpdateStatus(ctx, StatusShipping, "")
		assert.ErrorIs(t, err, ErrAuthRequired)
	})
}

func TestDetail_LoadFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{order: pendingOrder()}
	rec := notify.NewRecorder(0, nil)
	d := NewDetail(backend, staticToken(ordTestToken), WithNotifier(rec))
	_, err := d.Load(ctx, ordTestID)
	require.NoError(t, err)

	backend.getErr = errors.New("gone")
	_, err = d.Load(ctx, "o2")
	assert.Error(t, err)
	assert.Equal(t, ordTestID, d.Order().ID)
	assert.Equal(t, MsgDetailFailed, rec.Notices()[0].Message)
}

func TestDetail_ConcurrentUpdatesSerialized(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{order: pendingOrder()}
	d := NewDetail(backend, staticToken(ordTestToken), WithNotifier(notify.NewRecorder(0, nil)))
	_, err := d.Load(ctx, ordTestID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, s := range []Status{StatusProcessing, StatusShipping, StatusDelivered} {
		wg.Add(1)
		go func(s Status) {
			defer wg.Done()
			_, _ = d.UpdateStatus(ctx, s, "")
		}(s)
	}
	wg.Wait()

	assert.Len(t, d.Order().StatusHistory, 4)
	assert.Equal(t, backend.updates[len(backend.updates)-1].Status, d.Order().OrderStatus)
}

func TestDetail_OrderReturnsCopy(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{order: pendingOrder()}
	d := NewDetail(backend, staticToken(ordTestToken))

	loaded, err := d.Load(ctx, ordTestID)
	require.NoError(t, err)
	loaded.OrderStatus = string(StatusCancelled)
	loaded.StatusHistory[0].Status = string(StatusCancelled)

	got := d.Order()
	got.OrderStatus = string(StatusDelivered)
	got.StatusHistory[0].Note = "sửa"
	got.StatusHistory = append(got.StatusHistory, bookstore.StatusEntry{Status: string(StatusDelivered)})

	shown := d.Order()
	assert.Equal(t, string(StatusPending), shown.OrderStatus)
	require.Len(t, shown.StatusHistory, 1)
	assert.Equal(t, bookstore.StatusEntry{Status: string(StatusPending)}, shown.StatusHistory[0])
}
