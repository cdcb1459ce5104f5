package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"qrmenu-service/internal/models"
	"qrmenu-service/internal/util"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	util.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

// mockClient creates a client without a real connection
func mockClient(restaurantID uuid.UUID) *Client {
	return &Client{restaurantID: restaurantID, send: make(chan []byte, 16)}
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHubBroadcastIsolatesRestaurants(t *testing.T) {
	hub := runHub(t)
	r1, r2 := uuid.New(), uuid.New()
	c1, c2 := mockClient(r1), mockClient(r2)

	hub.register <- c1
	hub.register <- c2

	require.Eventually(t, func() bool { return hub.HasSubscribers(r1) && hub.HasSubscribers(r2) },
		time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []uuid.UUID{r1, r2}, hub.Rooms())

	require.True(t, hub.Broadcast(r1, []byte(`{"type":"feed.snapshot"}`)))

	select {
	case msg := <-c1.send:
		assert.JSONEq(t, `{"type":"feed.snapshot"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("client1 did not receive message")
	}

	select {
	case <-c2.send:
		t.Fatal("client2 should not receive another restaurant's view")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterCleansRoom(t *testing.T) {
	hub := runHub(t)
	rid := uuid.New()
	c := mockClient(rid)

	hub.register <- c
	hub.unregister <- c

	require.Eventually(t, func() bool { return !hub.HasSubscribers(rid) }, time.Second, 5*time.Millisecond)
	_, open := <-c.send
	assert.False(t, open)
}

func TestHubJoinAndLeaveDoNotBlockAfterShutdown(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	rid := uuid.New()
	watching := mockClient(rid)
	require.True(t, hub.join(watching))
	cancel()
	<-stopped

	_, open := <-watching.send
	assert.False(t, open)

	returned := make(chan bool, 1)
	go func() {
		hub.leave(watching)
		returned <- hub.join(mockClient(rid))
	}()

	select {
	case joined := <-returned:
		assert.False(t, joined)
	case <-time.After(time.Second):
		t.Fatal("join or leave blocked on a stopped hub")
	}
	assert.False(t, hub.HasSubscribers(rid))
}

type stubBuilder struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
	err   error
}

func (b *stubBuilder) Build(_ context.Context, restaurantID uuid.UUID) (*View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls == nil {
		b.calls = map[uuid.UUID]int{}
	}
	b.calls[restaurantID]++
	if b.err != nil {
		return nil, b.err
	}
	return Merge(restaurantID, nil, nil, nil, t0), nil
}

func (b *stubBuilder) count(id uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[id]
}

func receiveSnapshot(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
	}
	return Message{}
}

func TestPollRefresherRebuildsWatchedRestaurants(t *testing.T) {
	hub := runHub(t)
	builder := &stubBuilder{}
	rid := uuid.New()
	c := mockClient(rid)
	hub.register <- c

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewPollRefresher(builder, hub, 10*time.Millisecond).Run(ctx)

	msg := receiveSnapshot(t, c)
	assert.Equal(t, MessageTypeSnapshot, msg.Type)
	require.NotNil(t, msg.Payload)
	assert.Equal(t, rid, msg.Payload.RestaurantID)
}

func TestPushRefresherRebuildsOnSignal(t *testing.T) {
	hub := runHub(t)
	builder := &stubBuilder{}
	watched, unwatched := uuid.New(), uuid.New()
	c := mockClient(watched)
	hub.register <- c
	require.Eventually(t, func() bool { return hub.HasSubscribers(watched) }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	push := NewPushRefresher(builder, hub, time.Hour)
	go push.Run(ctx)

	require.NoError(t, push.Notify(ctx, unwatched))
	require.NoError(t, push.Notify(ctx, watched))

	msg := receiveSnapshot(t, c)
	assert.Equal(t, watched, msg.Payload.RestaurantID)
	assert.Zero(t, builder.count(unwatched))
}

func TestPushRefresherNotifyHonoursContext(t *testing.T) {
	push := NewPushRefresher(&stubBuilder{}, NewHub(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// fill the queue so the next notify has to wait
	for i := 0; i < cap(push.signals); i++ {
		push.signals <- uuid.New()
	}
	assert.Error(t, push.Notify(ctx, uuid.New()))
}

func TestRefreshSkipsFailedBuild(t *testing.T) {
	hub := runHub(t)
	rid := uuid.New()
	c := mockClient(rid)
	hub.register <- c

	r := refresh{builder: &stubBuilder{err: errors.New("db down")}, hub: hub, mode: ModePoll, logger: zap.NewNop()}
	r.restaurant(context.Background(), rid)

	select {
	case <-c.send:
		t.Fatal("no snapshot expected after a failed build")
	case <-time.After(50 * time.Millisecond):
	}
}

type memLoader struct {
	tables []models.Table
	orders []models.ActiveOrder
	calls  []models.WaiterCall
	err    error
}

func (l *memLoader) ListTables(context.Context, uuid.UUID) ([]models.Table, error) {
	return l.tables, l.err
}

func (l *memLoader) ListActiveOrders(context.Context, uuid.UUID) ([]models.ActiveOrder, error) {
	return l.orders, nil
}

func (l *memLoader) ListPendingCalls(context.Context, uuid.UUID) ([]models.WaiterCall, error) {
	return l.calls, nil
}

func TestBuilder(t *testing.T) {
	tb := table("T1")
	loader := &memLoader{
		tables: []models.Table{tb},
		calls:  []models.WaiterCall{call(&tb.ID, models.CallTypeWaiter, t0)},
	}
	b := NewBuilder(loader)
	b.now = func() time.Time { return t0 }

	view, err := b.Build(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, TableStateCall, view.Tables[0].State)
	assert.Equal(t, t0, view.GeneratedAt)

	loader.err = errors.New("timeout")
	_, err = b.Build(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestServeWSSendsInitialSnapshot(t *testing.T) {
	hub := runHub(t)
	rid := uuid.New()
	builder := &stubBuilder{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(r.Context(), hub, builder, rid, w, r)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeSnapshot, msg.Type)
	assert.Equal(t, rid, msg.Payload.RestaurantID)

	require.Eventually(t, func() bool { return hub.HasSubscribers(rid) }, time.Second, 5*time.Millisecond)
}
