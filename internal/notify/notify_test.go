// README: FCM notifier tests with a fake sender.
package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	"github.com/rachana28/DHAPP-BACKEND/internal/modules/device"
	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

type fakeSender struct {
	sent [][]*messaging.Message
	resp *messaging.BatchResponse
	err  error
}

func (f *fakeSender) SendEach(_ context.Context, msgs []*messaging.Message) (*messaging.BatchResponse, error) {
	f.sent = append(f.sent, msgs)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	responses := make([]*messaging.SendResponse, len(msgs))
	for i := range msgs {
		responses[i] = &messaging.SendResponse{Success: true}
	}
	return &messaging.BatchResponse{SuccessCount: len(msgs), Responses: responses}, nil
}

func seedDevices(t *testing.T, store device.Store, userID types.ID, tokens ...string) {
	t.Helper()
	for _, tok := range tokens {
		err := store.Register(context.Background(), &device.Device{
			ID:        types.ID("dev_" + tok),
			UserID:    userID,
			Token:     tok,
			Platform:  "android",
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("register device: %v", err)
		}
	}
}

func TestNotifySendsToAllDevices(t *testing.T) {
	store := device.NewMemStore()
	seedDevices(t, store, "u1", "tok1", "tok2")
	seedDevices(t, store, "u2", "tok3")

	sender := &fakeSender{}
	fcm := NewFCM(sender, store, zap.NewNop())

	err := fcm.Notify(context.Background(), []types.ID{"u1", "u2"}, "title", "body", map[string]string{"trip_id": "t1"})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 1 || len(sender.sent[0]) != 3 {
		t.Fatalf("expected one batch of 3 messages, got %v", sender.sent)
	}
	for _, m := range sender.sent[0] {
		if m.Notification.Title != "title" || m.Data["trip_id"] != "t1" {
			t.Errorf("unexpected message payload: %+v", m)
		}
	}
}

func TestNotifyNoDevicesIsNoop(t *testing.T) {
	sender := &fakeSender{}
	fcm := NewFCM(sender, device.NewMemStore(), zap.NewNop())

	if err := fcm.Notify(context.Background(), []types.ID{"nobody"}, "t", "b", nil); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no send calls, got %d", len(sender.sent))
	}
}

func TestNotifyPropagatesSendError(t *testing.T) {
	store := device.NewMemStore()
	seedDevices(t, store, "u1", "tok1")

	sender := &fakeSender{err: errors.New("fcm down")}
	fcm := NewFCM(sender, store, zap.NewNop())

	if err := fcm.Notify(context.Background(), []types.ID{"u1"}, "t", "b", nil); err == nil {
		t.Fatal("expected error from sender")
	}
}

func TestNotifyKeepsTokensOnNonFatalErrors(t *testing.T) {
	store := device.NewMemStore()
	seedDevices(t, store, "u1", "tok1")

	sender := &fakeSender{resp: &messaging.BatchResponse{
		FailureCount: 1,
		Responses:    []*messaging.SendResponse{{Success: false, Error: errors.New("quota exceeded")}},
	}}
	fcm := NewFCM(sender, store, zap.NewNop())

	if err := fcm.Notify(context.Background(), []types.ID{"u1"}, "t", "b", nil); err != nil {
		t.Fatalf("notify: %v", err)
	}
	devs, _ := store.ListByUsers(context.Background(), []types.ID{"u1"})
	if len(devs) != 1 {
		t.Fatalf("expected token kept after transient error, got %d devices", len(devs))
	}
}
