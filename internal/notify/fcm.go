// README: FCM notifier: batch send to registered devices, dead-token cleanup.
package notify

import (
	"context"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	"github.com/rachana28/DHAPP-BACKEND/internal/modules/device"
	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

// FCM sends at most this many messages per SendEach call (provider limit).
const sendBatchSize = 500

// Sender is the slice of the FCM client the notifier uses; *messaging.Client
// satisfies it, tests substitute a fake.
type Sender interface {
	SendEach(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error)
}

type FCM struct {
	sender  Sender
	devices device.Store
	log     *zap.Logger
}

func NewFCM(sender Sender, devices device.Store, log *zap.Logger) *FCM {
	return &FCM{sender: sender, devices: devices, log: log}
}

func (f *FCM) Notify(ctx context.Context, userIDs []types.ID, title, body string, data map[string]string) error {
	devs, err := f.devices.ListByUsers(ctx, userIDs)
	if err != nil {
		return err
	}
	if len(devs) == 0 {
		return nil
	}

	for start := 0; start < len(devs); start += sendBatchSize {
		end := start + sendBatchSize
		if end > len(devs) {
			end = len(devs)
		}
		batch := devs[start:end]

		msgs := make([]*messaging.Message, len(batch))
		for i, d := range batch {
			msgs[i] = &messaging.Message{
				Token:        d.Token,
				Notification: &messaging.Notification{Title: title, Body: body},
				Data:         data,
			}
		}

		resp, err := f.sender.SendEach(ctx, msgs)
		if err != nil {
			return err
		}
		f.reapDeadTokens(ctx, batch, resp)
	}
	return nil
}

// reapDeadTokens deletes device rows whose token the provider reports as no
// longer registered (app uninstalled). Other send errors are only logged.
func (f *FCM) reapDeadTokens(ctx context.Context, batch []device.Device, resp *messaging.BatchResponse) {
	for i, r := range resp.Responses {
		if r.Success || r.Error == nil {
			continue
		}
		if messaging.IsUnregistered(r.Error) {
			if err := f.devices.DeleteToken(ctx, batch[i].Token); err != nil {
				f.log.Warn("delete dead token", zap.Error(err))
			}
			continue
		}
		f.log.Warn("push send failed",
			zap.String("user_id", string(batch[i].UserID)),
			zap.Error(r.Error),
		)
	}
}
