package wa

import (
	"context"
	"errors"

	"github.com/matheus3301/quill/internal/bus"
	"go.mau.fi/whatsmeow"
)

// PairingStep enumerates the steps of QR pairing.
type PairingStep string

const (
	PairingCode     PairingStep = "qr_code"
	PairingSuccess  PairingStep = "authenticated"
	PairingFailed   PairingStep = "auth_failed"
	PairingTimedOut PairingStep = "timeout"
)

// PairingEvent is one step of QR pairing.
type PairingEvent struct {
	Step    PairingStep
	QRCode  string
	Message string
}

// Terminal reports whether no events follow this one.
func (e PairingEvent) Terminal() bool {
	return e.Step != PairingCode
}

// ErrAlreadyPaired is returned when pairing is started on a linked device.
var ErrAlreadyPaired = errors.New("already paired")

// StartPairing begins QR pairing, mirroring every step on b. The returned
// channel closes after a terminal event.
func (a *Adapter) StartPairing(ctx context.Context, b *bus.Bus) (<-chan PairingEvent, error) {
	if a.IsLoggedIn() {
		return nil, ErrAlreadyPaired
	}
	// Must be requested before Connect.
	qrChan, err := a.client.GetQRChannel(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan PairingEvent, 10)
	go func() {
		defer close(out)
		if err := a.Connect(); err != nil {
			publishPairing(out, b, PairingEvent{Step: PairingFailed, Message: err.Error()})
			return
		}
		for item := range qrChan {
			evt, ok := pairingEvent(item)
			if !ok {
				continue
			}
			publishPairing(out, b, evt)
			if evt.Terminal() {
				return
			}
		}
	}()
	return out, nil
}

// pairingEvent converts a whatsmeow QR channel item. Every event other than
// a code, success or timeout is a failure.
func pairingEvent(item whatsmeow.QRChannelItem) (PairingEvent, bool) {
	switch item.Event {
	case whatsmeow.QRChannelEventCode:
		return PairingEvent{Step: PairingCode, QRCode: item.Code}, true
	case whatsmeow.QRChannelSuccess.Event:
		return PairingEvent{Step: PairingSuccess, Message: "authenticated"}, true
	case whatsmeow.QRChannelTimeout.Event:
		return PairingEvent{Step: PairingTimedOut, Message: "QR code timeout"}, true
	case "":
		return PairingEvent{}, false
	}
	msg := item.Event
	if item.Error != nil {
		msg = item.Error.Error()
	}
	return PairingEvent{Step: PairingFailed, Message: msg}, true
}

func publishPairing(out chan<- PairingEvent, b *bus.Bus, evt PairingEvent) {
	out <- evt
	if b == nil {
		return
	}
	switch evt.Step {
	case PairingCode:
		b.Emit(bus.KindSessionQR, evt.QRCode)
	case PairingSuccess:
		b.Emit(bus.KindSessionAuthed, nil)
	default:
		b.Emit(bus.KindSessionAuthFail, evt.Message)
	}
}
