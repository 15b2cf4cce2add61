package channels

import (
	"errors"
	"fmt"

	"github.com/nextlevelbuilder/followbot/internal/bus"
)

// ErrPermanent marks a delivery that can never succeed: the user blocked the
// bot, deleted their account, or never opened a chat with it.
var ErrPermanent = errors.New("recipient unreachable")

// DeliveryError is returned by Sender implementations when a send fails.
type DeliveryError struct {
	ChatID    bus.ChatID
	Permanent bool
	Err       error
}

func (e *DeliveryError) Error() string {
	kind := "transient"
	if e.Permanent {
		kind = "permanent"
	}
	return fmt.Sprintf("send to %d (%s): %v", e.ChatID, kind, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Is reports ErrPermanent for permanent failures so errors.Is works through wrapping.
func (e *DeliveryError) Is(target error) bool {
	return target == ErrPermanent && e.Permanent
}

// Permanent wraps err as a permanent delivery failure for chatID.
func Permanent(chatID bus.ChatID, err error) error {
	return &DeliveryError{ChatID: chatID, Permanent: true, Err: err}
}

// Transient wraps err as a retryable delivery failure for chatID.
func Transient(chatID bus.ChatID, err error) error {
	return &DeliveryError{ChatID: chatID, Err: err}
}

// IsPermanent reports whether err means the recipient is unreachable.
func IsPermanent(err error) bool {
	return err != nil && errors.Is(err, ErrPermanent)
}
