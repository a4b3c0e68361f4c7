package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lysyi3m/rental-comb/app/listing"
)

var ErrDelivery = errors.New("notification delivery failed")

type Message struct {
	Channel   string
	Text      string
	Username  string
	IconEmoji string
}

// Notifier delivers one message. A nil error means the message was accepted
// by the endpoint.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// FormatListing renders the per-listing block:
//
//	>>>>>>>>>
//	3|$400|berkeley
//	Sunny craftsman
//	<https://...>
func FormatListing(record listing.Record) string {
	bedrooms := "n/a"
	if record.Bedrooms != nil {
		bedrooms = strconv.Itoa(*record.Bedrooms)
	}

	perOccupant := "n/a"
	if v, ok := record.PricePerOccupant.Value(); ok {
		perOccupant = "$" + strconv.Itoa(v)
	}

	return fmt.Sprintf(">>>>>>>>>\n%s|%s|%s\n%s\n<%s>\n",
		bedrooms,
		perOccupant,
		valueOr(record.Where, "n/a"),
		valueOr(record.Name, ""),
		record.URL,
	)
}

func FormatSummary(fetched, filtered, notified int) string {
	return fmt.Sprintf("Found %d, filtered to %d, posted %d", fetched, filtered, notified)
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	slog.Info("Notification", "channel", msg.Channel, "username", msg.Username, "text", msg.Text)
	return nil
}
