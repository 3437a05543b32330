package fallback

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/andreyxaxa/payout-controller/internal/entity"
)

// TimestampLayout is ISO-8601 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// PayoutHistoryFile appends one line per outcome to the success or error log.
type PayoutHistoryFile struct {
	successPath string
	errorPath   string

	mu sync.Mutex
}

func NewPayoutHistoryFile(successPath, errorPath string) *PayoutHistoryFile {
	return &PayoutHistoryFile{
		successPath: successPath,
		errorPath:   errorPath,
	}
}

func (r *PayoutHistoryFile) Save(_ context.Context, outcome entity.PayoutOutcome) error {
	path := r.errorPath
	if outcome.Status == entity.Success {
		path = r.successPath
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("PayoutHistoryFile - Save - os.OpenFile: %w", err)
	}

	_, err = f.WriteString(FormatLine(outcome))
	if err != nil {
		_ = f.Close()

		return fmt.Errorf("PayoutHistoryFile - Save - f.WriteString: %w", err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("PayoutHistoryFile - Save - f.Close: %w", err)
	}

	return nil
}

// FormatLine renders an outcome as a single timestamp-prefixed line.
func FormatLine(outcome entity.PayoutOutcome) string {
	ts := outcome.CreatedAt.UTC().Format(TimestampLayout)

	if outcome.Status == entity.Success {
		return fmt.Sprintf("%s SUCCESS recipient=%s amount=%s transaction=%s\n",
			ts, outcome.Recipient, outcome.Amount.StringFixed(2), outcome.Detail)
	}

	return fmt.Sprintf("%s FAILED recipient=%s amount=%s error=%s\n",
		ts, outcome.Recipient, outcome.Amount.StringFixed(2), strconv.Quote(outcome.Detail))
}
