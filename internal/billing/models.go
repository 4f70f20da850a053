package billing

import "time"

// Disposition is the outcome class of a logged call.
type Disposition string

const (
	// DispositionCompleted marks a billable connect.
	DispositionCompleted Disposition = "completed"
	// DispositionShort marks a connect that ended under the billable floor.
	DispositionShort Disposition = "short"
	// DispositionFailed marks a zero-duration call.
	DispositionFailed Disposition = "failed"
)

const (
	// MinBillableSeconds is the hard floor under which no call bills,
	// regardless of the campaign's configured threshold.
	MinBillableSeconds = 60

	// DefaultThreshold applies when a call is logged without one.
	DefaultThreshold = 90
)

// classify decides billability and disposition from duration and threshold.
// Billable iff duration >= max(MinBillableSeconds, threshold).
func classify(durationSeconds, threshold int) (bool, Disposition) {
	floor := threshold
	if floor < MinBillableSeconds {
		floor = MinBillableSeconds
	}
	if durationSeconds >= floor {
		return true, DispositionCompleted
	}
	if durationSeconds > 0 {
		return false, DispositionShort
	}
	return false, DispositionFailed
}

// CallRecord is the immutable log of one transferred call.
type CallRecord struct {
	ID                string      `json:"id"`
	CampaignID        string      `json:"campaign_id"`
	BuyerID           string      `json:"buyer_id"`
	SellerID          string      `json:"seller_id,omitempty"`
	DIDNumber         string      `json:"did_number,omitempty"`
	Caller            string      `json:"caller,omitempty"`
	Called            string      `json:"called,omitempty"`
	DurationSeconds   int         `json:"duration_seconds"`
	BillableThreshold int         `json:"billable_threshold"`
	Billable          bool        `json:"billable"`
	RecordingURL      string      `json:"recording_url,omitempty"`
	Disposition       Disposition `json:"disposition"`
	CreatedAt         time.Time   `json:"created_at"`
}
