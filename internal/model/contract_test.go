package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ts(t time.Time) *time.Time { return &t }

func TestContractStatusDate(t *testing.T) {
	issued := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	accepted := issued.Add(2 * time.Hour)
	completed := issued.Add(8 * time.Hour)

	outstanding := Contract{Status: StatusOutstanding, DateIssued: issued}
	require.Equal(t, issued, outstanding.StatusDate())

	inProgress := Contract{Status: StatusInProgress, DateIssued: issued, DateAccepted: ts(accepted)}
	require.Equal(t, accepted, inProgress.StatusDate())

	finished := Contract{Status: StatusFinished, DateIssued: issued, DateAccepted: ts(accepted), DateCompleted: ts(completed)}
	require.Equal(t, completed, finished.StatusDate())

	// missing dates fall back to issuance
	bare := Contract{Status: StatusFinished, DateIssued: issued}
	require.Equal(t, issued, bare.StatusDate())
}

func TestContractHasStaleStatus(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	fresh := Contract{Status: StatusOutstanding, DateIssued: now.Add(-23 * time.Hour)}
	require.False(t, fresh.HasStaleStatus(window, now))

	stale := Contract{Status: StatusOutstanding, DateIssued: now.Add(-25 * time.Hour)}
	require.True(t, stale.HasStaleStatus(window, now))
}

func TestContractHasExpired(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	require.True(t, Contract{DateExpired: now.Add(-time.Minute)}.HasExpired(now))
	require.False(t, Contract{DateExpired: now.Add(time.Minute)}.HasExpired(now))
}

func TestContractAcceptorName(t *testing.T) {
	character := &EveEntity{ID: 1, Name: "Black Pilot", Category: EntityCategoryCharacter}
	corporation := &EveEntity{ID: 2, Name: "Hauling Inc", Category: EntityCategoryCorporation}

	require.Equal(t, "Black Pilot", Contract{Acceptor: character}.AcceptorName())
	require.Equal(t, "Hauling Inc", Contract{AcceptorCorporation: corporation}.AcceptorName())
	require.Equal(t, "Black Pilot", Contract{Acceptor: character, AcceptorCorporation: corporation}.AcceptorName())
	require.Empty(t, Contract{}.AcceptorName())
}

func TestContractIssueList(t *testing.T) {
	require.Empty(t, Contract{}.IssueList())

	encoded := `["too heavy","too cheap"]`
	contract := Contract{Issues: &encoded}
	require.Equal(t, []string{"too heavy", "too cheap"}, contract.IssueList())

	malformed := `{not json`
	require.Empty(t, Contract{Issues: &malformed}.IssueList())
}

func TestContractCompliance(t *testing.T) {
	pricingID := int64(7)
	issues := `["reward is below the calculated price of 3 M ISK"]`

	unpriced := Contract{}
	require.False(t, unpriced.HasPricing())
	require.False(t, unpriced.IsCompliant())

	passed := Contract{PricingID: &pricingID}
	require.True(t, passed.HasPricing())
	require.True(t, passed.IsCompliant())

	failed := Contract{PricingID: &pricingID, Issues: &issues}
	require.True(t, failed.HasPricing())
	require.False(t, failed.IsCompliant())
}

func TestContractCustomerNotifiedAt(t *testing.T) {
	when := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	contract := Contract{CustomerNotifiedInProgressAt: ts(when)}

	require.Nil(t, contract.CustomerNotifiedAt(StatusOutstanding))
	require.Equal(t, &when, contract.CustomerNotifiedAt(StatusInProgress))
	require.Nil(t, contract.CustomerNotifiedAt(StatusCanceled))
}

func TestStatusIsTerminal(t *testing.T) {
	require.False(t, StatusOutstanding.IsTerminal())
	require.False(t, StatusInProgress.IsTerminal())
	require.True(t, StatusFinished.IsTerminal())
	require.True(t, StatusFailed.IsTerminal())
	require.True(t, StatusReversed.IsTerminal())
}
