package directory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		{ID: "1", BusinessName: "Acme Bakery", Phone: "555-0100", Address: "1 Main St", Approved: ApprovalApproved},
		{ID: "2", BusinessName: "Bolt Garage", Phone: "555-0199", Address: "22 Side Rd", Approved: ApprovalRejected},
		{ID: "3", BusinessName: "Café Ümlaut", Phone: "+49 30 1234", Address: "Hauptstraße 5"},
		{ID: "4", BusinessName: "Spice Route", Phone: "0431-224", Address: "Trichy MAIN road", Specialization: "acme"},
	}
}

func TestFilterEmptyTermIsIdentity(t *testing.T) {
	records := sampleRecords()
	out := Filter(records, "")
	require.Len(t, out, len(records))
	for i := range records {
		assert.Equal(t, records[i].ID, out[i].ID)
	}
}

func TestFilterDoesNotTrimTerm(t *testing.T) {
	records := []Record{
		{ID: "1", BusinessName: "Acme", Phone: "555", Address: "Main"},
		{ID: "2", BusinessName: "Beta Works", Phone: "556", Address: "Side"},
	}
	out := Filter(records, " ")
	require.Len(t, out, 1, "a blank term only matches fields containing a blank")
	assert.Equal(t, "2", out[0].ID)

	out = Filter(records, " acme")
	assert.Empty(t, out)
}

func TestFilterSoundAndComplete(t *testing.T) {
	records := sampleRecords()
	for _, term := range []string{"main", "ACME", "555", "ümlaut", "ÜMLAUT", "zzz", "0431", "st"} {
		out := Filter(records, term)
		matched := map[string]bool{}
		for _, r := range out {
			matched[r.ID] = true
		}
		lower := strings.ToLower(term)
		for _, r := range records {
			want := strings.Contains(strings.ToLower(r.BusinessName), lower) ||
				strings.Contains(strings.ToLower(r.Phone), lower) ||
				strings.Contains(strings.ToLower(r.Address), lower)
			assert.Equal(t, want, matched[r.ID], "term=%q id=%s", term, r.ID)
		}
	}
}

func TestFilterIgnoresOtherFields(t *testing.T) {
	out := Filter(sampleRecords(), "acme")
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].ID)
}

func TestFilterPreservesOrder(t *testing.T) {
	out := Filter(sampleRecords(), "main")
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "4", out[1].ID)
}

func TestFilterApproved(t *testing.T) {
	out := FilterApproved(sampleRecords())
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].ID)
}

func TestFind(t *testing.T) {
	r, ok := Find(sampleRecords(), "3")
	require.True(t, ok)
	assert.Equal(t, "Café Ümlaut", r.BusinessName)

	_, ok = Find(sampleRecords(), "")
	assert.False(t, ok)
}
