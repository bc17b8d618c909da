package csvio_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weighttrack/internal/csvio"
)

func TestRead(t *testing.T) {
	in := strings.Join([]string{
		"Date,Weight (kg),Notes/Mood",
		"05/01/24,80.4,tired",
		"06/01/24,,rest day",
		"2024-01-07,79.9,",
		"08/01/24,heavy,",
		"09/01/24,-3,",
		"10/01/24,79.1",
	}, "\n")

	recs, skipped, err := csvio.Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), recs[0].Date)
	require.NotNil(t, recs[0].Weight)
	assert.Equal(t, 80.4, *recs[0].Weight)
	assert.Equal(t, "tired", recs[0].Note)

	assert.Nil(t, recs[1].Weight)
	assert.Equal(t, "rest day", recs[1].Note)

	assert.Equal(t, "", recs[2].Note)

	require.Len(t, skipped, 3)
	assert.Equal(t, []int{4, 5, 6}, []int{skipped[0].Line, skipped[1].Line, skipped[2].Line})
	assert.Contains(t, skipped[0].Error(), "invalid date")
	assert.Contains(t, skipped[1].Error(), "invalid weight")
}

func TestRead_NonFiniteWeights(t *testing.T) {
	in := "Date,Weight (kg),Notes/Mood\n04/01/24,80,\n05/01/24,NaN,x\n06/01/24,Inf,y\n07/01/24,-inf,z\n"
	recs, skipped, err := csvio.Read(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, recs, 1)
	assert.Equal(t, 80.0, *recs[0].Weight)
	require.Len(t, skipped, 3)
	for _, s := range skipped {
		assert.Contains(t, s.Error(), "invalid weight")
	}
}

func TestRead_UnpaddedDate(t *testing.T) {
	in := "Date,Weight (kg)\n5/1/24,80\n15/12/23,81\n"
	recs, skipped, err := csvio.Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Empty(t, skipped)

	require.Len(t, recs, 2)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), recs[0].Date)
	assert.Equal(t, time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC), recs[1].Date)
}

func TestRead_ColumnOrderAndBOM(t *testing.T) {
	in := "\ufeffNotes/Mood,Date,Weight (kg)\nok,01/02/24,70\n"
	recs, skipped, err := csvio.Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, recs, 1)
	assert.Equal(t, "ok", recs[0].Note)
	assert.Equal(t, time.February, recs[0].Date.Month())
}

func TestRead_BadHeader(t *testing.T) {
	for name, in := range map[string]string{
		"empty":          "",
		"missing weight": "Date,Notes/Mood\n01/01/24,x\n",
	} {
		_, _, err := csvio.Read(strings.NewReader(in))
		assert.ErrorIs(t, err, csvio.ErrInvalidCSV, name)
	}
}

func TestWrite(t *testing.T) {
	w := 80.25
	recs := []csvio.Record{
		{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Weight: &w, Note: "fine, thanks"},
		{Date: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)},
	}
	var buf bytes.Buffer
	require.NoError(t, csvio.Write(&buf, recs))
	assert.Equal(t, "Date,Weight (kg),Notes/Mood\n05/01/24,80.25,\"fine, thanks\"\n06/01/24,,\n", buf.String())
}
