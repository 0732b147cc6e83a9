package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidate(t *testing.T) {
	analyzer := NewSequenceAnalyzer(zap.NewNop())

	tests := []struct {
		name        string
		raw         string
		want        string
		wantInvalid []string
	}{
		{
			name: "valid sequence",
			raw:  "ARNDCEQGHILKMFPSTWYV",
			want: "ARNDCEQGHILKMFPSTWYV",
		},
		{
			name: "lowercase is normalized",
			raw:  "aac",
			want: "AAC",
		},
		{
			name: "surrounding whitespace is trimmed",
			raw:  "  MKV \n",
			want: "MKV",
		},
		{
			name:        "single invalid symbol",
			raw:         "AXC",
			wantInvalid: []string{"X"},
		},
		{
			name:        "all invalid symbols reported in order",
			raw:         "AXBZC",
			wantInvalid: []string{"X", "B", "Z"},
		},
		{
			name:        "repeated invalid symbols reported each time",
			raw:         "XX",
			wantInvalid: []string{"X", "X"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := analyzer.Validate(tt.raw)
			if len(tt.wantInvalid) > 0 {
				var invalid *InvalidSequenceError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, tt.wantInvalid, invalid.Invalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyzeWorkedExample(t *testing.T) {
	analyzer := NewSequenceAnalyzer(zap.NewNop())

	analysis, err := analyzer.Analyze("Test Protein", "AAC")
	require.NoError(t, err)

	assert.Equal(t, "Test Protein", analysis.Name)
	assert.Equal(t, "AAC", analysis.Sequence)
	assert.Equal(t, 3, analysis.Length)
	assert.Equal(t, 299.33, analysis.MolecularWeight) // 2*89.09 + 121.15
	assert.Equal(t, 2, analysis.UniqueCount)
	assert.Equal(t, 2, analysis.Frequencies[0]) // A
	assert.Equal(t, 1, analysis.Frequencies[4]) // C
	assert.Equal(t, 3, analysis.Frequencies.Total())
}

func TestAnalyzeMissingFields(t *testing.T) {
	analyzer := NewSequenceAnalyzer(zap.NewNop())

	tests := []struct {
		name     string
		protein  string
		sequence string
	}{
		{name: "empty name", protein: "", sequence: "AAC"},
		{name: "empty sequence", protein: "Test", sequence: ""},
		{name: "whitespace only name", protein: "   ", sequence: "AAC"},
		{name: "both empty", protein: "", sequence: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyzer.Analyze(tt.protein, tt.sequence)
			assert.ErrorIs(t, err, ErrMissingFields)
		})
	}
}

func TestAnalyzeInvariants(t *testing.T) {
	analyzer := NewSequenceAnalyzer(zap.NewNop())

	sequences := []string{
		"A",
		"AAC",
		"MKVLWAALLVTFLAGCQA",
		"ARNDCEQGHILKMFPSTWYV",
		"gggggggggg",
	}

	for _, seq := range sequences {
		analysis, err := analyzer.Analyze("inv", seq)
		require.NoError(t, err)

		assert.Equal(t, len(analysis.Sequence), analysis.Length)
		assert.Equal(t, analysis.Length, analysis.Frequencies.Total())
		assert.Equal(t, analysis.Frequencies.UniqueCount(), analysis.UniqueCount)
		assert.LessOrEqual(t, analysis.UniqueCount, 20)
	}
}

func TestMolecularWeightDeterministic(t *testing.T) {
	seq := "MKVLWAALLVTFLAGCQA"
	first := MolecularWeight(seq)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, MolecularWeight(seq))
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	// Eine erneute Analyse mit den eigenen Werten ändert keine abgeleiteten Felder.
	analyzer := NewSequenceAnalyzer(zap.NewNop())

	first, err := analyzer.Analyze("Hemoglobin", "MVHLTPEEK")
	require.NoError(t, err)
	second, err := analyzer.Analyze(first.Name, first.Sequence)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Record(), second.Record())
}

func TestFrequencyCountsMarshalOrder(t *testing.T) {
	fc := CountFrequencies("AAC")
	data, err := json.Marshal(fc)
	require.NoError(t, err)

	want := `{"A":2,"R":0,"N":0,"D":0,"C":1,"E":0,"Q":0,"G":0,"H":0,"I":0,"L":0,"K":0,"M":0,"F":0,"P":0,"S":0,"T":0,"W":0,"Y":0,"V":0}`
	assert.Equal(t, want, string(data))

	var back FrequencyCounts
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, fc, back)
}

func TestRecordShape(t *testing.T) {
	analyzer := NewSequenceAnalyzer(zap.NewNop())

	analysis, err := analyzer.Analyze("Test", "aac")
	require.NoError(t, err)
	record := analysis.Record()

	assert.Equal(t, "AAC", record.Sequence)
	assert.Equal(t, 3, record.Length)
	assert.Equal(t, 299.33, record.MolecularWeight)
	assert.Equal(t, 2, record.UniqueCount)

	var stored FrequencyCounts
	require.NoError(t, json.Unmarshal([]byte(record.Frequencies), &stored))
	assert.Equal(t, analysis.Frequencies, stored)
}

func TestSummaryShape(t *testing.T) {
	analyzer := NewSequenceAnalyzer(zap.NewNop())

	analysis, err := analyzer.Analyze("Test", "AAC")
	require.NoError(t, err)
	summary := analysis.Summary()

	require.Len(t, summary.AminoAcids, 20)
	require.Len(t, summary.Frequencies, 20)
	assert.Equal(t, "A", summary.AminoAcids[0])
	assert.Equal(t, "V", summary.AminoAcids[19])
	assert.Equal(t, 2, summary.Frequencies[0])

	total := 0
	for _, n := range summary.Frequencies {
		total += n
	}
	assert.Equal(t, summary.Length, total)
}
