package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"protein-atlas/models"
)

// Alphabet enthält die 20 kanonischen Aminosäure-Codes in fester Reihenfolge.
// Diese Reihenfolge bestimmt auch die Serialisierung der Häufigkeitstabelle.
const Alphabet = "ARNDCEQGHILKMFPSTWYV"

// residueWeights: mittlere Residuenmasse in Dalton je Ein-Buchstaben-Code.
var residueWeights = map[byte]float64{
	'A': 89.09, 'R': 174.20, 'N': 132.12, 'D': 133.10,
	'C': 121.15, 'Q': 146.15, 'E': 147.13, 'G': 75.07,
	'H': 155.16, 'I': 131.17, 'L': 131.17, 'K': 146.19,
	'M': 149.21, 'F': 165.19, 'P': 115.13, 'S': 105.09,
	'T': 119.12, 'W': 204.23, 'Y': 181.19, 'V': 117.15,
}

// alphabetIndex bildet ein Symbol auf seine Position im Alphabet ab.
var alphabetIndex = func() map[byte]int {
	idx := make(map[byte]int, len(Alphabet))
	for i := 0; i < len(Alphabet); i++ {
		idx[Alphabet[i]] = i
	}
	return idx
}()

// ErrMissingFields wird geliefert, wenn Name oder Sequenz fehlen.
var ErrMissingFields = errors.New("protein name and sequence are required")

// InvalidSequenceError listet alle ungültigen Zeichen einer Sequenz auf,
// nicht nur das erste.
type InvalidSequenceError struct {
	Invalid []string
}

func (e *InvalidSequenceError) Error() string {
	return fmt.Sprintf("Invalid characters: %s", strings.Join(e.Invalid, ", "))
}

// FrequencyCounts hält die Häufigkeit jedes Alphabet-Symbols, indiziert in
// kanonischer Reihenfolge. Abwesende Symbole stehen auf 0.
type FrequencyCounts [20]int

// Symbols gibt die 20 Symbole in kanonischer Reihenfolge zurück.
func Symbols() []string {
	out := make([]string, len(Alphabet))
	for i := 0; i < len(Alphabet); i++ {
		out[i] = string(Alphabet[i])
	}
	return out
}

// Counts gibt die Zählwerte als Slice in kanonischer Reihenfolge zurück.
func (fc FrequencyCounts) Counts() []int {
	out := make([]int, len(fc))
	copy(out, fc[:])
	return out
}

// Total summiert alle Zählwerte; entspricht der Sequenzlänge.
func (fc FrequencyCounts) Total() int {
	sum := 0
	for _, n := range fc {
		sum += n
	}
	return sum
}

// UniqueCount zählt die Symbole, die mindestens einmal vorkommen.
func (fc FrequencyCounts) UniqueCount() int {
	n := 0
	for _, c := range fc {
		if c > 0 {
			n++
		}
	}
	return n
}

// MarshalJSON serialisiert die Tabelle als Objekt in fester Schlüssel-Reihenfolge,
// damit gespeicherte und ausgelieferte Darstellung reproduzierbar sind.
func (fc FrequencyCounts) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i := 0; i < len(Alphabet); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q:%d", string(Alphabet[i]), fc[i])
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON liest eine gespeicherte Häufigkeitstabelle zurück.
// Unbekannte Schlüssel werden ignoriert.
func (fc *FrequencyCounts) UnmarshalJSON(data []byte) error {
	raw := map[string]int{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out FrequencyCounts
	for k, v := range raw {
		if len(k) != 1 {
			continue
		}
		if i, ok := alphabetIndex[k[0]]; ok {
			out[i] = v
		}
	}
	*fc = out
	return nil
}

// MolecularWeight summiert die Residuenmassen einer Sequenz und rundet auf
// zwei Nachkommastellen. Unbekannte Symbole tragen 0 bei.
func MolecularWeight(sequence string) float64 {
	weight := 0.0
	for i := 0; i < len(sequence); i++ {
		weight += residueWeights[sequence[i]]
	}
	return math.Round(weight*100) / 100
}

// CountFrequencies zählt jedes Alphabet-Symbol in der Sequenz.
func CountFrequencies(sequence string) FrequencyCounts {
	var fc FrequencyCounts
	for i := 0; i < len(sequence); i++ {
		if idx, ok := alphabetIndex[sequence[i]]; ok {
			fc[idx]++
		}
	}
	return fc
}

// Analysis bündelt alle abgeleiteten Kennzahlen einer validierten Sequenz.
type Analysis struct {
	Name            string
	Sequence        string
	Length          int
	MolecularWeight float64
	UniqueCount     int
	Frequencies     FrequencyCounts
}

// AnalysisSummary ist die API-Darstellung einer Analyse (data-Feld der Antwort).
type AnalysisSummary struct {
	Name            string   `json:"name"`
	Length          int      `json:"length"`
	MolecularWeight float64  `json:"molecular_weight"`
	UniqueCount     int      `json:"unique_count"`
	AminoAcids      []string `json:"amino_acids"`
	Frequencies     []int    `json:"frequencies"`
}

// Summary formt die Analyse in die Antwortdarstellung um.
func (a *Analysis) Summary() AnalysisSummary {
	return AnalysisSummary{
		Name:            a.Name,
		Length:          a.Length,
		MolecularWeight: a.MolecularWeight,
		UniqueCount:     a.UniqueCount,
		AminoAcids:      Symbols(),
		Frequencies:     a.Frequencies.Counts(),
	}
}

// Record formt die Analyse in den persistierten Datensatz um.
func (a *Analysis) Record() models.Protein {
	freqJSON, _ := json.Marshal(a.Frequencies)
	return models.Protein{
		Name:            a.Name,
		Sequence:        a.Sequence,
		Length:          a.Length,
		MolecularWeight: a.MolecularWeight,
		UniqueCount:     a.UniqueCount,
		Frequencies:     string(freqJSON),
	}
}

// SequenceAnalyzer validiert Aminosäure-Sequenzen und berechnet ihre Kennzahlen.
type SequenceAnalyzer struct {
	logger *zap.Logger
}

// NewSequenceAnalyzer erstellt einen neuen Analyzer.
func NewSequenceAnalyzer(logger *zap.Logger) *SequenceAnalyzer {
	return &SequenceAnalyzer{logger: logger}
}

// Normalize entfernt Randleerzeichen und hebt die Sequenz in Großbuchstaben.
func (sa *SequenceAnalyzer) Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate normalisiert die Sequenz und prüft sie gegen das Alphabet.
// Bei Verstößen werden alle ungültigen Zeichen in Fundreihenfolge gemeldet.
func (sa *SequenceAnalyzer) Validate(raw string) (string, error) {
	sequence := sa.Normalize(raw)
	var invalid []string
	for i := 0; i < len(sequence); i++ {
		if _, ok := alphabetIndex[sequence[i]]; !ok {
			invalid = append(invalid, string(sequence[i]))
		}
	}
	if len(invalid) > 0 {
		return "", &InvalidSequenceError{Invalid: invalid}
	}
	return sequence, nil
}

// Analyze validiert Name und Sequenz und berechnet alle abgeleiteten Felder.
// Reine Funktion ohne Seiteneffekte; identische Eingabe liefert identische Werte.
func (sa *SequenceAnalyzer) Analyze(name, rawSequence string) (*Analysis, error) {
	name = strings.TrimSpace(name)
	sequence := sa.Normalize(rawSequence)
	if name == "" || sequence == "" {
		return nil, ErrMissingFields
	}

	sequence, err := sa.Validate(sequence)
	if err != nil {
		sa.logger.Debug("Sequenz-Validierung fehlgeschlagen", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	freq := CountFrequencies(sequence)
	return &Analysis{
		Name:            name,
		Sequence:        sequence,
		Length:          len(sequence),
		MolecularWeight: MolecularWeight(sequence),
		UniqueCount:     freq.UniqueCount(),
		Frequencies:     freq,
	}, nil
}
