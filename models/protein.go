package models

// Protein repräsentiert eine analysierte Aminosäure-Sequenz samt abgeleiteter Kennzahlen.
type Protein struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"not null;index"`
	Sequence string `json:"sequence" gorm:"type:text;not null"` // immer in Großbuchstaben gespeichert

	Length          int     `json:"length" gorm:"not null"`
	MolecularWeight float64 `json:"molecular_weight" gorm:"not null"`
	UniqueCount     int     `json:"unique_count" gorm:"not null"`

	// Frequencies ist die serialisierte Häufigkeitstabelle (JSON-Objekt in
	// kanonischer Alphabet-Reihenfolge), wie sie auch ausgeliefert wird.
	Frequencies string `json:"frequencies" gorm:"type:text;not null"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Protein) TableName() string {
	return "proteins"
}
