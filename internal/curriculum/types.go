// Package curriculum reads and writes hand-authored domain models as YAML.
package curriculum

import "github.com/sigma-teacher/tutor/internal/tutor"

// Document is one authored curriculum file.
type Document struct {
	ID       string        `yaml:"id"`
	Title    string        `yaml:"title,omitempty"`
	Audience string        `yaml:"audience,omitempty"`
	Topics   []tutor.Topic `yaml:"topics"`
	Sequence []string      `yaml:"recommended_sequence,omitempty"`
}

// Domain returns the document as a repaired DomainModel.
func (d Document) Domain() tutor.DomainModel {
	return tutor.NewDomainModel(d.Topics, d.Sequence)
}

// Summary is the listing view of a Document.
type Summary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Topics int    `json:"topics"`
}
