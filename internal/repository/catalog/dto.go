package catalog

import "github.com/osool-guide/codifier/internal/domain"

// metaRecord is one line of the catalog metadata file (JSON Lines).
type metaRecord struct {
	INC          int    `json:"inc"`
	NSG          int    `json:"nsg"`
	NSC          int    `json:"nsc"`
	Name         string `json:"name"`
	DefinitionEN string `json:"definition_en"`
	DefinitionAR string `json:"definition_ar"`
}

func (r metaRecord) toDomain() domain.Item {
	return domain.Item{
		INC:  r.INC,
		NSG:  r.NSG,
		NSC:  r.NSC,
		Name: r.Name,
		Definition: domain.Bilingual{
			EN: r.DefinitionEN,
			AR: r.DefinitionAR,
		},
	}
}
