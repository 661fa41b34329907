package schema

// CatalogLookupTable represents one of the 'catalog.<kind>' reference tables.
// All lookup kinds share this shape.
type CatalogLookupTable struct {
	Table     string
	ID        string
	TenantID  string
	Name      string
	CreatedAt string
	UpdatedAt string
}

func catalogLookup(table string) CatalogLookupTable {
	return CatalogLookupTable{
		Table:     table,
		ID:        "id",
		TenantID:  "tenantid",
		Name:      "name",
		CreatedAt: "createdat",
		UpdatedAt: "updatedat",
	}
}

// Schema definitions for the catalog reference tables.
var (
	CatalogArtist    = catalogLookup("catalog.artist")
	CatalogGenre     = catalogLookup("catalog.genre")
	CatalogLabel     = catalogLookup("catalog.label")
	CatalogCountry   = catalogLookup("catalog.country")
	CatalogFormat    = catalogLookup("catalog.format")
	CatalogPackaging = catalogLookup("catalog.packaging")
	CatalogStore     = catalogLookup("catalog.store")
)

func (t CatalogLookupTable) Columns() []string {
	return []string{t.ID, t.TenantID, t.Name, t.CreatedAt, t.UpdatedAt}
}
