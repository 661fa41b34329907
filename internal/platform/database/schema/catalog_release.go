package schema

// CatalogReleaseTable represents the 'catalog.release' table
type CatalogReleaseTable struct {
	Table               string
	ID                  string
	TenantID            string
	Title               string
	ReleaseDate         string
	OriginalReleaseDate string
	IsLive              string
	CatalogNumber       string
	UPC                 string
	DurationSeconds     string
	Notes               string
	ExternalID          string
	LabelID             string
	CountryID           string
	FormatID            string
	PackagingID         string
	ArtistIDs           string
	GenreIDs            string
	PurchaseInfo        string
	Images              string
	Links               string
	Media               string
	CreatedAt           string
	UpdatedAt           string
}

// CatalogRelease is the schema definition for catalog.release
var CatalogRelease = CatalogReleaseTable{
	Table:               "catalog.release",
	ID:                  "id",
	TenantID:            "tenantid",
	Title:               "title",
	ReleaseDate:         "releasedate",
	OriginalReleaseDate: "originalreleasedate",
	IsLive:              "islive",
	CatalogNumber:       "catalognumber",
	UPC:                 "upc",
	DurationSeconds:     "durationseconds",
	Notes:               "notes",
	ExternalID:          "externalid",
	LabelID:             "labelid",
	CountryID:           "countryid",
	FormatID:            "formatid",
	PackagingID:         "packagingid",
	ArtistIDs:           "artistids",
	GenreIDs:            "genreids",
	PurchaseInfo:        "purchaseinfo",
	Images:              "images",
	Links:               "links",
	Media:               "media",
	CreatedAt:           "createdat",
	UpdatedAt:           "updatedat",
}

// Columns lists every column in scan order.
func (t CatalogReleaseTable) Columns() []string {
	return []string{
		t.ID, t.TenantID, t.Title, t.ReleaseDate, t.OriginalReleaseDate, t.IsLive,
		t.CatalogNumber, t.UPC, t.DurationSeconds, t.Notes, t.ExternalID,
		t.LabelID, t.CountryID, t.FormatID, t.PackagingID,
		t.ArtistIDs, t.GenreIDs, t.PurchaseInfo, t.Images, t.Links, t.Media,
		t.CreatedAt, t.UpdatedAt,
	}
}

// WritableColumns lists the columns set on insert, in argument order.
func (t CatalogReleaseTable) WritableColumns() []string {
	return []string{
		t.TenantID, t.Title, t.ReleaseDate, t.OriginalReleaseDate, t.IsLive,
		t.CatalogNumber, t.UPC, t.DurationSeconds, t.Notes, t.ExternalID,
		t.LabelID, t.CountryID, t.FormatID, t.PackagingID,
		t.ArtistIDs, t.GenreIDs, t.PurchaseInfo, t.Images, t.Links, t.Media,
	}
}
