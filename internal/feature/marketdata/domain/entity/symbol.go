package entity

// AssetType classifies the kind of instrument a symbol refers to.
type AssetType string

// Supported asset types.
const (
	AssetTypeStock   AssetType = "stock"
	AssetTypeETF     AssetType = "etf"
	AssetTypeCrypto  AssetType = "crypto"
	AssetTypeForex   AssetType = "forex"
	AssetTypeFutures AssetType = "futures"
	AssetTypeOptions AssetType = "options"
	AssetTypeIndex   AssetType = "index"
)

// SymbolMetadata describes a tradable instrument. Symbol is the unique key;
// metadata is upserted idempotently and Active=false marks retirement
// without deletion.
type SymbolMetadata struct {
	Symbol    string
	Name      string
	Exchange  string
	AssetType AssetType
	Sector    string
	Industry  string
	Currency  string // Defaults to "USD" when the source does not report one
	Active    bool
	Extra     map[string]any // Open-ended provider-specific attributes
}
