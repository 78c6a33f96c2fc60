package dto

// CropRecord is a single row returned by the USDA NASS Quick Stats API. The
// upstream schema is wide and loosely typed, so rows are passed through as-is.
type CropRecord map[string]interface{}

// CropDataResponse wraps the records returned by the data fetch endpoint
type CropDataResponse struct {
	Count int          `json:"count"`
	Data  []CropRecord `json:"data"`
}
