package blogservice

// PageSize is fixed for all listings.
const PageSize = 10

type Metadata struct {
	CurrentPage  int `json:"current_page"`
	PageSize     int `json:"page_size"`
	FirstPage    int `json:"first_page"`
	LastPage     int `json:"last_page"`
	TotalRecords int `json:"total_records"`
}

func lastPage(totalRecords int) int {
	last := (totalRecords + PageSize - 1) / PageSize
	if last < 1 {
		last = 1
	}
	return last
}

// clampPage adjusts an out-of-range page number to the nearest valid page
// instead of erroring.
func clampPage(page, totalRecords int) int {
	switch {
	case page < 1:
		return 1
	case page > lastPage(totalRecords):
		return lastPage(totalRecords)
	default:
		return page
	}
}

func calculateMetadata(totalRecords, page int) Metadata {
	return Metadata{
		CurrentPage:  clampPage(page, totalRecords),
		PageSize:     PageSize,
		FirstPage:    1,
		LastPage:     lastPage(totalRecords),
		TotalRecords: totalRecords,
	}
}
