package nearby

// radiusResponse is the subset of the radius search payload we read.
type radiusResponse struct {
	Info          responseInfo   `json:"info"`
	SearchResults []searchResult `json:"searchResults"`
}

type responseInfo struct {
	StatusCode int      `json:"statuscode"`
	Messages   []string `json:"messages"`
}

type searchResult struct {
	Name   string       `json:"name"`
	Fields resultFields `json:"fields"`
}

type resultFields struct {
	GroupSicCodeName string `json:"group_sic_code_name"`
	Address          string `json:"address"`
	City             string `json:"city"`
}
