package models

// MovieMetadata 第三方影片元数据（已过滤 N/A）
type MovieMetadata struct {
	Title   string `json:"title"`
	Year    string `json:"year,omitempty"`
	Country string `json:"country,omitempty"`
	Awards  string `json:"awards,omitempty"`
	Rating  string `json:"imdb_rating,omitempty"`
}

// Empty 是否没有任何可展示的字段
func (m *MovieMetadata) Empty() bool {
	return m == nil || (m.Country == "" && m.Awards == "" && m.Rating == "")
}
