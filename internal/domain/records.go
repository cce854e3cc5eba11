package domain

import "time"

// NewsArticle is a raw news record produced by the acquisition
// collaborator and consumed by the chunker.
type NewsArticle struct {
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
	Source    string    `json:"source"`
}

// Filing is a raw regulatory filing record. Content carries the full
// filing text; the remaining fields are headline figures extracted by
// the acquisition collaborator.
type Filing struct {
	Symbol      string    `json:"symbol"`
	CompanyName string    `json:"company_name"`
	FilingType  string    `json:"filing_type"`
	FilingDate  time.Time `json:"filing_date"`
	Content     string    `json:"content"`
	Revenue     float64   `json:"revenue"`
	NetIncome   float64   `json:"net_income"`
	MarketCap   float64   `json:"market_cap"`
	PERatio     float64   `json:"pe_ratio"`
}

// CompanyInfo carries descriptive company fields from the per-symbol
// market data file.
type CompanyInfo struct {
	Name        string  `json:"name"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	MarketCap   float64 `json:"market_cap"`
	PERatio     float64 `json:"pe_ratio"`
	Description string  `json:"description"`
}
