package domain

// SubfolderStats counts activity for one subfolder of one customer.
type SubfolderStats struct {
	Processed  int `json:"processed"`
	Duplicates int `json:"duplicates"`
}

// CustomerStats breaks crawl activity down per customer root.
type CustomerStats struct {
	Processed   int                        `json:"processed"`
	Duplicates  int                        `json:"duplicates"`
	BySubfolder map[string]*SubfolderStats `json:"by_subfolder"`
}

// CrawlStats accumulates counters for exactly one crawl run. It is reset at
// the start of every run and never persisted.
type CrawlStats struct {
	Processed  int                       `json:"processed"`
	Moved      int                       `json:"moved"`
	Duplicates int                       `json:"duplicates"`
	Errors     int                       `json:"errors"`
	ByCustomer map[string]*CustomerStats `json:"by_customer"`
}

// NewCrawlStats returns zeroed counters.
func NewCrawlStats() *CrawlStats {
	return &CrawlStats{ByCustomer: make(map[string]*CustomerStats)}
}

func (s *CrawlStats) bucket(customer, subfolder string) (*CustomerStats, *SubfolderStats) {
	cust, ok := s.ByCustomer[customer]
	if !ok {
		cust = &CustomerStats{BySubfolder: make(map[string]*SubfolderStats)}
		s.ByCustomer[customer] = cust
	}
	sub, ok := cust.BySubfolder[subfolder]
	if !ok {
		sub = &SubfolderStats{}
		cust.BySubfolder[subfolder] = sub
	}
	return cust, sub
}

// RecordProcessed counts one inspected file against its customer/subfolder.
func (s *CrawlStats) RecordProcessed(customer, subfolder string) {
	s.Processed++
	cust, sub := s.bucket(customer, subfolder)
	cust.Processed++
	sub.Processed++
}

// RecordMoved counts one file relocated into the central tree.
func (s *CrawlStats) RecordMoved() {
	s.Moved++
}

// RecordDuplicate counts one quarantined duplicate.
func (s *CrawlStats) RecordDuplicate(customer, subfolder string) {
	s.Duplicates++
	cust, sub := s.bucket(customer, subfolder)
	cust.Duplicates++
	sub.Duplicates++
}

// RecordError counts one per-file failure.
func (s *CrawlStats) RecordError() {
	s.Errors++
}

// Clone returns a deep copy safe to hand to concurrent status readers.
func (s *CrawlStats) Clone() *CrawlStats {
	out := &CrawlStats{
		Processed:  s.Processed,
		Moved:      s.Moved,
		Duplicates: s.Duplicates,
		Errors:     s.Errors,
		ByCustomer: make(map[string]*CustomerStats, len(s.ByCustomer)),
	}
	for customer, cust := range s.ByCustomer {
		copied := &CustomerStats{
			Processed:   cust.Processed,
			Duplicates:  cust.Duplicates,
			BySubfolder: make(map[string]*SubfolderStats, len(cust.BySubfolder)),
		}
		for sub, stats := range cust.BySubfolder {
			copied.BySubfolder[sub] = &SubfolderStats{
				Processed:  stats.Processed,
				Duplicates: stats.Duplicates,
			}
		}
		out.ByCustomer[customer] = copied
	}
	return out
}
