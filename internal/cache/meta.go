package cache

// Metadata keys. The username key caches the display name only; the token
// never enters the durable cache (it lives in the session file).
const (
	MetaCategories               = "categories"
	MetaStatuses                 = "statuses"
	MetaFroms                    = "froms"
	MetaSelectedFilterCategories = "selectedFilterCategories"
	MetaSelectedFilterStatuses   = "selectedFilterStatuses"
	MetaFilterSectionVisible     = "filterSectionVisible"
	MetaUsername                 = "username"
)
