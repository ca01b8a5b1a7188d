package consts

const (
	// MaxCreatureSubscriptions caps distinct creature species for standard users
	MaxCreatureSubscriptions = 25
	// MaxRaidSubscriptions caps distinct raid species for standard users
	MaxRaidSubscriptions = 5

	// CommonTypeMinimumIV is the lowest IV floor allowed on common species below moderator
	CommonTypeMinimumIV = 97
	// BulkMinimumIV is the lowest IV floor allowed when subscribing to the whole catalog
	BulkMinimumIV = 80

	MaxIV    = 100
	MaxLevel = 35

	// AllLocations is the keyword that targets every known city
	AllLocations = "all"
)
