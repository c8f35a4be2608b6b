// pkg/backend/apt.go
package backend

// AptDescriptor drives the apt CLI on Debian and Ubuntu
var AptDescriptor = &Descriptor{
	ID:         Apt,
	Name:       "APT",
	Executable: "apt",
	Platforms:  []Platform{Linux},
	Templates: map[Verb]Template{
		Install: {Args: []string{"install", Placeholder}},
		Search:  {Args: []string{"search", Placeholder}},
		// --only-upgrade keeps a targeted update from installing new packages
		Update: {Args: []string{"install", "--only-upgrade", Placeholder}, All: []string{"upgrade"}},
		List:   {Args: []string{"list", "--installed"}},
	},
	Privileged: true,
	// apt search prints its progress banner on stdout even with no results
	IgnoreLines: []string{"Sorting...", "Full Text Search...", "Listing..."},
}
