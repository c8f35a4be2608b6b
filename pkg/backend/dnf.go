// pkg/backend/dnf.go
package backend

// DnfDescriptor drives the dnf CLI on Fedora, RHEL and CentOS
var DnfDescriptor = &Descriptor{
	ID:         Dnf,
	Name:       "DNF",
	Executable: "dnf",
	Platforms:  []Platform{Linux},
	Templates: map[Verb]Template{
		Install: {Args: []string{"install", Placeholder}},
		Search:  {Args: []string{"search", Placeholder}},
		Update:  {Args: []string{"upgrade", Placeholder}, All: []string{"upgrade"}},
		List:    {Args: []string{"list", "--installed"}},
	},
	Privileged: true,
	NoMatch:    []string{"No matches found"},
	IgnoreLines: []string{
		"Last metadata expiration check",
		"Updating and loading repositories",
		"Repositories loaded",
	},
}
