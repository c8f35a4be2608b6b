// pkg/backend/zypper.go
package backend

// ZypperDescriptor drives zypper on openSUSE and SLES
var ZypperDescriptor = &Descriptor{
	ID:         Zypper,
	Name:       "Zypper",
	Executable: "zypper",
	Platforms:  []Platform{Linux},
	Templates: map[Verb]Template{
		Install: {Args: []string{"install", Placeholder}},
		Search:  {Args: []string{"search", Placeholder}},
		Update:  {Args: []string{"update", Placeholder}, All: []string{"update"}},
		List:    {Args: []string{"search", "--installed-only"}},
	},
	Privileged:  true,
	NoMatch:     []string{"No matching items found"},
	IgnoreLines: []string{"Loading repository data...", "Reading installed packages..."},
}
