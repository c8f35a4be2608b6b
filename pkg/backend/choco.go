// pkg/backend/choco.go
package backend

// ChocolateyDescriptor drives the choco CLI
var ChocolateyDescriptor = &Descriptor{
	ID:         Chocolatey,
	Name:       "Chocolatey",
	Executable: "choco",
	Platforms:  []Platform{Windows},
	Templates: map[Verb]Template{
		Install: {Args: []string{"install", Placeholder}},
		Search:  {Args: []string{"search", Placeholder}},
		Update:  {Args: []string{"upgrade", Placeholder}, All: []string{"upgrade", "all"}},
		List:    {Args: []string{"list"}},
	},
	// choco exits 0 and prints a package count when nothing matched
	NoMatch:     []string{"0 packages found"},
	IgnoreLines: []string{"Chocolatey v"},
}
