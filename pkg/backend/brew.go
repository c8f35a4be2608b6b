// pkg/backend/brew.go
package backend

// HomebrewDescriptor drives the brew CLI
var HomebrewDescriptor = &Descriptor{
	ID:         Homebrew,
	Name:       "Homebrew",
	Executable: "brew",
	Platforms:  []Platform{MacOS},
	Templates: map[Verb]Template{
		Install: {Args: []string{"install", Placeholder}},
		Search:  {Args: []string{"search", Placeholder}},
		Update:  {Args: []string{"upgrade", Placeholder}, All: []string{"upgrade"}},
		List:    {Args: []string{"list"}},
	},
	NoMatch:     []string{"No formulae or casks found"},
	IgnoreLines: []string{"==> Formulae", "==> Casks"},
}
