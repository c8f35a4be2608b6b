// pkg/backend/scoop.go
package backend

// ScoopDescriptor drives the scoop installer
var ScoopDescriptor = &Descriptor{
	ID:         Scoop,
	Name:       "Scoop",
	Executable: "scoop",
	Platforms:  []Platform{Windows},
	Templates: map[Verb]Template{
		Install: {Args: []string{"install", Placeholder}},
		Search:  {Args: []string{"search", Placeholder}},
		Update:  {Args: []string{"update", Placeholder}, All: []string{"update", "*"}},
		List:    {Args: []string{"list"}},
	},
	NoMatch: []string{"No matches found"},
}
