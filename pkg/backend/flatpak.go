// pkg/backend/flatpak.go
package backend

// FlatpakDescriptor drives the flatpak CLI
var FlatpakDescriptor = &Descriptor{
	ID:         Flatpak,
	Name:       "Flatpak",
	Executable: "flatpak",
	// cross-platform: applicable wherever the binary resolves
	Platforms:  []Platform{Windows, MacOS, Linux},
	Templates: map[Verb]Template{
		Install: {Args: []string{"install", Placeholder}},
		Search:  {Args: []string{"search", Placeholder}},
		Update:  {Args: []string{"update", Placeholder}, All: []string{"update"}},
		List:    {Args: []string{"list"}},
	},
	NoMatch: []string{"No matches found"},
}
