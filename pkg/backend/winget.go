// pkg/backend/winget.go
package backend

// WinGetDescriptor drives the Windows Package Manager CLI
var WinGetDescriptor = &Descriptor{
	ID:         WinGet,
	Name:       "WinGet",
	Executable: "winget",
	Platforms:  []Platform{Windows},
	Templates: map[Verb]Template{
		Install: {Args: []string{"install", Placeholder}},
		Search:  {Args: []string{"search", Placeholder}},
		Update:  {Args: []string{"upgrade", Placeholder}, All: []string{"upgrade", "--all"}},
		List:    {Args: []string{"list"}},
	},
	NoMatch: []string{"No package found matching input criteria"},
}
