// pkg/backend/snap.go
package backend

// SnapDescriptor drives snapd's CLI
var SnapDescriptor = &Descriptor{
	ID:         Snap,
	Name:       "Snap",
	Executable: "snap",
	// cross-platform: applicable wherever the binary resolves
	Platforms:  []Platform{Windows, MacOS, Linux},
	Templates: map[Verb]Template{
		Install: {Args: []string{"install", Placeholder}},
		Search:  {Args: []string{"find", Placeholder}},
		Update:  {Args: []string{"refresh", Placeholder}, All: []string{"refresh"}},
		List:    {Args: []string{"list"}},
	},
	Privileged: true,
	NoMatch:    []string{"No matching snaps"},
}
