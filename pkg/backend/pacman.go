// pkg/backend/pacman.go
package backend

// PacmanDescriptor drives pacman on Arch Linux and derivatives
var PacmanDescriptor = &Descriptor{
	ID:         Pacman,
	Name:       "Pacman",
	Executable: "pacman",
	Platforms:  []Platform{Linux},
	Templates: map[Verb]Template{
		Install: {Args: []string{"-S", Placeholder}},
		Search:  {Args: []string{"-Ss", Placeholder}},
		Update:  {Args: []string{"-S", Placeholder}, All: []string{"-Syu"}},
		List:    {Args: []string{"-Q"}},
	},
	Privileged: true,
}
