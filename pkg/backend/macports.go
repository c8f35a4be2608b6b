// pkg/backend/macports.go
package backend

// MacPortsDescriptor drives the port CLI
var MacPortsDescriptor = &Descriptor{
	ID:         MacPorts,
	Name:       "MacPorts",
	Executable: "port",
	Platforms:  []Platform{MacOS},
	Templates: map[Verb]Template{
		Install: {Args: []string{"install", Placeholder}},
		Search:  {Args: []string{"search", Placeholder}},
		// a bare "port upgrade" needs a target, "outdated" selects everything
		Update: {Args: []string{"upgrade", Placeholder}, All: []string{"upgrade", "outdated"}},
		List:   {Args: []string{"installed"}},
	},
	Privileged: true,
	NoMatch:    []string{"No match for"},
}
