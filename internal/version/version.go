// ABOUTME: Version information for the singalong binaries
// ABOUTME: Reported in logs and the participant hello
package version

const (
	// Version is the software version
	Version = "0.3.0"

	// Product is the product name
	Product = "Singalong"

	// Manufacturer identifies who builds it
	Manufacturer = "Resonate Protocol"
)
