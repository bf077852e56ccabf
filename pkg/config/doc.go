// Package config holds the znp-host configuration file model.
//
// A minimal file only names the device:
//
//	device:
//	  path: /dev/ttyACM0
//
// Everything else has a default, see Default. Load starts from the
// defaults, applies the file on top and validates the result. Unknown
// keys are rejected.
package config
