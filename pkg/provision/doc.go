// Package provision brings a freshly flashed or previously used
// coordinator into the configured network.
//
// The sequence is:
//
//  1. read every configuration item and write the ones that differ
//  2. register the application endpoints
//  3. start the network and wait until the device reports ZB_COORD
//
// Provisioning is an ordinary client of znp.Client and only uses Call.
package provision
