// Package util holds small parsing and formatting helpers shared by the
// server and the application wiring.
package util
