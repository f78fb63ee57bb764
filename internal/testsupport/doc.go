// Package testsupport builds fixtures for asmref tests: synthetic .NET
// assemblies, corrupt files, temp-dir backed configs, and inventory stores.
package testsupport
