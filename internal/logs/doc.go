// Package logs reads the genreclf log file for the `genreclf logs` command.
package logs
