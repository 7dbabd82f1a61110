// Package netfetch is the network collaborator used by provider clients and
// the asset download pipeline. Every call carries its own timeout and a
// timeout is reported distinctly from other I/O failures.
package netfetch
