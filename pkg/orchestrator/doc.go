// Package orchestrator wires the client, the metadata catalog and the form
// and list engines behind a single entry point keyed by model registry keys.
// It also fans cache invalidations out to the catalog and every open list.
package orchestrator
