// Package staging manages per-item workspaces under the staging directory:
// artifact naming, cleanup after each item and removal of workspaces left
// behind by interrupted runs.
package staging
