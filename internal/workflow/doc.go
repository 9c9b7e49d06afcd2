// Package workflow runs batches over the video backlog.
//
// A batch takes the host lock, reclaims items a killed run left mid-stage,
// sweeps stale workspaces, lists the upload folder and consults the
// processing record once to decide which files still need work. Selected
// items then run sequentially through the pipeline stages, each inside its
// own staging workspace that is removed on every exit path. One item failing
// never stops the batch; the failure is recorded, notified and counted in
// the Summary.
package workflow
